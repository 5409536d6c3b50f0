package ssl

import (
	"fmt"
	"math"
	"strings"

	"github.com/RoaringBitmap/roaring"
)

//Condition decides whether a row belongs to a child of a split.
type Condition interface {
	Matches(row int) bool
	String() string
}

//MissingDirection records where rows with a missing attribute value go.
type MissingDirection int

const (
	//MissingNowhere means that no child condition claims missing rows.
	MissingNowhere MissingDirection = iota
	MissingToLeftChild
	MissingToRightChild
)

func (d MissingDirection) String() string {
	switch d {
	case MissingToLeftChild:
		return "left"
	case MissingToRightChild:
		return "right"
	}
	return "none"
}

//SplitCandidate is the best split found in one column.
type SplitCandidate struct {
	Gain       float64
	Column     int
	ColumnName string
	// left, right and, when missing rows are claimed by neither, the missing condition
	Conditions       []Condition
	MissingDirection MissingDirection
	// where the rows of the missing condition go on partitioning
	MissingToLeft bool
	// false when no child can be split on this column again
	CanSplitFurther bool
}

//Left returns the condition of the left child.
func (c *SplitCandidate) Left() Condition {
	return c.Conditions[0]
}

//Right returns the condition of the right child.
func (c *SplitCandidate) Right() Condition {
	return c.Conditions[1]
}

//Partition materializes the children memberships of the split.
func (c *SplitCandidate) Partition(m *RowMembership) (left, right *RowMembership) {
	var missing Condition
	if len(c.Conditions) > 2 {
		missing = c.Conditions[2]
	}
	return m.Partition(func(row int) bool {
		if missing != nil && missing.Matches(row) {
			return c.MissingToLeft
		}
		return c.Conditions[0].Matches(row)
	})
}

func (c *SplitCandidate) String() string {
	descriptions := make([]string, len(c.Conditions))
	for ind, condition := range c.Conditions {
		descriptions[ind] = condition.String()
	}
	return fmt.Sprintf("gain %.6g: %s", c.Gain, strings.Join(descriptions, " | "))
}

//NumericCondition compares a numeric column with a threshold.
type NumericCondition struct {
	Column         int
	Name           string
	Threshold      float64
	LessOrEqual    bool
	AcceptsMissing bool
	values         []float64
}

func (c NumericCondition) Matches(row int) bool {
	v := c.values[row]
	if math.IsNaN(v) {
		return c.AcceptsMissing
	}
	if c.LessOrEqual {
		return v <= c.Threshold
	}
	return v > c.Threshold
}

func (c NumericCondition) String() string {
	op := ">"
	if c.LessOrEqual {
		op = "<="
	}
	s := fmt.Sprintf("%s %s %g", c.Name, op, c.Threshold)
	if c.AcceptsMissing {
		s += " or missing"
	}
	return s
}

//NominalCondition tests membership of a nominal value in a set of original value indices.
//A negated condition accepts every known value outside the set.
type NominalCondition struct {
	Column         int
	Name           string
	Values         *roaring.Bitmap
	Negated        bool
	AcceptsMissing bool
	codes          []int
	labels         []NominalValueRepresentation
}

func (c NominalCondition) Matches(row int) bool {
	code := c.codes[row]
	if code < 0 {
		return c.AcceptsMissing
	}
	return c.Values.Contains(uint32(code)) != c.Negated
}

func (c NominalCondition) String() string {
	names := make([]string, 0, c.Values.GetCardinality())
	for it := c.Values.Iterator(); it.HasNext(); {
		index := int(it.Next())
		if index < len(c.labels) {
			names = append(names, c.labels[index].Value)
		} else {
			names = append(names, fmt.Sprint(index))
		}
	}
	op := "in"
	if c.Negated {
		op = "not in"
	}
	s := fmt.Sprintf("%s %s {%s}", c.Name, op, strings.Join(names, ", "))
	if c.AcceptsMissing {
		s += " or missing"
	}
	return s
}

//MissingCondition accepts the rows whose attribute value is missing.
type MissingCondition struct {
	Column    int
	Name      string
	isMissing func(row int) bool
}

func (c MissingCondition) Matches(row int) bool {
	return c.isMissing(row)
}

func (c MissingCondition) String() string {
	return c.Name + " is missing"
}
