package ssl

import (
	"log"
	"math"
)

// gains at or below this are no improvement of the parent
const minimalGain = 1e-12

//NumericColumn is a numeric attribute column. NaN marks a missing value.
type NumericColumn struct {
	Index  int
	Name   string
	Values []float64
}

//ColumnIndex returns the index of the column in its table.
func (col NumericColumn) ColumnIndex() int {
	return col.Index
}

//ColumnName returns the name of the column.
func (col NumericColumn) ColumnName() string {
	return col.Name
}

//BestSplit searches the column inside a node membership.
func (col NumericColumn) BestSplit(m *RowMembership, priors TargetPriors, config SearchConfig) *SplitCandidate {
	return FindBestNumericSplit(col, m.ColumnView(col.Index), priors, config)
}

//numericScan contains results of one pass over the sorted values.
type numericScan struct {
	gain                    float64
	threshold               float64
	leftWeight, rightWeight float64
	// there are at least two distinct values on the side
	leftSplittable, rightSplittable bool
	validSplit                      bool
}

//presentRows holds the rows with a known attribute value in ascending value order.
type presentRows struct {
	rows    []int
	weights []float64
	// boundary[p] is true when the value of p differs from the value of p+1
	boundary []bool
	distinct int
}

//FindBestNumericSplit scans the values of a column in ascending order and returns the
//threshold with the largest gain, or nil when no threshold improves the node.
//The priors describe the target over all rows of the node.
func FindBestNumericSplit(column NumericColumn, rows ColumnRows, priors TargetPriors, config SearchConfig) *SplitCandidate {
	config.validate()
	if rows.Column() != column.Index {
		log.Panicf("the rows are ordered by the column %d, not by %d", rows.Column(), column.Index)
	}

	present := presentRows{}
	missing := priors.Empty()
	hasMissing := false
	for cursor := rows.Begin(); cursor.HasNext(); {
		row, weight := rows.RowAt(cursor.GetNext())
		if math.IsNaN(column.Values[row]) {
			missing.add(row, weight)
			hasMissing = true
			continue
		}
		present.rows = append(present.rows, row)
		present.weights = append(present.weights, weight)
	}
	present.markBoundaries(column.Values)
	if present.distinct < 2 {
		return nil
	}

	var best numericScan
	direction := MissingNowhere
	switch config.MissingPolicy {
	case MissingExclude:
		best = scanForSplit(column.Values, present, priors.Minus(missing), priors.Empty(), config)
	case MissingAssignLeft:
		best = scanForSplit(column.Values, present, priors, missing, config)
		direction = MissingToLeftChild
	case MissingDualDirection:
		best = scanForSplit(column.Values, present, priors, missing, config)
		direction = MissingToLeftChild
		if hasMissing {
			right := scanForSplit(column.Values, present, priors, priors.Empty(), config)
			if right.validSplit && (!best.validSplit || right.gain > best.gain) {
				best = right
				direction = MissingToRightChild
			}
		}
	default:
		log.Panicf("unknown missing value policy %v", config.MissingPolicy)
	}
	if !best.validSplit {
		return nil
	}

	candidate := &SplitCandidate{
		Gain:       best.gain,
		Column:     column.Index,
		ColumnName: column.Name,
		Conditions: []Condition{
			NumericCondition{Column: column.Index, Name: column.Name, Threshold: best.threshold, LessOrEqual: true,
				AcceptsMissing: direction == MissingToLeftChild, values: column.Values},
			NumericCondition{Column: column.Index, Name: column.Name, Threshold: best.threshold, LessOrEqual: false,
				AcceptsMissing: direction == MissingToRightChild, values: column.Values},
		},
		MissingDirection: direction,
		MissingToLeft:    direction == MissingToLeftChild,
		CanSplitFurther:  best.leftSplittable || best.rightSplittable,
	}
	if direction == MissingNowhere && hasMissing {
		values := column.Values
		candidate.Conditions = append(candidate.Conditions, MissingCondition{
			Column:    column.Index,
			Name:      column.Name,
			isMissing: func(row int) bool { return math.IsNaN(values[row]) },
		})
		candidate.MissingToLeft = best.leftWeight >= best.rightWeight
	}
	return candidate
}

func (p *presentRows) markBoundaries(values []float64) {
	h := len(p.rows)
	p.boundary = make([]bool, h)
	if h == 0 {
		return
	}
	p.distinct = 1
	for pos := 0; pos < h-1; pos++ {
		if values[p.rows[pos]] != values[p.rows[pos+1]] {
			p.boundary[pos] = true
			p.distinct++
		}
	}
}

//scanForSplit moves rows one by one from the right to the left aggregate and evaluates
//the midpoint threshold after every distinct value. The left aggregate starts from leftStart.
func scanForSplit(values []float64, present presentRows, parent, leftStart TargetPriors, config SearchConfig) (bestSplit numericScan) {
	firstIter := true
	left := leftStart.Clone()
	distinctLeft := 0

	for pos, row := range present.rows {
		left.add(row, present.weights[pos])
		if !present.boundary[pos] {
			continue
		}
		distinctLeft++

		right := parent.Minus(left)
		if !admissibleChildren(left, right, config.MinChildWeight) {
			continue
		}
		gain := splitGain(config.Criterion, parent, left, right)
		if gain > minimalGain && (firstIter || gain > bestSplit.gain) {
			firstIter = false
			bestSplit.gain = gain
			bestSplit.threshold = midpoint(values[row], values[present.rows[pos+1]])
			bestSplit.leftWeight = left.TotalWeight()
			bestSplit.rightWeight = right.TotalWeight()
			bestSplit.leftSplittable = distinctLeft >= 2
			bestSplit.rightSplittable = present.distinct-distinctLeft >= 2
		}
	}
	bestSplit.validSplit = !firstIter
	return
}

//midpoint returns a threshold t with lower <= t < upper.
//An infinite bound gives lower.
func midpoint(lower, upper float64) float64 {
	if math.IsInf(lower, 0) || math.IsInf(upper, 0) {
		return lower
	}
	t := lower + (upper-lower)/2
	if math.IsNaN(t) || t >= upper {
		return lower
	}
	return t
}

func admissibleChildren(left, right TargetPriors, minChildWeight float64) bool {
	lw, rw := left.TotalWeight(), right.TotalWeight()
	// tolerate rounding in right = parent - left
	const eps = 1e-9
	return lw > eps && rw > eps && lw >= minChildWeight && rw >= minChildWeight
}
