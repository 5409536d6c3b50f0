package ssl

import (
	"fmt"
	"log"

	"github.com/RoaringBitmap/roaring"
	"gonum.org/v1/gonum/floats"
)

//NominalValueRepresentation is one distinct value of a nominal column.
type NominalValueRepresentation struct {
	Value string
	// dense index 0..k-1 within the column domain
	Index int
	// weight of the value over the whole column
	Weight float64
}

//CombinedAttributeValues is a group of nominal values with its class statistics.
//It is an immutable value: Combine returns a new record.
type CombinedAttributeValues struct {
	indices       *roaring.Bitmap
	frequencies   []float64
	probabilities []float64
	weight        float64
}

//NewCombinedAttributeValues creates the record of a single nominal value.
func NewCombinedAttributeValues(value NominalValueRepresentation, frequencies []float64) CombinedAttributeValues {
	if value.Index < 0 {
		log.Panicf("negative index %d of the nominal value %q", value.Index, value.Value)
	}
	return newCombinedAttributeValues(roaring.BitmapOf(uint32(value.Index)), frequencies)
}

func newCombinedAttributeValues(indices *roaring.Bitmap, frequencies []float64) CombinedAttributeValues {
	c := CombinedAttributeValues{
		indices:       indices,
		frequencies:   append([]float64(nil), frequencies...),
		probabilities: make([]float64, len(frequencies)),
		weight:        floats.Sum(frequencies),
	}
	if c.weight > 0 {
		floats.ScaleTo(c.probabilities, 1/c.weight, c.frequencies)
	}
	return c
}

//set returns the index set, empty for the zero value.
func (c CombinedAttributeValues) set() *roaring.Bitmap {
	if c.indices == nil {
		return roaring.New()
	}
	return c.indices
}

//Combine merges two groups of values into one.
func (c CombinedAttributeValues) Combine(other CombinedAttributeValues) CombinedAttributeValues {
	if len(c.frequencies) != len(other.frequencies) {
		log.Panicf("the number of classes %d is not equal to %d", len(other.frequencies), len(c.frequencies))
	}
	frequencies := append([]float64(nil), c.frequencies...)
	floats.Add(frequencies, other.frequencies)
	return newCombinedAttributeValues(roaring.Or(c.set(), other.set()), frequencies)
}

//Indices returns the original nominal indices of the group in ascending order.
func (c CombinedAttributeValues) Indices() []int {
	raw := c.set().ToArray()
	indices := make([]int, len(raw))
	for ind, v := range raw {
		indices[ind] = int(v)
	}
	return indices
}

//Contains reports whether the original nominal index belongs to the group.
func (c CombinedAttributeValues) Contains(index int) bool {
	return index >= 0 && c.set().Contains(uint32(index))
}

//FirstIndex returns the smallest original nominal index of the group, -1 for an empty group.
func (c CombinedAttributeValues) FirstIndex() int {
	if c.set().IsEmpty() {
		return -1
	}
	return int(c.indices.Minimum())
}

//Frequencies returns a copy of the weighted class frequencies.
func (c CombinedAttributeValues) Frequencies() []float64 {
	return append([]float64(nil), c.frequencies...)
}

//Probabilities returns a copy of the class probabilities.
func (c CombinedAttributeValues) Probabilities() []float64 {
	return append([]float64(nil), c.probabilities...)
}

//Weight returns the total weight of the group.
func (c CombinedAttributeValues) Weight() float64 {
	return c.weight
}

//Equal compares the index set, frequencies, probabilities and weight.
//The zero value is an empty group.
func (c CombinedAttributeValues) Equal(other CombinedAttributeValues) bool {
	return c.set().Equals(other.set()) &&
		floats.Equal(c.frequencies, other.frequencies) &&
		floats.Equal(c.probabilities, other.probabilities) &&
		c.weight == other.weight
}

func (c CombinedAttributeValues) String() string {
	return fmt.Sprintf("%v %v (weight %g)", c.Indices(), c.frequencies, c.weight)
}
