package ssl

import (
	"fmt"
	"log"
	"math"

	"gonum.org/v1/gonum/floats"
)

//Target is the target column of a learning task.
type Target interface {
	//Height returns the number of rows of the target column.
	Height() int
	emptyPriors() TargetPriors
}

//TargetPriors summarizes the target over a set of weighted rows.
//TotalWeight counts only rows with a known target; rows with a missing target
//are kept aside in MissingWeight and take no part in impurities.
type TargetPriors interface {
	TotalWeight() float64
	MissingWeight() float64
	Impurity(criterion Criterion) float64
	//Empty returns priors of the same target without any rows.
	Empty() TargetPriors
	Clone() TargetPriors
	//Plus returns the statistics of the union of two disjoint row sets.
	Plus(other TargetPriors) TargetPriors
	//Minus returns the statistics of the receiver rows without the rows of other.
	Minus(other TargetPriors) TargetPriors
	String() string

	add(row int, weight float64)
	merge(other TargetPriors, sign float64)
}

//NewTargetPriors computes target statistics in one pass over the rows.
func NewTargetPriors(rows WeightedRows, target Target) TargetPriors {
	priors := target.emptyPriors()
	rows.ForEachRow(priors.add)
	return priors
}

//NominalTarget is a classification target. A class equal to -1 marks a missing target.
type NominalTarget struct {
	Classes    []int
	NumClasses int
}

//NewNominalTarget validates the classes and creates a classification target.
func NewNominalTarget(classes []int, numClasses int) *NominalTarget {
	if numClasses < 1 {
		log.Panicf("a nominal target needs at least one class, got %d", numClasses)
	}
	for row, class := range classes {
		if class < -1 || class >= numClasses {
			log.Panicf("the class %d of the row %d is out of range [0, %d)", class, row, numClasses)
		}
	}
	return &NominalTarget{Classes: classes, NumClasses: numClasses}
}

//Height returns the number of rows.
func (t *NominalTarget) Height() int {
	return len(t.Classes)
}

func (t *NominalTarget) emptyPriors() TargetPriors {
	return &ClassificationPriors{target: t, frequencies: make([]float64, t.NumClasses)}
}

//NumericTarget is a regression target. NaN marks a missing target.
type NumericTarget struct {
	Values []float64
}

//NewNumericTarget creates a regression target.
func NewNumericTarget(values []float64) *NumericTarget {
	return &NumericTarget{Values: values}
}

//Height returns the number of rows.
func (t *NumericTarget) Height() int {
	return len(t.Values)
}

func (t *NumericTarget) emptyPriors() TargetPriors {
	return &RegressionPriors{target: t}
}

//ClassificationPriors holds the weighted class frequencies of a set of rows.
type ClassificationPriors struct {
	target      *NominalTarget
	frequencies []float64
	weight      float64
	missing     float64
}

//Frequencies returns a copy of the weighted class frequencies.
func (p *ClassificationPriors) Frequencies() []float64 {
	return append([]float64(nil), p.frequencies...)
}

//NumClasses returns the length of the frequency vector.
func (p *ClassificationPriors) NumClasses() int {
	return len(p.frequencies)
}

//Probabilities returns frequencies divided by the total weight, all zeros for empty priors.
func (p *ClassificationPriors) Probabilities() []float64 {
	probabilities := make([]float64, len(p.frequencies))
	if p.weight > 0 {
		floats.ScaleTo(probabilities, 1/p.weight, p.frequencies)
	}
	return probabilities
}

//MajorityClass returns the class with the largest weight; the first one on ties.
func (p *ClassificationPriors) MajorityClass() int {
	best := 0
	for class, f := range p.frequencies {
		if f > p.frequencies[best] {
			best = class
		}
	}
	return best
}

//TotalWeight returns the weight of rows with a known class.
func (p *ClassificationPriors) TotalWeight() float64 {
	return p.weight
}

//MissingWeight returns the weight of rows with a missing class.
func (p *ClassificationPriors) MissingWeight() float64 {
	return p.missing
}

//Impurity evaluates the criterion on these priors.
func (p *ClassificationPriors) Impurity(criterion Criterion) float64 {
	return criterion.Impurity(p)
}

func (p *ClassificationPriors) Empty() TargetPriors {
	return p.target.emptyPriors()
}

func (p *ClassificationPriors) Clone() TargetPriors {
	return &ClassificationPriors{
		target:      p.target,
		frequencies: append([]float64(nil), p.frequencies...),
		weight:      p.weight,
		missing:     p.missing,
	}
}

func (p *ClassificationPriors) Plus(other TargetPriors) TargetPriors {
	result := p.Clone()
	result.merge(other, 1)
	return result
}

func (p *ClassificationPriors) Minus(other TargetPriors) TargetPriors {
	result := p.Clone()
	result.merge(other, -1)
	return result
}

func (p *ClassificationPriors) String() string {
	return fmt.Sprintf("classes %v (weight %g, missing %g)", p.frequencies, p.weight, p.missing)
}

func (p *ClassificationPriors) add(row int, weight float64) {
	class := p.target.Classes[row]
	if class < 0 {
		p.missing += weight
		return
	}
	p.frequencies[class] += weight
	p.weight += weight
}

func (p *ClassificationPriors) merge(other TargetPriors, sign float64) {
	o, ok := other.(*ClassificationPriors)
	if !ok {
		log.Panicf("can't combine classification priors with %T", other)
	}
	if len(o.frequencies) != len(p.frequencies) {
		log.Panicf("the number of classes %d is not equal to %d", len(o.frequencies), len(p.frequencies))
	}
	floats.AddScaled(p.frequencies, sign, o.frequencies)
	p.weight += sign * o.weight
	p.missing += sign * o.missing
}

//RegressionPriors holds weighted sums of a numeric target.
type RegressionPriors struct {
	target  *NumericTarget
	sumW    float64
	sumWY   float64
	sumWY2  float64
	missing float64
}

//TotalWeight returns the weight of rows with a known target value.
func (p *RegressionPriors) TotalWeight() float64 {
	return p.sumW
}

//MissingWeight returns the weight of rows with a missing target value.
func (p *RegressionPriors) MissingWeight() float64 {
	return p.missing
}

//Sum returns the weighted sum of target values.
func (p *RegressionPriors) Sum() float64 {
	return p.sumWY
}

//SumOfSquares returns the weighted sum of squared target values.
func (p *RegressionPriors) SumOfSquares() float64 {
	return p.sumWY2
}

//Mean returns the weighted mean, NaN for empty priors.
func (p *RegressionPriors) Mean() float64 {
	if p.sumW <= 0 {
		return math.NaN()
	}
	return p.sumWY / p.sumW
}

//SumSquaredDeviation returns sumWY2 - sumW*mean^2, never negative.
func (p *RegressionPriors) SumSquaredDeviation() float64 {
	if p.sumW <= 0 {
		return 0
	}
	mean := p.sumWY / p.sumW
	return math.Max(0, p.sumWY2-p.sumW*mean*mean)
}

//Impurity evaluates the criterion on these priors.
func (p *RegressionPriors) Impurity(criterion Criterion) float64 {
	return criterion.Impurity(p)
}

func (p *RegressionPriors) Empty() TargetPriors {
	return p.target.emptyPriors()
}

func (p *RegressionPriors) Clone() TargetPriors {
	clone := *p
	return &clone
}

func (p *RegressionPriors) Plus(other TargetPriors) TargetPriors {
	result := p.Clone()
	result.merge(other, 1)
	return result
}

func (p *RegressionPriors) Minus(other TargetPriors) TargetPriors {
	result := p.Clone()
	result.merge(other, -1)
	return result
}

func (p *RegressionPriors) String() string {
	return fmt.Sprintf("mean %g (weight %g, missing %g)", p.Mean(), p.sumW, p.missing)
}

func (p *RegressionPriors) add(row int, weight float64) {
	y := p.target.Values[row]
	if math.IsNaN(y) {
		p.missing += weight
		return
	}
	p.sumW += weight
	p.sumWY += weight * y
	p.sumWY2 += weight * y * y
}

func (p *RegressionPriors) merge(other TargetPriors, sign float64) {
	o, ok := other.(*RegressionPriors)
	if !ok {
		log.Panicf("can't combine regression priors with %T", other)
	}
	p.sumW += sign * o.sumW
	p.sumWY += sign * o.sumWY
	p.sumWY2 += sign * o.sumWY2
	p.missing += sign * o.missing
}
