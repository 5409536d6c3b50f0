package ssl

import (
	"fmt"
	"log"
	"math"
)

//Criterion measures the impurity of target priors.
type Criterion interface {
	Impurity(priors TargetPriors) float64
	Name() string
}

//GiniCriterion is the Gini impurity 1 - sum p_c^2 of a class distribution.
type GiniCriterion struct{}

//EntropyCriterion is the Shannon entropy -sum p_c log2 p_c of a class distribution.
type EntropyCriterion struct{}

//VarianceCriterion is the weighted variance of a numeric target, so that the
//weighted sum of child impurities is the sum of squared deviations over the total weight.
type VarianceCriterion struct{}

func (GiniCriterion) Name() string     { return "gini" }
func (EntropyCriterion) Name() string  { return "entropy" }
func (VarianceCriterion) Name() string { return "variance" }

func (GiniCriterion) Impurity(priors TargetPriors) float64 {
	p := classificationPriors(priors, "gini")
	if p.weight <= 0 {
		return 0
	}
	s := 0.0
	for _, f := range p.frequencies {
		q := f / p.weight
		s += q * q
	}
	return 1 - s
}

func (EntropyCriterion) Impurity(priors TargetPriors) float64 {
	p := classificationPriors(priors, "entropy")
	if p.weight <= 0 {
		return 0
	}
	e := 0.0
	for _, f := range p.frequencies {
		if f > 0 {
			q := f / p.weight
			e -= q * math.Log2(q)
		}
	}
	return e
}

func (VarianceCriterion) Impurity(priors TargetPriors) float64 {
	p, ok := priors.(*RegressionPriors)
	if !ok {
		log.Panicf("the variance criterion needs regression priors, got %T", priors)
	}
	if p.sumW <= 0 {
		return 0
	}
	return p.SumSquaredDeviation() / p.sumW
}

func classificationPriors(priors TargetPriors, name string) *ClassificationPriors {
	p, ok := priors.(*ClassificationPriors)
	if !ok {
		log.Panicf("the %s criterion needs classification priors, got %T", name, priors)
	}
	return p
}

//ParseCriterion maps a criterion name to a Criterion.
func ParseCriterion(name string) (Criterion, error) {
	switch name {
	case "gini", "":
		return GiniCriterion{}, nil
	case "entropy", "information_gain":
		return EntropyCriterion{}, nil
	case "variance", "mse":
		return VarianceCriterion{}, nil
	default:
		return nil, fmt.Errorf("unknown criterion %q", name)
	}
}

//splitGain is parent impurity minus the weighted impurities of the children.
//The weights of children are relative to the parent total weight.
func splitGain(criterion Criterion, parent, left, right TargetPriors) float64 {
	total := parent.TotalWeight()
	if total <= 0 {
		return 0
	}
	return criterion.Impurity(parent) -
		left.TotalWeight()/total*criterion.Impurity(left) -
		right.TotalWeight()/total*criterion.Impurity(right)
}
