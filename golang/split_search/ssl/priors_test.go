package ssl

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
)

func TestClassificationPriors(t *testing.T) {
	target := NewNominalTarget([]int{0, 1, 1, 2, -1, 1}, 3)
	m := NewRootMembership([]float64{1, 2, 1, 4, 3, 0})
	priors := NewTargetPriors(m, target).(*ClassificationPriors)

	if !floats.Equal(priors.Frequencies(), []float64{1, 3, 4}) {
		t.Fatalf("unexpected frequencies %v", priors.Frequencies())
	}
	if priors.TotalWeight() != 8 || priors.MissingWeight() != 3 {
		t.Fatalf("unexpected weights %g and %g", priors.TotalWeight(), priors.MissingWeight())
	}
	if !floats.EqualApprox(priors.Probabilities(), []float64{0.125, 0.375, 0.5}, 1e-12) {
		t.Fatalf("unexpected probabilities %v", priors.Probabilities())
	}
	if priors.MajorityClass() != 2 {
		t.Fatalf("expected the majority class 2, got %d", priors.MajorityClass())
	}

	left, _ := m.Partition(func(row int) bool { return row < 2 })
	leftPriors := NewTargetPriors(left, target)
	rightPriors := priors.Minus(leftPriors).(*ClassificationPriors)
	if !floats.Equal(rightPriors.Frequencies(), []float64{0, 1, 4}) || rightPriors.MissingWeight() != 3 {
		t.Fatalf("unexpected difference %v", rightPriors)
	}
	sum := leftPriors.Plus(rightPriors).(*ClassificationPriors)
	if !floats.Equal(sum.Frequencies(), priors.Frequencies()) {
		t.Fatalf("the sum %v is not equal to %v", sum, priors)
	}
	if !floats.Equal(priors.Frequencies(), []float64{1, 3, 4}) {
		t.Fatalf("Minus changed its receiver")
	}

	empty := priors.Empty().(*ClassificationPriors)
	if empty.TotalWeight() != 0 || empty.NumClasses() != 3 {
		t.Fatalf("unexpected empty priors %v", empty)
	}
	if !floats.Equal(empty.Probabilities(), []float64{0, 0, 0}) {
		t.Fatalf("empty priors have probabilities %v", empty.Probabilities())
	}
	expectPanic(t, "class out of range", func() { NewNominalTarget([]int{0, 3}, 3) })
}

func TestRegressionPriors(t *testing.T) {
	target := NewNumericTarget([]float64{1, 2, 3, math.NaN(), 6})
	m := NewRootMembership([]float64{1, 1, 2, 5, 1})
	priors := NewTargetPriors(m, target).(*RegressionPriors)

	if priors.TotalWeight() != 5 || priors.MissingWeight() != 5 {
		t.Fatalf("unexpected weights %g and %g", priors.TotalWeight(), priors.MissingWeight())
	}
	if priors.Sum() != 15 || priors.SumOfSquares() != 59 {
		t.Fatalf("unexpected sums %g and %g", priors.Sum(), priors.SumOfSquares())
	}
	if priors.Mean() != 3 {
		t.Fatalf("expected the mean 3, got %g", priors.Mean())
	}
	if math.Abs(priors.SumSquaredDeviation()-14) > 1e-12 {
		t.Fatalf("expected the deviation 14, got %g", priors.SumSquaredDeviation())
	}
	if math.Abs(VarianceCriterion{}.Impurity(priors)-2.8) > 1e-12 {
		t.Fatalf("expected the variance 2.8, got %g", VarianceCriterion{}.Impurity(priors))
	}

	rest := priors.Minus(priors)
	if rest.TotalWeight() != 0 || !math.IsNaN(rest.(*RegressionPriors).Mean()) {
		t.Fatalf("unexpected empty difference %v", rest)
	}
	if rest.(*RegressionPriors).SumSquaredDeviation() != 0 {
		t.Fatalf("empty priors have a deviation")
	}
}

func TestCriteria(t *testing.T) {
	target := NewNominalTarget([]int{0, 0, 1, 1}, 2)
	priors := NewTargetPriors(NewRootMembership([]float64{1, 1, 1, 1}), target)

	if gini := (GiniCriterion{}).Impurity(priors); math.Abs(gini-0.5) > 1e-12 {
		t.Errorf("expected the gini 0.5, got %g", gini)
	}
	if entropy := (EntropyCriterion{}).Impurity(priors); math.Abs(entropy-1) > 1e-12 {
		t.Errorf("expected the entropy 1, got %g", entropy)
	}
	if gini := (GiniCriterion{}).Impurity(priors.Empty()); gini != 0 {
		t.Errorf("empty priors have the gini %g", gini)
	}
	expectPanic(t, "variance of classes", func() { VarianceCriterion{}.Impurity(priors) })
	expectPanic(t, "gini of a regression", func() {
		GiniCriterion{}.Impurity(NewTargetPriors(NewRootMembership([]float64{1}), NewNumericTarget([]float64{1})))
	})

	for _, name := range []string{"gini", "entropy", "variance"} {
		criterion, err := ParseCriterion(name)
		if err != nil || criterion.Name() != name {
			t.Errorf("can't parse %q: %v", name, err)
		}
	}
	if _, err := ParseCriterion("chi2"); err == nil {
		t.Errorf("an unknown criterion is accepted")
	}
}

func TestSearchConfigFile(t *testing.T) {
	config, err := SearchConfigFile{}.SearchConfig()
	if err != nil {
		t.Fatal(err)
	}
	if config.MissingPolicy != MissingExclude || config.Criterion.Name() != "gini" ||
		config.MaxExhaustiveValues != DefaultMaxExhaustiveValues || config.LargeNominalStrategy != NominalLinear ||
		config.SignConvention != SignLargestComponentPositive {
		t.Fatalf("unexpected defaults %+v", config)
	}

	config, err = SearchConfigFile{
		MissingPolicy:        "dual",
		Criterion:            "variance",
		MaxExhaustiveValues:  5,
		LargeNominalStrategy: "random",
		RandomSamples:        20,
		Seed:                 7,
		SignConvention:       "first",
	}.SearchConfig()
	if err != nil {
		t.Fatal(err)
	}
	if config.MissingPolicy != MissingDualDirection || config.MaxExhaustiveValues != 5 ||
		config.LargeNominalStrategy != NominalRandom || config.RandomSamples != 20 || config.Seed != 7 ||
		config.SignConvention != SignFirstComponentPositive {
		t.Fatalf("unexpected config %+v", config)
	}

	bad := []SearchConfigFile{
		{MissingPolicy: "right"},
		{Criterion: "chi2"},
		{LargeNominalStrategy: "greedy"},
		{SignConvention: "last"},
		{MaxExhaustiveValues: 64},
	}
	for _, f := range bad {
		if _, err := f.SearchConfig(); err == nil {
			t.Errorf("the config %+v is accepted", f)
		}
	}

	if MissingDualDirection.String() != "dual" {
		t.Errorf("unexpected name %s", MissingDualDirection)
	}
}
