package ssl

import (
	"math"
	"testing"
)

func nominalFixture(codes []int, classes []int) (NominalColumn, *NominalTarget, *RowMembership) {
	labels := make([]string, 0)
	for _, code := range codes {
		for len(labels) <= code {
			labels = append(labels, string(rune('a'+len(labels))))
		}
	}
	weights := uniformWeights(len(codes))
	return NewNominalColumn(5, "color", codes, labels, weights), NewNominalTarget(classes, 2), NewRootMembership(weights)
}

func leftValues(t *testing.T, split *SplitCandidate) map[int]bool {
	t.Helper()
	condition, ok := split.Left().(NominalCondition)
	if !ok {
		t.Fatalf("the left condition is %T", split.Left())
	}
	values := make(map[int]bool)
	for it := condition.Values.Iterator(); it.HasNext(); {
		values[int(it.Next())] = true
	}
	return values
}

func TestNominalSplitStrategies(t *testing.T) {
	column, target, root := nominalFixture([]int{0, 0, 1, 1, 2, 2}, []int{0, 0, 1, 1, 0, 0})
	priors := NewTargetPriors(root, target)

	full := DefaultSearchConfig()
	random := DefaultSearchConfig()
	random.MaxExhaustiveValues = 2
	random.LargeNominalStrategy = NominalRandom
	linear := DefaultSearchConfig()
	linear.MaxExhaustiveValues = 2

	for name, config := range map[string]SearchConfig{"full": full, "random": random, "linear": linear} {
		split := column.BestSplit(root, priors, config)
		if split == nil {
			t.Fatalf("%s: no split", name)
		}
		if math.Abs(split.Gain-4.0/9) > 1e-12 {
			t.Fatalf("%s: expected the gain 4/9, got %g", name, split.Gain)
		}
		left, right := split.Partition(root)
		for _, child := range []*RowMembership{left, right} {
			childPriors := NewTargetPriors(child, target)
			if (GiniCriterion{}).Impurity(childPriors) != 0 {
				t.Fatalf("%s: the child %v is not pure", name, childPriors)
			}
		}
		if split.Column != 5 || split.ColumnName != "color" {
			t.Fatalf("%s: unexpected column of %v", name, split)
		}
	}

	split := column.BestSplit(root, priors, full)
	values := leftValues(t, split)
	if len(values) != 2 || !values[0] || !values[2] {
		t.Fatalf("expected {a, c} on the left, got %v", split)
	}
	if split.Right().Matches(0) || !split.Right().Matches(2) {
		t.Fatalf("the right condition is not the complement of the left one")
	}
	if !split.CanSplitFurther {
		t.Fatalf("the group {a, c} can be split again")
	}
}

func TestNominalSplitSingleValue(t *testing.T) {
	column, target, root := nominalFixture([]int{1, 1, -1, 1}, []int{0, 1, 0, 1})
	if split := column.BestSplit(root, NewTargetPriors(root, target), DefaultSearchConfig()); split != nil {
		t.Fatalf("a single present value is split: %v", split)
	}

	column, target, root = nominalFixture([]int{0, 1, 0, 1}, []int{0, 1, 0, 1})
	split := column.BestSplit(root, NewTargetPriors(root, target), DefaultSearchConfig())
	if split == nil || split.CanSplitFurther {
		t.Fatalf("two values split into singletons can't be split again: %v", split)
	}
}

func TestNominalSplitMissingPolicies(t *testing.T) {
	column, target, root := nominalFixture([]int{0, 0, 1, 1, -1, -1}, []int{0, 0, 1, 1, 1, 1})
	priors := NewTargetPriors(root, target)

	config := DefaultSearchConfig()
	split := column.BestSplit(root, priors, config)
	if split == nil || len(split.Conditions) != 3 || split.MissingDirection != MissingNowhere {
		t.Fatalf("expected a separate missing condition: %v", split)
	}
	if math.Abs(split.Gain-0.5) > 1e-12 {
		t.Fatalf("expected the gain 0.5 over the known values, got %g", split.Gain)
	}
	if split.Left().Matches(4) || split.Right().Matches(4) || !split.Conditions[2].Matches(4) {
		t.Fatalf("a child condition claims a missing row")
	}

	config.MissingPolicy = MissingDualDirection
	split = column.BestSplit(root, priors, config)
	if split == nil {
		t.Fatalf("no split")
	}
	// missing rows belong with the value b
	values := leftValues(t, split)
	missingWithLeft := values[1]
	if split.MissingToLeft != missingWithLeft {
		t.Fatalf("missing rows are not sent next to b: %v", split)
	}
	left, right := split.Partition(root)
	for _, child := range []*RowMembership{left, right} {
		if (GiniCriterion{}).Impurity(NewTargetPriors(child, target)) != 0 {
			t.Fatalf("the dual search didn't find the pure split: %v", split)
		}
	}

	config.MissingPolicy = MissingAssignLeft
	split = column.BestSplit(root, priors, config)
	if split == nil || !split.Left().Matches(4) || split.Right().Matches(4) {
		t.Fatalf("missing rows don't go left: %v", split)
	}
}

func TestNominalSplitRegressionOrdersByMean(t *testing.T) {
	codes := []int{0, 0, 1, 1, 2, 2, 3, 3}
	labels := []string{"a", "b", "c", "d"}
	target := NewNumericTarget([]float64{10, 12, 1, 1, 11, 9, 2, 0})
	column := NewNominalColumn(0, "kind", codes, labels, nil)
	root := NewRootMembership(uniformWeights(len(codes)))
	config := DefaultSearchConfig()
	config.Criterion = VarianceCriterion{}
	config.MaxExhaustiveValues = 3

	split := column.BestSplit(root, NewTargetPriors(root, target), config)
	if split == nil {
		t.Fatalf("no split")
	}
	values := leftValues(t, split)
	lowGroup := values[1] && values[3] && !values[0] && !values[2]
	highGroup := values[0] && values[2] && !values[1] && !values[3]
	if !lowGroup && !highGroup {
		t.Fatalf("expected {b, d} against {a, c}, got %v", split)
	}

	exhaustive := config
	exhaustive.MaxExhaustiveValues = 4
	best := column.BestSplit(root, NewTargetPriors(root, target), exhaustive)
	if math.Abs(best.Gain-split.Gain) > 1e-9 {
		t.Fatalf("the mean order misses the best split: %g against %g", split.Gain, best.Gain)
	}
}

func TestNominalSplitRandomIsReproducible(t *testing.T) {
	h := 40
	codes := make([]int, h)
	classes := make([]int, h)
	for row := 0; row < h; row++ {
		codes[row] = row % 8
		if (row%8)%3 == 0 || row%5 == 0 {
			classes[row] = 1
		}
	}
	column, target, root := nominalFixture(codes, classes)
	priors := NewTargetPriors(root, target)

	config := DefaultSearchConfig()
	config.MaxExhaustiveValues = 4
	config.LargeNominalStrategy = NominalRandom
	config.RandomSamples = 10
	config.Seed = 3

	first := column.BestSplit(root, priors, config)
	second := column.BestSplit(root, priors, config)
	if first == nil || second == nil {
		t.Fatalf("no split")
	}
	if first.Gain != second.Gain || first.Left().String() != second.Left().String() {
		t.Fatalf("the same seed gives %v and %v", first, second)
	}

	full := DefaultSearchConfig()
	exhaustive := column.BestSplit(root, priors, full)
	if first.Gain > exhaustive.Gain+1e-12 {
		t.Fatalf("a sample beats the exhaustive search: %g > %g", first.Gain, exhaustive.Gain)
	}
}

func TestContingencyTable(t *testing.T) {
	column, target, root := nominalFixture([]int{0, 1, 1, 2, -1, 0}, []int{0, 1, 0, 1, 1, -1})
	table := NewContingencyTable(column, root, target)
	expected := [][]float64{{1, 0}, {1, 1}, {0, 1}}
	for code, row := range expected {
		for class, v := range row {
			element, err := table.At(code, class)
			if err != nil {
				t.Fatal(err)
			}
			if element.(float64) != v {
				t.Fatalf("the cell (%d, %d) is %v instead of %g", code, class, element, v)
			}
		}
	}

	combined := CombinedValuesFromTable(column, table, []int{1, 2})
	if len(combined) != 2 || combined[0].FirstIndex() != 1 || combined[1].Weight() != 1 {
		t.Fatalf("unexpected combined values %v", combined)
	}
	if column.Values[0].Weight != 2 || column.Values[1].Weight != 2 {
		t.Fatalf("unexpected domain weights %v", column.Values)
	}
}

func TestNominalSplitAssignLeftIgnoresCoding(t *testing.T) {
	config := DefaultSearchConfig()
	config.MissingPolicy = MissingAssignLeft
	classes := []int{0, 0, 1, 1, 0, 0}

	// missing rows share the class of a, whatever code a has
	for name, codes := range map[string][]int{
		"a first":  {0, 0, 1, 1, -1, -1},
		"a second": {1, 1, 0, 0, -1, -1},
	} {
		column, target, root := nominalFixture(codes, classes)
		split := column.BestSplit(root, NewTargetPriors(root, target), config)
		if split == nil {
			t.Fatalf("%s: no split", name)
		}
		if math.Abs(split.Gain-4.0/9) > 1e-12 {
			t.Fatalf("%s: expected the gain 4/9, got %g", name, split.Gain)
		}
		if !split.MissingToLeft || !split.Left().Matches(4) || split.Right().Matches(5) {
			t.Fatalf("%s: missing rows don't go left: %v", name, split)
		}
		values := leftValues(t, split)
		if len(values) != 1 || !values[codes[0]] {
			t.Fatalf("%s: expected a with the missing rows, got %v", name, split)
		}
		left, right := split.Partition(root)
		if left.RowCount() != 4 || right.RowCount() != 2 {
			t.Fatalf("%s: the children have %d and %d rows", name, left.RowCount(), right.RowCount())
		}
	}
}
