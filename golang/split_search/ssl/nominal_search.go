package ssl

import (
	"log"
	"math"
	"sort"

	"github.com/RoaringBitmap/roaring"
	"gorgonia.org/tensor"
)

//NominalColumn is a nominal attribute column stored as dense codes into its domain.
//A negative code marks a missing value.
type NominalColumn struct {
	Index  int
	Name   string
	Codes  []int
	Values []NominalValueRepresentation
}

//NewNominalColumn builds the domain of a nominal column: one NominalValueRepresentation per
//label with the weight of the value over the whole column.
func NewNominalColumn(index int, name string, codes []int, labels []string, weights []float64) NominalColumn {
	if weights != nil && len(weights) != len(codes) {
		log.Panicf("the column %q has %d rows but %d weights", name, len(codes), len(weights))
	}
	values := make([]NominalValueRepresentation, len(labels))
	for ind, label := range labels {
		values[ind] = NominalValueRepresentation{Value: label, Index: ind}
	}
	for row, code := range codes {
		if code >= len(labels) {
			log.Panicf("the code %d of the row %d is outside of the domain of %q", code, row, name)
		}
		if code < 0 {
			continue
		}
		w := 1.0
		if weights != nil {
			w = weights[row]
		}
		values[code].Weight += w
	}
	return NominalColumn{Index: index, Name: name, Codes: codes, Values: values}
}

//ColumnIndex returns the index of the column in its table.
func (col NominalColumn) ColumnIndex() int {
	return col.Index
}

//ColumnName returns the name of the column.
func (col NominalColumn) ColumnName() string {
	return col.Name
}

//BestSplit searches the column inside a node membership.
func (col NominalColumn) BestSplit(m *RowMembership, priors TargetPriors, config SearchConfig) *SplitCandidate {
	return FindBestNominalSplit(col, m, priors, config)
}

//nominalScan contains results of one pass over candidate bipartitions.
type nominalScan struct {
	gain                    float64
	partition               Bipartition
	leftWeight, rightWeight float64
	// the left child is the complement of the partition group
	complement bool
	validSplit bool
}

//FindBestNominalSplit searches bipartitions of the values present in the rows and returns the
//one with the largest gain, or nil when no bipartition improves the node.
//The priors describe the target over all rows of the node.
func FindBestNominalSplit(column NominalColumn, rows WeightedRows, priors TargetPriors, config SearchConfig) *SplitCandidate {
	config.validate()

	perValue := make([]TargetPriors, len(column.Values))
	missing := priors.Empty()
	hasMissing := false
	rows.ForEachRow(func(row int, weight float64) {
		code := column.Codes[row]
		if code < 0 {
			missing.add(row, weight)
			hasMissing = true
			return
		}
		if perValue[code] == nil {
			perValue[code] = priors.Empty()
		}
		perValue[code].add(row, weight)
	})

	present := make([]int, 0, len(column.Values))
	for code, p := range perValue {
		if p != nil {
			present = append(present, code)
		}
	}
	k := len(present)
	if k < 2 {
		return nil
	}

	order := present
	var newEnumerator func() NominalSplitEnumerator
	switch {
	case k <= config.MaxExhaustiveValues:
		newEnumerator = func() NominalSplitEnumerator { return NewFullEnumerator(k) }
	case config.LargeNominalStrategy == NominalRandom && k <= MaxBitmaskValues:
		n := config.RandomSamples
		if space := uint64(1)<<uint(k-1) - 1; uint64(n) > space {
			n = int(space)
		}
		newEnumerator = func() NominalSplitEnumerator {
			return NewRandomEnumerator(k, n, config.randomSource(column.Index))
		}
	default:
		order = linearOrder(column, rows, present, perValue, priors, config.SignConvention)
		newEnumerator = func() NominalSplitEnumerator { return NewLinearEnumerator(k) }
	}

	var best nominalScan
	direction := MissingNowhere
	switch config.MissingPolicy {
	case MissingExclude:
		best = scanBipartitions(newEnumerator(), order, perValue, priors.Minus(missing), priors.Empty(), false, config)
	case MissingAssignLeft:
		// missing rows may join either group, the group holding them becomes the left child
		best = scanBipartitions(newEnumerator(), order, perValue, priors, missing, hasMissing, config)
		direction = MissingToLeftChild
	case MissingDualDirection:
		best = scanBipartitions(newEnumerator(), order, perValue, priors, missing, false, config)
		direction = MissingToLeftChild
		if hasMissing {
			right := scanBipartitions(newEnumerator(), order, perValue, priors, priors.Empty(), false, config)
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

	leftValues := roaring.New()
	for pos, code := range order {
		if best.partition.InLeft(pos) != best.complement {
			leftValues.Add(uint32(code))
		}
	}
	leftCount := int(leftValues.GetCardinality())

	candidate := &SplitCandidate{
		Gain:       best.gain,
		Column:     column.Index,
		ColumnName: column.Name,
		Conditions: []Condition{
			NominalCondition{Column: column.Index, Name: column.Name, Values: leftValues,
				AcceptsMissing: direction == MissingToLeftChild, codes: column.Codes, labels: column.Values},
			NominalCondition{Column: column.Index, Name: column.Name, Values: leftValues, Negated: true,
				AcceptsMissing: direction == MissingToRightChild, codes: column.Codes, labels: column.Values},
		},
		MissingDirection: direction,
		MissingToLeft:    direction == MissingToLeftChild,
		CanSplitFurther:  leftCount >= 2 || k-leftCount >= 2,
	}
	if direction == MissingNowhere && hasMissing {
		codes := column.Codes
		candidate.Conditions = append(candidate.Conditions, MissingCondition{
			Column:    column.Index,
			Name:      column.Name,
			isMissing: func(row int) bool { return codes[row] < 0 },
		})
		candidate.MissingToLeft = best.leftWeight >= best.rightWeight
	}
	return candidate
}

//scanBipartitions evaluates every bipartition of the enumerator. Position p of a
//bipartition is the value order[p]; the left aggregate starts from leftStart and takes
//the group of the bipartition. With both set the left aggregate is also tried with the
//complement of the group, and parent minus that group is the left child.
func scanBipartitions(enumerator NominalSplitEnumerator, order []int, perValue []TargetPriors, parent, leftStart TargetPriors, both bool, config SearchConfig) (bestSplit nominalScan) {
	firstIter := true
	consider := func(partition Bipartition, left TargetPriors, complement bool) {
		right := parent.Minus(left)
		if !admissibleChildren(left, right, config.MinChildWeight) {
			return
		}
		gain := splitGain(config.Criterion, parent, left, right)
		if gain > minimalGain && (firstIter || gain > bestSplit.gain) {
			firstIter = false
			bestSplit.gain = gain
			bestSplit.partition = partition
			bestSplit.complement = complement
			bestSplit.leftWeight = left.TotalWeight()
			bestSplit.rightWeight = right.TotalWeight()
		}
	}
	for {
		partition := enumerator.Current()
		group := parent.Empty()
		for pos, code := range order {
			if partition.InLeft(pos) {
				group.merge(perValue[code], 1)
			}
		}
		left := leftStart.Clone()
		left.merge(group, 1)
		consider(partition, left, false)
		if both {
			consider(partition, parent.Minus(group), true)
		}
		if !enumerator.Next() {
			break
		}
	}
	bestSplit.validSplit = !firstIter
	return
}

//linearOrder arranges the present values along one axis: the dominant class probability
//component for a classification target, the mean target value for a regression target.
func linearOrder(column NominalColumn, rows WeightedRows, present []int, perValue []TargetPriors, priors TargetPriors, convention SignConvention) []int {
	order := make([]int, 0, len(present))
	switch p := priors.(type) {
	case *ClassificationPriors:
		table := NewContingencyTable(column, rows, p.target)
		combined := CombinedValuesFromTable(column, table, present)
		total := 0.0
		for _, c := range combined {
			total += c.Weight()
		}
		for _, c := range OrderByDominantComponent(combined, total, p.target.NumClasses, convention) {
			order = append(order, c.FirstIndex())
		}
	case *RegressionPriors:
		order = append(order, present...)
		mean := func(code int) float64 {
			m := perValue[code].(*RegressionPriors).Mean()
			if math.IsNaN(m) {
				return math.Inf(1)
			}
			return m
		}
		sort.SliceStable(order, func(i, j int) bool {
			return mean(order[i]) < mean(order[j])
		})
	default:
		log.Panicf("unknown priors %T", priors)
	}
	return order
}

//NewContingencyTable counts the weight of every (value, class) pair of the rows.
//Rows with a missing value or a missing class are skipped.
func NewContingencyTable(column NominalColumn, rows WeightedRows, target *NominalTarget) *tensor.Dense {
	table := tensor.New(tensor.WithShape(len(column.Values), target.NumClasses), tensor.Of(tensor.Float64))
	data := table.Data().([]float64)
	rows.ForEachRow(func(row int, weight float64) {
		code, class := column.Codes[row], target.Classes[row]
		if code < 0 || class < 0 {
			return
		}
		data[code*target.NumClasses+class] += weight
	})
	return table
}

//CombinedValuesFromTable creates one CombinedAttributeValues per listed value code.
func CombinedValuesFromTable(column NominalColumn, table *tensor.Dense, codes []int) []CombinedAttributeValues {
	shape := table.Shape()
	if len(shape) != 2 || shape[0] != len(column.Values) {
		log.Panicf("the contingency table of shape %v doesn't fit %d values", shape, len(column.Values))
	}
	numClasses := shape[1]
	combined := make([]CombinedAttributeValues, len(codes))
	frequencies := make([]float64, numClasses)
	for ind, code := range codes {
		for class := 0; class < numClasses; class++ {
			element, err := table.At(code, class)
			HandleError(err)
			frequencies[class] = element.(float64)
		}
		combined[ind] = NewCombinedAttributeValues(column.Values[code], frequencies)
	}
	return combined
}
