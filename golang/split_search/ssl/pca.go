package ssl

import (
	"fmt"
	"log"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

//SignConvention fixes the sign of the dominant eigenvector, which the eigen-decomposition
//leaves undetermined.
type SignConvention int

const (
	//SignLargestComponentPositive makes the component with the largest magnitude positive.
	SignLargestComponentPositive SignConvention = iota
	//SignFirstComponentPositive makes the first non-zero component positive.
	SignFirstComponentPositive
)

//ParseSignConvention maps a configuration string to a SignConvention.
func ParseSignConvention(name string) (SignConvention, error) {
	switch name {
	case "largest", "":
		return SignLargestComponentPositive, nil
	case "first":
		return SignFirstComponentPositive, nil
	default:
		return 0, fmt.Errorf("unknown sign convention %q", name)
	}
}

// below this the largest eigenvalue is treated as a zero variance
const degenerateVariance = 1e-12

func checkProbabilities(values []CombinedAttributeValues, numClasses int) {
	for ind, v := range values {
		if len(v.probabilities) != numClasses {
			log.Panicf("the value %d has %d class probabilities instead of %d", ind, len(v.probabilities), numClasses)
		}
	}
}

//WeightedMeanProbabilities returns sum_v weight_v/totalWeight * probability_v.
func WeightedMeanProbabilities(values []CombinedAttributeValues, totalWeight float64, numClasses int) []float64 {
	checkProbabilities(values, numClasses)
	mean := make([]float64, numClasses)
	if totalWeight <= 0 {
		return mean
	}
	for _, v := range values {
		floats.AddScaled(mean, v.weight/totalWeight, v.probabilities)
	}
	return mean
}

//CovarianceMatrix returns the weighted covariance of class probability vectors around
//their weighted mean, each value weighted by weight_v/totalWeight.
func CovarianceMatrix(values []CombinedAttributeValues, totalWeight float64, numClasses int) *mat.SymDense {
	mean := WeightedMeanProbabilities(values, totalWeight, numClasses)
	cov := mat.NewSymDense(numClasses, nil)
	if totalWeight <= 0 {
		return cov
	}
	centered := make([]float64, numClasses)
	for _, v := range values {
		floats.SubTo(centered, v.probabilities, mean)
		cov.SymRankOne(cov, v.weight/totalWeight, mat.NewVecDense(numClasses, centered))
	}
	return cov
}

//DominantEigenvector returns the eigenvector of the largest eigenvalue of the covariance
//with the sign fixed by the convention. ok is false for a zero variance.
func DominantEigenvector(cov *mat.SymDense, convention SignConvention) (vector []float64, ok bool) {
	n := cov.SymmetricDim()
	if n == 0 {
		return nil, false
	}
	var eig mat.EigenSym
	if !eig.Factorize(cov, true) {
		return nil, false
	}
	values := eig.Values(nil)
	// eigenvalues come in ascending order
	if values[n-1] <= degenerateVariance {
		return nil, false
	}
	var vectors mat.Dense
	eig.VectorsTo(&vectors)
	vector = mat.Col(nil, n-1, &vectors)

	pivot := 0
	switch convention {
	case SignFirstComponentPositive:
		for pivot < n-1 && vector[pivot] == 0 {
			pivot++
		}
	default:
		for ind := range vector {
			if math.Abs(vector[ind]) > math.Abs(vector[pivot]) {
				pivot = ind
			}
		}
	}
	if vector[pivot] < 0 {
		floats.Scale(-1, vector)
	}
	return vector, true
}

//OrderByDominantComponent returns the values sorted by the projection of their class
//probabilities on the direction of the largest class probability variance. Equal projections
//keep the smaller original index first. A zero variance keeps the input order.
func OrderByDominantComponent(values []CombinedAttributeValues, totalWeight float64, numClasses int, convention SignConvention) []CombinedAttributeValues {
	ordered := append([]CombinedAttributeValues(nil), values...)
	direction, ok := DominantEigenvector(CovarianceMatrix(values, totalWeight, numClasses), convention)
	if !ok {
		return ordered
	}

	scores := make([]float64, len(values))
	for ind, v := range values {
		scores[ind] = floats.Dot(v.probabilities, direction)
	}
	permutation := make([]int, len(values))
	for ind := range permutation {
		permutation[ind] = ind
	}
	sort.SliceStable(permutation, func(i, j int) bool {
		a, b := permutation[i], permutation[j]
		if scores[a] != scores[b] {
			return scores[a] < scores[b]
		}
		return values[a].FirstIndex() < values[b].FirstIndex()
	})
	for ind, p := range permutation {
		ordered[ind] = values[p]
	}
	return ordered
}
