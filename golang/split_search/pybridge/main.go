// SPDX-License-Identifier: Apache-2.0

package main

/*
#cgo CFLAGS: -I.
#include <stdlib.h>
*/
import "C"

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"sync"
	"unsafe"

	"github.com/tarstars/tree_split_search/golang/split_search/ssl"
)

var (
	lastErrorMu sync.Mutex
	lastError   string

	logSilenceOnce sync.Once
)

func setLastError(err error) {
	lastErrorMu.Lock()
	defer lastErrorMu.Unlock()
	if err != nil {
		lastError = err.Error()
	} else {
		lastError = ""
	}
}

func getLastError() string {
	lastErrorMu.Lock()
	defer lastErrorMu.Unlock()
	return lastError
}

//guard turns a panic of the library into the last error and the status code.
func guard(status *C.int, code C.int) {
	if r := recover(); r != nil {
		setLastError(fmt.Errorf("%v", r))
		*status = code
	}
}

func copyFloatSlice(ptr *C.double, length int) ([]float64, error) {
	if length < 0 {
		return nil, errors.New("negative length")
	}
	if length == 0 {
		return nil, nil
	}
	if ptr == nil {
		return nil, errors.New("null pointer for non-empty slice")
	}
	src := unsafe.Slice((*float64)(unsafe.Pointer(ptr)), length)
	dst := make([]float64, length)
	copy(dst, src)
	return dst, nil
}

func ones(length int) []float64 {
	weights := make([]float64, length)
	for ind := range weights {
		weights[ind] = 1
	}
	return weights
}

func buildTarget(values []float64, numClasses int) (ssl.Target, error) {
	if numClasses <= 0 {
		return ssl.NewNumericTarget(values), nil
	}
	classes := make([]int, len(values))
	for row, v := range values {
		switch {
		case math.IsNaN(v) || v < 0:
			classes[row] = -1
		case v >= float64(numClasses) || v != float64(int(v)):
			return nil, fmt.Errorf("the target %g of the row %d is not a class in [0, %d)", v, row, numClasses)
		default:
			classes[row] = int(v)
		}
	}
	return ssl.NewNominalTarget(classes, numClasses), nil
}

func buildSearchConfig(missingPolicy, criterion *C.char) (ssl.SearchConfig, error) {
	return ssl.SearchConfigFile{
		MissingPolicy: C.GoString(missingPolicy),
		Criterion:     C.GoString(criterion),
	}.SearchConfig()
}

func findNumericSplit(
	valuesPtr *C.double,
	targetPtr *C.double,
	weightsPtr *C.double,
	rows C.int,
	numClasses C.int,
	missingPolicy *C.char,
	criterion *C.char,
	outThreshold *C.double,
	outGain *C.double,
	outMissingLeft *C.int,
) (status C.int) {
	defer guard(&status, 9)

	if rows <= 0 {
		setLastError(errors.New("rows must be positive"))
		return 1
	}
	if outThreshold == nil || outGain == nil || outMissingLeft == nil {
		setLastError(errors.New("null output pointer"))
		return 1
	}
	h := int(rows)

	values, err := copyFloatSlice(valuesPtr, h)
	if err != nil {
		setLastError(err)
		return 2
	}
	rawTarget, err := copyFloatSlice(targetPtr, h)
	if err != nil {
		setLastError(err)
		return 3
	}
	weights := ones(h)
	if weightsPtr != nil {
		if weights, err = copyFloatSlice(weightsPtr, h); err != nil {
			setLastError(err)
			return 4
		}
	}
	for row, w := range weights {
		if w < 0 || math.IsNaN(w) {
			setLastError(fmt.Errorf("invalid weight %g of the row %d", w, row))
			return 4
		}
	}
	target, err := buildTarget(rawTarget, int(numClasses))
	if err != nil {
		setLastError(err)
		return 5
	}
	config, err := buildSearchConfig(missingPolicy, criterion)
	if err != nil {
		setLastError(err)
		return 6
	}

	table := ssl.Table{
		NumericColumns: []ssl.NumericColumn{{Index: 0, Name: "x", Values: values}},
		Target:         target,
		Weights:        weights,
	}
	root := table.RootMembership()
	split := table.NumericColumns[0].BestSplit(root, ssl.NewTargetPriors(root, target), config)
	if split == nil {
		return -1
	}

	*outThreshold = C.double(split.Left().(ssl.NumericCondition).Threshold)
	*outGain = C.double(split.Gain)
	*outMissingLeft = 0
	if split.MissingToLeft {
		*outMissingLeft = 1
	}
	return 0
}

//FindNumericSplit searches the best threshold of one numeric column. A positive numClasses
//makes the target a class code column, otherwise the target is numeric. weightsPtr may be null.
//The status is 0 with a split, -1 when nothing improves the node, positive on errors.
//
//export FindNumericSplit
func FindNumericSplit(
	valuesPtr *C.double,
	targetPtr *C.double,
	weightsPtr *C.double,
	rows C.int,
	numClasses C.int,
	missingPolicy *C.char,
	criterion *C.char,
	outThreshold *C.double,
	outGain *C.double,
	outMissingLeft *C.int,
) C.int {
	setLastError(nil)
	logSilenceOnce.Do(func() {
		log.SetOutput(io.Discard)
	})
	return findNumericSplit(valuesPtr, targetPtr, weightsPtr, rows, numClasses, missingPolicy, criterion,
		outThreshold, outGain, outMissingLeft)
}

func orderNominalValues(
	frequenciesPtr *C.double,
	numValues C.int,
	numClasses C.int,
	signConvention *C.char,
	outOrder *C.int,
) (status C.int) {
	defer guard(&status, 9)

	k, d := int(numValues), int(numClasses)
	if k <= 0 || d <= 0 {
		setLastError(errors.New("invalid number of values or classes"))
		return 1
	}
	if outOrder == nil {
		setLastError(errors.New("null output pointer"))
		return 1
	}
	frequencies, err := copyFloatSlice(frequenciesPtr, k*d)
	if err != nil {
		setLastError(err)
		return 2
	}
	convention, err := ssl.ParseSignConvention(C.GoString(signConvention))
	if err != nil {
		setLastError(err)
		return 3
	}

	values := make([]ssl.CombinedAttributeValues, k)
	total := 0.0
	for ind := range values {
		values[ind] = ssl.NewCombinedAttributeValues(
			ssl.NominalValueRepresentation{Value: fmt.Sprint(ind), Index: ind},
			frequencies[ind*d:(ind+1)*d],
		)
		total += values[ind].Weight()
	}

	order := unsafe.Slice(outOrder, k)
	for ind, v := range ssl.OrderByDominantComponent(values, total, d, convention) {
		order[ind] = C.int(v.FirstIndex())
	}
	return 0
}

//OrderNominalValues writes into outOrder the indices of numValues nominal values sorted
//along the dominant class probability component. frequenciesPtr holds numValues rows of
//numClasses weighted class frequencies.
//
//export OrderNominalValues
func OrderNominalValues(
	frequenciesPtr *C.double,
	numValues C.int,
	numClasses C.int,
	signConvention *C.char,
	outOrder *C.int,
) C.int {
	setLastError(nil)
	return orderNominalValues(frequenciesPtr, numValues, numClasses, signConvention, outOrder)
}

//export GetLastError
func GetLastError() *C.char {
	errStr := getLastError()
	if errStr == "" {
		return nil
	}
	return C.CString(errStr)
}

//export FreeCString
func FreeCString(str *C.char) {
	if str != nil {
		C.free(unsafe.Pointer(str))
	}
}

func main() {}
