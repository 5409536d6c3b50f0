package ssl

import (
	"log"
	"math"
	"sort"
)

//RowVisitor receives an original row index together with the row weight.
type RowVisitor func(row int, weight float64)

//WeightedRows is the row-iteration-with-weight capability of a membership.
type WeightedRows interface {
	RowCount() int
	TotalWeight() float64
	ForEachRow(visit RowVisitor)
}

//ColumnIndexLookup is the column-local index lookup capability: positions run
//over the rows in ascending order of the column value with missing values last.
type ColumnIndexLookup interface {
	Column() int
	RowAt(position int) (row int, weight float64)
	Begin() *Range
}

//ColumnRows is what a numeric scan needs: the weighted rows of a node seen in column order.
type ColumnRows interface {
	WeightedRows
	ColumnIndexLookup
}

//ColumnOrder is the permutation of all dataset rows sorted by the value of one column.
type ColumnOrder struct {
	Column int
	Rows   []int
}

//RowMembership records which original rows take part in a tree node and with which weight.
//It never changes after creation: Partition builds two new memberships.
type RowMembership struct {
	rows    []int
	weights []float64
	total   float64
	// positions into rows, sorted by the column value
	orders map[int][]int
}

//NewRootMembership builds the membership of the root node. Rows with zero weight
//do not take part in the node. Every order must be a permutation of all rows.
func NewRootMembership(weights []float64, orders ...ColumnOrder) *RowMembership {
	h := len(weights)
	m := &RowMembership{orders: make(map[int][]int, len(orders))}
	position := make([]int, h)
	for row, w := range weights {
		if w < 0 || math.IsNaN(w) {
			log.Panicf("invalid weight %g of the row %d", w, row)
		}
		position[row] = -1
		if w == 0 {
			continue
		}
		position[row] = len(m.rows)
		m.rows = append(m.rows, row)
		m.weights = append(m.weights, w)
		m.total += w
	}

	for _, order := range orders {
		if len(order.Rows) != h {
			log.Panicf("the order of the column %d has %d rows instead of %d", order.Column, len(order.Rows), h)
		}
		if _, ok := m.orders[order.Column]; ok {
			log.Panicf("the column %d is ordered twice", order.Column)
		}
		seen := make([]bool, h)
		positions := make([]int, 0, len(m.rows))
		for _, row := range order.Rows {
			if row < 0 || row >= h || seen[row] {
				log.Panicf("the order of the column %d is not a permutation of rows", order.Column)
			}
			seen[row] = true
			if position[row] >= 0 {
				positions = append(positions, position[row])
			}
		}
		m.orders[order.Column] = positions
	}
	return m
}

//RowCount returns the number of rows in the membership.
func (m *RowMembership) RowCount() int {
	return len(m.rows)
}

//TotalWeight returns the sum of row weights.
func (m *RowMembership) TotalWeight() float64 {
	return m.total
}

//ForEachRow visits rows in ascending order of original indices.
func (m *RowMembership) ForEachRow(visit RowVisitor) {
	for ind, row := range m.rows {
		visit(row, m.weights[ind])
	}
}

//Rows returns a copy of the original row indices.
func (m *RowMembership) Rows() []int {
	return append([]int(nil), m.rows...)
}

//Weights returns a copy of the row weights, parallel to Rows.
func (m *RowMembership) Weights() []float64 {
	return append([]float64(nil), m.weights...)
}

//Columns returns the sorted indices of the columns the membership was built against.
func (m *RowMembership) Columns() []int {
	columns := make([]int, 0, len(m.orders))
	for column := range m.orders {
		columns = append(columns, column)
	}
	sort.Ints(columns)
	return columns
}

//HasColumn reports whether a column ordered view is available.
func (m *RowMembership) HasColumn(column int) bool {
	_, ok := m.orders[column]
	return ok
}

//ColumnView returns the membership seen in the order of the given column.
func (m *RowMembership) ColumnView(column int) ColumnMembership {
	order, ok := m.orders[column]
	if !ok {
		log.Panicf("the membership was not built against the column %d", column)
	}
	return ColumnMembership{column: column, parent: m, order: order}
}

//Partition splits the membership into the rows accepted by the predicate (left)
//and the remaining rows (right). Weights are copied unchanged.
func (m *RowMembership) Partition(predicate func(row int) bool) (left, right *RowMembership) {
	left = &RowMembership{orders: make(map[int][]int, len(m.orders))}
	right = &RowMembership{orders: make(map[int][]int, len(m.orders))}

	goesLeft := make([]bool, len(m.rows))
	newPosition := make([]int, len(m.rows))
	for ind, row := range m.rows {
		child := right
		if predicate(row) {
			child = left
			goesLeft[ind] = true
		}
		newPosition[ind] = len(child.rows)
		child.rows = append(child.rows, row)
		child.weights = append(child.weights, m.weights[ind])
		child.total += m.weights[ind]
	}

	for column, order := range m.orders {
		leftOrder := make([]int, 0, len(left.rows))
		rightOrder := make([]int, 0, len(right.rows))
		for _, pos := range order {
			if goesLeft[pos] {
				leftOrder = append(leftOrder, newPosition[pos])
			} else {
				rightOrder = append(rightOrder, newPosition[pos])
			}
		}
		left.orders[column] = leftOrder
		right.orders[column] = rightOrder
	}
	return
}

//ColumnMembership is a node membership traversed in the order of one column.
type ColumnMembership struct {
	column int
	parent *RowMembership
	order  []int
}

//Column returns the index of the column that orders the view.
func (cm ColumnMembership) Column() int {
	return cm.column
}

//RowCount returns the number of rows in the view.
func (cm ColumnMembership) RowCount() int {
	return len(cm.order)
}

//TotalWeight returns the sum of row weights.
func (cm ColumnMembership) TotalWeight() float64 {
	return cm.parent.total
}

//RowAt returns the original row index and the weight at a position in column order.
func (cm ColumnMembership) RowAt(position int) (row int, weight float64) {
	pos := cm.order[position]
	return cm.parent.rows[pos], cm.parent.weights[pos]
}

//Begin returns a fresh cursor over positions in ascending column order.
func (cm ColumnMembership) Begin() *Range {
	return NewRange(0, len(cm.order), 1)
}

//BeginReversed returns a fresh cursor over positions in descending column order.
func (cm ColumnMembership) BeginReversed() *Range {
	return NewRange(len(cm.order)-1, -1, -1)
}

//ForEachRow visits rows in column order.
func (cm ColumnMembership) ForEachRow(visit RowVisitor) {
	for cursor := cm.Begin(); cursor.HasNext(); {
		visit(cm.RowAt(cursor.GetNext()))
	}
}
