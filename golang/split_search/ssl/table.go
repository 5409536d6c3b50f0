package ssl

import (
	"fmt"
	"log"
	"math"
	"os"
	"sort"

	"github.com/sbinet/npyio"
)

//Column is an attribute column that can search its best split inside a node.
type Column interface {
	ColumnIndex() int
	ColumnName() string
	BestSplit(m *RowMembership, priors TargetPriors, config SearchConfig) *SplitCandidate
}

//Table contains the attribute columns, the target and the row weights of a data set.
//Numeric columns take indices 0..n-1, nominal columns follow them.
type Table struct {
	NumericColumns []NumericColumn
	NominalColumns []NominalColumn
	Target         Target
	TargetLabels   []string
	Weights        []float64
	Description    *string
}

//SetDescription sets a description for a Table object
func (table *Table) SetDescription(description string) {
	table.Description = &description
}

//Columns returns all attribute columns ordered by their indices.
func (table Table) Columns() []Column {
	columns := make([]Column, 0, len(table.NumericColumns)+len(table.NominalColumns))
	for _, col := range table.NumericColumns {
		columns = append(columns, col)
	}
	for _, col := range table.NominalColumns {
		columns = append(columns, col)
	}
	sort.SliceStable(columns, func(i, j int) bool {
		return columns[i].ColumnIndex() < columns[j].ColumnIndex()
	})
	return columns
}

//Height returns the number of rows.
func (table Table) Height() int {
	return table.Target.Height()
}

//validatedHeight checks that every column, the target and the weights have the same height.
func (table Table) validatedHeight() int {
	h := table.Height()
	for _, col := range table.NumericColumns {
		if len(col.Values) != h {
			log.Panicf("the height %d of the column %q is not equal to the target height %d", len(col.Values), col.Name, h)
		}
	}
	for _, col := range table.NominalColumns {
		if len(col.Codes) != h {
			log.Panicf("the height %d of the column %q is not equal to the target height %d", len(col.Codes), col.Name, h)
		}
	}
	if table.Weights != nil && len(table.Weights) != h {
		log.Panicf("the number of weights %d is not equal to the target height %d", len(table.Weights), h)
	}
	return h
}

//RootMembership builds the membership of all weighted rows together with the sort orders
//of the numeric columns.
func (table Table) RootMembership() *RowMembership {
	h := table.validatedHeight()
	weights := table.Weights
	if weights == nil {
		weights = make([]float64, h)
		for ind := range weights {
			weights[ind] = 1
		}
	}
	orders := make([]ColumnOrder, len(table.NumericColumns))
	for ind, col := range table.NumericColumns {
		orders[ind] = ColumnOrder{Column: col.Index, Rows: columnArgsort(col.Values)}
	}
	return NewRootMembership(weights, orders...)
}

//columnArgsort returns row indices in ascending order of values, NaN last, equal values
//in row order.
func columnArgsort(values []float64) []int {
	order := make([]int, len(values))
	for ind := range order {
		order[ind] = ind
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := values[order[i]], values[order[j]]
		if math.IsNaN(a) || math.IsNaN(b) {
			return !math.IsNaN(a) && math.IsNaN(b)
		}
		return a < b
	})
	return order
}

//ColumnConfig points to the npy file of one column.
type ColumnConfig struct {
	Name     string   `json:"name" toml:"name"`
	FileName string   `json:"filename" toml:"filename"`
	Labels   []string `json:"labels" toml:"labels"`
}

//TableConfig describes the files of a data set. Nominal columns and a nominal target are
//stored as float codes into their labels; NaN or a negative code is a missing value.
type TableConfig struct {
	NumericColumns  []ColumnConfig `json:"numeric_columns" toml:"numeric_columns"`
	NominalColumns  []ColumnConfig `json:"nominal_columns" toml:"nominal_columns"`
	TargetFileName  string         `json:"filename_target" toml:"filename_target"`
	TargetKind      string         `json:"target_kind" toml:"target_kind"`
	TargetLabels    []string       `json:"target_labels" toml:"target_labels"`
	WeightsFileName string         `json:"filename_weights" toml:"filename_weights"`
	Description     string         `json:"description" toml:"description"`
}

//ReadTable reads the columns, the target and the optional weights of a data set.
func ReadTable(config TableConfig) (table Table, err error) {
	log.Print("\ttry to load target <", config.TargetFileName, ">")
	rawTarget, err := ReadNpy(config.TargetFileName)
	if err != nil {
		return table, err
	}
	switch config.TargetKind {
	case "nominal":
		if len(config.TargetLabels) == 0 {
			return table, fmt.Errorf("the nominal target %q has no labels", config.TargetFileName)
		}
		classes, err := codesFromFloats(rawTarget, len(config.TargetLabels))
		if err != nil {
			return table, fmt.Errorf("target %q: %w", config.TargetFileName, err)
		}
		table.Target = NewNominalTarget(classes, len(config.TargetLabels))
		table.TargetLabels = config.TargetLabels
	case "numeric":
		table.Target = NewNumericTarget(rawTarget)
	default:
		return table, fmt.Errorf("unknown target kind %q", config.TargetKind)
	}
	h := len(rawTarget)

	if config.WeightsFileName != "" {
		log.Print("\ttry to load weights <", config.WeightsFileName, ">")
		if table.Weights, err = ReadNpy(config.WeightsFileName); err != nil {
			return table, err
		}
		if len(table.Weights) != h {
			return table, fmt.Errorf("%d weights for %d rows", len(table.Weights), h)
		}
		for row, w := range table.Weights {
			if w < 0 || math.IsNaN(w) {
				return table, fmt.Errorf("invalid weight %g of the row %d", w, row)
			}
		}
	}

	index := 0
	for _, columnConfig := range config.NumericColumns {
		log.Print("\ttry to load numeric column <", columnConfig.FileName, ">")
		values, err := ReadNpy(columnConfig.FileName)
		if err != nil {
			return table, err
		}
		if len(values) != h {
			return table, fmt.Errorf("the column %q has %d rows instead of %d", columnConfig.Name, len(values), h)
		}
		table.NumericColumns = append(table.NumericColumns, NumericColumn{Index: index, Name: columnConfig.Name, Values: values})
		index++
	}
	for _, columnConfig := range config.NominalColumns {
		log.Print("\ttry to load nominal column <", columnConfig.FileName, ">")
		raw, err := ReadNpy(columnConfig.FileName)
		if err != nil {
			return table, err
		}
		if len(raw) != h {
			return table, fmt.Errorf("the column %q has %d rows instead of %d", columnConfig.Name, len(raw), h)
		}
		codes, err := codesFromFloats(raw, len(columnConfig.Labels))
		if err != nil {
			return table, fmt.Errorf("column %q: %w", columnConfig.Name, err)
		}
		table.NominalColumns = append(table.NominalColumns,
			NewNominalColumn(index, columnConfig.Name, codes, columnConfig.Labels, table.Weights))
		index++
	}

	if config.Description != "" {
		table.SetDescription(config.Description)
	}
	return table, nil
}

func codesFromFloats(values []float64, domain int) ([]int, error) {
	codes := make([]int, len(values))
	for row, v := range values {
		switch {
		case math.IsNaN(v) || v < 0:
			codes[row] = -1
		case v != math.Trunc(v) || v >= float64(domain):
			return nil, fmt.Errorf("the value %g of the row %d is not a code in [0, %d)", v, row, domain)
		default:
			codes[row] = int(v)
		}
	}
	return codes, nil
}

//ReadNpy reads the content of npy file as a flat array
func ReadNpy(fileName string) (values []float64, err error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer func() { HandleError(f.Close()) }()

	r, err := npyio.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}
	if err = r.Read(&values); err != nil {
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}
	return values, nil
}
