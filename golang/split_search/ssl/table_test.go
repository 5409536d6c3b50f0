package ssl

import (
	"math"
	"os"
	"path"
	"testing"

	"github.com/sbinet/npyio"
)

func writeNpy(t *testing.T, dir, name string, values []float64) string {
	t.Helper()
	fileName := path.Join(dir, name)
	f, err := os.Create(fileName)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { HandleError(f.Close()) }()
	if err := npyio.Write(f, values); err != nil {
		t.Fatal(err)
	}
	return fileName
}

func TestReadTable(t *testing.T) {
	dir := t.TempDir()
	nan := math.NaN()
	config := TableConfig{
		NumericColumns: []ColumnConfig{
			{Name: "age", FileName: writeNpy(t, dir, "age.npy", []float64{30, 45, nan, 22, 61})},
		},
		NominalColumns: []ColumnConfig{
			{Name: "city", FileName: writeNpy(t, dir, "city.npy", []float64{0, 1, 1, -1, 2}), Labels: []string{"oslo", "rome", "kyiv"}},
		},
		TargetFileName:  writeNpy(t, dir, "target.npy", []float64{1, 0, 1, 1, 0}),
		TargetKind:      "nominal",
		TargetLabels:    []string{"stay", "leave"},
		WeightsFileName: writeNpy(t, dir, "weights.npy", []float64{1, 2, 1, 0, 1}),
		Description:     "churn",
	}

	table, err := ReadTable(config)
	if err != nil {
		t.Fatal(err)
	}
	if table.Height() != 5 || *table.Description != "churn" {
		t.Fatalf("unexpected table %+v", table)
	}
	columns := table.Columns()
	if len(columns) != 2 || columns[0].ColumnName() != "age" || columns[1].ColumnIndex() != 1 {
		t.Fatalf("unexpected columns %v", columns)
	}
	city := table.NominalColumns[0]
	if city.Codes[3] != -1 || city.Values[1].Weight != 3 || city.Values[2].Value != "kyiv" {
		t.Fatalf("unexpected nominal column %+v", city)
	}

	root := table.RootMembership()
	if root.RowCount() != 4 || root.TotalWeight() != 5 {
		t.Fatalf("unexpected root membership of %d rows and weight %g", root.RowCount(), root.TotalWeight())
	}
	view := root.ColumnView(0)
	last, _ := view.RowAt(view.RowCount() - 1)
	if last != 2 {
		t.Fatalf("the missing value is not ordered last, got the row %d", last)
	}
}

func TestReadTableErrors(t *testing.T) {
	dir := t.TempDir()
	target := writeNpy(t, dir, "target.npy", []float64{0, 1, 1})

	configs := map[string]TableConfig{
		"absent target": {TargetFileName: path.Join(dir, "absent.npy"), TargetKind: "numeric"},
		"unknown kind":  {TargetFileName: target, TargetKind: "ordinal"},
		"no labels":     {TargetFileName: target, TargetKind: "nominal"},
		"short column": {TargetFileName: target, TargetKind: "numeric",
			NumericColumns: []ColumnConfig{{Name: "x", FileName: writeNpy(t, dir, "x.npy", []float64{1, 2})}}},
		"bad code": {TargetFileName: target, TargetKind: "numeric",
			NominalColumns: []ColumnConfig{{Name: "c", FileName: writeNpy(t, dir, "c.npy", []float64{0, 1.5, 1}), Labels: []string{"a", "b"}}}},
		"negative weight": {TargetFileName: target, TargetKind: "numeric",
			WeightsFileName: writeNpy(t, dir, "w.npy", []float64{1, -1, 1})},
	}
	for name, config := range configs {
		if _, err := ReadTable(config); err == nil {
			t.Errorf("%s: the table is accepted", name)
		}
	}
}

func TestColumnArgsort(t *testing.T) {
	nan := math.NaN()
	order := columnArgsort([]float64{3, nan, 1, 3, 2, nan})
	expected := []int{2, 4, 0, 3, 1, 5}
	for ind := range expected {
		if order[ind] != expected[ind] {
			t.Fatalf("expected %v, got %v", expected, order)
		}
	}
}
