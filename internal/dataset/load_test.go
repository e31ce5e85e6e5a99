package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestReadCSVSniffsSemicolonAndMapsMissing(t *testing.T) {
	in := "date;sales;region\n01/02/2024;10;north\n02/02/2024;NA;\n"
	tb, err := ReadCSV(strings.NewReader(in), Options{})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := strings.Join(tb.Names(), ","); got != "date,sales,region" {
		t.Fatalf("names = %q", got)
	}
	if tb.Len() != 2 {
		t.Fatalf("rows = %d", tb.Len())
	}
	sales, _ := tb.Column("sales")
	if sales.Values[0] != "10" || sales.Values[1] != nil {
		t.Fatalf("sales = %#v", sales.Values)
	}
	region, _ := tb.Column("region")
	if region.Values[1] != nil {
		t.Fatalf("empty cell should be nil, got %#v", region.Values[1])
	}
}

func TestReadCSVShortRowsPadAndLongRowsFail(t *testing.T) {
	tb, err := ReadCSV(strings.NewReader("a,b,c\n1,2\n"), Options{})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	c, _ := tb.Column("c")
	if c.Values[0] != nil {
		t.Fatalf("padded cell = %#v", c.Values[0])
	}

	_, err = ReadCSV(strings.NewReader("a,b\n1,2,3\n"), Options{})
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("want LoadError, got %v", err)
	}
}

func TestReadCSVEmptyInput(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""), Options{})
	if !errors.Is(err, errNoHeader) {
		t.Fatalf("want errNoHeader, got %v", err)
	}
}

func TestReadCSVMaxRowsAndDuplicateHeaders(t *testing.T) {
	in := "x,x,\n1,2,3\n4,5,6\n7,8,9\n"
	tb, err := ReadCSV(strings.NewReader(in), Options{MaxRows: 2})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if tb.Len() != 2 {
		t.Fatalf("rows = %d", tb.Len())
	}
	if got := strings.Join(tb.Names(), "|"); got != "x|x.1|Unnamed: 2" {
		t.Fatalf("names = %q", got)
	}
}

func TestLoadFileTSV(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "d.tsv")
	if err := os.WriteFile(p, []byte("a\tb\n1\t2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	tb, err := LoadFile(p, Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	b, _ := tb.Column("b")
	if b.Values[0] != "2" {
		t.Fatalf("b = %#v", b.Values)
	}
}

func TestLoadFileMissingPath(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.csv"), Options{})
	var le *LoadError
	if !errors.As(err, &le) || !strings.Contains(le.Error(), "nope.csv") {
		t.Fatalf("want LoadError naming file, got %v", err)
	}
}

func TestReadJSONKeepsKeyOrderAndTypes(t *testing.T) {
	in := `[{"date":"2024-01-01","value":1.5,"tag":null},{"date":"2024-01-02","value":2,"extra":true}]`
	tb, err := ReadJSON(strings.NewReader(in), Options{})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := strings.Join(tb.Names(), ","); got != "date,value,tag,extra" {
		t.Fatalf("names = %q", got)
	}
	v, _ := tb.Column("value")
	if v.Values[0] != 1.5 || v.Values[1] != float64(2) {
		t.Fatalf("value = %#v", v.Values)
	}
	extra, _ := tb.Column("extra")
	if extra.Values[0] != nil || extra.Values[1] != true {
		t.Fatalf("extra = %#v", extra.Values)
	}
}

func TestReadJSONRejectsObject(t *testing.T) {
	if _, err := ReadJSON(strings.NewReader(`{"a":1}`), Options{}); err == nil {
		t.Fatal("expected error for non-array input")
	}
}

func TestLoadFileXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{{"date", "units"}, {"2024-03-01", 4}, {"2024-03-02", 6}}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			t.Fatal(err)
		}
	}
	p := filepath.Join(t.TempDir(), "book.xlsx")
	if err := f.SaveAs(p); err != nil {
		t.Fatalf("save: %v", err)
	}
	_ = f.Close()

	tb, err := LoadFile(p, Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tb.Len() != 2 {
		t.Fatalf("rows = %d", tb.Len())
	}
	u, _ := tb.Column("units")
	if u.Values[1] != "6" {
		t.Fatalf("units = %#v", u.Values)
	}
}

func TestTableHelpers(t *testing.T) {
	tb := FromRecords([]Record{{"b": 1, "a": "x"}, {"a": "y", "c": nil}})
	if got := strings.Join(tb.Names(), ","); got != "a,b,c" {
		t.Fatalf("names = %q", got)
	}
	sel := tb.Select([]int{1})
	if sel.Len() != 1 || sel.Row(0)["a"] != "y" {
		t.Fatalf("select = %#v", sel.Records())
	}
	cl := tb.Clone()
	cl.Columns[0].Values[0] = "z"
	if tb.Columns[0].Values[0] != "x" {
		t.Fatal("clone shares value slice")
	}
	if len(tb.Head(10)) != 2 {
		t.Fatal("head should cap at table length")
	}
	for _, v := range []any{nil, "", " NaN ", "null", "N/A"} {
		if !IsMissing(v) {
			t.Fatalf("IsMissing(%#v) = false", v)
		}
	}
	if IsMissing("0") || IsMissing(0) {
		t.Fatal("zero is not missing")
	}
}
