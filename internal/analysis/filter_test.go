package analysis

import (
	"reflect"
	"testing"

	"github.com/KaramelBytes/tabcast-cli/internal/dataset"
)

func salesTable() (*dataset.Table, Types) {
	tb := dataset.FromRecords([]dataset.Record{
		{"date": "01/01/2024", "amount": "10", "region": "North"},
		{"date": "02/01/2024", "amount": "25", "region": "south"},
		{"date": "03/01/2024", "amount": nil, "region": "North-East"},
		{"date": "04/01/2024", "amount": "40", "region": nil},
		{"date": "05/01/2024", "amount": "55", "region": "West"},
	}, "date", "amount", "region")
	return tb, InferTypes(tb)
}

func colValues(t *testing.T, tb *dataset.Table, name string) []any {
	t.Helper()
	c, ok := tb.Column(name)
	if !ok {
		t.Fatalf("missing column %q", name)
	}
	return c.Values
}

func TestApplyFiltersNumeric(t *testing.T) {
	tb, types := salesTable()
	if types["amount"] != Numeric || types["date"] != Date {
		t.Fatalf("types = %v", types)
	}
	cases := []struct {
		name   string
		clause Clause
		want   []any
	}{
		{"gt", Clause{"amount", "gt", 20}, []any{"25", "40", "55"}},
		{"alias ge", Clause{"amount", ">=", "40"}, []any{"40", "55"}},
		{"between inclusive", Clause{"amount", "between", map[string]any{"min": 10, "max": 40}}, []any{"10", "25", "40"}},
		{"in list", Clause{"amount", "in", []any{10, "55"}}, []any{"10", "55"}},
		{"in csv string", Clause{"amount", "in", "25, 40"}, []any{"25", "40"}},
		{"ne keeps missing", Clause{"amount", "ne", 10}, []any{"25", nil, "40", "55"}},
		{"eq", Clause{"amount", "EQ", 25.0}, []any{"25"}},
		{"text op falls through", Clause{"amount", "starts_with", "5"}, []any{"55"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := colValues(t, ApplyFilters(tb, types, []Clause{tc.clause}), "amount")
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %#v want %#v", got, tc.want)
			}
		})
	}
}

func TestApplyFiltersSkipsInvalidClauses(t *testing.T) {
	tb, types := salesTable()
	for _, c := range []Clause{
		{"amount", "gt", "lots"},
		{"amount", "between", "10"},
		{"nope", "eq", 1},
		{"", "eq", 1},
		{"amount", "", 1},
		{"date", "lt", "not a date"},
	} {
		got := ApplyFilters(tb, types, []Clause{c})
		if got.Len() != tb.Len() {
			t.Fatalf("clause %v should be a no-op, got %d rows", c, got.Len())
		}
	}
}

func TestApplyFiltersDate(t *testing.T) {
	tb, types := salesTable()
	got := ApplyFilters(tb, types, []Clause{{"date", "ge", "2024-01-04"}})
	if want := []any{"2024-01-04", "2024-01-05"}; !reflect.DeepEqual(colValues(t, got, "date"), want) {
		t.Fatalf("got %#v", colValues(t, got, "date"))
	}
	got = ApplyFilters(tb, types, []Clause{{"date", "between", map[string]any{"min": "2024-01-02", "max": "2024-01-03"}}})
	if got.Len() != 2 {
		t.Fatalf("between rows = %d", got.Len())
	}
	got = ApplyFilters(tb, types, []Clause{{"date", "eq", "2024-01-05"}})
	if got.Len() != 1 {
		t.Fatalf("eq rows = %d", got.Len())
	}
}

func TestApplyFiltersCategorical(t *testing.T) {
	tb, types := salesTable()
	cases := []struct {
		clause Clause
		want   []any
	}{
		{Clause{"region", "contains", "NORTH"}, []any{"North", "North-East"}},
		{Clause{"region", "ends_with", "st"}, []any{"North-East", "West"}},
		{Clause{"region", "in", "West, south"}, []any{"south", "West"}},
		{Clause{"region", "ne", "North"}, []any{"south", "North-East", nil, "West"}},
		{Clause{"region", "gt", "North"}, []any{"North"}},
	}
	for _, tc := range cases {
		got := colValues(t, ApplyFilters(tb, types, []Clause{tc.clause}), "region")
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%v: got %#v want %#v", tc.clause, got, tc.want)
		}
	}
}

func TestApplyFiltersIdentityAndIdempotence(t *testing.T) {
	tb, types := salesTable()
	same := ApplyFilters(tb, types, nil)
	if !reflect.DeepEqual(same.Records(), tb.Records()) {
		t.Fatal("empty clause list must return an equal table")
	}
	same.Columns[0].Values[0] = "changed"
	if tb.Columns[0].Values[0] == "changed" {
		t.Fatal("result must not alias the input")
	}

	clauses := []Clause{{"amount", "gt", 5}, {"region", "ne", "West"}}
	once := ApplyFilters(tb, types, clauses)
	twice := ApplyFilters(once, types, clauses)
	if !reflect.DeepEqual(once.Records(), twice.Records()) {
		t.Fatal("re-applying clauses changed the result")
	}
	if once.Len() != 3 {
		t.Fatalf("rows = %d", once.Len())
	}
}

func TestParseOperator(t *testing.T) {
	for in, want := range map[string]Operator{"==": OpEq, "!=": OpNe, " Between ": OpBetween, "<=": OpLe} {
		got, ok := ParseOperator(in)
		if !ok || got != want {
			t.Fatalf("ParseOperator(%q) = %q,%v", in, got, ok)
		}
	}
	if _, ok := ParseOperator("like"); ok {
		t.Fatal("like is not a known operator")
	}
}

func TestApplyFiltersDayFirstValues(t *testing.T) {
	tb := column("d", "01/04/2024", "03/04/2024", "05/04/2024", "13/04/2024")
	types := InferTypes(tb)
	if types["d"] != Date {
		t.Fatalf("types = %v", types)
	}
	cases := []struct {
		clause Clause
		want   []any
	}{
		{Clause{"d", "eq", "03/04/2024"}, []any{"2024-04-03"}},
		{Clause{"d", "ge", "05/04/2024"}, []any{"2024-04-05", "2024-04-13"}},
		{Clause{"d", "lt", "03/04/2024"}, []any{"2024-04-01"}},
		{Clause{"d", "between", map[string]any{"min": "02/04/2024", "max": "2024-04-05"}}, []any{"2024-04-03", "2024-04-05"}},
		{Clause{"d", "in", "01/04/2024, 13/04/2024"}, []any{"2024-04-01", "2024-04-13"}},
	}
	for _, tc := range cases {
		got := colValues(t, ApplyFilters(tb, types, []Clause{tc.clause}), "d")
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%v: got %#v want %#v", tc.clause, got, tc.want)
		}
	}
}
