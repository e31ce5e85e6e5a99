package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/tabcast-cli/internal/analysis"
	"github.com/KaramelBytes/tabcast-cli/internal/dataset"
	"github.com/KaramelBytes/tabcast-cli/internal/utils"
)

// loadOptions builds dataset options from config and the global loading flags.
func loadOptions() (dataset.Options, error) {
	c := activeConfig()
	opt := dataset.Options{MaxRows: c.MaxRows, Sheet: flagSheet}
	if d := c.Delimiter; d != "" {
		switch strings.ToLower(d) {
		case "tab", `\t`:
			opt.Delimiter = '\t'
		default:
			r, size := utf8.DecodeRuneInString(d)
			if size != len(d) {
				return opt, fmt.Errorf("invalid delimiter %q: must be a single character", d)
			}
			opt.Delimiter = r
		}
	}
	return opt, nil
}

// openSession loads path into a fresh session and returns its summary.
func openSession(path string) (*analysis.Session, *analysis.LoadSummary, error) {
	opt, err := loadOptions()
	if err != nil {
		return nil, nil, err
	}
	s := analysis.NewSession()
	sum, err := s.LoadFile(path, opt)
	if err != nil {
		return nil, nil, err
	}
	return s, sum, nil
}

func printJSON(w io.Writer, v any) error {
	b, err := utils.PrettyJSON(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

// parseWhere parses "column operator value". Everything after the operator
// is the value; between takes "min..max".
func parseWhere(expr string) (analysis.Clause, error) {
	col, rest := splitWord(strings.TrimSpace(expr))
	opText, value := splitWord(rest)
	if col == "" || opText == "" {
		return analysis.Clause{}, fmt.Errorf("invalid --where %q: want \"column operator value\"", expr)
	}
	op, ok := analysis.ParseOperator(opText)
	if !ok {
		return analysis.Clause{}, fmt.Errorf("invalid --where %q: unknown operator %q", expr, opText)
	}
	if value == "" {
		return analysis.Clause{}, fmt.Errorf("invalid --where %q: missing value", expr)
	}
	c := analysis.Clause{Column: col, Operator: string(op), Value: value}
	if op == analysis.OpBetween {
		lo, hi, found := strings.Cut(value, "..")
		if !found {
			return analysis.Clause{}, fmt.Errorf("invalid --where %q: between needs min..max", expr)
		}
		c.Value = map[string]any{"min": strings.TrimSpace(lo), "max": strings.TrimSpace(hi)}
	}
	return c, nil
}

func splitWord(s string) (string, string) {
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i+1:])
}

// readFilterFile accepts either a list of clauses or {filters: [...]}.
func readFilterFile(path string) ([]analysis.Clause, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read filters: %w", err)
	}
	var list []analysis.Clause
	if err := yaml.Unmarshal(b, &list); err == nil {
		return list, nil
	}
	var doc struct {
		Filters []analysis.Clause `yaml:"filters"`
	}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse filters %s: %w", path, err)
	}
	return doc.Filters, nil
}

// collectClauses merges clauses from a filters file with --where expressions.
func collectClauses(where []string, file string) ([]analysis.Clause, error) {
	var out []analysis.Clause
	if file != "" {
		fc, err := readFilterFile(file)
		if err != nil {
			return nil, err
		}
		out = append(out, fc...)
	}
	for _, w := range where {
		c, err := parseWhere(w)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
