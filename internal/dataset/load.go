package dataset

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Options controls how source files are read into a Table.
type Options struct {
	// Delimiter for CSV. If 0, sniffs the header line among ',', ';', '\t'.
	Delimiter rune
	// MaxRows limits rows read; 0 means unlimited.
	MaxRows int
	// Sheet selects an XLSX sheet by name; empty means the first sheet.
	Sheet string
}

// LoadError reports a malformed or unreadable source table.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("load %s: %v", filepath.Base(e.Path), e.Err)
	}
	return fmt.Sprintf("load: %v", e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

var errNoHeader = errors.New("no header row")

// LoadFile reads a CSV, TSV, XLSX or JSON (array of objects) file into a Table.
func LoadFile(path string, opt Options) (*Table, error) {
	var (
		t   *Table
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		t, err = readXLSX(path, opt)
	case ".json":
		t, err = readJSONFile(path, opt)
	default:
		f, oerr := os.Open(path)
		if oerr != nil {
			return nil, &LoadError{Path: path, Err: oerr}
		}
		defer f.Close()
		if opt.Delimiter == 0 && strings.HasSuffix(strings.ToLower(path), ".tsv") {
			opt.Delimiter = '\t'
		}
		t, err = readCSV(f, opt)
	}
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Path = path
			return nil, le
		}
		return nil, &LoadError{Path: path, Err: err}
	}
	return t, nil
}

// ReadCSV parses delimited text into a Table.
func ReadCSV(r io.Reader, opt Options) (*Table, error) {
	t, err := readCSV(r, opt)
	if err != nil {
		return nil, &LoadError{Err: err}
	}
	return t, nil
}

func readCSV(r io.Reader, opt Options) (*Table, error) {
	br := bufio.NewReader(r)
	delim := opt.Delimiter
	if delim == 0 {
		line, _ := br.Peek(4096)
		delim = sniffDelimiter(string(line))
	}
	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comma = delim

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errNoHeader
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	t := NewTable(headerNames(header)...)
	if len(t.Columns) == 0 {
		return nil, errNoHeader
	}
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", row, err)
		}
		if len(rec) > len(t.Columns) {
			return nil, fmt.Errorf("row %d has %d fields, header has %d", row, len(rec), len(t.Columns))
		}
		t.AppendRow(cells(rec))
		if opt.MaxRows > 0 && t.Len() >= opt.MaxRows {
			break
		}
	}
	return t, nil
}

func readXLSX(path string, opt Options) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheet := opt.Sheet
	if sheet == "" {
		list := f.GetSheetList()
		if len(list) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		sheet = list[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, errNoHeader
	}
	t := NewTable(headerNames(rows[0])...)
	if len(t.Columns) == 0 {
		return nil, errNoHeader
	}
	for i, rec := range rows[1:] {
		if len(rec) > len(t.Columns) {
			return nil, fmt.Errorf("row %d has %d cells, header has %d", i+1, len(rec), len(t.Columns))
		}
		t.AppendRow(cells(rec))
		if opt.MaxRows > 0 && t.Len() >= opt.MaxRows {
			break
		}
	}
	return t, nil
}

func readJSONFile(path string, opt Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadJSON(f, opt)
}

// ReadJSON decodes an array of flat objects, keeping the key order of the source.
func ReadJSON(r io.Reader, opt Options) (*Table, error) {
	dec := json.NewDecoder(r)
	if err := expectDelim(dec, '['); err != nil {
		return nil, err
	}
	var (
		records []Record
		order   []string
		seen    = map[string]struct{}{}
	)
	for dec.More() {
		if err := expectDelim(dec, '{'); err != nil {
			return nil, fmt.Errorf("record %d: %w", len(records), err)
		}
		rec := Record{}
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("record %d: %w", len(records), err)
			}
			key, ok := tok.(string)
			if !ok {
				return nil, fmt.Errorf("record %d: expected key, got %v", len(records), tok)
			}
			var val any
			if err := dec.Decode(&val); err != nil {
				return nil, fmt.Errorf("record %d field %q: %w", len(records), key, err)
			}
			rec[key] = val
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				order = append(order, key)
			}
		}
		if err := expectDelim(dec, '}'); err != nil {
			return nil, fmt.Errorf("record %d: %w", len(records), err)
		}
		records = append(records, rec)
		if opt.MaxRows > 0 && len(records) >= opt.MaxRows {
			break
		}
	}
	return FromRecords(records, order...), nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("decode json: expected %q, got %v", want, tok)
	}
	return nil
}

func cells(rec []string) []any {
	out := make([]any, len(rec))
	for i, v := range rec {
		if isMissingToken(v) {
			continue
		}
		out[i] = v
	}
	return out
}

// headerNames trims names, fills blanks and de-duplicates repeats as "name.1", "name.2".
func headerNames(header []string) []string {
	out := make([]string, len(header))
	used := map[string]int{}
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, ok := used[name]; ok {
			used[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n+1)
		}
		used[name] = 0
		out[i] = name
	}
	return out
}

func sniffDelimiter(sample string) rune {
	if i := strings.IndexAny(sample, "\r\n"); i >= 0 {
		sample = sample[:i]
	}
	best, bestN := ',', 0
	for _, d := range []rune{',', ';', '\t'} {
		if n := strings.Count(sample, string(d)); n > bestN {
			best, bestN = d, n
		}
	}
	return best
}
