// Package feeds parses the periodic CSV exports assetsync reconciles from:
// the device inventory feed, the personnel directory, and the
// shared-ownership admin schema.
//
// Parsers are tolerant of bad rows (they are skipped and counted) and strict
// about bad files: a missing required header aborts before anything is
// returned.
package feeds

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/agentstation/assetsync/pkg/errors"
)

const bom = "\ufeff"

// table is a header-addressed CSV reader.
type table struct {
	source  string
	reader  *csv.Reader
	columns map[string]int
	line    int
}

// openTable reads the header row and checks every required column is present.
func openTable(r io.Reader, source string, required []string) (*table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.NewParseError("csv", source, "file is empty", err)
	}
	if err != nil {
		return nil, errors.WrapParse("csv", source, err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, bom)
		}
		name = strings.TrimSpace(name)
		if _, dup := columns[name]; !dup {
			columns[name] = i
		}
	}

	var missing []string
	for _, col := range required {
		if _, ok := columns[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &errors.ParseError{
			Format:  "csv",
			File:    source,
			Line:    1,
			Message: "missing required columns: " + strings.Join(missing, ", "),
		}
	}

	return &table{source: source, reader: reader, columns: columns, line: 1}, nil
}

// next returns the next record and its 1-based line number, or io.EOF.
func (t *table) next() (record, error) {
	for {
		fields, err := t.reader.Read()
		if err == io.EOF {
			return record{}, io.EOF
		}
		if err != nil {
			line := t.line + 1
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				line = perr.Line
			}
			return record{}, &errors.ParseError{Format: "csv", File: t.source, Line: line, Message: err.Error(), Err: err}
		}
		t.line, _ = t.reader.FieldPos(0)
		if blank(fields) {
			continue
		}
		return record{table: t, fields: fields, line: t.line}, nil
	}
}

// has reports whether the header carries column.
func (t *table) has(column string) bool {
	_, ok := t.columns[column]
	return ok
}

type record struct {
	table  *table
	fields []string
	line   int
}

// get returns the trimmed value of column, or "" when absent.
func (r record) get(column string) string {
	i, ok := r.table.columns[column]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

// raw returns the untrimmed value of column.
func (r record) raw(column string) string {
	i, ok := r.table.columns[column]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return r.fields[i]
}

func blank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// openFile opens path for one of the parsers.
func openFile(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	return f, nil
}
