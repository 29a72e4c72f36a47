// Package sheet turns the published contest spreadsheet (CSV text) into
// header-keyed records and binds them to the known contest columns.
//
// The tokenizer is intentionally small and mirrors what the spreadsheet
// export actually produces. Two limitations are accepted:
//   - doubled quotes ("") inside a quoted field are not unescaped;
//   - a newline inside a quoted field splits the row, because lines are split
//     before quote handling.
package sheet

import (
	"regexp"
	"strings"
)

// Record is one parsed data row keyed by header name. Values are trimmed and
// never nil; a missing cell is the empty string.
type Record map[string]string

// Get returns the value for header, or "" when the column is absent.
func (r Record) Get(header string) string {
	return r[header]
}

// Table is a parsed document: the header row and the data records in input order.
type Table struct {
	Headers []string
	Records []Record
}

var lineBreak = regexp.MustCompile(`\r?\n`)

// Parse tokenizes text and returns its data records.
// Empty input or a header-only document yields an empty slice.
func Parse(text string) []Record {
	return ParseTable(text).Records
}

// ParseTable tokenizes text and returns headers alongside records.
func ParseTable(text string) Table {
	text = strings.TrimSpace(text)
	if text == "" {
		return Table{Records: []Record{}}
	}
	lines := lineBreak.Split(text, -1)

	headers := strings.Split(lines[0], ",")
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}

	records := make([]Record, 0, len(lines)-1)
	for _, line := range lines[1:] {
		values := splitLine(line)
		rec := make(Record, len(headers))
		for i, h := range headers {
			if i < len(values) {
				rec[h] = values[i]
			} else {
				rec[h] = ""
			}
		}
		records = append(records, rec)
	}
	return Table{Headers: headers, Records: records}
}

// splitLine breaks one data line into fields. A quote toggles quoted mode and
// commas inside quotes do not separate fields.
func splitLine(line string) []string {
	var (
		values   []string
		inQuotes bool
		start    int
	)
	for j := 0; j < len(line); j++ {
		switch line[j] {
		case '"':
			inQuotes = !inQuotes
		case ',':
			if !inQuotes {
				values = append(values, cleanField(line[start:j]))
				start = j + 1
			}
		}
	}
	return append(values, cleanField(line[start:]))
}

// cleanField trims whitespace and strips one leading and one trailing quote.
func cleanField(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, `"`)
	s = strings.TrimSuffix(s, `"`)
	return s
}
