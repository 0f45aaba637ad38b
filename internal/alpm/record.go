// Package alpm parses the pacman sync database entry format: desc and
// depends files made of %FIELD% marker lines followed by value lines.
package alpm

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ralt/repofetch/internal/models"
)

// Record maps a lower-cased field name to its values, preserving field
// and value order.
type Record struct {
	fields []string
	values map[string][]string
}

// Fields returns the field names in first-seen order.
func (r *Record) Fields() []string {
	return r.fields
}

// Values returns the values recorded under a field.
func (r *Record) Values(field string) []string {
	return r.values[field]
}

// ParseRecord reads a %FIELD% block stream. A marker line selects the
// current field (lower-cased); any other non-empty line is appended as a
// value under it. Blank lines are skipped and do not reset the current
// field. A value line before the first marker means the stream is not a
// record at all and fails with a Format error.
func ParseRecord(r io.Reader) (*Record, error) {
	rec := &Record{values: make(map[string][]string)}
	current := ""
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if isMarker(line) {
			current = strings.ToLower(line[1 : len(line)-1])
			if _, ok := rec.values[current]; !ok {
				rec.fields = append(rec.fields, current)
				rec.values[current] = nil
			}
			continue
		}

		if current == "" {
			return nil, &models.MirrorError{
				Type: models.ErrFormat,
				Err:  fmt.Errorf("value %q before any %%FIELD%% marker", line),
			}
		}
		rec.values[current] = append(rec.values[current], line)
	}

	if err := scanner.Err(); err != nil {
		return nil, &models.MirrorError{Type: models.ErrFormat, Err: err}
	}
	return rec, nil
}

// isMarker reports whether a line is a %FIELD% marker: exactly one
// percent sign on each side of a non-empty field name. Lines like %% or
// %%NAME%% are values, not markers.
func isMarker(line string) bool {
	return len(line) >= 3 &&
		line[0] == '%' && line[len(line)-1] == '%' &&
		!strings.Contains(line[1:len(line)-1], "%")
}

// EncodeRecord writes a record back to the %FIELD% block format, fields
// in first-seen order and one blank line after each value list.
func EncodeRecord(rec *Record) []byte {
	var buf bytes.Buffer
	for _, field := range rec.Fields() {
		fmt.Fprintf(&buf, "%%%s%%\n", strings.ToUpper(field))
		for _, value := range rec.Values(field) {
			buf.WriteString(value)
			buf.WriteByte('\n')
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}
