// Package ingest turns raw delimited extract text into canonical performance
// records: quote-aware row splitting, embedded-JSON column unwrapping, field
// coercion with per-field defaults, and categorical normalization.
package ingest

import "strings"

const fieldDelimiter = ','

// ParseRow splits one line of delimited text into trimmed fields, honoring
// quoted fields that may contain the delimiter and doubled-quote escapes.
//
// The final accumulator is always emitted, so a trailing delimiter yields a
// trailing empty field and a line with no delimiters yields one field.
// Unbalanced quotes never fail; the remainder of the line is treated as quoted.
func ParseRow(line string) []string {
	fields := make([]string, 0, 8)
	var acc strings.Builder
	inQuotes := false

	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				// Doubled-quote escape inside a quoted field.
				acc.WriteByte('"')
				i++
				continue
			}
			inQuotes = !inQuotes
		case ch == fieldDelimiter && !inQuotes:
			fields = append(fields, strings.TrimSpace(acc.String()))
			acc.Reset()
		default:
			acc.WriteByte(ch)
		}
	}
	return append(fields, strings.TrimSpace(acc.String()))
}

// unwrapEmbedded reverses the CSV-style quoting an embedded JSON column may
// carry: one outer pair of double quotes with internal quotes doubled. Columns
// that arrive already unquoted pass through unchanged.
func unwrapEmbedded(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
		s = strings.ReplaceAll(s, `""`, `"`)
	}
	return s
}
