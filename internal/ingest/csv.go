package ingest

import (
	"bufio"
	"io"
	"strings"
)

// maxLineBytes bounds a single physical line. Register rows are short;
// the generous cap only guards against a corrupt download.
const maxLineBytes = 4 * 1024 * 1024

// ParseRows streams logical CSV records from r, invoking fn once per
// record. A record whose quotes are unbalanced continues on the next
// physical line, so quoted fields may contain commas and newlines. A
// trailing unterminated record is flushed at EOF.
func ParseRows(r io.Reader, fn func(fields []string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var pending strings.Builder
	inRecord := false

	for scanner.Scan() {
		line := scanner.Text()
		if inRecord {
			pending.WriteByte('\n')
		}
		pending.WriteString(line)
		inRecord = true

		// An odd number of quotes means a quoted field is still
		// open; keep buffering physical lines.
		if strings.Count(pending.String(), `"`)%2 != 0 {
			continue
		}

		if err := fn(splitRecord(pending.String())); err != nil {
			return err
		}
		pending.Reset()
		inRecord = false
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	if inRecord {
		return fn(splitRecord(pending.String()))
	}
	return nil
}

// splitRecord splits one logical record into fields. Fields are comma
// separated; a quoted field may contain commas and newlines, with ""
// as an escaped quote.
func splitRecord(record string) []string {
	var fields []string
	var cur strings.Builder
	inQuotes := false

	for i := 0; i < len(record); i++ {
		ch := record[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(record) && record[i+1] == '"' {
				cur.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case ch == ',' && !inQuotes:
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(ch)
		}
	}
	fields = append(fields, cur.String())
	return fields
}
