package ingest

import (
	"errors"
	"strings"
	"testing"
)

var errStop = errors.New("stop")

func collectRows(t *testing.T, input string) [][]string {
	t.Helper()
	var rows [][]string
	err := ParseRows(strings.NewReader(input), func(fields []string) error {
		row := make([]string, len(fields))
		copy(row, fields)
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		t.Fatalf("ParseRows: %v", err)
	}
	return rows
}

func TestParseRows_Simple(t *testing.T) {
	rows := collectRows(t, "a,b,c\nd,e,f\n")
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if got := strings.Join(rows[0], "|"); got != "a|b|c" {
		t.Errorf("row 0 = %q", got)
	}
}

func TestParseRows_QuotedComma(t *testing.T) {
	rows := collectRows(t, `"Acme, Ltd",London,Worker`+"\n")
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0][0] != "Acme, Ltd" {
		t.Errorf("field 0 = %q, want %q", rows[0][0], "Acme, Ltd")
	}
	if rows[0][1] != "London" {
		t.Errorf("field 1 = %q, want London", rows[0][1])
	}
}

func TestParseRows_QuotedNewline(t *testing.T) {
	input := "\"Acme\nHoldings\",London\nNext,Leeds\n"
	rows := collectRows(t, input)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0][0] != "Acme\nHoldings" {
		t.Errorf("field 0 = %q", rows[0][0])
	}
	if rows[1][0] != "Next" {
		t.Errorf("row 1 field 0 = %q", rows[1][0])
	}
}

func TestParseRows_RecordAcrossThreeLines(t *testing.T) {
	input := "\"Acme\nHoldings\nGroup\",London\n"
	rows := collectRows(t, input)
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0][0] != "Acme\nHoldings\nGroup" {
		t.Errorf("field 0 = %q", rows[0][0])
	}
}

func TestParseRows_EscapedQuote(t *testing.T) {
	rows := collectRows(t, `"He said ""hi""",x`+"\n")
	if rows[0][0] != `He said "hi"` {
		t.Errorf("field 0 = %q", rows[0][0])
	}
}

func TestParseRows_TrailingRecordWithoutNewline(t *testing.T) {
	rows := collectRows(t, "a,b\nc,d")
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[1][1] != "d" {
		t.Errorf("row 1 field 1 = %q", rows[1][1])
	}
}

func TestParseRows_CallbackErrorStops(t *testing.T) {
	calls := 0
	err := ParseRows(strings.NewReader("a\nb\nc\n"), func([]string) error {
		calls++
		if calls == 2 {
			return errStop
		}
		return nil
	})
	if !errors.Is(err, errStop) {
		t.Fatalf("err = %v, want errStop", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestSplitRecord_EmptyFields(t *testing.T) {
	fields := splitRecord("a,,c")
	if len(fields) != 3 || fields[1] != "" {
		t.Errorf("fields = %v", fields)
	}
}
