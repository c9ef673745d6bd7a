package normalize

import "testing"

func TestName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		// Legal suffixes stripped regardless of case and punctuation
		{"Acme Ltd.", "acme"},
		{"ACME LIMITED", "acme"},
		{"Acme", "acme"},
		{"Acme PLC", "acme"},
		{"Acme Holdings LLP", "acme"},
		{"The Acme Group", "acme"},
		// Punctuation becomes whitespace, runs collapse
		{"Smith & Sons (UK) Ltd", "smith sons uk"},
		{"  Widgets   International  ", "widgets international"},
		{"O'Brien & Co.", "o brien"},
		// Suffix tokens only strip on word boundaries
		{"Colimited Systems", "colimited systems"},
		{"Incline Engineering", "incline engineering"},
		// Digits survive
		{"42 Bridges Ltd", "42 bridges"},
		// Unusable names normalize to empty
		{"", ""},
		{"Ltd.", ""},
		{"The Company", ""},
		{"???", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := Name(tt.input)
			if result != tt.expected {
				t.Errorf("Name(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNameIdempotent(t *testing.T) {
	inputs := []string{
		"Acme Ltd.",
		"Smith, and\nSons Limited",
		"The Widget Company PLC",
		"Déjà Vu Holdings",
		"",
	}

	for _, in := range inputs {
		once := Name(in)
		twice := Name(once)
		if once != twice {
			t.Errorf("Name not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestNameEquivalentForms(t *testing.T) {
	// Distinct published spellings of the same employer must share a key.
	pairs := [][2]string{
		{"Acme Ltd.", "ACME LIMITED"},
		{"Bright Futures Ltd", "Bright Futures Limited"},
		{"North-West Care", "north west care"},
	}

	for _, p := range pairs {
		if Name(p[0]) != Name(p[1]) {
			t.Errorf("Name(%q) = %q, Name(%q) = %q, want equal", p[0], Name(p[0]), p[1], Name(p[1]))
		}
	}
}
