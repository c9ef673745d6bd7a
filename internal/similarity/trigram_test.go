package similarity

import "testing"

func TestScoreIdentity(t *testing.T) {
	if got := Score("acme", "acme"); got != 1 {
		t.Errorf("Score(acme, acme) = %v, want 1", got)
	}
	if got := Score("", ""); got != 0 {
		t.Errorf("Score of two empty strings = %v, want 0", got)
	}
}

func TestScoreSymmetry(t *testing.T) {
	a, b := "acme engineering", "acme engineers"
	if Score(a, b) != Score(b, a) {
		t.Errorf("Score not symmetric for %q / %q", a, b)
	}
}

func TestScoreBounds(t *testing.T) {
	pairs := [][2]string{
		{"acme", "acme engineering"},
		{"smith sons", "smith and sons"},
		{"zebra", "xylophone"},
		{"a", "b"},
	}

	for _, p := range pairs {
		got := Score(p[0], p[1])
		if got < 0 || got > 1 {
			t.Errorf("Score(%q, %q) = %v, outside [0,1]", p[0], p[1], got)
		}
	}
}

func TestScoreOrdering(t *testing.T) {
	// A near-identical name must outrank a loosely related one.
	query := "bright futures care"
	near := Score(query, "bright futures care services")
	far := Score(query, "bright industrial supplies")

	if near <= far {
		t.Errorf("Score ordering wrong: near %v <= far %v", near, far)
	}
	if far >= 0.72 {
		t.Errorf("loosely related pair scored %v, expected below the unclear threshold", far)
	}
}

func TestScoreDisjoint(t *testing.T) {
	if got := Score("zebra", "quill"); got != 0 {
		t.Errorf("Score of disjoint names = %v, want 0", got)
	}
}
