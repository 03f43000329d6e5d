package lexicon

import "testing"

var towns = []string{"ANG MO KIO", "BISHAN", "CENTRAL AREA", "PUNGGOL"}

func TestFold(t *testing.T) {
	if got := Fold("  Ang   Mo\tKio "); got != "ang mo kio" {
		t.Fatalf("fold = %q", got)
	}
	// fullwidth forms collapse to their ASCII counterparts
	if got := Fold("ＢＩＳＨＡＮ"); got != "bishan" {
		t.Fatalf("width fold = %q", got)
	}
}

func TestMatch_Exact(t *testing.T) {
	l := New(towns)

	got, exact, ok := l.Match("show prices in Ang Mo Kio please", 2)
	if !ok || !exact || got != "ANG MO KIO" {
		t.Fatalf("match = (%q, exact=%v, ok=%v)", got, exact, ok)
	}
}

func TestMatch_LongestTermWins(t *testing.T) {
	l := New([]string{"CENTRAL", "CENTRAL AREA"})
	got, _, ok := l.Match("flats in central area this year", 0)
	if !ok || got != "CENTRAL AREA" {
		t.Fatalf("match = %q, want the longer term", got)
	}
}

func TestMatch_WordBoundaries(t *testing.T) {
	l := New([]string{"BISHAN"})
	// substring inside a longer word must not match exactly
	if _, exact, _ := l.Match("bishanville", 0); exact {
		t.Fatalf("substring match should not count as exact")
	}
}

func TestMatch_FuzzyWithinDistance(t *testing.T) {
	l := New(towns)

	got, exact, ok := l.Match("4 room in ang mo koi", 2)
	if !ok || got != "ANG MO KIO" {
		t.Fatalf("fuzzy match = (%q, ok=%v)", got, ok)
	}
	if exact {
		t.Fatalf("misspelling must report exact=false")
	}

	got, _, ok = l.Match("prices in bishaan", 2)
	if !ok || got != "BISHAN" {
		t.Fatalf("fuzzy match = (%q, ok=%v)", got, ok)
	}
}

func TestMatch_MissBeyondDistance(t *testing.T) {
	l := New(towns)
	if _, _, ok := l.Match("tell me about jurong west", 2); ok {
		t.Fatalf("unrelated town should not match")
	}
	if _, _, ok := l.Match("completely unrelated text", 2); ok {
		t.Fatalf("noise should not match")
	}
}

func TestMatch_ZeroDistanceDisablesFuzzy(t *testing.T) {
	l := New(towns)
	if _, _, ok := l.Match("ang mo koi", 0); ok {
		t.Fatalf("maxDist 0 must disable the fuzzy pass")
	}
}

func TestMatch_NilLexicon(t *testing.T) {
	var l *Lexicon
	if _, _, ok := l.Match("anything", 2); ok {
		t.Fatalf("nil lexicon must not match")
	}
}

func TestEditDistance(t *testing.T) {
	cases := []struct {
		a, b  string
		bound int
		want  int
	}{
		{"bishan", "bishan", 2, 0},
		{"bishan", "bishaan", 2, 1},
		{"kio", "koi", 2, 2},
		{"abc", "xyz", 1, 2}, // exceeds bound, reports bound+1
	}
	for _, c := range cases {
		if got := editDistance(c.a, c.b, c.bound); got != c.want {
			t.Fatalf("editDistance(%q, %q, %d) = %d, want %d", c.a, c.b, c.bound, got, c.want)
		}
	}
}
