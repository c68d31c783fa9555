package roster

import "testing"

var testRoster = []Student{
	{ID: 1, USN: "1GA23CI024", Name: "Aloha Smith"},
	{ID: 2, USN: "1GA23CI025", Name: "Bob Johnson"},
	{ID: 3, USN: "1GA23CI106", Name: "Charlie Brown"},
}

func TestMatcher_ExactUSN(t *testing.T) {
	t.Parallel()

	m := NewMatcher()
	got, ok := m.Match("1ga23ci024", testRoster)
	if !ok {
		t.Fatal("expected a match")
	}
	if got.ID != 1 {
		t.Errorf("matched student %d, want 1", got.ID)
	}
}

func TestMatcher_ExactName(t *testing.T) {
	t.Parallel()

	m := NewMatcher()
	got, ok := m.Match("Bob Johnson", testRoster)
	if !ok {
		t.Fatal("expected a match")
	}
	if got.ID != 2 {
		t.Errorf("matched student %d, want 2", got.ID)
	}
}

func TestMatcher_MisspelledName(t *testing.T) {
	t.Parallel()

	// "aloka" is a plausible mishearing of "aloha"; the token-wise ratio is
	// 80, above the default cutoff.
	m := NewMatcher()
	got, ok := m.Match("aloka", testRoster)
	if !ok {
		t.Fatal("expected fuzzy match for misspelled name")
	}
	if got.ID != 1 {
		t.Errorf("matched student %d, want 1", got.ID)
	}
}

func TestMatcher_BelowCutoffNotFound(t *testing.T) {
	t.Parallel()

	m := NewMatcher()
	if _, ok := m.Match("zzyzx", testRoster); ok {
		t.Error("expected no match for dissimilar identifier")
	}
}

func TestMatcher_RaisedCutoffRejectsNearMiss(t *testing.T) {
	t.Parallel()

	m := NewMatcher(WithCutoff(90))
	if _, ok := m.Match("aloka", testRoster); ok {
		t.Error("expected no match with cutoff above the candidate score")
	}
}

func TestMatcher_EmptyInputs(t *testing.T) {
	t.Parallel()

	m := NewMatcher()
	if _, ok := m.Match("", testRoster); ok {
		t.Error("expected no match for empty identifier")
	}
	if _, ok := m.Match("aloha", nil); ok {
		t.Error("expected no match against empty roster")
	}
}

func TestSimilarity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "aloha", "aloha", 100},
		{"one substitution", "aloka", "aloha", 80},
		{"token-wise beats full string", "aloka", "aloha smith", 80},
		{"empty both", "", "", 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Similarity(tt.a, tt.b); got != tt.want {
				t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
