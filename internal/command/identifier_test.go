package command

import "testing"

func TestExpandUSN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		digits string
		want   string
	}{
		{"two digits appended", "1GA23CI0", "24", "1GA23CI024"},
		{"three digits drop trailing zero", "1GA23CI0", "106", "1GA23CI106"},
		{"prefix without trailing zero, two digits", "1GA23CI", "24", "1GA23CI24"},
		{"prefix without trailing zero, three digits", "1GA23CI", "106", "1GA23CI106"},
		{"empty prefix passes digits through", "", "24", "24"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := ExpandUSN(tt.prefix, tt.digits); got != tt.want {
				t.Errorf("ExpandUSN(%q, %q) = %q, want %q", tt.prefix, tt.digits, got, tt.want)
			}
		})
	}
}

func TestExtractIdentifier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		text   string
		prefix string
		want   string
		found  bool
	}{
		{"usn short code expanded", "usn 24 is present", "1GA23CI0", "1GA23CI024", true},
		{"usn three digit code", "usn 106 is absent", "1GA23CI0", "1GA23CI106", true},
		{"usn full token verbatim", "usn 1ga23ci024 is present", "1GA23CI0", "1ga23ci024", true},
		{"usn digits without prefix verbatim", "usn 24 is present", "", "24", true},
		{"bare code with copula", "24 is present", "1GA23CI0", "1GA23CI024", true},
		{"bare code needs prefix", "aloha is present", "1GA23CI0", "aloha", true},
		{"bare code without prefix falls to name rule", "24 is present", "", "24", true},
		{"name before status", "bob johnson is absent", "", "bob johnson", true},
		{"name noise stripped", "the aloha is present", "", "aloha", true},
		{"name before scored", "aloha scored 8 marks in question 1", "", "aloha", true},
		{"name before has scored", "aloha has scored 8 marks in question 1", "", "aloha", true},
		{"name before has", "aloha has 8 marks", "", "aloha", true},
		{"name before ia token", "aloha ia1 question 1 8 marks", "", "aloha", true},
		{"fallback before keyword", "charlie brown question 1 8 marks", "", "charlie brown", true},
		{"fallback skips digits and short tokens", "x 42 charlie question 1 8", "", "charlie", true},
		{"nothing identifiable", "question 1 8 marks", "", "", false},
		{"empty text", "", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, found := ExtractIdentifier(tt.text, tt.prefix)
			if found != tt.found {
				t.Fatalf("ExtractIdentifier(%q) found = %v, want %v", tt.text, found, tt.found)
			}
			if got != tt.want {
				t.Errorf("ExtractIdentifier(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractIdentifier_Deterministic(t *testing.T) {
	t.Parallel()

	const text = "usn 24 is present"
	first, _ := ExtractIdentifier(text, "1GA23CI0")
	for range 10 {
		got, _ := ExtractIdentifier(text, "1GA23CI0")
		if got != first {
			t.Fatalf("non-deterministic extraction: %q then %q", first, got)
		}
	}
}
