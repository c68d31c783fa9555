package transcript

import "testing"

func TestNormalize_CaseAndWhitespace(t *testing.T) {
	t.Parallel()

	got := Normalize("  Aloha IS Present \n")
	want := "aloha is present"
	if got != want {
		t.Errorf("Normalize = %q, want %q", got, want)
	}
}

func TestNormalize_DigitMerge(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "merged with marks word",
			in:   "question 18 marks",
			want: "question 1 8 marks",
		},
		{
			name: "merged without marks word",
			in:   "question 37",
			want: "question 3 7 marks",
		},
		{
			name: "merged mid sentence",
			in:   "aloha scored question 18, question 37",
			want: "aloha scored question 1 8 marks, question 3 7 marks",
		},
		{
			name: "no space after question",
			in:   "question18 marks",
			want: "question 1 8 marks",
		},
		{
			name: "first digit out of range",
			in:   "question 91 marks",
			want: "question 91 marks",
		},
		{
			name: "zero question number untouched",
			in:   "question 08",
			want: "question 08",
		},
		{
			name: "three digit run untouched",
			in:   "question 189",
			want: "question 189",
		},
		{
			name: "single digit untouched",
			in:   "question 5, 8 marks",
			want: "question 5, 8 marks",
		},
		{
			name: "already separated untouched",
			in:   "question 1 8 marks",
			want: "question 1 8 marks",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
