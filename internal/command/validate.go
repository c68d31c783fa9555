package command

import "fmt"

// MaxTotal is the cap on the sum of one assessment's scores. With four
// questions at 10 marks each the cap is structurally unreachable, but it is
// still checked independently of the pairing rule.
const MaxTotal = 40

// questionPairs are the four alternative-question groupings; exactly one
// member of each pair must be answered.
var questionPairs = [4][2]int{{1, 2}, {3, 4}, {5, 6}, {7, 8}}

// PairError reports which alternative-question pair the marks set violates.
type PairError struct {
	Pair [2]int
	Both bool // both members answered rather than neither
}

func (e *PairError) Error() string {
	if e.Both {
		return fmt.Sprintf("both Q%d and Q%d answered; pick one from the pair", e.Pair[0], e.Pair[1])
	}
	return fmt.Sprintf("neither Q%d nor Q%d answered; pick one from the pair", e.Pair[0], e.Pair[1])
}

// ValidateQuestionCombination checks the structural rule for an assessment:
// exactly one score from each of the pairs (Q1/Q2), (Q3/Q4), (Q5/Q6),
// (Q7/Q8). Returns a *PairError naming the first violated pair, or nil.
//
// Since ExtractMarks only admits questions 1..8, satisfying all four pairs
// implies exactly 4 entries.
func ValidateQuestionCombination(marks MarksSet) error {
	if len(marks) != 4 {
		if err := firstPairViolation(marks); err != nil {
			return err
		}
		return fmt.Errorf("expected 4 answered questions, got %d", len(marks))
	}
	return firstPairViolation(marks)
}

func firstPairViolation(marks MarksSet) error {
	for _, pair := range questionPairs {
		_, a := marks[pair[0]]
		_, b := marks[pair[1]]
		switch {
		case a && b:
			return &PairError{Pair: pair, Both: true}
		case !a && !b:
			return &PairError{Pair: pair}
		}
	}
	return nil
}
