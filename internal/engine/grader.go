package engine

import (
	"math"
	"strings"
	"unicode"
)

// Grade compares the submitted answers against each question's canonical
// answer and computes the final score on a 0-100 scale.
//
// Both sides are normalized by stripping all whitespace before comparison;
// matching is otherwise exact and case-sensitive. Ordering answers arrive as
// the delimiter-joined token sequence the test-taker assembled, so the joined
// string comparison is an exact-sequence match with no partial credit. A
// missing or empty submission counts as incorrect.
func Grade(workingSet []Question, answers map[uint]string) Result {
	perQuestion := make([]Outcome, 0, len(workingSet))
	correct := 0

	for _, q := range workingSet {
		submitted := answers[q.ID]
		ok := submitted != "" && stripWhitespace(submitted) == stripWhitespace(q.Answer)
		if ok {
			correct++
		}
		perQuestion = append(perQuestion, Outcome{
			QuestionID: q.ID,
			Submitted:  submitted,
			Canonical:  q.Answer,
			Correct:    ok,
		})
	}

	score := 0
	if len(workingSet) > 0 {
		score = int(math.Round(100 * float64(correct) / float64(len(workingSet))))
	}

	return Result{Score: score, PerQuestion: perQuestion}
}

func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
