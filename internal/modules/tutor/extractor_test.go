package tutor

import (
	"testing"

	"github.com/yungbote/neurotutor-backend/internal/domain/tutor"
)

const sampleQuiz = `
### Question:
What is typically responsible for creating shadows?

**A.** Reflection of light  
**B.** Blocking of light by an object's presence or shape  
**C.** Absorption of light  
**D.** Refraction of light  

**Correct Answer:** B.

**Explanation:** Shadows form when an object blocks light
from reaching a surface.

**Difficulty:** Medium

**Subject:** Physics
`

func TestExtractQuizFull(t *testing.T) {
	q := ExtractQuiz(sampleQuiz)
	if q.Question == nil || *q.Question != "What is typically responsible for creating shadows?" {
		t.Fatalf("question=%v", q.Question)
	}
	if len(q.Options) != 4 || q.Options["B"] != "Blocking of light by an object's presence or shape" || q.Options["D"] != "Refraction of light" {
		t.Fatalf("options=%v", q.Options)
	}
	if q.CorrectOption == nil || *q.CorrectOption != "B" {
		t.Fatalf("correct=%v", q.CorrectOption)
	}
	if q.Explanation == nil || *q.Explanation != "Shadows form when an object blocks light\nfrom reaching a surface." {
		t.Fatalf("explanation=%q", deref(q.Explanation))
	}
	if q.Difficulty == nil || *q.Difficulty != tutor.DifficultyMedium {
		t.Fatalf("difficulty=%v", q.Difficulty)
	}
	if q.Subject == nil || *q.Subject != "Physics" {
		t.Fatalf("subject=%v", q.Subject)
	}
	if !q.Complete() {
		t.Fatalf("expected complete quiz")
	}
}

func TestExtractQuizMissingDifficulty(t *testing.T) {
	text := `### Question: 2 + 2 = ?
**A.** 3
**B.** 4
**C.** 5
**D.** 22
**Correct Answer:** B
**Explanation:** Two plus two is four.`
	q := ExtractQuiz(text)
	if q.Difficulty != nil {
		t.Fatalf("difficulty should be nil, got %v", *q.Difficulty)
	}
	if q.Question == nil || *q.Question != "2 + 2 = ?" {
		t.Fatalf("question=%v", q.Question)
	}
	if q.CorrectOption == nil || q.Explanation == nil || len(q.Options) != 4 {
		t.Fatalf("other fields should be populated: %+v", q)
	}
	if *q.Explanation != "Two plus two is four." {
		t.Fatalf("explanation=%q", *q.Explanation)
	}
	if q.Subject != nil {
		t.Fatalf("subject should be nil")
	}
}

func TestExtractQuizUnstructured(t *testing.T) {
	for _, text := range []string{"", "just some prose about photosynthesis", "***** ### #", "**Correct Answer:**"} {
		q := ExtractQuiz(text)
		if q.Question != nil || q.Options != nil || q.CorrectOption != nil || q.Explanation != nil || q.Difficulty != nil || q.Subject != nil {
			t.Fatalf("%q: expected all-nil record, got %+v", text, q)
		}
		if q.Complete() {
			t.Fatalf("%q: should not be complete", text)
		}
	}
}

func TestExtractQuizFieldRules(t *testing.T) {
	cases := []struct {
		name    string
		text    string
		correct string
		diff    string
	}{
		{name: "lowercase label rejected", text: "**Correct Answer:** b", correct: ""},
		{name: "word rejected", text: "**Correct Answer:** Both", correct: ""},
		{name: "paren accepted", text: "**Correct Answer:** C) Absorption", correct: "C"},
		{name: "out of range", text: "**Correct Answer:** E", correct: ""},
		{name: "difficulty punctuation", text: "**Difficulty:** HARD.", diff: "hard"},
		{name: "difficulty invalid", text: "**Difficulty:** tricky", diff: ""},
		{name: "first occurrence wins", text: "**Correct Answer:** A\n**Correct Answer:** D", correct: "A"},
	}
	for _, tc := range cases {
		q := ExtractQuiz(tc.text)
		if got := deref(q.CorrectOption); got != tc.correct {
			t.Fatalf("%s: correct=%q want %q", tc.name, got, tc.correct)
		}
		got := ""
		if q.Difficulty != nil {
			got = string(*q.Difficulty)
		}
		if got != tc.diff {
			t.Fatalf("%s: difficulty=%q want %q", tc.name, got, tc.diff)
		}
	}
}

func TestExtractQuizEmptyOptionSkipped(t *testing.T) {
	q := ExtractQuiz("**A.**\n\n**B.** yes")
	// the A body runs into the B marker and has no text of its own
	if _, ok := q.Options["A"]; ok {
		t.Fatalf("empty option A should be absent: %v", q.Options)
	}
	if q.Options["B"] != "yes" {
		t.Fatalf("options=%v", q.Options)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func TestExtractQuizExplanationQuotesOption(t *testing.T) {
	text := `### Question: Which gas do plants absorb?
**A.** Oxygen
**B.** Carbon dioxide
**C.** Nitrogen
**D.** Helium
**Correct Answer:** B
**Explanation:** Option **B.** is right because leaves take in CO2.
**A.** would be the gas they release.
**Difficulty:** easy`
	q := ExtractQuiz(text)
	want := "Option **B.** is right because leaves take in CO2.\n**A.** would be the gas they release."
	if q.Explanation == nil || *q.Explanation != want {
		t.Fatalf("explanation=%q", deref(q.Explanation))
	}
	if q.Options["B"] != "Carbon dioxide" || q.Options["A"] != "Oxygen" {
		t.Fatalf("options=%v", q.Options)
	}
	if q.Difficulty == nil || *q.Difficulty != tutor.DifficultyEasy {
		t.Fatalf("difficulty=%v", q.Difficulty)
	}
}
