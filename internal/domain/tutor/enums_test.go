package tutor

import "testing"

func TestDifficultyScore(t *testing.T) {
	cases := []struct {
		d       Difficulty
		correct bool
		want    int
	}{
		{DifficultyEasy, true, 1},
		{DifficultyMedium, true, 2},
		{DifficultyHard, true, 3},
		{DifficultyEasy, false, 0},
		{DifficultyMedium, false, 0},
		{DifficultyHard, false, 0},
	}
	for _, tc := range cases {
		if got := tc.d.Score(tc.correct); got != tc.want {
			t.Fatalf("%s correct=%v: got %d want %d", tc.d, tc.correct, got, tc.want)
		}
	}
}

func TestParseDifficulty(t *testing.T) {
	if d, ok := ParseDifficulty(" HARD "); !ok || d != DifficultyHard {
		t.Fatalf("expected hard, got %q %v", d, ok)
	}
	if _, ok := ParseDifficulty("extreme"); ok {
		t.Fatalf("extreme should not parse")
	}
	if got := DifficultyOrDefault(""); got != DifficultyEasy {
		t.Fatalf("default difficulty: got %q", got)
	}
}

func TestParseSubject(t *testing.T) {
	cases := map[string]Subject{
		"":          SubjectUnknown,
		"  maths ":  SubjectMath,
		"SCIENCE":   SubjectScience,
		"unknown":   SubjectUnknown,
		"Astronomy": Subject("Astronomy"),
	}
	for in, want := range cases {
		if got := ParseSubject(in); got != want {
			t.Fatalf("ParseSubject(%q) = %q want %q", in, got, want)
		}
	}
}
