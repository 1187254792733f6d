package tutor

import "strings"

type Role string

const (
	RoleHuman Role = "human"
	RoleAI    Role = "ai"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"

	// DefaultDifficulty is used when a quiz or submission omits difficulty.
	DefaultDifficulty = DifficultyEasy
)

// ParseDifficulty matches easy|medium|hard case-insensitively.
func ParseDifficulty(s string) (Difficulty, bool) {
	switch Difficulty(strings.ToLower(strings.TrimSpace(s))) {
	case DifficultyEasy:
		return DifficultyEasy, true
	case DifficultyMedium:
		return DifficultyMedium, true
	case DifficultyHard:
		return DifficultyHard, true
	}
	return "", false
}

func DifficultyOrDefault(s string) Difficulty {
	if d, ok := ParseDifficulty(s); ok {
		return d
	}
	return DefaultDifficulty
}

// Score is the points awarded for an answer at this difficulty.
// Incorrect answers always score 0.
func (d Difficulty) Score(correct bool) int {
	if !correct {
		return 0
	}
	switch d {
	case DifficultyMedium:
		return 2
	case DifficultyHard:
		return 3
	default:
		return 1
	}
}

type Subject string

const (
	SubjectUnknown     Subject = "Unknown"
	SubjectMath        Subject = "Math"
	SubjectScience     Subject = "Science"
	SubjectPhysics     Subject = "Physics"
	SubjectChemistry   Subject = "Chemistry"
	SubjectBiology     Subject = "Biology"
	SubjectEnglish     Subject = "English"
	SubjectHistory     Subject = "History"
	SubjectGeography   Subject = "Geography"
	SubjectCivics      Subject = "Civics"
	SubjectEconomics   Subject = "Economics"
	SubjectComputerSci Subject = "Computer Science"
)

var subjectAliases = map[string]Subject{
	"math":              SubjectMath,
	"maths":             SubjectMath,
	"mathematics":       SubjectMath,
	"science":           SubjectScience,
	"physics":           SubjectPhysics,
	"chemistry":         SubjectChemistry,
	"biology":           SubjectBiology,
	"english":           SubjectEnglish,
	"history":           SubjectHistory,
	"geography":         SubjectGeography,
	"civics":            SubjectCivics,
	"political science": SubjectCivics,
	"economics":         SubjectEconomics,
	"computer science":  SubjectComputerSci,
	"cs":                SubjectComputerSci,
}

// ParseSubject canonicalizes known subjects. Unrecognized labels are kept
// verbatim (trimmed) so rollups still group them; empty input is Unknown.
func ParseSubject(s string) Subject {
	s = strings.TrimSpace(s)
	if s == "" {
		return SubjectUnknown
	}
	if known, ok := subjectAliases[strings.ToLower(s)]; ok {
		return known
	}
	if strings.EqualFold(s, string(SubjectUnknown)) {
		return SubjectUnknown
	}
	return Subject(s)
}
