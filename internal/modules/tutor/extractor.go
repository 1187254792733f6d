package tutor

import (
	"strings"
	"unicode"

	"github.com/yungbote/neurotutor-backend/internal/domain/tutor"
)

// ExtractedQuiz is the structured view of generated quiz text. A nil field
// means its marker was absent or its value unusable.
type ExtractedQuiz struct {
	Question      *string
	Options       map[string]string
	CorrectOption *string
	Explanation   *string
	Difficulty    *tutor.Difficulty
	Subject       *string
}

// Complete reports whether the quiz can be answered and graded.
func (q ExtractedQuiz) Complete() bool {
	return q.Question != nil && q.CorrectOption != nil && len(q.Options) > 0
}

type markerKind int

const (
	markText markerKind = iota
	markQuestion
	markOption
	markCorrect
	markExplanation
	markDifficulty
	markSubject
)

type marker struct {
	literal string
	kind    markerKind
	label   string
}

var quizMarkers = []marker{
	{literal: "### Question:", kind: markQuestion},
	{literal: "**A.**", kind: markOption, label: "A"},
	{literal: "**B.**", kind: markOption, label: "B"},
	{literal: "**C.**", kind: markOption, label: "C"},
	{literal: "**D.**", kind: markOption, label: "D"},
	{literal: "**Correct Answer:**", kind: markCorrect},
	{literal: "**Explanation:**", kind: markExplanation},
	{literal: "**Difficulty:**", kind: markDifficulty},
	{literal: "**Subject:**", kind: markSubject},
}

// quizToken is a marker and the text that follows it up to the next marker.
type quizToken struct {
	kind  markerKind
	label string
	body  string
}

// Option markers only count before the first Correct Answer marker, so an
// explanation may quote "**B.**" without being cut short.
func tokenizeQuiz(text string) []quizToken {
	var (
		out         []quizToken
		cur         = quizToken{kind: markText}
		start       = 0
		seenCorrect bool
	)
	for i := 0; i < len(text); {
		if text[i] != '#' && text[i] != '*' {
			i++
			continue
		}
		m, ok := matchMarker(text[i:])
		if !ok || (m.kind == markOption && seenCorrect) {
			i++
			continue
		}
		if m.kind == markCorrect {
			seenCorrect = true
		}
		cur.body = text[start:i]
		out = append(out, cur)
		cur = quizToken{kind: m.kind, label: m.label}
		i += len(m.literal)
		start = i
	}
	cur.body = text[start:]
	return append(out, cur)
}

func matchMarker(s string) (marker, bool) {
	for _, m := range quizMarkers {
		if strings.HasPrefix(s, m.literal) {
			return m, true
		}
	}
	return marker{}, false
}

// ExtractQuiz parses generated quiz markdown. It never fails; the first
// occurrence of each marker wins.
func ExtractQuiz(text string) ExtractedQuiz {
	var q ExtractedQuiz
	for _, tok := range tokenizeQuiz(text) {
		switch tok.kind {
		case markQuestion:
			if q.Question == nil {
				q.Question = firstLine(tok.body)
			}
		case markOption:
			if _, seen := q.Options[tok.label]; seen {
				continue
			}
			if v := firstLine(tok.body); v != nil {
				if q.Options == nil {
					q.Options = map[string]string{}
				}
				q.Options[tok.label] = *v
			}
		case markCorrect:
			if q.CorrectOption == nil {
				q.CorrectOption = parseOptionLabel(tok.body)
			}
		case markExplanation:
			if q.Explanation == nil {
				q.Explanation = block(tok.body)
			}
		case markDifficulty:
			if q.Difficulty == nil {
				q.Difficulty = parseDifficultyWord(tok.body)
			}
		case markSubject:
			if q.Subject == nil {
				q.Subject = firstLine(tok.body)
			}
		}
	}
	return q
}

func firstLine(body string) *string {
	for _, line := range strings.Split(body, "\n") {
		if v := strings.TrimSpace(line); v != "" {
			return &v
		}
	}
	return nil
}

func block(body string) *string {
	v := strings.TrimSpace(body)
	if v == "" {
		return nil
	}
	return &v
}

// parseOptionLabel accepts "B", "B." or "B) ..." but not words like "Both".
func parseOptionLabel(body string) *string {
	v := strings.TrimSpace(body)
	if v == "" || v[0] < 'A' || v[0] > 'D' {
		return nil
	}
	if len(v) > 1 && (unicode.IsLetter(rune(v[1])) || unicode.IsDigit(rune(v[1]))) {
		return nil
	}
	label := v[:1]
	return &label
}

func parseDifficultyWord(body string) *tutor.Difficulty {
	v := strings.TrimSpace(body)
	end := strings.IndexFunc(v, func(r rune) bool { return !unicode.IsLetter(r) })
	if end >= 0 {
		v = v[:end]
	}
	d, ok := tutor.ParseDifficulty(v)
	if !ok {
		return nil
	}
	return &d
}
