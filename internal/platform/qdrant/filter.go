package qdrant

import (
	"sort"
	"strings"
)

// Filter is the subset of the Qdrant filter DSL the tutor needs: exact
// payload matches that must all hold.
type Filter struct {
	Must []Condition `json:"must,omitempty"`
}

type Condition struct {
	Key   string `json:"key"`
	Match Match  `json:"match"`
}

type Match struct {
	Value any   `json:"value,omitempty"`
	Any   []any `json:"any,omitempty"`
}

// MatchFields builds a filter from payload key/value pairs. Blank values are
// skipped, and nil is returned when nothing remains.
func MatchFields(fields map[string]string) *Filter {
	keys := make([]string, 0, len(fields))
	for k, v := range fields {
		if strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return nil
	}
	sort.Strings(keys)
	f := &Filter{}
	for _, k := range keys {
		f.Must = append(f.Must, Condition{Key: k, Match: Match{Value: strings.TrimSpace(fields[k])}})
	}
	return f
}

// MatchAny adds a condition matching any of values.
func (f *Filter) MatchAny(key string, values ...string) *Filter {
	if f == nil {
		f = &Filter{}
	}
	if len(values) == 0 {
		return f
	}
	anyVals := make([]any, len(values))
	for i, v := range values {
		anyVals[i] = v
	}
	f.Must = append(f.Must, Condition{Key: key, Match: Match{Any: anyVals}})
	return f
}
