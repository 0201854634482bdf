// Package cli provides shared utilities for CLI commands.
package cli

import (
	"github.com/sahilm/fuzzy"
)

// DefaultSuggestions is the number of suggestions offered after a miss.
const DefaultSuggestions = 3

// Suggest returns up to limit names that fuzzy-match name, best first.
// Ties keep the order of names.
func Suggest(name string, names []string, limit int) []string {
	if name == "" || len(names) == 0 {
		return nil
	}

	matches := fuzzy.Find(name, names)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Str)
	}
	return out
}
