package record

import (
	"fmt"
	"regexp"
	"sort"
)

// Lookup returns every secret stored under name, in file order.
// Duplicate records for the same name are all returned.
func Lookup(records []Record, name string) []string {
	key := Key(name)

	var secrets []string
	for _, r := range records {
		if r.Key() == key {
			secrets = append(secrets, r.Secret)
		}
	}
	return secrets
}

// CompilePattern compiles a case-insensitive search pattern.
func CompilePattern(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, pattern, err)
	}
	return re, nil
}

// Search returns the sorted lowercase names in which pattern is found.
// The pattern may match anywhere in the name.
func Search(records []Record, pattern string) ([]string, error) {
	re, err := CompilePattern(pattern)
	if err != nil {
		return nil, err
	}
	return Match(records, re), nil
}

// Match returns the sorted lowercase names matched by re.
func Match(records []Record, re *regexp.Regexp) []string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range records {
		k := r.Key()
		if seen[k] || !re.MatchString(k) {
			continue
		}
		seen[k] = true
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
