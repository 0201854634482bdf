package security

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/forest6511/pwctl/pkg/record"
	"golang.org/x/text/unicode/norm"
)

// DuplicateGroup is a set of applications sharing one secret.
type DuplicateGroup struct {
	// Names are the lowercase application names, sorted.
	Names []string
	// Count is the number of records in the group.
	Count int
}

// FindDuplicates groups records whose secrets are equal.
// Uses HMAC-SHA256 with a session-local key for comparison, so the secrets
// themselves are never held in the grouping map.
// Returns groups sorted by count (most duplicated first), then by first name.
//
// Records with the same name count once: a repeated name is a file defect
// reported separately, not a reuse.
func (c *Calculator) FindDuplicates(records []record.Record) ([]DuplicateGroup, error) {
	if err := c.ensureKey(); err != nil {
		return nil, err
	}

	hashGroups := make(map[string]map[string]bool)
	for _, r := range records {
		value := normalizeValue(r.Secret)
		if value == "" {
			continue
		}
		hash := computeValueHash(value, c.hmacKey)
		if hashGroups[hash] == nil {
			hashGroups[hash] = make(map[string]bool)
		}
		hashGroups[hash][r.Key()] = true
	}

	var groups []DuplicateGroup
	for _, names := range hashGroups {
		if len(names) <= 1 {
			continue
		}
		group := DuplicateGroup{Count: len(names)}
		for name := range names {
			group.Names = append(group.Names, name)
		}
		sort.Strings(group.Names)
		groups = append(groups, group)
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Names[0] < groups[j].Names[0]
	})

	return groups, nil
}

// FindWeakPasswords returns one issue per record with a weak secret.
func (c *Calculator) FindWeakPasswords(records []record.Record) []SecurityIssue {
	var issues []SecurityIssue
	for _, r := range records {
		if r.Secret == "" || !IsWeak(r.Secret) {
			continue
		}
		issues = append(issues, SecurityIssue{
			Type:        IssueWeakPassword,
			Severity:    SeverityWarning,
			Names:       []string{r.Key()},
			Description: fmt.Sprintf("Password has insufficient strength (%s)", formatLength(len([]rune(r.Secret)))),
			Suggestion:  "Use a longer password (14+ characters) or let pwctl generate one",
		})
	}
	return issues
}

func (c *Calculator) ensureKey() error {
	if c.hmacKey != nil {
		return nil
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return fmt.Errorf("security: failed to generate session key: %w", err)
	}
	c.hmacKey = key
	return nil
}

// computeValueHash computes HMAC-SHA256 of a value with the session key.
func computeValueHash(value string, key []byte) string {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(value))
	return hex.EncodeToString(h.Sum(nil))
}

// normalizeValue trims whitespace and applies Unicode NFC.
func normalizeValue(value string) string {
	return norm.NFC.String(strings.TrimSpace(value))
}

// formatLength returns a human-readable length description.
func formatLength(n int) string {
	if n == 1 {
		return "1 character"
	}
	return fmt.Sprintf("%d characters", n)
}
