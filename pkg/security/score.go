package security

import (
	"github.com/forest6511/pwctl/pkg/record"
)

// SecurityScore represents the overall security assessment of a record file.
type SecurityScore struct {
	// Overall is the total score (0-100).
	Overall int
	// Components breaks down the score into categories.
	Components ScoreComponents
	// Issues contains the detected security issues.
	Issues []SecurityIssue
	// Suggestions provides actionable recommendations.
	Suggestions []string
}

// ScoreComponents breaks down the security score into categories.
// Each component contributes up to 50 points (total: 100).
type ScoreComponents struct {
	// StrengthScore is based on average secret strength (0-50).
	StrengthScore int
	// UniquenessScore is based on percentage of unique secrets (0-50).
	UniquenessScore int
}

// IssueType identifies the type of security issue.
type IssueType string

const (
	// IssueWeakPassword indicates a secret with insufficient strength.
	IssueWeakPassword IssueType = "weak"
	// IssueDuplicatePassword indicates a secret reused across applications.
	IssueDuplicatePassword IssueType = "duplicate"
)

// Severity indicates the urgency of a security issue.
type Severity string

const (
	// SeverityCritical requires immediate attention.
	SeverityCritical Severity = "critical"
	// SeverityWarning should be addressed soon.
	SeverityWarning Severity = "warning"
)

// SecurityIssue represents a detected security problem.
type SecurityIssue struct {
	Type     IssueType
	Severity Severity
	// Names are the affected applications.
	Names       []string
	Description string
	Suggestion  string
}

// Calculator computes security scores. The zero value is ready to use; a
// session key for duplicate detection is created on first use.
type Calculator struct {
	hmacKey []byte
}

// NewCalculator creates a new security calculator.
func NewCalculator() *Calculator {
	return &Calculator{}
}

// CalculateScore computes the full security score for records.
func (c *Calculator) CalculateScore(records []record.Record) (*SecurityScore, error) {
	if len(records) == 0 {
		return &SecurityScore{
			Overall: 100,
			Components: ScoreComponents{
				StrengthScore:   50,
				UniquenessScore: 50,
			},
			Issues:      []SecurityIssue{},
			Suggestions: []string{},
		}, nil
	}

	strengthScore, weakIssues := c.calculateStrengthScore(records)
	uniquenessScore, dupIssues, err := c.calculateUniquenessScore(records)
	if err != nil {
		return nil, err
	}

	allIssues := make([]SecurityIssue, 0, len(weakIssues)+len(dupIssues))
	allIssues = append(allIssues, weakIssues...)
	allIssues = append(allIssues, dupIssues...)

	return &SecurityScore{
		Overall: strengthScore + uniquenessScore,
		Components: ScoreComponents{
			StrengthScore:   strengthScore,
			UniquenessScore: uniquenessScore,
		},
		Issues:      allIssues,
		Suggestions: c.generateSuggestions(allIssues),
	}, nil
}

// calculateStrengthScore averages secret strength points.
// Returns score (0-50) and weak password issues.
func (c *Calculator) calculateStrengthScore(records []record.Record) (int, []SecurityIssue) {
	totalPoints := 0
	for _, r := range records {
		totalPoints += CalculateStrength(r.Secret).Points()
	}

	score := totalPoints / len(records)
	if score > 50 {
		score = 50
	}

	return score, c.FindWeakPasswords(records)
}

// calculateUniquenessScore evaluates secret reuse across applications.
// Returns score (0-50) and duplicate issues.
func (c *Calculator) calculateUniquenessScore(records []record.Record) (int, []SecurityIssue, error) {
	duplicates, err := c.FindDuplicates(records)
	if err != nil {
		return 0, nil, err
	}

	unique := make(map[string]bool)
	for _, r := range records {
		unique[computeValueHash(normalizeValue(r.Secret), c.hmacKey)] = true
	}

	var issues []SecurityIssue
	for _, dup := range duplicates {
		issues = append(issues, SecurityIssue{
			Type:        IssueDuplicatePassword,
			Severity:    SeverityCritical,
			Names:       dup.Names,
			Description: "Multiple applications share the same password",
			Suggestion:  "Use unique passwords for each application",
		})
	}

	score := len(unique) * 50 / len(records)
	return score, issues, nil
}

// generateSuggestions creates actionable recommendations based on issues.
func (c *Calculator) generateSuggestions(issues []SecurityIssue) []string {
	var suggestions []string
	hasWeak := false
	hasDuplicate := false

	for _, issue := range issues {
		switch issue.Type {
		case IssueWeakPassword:
			hasWeak = true
		case IssueDuplicatePassword:
			hasDuplicate = true
		}
	}

	if hasWeak {
		suggestions = append(suggestions, "Update weak passwords with stronger alternatives (pwctl update <name>, empty input generates one)")
	}
	if hasDuplicate {
		suggestions = append(suggestions, "Replace duplicate passwords with unique values")
	}

	return suggestions
}
