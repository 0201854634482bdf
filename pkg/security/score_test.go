package security

import (
	"reflect"
	"testing"

	"github.com/forest6511/pwctl/pkg/record"
)

func TestCalculateScore_Empty(t *testing.T) {
	score, err := NewCalculator().CalculateScore(nil)
	if err != nil {
		t.Fatalf("CalculateScore failed: %v", err)
	}
	if score.Overall != 100 {
		t.Errorf("Overall = %d, want 100", score.Overall)
	}
	if len(score.Issues) != 0 {
		t.Errorf("Issues = %v, want none", score.Issues)
	}
}

func TestCalculateScore(t *testing.T) {
	records := []record.Record{
		{Name: "GitHub", Secret: "short"},
		{Name: "gitlab", Secret: "short"},
		{Name: "mail", Secret: "aVeryLongUniqueSecret42"},
		{Name: "bank", Secret: "Medium1234567x"},
	}

	score, err := NewCalculator().CalculateScore(records)
	if err != nil {
		t.Fatalf("CalculateScore failed: %v", err)
	}

	// (0 + 0 + 50 + 35) / 4
	if score.Components.StrengthScore != 21 {
		t.Errorf("StrengthScore = %d, want 21", score.Components.StrengthScore)
	}
	// 3 unique of 4
	if score.Components.UniquenessScore != 37 {
		t.Errorf("UniquenessScore = %d, want 37", score.Components.UniquenessScore)
	}
	if score.Overall != 58 {
		t.Errorf("Overall = %d, want 58", score.Overall)
	}

	var weak, dup int
	for _, issue := range score.Issues {
		switch issue.Type {
		case IssueWeakPassword:
			weak++
		case IssueDuplicatePassword:
			dup++
			if want := []string{"github", "gitlab"}; !reflect.DeepEqual(issue.Names, want) {
				t.Errorf("duplicate names = %v, want %v", issue.Names, want)
			}
		}
	}
	if weak != 2 || dup != 1 {
		t.Errorf("weak=%d dup=%d, want 2 and 1", weak, dup)
	}
	if len(score.Suggestions) != 2 {
		t.Errorf("Suggestions = %v, want 2 entries", score.Suggestions)
	}
}

func TestFindDuplicates(t *testing.T) {
	records := []record.Record{
		{Name: "a", Secret: "one"},
		{Name: "b", Secret: "two"},
		{Name: "c", Secret: "one"},
		{Name: "d", Secret: "two"},
		{Name: "e", Secret: "two"},
		{Name: "A", Secret: "three"},
		{Name: "a", Secret: "three"},
	}

	groups, err := NewCalculator().FindDuplicates(records)
	if err != nil {
		t.Fatalf("FindDuplicates failed: %v", err)
	}

	want := []DuplicateGroup{
		{Names: []string{"b", "d", "e"}, Count: 3},
		{Names: []string{"a", "c"}, Count: 2},
	}
	if !reflect.DeepEqual(groups, want) {
		t.Errorf("FindDuplicates() = %v, want %v", groups, want)
	}
}

func TestFindDuplicates_NormalizesUnicode(t *testing.T) {
	records := []record.Record{
		{Name: "x", Secret: "caf\u00e9"},
		{Name: "y", Secret: "cafe\u0301"},
	}

	groups, err := NewCalculator().FindDuplicates(records)
	if err != nil {
		t.Fatalf("FindDuplicates failed: %v", err)
	}
	if len(groups) != 1 || groups[0].Count != 2 {
		t.Errorf("FindDuplicates() = %v, want one group of 2", groups)
	}
}

func TestFindWeakPasswords(t *testing.T) {
	records := []record.Record{
		{Name: "Weak", Secret: "x"},
		{Name: "strong", Secret: "abcdefghijklmnopqrstu"},
	}

	issues := NewCalculator().FindWeakPasswords(records)
	if len(issues) != 1 {
		t.Fatalf("FindWeakPasswords() = %d issues, want 1", len(issues))
	}
	if issues[0].Names[0] != "weak" {
		t.Errorf("Names = %v, want [weak]", issues[0].Names)
	}
	if issues[0].Description != "Password has insufficient strength (1 character)" {
		t.Errorf("Description = %q", issues[0].Description)
	}
}
