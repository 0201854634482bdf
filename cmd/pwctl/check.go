package main

import (
	"errors"
	"strconv"
	"strings"

	"github.com/forest6511/pwctl/internal/cli"
	"github.com/forest6511/pwctl/pkg/security"
	"github.com/forest6511/pwctl/pkg/store"

	"github.com/spf13/cobra"
)

// Check command flags
var (
	checkVerbose bool
)

var errNotClean = errors.New("record file has defects")

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the record file for defects and weak passwords",
	Long: `Check the record file without modifying it.

Reports malformed lines, names stored more than once, records out of
alphabetical order, and a security score built from:
  - Password Strength (0-50): Average strength of the passwords
  - Uniqueness (0-50): Percentage of passwords not reused

Exits with status 1 when the file has structural defects.`,
	Args: usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}

		report, err := s.Check(cmd.Context())
		if err != nil {
			return err
		}

		p := presenter(cmd)
		outputReport(p, report)
		outputSecurityText(p, report.Security, checkVerbose)

		if !report.Clean() {
			return errNotClean
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().BoolVarP(&checkVerbose, "verbose", "v", false, "Show suggestions")
}

// outputReport prints the structural part of a report.
func outputReport(p *cli.Presenter, report *store.Report) {
	p.Printf("%d records in %s\n", report.Records, cfg.ArchiveName)
	if report.BackupPresent {
		p.Warning("a backup of the record file from an interrupted update is still in %s", cfg.ArchiveName)
	}
	if report.Clean() {
		p.Println("No structural problems found.")
		p.Println()
		return
	}

	if len(report.Malformed) > 0 {
		p.Printf("Malformed lines: %s\n", joinInts(report.Malformed))
	}
	if len(report.Duplicates) > 0 {
		p.Println("Names stored more than once:")
		p.List(report.Duplicates)
	}
	if len(report.OutOfOrder) > 0 {
		p.Printf("Lines out of alphabetical order: %s\n", joinInts(report.OutOfOrder))
	}
	p.Println()
}

// outputSecurityText prints the security score as formatted text.
func outputSecurityText(p *cli.Presenter, score *security.SecurityScore, verbose bool) {
	var rating string
	switch {
	case score.Overall >= 90:
		rating = "Excellent"
	case score.Overall >= 70:
		rating = "Good"
	case score.Overall >= 50:
		rating = "Fair"
	default:
		rating = "Needs Attention"
	}

	p.Printf("Security Score: %d/100 (%s)\n\n", score.Overall, rating)

	// Components
	p.Println("Components:")
	p.Printf("  Password Strength: %d/50 %s\n", score.Components.StrengthScore, progressBar(score.Components.StrengthScore, 50))
	p.Printf("  Uniqueness:        %d/50 %s\n", score.Components.UniquenessScore, progressBar(score.Components.UniquenessScore, 50))
	p.Println()

	// Issues
	if len(score.Issues) > 0 {
		p.Printf("Issues (%d):\n", len(score.Issues))
		for i, issue := range score.Issues {
			typeLabel := strings.ToUpper(string(issue.Type))
			p.Printf("  %d. [%s] %s: %s\n", i+1, typeLabel, strings.Join(issue.Names, ", "), issue.Description)
		}
		p.Println()
	}

	// Suggestions
	if len(score.Suggestions) > 0 && verbose {
		p.Println("Suggestions:")
		for _, suggestion := range score.Suggestions {
			p.Printf("  - %s\n", suggestion)
		}
		p.Println()
	}
}

// progressBar creates a simple ASCII progress bar.
func progressBar(value, maxVal int) string {
	width := 20
	filled := value * width / maxVal
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}
