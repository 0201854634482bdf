package main

import (
	"github.com/forest6511/pwctl/pkg/record"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <pattern>",
	Short: "List application names matching a regular expression",
	Long: `List the application names in which a regular expression matches,
ignoring case. The match may occur anywhere in the name. Passwords are
never shown.`,
	Args: usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSearch(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
}

// runSearch lists the application names matching pattern. Secrets are never
// shown.
func runSearch(cmd *cobra.Command, pattern string) error {
	// Reject a bad pattern before asking for the archive password.
	if _, err := record.CompilePattern(pattern); err != nil {
		return err
	}

	s, err := openStore(cmd)
	if err != nil {
		return err
	}

	matches, err := s.Search(cmd.Context(), pattern)
	if err != nil {
		return err
	}

	p := presenter(cmd)
	if len(matches) == 0 {
		p.Printf("Case-insensitive search with regular expression '%s' returned no matches in %s.\n", pattern, cfg.ArchiveName)
		return offerNames(cmd, p, s, "")
	}

	p.Printf("Applications in %s returning a match in a case-insensitive search with regular expression '%s':\n", cfg.ArchiveName, pattern)
	for _, name := range matches {
		p.Println(name)
	}
	return nil
}
