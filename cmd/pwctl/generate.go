package main

import (
	"fmt"

	"github.com/forest6511/pwctl/pkg/generator"

	"github.com/spf13/cobra"
)

const (
	defaultPasswordCount = 1
	maxPasswordCount     = 100
)

// Generate command flags
var (
	generateLength int
	generateCount  int
	generateCopy   bool
)

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().IntVarP(&generateLength, "length", "l", 0,
		fmt.Sprintf("Password length (%d-%d, default generated_password_length)", generator.MinLength, generator.MaxLength))
	generateCmd.Flags().IntVarP(&generateCount, "count", "n", defaultPasswordCount, "Number of passwords to generate (1-100)")
	generateCmd.Flags().BoolVarP(&generateCopy, "copy", "c", false, "Copy first password to the selection")
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate random passwords",
	Long: `Generate random alphanumeric passwords without touching the archive.

Every password has at least one lowercase letter, one uppercase letter and
three digits.

Examples:
  # Generate a password of generated_password_length characters
  pwctl generate

  # Generate 5 passwords of 32 characters
  pwctl generate -l 32 -n 5

  # Generate and copy to the selection
  pwctl generate -c`,
	Args: usageArgs(cobra.NoArgs),
	RunE: executeGenerate,
}

func executeGenerate(cmd *cobra.Command, args []string) error {
	// Validate flags
	if err := validateGenerateFlags(); err != nil {
		return err
	}

	length := generateLength
	if length == 0 {
		length = cfg.GeneratedPasswordLength
	}

	// Generate passwords
	g := generator.New(generator.WithLogger(log()))
	passwords := make([]string, generateCount)
	for i := range passwords {
		password, err := g.Generate(length)
		if err != nil {
			return fmt.Errorf("failed to generate password: %w", err)
		}
		passwords[i] = password
	}

	// Output passwords
	p := presenter(cmd)
	for _, password := range passwords {
		p.Println(password)
	}

	// Copy to the selection if requested
	if generateCopy && copyToSelection(cmd, p, passwords[0]) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Password copied to %s\n", cfg.Selection)
	}

	return nil
}

// validateGenerateFlags validates the generate command flags. A zero length
// means the configured length.
func validateGenerateFlags() error {
	if generateLength != 0 && (generateLength < generator.MinLength || generateLength > generator.MaxLength) {
		return fmt.Errorf("%w: password length must be between %d and %d characters",
			errUsage, generator.MinLength, generator.MaxLength)
	}
	if generateCount < 1 {
		return fmt.Errorf("%w: count must be at least 1", errUsage)
	}
	if generateCount > maxPasswordCount {
		return fmt.Errorf("%w: count must be at most %d", errUsage, maxPasswordCount)
	}
	return nil
}
