package main

import (
	"context"
	"unicode/utf8"

	"github.com/forest6511/pwctl/pkg/record"
	"github.com/forest6511/pwctl/pkg/security"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var updateCmd = &cobra.Command{
	Use:   "update <application>",
	Short: "Add or replace the password for an application",
	Long: `Add or replace the password for an application.

Enter nothing at the first prompt to have a password generated. The
record file keeps its alphabetical order and a backup of the previous
version is held in the archive until the new one is written.`,
	Args: usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUpdate(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
}

// runUpdate adds or replaces the password for name.
func runUpdate(cmd *cobra.Command, name string) error {
	// Reject a bad name before asking for the archive password.
	if err := record.ValidateName(name); err != nil {
		return err
	}

	s, err := openStore(cmd)
	if err != nil {
		return err
	}

	supply := func(_ context.Context, change record.Change) (string, error) {
		if change.Op == record.OpReplace {
			log().Info("replacing existing password", zap.String("name", name), zap.Int("line", change.Line+1))
		}
		return askNewSecret(prompts, name, true, bool(cfg.CheckNewPassword), log())
	}

	result, err := s.UpsertInteractive(cmd.Context(), name, supply)
	if err != nil {
		return err
	}

	p := presenter(cmd)
	if result.BackupKept {
		p.Warning("the backup of the previous records is still in %s", cfg.ArchiveName)
	}
	if !result.Generated && security.IsWeak(result.Secret) {
		p.Warning("the password for %s is weak (%d characters)", name, utf8.RuneCountInString(result.Secret))
	}

	copied := copySecret(cmd, p, result.Secret)
	switch {
	case copied && bool(cfg.AlwaysPrint):
		p.Printf("Password successfully added to archive.\nYour new password for %s is:\n", name)
		p.Secret(result.Secret)
		p.Printf("This has been copied to %s.\n", cfg.Selection)
	case bool(cfg.AlwaysPrint), !copied && result.Generated:
		p.Printf("Password successfully added to archive.\nYour new password for %s is:\n", name)
		p.Secret(result.Secret)
	case copied:
		p.Printf("Password successfully added to archive (copied to %s).\n", cfg.Selection)
	default:
		p.Println("Password successfully added to archive.")
	}
	return nil
}
