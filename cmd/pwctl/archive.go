package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/forest6511/pwctl/pkg/store"
	"github.com/forest6511/pwctl/pkg/vault"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Archive command flags
var (
	newArchiveDefault bool
)

var newArchiveCmd = &cobra.Command{
	Use:   "new-archive <name>",
	Short: "Create a new archive with an empty record file",
	Long: `Create a new encrypted archive in the pvault directory.

The archive becomes the default when no default is set yet, or when
--default is given.`,
	Args: usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if err := validateArchiveName(name); err != nil {
			return err
		}

		path := cfg.ContainerPath(name)
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("archive %s already exists", path)
		}

		passphrase, err := prompts.newPassphrase(name)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(cfg.VaultDir(), vault.DirMode); err != nil {
			return fmt.Errorf("failed to create %s: %w", cfg.VaultDir(), err)
		}

		s := store.New(newBackend(cfg, log()), store.Target{Container: path, Passphrase: []byte(passphrase)},
			store.WithLogger(log()))
		if err := s.Init(cmd.Context()); err != nil {
			return err
		}

		p := presenter(cmd)
		p.Printf("Archive %s created.\n", name)

		if cfg.ArchiveName == "" || newArchiveDefault {
			cfg.ArchiveName = name
			if err := cfg.Save(); err != nil {
				return err
			}
			p.Printf("%s is now the default archive.\n", name)
		}
		return nil
	},
}

var setArchiveCmd = &cobra.Command{
	Use:   "set-archive <name>",
	Short: "Set the default archive",
	Args:  usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if err := validateArchiveName(name); err != nil {
			return err
		}

		cfg.ArchiveName = name
		if err := cfg.Save(); err != nil {
			return err
		}

		p := presenter(cmd)
		if _, err := os.Stat(cfg.ContainerPath(name)); errors.Is(err, os.ErrNotExist) {
			log().Warn("default archive does not exist yet", zap.String("path", cfg.ContainerPath(name)))
			p.Warning("%s does not exist, create it with 'pwctl new-archive %s'", cfg.ContainerPath(name), name)
		}
		p.Printf("%s is now the default archive.\n", name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(newArchiveCmd)
	rootCmd.AddCommand(setArchiveCmd)

	newArchiveCmd.Flags().BoolVarP(&newArchiveDefault, "default", "d", false, "Make the new archive the default")
}

// validateArchiveName rejects names that are not plain file names.
func validateArchiveName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: archive name %q must be a plain file name", errUsage, name)
	}
	return nil
}
