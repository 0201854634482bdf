package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/forest6511/pwctl/internal/config"
	"github.com/forest6511/pwctl/internal/logger"
	"github.com/forest6511/pwctl/pkg/clipboard"
	"github.com/forest6511/pwctl/pkg/container"
	"github.com/forest6511/pwctl/pkg/store"
	"github.com/forest6511/pwctl/pkg/vault"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	homeFlag   string
	searchFlag string
	updateFlag string

	cfg     *config.Config
	logs    *logger.Logger
	prompts *prompter
)

// Errors
var (
	errQuit  = errors.New("quit")
	errUsage = errors.New("usage")
)

// newBackend builds the container backend named in the settings.
// Tests replace it with an in-memory backend.
var newBackend = func(cfg *config.Config, log *zap.Logger) container.Backend {
	var b container.Backend
	switch cfg.Backend {
	case config.BackendVault:
		b = vault.New(vault.WithLogger(log))
	default:
		b = container.NewSevenZip(cfg.SevenZip, log)
	}
	return container.WithTimeout(b, cfg.Timeout)
}

// newSink builds the sink for an X selection. Tests replace it.
var newSink = func(selection string, log *zap.Logger) (clipboard.Sink, error) {
	return clipboard.New(selection, log)
}

var rootCmd = &cobra.Command{
	Use:   "pwctl [application]",
	Short: "pwctl keeps application passwords in an encrypted archive",
	Long: `pwctl stores one password per application in a sorted record file
kept inside an encrypted archive (7-Zip by default).

  pwctl github            copy the password for github to the selection
  pwctl -s 'git.*'        list applications matching a regular expression
  pwctl -u github         add or replace the password for github`,
	Args:          cobra.MatchAll(exclusiveModes, usageArgs(cobra.MaximumNArgs(1))),
	SilenceErrors: true,
	SilenceUsage:  true,
	// PersistentPreRunE runs before the root command and all subcommands.
	// It loads the settings and initializes logging.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		home, err := config.ResolveHome(homeFlag)
		if err != nil {
			return err
		}

		logs = logger.NewWithWriter(cmd.ErrOrStderr())
		cfg, err = config.Load(home)
		if err != nil {
			return err
		}
		// An invalid level has already been reported by Init.
		_ = logs.Init(cfg.LoggingLevel)
		cfg.Selection = clipboard.ValidSelection(cfg.Selection, logs.Log)

		prompts = newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		switch {
		case searchFlag != "":
			return runSearch(cmd, searchFlag)
		case updateFlag != "":
			return runUpdate(cmd, updateFlag)
		case len(args) == 1:
			return runGet(cmd, args[0])
		default:
			return cmd.Help()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&homeFlag, "home", "", "pwctl home directory (default $PWCTL_HOME or ~/.pwctl)")
	rootCmd.Flags().StringVarP(&searchFlag, "search", "s", "", "List applications matching a regular expression")
	rootCmd.Flags().StringVarP(&updateFlag, "update", "u", "", "Add or replace the password for an application")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", errUsage, err)
	})
}

// exclusiveModes rejects --search combined with --update.
func exclusiveModes(cmd *cobra.Command, _ []string) error {
	if cmd.Flags().Changed("search") && cmd.Flags().Changed("update") {
		return fmt.Errorf("%w: --search and --update cannot be used together", errUsage)
	}
	return nil
}

// log returns the process logger.
func log() *zap.Logger {
	if logs == nil {
		return zap.NewNop()
	}
	return logs.Log
}

// openStore resolves the configured archive, asks for its passphrase and
// returns a store over it.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	path, err := cfg.ArchivePath()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("archive %s does not exist, create it with 'pwctl new-archive %s'", path, cfg.ArchiveName)
		}
		return nil, fmt.Errorf("failed to access archive: %w", err)
	}

	passphrase, err := prompts.secret(fmt.Sprintf("Password for %s: ", cfg.ArchiveName))
	if err != nil {
		return nil, fmt.Errorf("failed to read archive password: %w", err)
	}

	return store.New(
		newBackend(cfg, log()),
		store.Target{Container: path, Passphrase: []byte(passphrase)},
		store.WithLogger(log()),
		store.WithGeneratedLength(cfg.GeneratedPasswordLength),
	), nil
}
