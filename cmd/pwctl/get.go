package main

import (
	"github.com/forest6511/pwctl/internal/cli"
	"github.com/forest6511/pwctl/pkg/store"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <application>",
	Short: "Retrieve the password for an application",
	Long: `Retrieve the password stored for an application.

The first password found is copied to the configured selection. Use this
form when the application name collides with a pwctl command:

  pwctl get list`,
	Args: usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGet(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}

// presenter returns the presenter for command output.
func presenter(cmd *cobra.Command) *cli.Presenter {
	return cli.NewPresenter(cmd.OutOrStdout(), cli.HiddenColour(cfg.HiddenColourVisibility, log()))
}

// copySecret copies secret to the selection when copy_to_selection is on and
// reports whether it was copied.
func copySecret(cmd *cobra.Command, p *cli.Presenter, secret string) bool {
	if !cfg.CopyToSelection {
		return false
	}
	return copyToSelection(cmd, p, secret)
}

// copyToSelection copies secret to the configured selection. A failed copy is
// a warning, not an error.
func copyToSelection(cmd *cobra.Command, p *cli.Presenter, secret string) bool {
	sink, err := newSink(cfg.Selection, log())
	if err == nil {
		err = sink.Copy(cmd.Context(), secret)
	}
	if err != nil {
		p.Warning("could not copy to %s: %v", cfg.Selection, err)
		return false
	}
	return true
}

// runGet looks up name and presents the secrets found.
func runGet(cmd *cobra.Command, name string) error {
	s, err := openStore(cmd)
	if err != nil {
		return err
	}

	secrets, err := s.Lookup(cmd.Context(), name)
	if err != nil {
		return err
	}

	p := presenter(cmd)
	if len(secrets) == 0 {
		p.Printf("No passwords found for %s.\n", name)
		return offerNames(cmd, p, s, name)
	}

	copied := copySecret(cmd, p, secrets[0])

	if len(secrets) == 1 {
		if copied {
			p.Printf("1 password found for %s and copied to %s.\n", name, cfg.Selection)
		} else {
			p.Printf("1 password found for %s.\n", name)
		}
		if bool(cfg.AlwaysPrint) || !copied {
			p.Secret(secrets[0])
		}
		return nil
	}

	if copied {
		p.Printf("%d passwords found for %s (first one copied to %s).\n", len(secrets), name, cfg.Selection)
	} else {
		p.Printf("%d passwords found for %s.\n", len(secrets), name)
	}

	show := bool(cfg.AlwaysPrint)
	if !show {
		show, err = prompts.confirmed("Hit Enter to display all passwords or enter anything to quit.")
		if err != nil {
			return err
		}
	}
	if show {
		p.Printf("Passwords found for %s:\n", name)
		for _, secret := range secrets {
			p.Secret(secret)
		}
	}
	return nil
}

// offerNames suggests close names for a failed lookup, then offers the full
// list of application names.
func offerNames(cmd *cobra.Command, p *cli.Presenter, s *store.Store, name string) error {
	names, err := s.Names(cmd.Context())
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return nil
	}

	if name != "" {
		if suggestions := cli.Suggest(name, names, cli.DefaultSuggestions); len(suggestions) > 0 {
			p.Println("Did you mean:")
			p.List(suggestions)
		}
	}

	show := bool(cfg.AlwaysPrint)
	if !show {
		show, err = prompts.confirmed("Hit Enter to display all application names for which passwords were found or enter anything to quit.")
		if err != nil {
			return err
		}
	}
	if show {
		p.Printf("Applications with passwords in %s:\n", cfg.ArchiveName)
		for _, n := range names {
			p.Println(n)
		}
	}
	return nil
}
