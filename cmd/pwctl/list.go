package main

import (
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List application names in the archive",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}

		names, err := s.Names(cmd.Context())
		if err != nil {
			return err
		}

		p := presenter(cmd)
		if len(names) == 0 {
			p.Printf("No applications found in %s.\n", cfg.ArchiveName)
			return nil
		}
		for _, name := range names {
			p.Println(name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
