package main

import (
	"os"
	"sort"
	"strings"

	"github.com/forest6511/pwctl/internal/config"

	"github.com/spf13/cobra"
)

// completeArchiveNames completes container file names found in the pvault
// directory. Settings are loaded here because completion runs without the
// root command's pre-run hook.
func completeArchiveNames(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) != 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	home, err := config.ResolveHome(homeFlag)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	settings, err := config.Load(home)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	return archiveNames(settings.VaultDir(), toComplete), cobra.ShellCompDirectiveNoFileComp
}

// archiveNames lists the regular files in dir whose names start with prefix.
func archiveNames(dir, prefix string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

// noCompletion disables file completion for application names.
func noCompletion(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return nil, cobra.ShellCompDirectiveNoFileComp
}

// registerCompletionFunctions registers ValidArgsFunction for commands that support
// dynamic completion.
func registerCompletionFunctions() {
	// Set-archive command - complete archive names
	setArchiveCmd.ValidArgsFunction = completeArchiveNames

	// Get command - application names need the archive password
	getCmd.ValidArgsFunction = noCompletion
	rootCmd.ValidArgsFunction = noCompletion
}
