// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/library"
)

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Browse archived review reports",
	Long: `Library manages the local archive of completed review reports. Use
subcommands to list archived reports, show one in full, or search their text.`,
}

var libraryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived reports, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := library.Open(libraryConfig())
		if err != nil {
			return err
		}
		defer store.Close()

		reports, err := store.List(cmd.Context())
		if err != nil {
			return err
		}
		return printStructured(cmd, reports)
	},
}

var libraryShowCmd = &cobra.Command{
	Use:   "show <reportId>",
	Short: "Print one archived report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := library.Open(libraryConfig())
		if err != nil {
			return err
		}
		defer store.Close()

		report, err := store.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Println(report.Content)
		return nil
	},
}

var librarySearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over archived reports",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := library.Open(libraryConfig())
		if err != nil {
			return err
		}
		defer store.Close()

		reports, err := store.Search(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printStructured(cmd, reports)
	},
}

func init() {
	libraryCmd.AddCommand(libraryListCmd, libraryShowCmd, librarySearchCmd)
	rootCmd.AddCommand(libraryCmd)
}
