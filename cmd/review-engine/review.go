// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/library"
	"github.com/pdiddy/review-engine/internal/review"
	"github.com/pdiddy/review-engine/pkg/types"
)

var reviewCmd = &cobra.Command{
	Use:   "review <topic>",
	Short: "Generate a full literature-review report for a topic",
	Long: `Review runs the synthesis pipeline end to end: topic search, per-document
summaries, gap discovery, and a devil's-advocate pass. The assembled report
prints to stdout; there is no partial output on failure.

With --save the completed report is also archived in the local library.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		topic := args[0]
		limit, _ := cmd.Flags().GetInt("limit")
		save, _ := cmd.Flags().GetBool("save")

		client, err := newCompletionClient()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
		defer cancel()

		s := review.NewSynthesizer(newSearchClient(), client, os.Stderr)
		report, err := s.Generate(ctx, topic, limit)
		if err != nil {
			return err
		}

		fmt.Println(report)

		if save {
			store, err := library.Open(libraryConfig())
			if err != nil {
				return err
			}
			defer store.Close()

			saved, err := store.Save(ctx, topic, report, limit)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Saved report %s\n", saved.ID)
		}
		return nil
	},
}

func libraryConfig() types.LibraryConfig {
	return types.LibraryConfig{
		Dir:        viperStringDefault("library.dir", "library"),
		MaxResults: 0,
	}
}

func init() {
	reviewCmd.Flags().Int("limit", 5, "number of papers to review")
	reviewCmd.Flags().Bool("save", false, "archive the completed report in the library")

	rootCmd.AddCommand(reviewCmd)
}
