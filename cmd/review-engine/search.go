// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <keywords>...",
	Short: "Search the paper API for candidate documents",
	Long: `Search queries the paper API for documents matching the given keywords
and prints them in the provider's relevance order.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
		defer cancel()

		docs, err := newSearchClient().Search(ctx, strings.Join(args, " "), limit)
		if err != nil {
			return err
		}
		return printStructured(cmd, docs)
	},
}

var detailsCmd = &cobra.Command{
	Use:   "details <paperId>",
	Short: "Fetch full metadata for one paper",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
		defer cancel()

		doc, err := newSearchClient().Details(ctx, args[0])
		if err != nil {
			return err
		}
		return printStructured(cmd, doc)
	},
}

var citationsCmd = &cobra.Command{
	Use:   "citations <paperId>",
	Short: "List papers citing the given paper",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
		defer cancel()

		docs, err := newSearchClient().Citations(ctx, args[0], limit)
		if err != nil {
			return err
		}
		return printStructured(cmd, docs)
	},
}

func init() {
	searchCmd.Flags().Int("limit", 10, "maximum number of results")
	citationsCmd.Flags().Int("limit", 10, "maximum number of citing papers")

	rootCmd.AddCommand(searchCmd, detailsCmd, citationsCmd)
}
