// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/llm"
	"github.com/pdiddy/review-engine/internal/stages"
	"github.com/pdiddy/review-engine/pkg/types"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize <abstract>",
	Short: "Summarize one abstract in three sentences",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newCompletionClient()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
		defer cancel()

		var summary string
		err = llm.Retry(ctx, client.MaxRetries(), func() error {
			var callErr error
			summary, callErr = stages.Summarize(ctx, client, args[0])
			return callErr
		})
		if err != nil {
			return err
		}
		fmt.Println(summary)
		return nil
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat <abstract> <question>",
	Short: "Answer a question about one abstract",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newCompletionClient()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
		defer cancel()

		var answer string
		err = llm.Retry(ctx, client.MaxRetries(), func() error {
			var callErr error
			answer, callErr = stages.AnswerQuestion(ctx, client, args[0], args[1])
			return callErr
		})
		if err != nil {
			return err
		}
		fmt.Println(answer)
		return nil
	},
}

var gapsCmd = &cobra.Command{
	Use:   "gaps <topic>",
	Short: "Identify open research gaps for a topic",
	Long: `Gaps searches the paper API for the topic, collects the abstracts of the
top results (blank entries kept for papers without abstracts), and asks the
completion model for three open research gaps.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newCompletionClient()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
		defer cancel()

		docs, err := newSearchClient().Search(ctx, args[0], limit)
		if err != nil {
			return err
		}
		abstracts := make([]string, 0, len(docs))
		for _, d := range docs {
			abstracts = append(abstracts, d.Abstract)
		}

		gaps, err := stages.FindGaps(ctx, client, abstracts)
		if err != nil {
			return err
		}
		fmt.Println(gaps)
		return nil
	},
}

var devilCmd = &cobra.Command{
	Use:   "devil <topic>",
	Short: "Find papers arguing against a topic",
	Long: `Devil asks the completion model for devil's-advocate keywords, searches
the paper API for each one, and prints the first document found per keyword.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newCompletionClient()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
		defer cancel()

		keywords, err := stages.OpposingKeywords(ctx, client, args[0], 3)
		if err != nil {
			return err
		}

		searcher := newSearchClient()
		var found []types.Document
		for _, kw := range keywords {
			if kw == "" {
				continue
			}
			docs, err := searcher.Search(ctx, kw, 1)
			if err != nil {
				fmt.Fprintf(os.Stderr, "warning: search for %q: %v\n", kw, err)
				continue
			}
			if len(docs) > 0 {
				found = append(found, docs[0])
			}
		}
		return printStructured(cmd, found)
	},
}

func init() {
	gapsCmd.Flags().Int("limit", 5, "number of papers to draw abstracts from")

	rootCmd.AddCommand(summarizeCmd, chatCmd, gapsCmd, devilCmd)
}
