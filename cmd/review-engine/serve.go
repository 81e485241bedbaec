// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/review-engine/internal/analysis"
	"github.com/pdiddy/review-engine/internal/server"
	"github.com/pdiddy/review-engine/pkg/types"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the financial-analysis API over HTTP",
	Long: `Serve exposes POST /analyze (JSON body with data and format fields) and
POST /analyze-file (multipart upload). Analyses run through the completion
provider in JSON response mode.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		verbose, _ := cmd.Flags().GetBool("verbose")

		client, err := newCompletionClient()
		if err != nil {
			return err
		}

		cfg := types.ServerConfig{
			Addr:    addr,
			Verbose: verbose || viper.GetBool("server.verbose"),
		}
		if cfg.Addr == "" {
			cfg.Addr = viperStringDefault("server.addr", ":8080")
		}

		analyzer := analysis.NewAnalyzer(client, client.Model())
		return server.New(analyzer, cfg, os.Stderr).ListenAndServe()
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	serveCmd.Flags().Bool("verbose", false, "include internal error detail in responses")

	rootCmd.AddCommand(serveCmd)
}
