// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the review-engine CLI.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/review-engine/internal/llm"
	"github.com/pdiddy/review-engine/internal/scholar"
	"github.com/pdiddy/review-engine/internal/secrets"
	"github.com/pdiddy/review-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback if non-empty, else the secret value for key.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	return loadedSecrets[key]
}

// rootCmd is the base command for the review-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "review-engine",
	Short: "Synthesize literature reviews and financial analyses with LLM pipelines",
	Long: `review-engine chains a paper search API and a chat-completions API into
structured outputs: literature-review reports built from topic searches, and
financial analyses built from raw CSV/JSON records.

Each pipeline operation is a subcommand: search, details, citations,
summarize, chat, gaps, devil, review, library, and serve.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./review-engine.yaml or ~/.config/review-engine/config.yaml)")
	rootCmd.PersistentFlags().String("format", "json", "output format for structured results: json or yaml")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("review-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "review-engine"))
		}
	}

	viper.SetEnvPrefix("REVIEW_ENGINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// searchConfig assembles the search provider settings from config, env,
// and secrets.
func searchConfig() types.SearchConfig {
	return types.SearchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   viper.GetDuration("search.timeout"),
			UserAgent: "review-engine/" + version,
		},
		BaseURL:             viper.GetString("search.base_url"),
		APIKey:              secretDefault("search-api-key", viper.GetString("search.api_key")),
		MaxRateLimitRetries: viper.GetInt("search.max_rate_limit_retries"),
	}
}

// completionConfig assembles the completion provider settings. The API key
// is mandatory; llm.NewClient rejects an empty one at composition time.
func completionConfig() types.CompletionConfig {
	return types.CompletionConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   viper.GetDuration("completion.timeout"),
			UserAgent: "review-engine/" + version,
		},
		BaseURL:    viper.GetString("completion.base_url"),
		APIKey:     secretDefault("completion-api-key", viper.GetString("completion.api_key")),
		Model:      viper.GetString("completion.model"),
		MaxRetries: viper.GetInt("completion.max_retries"),
	}
}

func newSearchClient() *scholar.Client {
	return scholar.NewClient(searchConfig())
}

func newCompletionClient() (*llm.Client, error) {
	return llm.NewClient(completionConfig())
}

// viperStringDefault returns the configured value for key, or fallback when
// it is unset.
func viperStringDefault(key, fallback string) string {
	if v := viper.GetString(key); v != "" {
		return v
	}
	return fallback
}

// printStructured writes v to stdout as indented JSON or YAML, per the
// persistent --format flag.
func printStructured(cmd *cobra.Command, v any) error {
	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "yaml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		_, err = os.Stdout.Write(data)
		return err
	case "json", "":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown output format %q (want json or yaml)", format)
	}
}

// commandTimeout bounds a single CLI invocation, including any rate-limit
// waits inside the search provider.
var commandTimeout = 10 * time.Minute

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
