// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the vericite CLI, which checks that
// the references cited in a PDF point to real, indexed works.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/vericite/internal/secrets"
	"github.com/pdiddy/vericite/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials resolved at startup.
var loadedSecrets secrets.Set

// logger is configured in PersistentPreRunE from --verbose.
var logger = slog.New(slog.DiscardHandler)

// rootCmd is the base command for the vericite CLI.
var rootCmd = &cobra.Command{
	Use:   "vericite",
	Short: "Check that the citations in a paper refer to real works",
	Long: `vericite finds the references section of a PDF, extracts each cited
entry (falling back to OCR for scanned pages), and looks every entry up in a
bibliographic index such as Crossref. Entries that cannot be matched are
flagged as possibly fabricated.

Run "vericite shell" for an interactive session.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelWarn
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)

		s, err := secrets.Resolve(".env", ".secrets/")
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
			logger.Debug("loaded secrets", "keys", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./vericite.yaml or ~/.config/vericite/vericite.yaml)")
	pf.BoolP("verbose", "v", false, "log debug output to stderr")
	pf.String("backend", "", "search backend: crossref, openalex or semantic_scholar")
	pf.String("strategy", "", "extraction strategy: local or remote")
	pf.Bool("no-cache", false, "disable the lookup cache and run history")

	viper.BindPFlag("validation.backend", pf.Lookup("backend"))
	viper.BindPFlag("extraction.strategy", pf.Lookup("strategy"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("vericite")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "vericite"))
		}
	}

	setDefaults(viper.GetViper(), types.DefaultConfig())
	viper.SetEnvPrefix("VERICITE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
