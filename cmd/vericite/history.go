// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/vericite/internal/pipeline"
	"github.com/pdiddy/vericite/internal/report"
	"github.com/pdiddy/vericite/internal/store"
	"github.com/pdiddy/vericite/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past checks or search previously checked citations",
	Long: `History reads the local vericite database. Without flags it lists the
most recent runs. --run shows the verdicts of one run, --search runs a
full-text search over every recorded citation, and --prune removes expired
lookup cache entries.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "maximum number of rows")
	historyCmd.Flags().Int64("run", 0, "show the verdicts of this run ID")
	historyCmd.Flags().StringP("search", "s", "", "full-text search over recorded citations")
	historyCmd.Flags().Bool("prune", false, "delete expired lookup cache entries")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, viper.GetViper(), loadedSecrets)
	if err != nil {
		return err
	}
	st, err := store.Open(cfg.Cache)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	w := cmd.OutOrStdout()
	limit, _ := cmd.Flags().GetInt("limit")

	if prune, _ := cmd.Flags().GetBool("prune"); prune {
		n, err := st.Prune(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "pruned %d expired lookups\n", n)
		return nil
	}

	if id, _ := cmd.Flags().GetInt64("run"); id > 0 {
		verdicts, err := st.RunVerdicts(ctx, id)
		if err != nil {
			return err
		}
		if len(verdicts) == 0 {
			return fmt.Errorf("no verdicts recorded for run %d", id)
		}
		report.WriteTable(w, &pipeline.Report{
			Source:   fmt.Sprintf("run %d", id),
			Verdicts: verdicts,
			Summary:  types.Summarize(len(verdicts), verdicts),
		})
		return nil
	}

	if q, _ := cmd.Flags().GetString("search"); q != "" {
		hits, err := st.SearchVerdicts(ctx, q, limit)
		if err != nil {
			return err
		}
		report.WriteHits(w, hits)
		return nil
	}

	runs, err := st.RecentRuns(ctx, limit)
	if err != nil {
		return err
	}
	report.WriteRuns(w, runs)
	return nil
}
