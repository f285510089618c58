package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/geomatics-io/landstat/internal/store"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Show stored totals for a dataset's latest run",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cfg.Store.Path == "" {
			return eris.New("results: no store configured (set store.path)")
		}
		datasetName, _ := cmd.Flags().GetString("dataset")
		if datasetName == "" {
			return eris.New("results: --dataset is required")
		}

		s, err := store.NewSQLite(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.Migrate(cmd.Context()); err != nil {
			return err
		}

		run, err := s.LatestRun(cmd.Context(), datasetName)
		if err != nil {
			return err
		}
		if run == nil {
			return eris.Errorf("results: no runs for dataset %q", datasetName)
		}

		totals, err := s.Totals(cmd.Context(), run.ID)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "run %s (%s, started %s)\n",
			run.ID, run.Status, run.StartedAt.Format("2006-01-02 15:04:05"))
		for _, t := range totals {
			if t.Km2 == 0 {
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-42s %-8s %14.2f\n", t.Region, t.Key, t.Km2)
		}
		return nil
	},
}

func init() {
	resultsCmd.Flags().String("dataset", "", "dataset variant name")
	rootCmd.AddCommand(resultsCmd)
}
