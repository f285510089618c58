package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/geomatics-io/landstat/internal/aggregate"
	"github.com/geomatics-io/landstat/internal/classify"
	"github.com/geomatics-io/landstat/internal/dataset"
	"github.com/geomatics-io/landstat/internal/output"
	"github.com/geomatics-io/landstat/internal/region"
	"github.com/geomatics-io/landstat/internal/store"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Aggregate classification rasters into per-country area tables",
	Long: `Scans the selected classification datasets and writes one CSV per
dataset variant: rows are countries, columns are classification keys,
cells are accumulated surface area in km` + "²" + `.

Dataset flags combine freely; --all selects everything configured.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		groups := selectedGroups(cmd)
		if len(groups) == 0 {
			return printDatasetUsage(cmd)
		}

		variants, err := configuredVariants(cmd)
		if err != nil {
			return err
		}

		log := zap.L().With(zap.String("command", "extract"))

		features, err := region.ReadFeatures(cfg.Data.Boundaries)
		if err != nil {
			return eris.Wrap(err, "extract: load boundaries")
		}
		log.Info("loaded boundary features",
			zap.String("path", cfg.Data.Boundaries),
			zap.Int("features", len(features)),
		)

		var resultStore store.Store
		if cfg.Store.Path != "" {
			s, err := store.NewSQLite(cfg.Store.Path)
			if err != nil {
				return eris.Wrap(err, "extract: open store")
			}
			defer s.Close()
			if err := s.Migrate(ctx); err != nil {
				return eris.Wrap(err, "extract: migrate store")
			}
			resultStore = s
		}

		if err := os.MkdirAll(cfg.Extract.ResultsDir, 0o755); err != nil {
			return eris.Wrap(err, "extract: create results dir")
		}

		names := region.NewNameTable()
		for _, v := range variants {
			if !groups[v.FlagGroup()] {
				continue
			}
			if err := runVariant(ctx, v, features, names, resultStore, log); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	extractCmd.Flags().Bool("lc", false, "process land cover")
	extractCmd.Flags().Bool("kg", false, "process Köppen-Geiger climate classes")
	extractCmd.Flags().Bool("sl", false, "process slope")
	extractCmd.Flags().Bool("wk", false, "process workability")
	extractCmd.Flags().Bool("all", false, "process all datasets")
	extractCmd.Flags().String("manifest", "", "dataset manifest overriding the built-in list")
	rootCmd.AddCommand(extractCmd)
}

// selectedGroups returns the dataset flag groups chosen on the command
// line.
func selectedGroups(cmd *cobra.Command) map[string]bool {
	groups := make(map[string]bool)
	all, _ := cmd.Flags().GetBool("all")
	for _, name := range []string{"lc", "kg", "sl", "wk"} {
		if set, _ := cmd.Flags().GetBool(name); set || all {
			groups[name] = true
		}
	}
	return groups
}

// printDatasetUsage lists the selection flags; no flag selected is not
// an error.
func printDatasetUsage(cmd *cobra.Command) error {
	fmt.Fprintln(cmd.OutOrStdout(), "Select one or more of:")
	fmt.Fprintln(cmd.OutOrStdout(), "\t--lc  : Land Cover")
	fmt.Fprintln(cmd.OutOrStdout(), "\t--kg  : Köppen-Geiger")
	fmt.Fprintln(cmd.OutOrStdout(), "\t--sl  : Slope")
	fmt.Fprintln(cmd.OutOrStdout(), "\t--wk  : Workability")
	fmt.Fprintln(cmd.OutOrStdout(), "\t--all")
	return nil
}

// configuredVariants resolves the dataset variant list: the --manifest
// flag, then the configured manifest, then built-in defaults.
func configuredVariants(cmd *cobra.Command) ([]dataset.Variant, error) {
	manifest, _ := cmd.Flags().GetString("manifest")
	if manifest == "" {
		manifest = cfg.Data.Manifest
	}
	if manifest != "" {
		return dataset.LoadManifest(manifest)
	}
	return dataset.Defaults(cfg.Data.Dir), nil
}

// runVariant aggregates one dataset variant and writes its outputs.
func runVariant(ctx context.Context, v dataset.Variant, features []region.Feature, names region.Normalizer, resultStore store.Store, log *zap.Logger) error {
	log.Info("processing dataset",
		zap.String("dataset", v.Name),
		zap.String("raster", v.Raster),
		zap.String("mode", string(v.Mode)),
	)

	lookup, err := v.NewLookup()
	if err != nil {
		return eris.Wrapf(err, "extract: lookup for %s", v.Name)
	}

	var run *store.Run
	if resultStore != nil {
		if run, err = resultStore.CreateRun(ctx, v.Name); err != nil {
			return eris.Wrapf(err, "extract: record run for %s", v.Name)
		}
	}

	matrix, err := aggregateVariant(ctx, v, lookup, features, names)
	if err != nil {
		if resultStore != nil {
			_ = resultStore.FinishRun(ctx, run.ID, store.RunStatusFailed)
		}
		return eris.Wrapf(err, "extract: %s", v.Name)
	}

	outPath := filepath.Join(cfg.Extract.ResultsDir, v.Output)
	format := output.FormatConfig{Precision: cfg.Extract.Precision}
	if err := output.WriteCSV(outPath, matrix, format); err != nil {
		if resultStore != nil {
			_ = resultStore.FinishRun(ctx, run.ID, store.RunStatusFailed)
		}
		return err
	}
	log.Info("wrote results",
		zap.String("dataset", v.Name),
		zap.String("path", outPath),
		zap.Int("regions", len(matrix.Regions())),
	)

	if resultStore != nil {
		if err := resultStore.SaveTotals(ctx, run.ID, matrix); err != nil {
			_ = resultStore.FinishRun(ctx, run.ID, store.RunStatusFailed)
			return eris.Wrapf(err, "extract: store totals for %s", v.Name)
		}
		if err := resultStore.FinishRun(ctx, run.ID, store.RunStatusComplete); err != nil {
			return eris.Wrapf(err, "extract: finish run for %s", v.Name)
		}
	}
	return nil
}

// aggregateVariant dispatches to the variant's aggregation strategy.
func aggregateVariant(ctx context.Context, v dataset.Variant, lookup classify.Lookup, features []region.Feature, names region.Normalizer) (*aggregate.Matrix, error) {
	switch v.Mode {
	case dataset.ModeMask:
		agg := aggregate.NewMaskAggregator(v.Raster, lookup, names, aggregate.MaskOptions{
			MasksDir: cfg.Data.MasksDir,
			Fill:     v.Fill,
			Workers:  cfg.Extract.Workers,
		})
		return agg.Run(ctx, features)
	case dataset.ModeClip:
		agg := aggregate.NewClipAggregator(v.Raster, lookup, names, aggregate.ClipOptions{
			AllTouched: v.AllTouched,
			Fill:       v.Fill,
			Workers:    cfg.Extract.Workers,
		})
		return agg.Run(ctx, features)
	}
	return nil, eris.Errorf("extract: unknown mode %q", v.Mode)
}
