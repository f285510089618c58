package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/geomatics-io/landstat/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "landstat",
	Short: "Per-country surface-area totals from global classification rasters",
	Long: "Aggregates per-pixel classification rasters (climate, land cover, slope," +
		" workability) into geodetic km² totals per administrative region.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
