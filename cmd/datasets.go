package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "List the configured dataset variants",
	RunE: func(cmd *cobra.Command, _ []string) error {
		variants, err := configuredVariants(cmd)
		if err != nil {
			return err
		}
		for _, v := range variants {
			fmt.Fprintf(cmd.OutOrStdout(), "%-24s --%s  %-5s %s\n",
				v.Name, v.FlagGroup(), v.Mode, v.Raster)
		}
		return nil
	},
}

func init() {
	datasetsCmd.Flags().String("manifest", "", "dataset manifest overriding the built-in list")
	rootCmd.AddCommand(datasetsCmd)
}
