package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dmryasin/compval/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "compval",
	Short: "Comparable-sale property valuation",
	Long:  "Extracts comparable sale evidence from listing screenshots and documents via Claude, normalizes locale-ambiguous numbers, and produces a statistical valuation reconciled with the narrative comparison.",
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
