package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jengzang/records-hexbin/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "hexbin",
	Short: "Bin geolocated points into hexagonal cells",
	Long: `hexbin aggregates points, lines and GeoJSON into a hexagonal grid over a
Web-Mercator viewport. It runs as an HTTP server hosting engine sessions or
bins a single file from the command line.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", defaultConfigPath(), "config file path")
}

func defaultConfigPath() string {
	if p := os.Getenv("HEXBIN_CONFIG"); p != "" {
		return p
	}
	return "config.yml"
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
