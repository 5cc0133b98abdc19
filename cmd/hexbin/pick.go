package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jengzang/records-hexbin/internal/hexagonal"
)

var pickOutput string

var pickCmd = &cobra.Command{
	Use:   "pick <file.geojson>",
	Short: "Render the pick buffer of a GeoJSON file as PNG",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		engine, _, err := newEngine(cmd, cfg)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		meta := hexagonal.Meta{}
		if binFlags.group != "" {
			meta["group"] = binFlags.group
		}
		engine.AddGeoJSON(data, meta)
		engine.Redraw()

		f, err := os.Create(pickOutput)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", pickOutput, err)
		}
		defer f.Close()
		if err := engine.PickBuffer().EncodePNG(f); err != nil {
			return fmt.Errorf("failed to write %s: %w", pickOutput, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", pickOutput)
		return nil
	},
}

func init() {
	addViewportFlags(pickCmd)
	pickCmd.Flags().StringVarP(&pickOutput, "output", "o", "pick.png", "output file")
	rootCmd.AddCommand(pickCmd)
}
