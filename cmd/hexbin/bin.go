package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jengzang/records-hexbin/internal/config"
	"github.com/jengzang/records-hexbin/internal/database"
	"github.com/jengzang/records-hexbin/internal/hexagonal"
	"github.com/jengzang/records-hexbin/internal/models"
	"github.com/jengzang/records-hexbin/internal/repository"
	"github.com/jengzang/records-hexbin/internal/service"
	"github.com/jengzang/records-hexbin/internal/spatial"
)

var binFlags struct {
	lat, lng      float64
	zoom          int
	width, height int
	size          float64
	group         string
	cells         bool
	tracks        bool
	start, end    int64
	splitGap      int64
}

type binOutput struct {
	Viewport spatial.Viewport      `json:"viewport"`
	Totals   hexagonal.Totals      `json:"totals"`
	Groups   []hexagonal.GroupInfo `json:"groups"`
	Hexagons []hexagonal.Shape     `json:"hexagons,omitempty"`
	Links    []hexagonal.Shape     `json:"links,omitempty"`
}

var binCmd = &cobra.Command{
	Use:   "bin [file.geojson]",
	Short: "Bin a GeoJSON file, or the track database, and print the totals as JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && !binFlags.tracks {
			return fmt.Errorf("a GeoJSON file or --tracks is required")
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		engine, view, err := newEngine(cmd, cfg)
		if err != nil {
			return err
		}
		meta := hexagonal.Meta{}
		if binFlags.group != "" {
			meta["group"] = binFlags.group
		}

		if len(args) == 1 {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			if engine.AddGeoJSON(data, meta) == 0 {
				return fmt.Errorf("no points found in %s", args[0])
			}
		}
		if binFlags.tracks {
			if err := importTracks(cfg, engine); err != nil {
				return err
			}
		}

		frame := engine.Redraw()
		out := binOutput{
			Viewport: view,
			Totals:   frame.Totals,
			Groups:   engine.Groups(),
		}
		if binFlags.cells {
			out.Hexagons = frame.Hexagons
			out.Links = frame.Links
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

// newEngine builds an engine over the configured viewport with the flag overrides applied
func newEngine(cmd *cobra.Command, cfg *config.Config) (*hexagonal.Engine, spatial.Viewport, error) {
	view := cfg.Viewport
	flags := cmd.Flags()
	if flags.Changed("lat") {
		view.Center.Lat = binFlags.lat
	}
	if flags.Changed("lng") {
		view.Center.Lng = binFlags.lng
	}
	if flags.Changed("zoom") {
		view.Zoom = binFlags.zoom
	}
	if flags.Changed("width") {
		view.Width = binFlags.width
	}
	if flags.Changed("height") {
		view.Height = binFlags.height
	}
	if err := view.Validate(); err != nil {
		return nil, view, fmt.Errorf("invalid viewport: %w", err)
	}

	opts := cfg.Engine
	opts.RefreshDelay = -1
	if flags.Changed("size") {
		opts.HexagonSize = binFlags.size
	}
	engine, err := hexagonal.New(view, opts)
	if err != nil {
		return nil, view, err
	}
	return engine, view, nil
}

func importTracks(cfg *config.Config, engine *hexagonal.Engine) error {
	db, err := database.Open(database.Config{Path: cfg.Server.DBPath})
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		return err
	}

	tracks := service.NewTrackService(repository.NewTrackRepository(db))
	_, err = tracks.ImportTracks(engine, models.ImportTracksRequest{
		TrackPointFilter: models.TrackPointFilter{StartTime: binFlags.start, EndTime: binFlags.end},
		Group:            binFlags.group,
		SplitGap:         binFlags.splitGap,
	})
	return err
}

func addViewportFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Float64Var(&binFlags.lat, "lat", 0, "viewport center latitude")
	f.Float64Var(&binFlags.lng, "lng", 0, "viewport center longitude")
	f.IntVar(&binFlags.zoom, "zoom", 0, "viewport zoom")
	f.IntVar(&binFlags.width, "width", 0, "viewport width in pixels")
	f.IntVar(&binFlags.height, "height", 0, "viewport height in pixels")
	f.Float64Var(&binFlags.size, "size", 0, "fixed cell size in pixels")
	f.StringVarP(&binFlags.group, "group", "g", "", "group for the added points")
}

func init() {
	addViewportFlags(binCmd)
	f := binCmd.Flags()
	f.BoolVar(&binFlags.cells, "cells", false, "include the drawn cells and links")
	f.BoolVar(&binFlags.tracks, "tracks", false, "bin the track database at server.db_path")
	f.Int64Var(&binFlags.start, "start", 0, "first track timestamp (unix seconds)")
	f.Int64Var(&binFlags.end, "end", 0, "last track timestamp (unix seconds)")
	f.Int64Var(&binFlags.splitGap, "split-gap", 0, "seconds between fixes that start a new segment")
	rootCmd.AddCommand(binCmd)
}
