// Command firemap loads the dashboard collections through the search proxy
// and writes the resulting map markers as GeoJSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/couchcryptid/firewatch/internal/config"
	"github.com/couchcryptid/firewatch/internal/dashboard"
	"github.com/couchcryptid/firewatch/internal/domain"
	"github.com/couchcryptid/firewatch/internal/observability"
)

func main() {
	query := flag.String("query", "", "fires search query; empty matches all")
	bounds := flag.String("bounds", "", "viewport as south,west,north,east")
	minConfidence := flag.Float64("min-confidence", -1, "confidence slider value (0-100)")
	out := flag.String("out", "", "output file (default stdout)")
	flag.Parse()

	if err := run(*query, *bounds, *minConfidence, *out); err != nil {
		fmt.Fprintf(os.Stderr, "firemap: %v\n", err)
		os.Exit(1)
	}
}

func run(query, boundsFlag string, minConfidence float64, outPath string) error {
	cfg, err := config.LoadDashboard()
	if err != nil {
		return err
	}

	logger := observability.NewLoggerTo(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ordering, err := dashboard.ParseOrdering(cfg.Ordering)
	if err != nil {
		return err
	}

	var viewport *domain.Bounds
	if boundsFlag != "" {
		b, err := parseBounds(boundsFlag)
		if err != nil {
			return err
		}
		viewport = &b
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := dashboard.NewProxyClient(cfg.ProxyURL, cfg.FetchTimeout, logger)
	coord := dashboard.NewCoordinator(client, dashboard.Options{
		HitsPerPage:  cfg.HitsPerPage,
		Ordering:     ordering,
		BoundsFilter: cfg.BoundsFilter,
	}, logger, metrics)

	// A failed collection renders empty; the remaining one is still written.
	if err := coord.Mount(ctx); err != nil {
		logger.Error("mount failed", "error", err)
	}
	if query != "" {
		if err := coord.SearchFires(ctx, query); err != nil {
			logger.Error("search failed", "query", query, "error", err)
		}
	}
	if minConfidence >= 0 {
		if err := coord.SetConfidenceFilter(ctx, minConfidence); err != nil {
			return err
		}
	}
	if viewport != nil {
		if err := coord.UpdateBounds(ctx, *viewport); err != nil {
			logger.Error("bounds refresh failed", "error", err)
		}
	}

	snap := coord.Snapshot()
	fires := dashboard.FireMarkers(snap.Fires.Items)
	shelters := dashboard.ShelterMarkers(snap.Shelters.Items)
	if viewport != nil {
		fires = dashboard.MarkersInBounds(fires, *viewport)
		shelters = dashboard.MarkersInBounds(shelters, *viewport)
	}
	logger.Info("map ready",
		"fires", len(fires),
		"fires_status", snap.Fires.Status,
		"shelters", len(shelters),
		"shelters_status", snap.Shelters.Status,
		"tiles", dashboard.TileURL,
	)

	var w io.Writer = os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(dashboard.ToGeoJSON(fires, shelters)); err != nil {
		return fmt.Errorf("write geojson: %w", err)
	}
	return nil
}

func parseBounds(s string) (domain.Bounds, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return domain.Bounds{}, fmt.Errorf("bounds must be south,west,north,east: %q", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return domain.Bounds{}, fmt.Errorf("bounds: %w", err)
		}
		v[i] = f
	}
	return domain.NewBounds(v[0], v[1], v[2], v[3])
}
