package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"ctparticles/pkg/config"
	"ctparticles/pkg/export"
	"ctparticles/pkg/optimizer"
	"ctparticles/pkg/visualization"
	"ctparticles/pkg/volume"
)

func main() {
	// Parse command line arguments
	inputDir := flag.String("input", "", "Directory containing binarized CT slice masks (PNG/JPEG)")
	configPath := flag.String("config", "ctparticles.yaml", "Path to YAML configuration file")
	outputCSV := flag.String("output", "optimization_results.csv", "Output CSV filename for per-radius results")
	radiiFlag := flag.String("radii", "", "Comma-separated radius candidates (overrides config)")
	invert := flag.Bool("invert", false, "Invert mask polarity (background <-> particle)")
	extractSlices := flag.Bool("extract-slices", false, "Save colorized label slices for the best radius")
	slicesDir := flag.String("slices-dir", "label_slices", "Directory to save extracted label slices")
	flag.Parse()

	if *inputDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	level := zerolog.InfoLevel
	if !cfg.Output.Verbose {
		level = zerolog.WarnLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().
		Timestamp().
		Logger()

	params := cfg.OptimizerParams()
	if *radiiFlag != "" {
		radii, err := parseRadii(*radiiFlag)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid -radii value")
		}
		params.Radii = radii
	}
	if *extractSlices {
		params.RetainBestLabels = true
	}

	fmt.Println("================================")
	fmt.Println("CT PARTICLE SPLITTING AND EROSION-RADIUS OPTIMIZATION")
	fmt.Println("================================")

	log.Info().Str("dir", *inputDir).Msg("loading mask stack")
	vol, err := volume.LoadMaskStack(*inputDir, volume.StackOptions{Invert: *invert})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load mask stack")
	}
	log.Info().
		Int("z", vol.Dim.Z).
		Int("y", vol.Dim.Y).
		Int("x", vol.Dim.X).
		Int("foreground", vol.CountForeground()).
		Msg("volume loaded")

	// Ctrl-C aborts the sweep at the next radius boundary.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opt := optimizer.New(params)
	opt.SetLogger(log)
	opt.SetObserver(optimizer.ObserverFunc(func(ev optimizer.ProgressEvent) {
		fmt.Printf("\rOptimizing: %5.1f%% (r=%d: %d particles, ratio %.3f, contacts %.2f)        ",
			ev.PercentComplete, ev.Radius, ev.ParticleCount, ev.LargestParticleRatio, ev.MeanContacts)
	}))

	startTime := time.Now()
	summary, err := opt.Optimize(ctx, vol)
	fmt.Println()
	if err != nil {
		if ctx.Err() != nil {
			log.Warn().Msg("optimization cancelled by user; no summary produced")
			os.Exit(130)
		}
		log.Fatal().Err(err).Msg("optimization failed")
	}

	fmt.Printf("\nOptimization completed in %.2f seconds\n", time.Since(startTime).Seconds())
	fmt.Printf("Best radius: %d (method: %s, reason: %s)\n\n",
		summary.BestRadius, summary.Method, summary.Reason)

	fmt.Printf("%-7s %-10s %-9s %-10s %-9s %-9s\n",
		"radius", "particles", "largest", "contacts", "interior", "excluded")
	for _, r := range summary.Results {
		marker := " "
		if r.Radius == summary.BestRadius {
			marker = "*"
		}
		fmt.Printf("%s%-6d %-10d %-9.4f %-10.2f %-9d %-9d\n",
			marker, r.Radius, r.ParticleCount, r.LargestParticleRatio,
			r.MeanContacts, r.InteriorParticleCount, r.ExcludedParticleCount)
	}

	if err := export.WriteSummaryCSV(summary, *outputCSV); err != nil {
		log.Fatal().Err(err).Msg("failed to write results CSV")
	}
	fmt.Printf("\nPer-radius results saved to: %s\n", *outputCSV)

	if *extractSlices && summary.BestLabels != nil {
		fmt.Println("\nExtracting label slices for the best radius...")
		viewer := visualization.NewViewer(summary.BestLabels)
		for _, axis := range []string{"x", "y", "z"} {
			axisDir := filepath.Join(*slicesDir, axis)
			fmt.Printf("Saving %s-axis slices to: %s\n", axis, axisDir)
			if err := viewer.SaveSliceSequence(axis, axisDir); err != nil {
				log.Warn().Err(err).Str("axis", axis).Msg("failed to save slices")
			}
		}
		fmt.Println("Slice extraction completed!")
	}
}

// parseRadii parses a comma-separated list like "1,2,3,5,8".
func parseRadii(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	radii := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		r, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid radius %q: %w", p, err)
		}
		radii = append(radii, r)
	}
	if len(radii) == 0 {
		return nil, fmt.Errorf("no radii given")
	}
	return radii, nil
}
