package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/ironsheep/image-segment-mcp/internal/annotation"
	"github.com/ironsheep/image-segment-mcp/internal/config"
	"github.com/ironsheep/image-segment-mcp/internal/imaging"
	"github.com/ironsheep/image-segment-mcp/internal/job"
	"github.com/ironsheep/image-segment-mcp/internal/logging"
	"github.com/ironsheep/image-segment-mcp/internal/segment"
	"github.com/ironsheep/image-segment-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("image-segment-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp()
			return
		case "init-config":
			if len(os.Args) < 3 {
				fmt.Fprintln(os.Stderr, "usage: image-segment-mcp init-config <path>")
				os.Exit(2)
			}
			if err := config.CreateDefaultConfigFile(os.Args[2]); err != nil {
				fmt.Fprintf(os.Stderr, "init-config: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Wrote default configuration to %s\n", os.Args[2])
			return
		case "run":
			if len(os.Args) < 3 {
				fmt.Fprintln(os.Stderr, "usage: image-segment-mcp run <config.yaml>")
				os.Exit(2)
			}
			if err := runJob(os.Args[2]); err != nil {
				fmt.Fprintf(os.Stderr, "run: %v\n", err)
				os.Exit(1)
			}
			return
		}
	}

	// Logs go to stderr; stdout is for MCP protocol.
	cfg, err := config.LoadConfig(os.Getenv("IMAGE_SEGMENT_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Segmentation.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid segmentation defaults")
	}

	log.Debug().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("commit", GitCommit).
		Msg("image segment MCP server starting")

	srv := server.NewWithConfig(cfg.Segmentation, log)
	srv.SetOutputDir(cfg.Server.OutputDir)
	if err := srv.Run(); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

func printHelp() {
	fmt.Println("image-segment-mcp - MCP server and batch runner for image segmentation")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  image-segment-mcp                     Serve MCP over stdin/stdout")
	fmt.Println("  image-segment-mcp run <config.yaml>   Segment the images a config names")
	fmt.Println("  image-segment-mcp init-config <path>  Write a default configuration")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  IMAGE_SEGMENT_LOG_LEVEL=debug   Override the configured log level")
	fmt.Println("  IMAGE_SEGMENT_CONFIG=<path>     Segmentation defaults for the MCP server")
	fmt.Println()
	fmt.Println("In server mode the tools communicate via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}

func newLogger(cfg *config.Config) (zerolog.Logger, error) {
	level, err := logging.ResolveLevel(cfg.Log.Level)
	if err != nil {
		return zerolog.Nop(), err
	}
	return logging.New(os.Stderr, level, cfg.Log.Console), nil
}

func runJob(configPath string) error {
	if _, err := os.Stat(configPath); err != nil {
		return fmt.Errorf("config file: %w", err)
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	ids := cfg.Job.Images
	if len(ids) == 0 {
		ids, err = imaging.ListImages(cfg.Job.ImageDir)
		if err != nil {
			return err
		}
	}
	if len(ids) == 0 {
		log.Warn().Str("dir", cfg.Job.ImageDir).Msg("no images found")
		return nil
	}

	sink, err := annotation.OpenJSONLines(cfg.Job.Output)
	if err != nil {
		return err
	}
	defer sink.Close()

	src := &imaging.FileSource{MaxDimension: cfg.Job.PreviewMaxDimension}
	runner := &job.Runner{
		Source:    src,
		Sink:      sink,
		Params:    cfg.Segmentation,
		ProjectID: cfg.Job.ProjectID,
		TermIDs:   cfg.Job.TermIDs,
		Log:       log,
	}
	if cfg.Job.OverlayDir != "" {
		if err := os.MkdirAll(cfg.Job.OverlayDir, 0755); err != nil {
			return fmt.Errorf("failed to create overlay directory: %w", err)
		}
		src.Cache = imaging.NewImageCache()
		runner.AfterImage = overlayWriter(src.Cache, cfg.Job.OverlayDir)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sum, err := runner.Run(ctx, ids)
	if err != nil {
		return err
	}
	fmt.Printf("Processed %d images (%d failed): %d polygons saved to %s, %d discarded\n",
		sum.Images, sum.Failed, sum.Saved, cfg.Job.Output, sum.Discarded)
	if sum.Failed > 0 {
		return fmt.Errorf("%d of %d images failed", sum.Failed, sum.Images)
	}
	return nil
}

// overlayWriter saves one outlined PNG per image into dir and drops the
// decoded image from the cache afterwards.
func overlayWriter(cache *imaging.ImageCache, dir string) func(context.Context, *imaging.SourceImage, *segment.Result) error {
	return func(ctx context.Context, img *imaging.SourceImage, res *segment.Result) error {
		defer cache.Evict(img.ID)

		src, err := cache.Load(img.ID)
		if err != nil {
			return err
		}
		base := strings.TrimSuffix(filepath.Base(img.ID), filepath.Ext(img.ID))
		return imaging.SaveOverlay(filepath.Join(dir, base+"-overlay.png"), src, res.Shapes, 2)
	}
}
