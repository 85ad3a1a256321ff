// Command hnpixels protects images on the Python Discord Pixels canvas.
// It loads a job list from a YAML config, then runs the reconciliation loop
// until interrupted, repainting any protected pixel that drifts from its
// goal colour.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/HN67/hnpixels"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "hnpixels: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := pflag.String("config", "hnpixels.yaml", "Path to the daemon config file")
	tokenFlag := pflag.String("token", "", "API token; overrides HNPIXELS_TOKEN and the config token_file")
	verbose := pflag.Bool("verbose", false, "Enable debug logging")
	pflag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	token, err := resolveToken(*tokenFlag, cfg)
	if err != nil {
		return err
	}

	jobs, err := loadJobs(cfg.Jobs)
	if err != nil {
		return err
	}

	opts := []hnpixels.PainterOption{hnpixels.WithLogger(logger)}
	if cfg.API != "" {
		opts = append(opts, hnpixels.WithBaseURL(cfg.API))
	}
	if cfg.Warmup > 0 {
		opts = append(opts, hnpixels.WithWarmup(time.Duration(cfg.Warmup)))
	}
	painter, err := hnpixels.NewPainter(token, opts...)
	if err != nil {
		return err
	}

	popts := []hnpixels.ProtectorOption{hnpixels.WithProtectorLogger(logger)}
	if cfg.Wait > 0 {
		popts = append(popts, hnpixels.WithWait(time.Duration(cfg.Wait)))
	}
	protector := hnpixels.NewProtector(painter, popts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("protecting jobs", "count", len(jobs))
	err = protector.Activate(ctx, jobs)
	if errors.Is(err, context.Canceled) {
		logger.Info("interrupted, shutting down")
		return nil
	}
	return err
}

// resolveToken picks the API token from, in order: the -token flag, the
// HNPIXELS_TOKEN environment variable, the config's token_file.
func resolveToken(flagValue string, cfg *config) (string, error) {
	if token := strings.TrimSpace(flagValue); token != "" {
		return token, nil
	}
	if token := strings.TrimSpace(os.Getenv("HNPIXELS_TOKEN")); token != "" {
		return token, nil
	}
	if cfg.TokenFile != "" {
		return loadToken(cfg.TokenFile)
	}
	return "", errors.New("no API token: use -token, HNPIXELS_TOKEN, or token_file in the config")
}
