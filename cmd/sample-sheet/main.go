package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/contestboard/internal/domain/model"
	"github.com/okian/contestboard/internal/domain/scoring"
	"github.com/okian/contestboard/internal/domain/sheet"
	"github.com/okian/contestboard/internal/samplesheet"
)

// Default configuration constants.
const (
	defaultRows    = 200
	defaultTopN    = 25
	defaultWorkers = 2 // multiplier for runtime.NumCPU()
	defaultTimeout = 30 * time.Second
)

func main() {
	var (
		rows       = flag.Int("rows", defaultRows, "Number of employees to generate")
		outputFile = flag.String("output", "", "CSV destination (default: sample_sheet_TIMESTAMP.csv)")
		serveAddr  = flag.String("serve", "", "Serve the CSV on this address")
		verifyURL  = flag.String("verify", "", "Base URL of a service to verify")
		topN       = flag.Int("top", defaultTopN, "Leaderboard size to compare")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Concurrent personal-report lookups")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		logFile    = flag.String("log", "", "Log file (default: sample_sheet_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Enable debug logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		samplesheet.ShowHelp(os.Stdout)
		return
	}

	closer, err := samplesheet.SetupLogging(*logFile, *verbose)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = closer.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := &samplesheet.Config{
		Rows:       *rows,
		OutputFile: *outputFile,
		ServeAddr:  *serveAddr,
		BaseURL:    *verifyURL,
		Contests:   model.ContestTypes,
		TopN:       *topN,
		Workers:    *workers,
		Timeout:    *timeout,
		SeatStep:   scoring.DefaultSeatStep,
		Columns:    sheet.DefaultColumns(),
		Verbose:    *verbose,
	}
	if !*verbose {
		cfg.Progress = os.Stderr
	}
	if err := samplesheet.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("Run failed: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}
