package samplesheet

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/contestboard/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging initializes the logger to write to stdout and a log file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string, verbose bool) (io.Closer, error) {
	if logFile == "" {
		logFile = "sample_sheet_" + time.Now().Format("20060102_150405") + ".log"
	}
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.Init(logger.WithWriter(io.MultiWriter(os.Stdout, file))); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return file, nil
}

// ShowHelp prints usage information for the sample sheet tool.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `Contest Sample Sheet Tool
=========================

Generates a synthetic contest sheet, optionally serves it over HTTP, and
checks a running leaderboard service against rankings computed locally.

Usage:
  go run ./cmd/sample-sheet [options]

Options:
  -rows int
        Number of employees to generate (default 200)
  -output string
        CSV destination (default: sample_sheet_TIMESTAMP.csv)
  -serve string
        Serve the CSV on this address, e.g. :9091
  -verify string
        Base URL of a service to verify, e.g. http://localhost:9080
  -top int
        Leaderboard size to compare (default 25)
  -workers int
        Concurrent personal-report lookups (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -log string
        Log file (default: sample_sheet_TIMESTAMP.log)
  -verbose
        Enable debug logging
  -help
        Show this help message

Examples:
  # Write a sheet and serve it for a local service
  go run ./cmd/sample-sheet -rows 500 -serve :9091

  # Point the service at the sheet and verify it in one go
  CONTEST_SOURCE_URL=http://localhost:9091/sheet.csv go run ./cmd &
  go run ./cmd/sample-sheet -serve :9091 -verify http://localhost:9080
`)
}
