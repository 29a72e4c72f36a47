// Package samplesheet generates synthetic contest sheets and checks a running
// leaderboard service against rankings computed locally from the same rows.
package samplesheet

import (
	"io"
	"time"

	"github.com/okian/contestboard/internal/domain/model"
	"github.com/okian/contestboard/internal/domain/sheet"
)

// Config holds configuration for a sample-sheet run.
type Config struct {
	Rows       int           // Number of employees to generate
	Companies  []string      // Company names to spread employees across
	OutputFile string        // CSV destination; empty means a timestamped name
	ServeAddr  string        // Serve the CSV on this address when non-empty
	BaseURL    string        // Verify this service when non-empty
	Contests   []model.ContestType
	TopN       int           // Leaderboard size to compare
	Workers    int           // Concurrent personal-report lookups
	Timeout    time.Duration // HTTP request timeout
	SeatStep   float64       // Business surplus per additional seat
	Columns    sheet.Columns // Header names to write
	Verbose    bool
	Progress   io.Writer // Verification progress bar destination; nil hides it
}

// DefaultCompanies are used when Config.Companies is empty.
func DefaultCompanies() []string {
	return []string{
		"VANCHINAD FINANCE LTD",
		"SML FINANCE LTD",
		"SANGEETH NIDHI LTD",
		"KGLS",
	}
}

// Stats holds run statistics.
type Stats struct {
	RowsGenerated     int
	FullAchievers     map[model.ContestType]int
	EntriesCompared   int
	ReportsChecked    int
	ReportsMismatched int
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}
