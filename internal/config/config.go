// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Loading functions accept context.Context as the first parameter.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/okian/contestboard/internal/domain/normalize"
	"github.com/okian/contestboard/internal/domain/scoring"
	"github.com/okian/contestboard/internal/domain/sheet"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects "text" or "json" log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// SourceURL is the published CSV export of the contest sheet.
	SourceURL string `koanf:"source_url"`

	// FetchTimeoutMS bounds one GET of the source sheet.
	FetchTimeoutMS int `koanf:"fetch_timeout_ms"`

	// MaxSourceBytes caps the size of the source body.
	MaxSourceBytes int64 `koanf:"max_source_bytes"`

	// CacheTTLSeconds is how long a fetched sheet is served; 0 keeps it until refresh.
	CacheTTLSeconds int `koanf:"cache_ttl_seconds"`

	// LeaderboardLimit is the default size of GET /leaderboard.
	LeaderboardLimit int `koanf:"leaderboard_limit"`

	// ReportLimit is the size of the report view.
	ReportLimit int `koanf:"report_limit"`

	// MaxLeaderboardLimit caps any ?limit query parameter.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// SuggestLimit caps name suggestions.
	SuggestLimit int `koanf:"suggest_limit"`

	// SeatStep is the business surplus that earns one more seat.
	SeatStep float64 `koanf:"seat_step"`

	// StrictColumns fails requests when a known column is missing from the sheet.
	StrictColumns bool `koanf:"strict_columns"`

	// Columns maps each known field to its header text in the sheet.
	Columns sheet.Columns `koanf:"columns"`

	// MetricsEnabled turns Prometheus recording on or off.
	MetricsEnabled bool `koanf:"metrics_enabled"`
	// MetricsNamespace and MetricsSubsystem prefix every metric name.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`
	// MetricsLabels are constant labels added to every metric.
	MetricsLabels map[string]string `koanf:"metrics_labels"`

	// CompanyAliases maps full company names to their short names.
	CompanyAliases map[string]string `koanf:"company_aliases"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		FetchTimeoutMS:      15_000,
		MaxSourceBytes:      8 << 20,
		CacheTTLSeconds:     0,
		LeaderboardLimit:    25,
		ReportLimit:         30,
		MaxLeaderboardLimit: 500,
		SuggestLimit:        10,
		SeatStep:            scoring.DefaultSeatStep,
		StrictColumns:       true,
		MetricsEnabled:      true,
		MetricsNamespace:    "contest",
		MetricsSubsystem:    "leaderboard",
		Columns:             sheet.DefaultColumns(),
		CompanyAliases:      normalize.DefaultCompanyAliases(),
	}
}

// FetchTimeout returns FetchTimeoutMS as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutMS) * time.Millisecond
}

// CacheTTL returns CacheTTLSeconds as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// Validate checks the values that would otherwise fail at request time.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.FetchTimeoutMS <= 0:
		return fmt.Errorf("%w: fetch_timeout_ms must be positive", ErrInvalidConfig)
	case c.MaxSourceBytes <= 0:
		return fmt.Errorf("%w: max_source_bytes must be positive", ErrInvalidConfig)
	case c.CacheTTLSeconds < 0:
		return fmt.Errorf("%w: cache_ttl_seconds must not be negative", ErrInvalidConfig)
	case c.LeaderboardLimit <= 0 || c.ReportLimit <= 0 || c.SuggestLimit <= 0:
		return fmt.Errorf("%w: leaderboard, report and suggest limits must be positive", ErrInvalidConfig)
	case c.MaxLeaderboardLimit < c.LeaderboardLimit:
		return fmt.Errorf("%w: max_leaderboard_limit %d is below leaderboard_limit %d",
			ErrInvalidConfig, c.MaxLeaderboardLimit, c.LeaderboardLimit)
	case c.SeatStep <= 0:
		return fmt.Errorf("%w: seat_step must be positive", ErrInvalidConfig)
	case c.Columns.StaffName == "":
		return fmt.Errorf("%w: columns.staff_name must not be empty", ErrInvalidConfig)
	case !metricName.MatchString(c.MetricsNamespace):
		return fmt.Errorf("%w: metrics_namespace %q is not a valid metric name", ErrInvalidConfig, c.MetricsNamespace)
	case c.MetricsSubsystem != "" && !metricName.MatchString(c.MetricsSubsystem):
		return fmt.Errorf("%w: metrics_subsystem %q is not a valid metric name", ErrInvalidConfig, c.MetricsSubsystem)
	}
	for name := range c.MetricsLabels {
		if !metricName.MatchString(name) || strings.HasPrefix(name, "__") {
			return fmt.Errorf("%w: metrics_labels key %q is not a valid label name", ErrInvalidConfig, name)
		}
	}
	return nil
}

var metricName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
