// Package service provides the contest service that implements the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/contestboard/internal/adapters/source"
	"github.com/okian/contestboard/internal/domain/model"
	"github.com/okian/contestboard/internal/domain/normalize"
	"github.com/okian/contestboard/internal/domain/ranking"
	"github.com/okian/contestboard/internal/domain/scoring"
	"github.com/okian/contestboard/internal/domain/sheet"
	"github.com/okian/contestboard/pkg/logger"
	"github.com/okian/contestboard/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultLeaderboardLimit = 25
	defaultReportLimit      = 30
	defaultSuggestLimit     = 10
)

// DocumentSource yields parsed source documents. *source.Cache implements it.
type DocumentSource interface {
	GetOrFetch(ctx context.Context, url string) (source.Document, error)
	Invalidate(url string)
	Peek(url string) (source.Document, bool)
}

// Service answers contest queries from the current source document.
type Service struct {
	mu sync.RWMutex

	// Core components
	source       DocumentSource
	scorer       scoring.Scorer
	ranker       *ranking.Ranker
	reportRanker *ranking.Ranker

	// Configuration
	sourceURL        string
	columns          sheet.Columns
	strictColumns    bool
	seatStep         float64
	leaderboardLimit int
	reportLimit      int
	suggestLimit     int
	companyAliases   map[string]string

	// State
	started bool
	bound   boundDocument

	logger logger.Logger
}

// boundDocument memoizes schema binding for one snapshot.
type boundDocument struct {
	id        string
	employees []model.Employee
	missing   []string
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSource sets the document source; by default an HTTP-backed cache is used.
func WithSource(src DocumentSource) Option {
	return func(s *Service) {
		if src != nil {
			s.source = src
		}
	}
}

// WithSourceURL sets the URL of the published contest sheet.
func WithSourceURL(url string) Option {
	return func(s *Service) {
		s.sourceURL = url
	}
}

// WithColumns sets the header names of the known columns.
func WithColumns(cols sheet.Columns) Option {
	return func(s *Service) {
		s.columns = cols
	}
}

// WithStrictColumns makes a missing known column fail every query.
func WithStrictColumns(strict bool) Option {
	return func(s *Service) {
		s.strictColumns = strict
	}
}

// WithSeatStep sets the business surplus per additional seat.
func WithSeatStep(step float64) Option {
	return func(s *Service) {
		if step > 0 {
			s.seatStep = step
		}
	}
}

// WithLeaderboardLimit sets the default leaderboard size.
func WithLeaderboardLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.leaderboardLimit = n
		}
	}
}

// WithReportLimit sets the report view size.
func WithReportLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.reportLimit = n
		}
	}
}

// WithSuggestLimit sets the default number of name suggestions.
func WithSuggestLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.suggestLimit = n
		}
	}
}

// WithCompanyAliases sets the company short-name table.
func WithCompanyAliases(aliases map[string]string) Option {
	return func(s *Service) {
		if aliases != nil {
			s.companyAliases = aliases
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		columns:          sheet.DefaultColumns(),
		strictColumns:    true,
		seatStep:         scoring.DefaultSeatStep,
		leaderboardLimit: defaultLeaderboardLimit,
		reportLimit:      defaultReportLimit,
		suggestLimit:     defaultSuggestLimit,
		companyAliases:   normalize.DefaultCompanyAliases(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Named("service")
	}
	if s.source == nil {
		s.source = source.NewCache(source.NewHTTPFetcher())
	}
	s.scorer = scoring.NewSeatScorer(scoring.WithSeatStep(s.seatStep))
	s.ranker = ranking.New(s.scorer)
	s.reportRanker = ranking.New(s.scorer, ranking.WithExcludeZeroProgress(true))
	return s
}

// Start marks the service ready and warms the document cache. A failed warm-up
// is logged, not returned: the next query retries the fetch.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.mu.Unlock()

	s.logger.Info(ctx, "starting contest service",
		logger.String("sourceURL", s.sourceURL),
		logger.Bool("strictColumns", s.strictColumns),
		logger.Float64("seatStep", s.seatStep),
	)
	if s.sourceURL == "" {
		s.logger.Warn(ctx, "no source url configured; queries will fail until one is set")
		return nil
	}
	if _, err := s.load(ctx); err != nil {
		s.logger.Warn(ctx, "initial source load failed", logger.Error(err))
	}
	return nil
}

// Stop marks the service stopped.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "contest service stopped")
}

// load returns the employees of the current document, fetching it if needed.
func (s *Service) load(ctx context.Context) ([]model.Employee, error) {
	if s.sourceURL == "" {
		return nil, ErrNotConfigured
	}
	doc, err := s.source.GetOrFetch(ctx, s.sourceURL)
	if err != nil {
		metrics.RecordErrorByComponent("source", "fetch")
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	s.mu.RLock()
	bound := s.bound
	s.mu.RUnlock()
	if bound.id == doc.ID {
		return bound.employees, nil
	}

	if len(doc.Table.Headers) == 0 {
		s.logger.Warn(ctx, "source document is empty", logger.String("snapshot", doc.ID))
		metrics.UpdateSchemaMissingColumns(0)
		return s.memoize(boundDocument{id: doc.ID, employees: []model.Employee{}}), nil
	}

	schema, err := sheet.Bind(doc.Table.Headers, s.columns, s.strictColumns)
	if err != nil && s.strictColumns {
		metrics.RecordErrorByComponent("schema", "missing_columns")
		return nil, fmt.Errorf("%w: %w", ErrSchema, err)
	}
	if err != nil {
		s.logger.Warn(ctx, "source is missing columns; treating them as empty",
			logger.String("snapshot", doc.ID), logger.Error(err))
	}
	metrics.UpdateSchemaMissingColumns(len(schema.Missing()))

	return s.memoize(boundDocument{
		id:        doc.ID,
		employees: schema.Employees(doc.Table.Records),
		missing:   schema.Missing(),
	}), nil
}

func (s *Service) memoize(bound boundDocument) []model.Employee {
	s.mu.Lock()
	s.bound = bound
	s.mu.Unlock()
	return bound.employees
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":          s.started,
		"sourceURL":        s.sourceURL,
		"strictColumns":    s.strictColumns,
		"seatStep":         s.seatStep,
		"leaderboardLimit": s.leaderboardLimit,
		"reportLimit":      s.reportLimit,
	}
	if doc, ok := s.source.Peek(s.sourceURL); ok {
		stats["snapshot"] = doc.ID
		stats["fetchedAt"] = doc.FetchedAt.UTC().Format(time.RFC3339)
		stats["records"] = len(doc.Table.Records)
		if s.bound.id == doc.ID {
			stats["missingColumns"] = len(s.bound.missing)
		}
	}
	return stats
}
