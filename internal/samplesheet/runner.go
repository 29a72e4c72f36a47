package samplesheet

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/okian/contestboard/internal/domain/model"
	"github.com/okian/contestboard/pkg/logger"
)

// Server configuration constants.
const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Run generates a sheet, saves it, and then optionally serves it and
// verifies a running service against it. When ServeAddr is set Run blocks
// until ctx is done.
func Run(ctx context.Context, cfg *Config) error {
	stats := &Stats{
		StartTime:     time.Now(),
		FullAchievers: make(map[model.ContestType]int),
	}
	log := logger.Named("samplesheet")
	log.Info(ctx, "starting sample sheet run",
		logger.Int("rows", cfg.Rows),
		logger.String("output", cfg.OutputFile),
		logger.String("serve", cfg.ServeAddr),
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("topN", cfg.TopN),
		logger.Bool("verbose", cfg.Verbose))

	employees, err := Generate(ctx, cfg)
	if err != nil {
		return fmt.Errorf("sheet generation failed: %w", err)
	}
	stats.RowsGenerated = len(employees)

	if _, err := saveCSV(ctx, cfg, employees); err != nil {
		return fmt.Errorf("save sheet failed: %w", err)
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, cfg.Columns, employees); err != nil {
		return err
	}

	var srv *http.Server
	if cfg.ServeAddr != "" {
		ln, err := net.Listen("tcp", cfg.ServeAddr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", cfg.ServeAddr, err)
		}
		srv = &http.Server{Handler: Handler(buf.Bytes()), ReadHeaderTimeout: readHeaderTimeout}
		go func() {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error(context.Background(), "sheet server error", logger.Error(err))
			}
		}()
		log.Info(ctx, "serving sample sheet", logger.String("url", "http://"+ln.Addr().String()+"/sheet.csv"))
	}

	if cfg.BaseURL != "" {
		if err := Verify(ctx, cfg, employees, stats); err != nil {
			shutdown(srv)
			return fmt.Errorf("verification failed: %w", err)
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if srv != nil {
		<-ctx.Done()
		shutdown(srv)
	}
	return nil
}

func shutdown(srv *http.Server) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	_ = srv.Shutdown(ctx)
}

func displayFinalStats(ctx context.Context, stats *Stats) {
	fields := []logger.Field{
		logger.Int("rowsGenerated", stats.RowsGenerated),
		logger.Int("entriesCompared", stats.EntriesCompared),
		logger.Int("reportsChecked", stats.ReportsChecked),
		logger.Int("reportsMismatched", stats.ReportsMismatched),
		logger.Duration("duration", stats.Duration),
	}
	for contest, n := range stats.FullAchievers {
		fields = append(fields, logger.Int("fullAchievers."+contest.String(), n))
	}
	logger.Get().Info(ctx, "final statistics", fields...)
}
