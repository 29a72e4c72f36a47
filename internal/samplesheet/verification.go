package samplesheet

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/okian/contestboard/internal/domain/model"
	"github.com/okian/contestboard/internal/domain/normalize"
	"github.com/okian/contestboard/internal/domain/ranking"
	"github.com/okian/contestboard/internal/domain/scoring"
	"github.com/okian/contestboard/internal/domain/types"
	"github.com/okian/contestboard/pkg/logger"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
)

// Verify compares the service's leaderboards and personal reports with
// rankings computed locally from employees.
func Verify(ctx context.Context, cfg *Config, employees []model.Employee, stats *Stats) error {
	client := newHTTPClient(cfg.Timeout)
	scorer := scoring.NewSeatScorer(scoring.WithSeatStep(cfg.SeatStep))
	ranker := ranking.New(scorer)
	log := logger.Named("samplesheet")

	expected := make(map[model.ContestType][]ranking.Standing, len(cfg.Contests))
	total := 0
	for _, contest := range cfg.Contests {
		expected[contest] = ranker.Rank(employees, contest, cfg.TopN)
		total += len(expected[contest])
	}
	bar := newProgressBar(cfg, total)
	defer func() { _ = bar.Finish() }()

	var (
		compared atomic.Int64
		checked  atomic.Int64
		mismatch atomic.Int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Workers, 1))
	for _, contest := range cfg.Contests {
		want := expected[contest]
		stats.FullAchievers[contest] = countFullAchievers(want)

		g.Go(func() error {
			var got []types.Entry
			u := cfg.BaseURL + "/leaderboard?contest=" + contest.String() + "&limit=" + strconv.Itoa(cfg.TopN)
			if err := client.getJSON(gctx, u, &got); err != nil {
				return err
			}
			compared.Add(int64(len(got)))
			if err := compareLeaderboard(contest, want, got); err != nil {
				return err
			}
			log.Info(gctx, "leaderboard verified",
				logger.String("contest", contest.String()),
				logger.Int("entries", len(got)))
			return nil
		})

		for _, st := range want {
			g.Go(func() error {
				ok, err := checkReport(gctx, client, cfg.BaseURL, st, contest)
				if err != nil {
					return err
				}
				checked.Add(1)
				_ = bar.Add(1)
				if !ok {
					mismatch.Add(1)
					if cfg.Verbose {
						log.Warn(gctx, "personal report disagrees with leaderboard",
							logger.String("staff", st.Employee.StaffName),
							logger.String("contest", contest.String()))
					}
				}
				return nil
			})
		}
	}
	err := g.Wait()

	stats.EntriesCompared = int(compared.Load())
	stats.ReportsChecked = int(checked.Load())
	stats.ReportsMismatched = int(mismatch.Load())
	if err != nil {
		return err
	}
	if stats.ReportsMismatched > 0 {
		return fmt.Errorf("%w: %d personal reports disagree", ErrMismatch, stats.ReportsMismatched)
	}
	return nil
}

func newProgressBar(cfg *Config, total int) *progressbar.ProgressBar {
	if cfg.Progress == nil {
		return progressbar.DefaultSilent(int64(total))
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(cfg.Progress),
		progressbar.OptionSetDescription("verifying reports"),
		progressbar.OptionClearOnFinish(),
	)
}

// compareLeaderboard checks order, rank and percentage of every entry. An
// order mismatch carries a unified diff of the two orderings.
func compareLeaderboard(contest model.ContestType, want []ranking.Standing, got []types.Entry) error {
	wantLines := make([]string, len(want))
	for i, st := range want {
		wantLines[i] = standingLine(st.Rank, st.Employee.StaffName)
	}
	gotLines := make([]string, len(got))
	for i, e := range got {
		gotLines[i] = standingLine(e.Rank, e.StaffName)
	}
	if strings.Join(wantLines, "") != strings.Join(gotLines, "") {
		diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        wantLines,
			B:        gotLines,
			FromFile: "expected/" + contest.String(),
			ToFile:   "service/" + contest.String(),
			Context:  2,
		})
		if err != nil {
			return fmt.Errorf("%w: %s order differs", ErrMismatch, contest)
		}
		return fmt.Errorf("%w: %s order differs:\n%s", ErrMismatch, contest, diff)
	}
	for i, st := range want {
		g := got[i]
		if pct := normalize.PercentDisplay(st.Metrics.Percentage); g.Display.Percentage != pct {
			return fmt.Errorf("%w: %s %q: got %s, want %s",
				ErrMismatch, contest, g.StaffName, g.Display.Percentage, pct)
		}
	}
	return nil
}

// checkReport fetches the personal report of st and compares its seats.
func checkReport(ctx context.Context, client *HTTPClient, baseURL string, st ranking.Standing, contest model.ContestType) (bool, error) {
	var report types.Report
	u := baseURL + "/employees/" + url.PathEscape(st.Employee.StaffName) +
		"?company=" + url.QueryEscape(st.Employee.CompanyName)
	if err := client.getJSON(ctx, u, &report); err != nil {
		return false, err
	}
	for _, c := range report.Contests {
		if c.Contest == contest {
			return c.Metrics.Seats == st.Metrics.Seats && c.Metrics.IsFullAchiever == st.Metrics.IsFullAchiever, nil
		}
	}
	return false, nil
}

func standingLine(rank int, name string) string {
	return strconv.Itoa(rank) + " " + name + "\n"
}

func countFullAchievers(standings []ranking.Standing) int {
	n := 0
	for _, st := range standings {
		if st.Metrics.IsFullAchiever {
			n++
		}
	}
	return n
}
