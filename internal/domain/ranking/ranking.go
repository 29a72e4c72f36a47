// Package ranking orders employees for the contest leaderboards.
package ranking

import (
	"cmp"
	"slices"

	"github.com/okian/contestboard/internal/domain/model"
	"github.com/okian/contestboard/internal/domain/normalize"
	"github.com/okian/contestboard/internal/domain/scoring"
)

// Standing is one ranked row: the employee, its metrics and its 1-based
// position in the list it was returned in.
type Standing struct {
	Rank     int
	Employee model.Employee
	Metrics  scoring.Metrics
}

// Option applies a configuration option to the Ranker.
type Option func(*Ranker)

// WithExcludeZeroProgress drops eligible employees whose percentage is 0.
func WithExcludeZeroProgress(exclude bool) Option {
	return func(r *Ranker) {
		r.excludeZeroProgress = exclude
	}
}

// Ranker ranks employees per contest type. It holds no state between calls.
type Ranker struct {
	scorer              scoring.Scorer
	excludeZeroProgress bool
}

// New creates a Ranker that computes metrics with scorer.
func New(scorer scoring.Scorer, opts ...Option) *Ranker {
	r := &Ranker{scorer: scorer}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Eligible reports whether e has a positive business target for contest.
func Eligible(e model.Employee, contest model.ContestType) bool {
	return normalize.ToNumber(e.BusinessTarget(contest)) > 0
}

// Rank returns full achievers first, then everyone else, each group ordered
// by percentage descending with input order kept on ties. Employees without a
// positive business target are left out. limit <= 0 means no cap.
func (r *Ranker) Rank(employees []model.Employee, contest model.ContestType, limit int) []Standing {
	var full, others []Standing
	for _, e := range employees {
		if !Eligible(e, contest) {
			continue
		}
		m := r.scorer.Status(e, contest)
		if r.excludeZeroProgress && m.Percentage <= 0 {
			continue
		}
		s := Standing{Employee: e, Metrics: m}
		if m.IsFullAchiever {
			full = append(full, s)
		} else {
			others = append(others, s)
		}
	}

	byPercentage := func(a, b Standing) int {
		return cmp.Compare(b.Metrics.Percentage, a.Metrics.Percentage)
	}
	slices.SortStableFunc(full, byPercentage)
	slices.SortStableFunc(others, byPercentage)

	out := make([]Standing, 0, len(full)+len(others))
	out = append(out, full...)
	out = append(out, others...)
	out = truncate(out, limit)
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// RankSimple orders items by percentageOf descending, keeping input order on
// ties, with no partitioning. The input slice is not modified. limit <= 0
// means no cap.
func RankSimple[T any](items []T, percentageOf func(T) float64, limit int) []T {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b T) int {
		return cmp.Compare(percentageOf(b), percentageOf(a))
	})
	return truncate(out, limit)
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
