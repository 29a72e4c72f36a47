package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/okian/contestboard/internal/domain/model"
	"github.com/okian/contestboard/internal/domain/normalize"
	"github.com/okian/contestboard/internal/domain/ranking"
	"github.com/okian/contestboard/internal/domain/scoring"
	"github.com/okian/contestboard/internal/domain/types"
	"github.com/okian/contestboard/pkg/logger"
	"github.com/okian/contestboard/pkg/metrics"
)

const minSuggestQueryRunes = 2

// Leaderboard returns the ranked standings of contest: full achievers first,
// then everyone else, each by percentage. limit <= 0 uses the configured default.
func (s *Service) Leaderboard(ctx context.Context, contest model.ContestType, limit int) ([]types.Entry, error) {
	if limit <= 0 {
		limit = s.leaderboardLimit
	}
	return s.rank(ctx, s.ranker, contest, limit)
}

// Report returns the report view of contest: the leaderboard without employees
// at 0%, capped at the configured report size.
func (s *Service) Report(ctx context.Context, contest model.ContestType) ([]types.Entry, error) {
	return s.rank(ctx, s.reportRanker, contest, s.reportLimit)
}

func (s *Service) rank(ctx context.Context, r *ranking.Ranker, contest model.ContestType, limit int) ([]types.Entry, error) {
	employees, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	standings := r.Rank(employees, contest, 0)
	metrics.RecordRankingLatency(contest.String(), float64(time.Since(start).Microseconds())/1000)

	full := 0
	for _, st := range standings {
		if st.Metrics.IsFullAchiever {
			full++
		}
	}
	metrics.UpdateContestStandings(contest.String(), len(standings), full)

	if len(standings) > limit {
		standings = standings[:limit]
	}
	out := make([]types.Entry, len(standings))
	for i, st := range standings {
		out[i] = s.entry(st.Rank, st.Employee, st.Metrics)
	}
	s.logger.Debug(ctx, "ranked contest",
		logger.String("contest", contest.String()),
		logger.Int("eligible", len(standings)),
		logger.Int("fullAchievers", full),
	)
	return out, nil
}

// Overall returns the podium ordering: everyone with a domestic or
// international target, by international percentage. Rank is the position in
// the unfiltered ordering, so filtering by company or name keeps each
// employee's overall rank. limit <= 0 means no cap.
func (s *Service) Overall(ctx context.Context, f types.Filter, limit int) ([]types.Entry, error) {
	employees, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	ordered := s.overallOrder(employees)
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]types.Entry, 0, len(ordered))
	for i, st := range ordered {
		if f.Company != "" && st.Employee.CompanyName != f.Company {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(st.Employee.StaffName), search) {
			continue
		}
		out = append(out, s.entry(i+1, st.Employee, st.Metrics))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Service) overallOrder(employees []model.Employee) []ranking.Standing {
	var targeted []ranking.Standing
	for _, e := range employees {
		if !ranking.Eligible(e, model.Domestic) && !ranking.Eligible(e, model.International) {
			continue
		}
		targeted = append(targeted, ranking.Standing{
			Employee: e,
			Metrics:  s.scorer.Status(e, model.International),
		})
	}
	return ranking.RankSimple(targeted, func(st ranking.Standing) float64 { return st.Metrics.Percentage }, 0)
}

// Employee returns the personal report of the employee called name (case
// insensitive). company narrows the match when names repeat across companies.
func (s *Service) Employee(ctx context.Context, name, company string) (types.Report, error) {
	employees, err := s.load(ctx)
	if err != nil {
		return types.Report{}, err
	}

	name = strings.TrimSpace(name)
	idx := slices.IndexFunc(employees, func(e model.Employee) bool {
		return strings.EqualFold(e.StaffName, name) && (company == "" || e.CompanyName == company)
	})
	if name == "" || idx < 0 {
		return types.Report{}, fmt.Errorf("%w: %q", ErrEmployeeNotFound, name)
	}
	e := employees[idx]

	dom := s.contestReport(e, model.Domestic)
	intl := s.contestReport(e, model.International)
	preferDomestic := dom.Metrics.Seats > 0 && intl.Metrics.Seats == 0
	contests := []types.ContestReport{intl, dom}
	if preferDomestic {
		contests = []types.ContestReport{dom, intl}
	}

	report := types.Report{
		StaffName:          e.StaffName,
		Company:            e.CompanyName,
		CompanyShort:       normalize.ShortCompanyName(e.CompanyName, s.companyAliases),
		Branch:             e.Branch,
		Outstanding:        normalize.Display(e.Outstanding),
		PreferDomestic:     preferDomestic,
		Contests:           contests,
		CompanyContestRank: companyContestRank(employees, e),
	}
	for i, st := range s.overallOrder(employees) {
		if st.Employee == e {
			report.OverallRank = i + 1
			break
		}
	}
	if dom.Targeted {
		report.CompanyRank = companyRank(employees, e)
	}
	return report, nil
}

func (s *Service) contestReport(e model.Employee, contest model.ContestType) types.ContestReport {
	m := s.scorer.Status(e, contest)
	return types.ContestReport{
		Contest:  contest,
		Targeted: e.BusinessTarget(contest) != "" || e.FreshCustomerTarget(contest) != "",
		Metrics:  m,
		Display:  display(e, m),
	}
}

// companyRank is the 1-based position of e by business achievement among
// colleagues in the same company that carry a domestic business target.
func companyRank(employees []model.Employee, e model.Employee) int {
	var peers []model.Employee
	for _, p := range employees {
		if p.CompanyName == e.CompanyName && p.DomesticBusinessTarget != "" {
			peers = append(peers, p)
		}
	}
	peers = ranking.RankSimple(peers, func(p model.Employee) float64 {
		return normalize.ToNumber(p.BusinessAchievement)
	}, 0)
	return slices.Index(peers, e) + 1
}

// companyContestRank is the 1-based position of e by contest total among
// everyone in the same company.
func companyContestRank(employees []model.Employee, e model.Employee) int {
	var peers []model.Employee
	for _, p := range employees {
		if p.CompanyName == e.CompanyName {
			peers = append(peers, p)
		}
	}
	peers = ranking.RankSimple(peers, func(p model.Employee) float64 {
		return normalize.ToNumber(p.BusinessAchievement)
	}, 0)
	return slices.Index(peers, e) + 1
}

// Companies returns the distinct non-empty company names, sorted.
func (s *Service) Companies(ctx context.Context) ([]types.Company, error) {
	employees, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(employees))
	for _, e := range employees {
		if e.CompanyName != "" {
			names = append(names, e.CompanyName)
		}
	}
	slices.Sort(names)
	names = slices.Compact(names)

	out := make([]types.Company, len(names))
	for i, n := range names {
		out[i] = types.Company{Name: n, Short: normalize.ShortCompanyName(n, s.companyAliases)}
	}
	return out, nil
}

// Suggest returns sorted distinct staff names containing query (case
// insensitive), optionally within one company. Queries shorter than two
// characters return nothing. limit <= 0 uses the configured default.
func (s *Service) Suggest(ctx context.Context, query, company string, limit int) ([]string, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if utf8.RuneCountInString(query) < minSuggestQueryRunes {
		return []string{}, nil
	}
	if limit <= 0 {
		limit = s.suggestLimit
	}
	employees, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range employees {
		if company != "" && e.CompanyName != company {
			continue
		}
		if e.StaffName != "" && strings.Contains(strings.ToLower(e.StaffName), query) {
			names = append(names, e.StaffName)
		}
	}
	slices.Sort(names)
	names = slices.Compact(names)
	if len(names) > limit {
		names = names[:limit]
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// Refresh drops the cached document and loads a fresh one.
func (s *Service) Refresh(ctx context.Context) (types.Snapshot, error) {
	if s.sourceURL == "" {
		return types.Snapshot{}, ErrNotConfigured
	}
	s.source.Invalidate(s.sourceURL)
	if _, err := s.load(ctx); err != nil {
		return types.Snapshot{}, err
	}

	doc, _ := s.source.Peek(s.sourceURL)
	s.mu.RLock()
	missing := slices.Clone(s.bound.missing)
	s.mu.RUnlock()

	snap := types.Snapshot{
		ID:             doc.ID,
		URL:            doc.URL,
		FetchedAt:      doc.FetchedAt,
		Records:        len(doc.Table.Records),
		MissingColumns: missing,
	}
	s.logger.Info(ctx, "source refreshed",
		logger.String("snapshot", snap.ID),
		logger.Int("records", snap.Records),
	)
	return snap, nil
}

func (s *Service) entry(rank int, e model.Employee, m scoring.Metrics) types.Entry {
	return types.Entry{
		Rank:         rank,
		StaffName:    e.StaffName,
		Company:      e.CompanyName,
		CompanyShort: normalize.ShortCompanyName(e.CompanyName, s.companyAliases),
		Branch:       e.Branch,
		Metrics:      m,
		Display:      display(e, m),
	}
}

func display(e model.Employee, m scoring.Metrics) types.Display {
	return types.Display{
		Target:                   normalize.Display(e.BusinessTarget(m.Contest)),
		Achievement:              normalize.AchievementDisplay(e.BusinessAchievement),
		Shortfall:                normalize.Display(m.BusinessShortfall),
		FreshCustomerTarget:      normalize.Display(e.FreshCustomerTarget(m.Contest)),
		FreshCustomerAchievement: normalize.Display(e.FreshCustomerAchievement),
		FreshCustomerShortfall:   normalize.Display(m.FreshCustomerShortfall),
		Percentage:               normalize.PercentDisplay(m.Percentage),
	}
}
