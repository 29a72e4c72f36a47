// Package types contains the read shapes shared by the service and the HTTP API.
package types

import (
	"time"

	"github.com/okian/contestboard/internal/domain/model"
	"github.com/okian/contestboard/internal/domain/scoring"
)

// Display holds the presentation strings for one employee under one contest.
type Display struct {
	Target                   string `json:"target"`
	Achievement              string `json:"achievement"`
	Shortfall                string `json:"shortfall"`
	FreshCustomerTarget      string `json:"fresh_customer_target"`
	FreshCustomerAchievement string `json:"fresh_customer_achievement"`
	FreshCustomerShortfall   string `json:"fresh_customer_shortfall"`
	Percentage               string `json:"percentage"`
}

// Entry represents a leaderboard entry.
type Entry struct {
	Rank         int             `json:"rank"`
	StaffName    string          `json:"staff_name"`
	Company      string          `json:"company"`
	CompanyShort string          `json:"company_short"`
	Branch       string          `json:"branch"`
	Metrics      scoring.Metrics `json:"metrics"`
	Display      Display         `json:"display"`
}

// ContestReport is one contest section of a personal report.
type ContestReport struct {
	Contest  model.ContestType `json:"contest"`
	Targeted bool              `json:"targeted"`
	Metrics  scoring.Metrics   `json:"metrics"`
	Display  Display           `json:"display"`
}

// Report is the personal view of one employee.
type Report struct {
	StaffName    string `json:"staff_name"`
	Company      string `json:"company"`
	CompanyShort string `json:"company_short"`
	Branch       string `json:"branch"`
	Outstanding  string `json:"outstanding"`

	// OverallRank is the position in the overall view, 0 when not ranked there.
	OverallRank int `json:"overall_rank"`
	// CompanyRank is the position by business achievement among colleagues
	// of the same company that carry a domestic target, 0 when not targeted.
	CompanyRank int `json:"company_rank"`
	// CompanyContestRank is the position by contest total among everyone in
	// the same company.
	CompanyContestRank int `json:"company_contest_rank"`

	// PreferDomestic is set when the domestic seat was won and the
	// international one was not; Contests is then ordered domestic first.
	PreferDomestic bool            `json:"prefer_domestic"`
	Contests       []ContestReport `json:"contests"`
}

// Company is a distinct company name with its short form.
type Company struct {
	Name  string `json:"name"`
	Short string `json:"short"`
}

// Filter narrows the overall view.
type Filter struct {
	// Company matches the company name exactly when non-empty.
	Company string
	// Search matches a case-insensitive substring of the staff name.
	Search string
}

// Snapshot describes the source document currently served.
type Snapshot struct {
	ID             string    `json:"id"`
	URL            string    `json:"url"`
	FetchedAt      time.Time `json:"fetched_at"`
	Records        int       `json:"records"`
	MissingColumns []string  `json:"missing_columns,omitempty"`
}
