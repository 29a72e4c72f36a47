// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownContest is returned when a contest name cannot be parsed.
var ErrUnknownContest = errors.New("unknown contest type")

// ContestType selects which target columns apply to an employee.
type ContestType string

// Supported contest types.
const (
	Domestic      ContestType = "domestic"
	International ContestType = "international"
)

// ContestTypes lists every contest type in display order.
var ContestTypes = []ContestType{International, Domestic}

// ParseContestType accepts "domestic" or "international" (case-insensitive).
// "foreign" is accepted as an alias of international.
func ParseContestType(s string) (ContestType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(Domestic):
		return Domestic, nil
	case string(International), "foreign":
		return International, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownContest, s)
	}
}

// String implements fmt.Stringer.
func (c ContestType) String() string { return string(c) }

// Employee is one spreadsheet row bound to the known contest columns.
// Every field holds the raw (trimmed) cell text; numeric interpretation is
// left to the normalizer so display code can still see the original value.
type Employee struct {
	StaffName   string
	CompanyName string
	Branch      string
	Outstanding string

	DomesticBusinessTarget      string
	InternationalBusinessTarget string
	DomesticFreshTarget         string
	InternationalFreshTarget    string

	// Achievement columns are shared by both contests.
	BusinessAchievement      string
	FreshCustomerAchievement string
}

// BusinessTarget returns the raw business target cell for contest.
func (e Employee) BusinessTarget(contest ContestType) string {
	if contest == Domestic {
		return e.DomesticBusinessTarget
	}
	return e.InternationalBusinessTarget
}

// FreshCustomerTarget returns the raw fresh-customer target cell for contest.
func (e Employee) FreshCustomerTarget(contest ContestType) string {
	if contest == Domestic {
		return e.DomesticFreshTarget
	}
	return e.InternationalFreshTarget
}
