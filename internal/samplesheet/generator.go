package samplesheet

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"

	"github.com/google/uuid"
	"github.com/okian/contestboard/internal/domain/model"
	"github.com/okian/contestboard/internal/domain/normalize"
	"github.com/okian/contestboard/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	performerKinds     = 6
)

// Amount ranges in rupees.
const (
	minBusinessTarget   = 2_000_000
	businessTargetRange = 28_000_000
	maxFreshTarget      = 10
	outstandingRange    = 50_000_000
)

// Achievement ratio ranges per performer kind.
const (
	caseIdle        = 0
	caseLow         = 1
	caseAverage     = 2
	caseHigh        = 3
	caseSeatWinner  = 4
	caseMultiSeater = 5
)

// Target assignment: which contests an employee is enrolled in.
const (
	enrolDomestic = iota
	enrolInternational
	enrolBoth
	enrolNone
	enrolKinds
)

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

func randomInt(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// Generate creates cfg.Rows employees with unique staff names. Amount cells
// are written in en-IN grouping the way the published sheet carries them.
func Generate(ctx context.Context, cfg *Config) ([]model.Employee, error) {
	if cfg.Rows < 1 {
		return nil, fmt.Errorf("%w: rows must be positive", ErrConfig)
	}
	companies := cfg.Companies
	if len(companies) == 0 {
		companies = DefaultCompanies()
	}
	logger.Get().Info(ctx, "generating sample sheet", logger.Int("rows", cfg.Rows))

	out := make([]model.Employee, cfg.Rows)
	for i := range out {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("generation cancelled: %w", err)
		}
		out[i] = generateEmployee(i, companies)
	}
	return out, nil
}

func generateEmployee(index int, companies []string) model.Employee {
	e := model.Employee{
		StaffName:   fmt.Sprintf("STAFF %04d %s", index+1, uuid.NewString()[:8]),
		CompanyName: companies[index%len(companies)],
		Branch:      fmt.Sprintf("BRANCH %02d", randomInt(40)+1),
		Outstanding: amount(getRandomFloat() * outstandingRange),
	}

	target := minBusinessTarget + getRandomFloat()*businessTargetRange
	freshTarget := float64(randomInt(maxFreshTarget) + 1)
	switch randomInt(enrolKinds) {
	case enrolDomestic:
		e.DomesticBusinessTarget = amount(target)
		e.DomesticFreshTarget = amount(freshTarget)
	case enrolInternational:
		e.InternationalBusinessTarget = amount(target)
		e.InternationalFreshTarget = amount(freshTarget)
	case enrolBoth:
		e.DomesticBusinessTarget = amount(target)
		e.DomesticFreshTarget = amount(freshTarget)
		e.InternationalBusinessTarget = amount(target * 2)
		e.InternationalFreshTarget = amount(freshTarget * 2)
	case enrolNone:
	}

	ratio := achievementRatio()
	e.BusinessAchievement = amount(target * ratio)
	e.FreshCustomerAchievement = amount(math.Round(freshTarget * ratio))
	return e
}

// achievementRatio draws achievement / target with a skewed distribution.
func achievementRatio() float64 {
	switch randomInt(performerKinds) {
	case caseIdle:
		return 0
	case caseLow:
		return getRandomFloat() * 0.5
	case caseAverage:
		return 0.5 + getRandomFloat()*0.5
	case caseHigh:
		return 0.9 + getRandomFloat()*0.3
	case caseSeatWinner:
		return 1 + getRandomFloat()*0.5
	case caseMultiSeater:
		return 1.5 + getRandomFloat()*1.5
	default:
		return getRandomFloat()
	}
}

func amount(v float64) string {
	return normalize.Display(math.Round(v))
}
