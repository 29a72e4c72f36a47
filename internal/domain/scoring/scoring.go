// Package scoring computes an employee's contest status: achievement against
// targets, percentage, full-achiever flag and seats earned.
package scoring

import (
	"fmt"
	"math"

	"github.com/okian/contestboard/internal/domain/model"
	"github.com/okian/contestboard/internal/domain/normalize"
)

// Default scoring configuration constants.
const (
	// DefaultSeatStep is the business surplus that earns one additional seat.
	DefaultSeatStep = 7_000_000

	baseSeats = 1
)

// Remark texts.
const (
	RemarkAllAchieved        = "All targets achieved. Congratulations!"
	remarkFreshShortfallFmt  = "Seats subject to Fresh Customer target achievement (Shortfall: %s Cust.)"
	remarkBusinessShortfall  = "Business Shortfall: "
	shortfallNotApplicableTx = "N/A"
)

// Option applies a configuration option to the SeatScorer.
type Option func(*SeatScorer)

// WithSeatStep sets the surplus needed per additional seat.
func WithSeatStep(step float64) Option {
	return func(s *SeatScorer) {
		if step > 0 {
			s.seatStep = step
		}
	}
}

// Metrics are the derived facts for one employee under one contest type.
type Metrics struct {
	Contest model.ContestType `json:"contest"`

	BusinessTarget           float64 `json:"business_target"`
	BusinessAchievement      float64 `json:"business_achievement"`
	FreshCustomerTarget      float64 `json:"fresh_customer_target"`
	FreshCustomerAchievement float64 `json:"fresh_customer_achievement"`

	// Shortfalls are target minus achievement and go negative once exceeded.
	BusinessShortfall      float64 `json:"business_shortfall"`
	FreshCustomerShortfall float64 `json:"fresh_customer_shortfall"`

	// Percentage is achievement / target as a ratio (1.0 == 100%), 0 when the
	// target is 0.
	Percentage float64 `json:"percentage"`

	IsBusinessAchieved      bool `json:"is_business_achieved"`
	IsFreshCustomerAchieved bool `json:"is_fresh_customer_achieved"`
	IsFullAchiever          bool `json:"is_full_achiever"`

	Seats  int    `json:"seats"`
	Remark string `json:"remark"`
}

// Scorer computes Metrics. Implementations must be pure: the same employee
// and contest always produce the same Metrics.
type Scorer interface {
	Status(e model.Employee, contest model.ContestType) Metrics
}

// SeatScorer implements Scorer with the contest seat-allocation rule.
type SeatScorer struct {
	seatStep float64
}

// NewSeatScorer creates a scorer with configuration options.
func NewSeatScorer(opts ...Option) *SeatScorer {
	s := &SeatScorer{
		seatStep: DefaultSeatStep,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SeatStep returns the configured surplus per additional seat.
func (s *SeatScorer) SeatStep() float64 { return s.seatStep }

// Status computes the contest status of e.
func (s *SeatScorer) Status(e model.Employee, contest model.ContestType) Metrics {
	m := Metrics{
		Contest:                  contest,
		BusinessTarget:           normalize.ToNumber(e.BusinessTarget(contest)),
		BusinessAchievement:      normalize.ToNumber(e.BusinessAchievement),
		FreshCustomerTarget:      normalize.ToNumber(e.FreshCustomerTarget(contest)),
		FreshCustomerAchievement: normalize.ToNumber(e.FreshCustomerAchievement),
	}
	m.BusinessShortfall = m.BusinessTarget - m.BusinessAchievement
	m.FreshCustomerShortfall = m.FreshCustomerTarget - m.FreshCustomerAchievement

	// A zero target with positive achievement counts as achieved.
	m.IsBusinessAchieved = m.BusinessAchievement >= m.BusinessTarget
	m.IsFreshCustomerAchieved = m.FreshCustomerAchievement >= m.FreshCustomerTarget
	m.IsFullAchiever = m.IsBusinessAchieved && m.IsFreshCustomerAchieved

	if m.IsBusinessAchieved {
		m.Seats = baseSeats
		if surplus := m.BusinessAchievement - m.BusinessTarget; surplus > 0 {
			m.Seats += int(math.Floor(surplus / s.seatStep))
		}
		if m.IsFreshCustomerAchieved {
			m.Remark = RemarkAllAchieved
		} else {
			m.Remark = freshShortfallRemark(m.FreshCustomerShortfall)
		}
	} else {
		shortfall := shortfallNotApplicableTx
		if m.BusinessTarget > 0 {
			shortfall = normalize.CurrencyDisplay(m.BusinessShortfall)
		}
		m.Remark = remarkBusinessShortfall + shortfall
	}

	if m.BusinessTarget > 0 {
		m.Percentage = m.BusinessAchievement / m.BusinessTarget
	}
	return m
}

func freshShortfallRemark(shortfall float64) string {
	return fmt.Sprintf(remarkFreshShortfallFmt, normalize.FormatCount(shortfall))
}
