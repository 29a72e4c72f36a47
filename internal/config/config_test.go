package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/contestboard/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LeaderboardLimit, convey.ShouldEqual, 25)
			convey.So(cfg.ReportLimit, convey.ShouldEqual, 30)
			convey.So(cfg.SuggestLimit, convey.ShouldEqual, 10)
			convey.So(cfg.SeatStep, convey.ShouldEqual, 7_000_000)
			convey.So(cfg.StrictColumns, convey.ShouldBeTrue)
			convey.So(cfg.MetricsEnabled, convey.ShouldBeTrue)
			convey.So(cfg.MetricsNamespace, convey.ShouldEqual, "contest")
			convey.So(cfg.MetricsSubsystem, convey.ShouldEqual, "leaderboard")
			convey.So(cfg.Columns.StaffName, convey.ShouldEqual, "STAFF NAME")
			convey.So(cfg.CompanyAliases["SML FINANCE LTD"], convey.ShouldEqual, "SML")
			convey.So(cfg.FetchTimeout(), convey.ShouldEqual, 15*time.Second)
			convey.So(cfg.CacheTTL(), convey.ShouldEqual, time.Duration(0))
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with invalid values", t, func() {
		cases := map[string]func(*config.Config){
			"empty addr":          func(c *config.Config) { c.Addr = "" },
			"zero timeout":        func(c *config.Config) { c.FetchTimeoutMS = 0 },
			"zero body cap":       func(c *config.Config) { c.MaxSourceBytes = 0 },
			"negative ttl":        func(c *config.Config) { c.CacheTTLSeconds = -1 },
			"zero report limit":   func(c *config.Config) { c.ReportLimit = 0 },
			"max below default":   func(c *config.Config) { c.MaxLeaderboardLimit = 10 },
			"zero seat step":      func(c *config.Config) { c.SeatStep = 0 },
			"missing name column": func(c *config.Config) { c.Columns.StaffName = "" },
			"bad namespace":       func(c *config.Config) { c.MetricsNamespace = "contest-board" },
			"empty namespace":     func(c *config.Config) { c.MetricsNamespace = "" },
			"bad subsystem":       func(c *config.Config) { c.MetricsSubsystem = "9lives" },
			"reserved label":      func(c *config.Config) { c.MetricsLabels = map[string]string{"__name": "x"} },
			"bad label":           func(c *config.Config) { c.MetricsLabels = map[string]string{"a-b": "x"} },
		}
		for name, mutate := range cases {
			cfg := config.New()
			mutate(cfg)
			err := cfg.Validate()

			convey.Convey("Then "+name+" is rejected", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})
}
