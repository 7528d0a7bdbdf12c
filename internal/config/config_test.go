package config_test

import (
	"runtime"
	"testing"

	"github.com/okian/cogtrain/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.ArmStore, convey.ShouldEqual, config.ArmStoreSQLite)
			convey.So(cfg.RecentScoresLimit, convey.ShouldEqual, 10)
			convey.So(cfg.EpsilonFloor, convey.ShouldEqual, 0.1)
			convey.So(cfg.DefaultScheduleDays, convey.ShouldEqual, 7)
			convey.So(cfg.MaxScheduleDays, convey.ShouldEqual, 30)
			convey.So(cfg.OutcomeWorkers, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
