package config

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/cohortlab/vigil/internal/domain/scoring"
)

func TestNew(t *testing.T) {
	Convey("Given default configuration", t, func() {
		cfg := New()

		Convey("Then every field carries its documented default", func() {
			So(cfg.LogLevel, ShouldEqual, "info")
			So(cfg.Addr, ShouldEqual, ":9080")
			So(cfg.BatchQueueSize, ShouldEqual, 256)
			So(cfg.UploadDedupeSize, ShouldEqual, 1024)
			So(cfg.MaxRosterLimit, ShouldEqual, 500)
			So(cfg.MaxUploadBytes, ShouldEqual, int64(10<<20))
			So(cfg.Weights, ShouldResemble, scoring.DefaultWeights())
		})
	})
}
