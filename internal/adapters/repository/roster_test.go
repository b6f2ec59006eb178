package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/cohortlab/vigil/internal/domain/model"
	"github.com/cohortlab/vigil/internal/domain/scoring"
)

func newRecord(identity string, attendance float64) *model.PerformanceRecord {
	return &model.PerformanceRecord{
		Identity:       identity,
		DisplayName:    "Student " + identity,
		Cohort:         model.CohortDP1,
		AttendanceRate: attendance,
		CoreProgress:   model.BaselineCoreProgress(),
		HistoricalScores: []model.ScorePoint{
			{Timestamp: time.Unix(0, 0), Score: 0},
		},
	}
}

func TestRoster_MergeNewIdentity(t *testing.T) {
	ctx := context.Background()
	w := scoring.DefaultWeights()

	Convey("Given an empty roster", t, func() {
		r := NewRoster(ctx)

		Convey("When a batch with one new identity is merged", func() {
			stats := r.Merge(ctx, []*model.PerformanceRecord{newRecord("S1", 88)}, w, time.Now())

			Convey("Then the roster grows by exactly one", func() {
				So(stats.Created, ShouldEqual, 1)
				So(stats.Updated, ShouldEqual, 0)
				So(r.Count(ctx), ShouldEqual, 1)
			})

			Convey("Then the stored record carries freshly derived indicators", func() {
				rec, err := r.Get(ctx, "S1")
				So(err, ShouldBeNil)
				// (95-88)*5*0.25 = 8.75 -> 9
				So(rec.RiskScore, ShouldEqual, 9)
			})

			Convey("Then the seeded trail from normalization is kept as-is", func() {
				rec, err := r.Get(ctx, "S1")
				So(err, ShouldBeNil)
				So(rec.HistoricalScores, ShouldHaveLength, 1)
				So(rec.HistoricalScores[0].Score, ShouldEqual, 0)
			})
		})

		Convey("When the batch contains a nil entry", func() {
			stats := r.Merge(ctx, []*model.PerformanceRecord{nil, newRecord("S1", 100)}, w, time.Now())

			Convey("Then the nil is skipped and the rest apply", func() {
				So(stats.Created, ShouldEqual, 1)
				So(r.Count(ctx), ShouldEqual, 1)
			})
		})
	})
}

func TestRoster_MergeExistingIdentity(t *testing.T) {
	ctx := context.Background()
	w := scoring.DefaultWeights()

	Convey("Given a roster holding S1", t, func() {
		r := NewRoster(ctx)
		r.Merge(ctx, []*model.PerformanceRecord{newRecord("S1", 100)}, w, time.Now())

		Convey("When a batch re-submits S1 with changed fields", func() {
			incoming := newRecord("S1", 80)
			incoming.DisplayName = "Jane Doe"
			incoming.MissedSessions = 12
			mergedAt := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
			stats := r.Merge(ctx, []*model.PerformanceRecord{incoming}, w, mergedAt)

			Convey("Then the roster size is unchanged", func() {
				So(stats.Created, ShouldEqual, 0)
				So(stats.Updated, ShouldEqual, 1)
				So(r.Count(ctx), ShouldEqual, 1)
			})

			Convey("Then every field except the trail is replaced", func() {
				rec, err := r.Get(ctx, "S1")
				So(err, ShouldBeNil)
				So(rec.DisplayName, ShouldEqual, "Jane Doe")
				So(rec.AttendanceRate, ShouldEqual, 80.0)
				So(rec.MissedSessions, ShouldEqual, 12)
			})

			Convey("Then exactly one trail entry is appended", func() {
				rec, err := r.Get(ctx, "S1")
				So(err, ShouldBeNil)
				So(rec.HistoricalScores, ShouldHaveLength, 2)
				last := rec.HistoricalScores[len(rec.HistoricalScores)-1]
				So(last.Timestamp.Equal(mergedAt), ShouldBeTrue)
				// (95-80)*5*0.25 = 18.75 -> 19
				So(last.Score, ShouldEqual, 19)
				So(rec.RiskScore, ShouldEqual, 19)
			})
		})

		Convey("When a batch contains the same identity twice", func() {
			first := newRecord("S1", 90)
			second := newRecord("S1", 70)
			second.DisplayName = "Last Write"
			stats := r.Merge(ctx, []*model.PerformanceRecord{first, second}, w, time.Now())

			Convey("Then both apply sequentially and the later one wins", func() {
				So(stats.Updated, ShouldEqual, 2)
				So(r.Count(ctx), ShouldEqual, 1)
				rec, _ := r.Get(ctx, "S1")
				So(rec.DisplayName, ShouldEqual, "Last Write")
				So(rec.AttendanceRate, ShouldEqual, 70.0)
			})
		})
	})
}

func TestRoster_HistoryWindow(t *testing.T) {
	ctx := context.Background()
	w := scoring.DefaultWeights()

	Convey("Given a roster with a trimmed history window", t, func() {
		r := NewRoster(ctx, WithHistoryWindow(3))
		r.Merge(ctx, []*model.PerformanceRecord{newRecord("S1", 100)}, w, time.Unix(0, 0))

		Convey("When merges keep arriving past the window", func() {
			base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
			for i := 0; i < 5; i++ {
				r.Merge(ctx, []*model.PerformanceRecord{newRecord("S1", float64(95-i))}, w, base.Add(time.Duration(i)*time.Hour))
			}

			Convey("Then only the most recent entries survive, newest included", func() {
				rec, err := r.Get(ctx, "S1")
				So(err, ShouldBeNil)
				So(rec.HistoricalScores, ShouldHaveLength, 3)
				last := rec.HistoricalScores[len(rec.HistoricalScores)-1]
				So(last.Timestamp.Equal(base.Add(4*time.Hour)), ShouldBeTrue)
				So(last.Score, ShouldEqual, rec.RiskScore)
			})
		})
	})
}

func TestRoster_Rescore(t *testing.T) {
	ctx := context.Background()

	Convey("Given a roster scored under the default weights", t, func() {
		r := NewRoster(ctx)
		r.Merge(ctx, []*model.PerformanceRecord{newRecord("S1", 85), newRecord("S2", 100)}, scoring.DefaultWeights(), time.Now())
		before, _ := r.Get(ctx, "S1")

		Convey("When rescored with attendance weighted fully", func() {
			n := r.Rescore(ctx, scoring.Weights{Attendance: 1})

			Convey("Then every record is recomputed in place", func() {
				So(n, ShouldEqual, 2)
				rec, _ := r.Get(ctx, "S1")
				// (95-85)*5*1 = 50
				So(rec.RiskScore, ShouldEqual, 50)
			})

			Convey("Then the historical trail is untouched", func() {
				rec, _ := r.Get(ctx, "S1")
				So(rec.HistoricalScores, ShouldHaveLength, len(before.HistoricalScores))
			})
		})
	})
}

func TestRoster_ListAndGet(t *testing.T) {
	ctx := context.Background()
	w := scoring.DefaultWeights()

	Convey("Given a roster populated out of identity order", t, func() {
		r := NewRoster(ctx)
		for _, id := range []string{"S3", "S1", "S2"} {
			r.Merge(ctx, []*model.PerformanceRecord{newRecord(id, 100)}, w, time.Now())
		}

		Convey("When listed", func() {
			records := r.List(ctx)

			Convey("Then insertion order is preserved", func() {
				So(records, ShouldHaveLength, 3)
				So(records[0].Identity, ShouldEqual, "S3")
				So(records[1].Identity, ShouldEqual, "S1")
				So(records[2].Identity, ShouldEqual, "S2")
			})

			Convey("Then returned copies do not alias roster state", func() {
				records[0].DisplayName = "mutated"
				fresh, _ := r.Get(ctx, "S3")
				So(fresh.DisplayName, ShouldEqual, "Student S3")
			})
		})

		Convey("When getting an absent identity", func() {
			_, err := r.Get(ctx, "nope")

			Convey("Then ErrNotFound is returned", func() {
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestRoster_ConcurrentReaders(t *testing.T) {
	ctx := context.Background()
	w := scoring.DefaultWeights()

	Convey("Given a roster under a writer and many readers", t, func() {
		r := NewRoster(ctx)

		done := make(chan struct{})
		go func() {
			defer close(done)
			for i := 0; i < 50; i++ {
				r.Merge(ctx, []*model.PerformanceRecord{newRecord(fmt.Sprintf("S%d", i%10), 90)}, w, time.Now())
			}
		}()

		Convey("When readers run concurrently", func() {
			for i := 0; i < 20; i++ {
				_ = r.List(ctx)
				_ = r.Count(ctx)
			}
			<-done

			Convey("Then the final state is consistent", func() {
				So(r.Count(ctx), ShouldEqual, 10)
			})
		})
	})
}
