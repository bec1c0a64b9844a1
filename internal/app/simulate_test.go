package service_test

import (
	"context"
	"errors"
	"testing"

	service "github.com/okian/skatepark/internal/app"
	"github.com/okian/skatepark/internal/domain/progression"
	"github.com/okian/skatepark/internal/domain/session"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSimulate(t *testing.T) {
	Convey("Given a service that was never started", t, func() {
		ctx := context.Background()
		svc := newService()

		Convey("When the same seed is simulated twice", func() {
			req := service.SimulateRequest{Seed: 5, Tier: progression.Pro, Skaters: 6}
			a, err := svc.Simulate(ctx, req)
			So(err, ShouldBeNil)
			b, err := svc.Simulate(ctx, req)
			So(err, ShouldBeNil)

			Convey("Then both runs end identically", func() {
				So(a.State.Phase, ShouldEqual, session.Ended)
				So(a.Summary.Ticks, ShouldEqual, session.TotalTicks)
				So(a.Summary.Skaters, ShouldEqual, 6)
				So(a.State.Log, ShouldResemble, b.State.Log)
				So(a.Summary.Points, ShouldEqual, b.Summary.Points)
			})
		})

		Convey("When the tier is unknown", func() {
			_, err := svc.Simulate(ctx, service.SimulateRequest{Tier: "legend"})
			So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := svc.Simulate(cctx, service.SimulateRequest{Seed: 1})
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestBatch(t *testing.T) {
	Convey("Given a service", t, func() {
		ctx := context.Background()
		svc := newService()

		Convey("When the same batch runs on one and on four workers", func() {
			req := service.BatchRequest{Runs: 12, Seed: 21, Tier: progression.Medium, Skaters: 5}
			req.Workers = 1
			one, err := svc.Batch(ctx, req)
			So(err, ShouldBeNil)
			req.Workers = 4
			four, err := svc.Batch(ctx, req)
			So(err, ShouldBeNil)

			Convey("Then every run is counted and the totals agree", func() {
				So(one.Runs, ShouldEqual, 12)
				So(one.Failed, ShouldEqual, 0)
				So(one.Attempts, ShouldBeGreaterThan, 0)
				So(one.LandRate, ShouldBeBetweenOrEqual, 0, 1)
				So(four.Attempts, ShouldEqual, one.Attempts)
				So(four.Landed, ShouldEqual, one.Landed)
				So(four.Points, ShouldEqual, one.Points)
				So(four.MeanPoints, ShouldAlmostEqual, float64(one.Points)/12)
			})
		})

		Convey("When jobs fail", func() {
			rep, err := svc.Batch(ctx, service.BatchRequest{Runs: 3, Workers: 2, Seed: 1, Sport: "surfer"})
			So(err, ShouldBeNil)
			So(rep.Runs, ShouldEqual, 3)
			So(rep.Failed, ShouldEqual, 3)
			So(rep.MeanPoints, ShouldEqual, 0)
		})

		Convey("When no runs are asked for", func() {
			_, err := svc.Batch(ctx, service.BatchRequest{})
			So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)
		})
	})
}
