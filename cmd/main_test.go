package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	service "github.com/okian/skatepark/internal/app"
	"github.com/smartystreets/goconvey/convey"
	"gopkg.in/yaml.v3"
)

func execute(ctx context.Context, args ...string) (string, error) {
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return out.String(), err
}

func TestSimulateCommand(t *testing.T) {
	convey.Convey("Given the simulate command", t, func() {
		ctx := context.Background()

		convey.Convey("When run twice with the same seed", func() {
			a, errA := execute(ctx, "simulate", "--seed", "42", "--skaters", "4", "--tier", "medium")
			b, errB := execute(ctx, "simulate", "--seed", "42", "--skaters", "4", "--tier", "medium")

			convey.Convey("Then both runs score the same", func() {
				convey.So(errA, convey.ShouldBeNil)
				convey.So(errB, convey.ShouldBeNil)

				var first, second simulation
				convey.So(json.Unmarshal([]byte(a), &first), convey.ShouldBeNil)
				convey.So(json.Unmarshal([]byte(b), &second), convey.ShouldBeNil)
				convey.So(first.Summary.ID, convey.ShouldEqual, "sim-42")
				convey.So(first.Standings, convey.ShouldHaveLength, 4)
				convey.So(second.Standings, convey.ShouldResemble, first.Standings)
				convey.So(second.Summary.Points, convey.ShouldEqual, first.Summary.Points)
				convey.So(second.Summary.Attempts, convey.ShouldEqual, first.Summary.Attempts)
			})
		})

		convey.Convey("When asked for YAML", func() {
			out, err := execute(ctx, "simulate", "--seed", "3", "--kind", "beginner", "--skaters", "3", "-o", "yaml")

			convey.Convey("Then the output parses and lists the candidates", func() {
				convey.So(err, convey.ShouldBeNil)
				var got simulation
				convey.So(yaml.Unmarshal([]byte(out), &got), convey.ShouldBeNil)
				convey.So(got.Summary.Kind, convey.ShouldEqual, "beginner")
				convey.So(got.Candidates, convey.ShouldHaveLength, 3)
			})
		})

		convey.Convey("When the tier is unknown", func() {
			_, err := execute(ctx, "simulate", "--tier", "legend")

			convey.Convey("Then it fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When the output format is unknown", func() {
			_, err := execute(ctx, "simulate", "--seed", "1", "--skaters", "2", "-o", "xml")

			convey.Convey("Then it fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestBatchCommand(t *testing.T) {
	convey.Convey("Given the batch command", t, func() {
		ctx := context.Background()

		convey.Convey("When it runs a few sessions", func() {
			out, err := execute(ctx, "batch", "--runs", "3", "--workers", "2", "--seed", "9", "--skaters", "3")

			convey.Convey("Then the report counts every run", func() {
				convey.So(err, convey.ShouldBeNil)
				var rep service.BatchReport
				convey.So(json.Unmarshal([]byte(out), &rep), convey.ShouldBeNil)
				convey.So(rep.Runs, convey.ShouldEqual, 3)
				convey.So(rep.Failed, convey.ShouldEqual, 0)
				convey.So(rep.Seed, convey.ShouldEqual, 9)
			})
		})

		convey.Convey("When runs is not positive", func() {
			_, err := execute(ctx, "batch", "--runs", "0")

			convey.Convey("Then it fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestCatalogValidateCommand(t *testing.T) {
	convey.Convey("Given the built-in catalog and park", t, func() {
		out, err := execute(context.Background(), "catalog", "validate")

		convey.Convey("Then both sports and every target are reported", func() {
			convey.So(err, convey.ShouldBeNil)
			var rep catalogReport
			convey.So(json.Unmarshal([]byte(out), &rep), convey.ShouldBeNil)
			convey.So(rep.Sports, convey.ShouldHaveLength, 2)
			convey.So(rep.Capacity, convey.ShouldEqual, 9)
			convey.So(rep.Targets, convey.ShouldNotBeEmpty)
			for _, s := range rep.Sports {
				convey.So(s.Nodes, convey.ShouldBeGreaterThan, 0)
			}
		})

		convey.Convey("When the catalog file is missing", func() {
			_, err := execute(context.Background(), "catalog", "validate", "--catalog", "/nonexistent/tricks.yaml")

			convey.Convey("Then it fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestServeCommand(t *testing.T) {
	convey.Convey("Given the serve command", t, func() {
		convey.Convey("When its context is already cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := execute(ctx, "serve", "--addr", "127.0.0.1:0", "--log-level", "error")

			convey.Convey("Then it shuts down cleanly", func() {
				convey.So(err, convey.ShouldBeNil)
			})
		})
	})
}

func TestRootSetup(t *testing.T) {
	convey.Convey("Given a bad log format", t, func() {
		_, err := execute(context.Background(), "catalog", "validate", "--log-format", "xml")

		convey.Convey("Then setup fails before the command runs", func() {
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}
