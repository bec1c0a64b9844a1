package model_test

import (
	"testing"

	"github.com/okian/skatepark/internal/domain/catalog"
	"github.com/okian/skatepark/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTile(t *testing.T) {
	Convey("Given grid tiles", t, func() {
		Convey("Then coordinates are letter rows and 1-based columns", func() {
			So(model.Tile{Row: 0, Col: 0}.Coordinate(), ShouldEqual, "A1")
			So(model.Tile{Row: 2, Col: 9}.Coordinate(), ShouldEqual, "C10")
		})
	})
}

func TestComboKey(t *testing.T) {
	Convey("Given two modifier orders for the same trick", t, func() {
		a := model.ComboKey("Rail", "B2", catalog.Grind, "Soul", []string{"Fakie Out", "Half Cab"})
		b := model.ComboKey("Rail", "B2", catalog.Grind, "Soul", []string{"Half Cab", "Fakie Out"})

		Convey("Then the keys match", func() {
			So(a, ShouldEqual, b)
		})

		Convey("Then another piece gives another key", func() {
			So(model.ComboKey("Rail", "B3", catalog.Grind, "Soul", []string{"Fakie Out", "Half Cab"}), ShouldNotEqual, a)
			So(model.ComboKey("Rail", "B2", catalog.Grind, "Soul", nil), ShouldNotEqual, a)
		})
	})
}

func TestRunPiece(t *testing.T) {
	Convey("Given a piece rated for some types", t, func() {
		p := model.RunPiece{Name: "Ledge", Difficulty: model.Difficulty{
			catalog.Skateboarder: {catalog.Grind: 3, catalog.Stall: 0},
		}}

		Convey("Then zero is a rating and missing types are absent", func() {
			d, ok := p.DifficultyFor(catalog.Skateboarder, catalog.Stall)
			So(ok, ShouldBeTrue)
			So(d, ShouldEqual, 0)
			_, ok = p.DifficultyFor(catalog.Rollerblader, catalog.Grind)
			So(ok, ShouldBeFalse)
			So(p.Types(catalog.Skateboarder), ShouldResemble, []catalog.TrickType{catalog.Stall, catalog.Grind})
		})
	})
}

func TestPlanAndHistory(t *testing.T) {
	Convey("Given a plan with modifiers", t, func() {
		p := model.Plan{Core: "Soul", Attempt: 1, Modifiers: []catalog.Modifier{{Name: "Fakie Out", Level: 1}, {Name: "Half Cab", Level: 2}}}

		Convey("Then retry bumps the attempt without sharing modifiers", func() {
			r := p.Retry()
			So(r.Attempt, ShouldEqual, 2)
			r.Modifiers[0].Name = "x"
			So(p.Modifiers[0].Name, ShouldEqual, "Fakie Out")
			So(p.ModifierLevels(), ShouldEqual, 3)
		})

		Convey("Then the attempt record copies names and outcome", func() {
			a := model.NewAttempt(4, "s1", "t1", p, model.Outcome{Landed: true, Points: 12})
			So(a.Modifiers, ShouldResemble, []string{"Fakie Out", "Half Cab"})
			So(a.Tick, ShouldEqual, 4)
			So(a.Points, ShouldEqual, 12)
		})
	})

	Convey("Given a log with two skaters", t, func() {
		log := []model.Attempt{
			{SkaterID: "a", ComboKey: "k1", Landed: true},
			{SkaterID: "a", ComboKey: "k2"},
			{SkaterID: "b", ComboKey: "k3", Landed: true},
			{SkaterID: "a", NoAttempt: true},
		}

		Convey("Then history only covers the asked skater", func() {
			h := model.HistoryFor(log, "a")
			So(h.Attempted, ShouldResemble, map[string]bool{"k1": true, "k2": true})
			So(h.Landed, ShouldResemble, map[string]bool{"k1": true})
		})
	})
}
