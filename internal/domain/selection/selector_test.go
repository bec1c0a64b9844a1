package selection_test

import (
	"testing"

	"github.com/okian/skatepark/internal/domain/catalog"
	"github.com/okian/skatepark/internal/domain/chance"
	"github.com/okian/skatepark/internal/domain/model"
	"github.com/okian/skatepark/internal/domain/progression"
	"github.com/okian/skatepark/internal/domain/selection"
	. "github.com/smartystreets/goconvey/convey"
)

func variant(name string, level int, at catalog.Placement) catalog.Modifier {
	return catalog.Modifier{Name: name, Level: level, Cost: level, Placement: at, ParentVariant: name}
}

func testCatalog() *catalog.Catalog {
	tree, err := catalog.NewTree(catalog.Rollerblader, []catalog.Core{
		{Type: catalog.Stall, Name: "Makio", Level: 1, Cost: 5},
		{Type: catalog.Grind, Name: "Soul", Level: 1, Cost: 5, Modifiers: []catalog.Modifier{
			variant("Fakie Out", 1, catalog.After),
			{Name: "360 Out", Level: 3, Cost: 3, Placement: catalog.After, ParentVariant: "Fakie Out"},
			variant("Half Cab", 2, catalog.Before),
			variant("Royal", 3, catalog.Replace),
		}},
	})
	if err != nil {
		panic(err)
	}
	return catalog.New(tree)
}

func skater(cat *catalog.Catalog, mods ...string) model.Skater {
	tree, _ := cat.Tree(catalog.Rollerblader)
	lib := progression.Library{}
	lib, _, _ = progression.Unlock(tree, lib, catalog.CoreNode(catalog.Grind, "Soul"))
	for _, key := range mods {
		lib, _, _ = progression.Unlock(tree, lib, catalog.NodeID{Type: catalog.Grind, Core: "Soul", Modifier: key})
	}
	return model.Skater{ID: "s1", Sport: catalog.Rollerblader, SwitchRating: 10, Library: lib}
}

func piece(name string, opps, grind int) model.RunPiece {
	return model.RunPiece{
		Name:          name,
		Coordinate:    "A1",
		Opportunities: opps,
		Difficulty:    model.Difficulty{catalog.Rollerblader: {catalog.Grind: grind}},
	}
}

func target(pieces ...model.RunPiece) model.RunTarget {
	return model.RunTarget{ID: "t1", Capacity: 1, Tiles: []model.Tile{{}}, Pieces: pieces}
}

var threeVariants = []string{"Fakie Out|Fakie Out", "Half Cab|Half Cab", "Royal|Royal"}

func TestSelectCount(t *testing.T) {
	Convey("Given a skater and a run", t, func() {
		cat := testCatalog()
		sel := selection.New(cat, chance.NewSeeded(1))
		sk := skater(cat, threeVariants...)

		Convey("When the piece has three opportunities", func() {
			plans := sel.Select(selection.Request{Skater: sk, Target: target(piece("Rail", 3, 1))})

			Convey("Then three real plans come back", func() {
				So(plans, ShouldHaveLength, 3)
				for i, p := range plans {
					So(p.NoAttempt, ShouldBeFalse)
					So(p.Opportunity, ShouldEqual, i+1)
					So(p.Attempt, ShouldEqual, 1)
					So(p.Type, ShouldEqual, catalog.Grind)
					So(p.Piece, ShouldEqual, "Rail")
				}
			})
		})

		Convey("When nothing is attemptable anywhere", func() {
			run := target(piece("Mega Rail", 4, 10))
			plans := sel.Select(selection.Request{Skater: sk, Target: run, ParkPieces: run.Pieces})

			Convey("Then one no-attempt plan per opportunity comes back", func() {
				So(plans, ShouldHaveLength, 4)
				for _, p := range plans {
					So(p.NoAttempt, ShouldBeTrue)
				}
				So(sel.CanAttempt(sk, run), ShouldBeFalse)
			})
		})

		Convey("When the run has no opportunities at all", func() {
			plans := sel.Select(selection.Request{Skater: sk, Target: target(piece("Bench", 0, 1))})

			Convey("Then a single no-attempt plan comes back", func() {
				So(plans, ShouldHaveLength, 1)
				So(plans[0].NoAttempt, ShouldBeTrue)
			})
		})

		Convey("When only another park piece is attemptable", func() {
			hard := piece("Mega Rail", 2, 10)
			easy := piece("Ledge", 2, 1)
			easy.Coordinate = "C3"
			plans := sel.Select(selection.Request{Skater: sk, Target: target(hard), ParkPieces: []model.RunPiece{hard, easy}})

			Convey("Then the park-wide piece is used", func() {
				So(plans, ShouldHaveLength, 2)
				for _, p := range plans {
					So(p.NoAttempt, ShouldBeFalse)
					So(p.Piece, ShouldEqual, "Ledge")
					So(p.Coordinate, ShouldEqual, "C3")
				}
			})
		})
	})
}

func TestSelectFreshness(t *testing.T) {
	Convey("Given a skater with seven combos on one core", t, func() {
		cat := testCatalog()
		sk := skater(cat, threeVariants...)
		run := target(piece("Rail", 7, 1))

		Convey("When one run has seven opportunities", func() {
			plans := selection.New(cat, chance.NewSeeded(3)).Select(selection.Request{Skater: sk, Target: run})

			Convey("Then every combo is used once", func() {
				keys := map[string]bool{}
				for _, p := range plans {
					keys[p.ComboKey] = true
				}
				So(keys, ShouldHaveLength, 7)
			})
		})

		Convey("When consecutive runs feed the history back", func() {
			sel := selection.New(cat, chance.NewSeeded(4))
			one := target(piece("Rail", 1, 1))
			var log []model.Attempt
			seen := map[string]bool{}
			for i := 0; i < 7; i++ {
				plans := sel.Select(selection.Request{Skater: sk, Target: one, History: model.HistoryFor(log, sk.ID)})
				So(plans, ShouldHaveLength, 1)
				So(seen[plans[0].ComboKey], ShouldBeFalse)
				seen[plans[0].ComboKey] = true
				log = append(log, model.NewAttempt(i+1, sk.ID, one.ID, plans[0], model.Outcome{}))
			}

			Convey("Then no key repeats until all are used, and a repeat follows", func() {
				plans := sel.Select(selection.Request{Skater: sk, Target: one, History: model.HistoryFor(log, sk.ID)})
				So(plans, ShouldHaveLength, 1)
				So(plans[0].NoAttempt, ShouldBeFalse)
				So(seen[plans[0].ComboKey], ShouldBeTrue)
			})
		})

		Convey("When the run piece is exhausted but another piece is fresh", func() {
			sel := selection.New(cat, chance.NewSeeded(5))
			rail := piece("Rail", 1, 1)
			ledge := piece("Ledge", 1, 1)
			ledge.Coordinate = "B2"
			history := model.History{Attempted: map[string]bool{}, Landed: map[string]bool{}}
			for _, p := range selection.New(cat, chance.NewSeeded(6)).Select(selection.Request{Skater: sk, Target: target(piece("Rail", 7, 1))}) {
				history.Attempted[p.ComboKey] = true
			}
			plans := sel.Select(selection.Request{
				Skater:     sk,
				Target:     target(rail),
				ParkPieces: []model.RunPiece{rail, ledge},
				History:    history,
			})

			Convey("Then the fresh combo comes from the other piece", func() {
				So(plans, ShouldHaveLength, 1)
				So(plans[0].Piece, ShouldEqual, "Ledge")
				So(history.Attempted[plans[0].ComboKey], ShouldBeFalse)
			})
		})
	})
}

func TestSelectBranchExclusive(t *testing.T) {
	Convey("Given a skater owning a variant and its upgrade", t, func() {
		cat := testCatalog()
		sk := skater(cat, "Fakie Out|Fakie Out", "Fakie Out|360 Out", "Half Cab|Half Cab")
		sel := selection.New(cat, chance.NewSeeded(8))

		Convey("Then no plan pairs two modifiers of the same branch", func() {
			for i := 0; i < 50; i++ {
				for _, p := range sel.Select(selection.Request{Skater: sk, Target: target(piece("Rail", 4, 2)), Progress: 0.9}) {
					So(len(p.Modifiers), ShouldBeLessThanOrEqualTo, 2)
					if len(p.Modifiers) == 2 {
						So(p.Modifiers[0].ParentVariant, ShouldNotEqual, p.Modifiers[1].ParentVariant)
					}
					So(p.TrickName, ShouldNotBeBlank)
				}
			}
		})
	})
}

func TestSelectBias(t *testing.T) {
	const draws = 600

	// draw runs single-opportunity selections and reports how often the
	// harder core came up and the mean combo size.
	draw := func(cat *catalog.Catalog, sk model.Skater, progress float64) (hard int, size float64) {
		sel := selection.New(cat, chance.NewSeeded(21))
		run := target(piece("Rail", 1, 1))
		total := 0
		for range draws {
			p := sel.Select(selection.Request{Skater: sk, Target: run, Progress: progress})[0]
			if p.CoreLevel > 1 {
				hard++
			}
			total += len(p.Modifiers)
		}
		return hard, float64(total) / draws
	}

	Convey("Given a skater owning an easy and a hard core of one type", t, func() {
		tree, err := catalog.NewTree(catalog.Rollerblader, []catalog.Core{
			{Type: catalog.Grind, Name: "Soul", Level: 1, Cost: 5},
			{Type: catalog.Grind, Name: "Unity", Level: 2, Cost: 10, Modifiers: []catalog.Modifier{
				variant("Royal", 3, catalog.Replace),
			}},
		})
		So(err, ShouldBeNil)
		cat := catalog.New(tree)
		lib := progression.Library{}
		for _, n := range []catalog.NodeID{
			catalog.CoreNode(catalog.Grind, "Soul"),
			catalog.CoreNode(catalog.Grind, "Unity"),
			{Type: catalog.Grind, Core: "Unity", Modifier: "Royal|Royal"},
		} {
			var ok bool
			lib, _, ok = progression.Unlock(tree, lib, n)
			So(ok, ShouldBeTrue)
		}
		sk := model.Skater{ID: "s1", Sport: catalog.Rollerblader, SwitchRating: 10, Library: lib}

		Convey("When the bias rises from none to late in a session", func() {
			calm, _ := draw(cat, sk, 0)
			late, _ := draw(cat, sk, 1)

			Convey("Then the hard core is chosen clearly more often", func() {
				So(float64(calm)/draws, ShouldBeBetween, 0.4, 0.6)
				So(late-calm, ShouldBeGreaterThan, draws/10)
			})
		})
	})

	Convey("Given a skater with several variants on one core", t, func() {
		cat := testCatalog()
		sk := skater(cat, append(threeVariants, "Fakie Out|360 Out")...)

		Convey("When the bias rises from none to late in a session", func() {
			_, calm := draw(cat, sk, 0)
			_, late := draw(cat, sk, 1)

			Convey("Then combos grow", func() {
				So(calm, ShouldBeLessThan, 1)
				So(late, ShouldBeGreaterThan, calm+0.2)
			})
		})
	})
}

func TestSelectDeterminism(t *testing.T) {
	Convey("Given two selectors with the same seed", t, func() {
		cat := testCatalog()
		sk := skater(cat, threeVariants...)
		req := selection.Request{Skater: sk, Target: target(piece("Rail", 5, 1)), Progress: 0.4}

		Convey("Then they plan the same run", func() {
			a := selection.New(cat, chance.NewSeeded(77)).Select(req)
			b := selection.New(cat, chance.NewSeeded(77)).Select(req)
			So(a, ShouldResemble, b)
		})
	})
}

func TestWeights(t *testing.T) {
	Convey("Given type ratings", t, func() {
		types := []catalog.TrickType{catalog.Stall, catalog.Grind, catalog.Tech}

		Convey("When one type dominates", func() {
			w := selection.TypeWeights(types, map[catalog.TrickType]float64{catalog.Stall: 90, catalog.Grind: 6, catalog.Tech: 4})

			Convey("Then it is capped at half and the rest is shared by rating", func() {
				So(w[0], ShouldAlmostEqual, 0.5)
				So(w[1], ShouldAlmostEqual, 0.3)
				So(w[2], ShouldAlmostEqual, 0.2)
			})
		})

		Convey("When no type dominates", func() {
			w := selection.TypeWeights(types, map[catalog.TrickType]float64{catalog.Stall: 4, catalog.Grind: 4, catalog.Tech: 2})

			Convey("Then weights are the normalized ratings", func() {
				So(w[0], ShouldAlmostEqual, 0.4)
				So(w[2], ShouldAlmostEqual, 0.2)
			})
		})

		Convey("When every rating is zero", func() {
			w := selection.TypeWeights(types, nil)

			Convey("Then weights are uniform", func() {
				So(w[0], ShouldAlmostEqual, 1.0/3)
			})
		})
	})

	Convey("The stance tables fall with rating and clamp at the ends", t, func() {
		So(selection.SwitchChance(1), ShouldEqual, 40)
		So(selection.SwitchChance(10), ShouldEqual, 5)
		So(selection.SwitchChance(0), ShouldEqual, 40)
		So(selection.SwitchPenalty(99), ShouldEqual, 5)
		So(selection.SwitchPenalty(3), ShouldEqual, 40)
	})

	Convey("Bias grows with progress and run position", t, func() {
		So(selection.Bias(0, 0, 3), ShouldEqual, 0)
		So(selection.Bias(1, 2, 3), ShouldEqual, 1)
		So(selection.Bias(0.5, 1, 3), ShouldAlmostEqual, 0.5)
		So(selection.Bias(0.5, 0, 1), ShouldAlmostEqual, 0.25)
	})

	Convey("The skill gate allows difficulty up to two above skill/10", t, func() {
		So(selection.Attemptable(0, 2), ShouldBeTrue)
		So(selection.Attemptable(29.9, 5), ShouldBeFalse)
		So(selection.Attemptable(30, 5), ShouldBeTrue)
	})
}
