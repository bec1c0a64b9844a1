package roster_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/okian/skatepark/internal/domain/catalog"
	"github.com/okian/skatepark/internal/domain/chance"
	"github.com/okian/skatepark/internal/domain/progression"
	"github.com/okian/skatepark/internal/domain/roster"
	. "github.com/smartystreets/goconvey/convey"
)

func generator(seed uint64) *roster.Generator {
	src := chance.NewSeeded(seed)
	return roster.NewGenerator(progression.NewBuilder(catalog.Default(), src), src)
}

func TestGenerate(t *testing.T) {
	Convey("Given a seeded generator", t, func() {
		g := generator(5)

		Convey("When beginner skaters are generated", func() {
			skaters, err := g.GenerateN(40, catalog.Skateboarder, progression.Beginner)
			So(err, ShouldBeNil)
			So(skaters, ShouldHaveLength, 40)

			Convey("Then every attribute is within range", func() {
				low := 0
				for _, s := range skaters {
					_, perr := uuid.Parse(s.ID)
					So(perr, ShouldBeNil)
					So(s.Initials, ShouldHaveLength, 2)
					So(s.Sport, ShouldEqual, catalog.Skateboarder)
					So(s.Tier, ShouldEqual, progression.Beginner)
					So(s.Energy, ShouldBeBetweenOrEqual, 3, 10)
					So(s.Determination, ShouldBeBetweenOrEqual, 1, 100)
					So(s.Steeze, ShouldBeBetweenOrEqual, 1, 10)
					So(s.SwitchRating, ShouldBeBetweenOrEqual, 1, 3)
					So(s.Library.Len(), ShouldBeGreaterThan, 0)
					if s.Energy <= 6 {
						low++
					}
				}

				Convey("And energy leans low", func() {
					So(low, ShouldBeGreaterThan, 20)
				})
			})
		})

		Convey("When two generators share a seed", func() {
			a, errA := generator(9).GenerateN(3, catalog.Rollerblader, progression.Medium)
			b, errB := generator(9).GenerateN(3, catalog.Rollerblader, progression.Medium)
			So(errA, ShouldBeNil)
			So(errB, ShouldBeNil)

			Convey("Then they generate the same skaters", func() {
				So(a, ShouldResemble, b)
			})
		})

		Convey("When the tier is unknown", func() {
			_, err := g.Generate(catalog.Rollerblader, progression.Tier("legend"))
			So(errors.Is(err, progression.ErrUnknownTier), ShouldBeTrue)
		})
	})

	Convey("Initials use the first two words", t, func() {
		So(roster.Initials("zoe vale"), ShouldEqual, "ZV")
		So(roster.Initials("Ivy"), ShouldEqual, "I")
		So(roster.Initials(""), ShouldEqual, "")
	})
}

func TestPool(t *testing.T) {
	Convey("Given a pool with generated skaters", t, func() {
		skaters, err := generator(3).GenerateN(5, catalog.Rollerblader, progression.Beginner)
		So(err, ShouldBeNil)
		p := roster.NewPool()
		So(p.Add(skaters...), ShouldBeNil)

		Convey("Then skaters are found by id", func() {
			got, err := p.Get(skaters[2].ID)
			So(err, ShouldBeNil)
			So(got.ID, ShouldEqual, skaters[2].ID)

			_, err = p.Get("nobody")
			So(errors.Is(err, roster.ErrSkaterNotFound), ShouldBeTrue)
		})

		Convey("Then duplicates are rejected without partial adds", func() {
			err := p.Add(skaters[0])
			So(errors.Is(err, roster.ErrDuplicateID), ShouldBeTrue)
			So(p.Len(), ShouldEqual, 5)
		})

		Convey("Then draws are distinct and capped at the pool size", func() {
			drawn := p.Draw(chance.NewSeeded(1), 3)
			So(drawn, ShouldHaveLength, 3)
			seen := map[string]bool{}
			for _, s := range drawn {
				seen[s.ID] = true
			}
			So(seen, ShouldHaveLength, 3)
			So(p.Draw(chance.NewSeeded(1), 10), ShouldHaveLength, 5)
		})
	})
}
