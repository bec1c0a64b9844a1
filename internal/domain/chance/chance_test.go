package chance_test

import (
	"testing"

	"github.com/okian/skatepark/internal/domain/chance"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPick(t *testing.T) {
	Convey("Given a seeded source", t, func() {
		src := chance.NewSeeded(7)

		Convey("When the slice is empty", func() {
			_, ok := chance.Pick(src, []string{}, func(string) float64 { return 1 })

			Convey("Then nothing is picked", func() {
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When only one item carries weight", func() {
			items := []string{"a", "b", "c"}
			counts := map[string]int{}
			for i := 0; i < 200; i++ {
				got, ok := chance.Pick(src, items, func(s string) float64 {
					if s == "b" {
						return 3
					}
					return 0
				})
				So(ok, ShouldBeTrue)
				counts[got]++
			}

			Convey("Then it is always chosen", func() {
				So(counts["b"], ShouldEqual, 200)
			})
		})

		Convey("When every weight is zero", func() {
			items := []int{1, 2, 3, 4}
			seen := map[int]bool{}
			for i := 0; i < 400; i++ {
				got, _ := chance.Pick(src, items, func(int) float64 { return 0 })
				seen[got] = true
			}

			Convey("Then the choice falls back to uniform", func() {
				So(len(seen), ShouldEqual, 4)
			})
		})

		Convey("When weights are skewed", func() {
			items := []string{"rare", "common"}
			common := 0
			for i := 0; i < 2000; i++ {
				got, _ := chance.Pick(src, items, func(s string) float64 {
					if s == "common" {
						return 9
					}
					return 1
				})
				if got == "common" {
					common++
				}
			}

			Convey("Then the heavy item dominates proportionally", func() {
				So(common, ShouldBeBetween, 1700, 1900)
			})
		})
	})
}

func TestDeterminism(t *testing.T) {
	Convey("Given two sources with the same seed", t, func() {
		a := chance.NewSeeded(99)
		b := chance.NewSeeded(99)

		Convey("Then they produce the same stream", func() {
			for i := 0; i < 50; i++ {
				So(a.IntN(1000), ShouldEqual, b.IntN(1000))
			}
			So(chance.Shuffle(a, []int{1, 2, 3, 4, 5}), ShouldResemble, chance.Shuffle(b, []int{1, 2, 3, 4, 5}))
		})
	})
}

func TestBetweenAndPercent(t *testing.T) {
	Convey("Given a seeded source", t, func() {
		src := chance.NewSeeded(3)

		Convey("Then Between stays inside its bounds", func() {
			for i := 0; i < 500; i++ {
				So(chance.Between(src, 2, 5), ShouldBeBetweenOrEqual, 2, 5)
			}
			So(chance.Between(src, 4, 1), ShouldEqual, 4)
		})

		Convey("Then Percent stays in 1..100", func() {
			for i := 0; i < 500; i++ {
				So(chance.Percent(src), ShouldBeBetweenOrEqual, 1, 100)
			}
		})

		Convey("Then Shuffle keeps every element", func() {
			in := []int{1, 2, 3, 4, 5, 6}
			out := chance.Shuffle(src, in)
			So(out, ShouldHaveLength, 6)
			So(in, ShouldResemble, []int{1, 2, 3, 4, 5, 6})
			for _, v := range in {
				So(out, ShouldContain, v)
			}
		})
	})
}
