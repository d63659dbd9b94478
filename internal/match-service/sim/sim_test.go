package sim_test

import (
	"encoding/json"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/radieske/wager-match-engine/internal/match-service/power"
	"github.com/radieske/wager-match-engine/internal/match-service/power/powertest"
	"github.com/radieske/wager-match-engine/internal/match-service/sim"
	"github.com/radieske/wager-match-engine/internal/match-service/sim/simtest"
)

func profile(t *testing.T, prefix string, rating int) power.Profile {
	t.Helper()
	p, err := power.NewCalculator().Calculate(powertest.Uniform(prefix, rating), 0)
	if err != nil {
		t.Fatalf("calculate %s: %v", prefix, err)
	}
	return p
}

func TestSimulateScripted(t *testing.T) {
	home, away := profile(t, "Home", 80), profile(t, "Away", 60)

	Convey("Given the scripted home win", t, func() {
		res, err := sim.Simulate(home, away, simtest.HomeWin())
		So(err, ShouldBeNil)

		Convey("The final score is 2-1 to the home side", func() {
			So(res.Final, ShouldResemble, sim.Score{Home: 2, Away: 1})
			So(res.Outcome, ShouldEqual, sim.OutcomeHome)
		})

		Convey("Each event is attributed to the scripted actor", func() {
			So(len(res.Timeline), ShouldEqual, 5)

			want := []struct {
				off   int
				kind  sim.Kind
				side  sim.Side
				actor string
				score sim.Score
			}{
				{5, sim.KindGoal, sim.Home, "Home F1", sim.Score{Home: 1}},
				{15, sim.KindSave, sim.Home, "Home GK", sim.Score{Home: 1}},
				{35, sim.KindGoal, sim.Away, "Away M2", sim.Score{Home: 1, Away: 1}},
				{55, sim.KindGoal, sim.Home, "Home F3", sim.Score{Home: 2, Away: 1}},
				{75, sim.KindSave, sim.Away, "Away D4", sim.Score{Home: 2, Away: 1}},
			}
			for i, w := range want {
				ev := res.Timeline[i]
				So(ev.OffsetSeconds, ShouldEqual, w.off)
				So(ev.Minute, ShouldEqual, w.off)
				So(ev.Kind, ShouldEqual, w.kind)
				So(ev.Side, ShouldEqual, w.side)
				So(ev.Actor, ShouldEqual, w.actor)
				So(ev.Score, ShouldResemble, w.score)
				So(ev.Text, ShouldContainSubstring, w.actor)
				So(ev.Text, ShouldNotContainSubstring, "{player}")
			}
		})
	})

	Convey("Five keeper saves end goalless", t, func() {
		res, err := sim.Simulate(home, away, simtest.Goalless())
		So(err, ShouldBeNil)
		So(res.Final, ShouldResemble, sim.Score{})
		So(res.Outcome, ShouldEqual, sim.OutcomeDraw)
		for _, ev := range res.Timeline {
			So(ev.Actor, ShouldEqual, "Away GK")
		}
	})
}

func TestSimulateProperties(t *testing.T) {
	home, away := profile(t, "Home", 78), profile(t, "Away", 74)

	Convey("For many seeds the timeline stays within bounds", t, func() {
		for seed := uint64(1); seed <= 300; seed++ {
			res, err := sim.Simulate(home, away, sim.NewRand(seed))
			So(err, ShouldBeNil)

			n := len(res.Timeline)
			So(n, ShouldBeBetweenOrEqual, sim.MinEvents, sim.MaxEvents)

			var goals sim.Score
			prev := 0
			for _, ev := range res.Timeline {
				So(ev.OffsetSeconds, ShouldBeBetweenOrEqual, sim.MinOffset, sim.MaxOffset)
				So(ev.OffsetSeconds, ShouldBeGreaterThan, prev)
				prev = ev.OffsetSeconds

				if ev.Kind == sim.KindGoal {
					if ev.Side == sim.Home {
						goals.Home++
					} else {
						goals.Away++
					}
				}
				So(ev.Score, ShouldResemble, goals)
			}
			So(res.Final, ShouldResemble, goals)
			So(res.Outcome, ShouldEqual, goals.Outcome())
		}
	})

	Convey("The same seed reproduces a byte-identical timeline", t, func() {
		a, err := sim.Simulate(home, away, sim.NewRand(42))
		So(err, ShouldBeNil)
		b, err := sim.Simulate(home, away, sim.NewRand(42))
		So(err, ShouldBeNil)

		ja, _ := json.Marshal(a)
		jb, _ := json.Marshal(b)
		So(string(ja), ShouldEqual, string(jb))
	})
}

func TestSimulateEdges(t *testing.T) {
	Convey("Two zero-strength sides still play", t, func() {
		zero := power.Profile{}
		res, err := sim.Simulate(zero, zero, sim.NewRand(7))
		So(err, ShouldBeNil)
		So(len(res.Timeline), ShouldBeGreaterThanOrEqualTo, sim.MinEvents)
		for _, ev := range res.Timeline {
			// rolagens zeradas nunca superam a defesa
			So(ev.Kind, ShouldEqual, sim.KindSave)
			So([]string{"GK", "Defender"}, ShouldContain, ev.Actor)
		}
	})

	Convey("Empty rosters fall back to placeholder names", t, func() {
		strong := power.Profile{Attack: 100, Midfield: 100, Defense: 100, Overall: 100}
		weak := power.Profile{}
		res, err := sim.Simulate(strong, weak, sim.NewRand(3))
		So(err, ShouldBeNil)
		for _, ev := range res.Timeline {
			if ev.Kind == sim.KindGoal {
				So(ev.Actor, ShouldEqual, "Unknown Player")
			}
		}
	})

	Convey("Invalid inputs are internal simulation errors", t, func() {
		_, err := sim.Simulate(power.Profile{Attack: -1}, power.Profile{}, sim.NewRand(1))
		So(errors.Is(err, sim.ErrInternalSimulation), ShouldBeTrue)

		_, err = sim.Simulate(power.Profile{}, power.Profile{}, nil)
		So(errors.Is(err, sim.ErrInternalSimulation), ShouldBeTrue)
	})

	Convey("SafeSimulate turns a panicking source into an error", t, func() {
		_, err := sim.SafeSimulate(power.Profile{}, power.Profile{}, &simtest.Script{})
		So(errors.Is(err, sim.ErrInternalSimulation), ShouldBeTrue)
	})
}

func TestSeed(t *testing.T) {
	Convey("NewSeed reads from crypto/rand", t, func() {
		a, err := sim.NewSeed()
		So(err, ShouldBeNil)
		b, err := sim.NewSeed()
		So(err, ShouldBeNil)
		So(a, ShouldNotEqual, b)
	})
}
