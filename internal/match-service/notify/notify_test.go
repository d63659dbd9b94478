package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/radieske/wager-match-engine/internal/match-service/escrow"
	"github.com/radieske/wager-match-engine/internal/match-service/orchestrator"
	"github.com/radieske/wager-match-engine/internal/match-service/sim"
	"github.com/radieske/wager-match-engine/pkg/contracts/events"
)

type memWriter struct {
	mu   sync.Mutex
	msgs []kafkago.Message
	err  error
}

func (w *memWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

type stub struct {
	calls int
	err   error
	boom  bool
}

func (s *stub) hit() error {
	s.calls++
	if s.boom {
		panic("boom")
	}
	return s.err
}

func (s *stub) OnMatchStarted(context.Context, orchestrator.Snapshot) error { return s.hit() }
func (s *stub) OnEvent(context.Context, orchestrator.Snapshot, sim.Event, sim.Score) error {
	return s.hit()
}
func (s *stub) OnMatchEnded(context.Context, orchestrator.Snapshot, sim.Score, sim.Outcome) error {
	return s.hit()
}

func sample() orchestrator.Snapshot {
	return orchestrator.Snapshot{
		ID:      "s-1",
		Home:    orchestrator.Competitor{ID: "h", Club: "Home FC"},
		Away:    orchestrator.Competitor{ID: "a", Club: "Away United"},
		Stake:   500,
		State:   orchestrator.StateSettled,
		Score:   sim.Score{Home: 2, Away: 1},
		Outcome: sim.OutcomeHome,
		Payout:  &escrow.Payout{Home: 1000},
	}
}

var goal = sim.Event{OffsetSeconds: 35, Minute: 35, Kind: sim.KindGoal, Side: sim.Away, Actor: "Away M2", Text: "GOAL!", Score: sim.Score{Home: 1, Away: 1}}

func TestProgress(t *testing.T) {
	Convey("Progress carries the running score of the event", t, func() {
		p := Progress(events.TypeMatchEvent, sample(), &goal)
		So(p.SessionID, ShouldEqual, "s-1")
		So(p.Score, ShouldResemble, events.Score{Home: 1, Away: 1})
		So(p.Event.Actor, ShouldEqual, "Away M2")
		So(p.Event.Kind, ShouldEqual, "goal")
	})

	Convey("The ended envelope carries the payout", t, func() {
		p := Progress(events.TypeMatchEnded, sample(), nil)
		So(p.Event, ShouldBeNil)
		So(p.Outcome, ShouldEqual, "home")
		So(p.HomePayout, ShouldEqual, 1000)
		So(p.AwayPayout, ShouldEqual, 0)
	})
}

func TestKafka(t *testing.T) {
	ctx := context.Background()

	Convey("Given a Kafka notifier", t, func() {
		w := &memWriter{}
		k := NewKafka(w)

		Convey("Every message is keyed by the session", func() {
			So(k.OnMatchStarted(ctx, sample()), ShouldBeNil)
			So(k.OnEvent(ctx, sample(), goal, goal.Score), ShouldBeNil)
			So(k.OnMatchEnded(ctx, sample(), sample().Score, sample().Outcome), ShouldBeNil)

			So(w.msgs, ShouldHaveLength, 3)
			var types []string
			for _, m := range w.msgs {
				So(string(m.Key), ShouldEqual, "s-1")
				var p events.MatchProgress
				So(json.Unmarshal(m.Value, &p), ShouldBeNil)
				types = append(types, p.Type)
			}
			So(types, ShouldResemble, []string{events.TypeMatchStarted, events.TypeMatchEvent, events.TypeMatchEnded})
		})

		Convey("Broker errors are returned to the caller", func() {
			w.err = errors.New("leader not available")
			So(k.OnMatchStarted(ctx, sample()), ShouldNotBeNil)
		})
	})
}

func TestMulti(t *testing.T) {
	ctx := context.Background()

	Convey("Multi reaches every notifier even when some fail", t, func() {
		ok, bad, wild := &stub{}, &stub{err: errors.New("down")}, &stub{boom: true}
		m := Multi{bad, wild, ok}

		err := m.OnEvent(ctx, sample(), goal, goal.Score)
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "down")
		So(err.Error(), ShouldContainSubstring, "panicked")
		So(ok.calls, ShouldEqual, 1)
		So(bad.calls, ShouldEqual, 1)
		So(wild.calls, ShouldEqual, 1)

		So(Multi{ok}.OnMatchEnded(ctx, sample(), sample().Score, sample().Outcome), ShouldBeNil)
	})
}

func TestLog(t *testing.T) {
	ctx := context.Background()

	Convey("The log notifier narrates the match", t, func() {
		core, logs := observer.New(zap.InfoLevel)
		n := NewLog(zap.New(core))

		So(n.OnMatchStarted(ctx, sample()), ShouldBeNil)
		So(n.OnEvent(ctx, sample(), goal, goal.Score), ShouldBeNil)
		So(n.OnMatchEnded(ctx, sample(), sample().Score, sample().Outcome), ShouldBeNil)

		entries := logs.All()
		So(entries, ShouldHaveLength, 3)
		So(entries[0].Message, ShouldEqual, "kick-off")
		So(entries[1].Message, ShouldEqual, "GOAL!")
		So(entries[2].ContextMap()["outcome"], ShouldEqual, "home")
	})
}
