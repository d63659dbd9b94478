package orchestrator

import (
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/wager-match-engine/internal/match-service/escrow"
	"github.com/radieske/wager-match-engine/internal/match-service/sim"
)

type decision struct {
	accept bool
	by     string
}

// session é uma partida em andamento; vive em memória até o estado terminal
type session struct {
	id        string
	home      Competitor
	away      Competitor
	stake     int64
	createdAt time.Time
	log       *zap.Logger
	decisions chan decision // cap 1: só existe uma resposta por desafio
	out       *emitter

	mu        sync.Mutex
	state     State
	reason    string
	score     sim.Score
	outcome   sim.Outcome
	events    []sim.Event
	payout    *escrow.Payout
	seed      uint64
	updatedAt time.Time
}

func (s *session) snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:        s.id,
		Home:      s.home,
		Away:      s.away,
		Stake:     s.stake,
		State:     s.state,
		Reason:    s.reason,
		Score:     s.score,
		Outcome:   s.outcome,
		Events:    slices.Clone(s.events),
		Seed:      s.seed,
		CreatedAt: s.createdAt,
		UpdatedAt: s.updatedAt,
	}
	if s.payout != nil {
		p := *s.payout
		snap.Payout = &p
	}
	return snap
}

func (s *session) setState(st State) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moveLocked(st, "")
	return s.snapshotLocked()
}

func (s *session) fail(st State, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moveLocked(st, reason)
}

func (s *session) moveLocked(st State, reason string) {
	s.log.Info("match state", zap.String("from", string(s.state)), zap.String("to", string(st)), zap.String("reason", reason))
	s.state = st
	if reason != "" {
		s.reason = reason
	}
	s.updatedAt = time.Now()
}

func (s *session) setReason(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reason = reason
}

// answer registra aceite ou recusa; só vale enquanto PROPOSED
func (s *session) answer(d decision) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateProposed {
		return Snapshot{}, ErrInvalidTransition
	}
	if d.accept {
		s.moveLocked(StateAccepted, "")
	} else {
		s.moveLocked(StateDeclined, "declined by "+d.by)
	}
	s.decisions <- d
	return s.snapshotLocked(), nil
}

// expire cancela se ninguém respondeu; false quando a resposta chegou antes
func (s *session) expire(reason string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateProposed {
		return false
	}
	s.moveLocked(StateCancelled, reason)
	return true
}

// show registra um lance exibido e devolve a visão atualizada
func (s *session) show(ev sim.Event) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	s.score = ev.Score
	s.updatedAt = time.Now()
	return s.snapshotLocked()
}

func (s *session) settled(final sim.Score, outcome sim.Outcome, pay escrow.Payout) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.score = final
	s.outcome = outcome
	s.payout = &pay
	s.moveLocked(StateSettled, "")
	return s.snapshotLocked()
}
