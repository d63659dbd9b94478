package orchestrator

import (
	"errors"
	"time"

	"github.com/radieske/wager-match-engine/internal/match-service/escrow"
	"github.com/radieske/wager-match-engine/internal/match-service/power"
	"github.com/radieske/wager-match-engine/internal/match-service/sim"
)

type State string

const (
	StateProposed     State = "PROPOSED"
	StateAccepted     State = "ACCEPTED"
	StateEscrowed     State = "ESCROWED"
	StateSimulating   State = "SIMULATING"
	StatePlaying      State = "PLAYING"
	StateSettled      State = "SETTLED"
	StateDeclined     State = "DECLINED"
	StateCancelled    State = "CANCELLED"
	StateEscrowFailed State = "ESCROW_FAILED"
)

func (s State) Terminal() bool {
	switch s {
	case StateSettled, StateDeclined, StateCancelled, StateEscrowFailed:
		return true
	}
	return false
}

var (
	ErrSelfChallenge       = errors.New("cannot challenge yourself")
	ErrSessionNotFound     = errors.New("match not found")
	ErrNotParticipant      = errors.New("not a participant of this match")
	ErrInvalidTransition   = errors.New("match is no longer waiting for an answer")
	ErrNotifierUnavailable = errors.New("progress notifier unavailable")
	ErrShuttingDown        = errors.New("match service is shutting down")
)

type ChallengeRequest struct {
	Home  string `json:"home"`
	Away  string `json:"away"`
	Stake int64  `json:"stake"`
}

// Competitor é um lado da partida com o perfil já calculado
type Competitor struct {
	ID      string        `json:"id"`
	Club    string        `json:"club"`
	Profile power.Profile `json:"profile"`
}

// Snapshot é a visão somente leitura de uma partida
type Snapshot struct {
	ID        string         `json:"id"`
	Home      Competitor     `json:"home"`
	Away      Competitor     `json:"away"`
	Stake     int64          `json:"stake"`
	State     State          `json:"state"`
	Reason    string         `json:"reason,omitempty"`
	Score     sim.Score      `json:"score"`
	Outcome   sim.Outcome    `json:"outcome,omitempty"`
	Events    []sim.Event    `json:"events,omitempty"` // lances já exibidos
	Payout    *escrow.Payout `json:"payout,omitempty"`
	Seed      uint64         `json:"seed,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
