// Package notify publica o progresso das partidas: Kafka para o histórico,
// Redis Pub/Sub para o WebSocket e log estruturado.
package notify

import (
	"time"

	"github.com/radieske/wager-match-engine/internal/match-service/orchestrator"
	"github.com/radieske/wager-match-engine/internal/match-service/sim"
	"github.com/radieske/wager-match-engine/pkg/contracts/events"
)

// Progress monta o envelope publicado em todos os canais
func Progress(typ string, s orchestrator.Snapshot, ev *sim.Event) events.MatchProgress {
	p := events.MatchProgress{
		Type:       typ,
		SessionID:  s.ID,
		HomeID:     s.Home.ID,
		AwayID:     s.Away.ID,
		HomeClub:   s.Home.Club,
		AwayClub:   s.Away.Club,
		StakeCents: s.Stake,
		State:      string(s.State),
		Score:      events.Score{Home: s.Score.Home, Away: s.Score.Away},
		Outcome:    string(s.Outcome),
		Reason:     s.Reason,
		Ts:         time.Now().UTC(),
	}
	if s.Payout != nil {
		p.HomePayout = s.Payout.Home
		p.AwayPayout = s.Payout.Away
	}
	if ev != nil {
		p.Score = events.Score{Home: ev.Score.Home, Away: ev.Score.Away}
		p.Event = &events.Event{
			OffsetSeconds: ev.OffsetSeconds,
			Minute:        ev.Minute,
			Kind:          string(ev.Kind),
			Side:          string(ev.Side),
			Actor:         ev.Actor,
			Text:          ev.Text,
		}
	}
	return p
}
