package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/radieske/wager-match-engine/internal/match-service/orchestrator"
	"github.com/radieske/wager-match-engine/internal/match-service/sim"
	"github.com/radieske/wager-match-engine/internal/shared/kafka"
	"github.com/radieske/wager-match-engine/pkg/contracts/events"
)

// Kafka publica no tópico match_progress com a partida como chave (ordem por partição)
type Kafka struct {
	Writer kafka.MessageWriter
}

func NewKafka(w kafka.MessageWriter) *Kafka { return &Kafka{Writer: w} }

func (k *Kafka) publish(ctx context.Context, p events.MatchProgress) error {
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", p.Type, err)
	}
	return kafka.WriteJSON(ctx, k.Writer, p.SessionID, b)
}

func (k *Kafka) OnMatchStarted(ctx context.Context, s orchestrator.Snapshot) error {
	return k.publish(ctx, Progress(events.TypeMatchStarted, s, nil))
}

func (k *Kafka) OnEvent(ctx context.Context, s orchestrator.Snapshot, ev sim.Event, _ sim.Score) error {
	return k.publish(ctx, Progress(events.TypeMatchEvent, s, &ev))
}

func (k *Kafka) OnMatchEnded(ctx context.Context, s orchestrator.Snapshot, _ sim.Score, _ sim.Outcome) error {
	return k.publish(ctx, Progress(events.TypeMatchEnded, s, nil))
}
