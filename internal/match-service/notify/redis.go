package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/wager-match-engine/internal/match-service/orchestrator"
	"github.com/radieske/wager-match-engine/internal/match-service/sim"
	"github.com/radieske/wager-match-engine/pkg/contracts/events"
)

// WSUpdate é o payload do canal lido pelo hub WebSocket
type WSUpdate struct {
	SessionID string               `json:"sessionId"`
	Payload   events.MatchProgress `json:"payload"`
}

// Redis faz broadcast do progresso e guarda a última visão de cada partida
type Redis struct {
	Client  *redis.Client
	Channel string
	TTL     time.Duration
}

func NewRedis(c *redis.Client, channel string, ttl time.Duration) *Redis {
	return &Redis{Client: c, Channel: channel, TTL: ttl}
}

func snapshotKey(sessionID string) string { return "match:snapshot:" + sessionID }

func (r *Redis) broadcast(ctx context.Context, p events.MatchProgress) error {
	b, err := json.Marshal(WSUpdate{SessionID: p.SessionID, Payload: p})
	if err != nil {
		return err
	}
	return r.Client.Publish(ctx, r.Channel, b).Err()
}

func (r *Redis) OnMatchStarted(ctx context.Context, s orchestrator.Snapshot) error {
	return r.broadcast(ctx, Progress(events.TypeMatchStarted, s, nil))
}

func (r *Redis) OnEvent(ctx context.Context, s orchestrator.Snapshot, ev sim.Event, _ sim.Score) error {
	return r.broadcast(ctx, Progress(events.TypeMatchEvent, s, &ev))
}

func (r *Redis) OnMatchEnded(ctx context.Context, s orchestrator.Snapshot, _ sim.Score, _ sim.Outcome) error {
	return r.broadcast(ctx, Progress(events.TypeMatchEnded, s, nil))
}

// SaveSnapshot guarda a visão final; partidas encerradas saem da memória do serviço
func (r *Redis) SaveSnapshot(ctx context.Context, s orchestrator.Snapshot) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return r.Client.Set(ctx, snapshotKey(s.ID), b, r.TTL).Err()
}

// LoadSnapshot devolve false quando a chave não existe ou expirou
func (r *Redis) LoadSnapshot(ctx context.Context, sessionID string) (orchestrator.Snapshot, bool, error) {
	b, err := r.Client.Get(ctx, snapshotKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return orchestrator.Snapshot{}, false, nil
	}
	if err != nil {
		return orchestrator.Snapshot{}, false, err
	}
	var s orchestrator.Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return orchestrator.Snapshot{}, false, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return s, true, nil
}
