package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/radieske/wager-match-engine/internal/match-service/orchestrator"
	"github.com/radieske/wager-match-engine/internal/match-service/sim"
)

// Log escreve a narração no log; útil em ambiente local sem Kafka/Redis
type Log struct{ L *zap.Logger }

func NewLog(l *zap.Logger) *Log { return &Log{L: l} }

func (n *Log) OnMatchStarted(_ context.Context, s orchestrator.Snapshot) error {
	n.L.Info("kick-off", zap.String("session_id", s.ID),
		zap.String("home", s.Home.Club), zap.String("away", s.Away.Club), zap.Int64("stake", s.Stake))
	return nil
}

func (n *Log) OnEvent(_ context.Context, s orchestrator.Snapshot, ev sim.Event, score sim.Score) error {
	n.L.Info(ev.Text, zap.String("session_id", s.ID), zap.Int("minute", ev.Minute),
		zap.String("kind", string(ev.Kind)), zap.String("side", string(ev.Side)),
		zap.Int("home", score.Home), zap.Int("away", score.Away))
	return nil
}

func (n *Log) OnMatchEnded(_ context.Context, s orchestrator.Snapshot, final sim.Score, outcome sim.Outcome) error {
	n.L.Info("full time", zap.String("session_id", s.ID),
		zap.Int("home", final.Home), zap.Int("away", final.Away), zap.String("outcome", string(outcome)))
	return nil
}
