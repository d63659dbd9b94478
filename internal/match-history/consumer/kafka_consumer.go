package consumer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	sharedkafka "github.com/radieske/wager-match-engine/internal/shared/kafka"
	"github.com/radieske/wager-match-engine/pkg/contracts/events"
)

// MessageReader é o que *kafka.Reader oferece para consumir
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// Store é onde o histórico é gravado
type Store interface {
	SaveResult(ctx context.Context, e events.MatchProgress) error
	AppendEvent(ctx context.Context, e events.MatchProgress) error
}

// Processor consome match_progress e persiste lances e resultados finais
type Processor struct {
	Log    *zap.Logger
	Reader MessageReader
	Repo   Store
	DLQ    sharedkafka.MessageWriter // opcional: mensagens ilegíveis

	OnConsumed func()       // métricas (counter++)
	OnPersist  func(string) // métricas por tipo
	OnError    func(string) // métricas por fase
}

// Run consome até o contexto ser cancelado
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			p.fail("read")
			time.Sleep(500 * time.Millisecond)
			continue
		}
		if p.OnConsumed != nil {
			p.OnConsumed()
		}
		p.handle(ctx, m)
	}
}

func (p *Processor) handle(ctx context.Context, m kafka.Message) {
	var ev events.MatchProgress
	if err := json.Unmarshal(m.Value, &ev); err != nil || ev.SessionID == "" {
		p.Log.Warn("invalid message", zap.ByteString("key", m.Key), zap.Error(err))
		p.fail("decode")
		if p.DLQ != nil {
			if err := sharedkafka.WriteJSON(ctx, p.DLQ, string(m.Key), m.Value); err != nil {
				p.Log.Warn("dlq write failed", zap.Error(err))
			}
		}
		return
	}

	var err error
	switch ev.Type {
	case events.TypeMatchEvent:
		if ev.Event == nil {
			p.Log.Warn("match_event without event", zap.String("session_id", ev.SessionID))
			p.fail("decode")
			return
		}
		err = p.Repo.AppendEvent(ctx, ev)
	case events.TypeMatchEnded:
		err = p.Repo.SaveResult(ctx, ev)
	default:
		return // match_started não vai para o histórico
	}
	if err != nil {
		p.Log.Warn("db write failed", zap.String("session_id", ev.SessionID), zap.String("type", ev.Type), zap.Error(err))
		p.fail("db")
		return
	}
	if p.OnPersist != nil {
		p.OnPersist(ev.Type)
	}
}

func (p *Processor) fail(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}
