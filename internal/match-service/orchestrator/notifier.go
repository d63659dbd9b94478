package orchestrator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/wager-match-engine/internal/match-service/sim"
)

// Notifier recebe o progresso da partida; falhas aqui nunca travam a liquidação
type Notifier interface {
	OnMatchStarted(ctx context.Context, s Snapshot) error
	OnEvent(ctx context.Context, s Snapshot, ev sim.Event, score sim.Score) error
	OnMatchEnded(ctx context.Context, s Snapshot, final sim.Score, outcome sim.Outcome) error
}

// Estágios usados em logs e métricas
const (
	StageStarted = "started"
	StageEvent   = "event"
	StageEnded   = "ended"
	StageDropped = "dropped"
	StageStuck   = "stuck"
)

type note struct {
	stage string
	call  func(ctx context.Context) error
}

// emitter entrega as notificações de uma partida em ordem, numa goroutine própria.
// push nunca bloqueia: com o buffer cheio a notificação é descartada.
type emitter struct {
	n       Notifier
	log     *zap.Logger
	timeout time.Duration
	onError func(stage string)
	queue   chan note
	done    chan struct{}
}

func newEmitter(n Notifier, log *zap.Logger, buffer int, timeout time.Duration, onError func(string)) *emitter {
	e := &emitter{
		n:       n,
		log:     log,
		timeout: timeout,
		onError: onError,
		queue:   make(chan note, buffer),
		done:    make(chan struct{}),
	}
	go e.loop()
	return e
}

func (e *emitter) loop() {
	defer close(e.done)
	for nt := range e.queue {
		e.deliver(nt)
	}
}

func (e *emitter) deliver(nt note) {
	defer func() {
		if r := recover(); r != nil {
			e.failed(nt.stage, fmt.Errorf("%w: panic: %v", ErrNotifierUnavailable, r))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()
	if err := nt.call(ctx); err != nil {
		e.failed(nt.stage, fmt.Errorf("%w: %w", ErrNotifierUnavailable, err))
	}
}

func (e *emitter) failed(stage string, err error) {
	e.log.Warn("notify failed", zap.String("stage", stage), zap.Error(err))
	if e.onError != nil {
		e.onError(stage)
	}
}

func (e *emitter) push(stage string, call func(ctx context.Context) error) {
	if e.n == nil {
		return
	}
	select {
	case e.queue <- note{stage: stage, call: call}:
	default:
		e.failed(StageDropped, fmt.Errorf("%w: buffer full, %s dropped", ErrNotifierUnavailable, stage))
	}
}

func (e *emitter) started(s Snapshot) {
	e.push(StageStarted, func(ctx context.Context) error { return e.n.OnMatchStarted(ctx, s) })
}

func (e *emitter) event(s Snapshot, ev sim.Event) {
	e.push(StageEvent, func(ctx context.Context) error { return e.n.OnEvent(ctx, s, ev, ev.Score) })
}

func (e *emitter) ended(s Snapshot) {
	e.push(StageEnded, func(ctx context.Context) error { return e.n.OnMatchEnded(ctx, s, s.Score, s.Outcome) })
}

// close espera a fila esvaziar, no máximo um timeout por notificação pendente;
// um notifier que ignora o ctx fica para trás com a própria goroutine
func (e *emitter) close() bool {
	pending := len(e.queue)
	close(e.queue)

	timer := time.NewTimer(e.timeout * time.Duration(pending+1))
	defer timer.Stop()
	select {
	case <-e.done:
		return true
	case <-timer.C:
		e.failed(StageStuck, fmt.Errorf("%w: %d notifications still pending", ErrNotifierUnavailable, pending))
		return false
	}
}
