package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/radieske/wager-match-engine/internal/match-service/orchestrator"
	"github.com/radieske/wager-match-engine/internal/match-service/sim"
)

// Multi repassa para todos os notifiers; a falha de um não impede os demais
type Multi []orchestrator.Notifier

func (m Multi) each(fn func(orchestrator.Notifier) error) error {
	var errs []error
	for _, n := range m {
		if err := guard(n, fn); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func guard(n orchestrator.Notifier, fn func(orchestrator.Notifier) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%T panicked: %v", n, r)
		}
	}()
	return fn(n)
}

func (m Multi) OnMatchStarted(ctx context.Context, s orchestrator.Snapshot) error {
	return m.each(func(n orchestrator.Notifier) error { return n.OnMatchStarted(ctx, s) })
}

func (m Multi) OnEvent(ctx context.Context, s orchestrator.Snapshot, ev sim.Event, score sim.Score) error {
	return m.each(func(n orchestrator.Notifier) error { return n.OnEvent(ctx, s, ev, score) })
}

func (m Multi) OnMatchEnded(ctx context.Context, s orchestrator.Snapshot, final sim.Score, outcome sim.Outcome) error {
	return m.each(func(n orchestrator.Notifier) error { return n.OnMatchEnded(ctx, s, final, outcome) })
}
