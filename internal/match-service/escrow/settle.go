package escrow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/wager-match-engine/internal/match-service/sim"
	walletrepo "github.com/radieske/wager-match-engine/internal/wallet-service/repo"
)

// Payout é o que cada lado recebeu; Home+Away sempre igual ao pote
type Payout struct {
	Home int64 `json:"home"`
	Away int64 `json:"away"`
}

func (p Payout) Total() int64 { return p.Home + p.Away }

// PayoutFor divide o pote: vencedor leva tudo, empate devolve a aposta de cada um
func PayoutFor(t *Ticket, outcome sim.Outcome) Payout {
	switch outcome {
	case sim.OutcomeHome:
		return Payout{Home: t.Pot()}
	case sim.OutcomeAway:
		return Payout{Away: t.Pot()}
	case sim.OutcomeDraw:
		return Payout{Home: t.Stake, Away: t.Stake}
	default:
		panic(fmt.Sprintf("escrow: unknown outcome %q", outcome))
	}
}

type Settler struct {
	store Store
	log   *zap.Logger

	// Espera entre tentativas: Backoff, 2*Backoff, ... até MaxBackoff
	Backoff    time.Duration
	MaxBackoff time.Duration
}

func NewSettler(store Store, log *zap.Logger) *Settler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Settler{store: store, log: log, Backoff: 300 * time.Millisecond, MaxBackoff: 10 * time.Second}
}

// Settle credita o pote uma única vez. Falhas da carteira são repetidas até
// dar certo, mesmo com o contexto do chamador cancelado; carteira sumida também
// entra no retry até alguém restaurá-la. Só devolve erro para chamadas que
// nunca vão funcionar (valor inválido, carteira fora da trava).
// Chamar com ticket que não está HELD é erro de programação.
func (s *Settler) Settle(ctx context.Context, t *Ticket, outcome sim.Outcome) (Payout, error) {
	if t == nil || t.Status != StatusHeld {
		panic("escrow: settle on a ticket that is not held")
	}
	pay := PayoutFor(t, outcome)
	ctx = context.WithoutCancel(ctx)
	ref := "settle:" + t.SessionID

	wait := max(s.Backoff, time.Millisecond)
	for attempt := 1; ; attempt++ {
		err := s.store.Atomically(ctx, []string{t.Home, t.Away}, func(tx walletrepo.Tx) error {
			if pay.Home > 0 {
				if err := tx.Credit(ctx, t.Home, pay.Home, ref); err != nil {
					return err
				}
			}
			if pay.Away > 0 {
				if err := tx.Credit(ctx, t.Away, pay.Away, ref); err != nil {
					return err
				}
			}
			return nil
		})
		if err == nil {
			t.Status = StatusSettled
			return pay, nil
		}
		if permanent(err) {
			s.log.Error("settlement cannot be applied",
				zap.String("session_id", t.SessionID), zap.Int64("pot", t.Pot()), zap.Error(err))
			return Payout{}, fmt.Errorf("settle %s: %w", t.SessionID, err)
		}

		s.log.Warn("settlement failed, retrying",
			zap.String("session_id", t.SessionID), zap.Int("attempt", attempt),
			zap.Duration("backoff", wait), zap.Error(err))
		time.Sleep(wait)
		wait *= 2
		if s.MaxBackoff > 0 && wait > s.MaxBackoff {
			wait = s.MaxBackoff
		}
	}
}

func permanent(err error) bool {
	return errors.Is(err, walletrepo.ErrNotLocked) ||
		errors.Is(err, walletrepo.ErrInvalidAmount)
}
