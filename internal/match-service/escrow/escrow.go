// Package escrow segura a aposta das duas carteiras antes da simulação e
// distribui o pote depois dela. Toda mutação passa por Store.Atomically, que
// trava só as carteiras envolvidas.
package escrow

import (
	"context"
	"errors"
	"fmt"

	walletrepo "github.com/radieske/wager-match-engine/internal/wallet-service/repo"
)

var (
	ErrInvalidStake      = errors.New("invalid stake")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrBalanceChanged    = errors.New("balance changed since challenge")
)

// Store é o lado da carteira que o escrow consome (Postgres ou memória)
type Store interface {
	Balance(ctx context.Context, userID string) (int64, error)
	Atomically(ctx context.Context, userIDs []string, fn func(walletrepo.Tx) error) error
}

// FundsError identifica qual competidor não cobre a aposta
type FundsError struct {
	CompetitorID string
	Balance      int64
	Stake        int64
}

func (e *FundsError) Error() string {
	return fmt.Sprintf("insufficient funds: %s has %d, stake is %d", e.CompetitorID, e.Balance, e.Stake)
}

func (e *FundsError) Is(target error) bool { return target == ErrInsufficientFunds }

type Status string

const (
	StatusHeld    Status = "HELD"
	StatusSettled Status = "SETTLED"
)

// Ticket vive só durante uma partida
type Ticket struct {
	SessionID string
	Home      string
	Away      string
	Stake     int64
	Status    Status
}

// Pot é o total em jogo
func (t *Ticket) Pot() int64 { return 2 * t.Stake }

type Escrow struct {
	store    Store
	minStake int64
}

func New(store Store, minStake int64) *Escrow {
	return &Escrow{store: store, minStake: minStake}
}

func (e *Escrow) MinStake() int64 { return e.minStake }

// Validate é a checagem do desafio: não trava nada e não altera saldo
func (e *Escrow) Validate(ctx context.Context, home, away string, stake int64) error {
	if err := e.checkStake(stake); err != nil {
		return err
	}
	for _, id := range []string{home, away} {
		bal, err := e.store.Balance(ctx, id)
		if err != nil {
			return fmt.Errorf("balance %s: %w", id, err)
		}
		if bal < stake {
			return &FundsError{CompetitorID: id, Balance: bal, Stake: stake}
		}
	}
	return nil
}

// Hold relê os dois saldos sob trava e debita os dois na mesma transação.
// Qualquer falha desfaz tudo; nenhum débito parcial fica visível.
func (e *Escrow) Hold(ctx context.Context, sessionID, home, away string, stake int64) (*Ticket, error) {
	if err := e.checkStake(stake); err != nil {
		return nil, err
	}
	if home == away {
		return nil, fmt.Errorf("%w: %s on both sides", ErrInvalidStake, home)
	}

	ref := "escrow:" + sessionID
	err := e.store.Atomically(ctx, []string{home, away}, func(tx walletrepo.Tx) error {
		for _, id := range []string{home, away} {
			bal, err := tx.Balance(ctx, id)
			if err != nil {
				return err
			}
			if bal < stake {
				return fmt.Errorf("%w: %s has %d, stake is %d", ErrBalanceChanged, id, bal, stake)
			}
		}
		for _, id := range []string{home, away} {
			if err := tx.Debit(ctx, id, stake, ref); err != nil {
				if errors.Is(err, walletrepo.ErrInsufficientFunds) {
					return fmt.Errorf("%w: %v", ErrBalanceChanged, err)
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("hold %s: %w", sessionID, err)
	}

	return &Ticket{SessionID: sessionID, Home: home, Away: away, Stake: stake, Status: StatusHeld}, nil
}

func (e *Escrow) checkStake(stake int64) error {
	if stake < e.minStake {
		return fmt.Errorf("%w: %d is below the minimum of %d", ErrInvalidStake, stake, e.minStake)
	}
	return nil
}
