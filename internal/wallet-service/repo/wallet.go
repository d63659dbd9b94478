package repo

import (
	"context"
	"errors"
	"slices"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotFound          = errors.New("not found")
	ErrNotLocked         = errors.New("wallet not locked by this transaction")
	ErrInvalidAmount     = errors.New("amount must be positive")
)

// Tx enxerga apenas as carteiras travadas em Atomically
type Tx interface {
	Balance(ctx context.Context, userID string) (int64, error)
	Debit(ctx context.Context, userID string, amount int64, ref string) error
	Credit(ctx context.Context, userID string, amount int64, ref string) error
}

// Tipos de operação gravados no ledger
const (
	OpCredit = "CREDIT"
	OpDebit  = "DEBIT"
)

// LedgerEntry espelha uma linha de wallet_ledger
type LedgerEntry struct {
	UserID      string
	Operation   string
	AmountCents int64
	Description string
}

// lockOrder remove duplicados e ordena; toda transação trava na mesma ordem (sem deadlock)
func lockOrder(userIDs []string) []string {
	ids := slices.Clone(userIDs)
	slices.Sort(ids)
	return slices.Compact(ids)
}
