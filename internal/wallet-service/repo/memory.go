package repo

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Memory é uma carteira em memória com uma trava por carteira.
// Serve para ambiente local e testes; mesma semântica do Postgres.
type Memory struct {
	mu       sync.RWMutex // protege só o mapa, nunca os saldos
	accounts map[string]*account
}

type account struct {
	mu       sync.Mutex
	walletID string
	balance  int64
	ledger   []LedgerEntry
}

func NewMemory() *Memory {
	return &Memory{accounts: make(map[string]*account)}
}

// Open cria a carteira com saldo inicial (ou soma ao saldo existente)
func (m *Memory) Open(userID string, balance int64) {
	a := m.getOrCreate(userID)
	a.mu.Lock()
	defer a.mu.Unlock()
	a.balance += balance
}

func (m *Memory) getOrCreate(userID string) *account {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[userID]
	if !ok {
		a = &account{walletID: uuid.New().String()}
		m.accounts[userID] = a
	}
	return a
}

func (m *Memory) get(userID string) (*account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[userID]
	if !ok {
		return nil, fmt.Errorf("wallet %s: %w", userID, ErrNotFound)
	}
	return a, nil
}

func (m *Memory) GetOrCreateWallet(_ context.Context, userID string) (string, int64, error) {
	a := m.getOrCreate(userID)
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.walletID, a.balance, nil
}

func (m *Memory) Balance(_ context.Context, userID string) (int64, error) {
	a, err := m.get(userID)
	if err != nil {
		return 0, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance, nil
}

// Ledger devolve uma cópia das operações da carteira
func (m *Memory) Ledger(userID string) []LedgerEntry {
	a, err := m.get(userID)
	if err != nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]LedgerEntry(nil), a.ledger...)
}

func (m *Memory) Deposit(ctx context.Context, userID string, amount int64, externalRef string) (string, int64, error) {
	if amount <= 0 {
		return "", 0, ErrInvalidAmount
	}
	m.getOrCreate(userID)
	return m.single(ctx, userID, func(tx Tx) error {
		return tx.Credit(ctx, userID, amount, "deposit:"+externalRef)
	})
}

func (m *Memory) Withdraw(ctx context.Context, userID string, amount int64, externalRef string) (string, int64, error) {
	if amount <= 0 {
		return "", 0, ErrInvalidAmount
	}
	return m.single(ctx, userID, func(tx Tx) error {
		return tx.Debit(ctx, userID, amount, "withdraw:"+externalRef)
	})
}

func (m *Memory) single(ctx context.Context, userID string, fn func(Tx) error) (walletID string, balance int64, err error) {
	err = m.Atomically(ctx, []string{userID}, func(tx Tx) error {
		if err := fn(tx); err != nil {
			return err
		}
		walletID = tx.(*memTx).accounts[userID].walletID
		balance, err = tx.Balance(ctx, userID)
		return err
	})
	return walletID, balance, err
}

// Atomically trava as carteiras em ordem, aplica as mudanças só se fn não falhar
// e sempre libera as travas
func (m *Memory) Atomically(ctx context.Context, userIDs []string, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ids := lockOrder(userIDs)
	locked := make(map[string]*account, len(ids))
	for _, id := range ids {
		a, err := m.get(id)
		if err != nil {
			return err
		}
		locked[id] = a
	}

	for _, id := range ids {
		locked[id].mu.Lock()
		defer locked[id].mu.Unlock()
	}

	tx := &memTx{accounts: locked, delta: make(map[string]int64, len(ids))}
	if err := fn(tx); err != nil {
		return err
	}
	for id, d := range tx.delta {
		locked[id].balance += d
	}
	for _, e := range tx.entries {
		locked[e.UserID].ledger = append(locked[e.UserID].ledger, e)
	}
	return nil
}

type memTx struct {
	accounts map[string]*account
	delta    map[string]int64
	entries  []LedgerEntry
}

func (t *memTx) account(userID string) (*account, error) {
	a, ok := t.accounts[userID]
	if !ok {
		return nil, fmt.Errorf("wallet %s: %w", userID, ErrNotLocked)
	}
	return a, nil
}

func (t *memTx) Balance(_ context.Context, userID string) (int64, error) {
	a, err := t.account(userID)
	if err != nil {
		return 0, err
	}
	return a.balance + t.delta[userID], nil
}

func (t *memTx) Debit(ctx context.Context, userID string, amount int64, ref string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	bal, err := t.Balance(ctx, userID)
	if err != nil {
		return err
	}
	if bal < amount {
		return fmt.Errorf("wallet %s: %w", userID, ErrInsufficientFunds)
	}
	t.delta[userID] -= amount
	t.entries = append(t.entries, LedgerEntry{UserID: userID, Operation: OpDebit, AmountCents: amount, Description: ref})
	return nil
}

func (t *memTx) Credit(_ context.Context, userID string, amount int64, ref string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if _, err := t.account(userID); err != nil {
		return err
	}
	t.delta[userID] += amount
	t.entries = append(t.entries, LedgerEntry{UserID: userID, Operation: OpCredit, AmountCents: amount, Description: ref})
	return nil
}
