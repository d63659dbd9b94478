package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Postgres implementa operações de carteira em banco
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// GetOrCreateWallet retorna o walletId e saldo de um usuário, criando a carteira se não existir
// Usa transação para garantir atomicidade
func (p *Postgres) GetOrCreateWallet(ctx context.Context, userID string) (walletID string, balance int64, err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", 0, err
	}
	defer tx.Rollback()

	var id string
	var bal int64
	err = tx.QueryRowContext(ctx, `SELECT id, balance_cents FROM wallets WHERE user_id=$1`, userID).Scan(&id, &bal)
	if errors.Is(err, sql.ErrNoRows) {
		id = uuid.New().String()
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO wallets(id, user_id, balance_cents, version) VALUES($1,$2,0,1)`,
			id, userID); err != nil {
			return "", 0, err
		}
		bal = 0
	} else if err != nil {
		return "", 0, err
	}

	if err = tx.Commit(); err != nil {
		return "", 0, err
	}

	return id, bal, nil
}

// Balance lê o saldo sem travar a linha (usado só em validações prévias)
func (p *Postgres) Balance(ctx context.Context, userID string) (int64, error) {
	var bal int64
	err := p.db.QueryRowContext(ctx, `SELECT balance_cents FROM wallets WHERE user_id=$1`, userID).Scan(&bal)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("wallet %s: %w", userID, ErrNotFound)
	}
	return bal, err
}

// Deposit incrementa o saldo da carteira e registra a operação no ledger
// A carteira é criada no primeiro depósito, como no Memory
func (p *Postgres) Deposit(ctx context.Context, userID string, amount int64, externalRef string) (walletID string, newBalance int64, err error) {
	if amount <= 0 {
		return "", 0, ErrInvalidAmount
	}
	if _, _, err := p.GetOrCreateWallet(ctx, userID); err != nil {
		return "", 0, err
	}
	err = p.Atomically(ctx, []string{userID}, func(tx Tx) error {
		if err := tx.Credit(ctx, userID, amount, "deposit:"+externalRef); err != nil {
			return err
		}
		walletID = tx.(*pgTx).wallets[userID]
		newBalance, err = tx.Balance(ctx, userID)
		return err
	})
	return walletID, newBalance, err
}

// Withdraw debita saldo fora de partidas (venda, troca, saque)
// Disputa a mesma trava de linha que o escrow das partidas
func (p *Postgres) Withdraw(ctx context.Context, userID string, amount int64, externalRef string) (walletID string, newBalance int64, err error) {
	if amount <= 0 {
		return "", 0, ErrInvalidAmount
	}
	err = p.Atomically(ctx, []string{userID}, func(tx Tx) error {
		if err := tx.Debit(ctx, userID, amount, "withdraw:"+externalRef); err != nil {
			return err
		}
		walletID = tx.(*pgTx).wallets[userID]
		newBalance, err = tx.Balance(ctx, userID)
		return err
	})
	return walletID, newBalance, err
}

// Atomically trava as carteiras (FOR UPDATE, em ordem de user_id), executa fn
// e faz commit só se fn não falhar; qualquer erro desfaz tudo
func (p *Postgres) Atomically(ctx context.Context, userIDs []string, fn func(Tx) error) error {
	ids := lockOrder(userIDs)

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT id, user_id FROM wallets WHERE user_id = ANY($1) ORDER BY user_id FOR UPDATE`,
		pq.Array(ids))
	if err != nil {
		return err
	}
	wallets := make(map[string]string, len(ids))
	for rows.Next() {
		var walletID, userID string
		if err := rows.Scan(&walletID, &userID); err != nil {
			rows.Close()
			return err
		}
		wallets[userID] = walletID
	}
	if err := rows.Close(); err != nil {
		return err
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for _, id := range ids {
		if _, ok := wallets[id]; !ok {
			return fmt.Errorf("wallet %s: %w", id, ErrNotFound)
		}
	}

	if err := fn(&pgTx{tx: tx, wallets: wallets}); err != nil {
		return err
	}
	return tx.Commit()
}

// pgTx opera apenas nas linhas já travadas
type pgTx struct {
	tx      *sql.Tx
	wallets map[string]string // user_id -> wallet id
}

func (t *pgTx) walletID(userID string) (string, error) {
	id, ok := t.wallets[userID]
	if !ok {
		return "", fmt.Errorf("wallet %s: %w", userID, ErrNotLocked)
	}
	return id, nil
}

func (t *pgTx) Balance(ctx context.Context, userID string) (int64, error) {
	id, err := t.walletID(userID)
	if err != nil {
		return 0, err
	}
	var bal int64
	err = t.tx.QueryRowContext(ctx, `SELECT balance_cents FROM wallets WHERE id=$1`, id).Scan(&bal)
	return bal, err
}

// Debit é condicional: nunca deixa saldo negativo
func (t *pgTx) Debit(ctx context.Context, userID string, amount int64, ref string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	id, err := t.walletID(userID)
	if err != nil {
		return err
	}
	res, err := t.tx.ExecContext(ctx,
		`UPDATE wallets SET balance_cents = balance_cents - $1, version = version + 1 WHERE id=$2 AND balance_cents >= $1`,
		amount, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return fmt.Errorf("wallet %s: %w", userID, ErrInsufficientFunds)
	}
	return t.ledger(ctx, id, OpDebit, amount, ref)
}

func (t *pgTx) Credit(ctx context.Context, userID string, amount int64, ref string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	id, err := t.walletID(userID)
	if err != nil {
		return err
	}
	if _, err := t.tx.ExecContext(ctx,
		`UPDATE wallets SET balance_cents = balance_cents + $1, version = version + 1 WHERE id=$2`,
		amount, id); err != nil {
		return err
	}
	return t.ledger(ctx, id, OpCredit, amount, ref)
}

func (t *pgTx) ledger(ctx context.Context, walletID, op string, amount int64, ref string) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO wallet_ledger(wallet_id, operation_type, amount_cents, description) VALUES($1,$2,$3,$4)`,
		walletID, op, amount, ref)
	return err
}
