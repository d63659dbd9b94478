package repository

import (
	"context"
	"database/sql"

	"github.com/radieske/wager-match-engine/pkg/contracts/events"
)

// PostgresRepo grava o histórico das partidas
type PostgresRepo struct {
	DB *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{DB: db}
}

// SaveResult grava o resultado final; reentrega do Kafka não duplica (session_id único)
func (r *PostgresRepo) SaveResult(ctx context.Context, e events.MatchProgress) error {
	const q = `
		INSERT INTO match_results
		  (session_id, home_id, away_id, home_club, away_club, stake_cents,
		   home_score, away_score, outcome, home_payout_cents, away_payout_cents, reason, finished_at)
		VALUES
		  ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (session_id) DO NOTHING
	`
	_, err := r.DB.ExecContext(ctx, q,
		e.SessionID, e.HomeID, e.AwayID, e.HomeClub, e.AwayClub, e.StakeCents,
		e.Score.Home, e.Score.Away, e.Outcome, e.HomePayout, e.AwayPayout, e.Reason, e.Ts,
	)
	return err
}

// AppendEvent grava um lance da linha do tempo
func (r *PostgresRepo) AppendEvent(ctx context.Context, e events.MatchProgress) error {
	const q = `
		INSERT INTO match_timeline
		  (session_id, offset_seconds, minute, kind, side, actor, text, home_score, away_score)
		VALUES
		  ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (session_id, offset_seconds) DO NOTHING
	`
	_, err := r.DB.ExecContext(ctx, q,
		e.SessionID, e.Event.OffsetSeconds, e.Event.Minute, e.Event.Kind, e.Event.Side,
		e.Event.Actor, e.Event.Text, e.Score.Home, e.Score.Away,
	)
	return err
}
