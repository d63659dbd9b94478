package roster

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/radieske/wager-match-engine/internal/match-service/power"
)

// Postgres lê clubs (nome e nível de treino) e lineup_slots (posição -> jogador)
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

func (p *Postgres) GetLineup(ctx context.Context, competitorID string) (Squad, error) {
	var s Squad
	err := p.db.QueryRowContext(ctx,
		`SELECT club_name, training_level FROM clubs WHERE user_id=$1`, competitorID,
	).Scan(&s.ClubName, &s.TrainingLevel)
	if errors.Is(err, sql.ErrNoRows) {
		return Squad{}, fmt.Errorf("%s: %w", competitorID, ErrNotFound)
	}
	if err != nil {
		return Squad{}, fmt.Errorf("query club: %w", err)
	}

	rows, err := p.db.QueryContext(ctx,
		`SELECT slot, unit_name, rating FROM lineup_slots WHERE user_id=$1`, competitorID)
	if err != nil {
		return Squad{}, fmt.Errorf("query lineup: %w", err)
	}
	defer rows.Close()

	s.Lineup = power.NewLineup()
	for rows.Next() {
		var raw, name string
		var rating int
		if err := rows.Scan(&raw, &name, &rating); err != nil {
			return Squad{}, fmt.Errorf("scan lineup: %w", err)
		}
		slot, err := power.ParseSlot(raw)
		if err != nil {
			return Squad{}, err
		}
		s.Lineup.Set(slot, power.Unit{Name: name, Rating: rating})
	}
	if err := rows.Err(); err != nil {
		return Squad{}, fmt.Errorf("iterate lineup: %w", err)
	}
	return s, nil
}
