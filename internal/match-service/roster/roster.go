// Package roster carrega a escalação e o nível de treino de um competidor.
package roster

import (
	"context"
	"errors"
	"sync"

	"github.com/radieske/wager-match-engine/internal/match-service/power"
)

var ErrNotFound = errors.New("competitor not found")

// Squad é o que a partida precisa saber de um clube
type Squad struct {
	ClubName      string
	Lineup        power.Lineup
	TrainingLevel int
}

// Provider é a fonte das escalações (banco do jogo ou memória)
type Provider interface {
	GetLineup(ctx context.Context, competitorID string) (Squad, error)
}

// Memory guarda escalações em mapa; usado em ambiente local e testes
type Memory struct {
	mu     sync.RWMutex
	squads map[string]Squad
}

func NewMemory() *Memory { return &Memory{squads: make(map[string]Squad)} }

func (m *Memory) Put(competitorID string, s Squad) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.squads[competitorID] = s
}

func (m *Memory) GetLineup(_ context.Context, competitorID string) (Squad, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.squads[competitorID]
	if !ok {
		return Squad{}, ErrNotFound
	}
	out := s
	out.Lineup = power.NewLineup()
	for slot, u := range s.Lineup.Slots {
		out.Lineup.Set(slot, u)
	}
	return out, nil
}
