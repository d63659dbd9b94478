// Package power transforma uma escalação de 11 jogadores em um perfil de força
// (ataque, meio, defesa e geral) usado pelo simulador.
package power

import (
	"errors"
	"fmt"
	"strings"
)

// Slot é uma posição da escalação
type Slot string

const (
	GK Slot = "GK"
	D1 Slot = "D1"
	D2 Slot = "D2"
	D3 Slot = "D3"
	D4 Slot = "D4"
	M1 Slot = "M1"
	M2 Slot = "M2"
	M3 Slot = "M3"
	F1 Slot = "F1"
	F2 Slot = "F2"
	F3 Slot = "F3"
)

// Ordem canônica das posições; define a ordem dos nomes no Roster
var (
	ForwardSlots  = []Slot{F1, F2, F3}
	MidfieldSlots = []Slot{M1, M2, M3}
	DefenderSlots = []Slot{D1, D2, D3, D4}
	AllSlots      = []Slot{GK, D1, D2, D3, D4, M1, M2, M3, F1, F2, F3}
)

var ErrUnknownSlot = errors.New("unknown slot")

// ParseSlot aceita "gk", "d1", ... sem diferenciar maiúsculas
func ParseSlot(s string) (Slot, error) {
	slot := Slot(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range AllSlots {
		if slot == known {
			return slot, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSlot, s)
}

// Unit é um jogador escalado
type Unit struct {
	Name   string `json:"name"`
	Rating int    `json:"rating"`
}

// Lineup mapeia posição -> jogador
type Lineup struct {
	Slots map[Slot]Unit `json:"slots"`
}

// NewLineup cria uma escalação vazia
func NewLineup() Lineup { return Lineup{Slots: make(map[Slot]Unit, len(AllSlots))} }

// Set escala um jogador na posição, substituindo quem estiver lá
func (l *Lineup) Set(slot Slot, u Unit) {
	if l.Slots == nil {
		l.Slots = make(map[Slot]Unit, len(AllSlots))
	}
	l.Slots[slot] = u
}

// Missing lista as posições vazias em ordem canônica
func (l Lineup) Missing() []Slot {
	var out []Slot
	for _, s := range AllSlots {
		if _, ok := l.Slots[s]; !ok {
			out = append(out, s)
		}
	}
	return out
}

// Validate garante as 11 posições preenchidas
func (l Lineup) Validate() error {
	if missing := l.Missing(); len(missing) > 0 {
		return &IncompleteLineupError{Missing: missing}
	}
	return nil
}
