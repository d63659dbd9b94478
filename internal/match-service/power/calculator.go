package power

import (
	"errors"
	"fmt"
	"strings"
)

var ErrIncompleteLineup = errors.New("incomplete lineup")

// IncompleteLineupError informa quais posições faltam
type IncompleteLineupError struct {
	Missing []Slot
}

func (e *IncompleteLineupError) Error() string {
	names := make([]string, len(e.Missing))
	for i, s := range e.Missing {
		names[i] = string(s)
	}
	return fmt.Sprintf("%s: need a full team of %d players, missing %s",
		ErrIncompleteLineup, len(AllSlots), strings.Join(names, ","))
}

func (e *IncompleteLineupError) Is(target error) bool { return target == ErrIncompleteLineup }

// Bônus do centro de treinamento, em pontos percentuais (nível 1..5)
var DefaultTierBonus = []int{3, 5, 7, 10, 15}

// Roster guarda os nomes por setor, usado para atribuir gols e defesas
type Roster struct {
	Forwards    []string `json:"forwards"`
	Midfielders []string `json:"midfielders"`
	Defenders   []string `json:"defenders"`
	Goalkeeper  []string `json:"goalkeeper"`
}

// Profile é derivado da escalação a cada partida; nunca persistido
type Profile struct {
	Attack   int    `json:"attack"`
	Midfield int    `json:"midfield"`
	Defense  int    `json:"defense"`
	Overall  int    `json:"overall"`
	Roster   Roster `json:"roster"`
}

// Calculator calcula perfis de força com uma tabela de bônus por nível
type Calculator struct {
	tiers []int
}

// NewCalculator usa DefaultTierBonus quando tiers é vazio
func NewCalculator(tiers ...int) *Calculator {
	if len(tiers) == 0 {
		tiers = DefaultTierBonus
	}
	return &Calculator{tiers: append([]int(nil), tiers...)}
}

// BonusPercent devolve o bônus do nível; 0 desliga, acima do máximo satura
func (c *Calculator) BonusPercent(tier int) int {
	if tier <= 0 || len(c.tiers) == 0 {
		return 0
	}
	if tier > len(c.tiers) {
		tier = len(c.tiers)
	}
	return c.tiers[tier-1]
}

// Calculate exige as 11 posições; falha com ErrIncompleteLineup antes de qualquer conta
func (c *Calculator) Calculate(l Lineup, tier int) (Profile, error) {
	if err := l.Validate(); err != nil {
		return Profile{}, err
	}

	pct := c.BonusPercent(tier)
	boost := func(v int) int { return v * (100 + pct) / 100 }

	p := Profile{
		Attack:   boost(l.average(ForwardSlots)),
		Midfield: boost(l.average(MidfieldSlots)),
		Defense:  boost(l.average(append([]Slot{GK}, DefenderSlots...))),
		Roster: Roster{
			Forwards:    l.names(ForwardSlots),
			Midfielders: l.names(MidfieldSlots),
			Defenders:   l.names(DefenderSlots),
			Goalkeeper:  l.names([]Slot{GK}),
		},
	}
	p.Overall = (p.Attack + p.Midfield + p.Defense) / 3
	return p, nil
}

// average faz a média inteira do setor; setor vazio vale 0
func (l Lineup) average(slots []Slot) int {
	sum, n := 0, 0
	for _, s := range slots {
		if u, ok := l.Slots[s]; ok {
			sum += max(u.Rating, 0)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / n
}

func (l Lineup) names(slots []Slot) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		if u, ok := l.Slots[s]; ok {
			out = append(out, u.Name)
		}
	}
	return out
}
