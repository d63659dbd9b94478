// Package powertest monta escalações completas para testes de outros pacotes.
package powertest

import (
	"fmt"

	"github.com/radieske/wager-match-engine/internal/match-service/power"
)

// Uniform escala 11 jogadores com o mesmo rating; nomes seguem "<prefix> <slot>"
func Uniform(prefix string, rating int) power.Lineup {
	l := power.NewLineup()
	for _, s := range power.AllSlots {
		l.Set(s, power.Unit{Name: fmt.Sprintf("%s %s", prefix, s), Rating: rating})
	}
	return l
}

// Without remove posições de uma cópia da escalação
func Without(l power.Lineup, slots ...power.Slot) power.Lineup {
	out := power.NewLineup()
	for s, u := range l.Slots {
		out.Set(s, u)
	}
	for _, s := range slots {
		delete(out.Slots, s)
	}
	return out
}
