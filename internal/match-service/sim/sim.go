// Package sim gera a linha do tempo completa de uma partida a partir de dois
// perfis de força. A função é pura: mesmos perfis e mesma seed produzem a mesma
// linha do tempo, e o resultado fica definido antes de qualquer exibição.
package sim

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/radieske/wager-match-engine/internal/match-service/power"
)

// Relógio abstrato da partida
const (
	MatchClock = 90
	MinEvents  = 5
	MaxEvents  = 12
	MinOffset  = 5
	MaxOffset  = 85

	homeAttackDefault = 0.5
	goalkeeperSaveP   = 0.6
	rollLow           = 0.8
	rollSpread        = 0.4
)

var ErrInternalSimulation = errors.New("internal simulation error")

type Kind string

const (
	KindGoal Kind = "goal"
	KindSave Kind = "save"
)

type Side string

const (
	Home Side = "home"
	Away Side = "away"
)

func (s Side) other() Side {
	if s == Home {
		return Away
	}
	return Home
}

type Outcome string

const (
	OutcomeHome Outcome = "home"
	OutcomeAway Outcome = "away"
	OutcomeDraw Outcome = "draw"
)

type Score struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

// Outcome deriva o vencedor do placar
func (s Score) Outcome() Outcome {
	switch {
	case s.Home > s.Away:
		return OutcomeHome
	case s.Away > s.Home:
		return OutcomeAway
	default:
		return OutcomeDraw
	}
}

// Event é um lance; Side é o lado de quem executou (atacante no gol, defensor na defesa)
type Event struct {
	OffsetSeconds int    `json:"offset_seconds"`
	Minute        int    `json:"minute"`
	Kind          Kind   `json:"kind"`
	Side          Side   `json:"side"`
	Actor         string `json:"actor"`
	Text          string `json:"text"`
	Score         Score  `json:"score"`
}

// Result é imutável depois de gerado
type Result struct {
	Timeline []Event `json:"timeline"`
	Final    Score   `json:"final"`
	Outcome  Outcome `json:"outcome"`
}

const actorMark = "{player}"

var goalLines = []string{
	"What a strike! {player} finds the top corner!",
	"Lovely team move, {player} taps it home!",
	"{player} rounds the keeper and slots it in!",
	"GOAL! {player} rises highest to head in the corner!",
}

var saveLines = []string{
	"Big save! {player} keeps it out!",
	"{player} throws in a sliding block to deny the shot!",
	"{player} tips it over the bar!",
	"Solid defending from {player} ends the attack.",
}

// CheckProfiles valida as entradas antes do escrow
func CheckProfiles(home, away power.Profile) error {
	for _, p := range []power.Profile{home, away} {
		if p.Attack < 0 || p.Midfield < 0 || p.Defense < 0 || p.Overall < 0 {
			return fmt.Errorf("%w: negative power profile", ErrInternalSimulation)
		}
	}
	return nil
}

// Simulate sorteia de 5 a 12 lances em offsets distintos entre 5 e 85 do relógio de 90
func Simulate(home, away power.Profile, rng Rand) (Result, error) {
	if rng == nil {
		return Result{}, fmt.Errorf("%w: nil random source", ErrInternalSimulation)
	}
	if err := CheckProfiles(home, away); err != nil {
		return Result{}, err
	}

	n := MinEvents + rng.IntN(MaxEvents-MinEvents+1)
	offsets := drawOffsets(rng, n)

	pHome := homeAttackDefault
	if total := home.Overall + away.Overall; total > 0 {
		pHome = float64(home.Overall) / float64(total)
	}

	profiles := map[Side]power.Profile{Home: home, Away: away}
	var score Score
	timeline := make([]Event, 0, n)

	for _, off := range offsets {
		attacking := Away
		if rng.Float64() < pHome {
			attacking = Home
		}
		defending := attacking.other()
		att, def := profiles[attacking], profiles[defending]

		attackRoll := mean(att.Attack, att.Midfield) * roll(rng)
		defenseRoll := mean(def.Defense, def.Midfield) * roll(rng)

		ev := Event{OffsetSeconds: off, Minute: off}
		if attackRoll > defenseRoll {
			if attacking == Home {
				score.Home++
			} else {
				score.Away++
			}
			ev.Kind = KindGoal
			ev.Side = attacking
			ev.Actor = pickScorer(rng, att.Roster)
			ev.Text = line(rng, goalLines, ev.Actor)
		} else {
			ev.Kind = KindSave
			ev.Side = defending
			ev.Actor = pickSaver(rng, def.Roster)
			ev.Text = line(rng, saveLines, ev.Actor)
		}
		ev.Score = score
		timeline = append(timeline, ev)
	}

	return Result{Timeline: timeline, Final: score, Outcome: score.Outcome()}, nil
}

// SafeSimulate converte pânico em ErrInternalSimulation
func SafeSimulate(home, away power.Profile, rng Rand) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = Result{}, fmt.Errorf("%w: %v", ErrInternalSimulation, r)
		}
	}()
	return Simulate(home, away, rng)
}

// drawOffsets sorteia sem repetição para manter os offsets estritamente crescentes
func drawOffsets(rng Rand, n int) []int {
	span := MaxOffset - MinOffset + 1
	seen := make(map[int]struct{}, n)
	out := make([]int, 0, n)
	for len(out) < n {
		off := MinOffset + rng.IntN(span)
		if _, dup := seen[off]; dup {
			continue
		}
		seen[off] = struct{}{}
		out = append(out, off)
	}
	slices.Sort(out)
	return out
}

func mean(a, b int) float64 { return float64(a+b) / 2 }

// roll devolve um fator uniforme em [0.8, 1.2)
func roll(rng Rand) float64 { return rollLow + rollSpread*rng.Float64() }

// pickScorer: atacantes com peso 2/3, meias com 1/3
func pickScorer(rng Rand, r power.Roster) string {
	group := r.Forwards
	if rng.IntN(3) == 2 {
		group = r.Midfielders
	}
	return pick(rng, group, "Unknown Player")
}

func pickSaver(rng Rand, r power.Roster) string {
	if rng.Float64() < goalkeeperSaveP {
		if len(r.Goalkeeper) > 0 {
			return r.Goalkeeper[0]
		}
		return "GK"
	}
	return pick(rng, r.Defenders, "Defender")
}

func pick(rng Rand, names []string, fallback string) string {
	if len(names) == 0 {
		return fallback
	}
	return names[rng.IntN(len(names))]
}

func line(rng Rand, templates []string, actor string) string {
	return strings.ReplaceAll(templates[rng.IntN(len(templates))], actorMark, actor)
}
