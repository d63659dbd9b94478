package events

import "time"

// Tipos de mensagem publicados no tópico "match_progress"
const (
	TypeMatchStarted = "match_started"
	TypeMatchEvent   = "match_event"
	TypeMatchEnded   = "match_ended"
)

// Score é o placar corrente (mandante x visitante)
type Score struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

// MatchProgress é o envelope único do tópico; campos opcionais dependem de Type.
// Consumidores usam SessionID como chave de ordenação.
type MatchProgress struct {
	Type       string    `json:"type"`
	SessionID  string    `json:"session_id"`
	HomeID     string    `json:"home_id"`
	AwayID     string    `json:"away_id"`
	HomeClub   string    `json:"home_club,omitempty"`
	AwayClub   string    `json:"away_club,omitempty"`
	StakeCents int64     `json:"stake_cents"`
	State      string    `json:"state"`
	Score      Score     `json:"score"`
	Event      *Event    `json:"event,omitempty"`
	Outcome    string    `json:"outcome,omitempty"` // "home" | "away" | "draw"
	HomePayout int64     `json:"home_payout_cents,omitempty"`
	AwayPayout int64     `json:"away_payout_cents,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Ts         time.Time `json:"ts"`
}

// Event é um lance simulado (gol ou defesa)
type Event struct {
	OffsetSeconds int    `json:"offset_seconds"`
	Minute        int    `json:"minute"`
	Kind          string `json:"kind"` // "goal" | "save"
	Side          string `json:"side"` // "home" | "away"
	Actor         string `json:"actor"`
	Text          string `json:"text"`
}
