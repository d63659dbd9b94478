package dto

type ChallengeRequest struct {
	HomeID     string `json:"home_id"` // quem desafia
	AwayID     string `json:"away_id"` // quem é desafiado
	StakeCents int64  `json:"stake_cents"`
}

// AnswerRequest serve para aceite e recusa
type AnswerRequest struct {
	CompetitorID string `json:"competitor_id"`
}
