package topics

const (
	// Partidas
	MatchProgress = "match_progress"

	// Redis Pub/Sub (broadcast para o hub WebSocket)
	MatchProgressBroadcast = "match_progress_broadcast"

	// DLQs
	MatchProgressDLQ = "match_progress_dlq"
)
