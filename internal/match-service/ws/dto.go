package ws

import "encoding/json"

// ClientMsg é o que o navegador envia
// Type: subscribe | unsubscribe | ping
type ClientMsg struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"` // requerido em subscribe/unsubscribe
}

// Update é o progresso de uma partida, repassado sem reinterpretar o payload
type Update struct {
	SessionID string          `json:"sessionId"`
	Payload   json.RawMessage `json:"payload"`
}
