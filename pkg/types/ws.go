package types

// WebSocketMessage represents a message sent over WebSocket for real-time updates.
type WebSocketMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}
