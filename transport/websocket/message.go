package websocket

import "encoding/json"

const (
	actionJoinGame      = "joinGame"
	actionReconnectGame = "reconnectGame"
	actionMakeMove      = "makeMove"
)

// Message is the inbound envelope.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

type JoinPayload struct {
	Username string `json:"username" validate:"required,max=50"`
}

type ReconnectPayload struct {
	Username string `json:"username" validate:"required,max=50"`
	GameID   string `json:"gameId" validate:"required,uuid"`
}

type MovePayload struct {
	GameID string `json:"gameId" validate:"required,uuid"`
	Column *int   `json:"column" validate:"required"`
}
