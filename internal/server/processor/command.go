package processor

import (
	"encoding/json"

	"chessroom/internal/server/core"
)

// Command is one inbound client event bound to the connection that sent it
type Command struct {
	ConnID  string
	Type    core.Event
	Payload json.RawMessage
}

// Delivery is one outbound envelope addressed to a connection
type Delivery struct {
	ConnID   string
	Envelope core.Envelope
}

// NewCommand decodes a raw websocket frame into a command
func NewCommand(connID string, frame []byte) (Command, error) {
	var env core.Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Command{}, err
	}
	return Command{ConnID: connID, Type: env.Type, Payload: env.Payload}, nil
}
