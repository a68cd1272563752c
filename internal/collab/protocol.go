package collab

import "encoding/json"

type Message struct {
	Type     string          `json:"type"`
	ClientID string          `json:"clientId,omitempty"`
	Seq      int64           `json:"seq,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

type WelcomePayload struct {
	ClientID string `json:"clientId"`
	SceneID  string `json:"sceneId"`
}

// PresencePayload is what a view reports about itself: the canvas it looks
// at and a cursor in that canvas's local coordinates.
type PresencePayload struct {
	CanvasID  string     `json:"canvasId,omitempty"`
	Cursor    *CursorPos `json:"cursor,omitempty"`
	Selection []string   `json:"selection,omitempty"`
}

type CursorPos struct {
	U float64 `json:"u"`
	V float64 `json:"v"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceLeavePayload struct {
	ClientID string `json:"clientId"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

const (
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceLeave  = "presence.leave"
	TypeError          = "error"

	// Connection
	TypeWelcome = "welcome"

	// Scene sync. A client sends doc.sync to request a full document; the
	// server answers with doc.sync carrying it.
	TypeDocSync = "doc.sync"

	// Sent after every applied, reverted or direct edit.
	TypeChange = "change"
)

func newMessage(typ string, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{Type: typ, Payload: data}, nil
}
