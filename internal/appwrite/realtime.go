package appwrite

import (
	"encoding/json"
)

// Frame is one message on the realtime websocket.
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// EventData is the body of an "event" frame.
type EventData struct {
	Events    []string        `json:"events"`
	Channels  []string        `json:"channels"`
	Timestamp string          `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

type ErrorData struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

const (
	FrameConnected      = "connected"
	FrameEvent          = "event"
	FrameError          = "error"
	FrameResponse       = "response"
	FrameAuthentication = "authentication"
	FramePing           = "ping"
)

// AuthenticationFrame attaches a session to an open realtime connection.
func AuthenticationFrame(session string) Frame {
	data, _ := json.Marshal(map[string]string{"session": session})
	return Frame{Type: FrameAuthentication, Data: data}
}

// DocumentsChannel is the topic carrying document events for a collection.
func DocumentsChannel(databaseID, collectionID string) string {
	return "databases." + databaseID + ".collections." + collectionID + ".documents"
}
