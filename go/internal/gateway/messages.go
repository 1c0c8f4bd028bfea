package gateway

import (
	"encoding/json"

	"github.com/mcdev12/timehack/go/internal/display"
	"github.com/mcdev12/timehack/go/internal/events"
)

// MessageType tags every message sent over the clock stream
type MessageType string

const (
	MessageTypeFrame MessageType = "frame"
	MessageTypeEvent MessageType = "event"
)

// StreamMessage is the JSON shape written to websocket clients
type StreamMessage struct {
	Type  MessageType    `json:"type"`
	Frame *display.Frame `json:"frame,omitempty"`
	Event *events.Event  `json:"event,omitempty"`
}

func encodeFrame(frame display.Frame) ([]byte, error) {
	return json.Marshal(StreamMessage{Type: MessageTypeFrame, Frame: &frame})
}

func encodeEvent(event *events.Event) ([]byte, error) {
	return json.Marshal(StreamMessage{Type: MessageTypeEvent, Event: event})
}
