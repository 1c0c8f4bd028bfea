package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of clock event
type EventType string

const (
	EventTypeFlash          EventType = "Flash"
	EventTypeCountdownTick  EventType = "CountdownTick"
	EventTypeMinuteRollover EventType = "MinuteRollover"
	EventTypeSyncCompleted  EventType = "SyncCompleted"
	EventTypeSyncFailed     EventType = "SyncFailed"
)

// Event is the envelope for everything published by the clock
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"` // corrected clock time the event belongs to
	Data      json.RawMessage `json:"data"`
}

// FlashPayload is the payload for a Flash event
type FlashPayload struct {
	Digits string `json:"digits"`
	Second int    `json:"second"` // 0 or 30
}

// CountdownTickPayload is the payload for a CountdownTick event
type CountdownTickPayload struct {
	Digits    string `json:"digits"`
	Remaining int    `json:"remaining"`
}

// MinuteRolloverPayload is the payload for a MinuteRollover event
type MinuteRolloverPayload struct {
	Minute string `json:"minute"` // HH:MM that just began
}

// SyncPayload is the payload for SyncCompleted and SyncFailed events
type SyncPayload struct {
	Source   string        `json:"source,omitempty"`
	Offset   time.Duration `json:"offset_ns"`
	LastSync time.Time     `json:"last_sync"`
	Error    string        `json:"error,omitempty"`
}

// NewEvent builds an event with a fresh ID and marshalled payload
func NewEvent(eventType EventType, ts time.Time, payload interface{}) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}

	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: ts.UTC(),
		Data:      data,
	}, nil
}

// ParseEventPayload parses event data into the appropriate payload struct
func ParseEventPayload(event *Event) (interface{}, error) {
	switch event.Type {
	case EventTypeFlash:
		var payload FlashPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeCountdownTick:
		var payload CountdownTickPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeMinuteRollover:
		var payload MinuteRolloverPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeSyncCompleted, EventTypeSyncFailed:
		var payload SyncPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	default:
		return nil, nil // Unknown event type
	}
}
