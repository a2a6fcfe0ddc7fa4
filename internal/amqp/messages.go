package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"giftwallet/internal/core"
)

type EventType string

const (
	EventCardCreated EventType = "card.created"
	EventCardDeleted EventType = "card.deleted"
)

// CardEvent is published after a card mutation has been persisted.
// Deleted events carry only the card id and whatever the server knew
// about the card before removal.
type CardEvent struct {
	Type           EventType `json:"type"`
	CardID         string    `json:"cardId"`
	LastFourDigits string    `json:"lastFourDigits,omitempty"`
	Balance        string    `json:"balance,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

func NewCardCreated(c core.CardRecord) *CardEvent {
	return &CardEvent{
		Type:           EventCardCreated,
		CardID:         c.ID,
		LastFourDigits: c.LastFourDigits,
		Balance:        c.Balance,
		Timestamp:      time.Now().UTC(),
	}
}

func NewCardDeleted(c core.CardRecord) *CardEvent {
	e := NewCardCreated(c)
	e.Type = EventCardDeleted
	return e
}

// ToJSON converts the message to JSON bytes
func (e *CardEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// CardEventFromJSON decodes and checks a delivery body.
func CardEventFromJSON(data []byte) (*CardEvent, error) {
	var e CardEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	switch e.Type {
	case EventCardCreated, EventCardDeleted:
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
	if e.CardID == "" {
		return nil, fmt.Errorf("event %s without card id", e.Type)
	}
	return &e, nil
}
