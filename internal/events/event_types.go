package events

import (
	"time"

	"github.com/spec-kit/coffeeshop-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventDrinkCreated EventType = "drink_created"
	EventDrinkUpdated EventType = "drink_updated"
	EventDrinkDeleted EventType = "drink_deleted"
)

// Event represents a domain event emitted by services. Subject carries the
// `sub` claim of the caller whose request produced the event.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	DrinkID   int64       `json:"drink_id"`
	Subject   string      `json:"subject"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// DrinkChangedPayload accompanies create and update events.
type DrinkChangedPayload struct {
	Title  string              `json:"title"`
	Recipe []domain.Ingredient `json:"recipe"`
}

// DrinkDeletedPayload accompanies delete events.
type DrinkDeletedPayload struct {
	Title string `json:"title"`
}
