package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const EventOrderPlaced = "order.placed"

// Event is a row of outbox_events. It is written in the same transaction as
// the state change it describes and published afterwards by the Poller.
type Event struct {
	ID          int64           `json:"id"`
	EventID     string          `json:"event_id"`
	AggregateID string          `json:"aggregate_id"`
	EventType   string          `json:"event_type"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"created_at"`
	PublishedAt *time.Time      `json:"published_at"`
}

func NewEvent(aggregateID, eventType string, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		EventID:     uuid.NewString(),
		AggregateID: aggregateID,
		EventType:   eventType,
		Payload:     data,
	}, nil
}
