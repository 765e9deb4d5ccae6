package orders

import (
	"encoding/json"
	"strconv"
	"time"
)

const EventOrderCreated = "OrderCreated"

const TopicOrderCreated = "order.created"

// PartitionKey keys every event of one order to the same partition so
// downstream consumers see them in order.
func PartitionKey(orderID int64) []byte {
	return []byte(strconv.FormatInt(orderID, 10))
}

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// OrderCreatedPayload carries the committed order document. It is published
// after commit, fire-and-forget; the DB row is the source of truth.
type OrderCreatedPayload struct {
	OrderID int64 `json:"order_id"`
	Order   Order `json:"order"`
}
