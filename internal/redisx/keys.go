package redisx

import "time"

const (
	// Serialized order document: order:{order_id}. Written on create and by
	// the feed consumer, read by GET /api/orders/{id}.
	KeyOrder = "order:%d"

	// Event dedup for consumers: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLOrderCache = 5 * time.Minute
	TTLDedup      = 48 * time.Hour
)
