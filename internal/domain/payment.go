package domain

import "time"

// PlanActivation records one verified payment callback that unlocked premium
// access for a subscriber. Conversation state stays in memory; activations are
// the one durable side effect of the payment path.
type PlanActivation struct {
	ID         string
	ResourceID string
	RequestID  string
	ReceivedAt time.Time
	TTL        int64
}
