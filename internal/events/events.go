package events

import (
	"time"
)

// Topic names for collaboration and ledger events
const (
	TopicCollabInvited   = "collab.invited"
	TopicCollabResponded = "collab.responded"
	TopicCollabAmended   = "collab.amended"
	TopicCollabRemoved   = "collab.removed"
	TopicCreditsUsed     = "credits.used"
	TopicCreditsAdded    = "credits.added"
	TopicCreditsReset    = "credits.reset"
)

// CollabEvent is published on every co-organizer agreement change
type CollabEvent struct {
	EventType           string    `json:"event_type"`
	EventID             string    `json:"event_id"`
	OrganizationID      string    `json:"organization_id"`
	RevenueSharePercent int       `json:"revenue_share_percent"`
	Status              string    `json:"status,omitempty"`
	ActorUserID         string    `json:"actor_user_id,omitempty"`
	Timestamp           time.Time `json:"timestamp"`
}

// Key returns the Kafka message key for partitioning
func (e *CollabEvent) Key() string {
	return e.EventID
}

// CreditEvent is published on every ledger balance change
type CreditEvent struct {
	EventType string    `json:"event_type"`
	OwnerID   string    `json:"owner_id"`
	Operation string    `json:"operation,omitempty"`
	Amount    int       `json:"amount"`
	Remaining int       `json:"remaining"`
	Timestamp time.Time `json:"timestamp"`
}

// Key returns the Kafka message key for partitioning
func (e *CreditEvent) Key() string {
	return e.OwnerID
}
