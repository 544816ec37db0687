package model

import "time"

// InboxEventStatus is the lifecycle of a queued created-message event.
type InboxEventStatus string

const (
	InboxPending    InboxEventStatus = "pending"
	InboxProcessing InboxEventStatus = "processing"
	InboxDone       InboxEventStatus = "done"
	InboxFailed     InboxEventStatus = "failed"
)

// InboxEvent is one row of the trigger queue. The ingestion API inserts the
// raw CreatedMessageEvent document; the scheduler claims and dispatches it.
type InboxEvent struct {
	ID        int64
	MessageID string
	Payload   []byte
	Status    InboxEventStatus
	Attempts  int
	LastError *string
	CreatedAt time.Time
	UpdatedAt time.Time
}
