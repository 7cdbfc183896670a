package jobdispatch

import "time"

type Status string

const (
	StatusSent      Status = "sent"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Event is one queue dispatch attempt, kept for job observability.
type Event struct {
	DispatchID   string
	JobName      string
	JobPath      string
	Sport        string
	Status       Status
	Payload      map[string]any
	ErrorMessage string
	OccurredAt   time.Time
	TraceID      string
	SpanID       string
}
