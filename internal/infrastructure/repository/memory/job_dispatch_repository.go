package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/matchup-markets/internal/domain/jobdispatch"
)

type JobDispatchRepository struct {
	mu     sync.RWMutex
	events map[string]jobdispatch.Event
}

func NewJobDispatchRepository() *JobDispatchRepository {
	return &JobDispatchRepository{events: make(map[string]jobdispatch.Event)}
}

func (r *JobDispatchRepository) UpsertEvent(_ context.Context, event jobdispatch.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[event.DispatchID] = event
	return nil
}

func (r *JobDispatchRepository) Events() []jobdispatch.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]jobdispatch.Event, 0, len(r.events))
	for _, event := range r.events {
		out = append(out, event)
	}
	return out
}
