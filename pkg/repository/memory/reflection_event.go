package memory

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/echonotes/pkg/domain/model"
)

type reflectionEventRepository struct {
	m *Memory
}

func (r *reflectionEventRepository) Put(ctx context.Context, event *model.ReflectionEvent) error {
	if event == nil {
		return goerr.New("reflection event is required")
	}

	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	r.m.nextEventID++
	stored := &model.ReflectionEvent{
		ID:             r.m.nextEventID,
		TranscriptText: event.TranscriptText,
		Reflection:     copyReflection(event.Reflection),
		Internal:       event.Internal,
		CreatedAt:      event.CreatedAt,
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = r.m.now()
	}
	r.m.events = append(r.m.events, stored)
	event.ID = stored.ID
	return nil
}

// ReflectionEvents returns stored events in insertion order
func (m *Memory) ReflectionEvents() []*model.ReflectionEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*model.ReflectionEvent, 0, len(m.events))
	for _, e := range m.events {
		copied := *e
		copied.Reflection = copyReflection(e.Reflection)
		out = append(out, &copied)
	}
	return out
}
