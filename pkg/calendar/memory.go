package calendar

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryCalendar keeps events in process. It backs local runs and tests.
type MemoryCalendar struct {
	mu     sync.RWMutex
	events map[string]map[string]Event
}

func NewMemoryCalendar() *MemoryCalendar {
	return &MemoryCalendar{events: make(map[string]map[string]Event)}
}

func (m *MemoryCalendar) CreateEvent(_ context.Context, calendarID string, event *Event) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.events[calendarID] == nil {
		m.events[calendarID] = make(map[string]Event)
	}
	id := uuid.NewString()
	m.events[calendarID][id] = *event
	return id, nil
}

func (m *MemoryCalendar) DeleteEvent(_ context.Context, calendarID, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.events[calendarID][eventID]; !ok {
		return ErrEventNotFound
	}
	delete(m.events[calendarID], eventID)
	return nil
}

// Event returns a stored event by id.
func (m *MemoryCalendar) Event(calendarID, eventID string) (Event, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	event, ok := m.events[calendarID][eventID]
	return event, ok
}

func (m *MemoryCalendar) Len(calendarID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events[calendarID])
}
