package dashboard

import (
	"sync"
	"time"
)

// StateObserver is invoked synchronously every time the stored summary is reassigned.
type StateObserver func(data WidgetData)

// WidgetState holds the most recently fetched summary for a widget. Reassignment
// notifies observers before Set returns.
type WidgetState struct {
	mu        sync.RWMutex
	data      WidgetData
	updatedAt time.Time
	observers []stateObserver
	next      int
	now       func() time.Time
}

type stateObserver struct {
	id int
	fn StateObserver
}

// NewWidgetState returns a state holding an empty summary.
func NewWidgetState() *WidgetState {
	return &WidgetState{
		data: WidgetData{},
		now:  time.Now,
	}
}

// Data returns a copy of the stored summary.
func (s *WidgetState) Data() WidgetData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Clone()
}

// UpdatedAt reports when the summary was last reassigned. Zero until the first Set.
func (s *WidgetState) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}

// Set replaces the stored summary and notifies observers in subscription order.
func (s *WidgetState) Set(data WidgetData) {
	if data == nil {
		data = WidgetData{}
	}
	s.mu.Lock()
	s.data = data
	s.updatedAt = s.now()
	observers := make([]stateObserver, len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()

	for _, obs := range observers {
		obs.fn(data.Clone())
	}
}

// Subscribe registers an observer and returns a cancel func.
func (s *WidgetState) Subscribe(fn StateObserver) func() {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	s.observers = append(s.observers, stateObserver{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, obs := range s.observers {
			if obs.id == id {
				s.observers = append(s.observers[:i], s.observers[i+1:]...)
				return
			}
		}
	}
}
