package dashboard

import (
	"sync"
	"time"
)

const defaultHistorySize = 60

// HistoryPoint is one stored summary with the time it was recorded.
type HistoryPoint struct {
	At   time.Time  `json:"at"`
	Data WidgetData `json:"data"`
}

// SummaryHistory keeps the most recent summaries of a widget in a fixed-size ring.
type SummaryHistory struct {
	mu     sync.RWMutex
	points []HistoryPoint
	start  int
	size   int
}

// NewSummaryHistory builds a ring holding up to capacity points.
func NewSummaryHistory(capacity int) *SummaryHistory {
	if capacity <= 0 {
		capacity = defaultHistorySize
	}
	return &SummaryHistory{points: make([]HistoryPoint, capacity)}
}

// Record appends a point, evicting the oldest when full.
func (h *SummaryHistory) Record(data WidgetData, at time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	capacity := len(h.points)
	point := HistoryPoint{At: at, Data: data.Clone()}
	if h.size < capacity {
		h.points[(h.start+h.size)%capacity] = point
		h.size++
		return
	}
	h.points[h.start] = point
	h.start = (h.start + 1) % capacity
}

// Points returns the stored points, oldest first.
func (h *SummaryHistory) Points() []HistoryPoint {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]HistoryPoint, h.size)
	for i := 0; i < h.size; i++ {
		out[i] = h.points[(h.start+i)%len(h.points)]
	}
	return out
}

// Len reports how many points are stored.
func (h *SummaryHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.size
}
