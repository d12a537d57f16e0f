package metrics

import (
	"sync"
	"time"
)

// DefaultHistorySize is the number of samples kept for the charts
const DefaultHistorySize = 20

// TimestampLayout formats sample times as local wall-clock time
const TimestampLayout = "15:04:05"

// Sample is one chart point derived from an Update.
type Sample struct {
	Timestamp       string
	TokensPerSecond float64
	ActiveRequests  float64
}

// NewSample builds the chart point for u observed at t.
func NewSample(u Update, t time.Time) Sample {
	return Sample{
		Timestamp:       t.Local().Format(TimestampLayout),
		TokensPerSecond: u.AvgTokensPerSecond,
		ActiveRequests:  u.ActiveRequests,
	}
}

// History keeps the most recent samples as three parallel series of equal length.
// When full, appending evicts the oldest point of every series.
type History struct {
	mu         sync.RWMutex
	capacity   int
	timestamps []string
	tokens     []float64
	requests   []float64
}

// NewHistory creates a History holding at most capacity samples.
// A non-positive capacity uses DefaultHistorySize.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	return &History{
		capacity:   capacity,
		timestamps: make([]string, 0, capacity),
		tokens:     make([]float64, 0, capacity),
		requests:   make([]float64, 0, capacity),
	}
}

// Append adds s, evicting the oldest sample when the history is full.
func (h *History) Append(s Sample) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.timestamps = append(h.timestamps, s.Timestamp)
	h.tokens = append(h.tokens, s.TokensPerSecond)
	h.requests = append(h.requests, s.ActiveRequests)

	if len(h.timestamps) > h.capacity {
		h.timestamps = h.timestamps[1:]
		h.tokens = h.tokens[1:]
		h.requests = h.requests[1:]
	}
}

// Len returns the number of samples held.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.timestamps)
}

// Capacity returns the maximum number of samples held.
func (h *History) Capacity() int {
	return h.capacity
}

// Reset drops all samples.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.timestamps = h.timestamps[:0]
	h.tokens = h.tokens[:0]
	h.requests = h.requests[:0]
}

// Series is a copy of the history's parallel sequences.
type Series struct {
	Timestamps      []string
	TokensPerSecond []float64
	ActiveRequests  []float64
}

// Snapshot returns copies of the three series, oldest first.
func (h *History) Snapshot() Series {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return Series{
		Timestamps:      append([]string(nil), h.timestamps...),
		TokensPerSecond: append([]float64(nil), h.tokens...),
		ActiveRequests:  append([]float64(nil), h.requests...),
	}
}
