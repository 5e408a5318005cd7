// Package metrics is a small facade over a pluggable metrics backend.
//
// The pipeline records counters and histograms through package-level
// functions; by default they go to a no-op backend. Wire a real backend
// (e.g. the datadog subpackage) with SetBackend at process startup.
package metrics

import "sync"

// Labels are free-form metric dimensions (e.g. {"stage": "sanitize"}).
type Labels map[string]string

// Backend receives recorded metrics.
//
// Implementations must be safe for concurrent use. A backend that also
// implements Flusher gets drained by Flush.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
}

// Flusher is implemented by backends that buffer metrics locally.
type Flusher interface {
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend replaces the active backend. Passing nil restores the no-op
// backend.
func SetBackend(b Backend) {
	mu.Lock()
	defer mu.Unlock()
	if b == nil {
		backend = nopBackend{}
		return
	}
	backend = b
}

// IncCounter adds delta to the named counter.
func IncCounter(name string, delta float64, labels Labels) {
	mu.RLock()
	b := backend
	mu.RUnlock()
	b.IncCounter(name, delta, labels)
}

// ObserveHistogram records one sample of the named histogram.
func ObserveHistogram(name string, value float64, labels Labels) {
	mu.RLock()
	b := backend
	mu.RUnlock()
	b.ObserveHistogram(name, value, labels)
}

// Flush drains the active backend if it buffers metrics locally.
// It is a no-op when the backend does not implement Flusher.
func Flush() error {
	mu.RLock()
	b := backend
	mu.RUnlock()
	if f, ok := b.(Flusher); ok {
		return f.Flush()
	}
	return nil
}
