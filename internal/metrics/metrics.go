// Package metrics is the backend-agnostic metrics facade used by the
// decoration pipeline.
//
// Core code calls the package-level IncCounter/ObserveHistogram helpers. A
// concrete backend (e.g. internal/metrics/datadog) is installed once at
// startup with SetBackend; until then every call is a no-op.
package metrics

import "sync"

// Labels are metric dimensions (e.g. {"outcome": "linked"}).
type Labels map[string]string

// Backend receives metric observations.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
	Flush() error
}

// Metric names emitted by the decoration pipeline.
const (
	BlocksTotal         = "picture_blocks_total"
	SourcesTotal        = "picture_sources_total"
	PagesTotal          = "picture_pages_total"
	PageDurationSeconds = "picture_page_duration_seconds"
)

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs b as the process-wide backend. A nil b restores the
// no-op backend.
func SetBackend(b Backend) {
	mu.Lock()
	defer mu.Unlock()
	if b == nil {
		backend = nopBackend{}
		return
	}
	backend = b
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// IncCounter forwards to the installed backend.
func IncCounter(name string, delta float64, labels Labels) {
	current().IncCounter(name, delta, labels)
}

// ObserveHistogram forwards to the installed backend.
func ObserveHistogram(name string, value float64, labels Labels) {
	current().ObserveHistogram(name, value, labels)
}

// Flush forwards to the installed backend.
func Flush() error {
	return current().Flush()
}
