package metrics

import (
	"errors"
	"testing"
)

type recordingBackend struct {
	counters map[string]float64
	hist     map[string][]float64
	flushErr error
}

func (r *recordingBackend) IncCounter(name string, delta float64, _ Labels) {
	r.counters[name] += delta
}

func (r *recordingBackend) ObserveHistogram(name string, value float64, _ Labels) {
	r.hist[name] = append(r.hist[name], value)
}

func (r *recordingBackend) Flush() error { return r.flushErr }

// TestSetBackend_ForwardsAndResets covers forwarding to an installed backend
// and restoring the no-op backend with nil.
//
// Not parallel: the backend is process-wide.
func TestSetBackend_ForwardsAndResets(t *testing.T) {
	rb := &recordingBackend{
		counters: map[string]float64{},
		hist:     map[string][]float64{},
		flushErr: errors.New("boom"),
	}
	SetBackend(rb)
	t.Cleanup(func() { SetBackend(nil) })

	IncCounter(BlocksTotal, 2, Labels{"outcome": "linked"})
	ObserveHistogram(PageDurationSeconds, 0.5, nil)

	if rb.counters[BlocksTotal] != 2 {
		t.Fatalf("counter=%v, want 2", rb.counters[BlocksTotal])
	}
	if len(rb.hist[PageDurationSeconds]) != 1 {
		t.Fatalf("histogram samples=%d, want 1", len(rb.hist[PageDurationSeconds]))
	}
	if err := Flush(); err == nil {
		t.Fatalf("Flush err=nil, want backend error")
	}

	SetBackend(nil)
	IncCounter(BlocksTotal, 1, nil)
	if rb.counters[BlocksTotal] != 2 {
		t.Fatalf("reset backend still received counters")
	}
	if err := Flush(); err != nil {
		t.Fatalf("nop Flush err=%v", err)
	}
}
