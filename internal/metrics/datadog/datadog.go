// Package datadog implements a Datadog backend for the internal/metrics package.
//
// Observations are aggregated in memory and submitted as one payload per
// flush: on a ticker (once a minute by default) and once more from Close. A
// process killed before Close loses its last batch.
package datadog

import (
	"context"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"pictureblock/internal/metrics"

	dd "github.com/DataDog/datadog-api-client-go/v2/api/datadog"
	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"
)

// Options controls Datadog backend configuration.
type Options struct {
	// JobName becomes tag "job:<name>" on every metric.
	// If empty, defaults to "decorate-blocks".
	JobName string

	// Tags are extra Datadog tags (e.g. []string{"env:prod", "service:site"}).
	Tags []string

	// FlushEvery controls how often buffered metrics are submitted.
	// If <= 0, defaults to 60 seconds.
	FlushEvery time.Duration

	// Unexported test seams; production never sets them.
	now       func() time.Time
	newTicker func(d time.Duration) *time.Ticker
	submitter metricsSubmitter
}

// metricsSubmitter is the slice of *datadogV2.MetricsApi the backend uses, so
// tests can swap in a fake without doing HTTP.
type metricsSubmitter interface {
	SubmitMetrics(ctx context.Context, body datadogV2.MetricPayload, params ...datadogV2.SubmitMetricsOptionalParameters) (datadogV2.IntakePayloadAccepted, *http.Response, error)
}

// buffers hold observations between flushes.
type buffers struct {
	blockCounts map[string]float64 // by outcome
	sourceCount float64
	pageCounts  map[string]float64   // by status
	pageDur     map[string][]float64 // seconds, by status
}

func newBuffers() buffers {
	return buffers{
		blockCounts: make(map[string]float64),
		pageCounts:  make(map[string]float64),
		pageDur:     make(map[string][]float64),
	}
}

func (s buffers) empty() bool {
	return len(s.blockCounts) == 0 && s.sourceCount == 0 &&
		len(s.pageCounts) == 0 && len(s.pageDur) == 0
}

// Backend implements metrics.Backend for Datadog.
type Backend struct {
	api      metricsSubmitter
	ctx      context.Context
	baseTags []string

	flushEvery time.Duration
	now        func() time.Time
	newTicker  func(d time.Duration) *time.Ticker
	stop       chan struct{}
	done       chan struct{}

	mu sync.Mutex
	buffers
}

// envTag tags every series with the deployment environment, taken from ENV
// or DD_ENV in that order.
func envTag() string {
	for _, key := range []string{"ENV", "DD_ENV"} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return "env:" + v
		}
	}
	return "env:unknown"
}

func (b *Backend) loop() {
	defer close(b.done)

	ticker := b.newTicker(b.flushEvery)
	defer ticker.Stop()

	for {
		select {
		case <-b.stop:
			return
		case <-ticker.C:
			_ = b.Flush()
		}
	}
}

// Close stops the flush loop, then flushes whatever is still buffered.
// Calling it twice panics.
func (b *Backend) Close() error {
	close(b.stop)
	<-b.done
	return b.Flush()
}

// NewBackend constructs a Datadog backend using the official client and
// starts its flush loop.
//
// Credentials and site come from the usual DD_API_KEY / DD_SITE environment
// variables via dd.NewDefaultContext. Network errors surface from Flush().
func NewBackend(parent context.Context, opts Options) (*Backend, error) {
	if opts.JobName == "" {
		opts.JobName = "decorate-blocks"
	}
	if opts.FlushEvery <= 0 {
		opts.FlushEvery = time.Minute
	}
	if opts.now == nil {
		opts.now = time.Now
	}
	if opts.newTicker == nil {
		opts.newTicker = time.NewTicker
	}
	if opts.submitter == nil {
		opts.submitter = datadogV2.NewMetricsApi(dd.NewAPIClient(dd.NewConfiguration()))
	}

	b := &Backend{
		api:        opts.submitter,
		ctx:        dd.NewDefaultContext(parent),
		baseTags:   append([]string{envTag(), "job:" + opts.JobName}, opts.Tags...),
		flushEvery: opts.FlushEvery,
		now:        opts.now,
		newTicker:  opts.newTicker,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		buffers:    newBuffers(),
	}
	go b.loop()
	return b, nil
}

// IncCounter implements metrics.Backend. Unknown names are ignored.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	if delta <= 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch name {
	case metrics.BlocksTotal:
		b.blockCounts[labelOr(labels, "outcome")] += delta
	case metrics.SourcesTotal:
		b.sourceCount += delta
	case metrics.PagesTotal:
		b.pageCounts[labelOr(labels, "status")] += delta
	}
}

// ObserveHistogram implements metrics.Backend. Unknown names are ignored.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if value < 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if name == metrics.PageDurationSeconds {
		status := labelOr(labels, "status")
		b.pageDur[status] = append(b.pageDur[status], value)
	}
}

func labelOr(labels metrics.Labels, key string) string {
	if v := labels[key]; v != "" {
		return v
	}
	return "unknown"
}

// Flush submits everything buffered since the previous flush.
//
// Nothing is sent when the buffers are empty. The buffers are swapped out
// before the request, so a failed submission drops that batch.
func (b *Backend) Flush() error {
	b.mu.Lock()
	batch := b.buffers
	b.buffers = newBuffers()
	b.mu.Unlock()

	if batch.empty() {
		return nil
	}
	body := datadogV2.MetricPayload{Series: b.buildSeries(batch, b.now().Unix())}
	_, _, err := b.api.SubmitMetrics(b.ctx, body, *datadogV2.NewSubmitMetricsOptionalParameters())
	return err
}

// Series names submitted to Datadog.
const (
	seriesBlocks       = "picture.blocks.total"
	seriesSources      = "picture.sources.total"
	seriesPages        = "picture.pages.total"
	seriesPageDuration = "picture.page.duration_seconds"
)

// buildSeries turns a snapshot into series stamped with ts. It holds no lock.
func (b *Backend) buildSeries(s buffers, ts int64) []datadogV2.MetricSeries {
	var out []datadogV2.MetricSeries
	count := func(name string, v float64, tags []string) {
		if v != 0 {
			out = append(out, newSeries(name, datadogV2.METRICINTAKETYPE_COUNT, v, tags, ts))
		}
	}

	for _, outcome := range sortedKeys(s.blockCounts) {
		count(seriesBlocks, s.blockCounts[outcome], tagsWith(b.baseTags, "outcome:"+outcome))
	}
	count(seriesSources, s.sourceCount, b.baseTags)
	for _, status := range sortedKeys(s.pageCounts) {
		count(seriesPages, s.pageCounts[status], tagsWith(b.baseTags, "status:"+status))
	}
	for _, status := range sortedKeys(s.pageDur) {
		out = appendDistribution(out, seriesPageDuration, s.pageDur[status], tagsWith(b.baseTags, "status:"+status), ts)
	}
	return out
}

// quantiles reported for every distribution, by series suffix.
var quantiles = []struct {
	suffix string
	q      float64
}{
	{".p50", 0.50},
	{".p90", 0.90},
	{".p95", 0.95},
	{".p99", 0.99},
}

// appendDistribution summarizes samples as quantile, max and sample-count
// gauges named prefix+suffix. samples is left unsorted.
func appendDistribution(out []datadogV2.MetricSeries, prefix string, samples []float64, tags []string, ts int64) []datadogV2.MetricSeries {
	if len(samples) == 0 {
		return out
	}
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)

	gauge := datadogV2.METRICINTAKETYPE_GAUGE
	for _, q := range quantiles {
		out = append(out, newSeries(prefix+q.suffix, gauge, nearestRank(sorted, q.q), tags, ts))
	}
	return append(out,
		newSeries(prefix+".max", gauge, sorted[len(sorted)-1], tags, ts),
		newSeries(prefix+".samples", gauge, float64(len(sorted)), tags, ts),
	)
}

func newSeries(name string, kind datadogV2.MetricIntakeType, v float64, tags []string, ts int64) datadogV2.MetricSeries {
	return datadogV2.MetricSeries{
		Metric: name,
		Type:   kind.Ptr(),
		Points: []datadogV2.MetricPoint{{Timestamp: dd.PtrInt64(ts), Value: dd.PtrFloat64(v)}},
		Tags:   tags,
	}
}

// tagsWith returns a fresh slice; base is never aliased.
func tagsWith(base []string, extra ...string) []string {
	return append(append(make([]string, 0, len(base)+len(extra)), base...), extra...)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// nearestRank reads quantile q off an ascending slice.
func nearestRank(sorted []float64, q float64) float64 {
	n := len(sorted)
	switch {
	case n == 0:
		return 0
	case q <= 0:
		return sorted[0]
	case q >= 1:
		return sorted[n-1]
	}
	return sorted[min(int(q*float64(n-1)+0.5), n-1)]
}

var _ metrics.Backend = (*Backend)(nil)

// ParseTagsCSV splits a METRICS_TAGS style value ("env:prod, service:site")
// into tags, dropping blanks.
func ParseTagsCSV(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
