package journal

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/google/uuid"
)

const (
	minLatencyUs = 1
	maxLatencyUs = 60_000_000
)

// Entry is one recorded dispatch.
type Entry struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Method    string        `json:"method"`
	URL       string        `json:"url"`
	Status    int           `json:"status"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
}

// Failed reports whether the dispatch ended with an error instead of a
// response.
func (e Entry) Failed() bool {
	return e.Error != ""
}

// Stats summarizes the recorded entries.
type Stats struct {
	Total  int64         `json:"total"`
	Errors int64         `json:"errors"`
	Min    time.Duration `json:"min"`
	Max    time.Duration `json:"max"`
	Mean   time.Duration `json:"mean"`
	P50    time.Duration `json:"p50"`
	P95    time.Duration `json:"p95"`
	P99    time.Duration `json:"p99"`
}

// Sink receives every entry recorded by a Journal.
type Sink interface {
	Save(Entry) error
}

// Journal is a concurrency-safe, in-memory list of entries.
type Journal struct {
	mu        sync.Mutex
	entries   []Entry
	histogram *hdrhistogram.Histogram
	errors    int64
	limit     int
	sink      Sink
}

// Option is a functional option for Journal
type Option func(*Journal)

// WithLimit keeps only the most recent n entries. Stats still cover every
// recorded dispatch.
func WithLimit(n int) Option {
	return func(j *Journal) {
		j.limit = n
	}
}

// WithSink forwards every entry to s after it is recorded.
func WithSink(s Sink) Option {
	return func(j *Journal) {
		j.sink = s
	}
}

func New(opts ...Option) *Journal {
	j := &Journal{
		entries: make([]Entry, 0),
		// 1us to 60s, 3 significant digits
		histogram: hdrhistogram.New(minLatencyUs, maxLatencyUs, 3),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Record stores e, filling in its ID and timestamp when they are empty, and
// returns the stored entry. A sink failure is returned after the entry has
// been kept in memory.
func (j *Journal) Record(e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	latencyUs := e.Duration.Microseconds()
	if latencyUs < minLatencyUs {
		latencyUs = minLatencyUs
	}
	if latencyUs > maxLatencyUs {
		latencyUs = maxLatencyUs
	}

	j.mu.Lock()
	j.entries = append(j.entries, e)
	if j.limit > 0 && len(j.entries) > j.limit {
		j.entries = append([]Entry(nil), j.entries[len(j.entries)-j.limit:]...)
	}
	_ = j.histogram.RecordValue(latencyUs)
	if e.Failed() {
		j.errors++
	}
	sink := j.sink
	j.mu.Unlock()

	if sink != nil {
		if err := sink.Save(e); err != nil {
			return e, err
		}
	}
	return e, nil
}

// Entries returns a copy of the recorded entries, oldest first.
func (j *Journal) Entries() []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()
	result := make([]Entry, len(j.entries))
	copy(result, j.entries)
	return result
}

// Last returns the most recent entry.
func (j *Journal) Last() (Entry, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if len(j.entries) == 0 {
		return Entry{}, false
	}
	return j.entries[len(j.entries)-1], true
}

func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.entries)
}

// Clear drops all entries and resets the statistics.
func (j *Journal) Clear() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = make([]Entry, 0)
	j.histogram.Reset()
	j.errors = 0
}

func (j *Journal) Stats() Stats {
	j.mu.Lock()
	defer j.mu.Unlock()

	total := j.histogram.TotalCount()
	if total == 0 {
		return Stats{}
	}
	return Stats{
		Total:  total,
		Errors: j.errors,
		Min:    time.Duration(j.histogram.Min()) * time.Microsecond,
		Max:    time.Duration(j.histogram.Max()) * time.Microsecond,
		Mean:   time.Duration(j.histogram.Mean()) * time.Microsecond,
		P50:    time.Duration(j.histogram.ValueAtQuantile(50)) * time.Microsecond,
		P95:    time.Duration(j.histogram.ValueAtQuantile(95)) * time.Microsecond,
		P99:    time.Duration(j.histogram.ValueAtQuantile(99)) * time.Microsecond,
	}
}

// ExportJSON exports the entries as indented JSON.
func (j *Journal) ExportJSON() ([]byte, error) {
	return json.MarshalIndent(j.Entries(), "", "  ")
}
