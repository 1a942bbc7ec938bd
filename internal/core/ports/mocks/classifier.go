package mocks

import (
	"context"
	"sync"

	"github.com/lueurxax/telegrasper/internal/core/domain"
)

// Classifier records samples and returns a fixed verdict.
type Classifier struct {
	mu      sync.Mutex
	verdict bool
	samples []string

	// ClassifyFn overrides Classify when set.
	ClassifyFn func(ctx context.Context, sample string) (bool, error)
}

// NewClassifier creates a classifier that always answers verdict.
func NewClassifier(verdict bool) *Classifier {
	return &Classifier{verdict: verdict}
}

// Classify implements ports.Classifier.
func (c *Classifier) Classify(ctx context.Context, sample string) (bool, error) {
	c.mu.Lock()
	c.samples = append(c.samples, sample)
	c.mu.Unlock()

	if c.ClassifyFn != nil {
		return c.ClassifyFn(ctx, sample)
	}

	return c.verdict, nil
}

// Samples returns every sample passed to Classify.
func (c *Classifier) Samples() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]string(nil), c.samples...)
}

// ProgressReporter records progress and results.
type ProgressReporter struct {
	mu       sync.Mutex
	progress []domain.Progress
	results  map[string]domain.ScrapeResult
}

// NewProgressReporter creates an empty recorder.
func NewProgressReporter() *ProgressReporter {
	return &ProgressReporter{results: make(map[string]domain.ScrapeResult)}
}

// Report implements ports.ProgressReporter.
func (r *ProgressReporter) Report(_ context.Context, p domain.Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.progress = append(r.progress, p)
}

// Publish implements ports.ResultPublisher.
func (r *ProgressReporter) Publish(_ context.Context, key string, res domain.ScrapeResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.results[key] = res
}

// Progress returns recorded progress events.
func (r *ProgressReporter) Progress() []domain.Progress {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]domain.Progress(nil), r.progress...)
}

// Result returns the last result published for key.
func (r *ProgressReporter) Result(key string) (domain.ScrapeResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, ok := r.results[key]

	return res, ok
}
