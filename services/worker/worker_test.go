package worker

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"outagewatch/internal/scraper"
	pkgerrors "outagewatch/pkg/errors"
	"outagewatch/services/store"
)

// fakeScraper counts its passes and returns canned results
type fakeScraper struct {
	mu      sync.Mutex
	name    string
	created []store.Record
	err     error
	calls   int
}

func (f *fakeScraper) Scrape(ctx context.Context) ([]store.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.created, f.err
}

func (f *fakeScraper) Name() string { return f.name }

func (f *fakeScraper) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeNotifier counts its runs
type fakeNotifier struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeNotifier) Run(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return 0, nil
}

func (f *fakeNotifier) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakePublisher records published payloads
type fakePublisher struct {
	mu       sync.Mutex
	payloads []string
}

func (f *fakePublisher) Publish(source string, message []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, source+": "+string(message))
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func TestWorkerRunsScrapersThenNotifier(t *testing.T) {
	s1 := &fakeScraper{name: "news"}
	s2 := &fakeScraper{name: "outages"}
	n := &fakeNotifier{}

	ctx, cancel := context.WithCancel(context.Background())
	w := NewWorker(ctx, []scraper.Scraper{s1, s2}, n, nil, time.Hour)

	done := make(chan error, 1)
	go func() { done <- w.Start() }()

	// The first pass runs immediately
	assert.Eventually(t, func() bool {
		return s1.callCount() == 1 && s2.callCount() == 1 && n.callCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	assert.Eventually(t, func() bool {
		select {
		case err := <-done:
			return err == context.Canceled
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWorkerStorageErrorAbortsPass(t *testing.T) {
	s1 := &fakeScraper{name: "news", err: pkgerrors.NewStorage("news", "insert failed", fmt.Errorf("disk full"))}
	s2 := &fakeScraper{name: "outages"}
	n := &fakeNotifier{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := NewWorker(ctx, []scraper.Scraper{s1, s2}, n, nil, time.Hour)

	w.runPass()

	assert.Equal(t, 1, s1.callCount())
	assert.Equal(t, 0, s2.callCount(), "storage error aborts the rest of the pass")
	assert.Equal(t, 0, n.callCount(), "notification pass is skipped on abort")
}

func TestWorkerNonFatalErrorContinuesPass(t *testing.T) {
	s1 := &fakeScraper{name: "news", err: pkgerrors.NewNetwork("news", "timeout", fmt.Errorf("i/o timeout"))}
	s2 := &fakeScraper{name: "outages"}
	n := &fakeNotifier{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := NewWorker(ctx, []scraper.Scraper{s1, s2}, n, nil, time.Hour)

	w.runPass()

	assert.Equal(t, 1, s2.callCount(), "network error on one source skips only that source")
	assert.Equal(t, 1, n.callCount())
}

func TestWorkerPublishesCreatedRecords(t *testing.T) {
	s := &fakeScraper{name: "news", created: []store.Record{
		{ID: "k1", URL: "http://example.com/1"},
		{ID: "k2", URL: "http://example.com/2"},
	}}
	pub := &fakePublisher{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := NewWorker(ctx, []scraper.Scraper{s}, nil, pub, time.Hour)

	w.runPass()

	assert.Len(t, pub.payloads, 2)
	assert.Contains(t, pub.payloads[0], `"id":"k1"`)
	assert.Contains(t, pub.payloads[1], `"id":"k2"`)
}
