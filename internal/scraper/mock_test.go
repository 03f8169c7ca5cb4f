package scraper

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"outagewatch/services/store"
)

// mockCache implements cache.ArtifactCache in memory for testing
type mockCache struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newMockCache() *mockCache {
	return &mockCache{blobs: make(map[string][]byte)}
}

func (m *mockCache) Exists(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blobs[key]
	return ok
}

func (m *mockCache) Store(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = data
	return nil
}

func (m *mockCache) Load(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if data, ok := m.blobs[key]; ok {
		return data, nil
	}
	return nil, fmt.Errorf("artifact not found")
}

// fakeExtractor returns canned OCR text, or an error when failing is set
type fakeExtractor struct {
	text    string
	failing bool
	calls   int
}

func (f *fakeExtractor) ExtractText(ctx context.Context, image []byte, lang string) (string, error) {
	f.calls++
	if f.failing {
		return "", fmt.Errorf("ocr failed")
	}
	return f.text, nil
}

// fakeRenderer returns its input marked as rendered
type fakeRenderer struct {
	failing bool
}

func (f *fakeRenderer) FirstPage(ctx context.Context, document []byte) ([]byte, error) {
	if f.failing {
		return nil, fmt.Errorf("render failed")
	}
	return append([]byte("rendered:"), document...), nil
}

// pageServer fakes the fetch funcs from a url -> body map and records every
// requested URL
type pageServer struct {
	mu    sync.Mutex
	pages map[string]string
	urls  []string
}

func newPageServer(pages map[string]string) *pageServer {
	return &pageServer{pages: pages}
}

func (p *pageServer) fetchHTML(ctx context.Context, url string) (io.Reader, error) {
	body, err := p.fetchRaw(ctx, url)
	if err != nil {
		return nil, err
	}
	return strings.NewReader(string(body)), nil
}

func (p *pageServer) fetchRaw(ctx context.Context, url string) ([]byte, error) {
	p.mu.Lock()
	p.urls = append(p.urls, url)
	p.mu.Unlock()

	body, ok := p.pages[url]
	if !ok {
		return nil, fmt.Errorf("fetch %s unexpected status code: 404", url)
	}
	return []byte(body), nil
}

func (p *pageServer) requestCount(url string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	count := 0
	for _, u := range p.urls {
		if u == url {
			count++
		}
	}
	return count
}

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "records.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}
