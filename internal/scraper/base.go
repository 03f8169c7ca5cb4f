package scraper

import (
	"context"
	"fmt"
	"io"

	"github.com/PuerkitoBio/goquery"

	"outagewatch/helpers"
	"outagewatch/services/cache"
	"outagewatch/services/store"
)

// fetchFunc fetches a URL and returns its HTML body as UTF-8.
// Injectable for tests.
type fetchFunc func(ctx context.Context, url string) (io.Reader, error)

// fetchRawFunc fetches a URL and returns the raw bytes (images, documents)
type fetchRawFunc func(ctx context.Context, url string) ([]byte, error)

// baseScraper provides the dependencies shared by all scrapers
type baseScraper struct {
	name     string
	url      string
	store    store.RecordStore
	cache    cache.ArtifactCache
	fetch    fetchFunc
	fetchRaw fetchRawFunc
}

func newBaseScraper(name, url string, st store.RecordStore, ca cache.ArtifactCache, fetcher *helpers.Fetcher) baseScraper {
	return baseScraper{
		name:     name,
		url:      url,
		store:    st,
		cache:    ca,
		fetch:    fetcher.FetchHTML,
		fetchRaw: fetcher.Fetch,
	}
}

// Name returns the scraper's name
func (b *baseScraper) Name() string {
	return b.name
}

// document fetches a URL and parses it into a goquery document
func (b *baseScraper) document(ctx context.Context, url string) (*goquery.Document, error) {
	body, err := b.fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse HTML from %s: %w", url, err)
	}
	return doc, nil
}
