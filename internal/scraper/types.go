package scraper

import (
	"context"

	"outagewatch/services/store"
)

// Scraper runs one extraction pass over a single configured source and
// returns the records created during the pass
type Scraper interface {
	// Scrape fetches the source, extracts candidate records, and persists
	// every previously unseen one
	Scrape(ctx context.Context) ([]store.Record, error)

	// Name returns the scraper's name for logging and identification
	Name() string
}

// Candidate is one feed entry before its detail page has been fetched
type Candidate struct {
	// Key is the natural dedup key (md5 hex of the detail URL)
	Key       string
	Title     string
	DetailURL string
}

// AttachmentKind selects how a source's detail pages carry their content
type AttachmentKind int

const (
	// AttachmentNone: the detail content block embeds inline text
	AttachmentNone AttachmentKind = iota
	// AttachmentImage: the content block holds an image to OCR directly
	AttachmentImage
	// AttachmentDocument: the detail page links documents whose first page
	// is rendered and then OCR'ed
	AttachmentDocument
)

// FeedSelectors contains CSS selectors for a feed-style source
type FeedSelectors struct {
	// Item selects one feed entry on the listing page
	Item string
	// ItemLink selects the anchor within an item; empty means the item
	// element itself is the anchor
	ItemLink string
	// ItemTitle selects the title element within an item; empty means the
	// title comes from the anchor's title attribute
	ItemTitle string
	// Content selects the detail page content block
	Content string
	// Attachment selects attachment elements; its URL is read from
	// AttachmentAttr ("src" for images, "href" for documents)
	Attachment     string
	AttachmentAttr string
}

// SourceConfig contains the configuration for one feed-style source
type SourceConfig struct {
	Name       string
	URL        string
	BaseURL    string
	Selectors  FeedSelectors
	Attachment AttachmentKind
	OCRLang    string
}
