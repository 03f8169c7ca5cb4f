package scraper

import (
	"net/url"

	"outagewatch/config"
	"outagewatch/helpers"
	"outagewatch/services/cache"
	"outagewatch/services/ocr"
	"outagewatch/services/store"
)

// CreateScrapers creates all scrapers enabled by the configuration, in the
// order they are processed within a pass
func CreateScrapers(
	cfg *config.Config,
	st store.RecordStore,
	ca cache.ArtifactCache,
	fetcher *helpers.Fetcher,
	extractor ocr.TextExtractor,
	renderer ocr.PageRenderer,
) []Scraper {
	var scrapers []Scraper

	if cfg.NewsURL != "" {
		scrapers = append(scrapers, NewFeedScraper(SourceConfig{
			Name:    "news",
			URL:     cfg.NewsURL,
			BaseURL: baseOf(cfg.NewsURL),
			Selectors: FeedSelectors{
				Item:           "div.NewsSummary",
				ItemLink:       "a",
				Content:        "#NewsPostDetailContent",
				Attachment:     "img",
				AttachmentAttr: "src",
			},
			Attachment: AttachmentImage,
			OCRLang:    cfg.OCRLang,
		}, st, ca, fetcher, extractor, renderer))
	}

	if cfg.DocsURL != "" {
		scrapers = append(scrapers, NewFeedScraper(SourceConfig{
			Name:    "docs",
			URL:     cfg.DocsURL,
			BaseURL: baseOf(cfg.DocsURL),
			Selectors: FeedSelectors{
				// Feed entries are the card anchors themselves
				Item:           "a.uk-card",
				ItemTitle:      "h3",
				Attachment:     "a.uk-button-small",
				AttachmentAttr: "href",
			},
			Attachment: AttachmentDocument,
			OCRLang:    cfg.OCRLang,
		}, st, ca, fetcher, extractor, renderer))
	}

	if cfg.OutagesURL != "" {
		scrapers = append(scrapers, NewTableScraper("outages", cfg.OutagesURL, st, fetcher))
	}

	return scrapers
}

// baseOf strips a URL down to its scheme and host
func baseOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return rawURL
	}
	return u.Scheme + "://" + u.Host
}
