package scraper

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"outagewatch/helpers"
	"outagewatch/logger"
	pkgerrors "outagewatch/pkg/errors"
	"outagewatch/services/cache"
	"outagewatch/services/ocr"
	"outagewatch/services/store"
)

// FeedScraper handles feed-style sources: a listing page of announcement
// links, each pointing at a detail page that carries inline text, an image
// to OCR, or downloadable documents
type FeedScraper struct {
	baseScraper
	cfg       SourceConfig
	extractor ocr.TextExtractor
	renderer  ocr.PageRenderer
	log       *logger.Logger
}

// NewFeedScraper creates a feed scraper from its source configuration
func NewFeedScraper(
	cfg SourceConfig,
	st store.RecordStore,
	ca cache.ArtifactCache,
	fetcher *helpers.Fetcher,
	extractor ocr.TextExtractor,
	renderer ocr.PageRenderer,
) *FeedScraper {
	return &FeedScraper{
		baseScraper: newBaseScraper(cfg.Name, cfg.URL, st, ca, fetcher),
		cfg:         cfg,
		extractor:   extractor,
		renderer:    renderer,
		log:         logger.ForScraper(cfg.Name),
	}
}

// Scrape fetches the feed page and persists every previously unseen candidate
func (s *FeedScraper) Scrape(ctx context.Context) ([]store.Record, error) {
	doc, err := s.document(ctx, s.url)
	if err != nil {
		return nil, pkgerrors.NewNetwork(s.name, "fetch feed page", err)
	}

	candidates := s.listCandidates(doc)
	s.log.Debug().Int("candidates", len(candidates)).Msg("Feed page parsed")

	var created []store.Record
	for _, c := range candidates {
		// An existing artifact means this candidate was fully handled on an
		// earlier pass, success or error placeholder alike
		if s.cache.Exists(c.Key) {
			continue
		}

		rec, wasCreated, err := s.store.GetOrCreate(ctx, store.Record{
			ID:    c.Key,
			Title: c.Title,
			URL:   c.DetailURL,
		})
		if err != nil {
			return created, pkgerrors.NewStorage(s.name, "create record", err).WithKey(c.Key)
		}

		if err := s.processDetail(ctx, rec); err != nil {
			if pkgerrors.IsFatal(err) {
				return created, err
			}
			s.log.Warn().Err(err).
				Str("key", c.Key).
				Str("url", c.DetailURL).
				Msg("Candidate skipped")
			continue
		}

		if wasCreated {
			created = append(created, rec)
		}
	}
	return created, nil
}

// listCandidates enumerates feed entries on the listing page
func (s *FeedScraper) listCandidates(doc *goquery.Document) []Candidate {
	var candidates []Candidate

	doc.Find(s.cfg.Selectors.Item).Each(func(i int, item *goquery.Selection) {
		link := item
		if s.cfg.Selectors.ItemLink != "" {
			link = item.Find(s.cfg.Selectors.ItemLink).First()
		}

		href, ok := link.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			s.log.Warn().Int("index", i).Msg("Feed item without link, skipping")
			return
		}
		detailURL := helpers.ResolveURL(s.cfg.BaseURL, strings.TrimSpace(href))

		var title string
		if s.cfg.Selectors.ItemTitle != "" {
			title = strings.TrimSpace(item.Find(s.cfg.Selectors.ItemTitle).First().Text())
		} else {
			title, _ = link.Attr("title")
			title = strings.TrimSpace(title)
		}

		candidates = append(candidates, Candidate{
			Key:       helpers.HashURL(detailURL),
			Title:     title,
			DetailURL: detailURL,
		})
	})

	return candidates
}

// processDetail fetches a candidate's detail page and extracts the record
// body according to the source's attachment policy
func (s *FeedScraper) processDetail(ctx context.Context, rec store.Record) error {
	doc, err := s.document(ctx, rec.URL)
	if err != nil {
		// No artifact is written: a transient detail fetch failure is
		// retried on the next pass
		return pkgerrors.NewNetwork(s.name, "fetch detail page", err).WithKey(rec.ID)
	}

	content := doc.Find(s.cfg.Selectors.Content)

	switch s.cfg.Attachment {
	case AttachmentImage:
		if content.Length() == 0 {
			return pkgerrors.NewParsing(s.name, "detail content block not found", nil).WithKey(rec.ID)
		}
		img := content.Find(s.cfg.Selectors.Attachment).First()
		if src, ok := img.Attr(s.cfg.Selectors.AttachmentAttr); ok {
			return s.handleImage(ctx, rec, helpers.ResolveURL(s.cfg.BaseURL, strings.TrimSpace(src)))
		}
		return s.handleInline(ctx, rec, content)

	case AttachmentDocument:
		attachments := doc.Find(s.cfg.Selectors.Attachment)
		if attachments.Length() == 0 {
			return pkgerrors.NewParsing(s.name, "no document attachments found", nil).WithKey(rec.ID)
		}
		return s.handleDocuments(ctx, rec, attachments)

	default:
		if content.Length() == 0 {
			return pkgerrors.NewParsing(s.name, "detail content block not found", nil).WithKey(rec.ID)
		}
		return s.handleInline(ctx, rec, content)
	}
}

// handleInline stores the content block's text as both the artifact and the
// record body
func (s *FeedScraper) handleInline(ctx context.Context, rec store.Record, content *goquery.Selection) error {
	text := helpers.CollapseWhitespace(content.Text())

	if err := s.cache.Store(rec.ID, []byte(text)); err != nil {
		return pkgerrors.NewStorage(s.name, "cache inline text", err).WithKey(rec.ID)
	}
	if err := s.store.UpdateBody(ctx, rec.ID, text); err != nil {
		return pkgerrors.NewStorage(s.name, "update body", err).WithKey(rec.ID)
	}
	s.log.Info().Str("key", rec.ID).Str("url", rec.URL).Msg("Stored inline text")
	return nil
}

// handleImage fetches an image attachment, caches it, and OCRs it into the
// record body
func (s *FeedScraper) handleImage(ctx context.Context, rec store.Record, imageURL string) error {
	data, err := s.fetchRaw(ctx, helpers.EscapeURL(imageURL))
	if err != nil {
		return s.storeFetchFailure(ctx, rec, err)
	}

	if err := s.cache.Store(rec.ID, data); err != nil {
		return pkgerrors.NewStorage(s.name, "cache image", err).WithKey(rec.ID)
	}

	s.log.Info().Str("key", rec.ID).Str("attachment", imageURL).Msg("Fetched image attachment")
	return s.extractAndStore(ctx, rec, data)
}

// handleDocuments fetches every linked document, rendering and OCRing each;
// the last successful extraction wins as the record body
func (s *FeedScraper) handleDocuments(ctx context.Context, rec store.Record, attachments *goquery.Selection) error {
	var outerErr error
	attachments.EachWithBreak(func(i int, a *goquery.Selection) bool {
		href, ok := a.Attr(s.cfg.Selectors.AttachmentAttr)
		if !ok || strings.TrimSpace(href) == "" {
			return true
		}
		docURL := helpers.ResolveURL(s.cfg.BaseURL, strings.TrimSpace(href))

		data, err := s.fetchRaw(ctx, helpers.EscapeURL(docURL))
		if err != nil {
			if err := s.storeFetchFailure(ctx, rec, err); err != nil {
				outerErr = err
				return false
			}
			return true
		}

		if err := s.cache.Store(rec.ID, data); err != nil {
			outerErr = pkgerrors.NewStorage(s.name, "cache document", err).WithKey(rec.ID)
			return false
		}
		s.log.Info().Str("key", rec.ID).Str("attachment", docURL).Msg("Fetched document attachment")

		page, err := s.renderer.FirstPage(ctx, data)
		if err != nil {
			s.log.Warn().Err(err).Str("key", rec.ID).Msg("Document rendering failed")
			return true
		}

		if err := s.extractAndStore(ctx, rec, page); err != nil {
			outerErr = err
			return false
		}
		return true
	})
	return outerErr
}

// storeFetchFailure records a failed attachment fetch: the error text becomes
// both the cached artifact and the record body, so the fetch is never retried
func (s *FeedScraper) storeFetchFailure(ctx context.Context, rec store.Record, fetchErr error) error {
	s.log.Warn().Err(fetchErr).
		Str("key", rec.ID).
		Str("url", rec.URL).
		Msg("Attachment fetch failed, caching error placeholder")

	if err := s.cache.Store(rec.ID, []byte(fetchErr.Error())); err != nil {
		return pkgerrors.NewStorage(s.name, "cache error placeholder", err).WithKey(rec.ID)
	}
	if err := s.store.UpdateBody(ctx, rec.ID, fetchErr.Error()); err != nil {
		return pkgerrors.NewStorage(s.name, "update body", err).WithKey(rec.ID)
	}
	return nil
}

// extractAndStore OCRs an image into the record body; OCR failure degrades to
// an empty body instead of aborting the record
func (s *FeedScraper) extractAndStore(ctx context.Context, rec store.Record, image []byte) error {
	text, err := s.extractor.ExtractText(ctx, image, s.cfg.OCRLang)
	if err != nil {
		s.log.Warn().Err(err).Str("key", rec.ID).Msg("OCR failed, storing empty body")
		text = ""
	}

	if err := s.store.UpdateBody(ctx, rec.ID, strings.TrimSpace(text)); err != nil {
		return pkgerrors.NewStorage(s.name, "update body", err).WithKey(rec.ID)
	}
	return nil
}
