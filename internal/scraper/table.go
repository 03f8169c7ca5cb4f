package scraper

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"outagewatch/helpers"
	"outagewatch/logger"
	pkgerrors "outagewatch/pkg/errors"
	"outagewatch/services/store"
)

// Column layout of the planned-works table. The markup is brittle: any row
// with fewer cells than minColumns is skipped, not fatal.
const (
	colAddress    = 2
	colStartDate  = 3
	colStartTime  = 4
	colEndDate    = 5
	colEndTime    = 6
	colComment    = 9
	colFias       = 10
	minColumns    = 11
	recordIDAttr  = "data-record-id"
	tableSelector = "table.tableous_facts.funds"
	rowSelector   = "tbody tr"
)

// TableScraper handles the grid operator's planned-works table: one record
// per row, keyed by the site-provided record identifier. No detail pages,
// no attachments.
type TableScraper struct {
	baseScraper
	log *logger.Logger
}

// NewTableScraper creates a table scraper for the configured URL
func NewTableScraper(name, url string, st store.RecordStore, fetcher *helpers.Fetcher) *TableScraper {
	return &TableScraper{
		baseScraper: baseScraper{
			name:  name,
			url:   url,
			store: st,
			fetch: fetcher.FetchHTML,
		},
		log: logger.ForScraper(name),
	}
}

// Scrape fetches the planned-works page and persists every previously unseen
// row
func (s *TableScraper) Scrape(ctx context.Context) ([]store.Record, error) {
	doc, err := s.document(ctx, s.url)
	if err != nil {
		return nil, pkgerrors.NewNetwork(s.name, "fetch planned works page", err)
	}

	table := doc.Find(tableSelector)
	if table.Length() == 0 {
		return nil, pkgerrors.NewParsing(s.name, "planned works table not found", nil)
	}

	rows := table.Find(rowSelector)
	s.log.Debug().Int("rows", rows.Length()).Msg("Planned works table parsed")

	var created []store.Record
	var fatal error
	rows.EachWithBreak(func(i int, row *goquery.Selection) bool {
		rec, ok := s.parseRow(i, row)
		if !ok {
			return true
		}

		stored, wasCreated, err := s.store.GetOrCreate(ctx, rec)
		if err != nil {
			fatal = pkgerrors.NewStorage(s.name, "create record", err).WithKey(rec.ID)
			return false
		}
		if wasCreated {
			s.log.Info().
				Str("key", rec.ID).
				Str("period_start", rec.PeriodStart).
				Msg("New planned outage")
			created = append(created, stored)
		}
		return true
	})
	if fatal != nil {
		return created, fatal
	}
	return created, nil
}

// parseRow extracts one record from a table row with bounds-checked column
// access; shape mismatches are logged and skipped
func (s *TableScraper) parseRow(index int, row *goquery.Selection) (store.Record, bool) {
	id, ok := row.Attr(recordIDAttr)
	if !ok || id == "" {
		s.log.Warn().Int("row", index).Msg("Row without record id, skipping")
		return store.Record{}, false
	}

	cells := row.Find("td")
	if cells.Length() < minColumns {
		s.log.Warn().
			Int("row", index).
			Str("key", id).
			Int("cells", cells.Length()).
			Msg("Row with too few cells, skipping")
		return store.Record{}, false
	}

	cell := func(i int) string {
		return strings.TrimSpace(cells.Eq(i).Text())
	}

	address := helpers.CollapseWhitespace(cellText(cells.Eq(colAddress), "\n"))
	start := strings.TrimSpace(cell(colStartDate) + " " + cell(colStartTime))
	end := strings.TrimSpace(cell(colEndDate) + " " + cell(colEndTime))
	comment := cell(colComment)
	fias := cellText(cells.Eq(colFias), ",")

	body := address
	if comment != "" {
		body += "\n" + comment
	}
	if fias != "" {
		body += "\n" + fias
	}

	return store.Record{
		ID:          id,
		URL:         s.url,
		PeriodStart: start,
		PeriodEnd:   end,
		Body:        body,
	}, true
}

// cellText joins a cell's text nodes with a separator, mirroring how the
// address column packs multiple streets into one cell
func cellText(cell *goquery.Selection, sep string) string {
	var parts []string
	cell.Contents().Each(func(i int, n *goquery.Selection) {
		text := strings.TrimSpace(n.Text())
		if text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, sep)
}
