package scraper

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"outagewatch/helpers"
)

func outageRow(id, address, comment string) string {
	return fmt.Sprintf(`<tr data-record-id="%s">
		<td>1</td><td>Всеволожский</td><td>%s</td>
		<td>01.09.2026</td><td>09:00</td>
		<td>01.09.2026</td><td>17:00</td>
		<td>x</td><td>y</td><td>%s</td><td>fias-1</td>
	</tr>`, id, address, comment)
}

func outagePage(rows ...string) string {
	return `<html><body><table class="tableous_facts funds"><tbody>` +
		strings.Join(rows, "\n") + `</tbody></table></body></html>`
}

func newOutageScraper(srv *pageServer, t *testing.T) *TableScraper {
	s := NewTableScraper("outages", "http://example.com/planned", newTestStore(t), helpers.NewFetcher(0))
	s.fetch = srv.fetchHTML
	return s
}

func TestTableScraperParsesRows(t *testing.T) {
	srv := newPageServer(map[string]string{
		"http://example.com/planned": outagePage(
			outageRow("rec-1", "дер. Васкелово, ул. Лесная", "плановые работы"),
		),
	})
	s := newOutageScraper(srv, t)

	created, err := s.Scrape(context.Background())
	assert.NoError(t, err)
	require.Len(t, created, 1)

	rec := created[0]
	assert.Equal(t, "rec-1", rec.ID)
	assert.Equal(t, "01.09.2026 09:00", rec.PeriodStart)
	assert.Equal(t, "01.09.2026 17:00", rec.PeriodEnd)
	assert.Contains(t, rec.Body, "Васкелово")
	assert.Contains(t, rec.Body, "плановые работы")
	assert.Contains(t, rec.Body, "fias-1")
}

func TestTableScraperSkipsMalformedRows(t *testing.T) {
	rows := make([]string, 0, 10)
	for i := 0; i < 9; i++ {
		rows = append(rows, outageRow(fmt.Sprintf("rec-%d", i), "адрес", "комментарий"))
	}
	// One row with too few cells
	rows = append(rows, `<tr data-record-id="rec-short"><td>only</td><td>two</td></tr>`)

	srv := newPageServer(map[string]string{
		"http://example.com/planned": outagePage(rows...),
	})
	s := newOutageScraper(srv, t)

	created, err := s.Scrape(context.Background())
	assert.NoError(t, err)
	assert.Len(t, created, 9, "malformed row is skipped without aborting the rest")
}

func TestTableScraperSkipsRowsWithoutID(t *testing.T) {
	srv := newPageServer(map[string]string{
		"http://example.com/planned": outagePage(
			`<tr><td>1</td><td>2</td><td>3</td><td>4</td><td>5</td><td>6</td><td>7</td><td>8</td><td>9</td><td>10</td><td>11</td></tr>`,
			outageRow("rec-1", "адрес", ""),
		),
	})
	s := newOutageScraper(srv, t)

	created, err := s.Scrape(context.Background())
	assert.NoError(t, err)
	assert.Len(t, created, 1)
}

func TestTableScraperIdempotent(t *testing.T) {
	srv := newPageServer(map[string]string{
		"http://example.com/planned": outagePage(outageRow("rec-1", "адрес", "")),
	})
	s := newOutageScraper(srv, t)

	created, err := s.Scrape(context.Background())
	assert.NoError(t, err)
	assert.Len(t, created, 1)

	created, err = s.Scrape(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, created, "second pass over the same table creates nothing")
}

func TestTableScraperMissingTable(t *testing.T) {
	srv := newPageServer(map[string]string{
		"http://example.com/planned": `<html><body><p>no table today</p></body></html>`,
	})
	s := newOutageScraper(srv, t)

	_, err := s.Scrape(context.Background())
	assert.Error(t, err)
}
