package store

import (
	"context"
	"strings"
	"time"
)

// Record is one discovered outage announcement
type Record struct {
	// ID is the natural key: a hash of the canonical detail URL for feed
	// sources, or the site-provided record identifier for the outage table
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
	URL   string `json:"url"`
	// CreatedAt is the first-discovery timestamp and never changes
	CreatedAt   time.Time `json:"created_at"`
	PeriodStart string    `json:"period_start,omitempty"`
	PeriodEnd   string    `json:"period_end,omitempty"`
	Body        string    `json:"body,omitempty"`
	// NotificationSent never reverts to false once set
	NotificationSent bool `json:"notification_sent"`
}

// MatchFunc decides whether a record matches the alert filter
type MatchFunc func(title, body string) bool

// RecordStore is the durable table of discovered records
type RecordStore interface {
	// GetOrCreate inserts a record under its natural key, or returns the
	// existing row unchanged. Duplicate keys are the expected steady state
	// on every pass after the first.
	GetOrCreate(ctx context.Context, rec Record) (Record, bool, error)

	// UpdateBody sets the extracted text of a record
	UpdateBody(ctx context.Context, id, body string) error

	// UpdatePeriod sets the announced outage window of a record
	UpdatePeriod(ctx context.Context, id, start, end string) error

	// MarkNotified flips the notified flag; it is never cleared
	MarkNotified(ctx context.Context, id string) error

	// UnnotifiedMatching returns unnotified records whose title or body
	// matches, ordered newest-first by creation time
	UnnotifiedMatching(ctx context.Context, match MatchFunc) ([]Record, error)

	// Close releases the underlying database handle
	Close() error
}

// KeywordMatch builds a MatchFunc that matches when any keyword is a
// substring of the title or body
func KeywordMatch(keywords []string) MatchFunc {
	return func(title, body string) bool {
		for _, kw := range keywords {
			if kw == "" {
				continue
			}
			if strings.Contains(title, kw) || strings.Contains(body, kw) {
				return true
			}
		}
		return false
	}
}
