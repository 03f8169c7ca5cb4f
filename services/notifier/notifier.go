package notifier

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"outagewatch/logger"
	"outagewatch/services/cache"
	"outagewatch/services/store"
)

// Notifier dispatches at most one notification per record per chat for
// unnotified records matching the alert filter
type Notifier struct {
	store   store.RecordStore
	cache   cache.ArtifactCache
	sender  Sender
	chatIDs []string
	match   store.MatchFunc
	log     *logger.Logger
}

// NewNotifier creates a notifier delivering to the given chats
func NewNotifier(st store.RecordStore, ca cache.ArtifactCache, sender Sender, chatIDs []string, match store.MatchFunc) *Notifier {
	return &Notifier{
		store:   st,
		cache:   ca,
		sender:  sender,
		chatIDs: chatIDs,
		match:   match,
		log:     logger.ForNotifier(),
	}
}

// Run queries unnotified matching records, newest first, and sends one
// notification per configured chat. A record is marked notified once any
// chat delivery succeeded; per-chat failures are logged and never retried.
// Returns the number of successful sends.
func (n *Notifier) Run(ctx context.Context) (int, error) {
	records, err := n.store.UnnotifiedMatching(ctx, n.match)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, rec := range records {
		n.log.Info().
			Str("key", rec.ID).
			Str("title", rec.Title).
			Str("url", rec.URL).
			Msg("Sending alert")

		delivered := 0
		for _, chatID := range n.chatIDs {
			if err := n.deliver(ctx, chatID, rec); err != nil {
				n.log.Error().Err(err).
					Str("key", rec.ID).
					Str("chat_id", chatID).
					Msg("Delivery failed")
				continue
			}
			delivered++
		}

		if delivered > 0 {
			if err := n.store.MarkNotified(ctx, rec.ID); err != nil {
				return sent, err
			}
			sent += delivered
		}
	}
	return sent, nil
}

// deliver sends one record to one chat: as a photo when the cached artifact
// is an image, as a formatted text message otherwise
func (n *Notifier) deliver(ctx context.Context, chatID string, rec store.Record) error {
	if artifact, err := n.cache.Load(rec.ID); err == nil && isImage(artifact) {
		return n.sender.SendPhoto(ctx, chatID, rec.Title, artifact)
	}
	return n.sender.SendMessage(ctx, chatID, formatMessage(rec))
}

// isImage sniffs whether a cached artifact holds image bytes (as opposed to
// inline text or an error placeholder)
func isImage(data []byte) bool {
	return strings.HasPrefix(http.DetectContentType(data), "image/")
}

// formatMessage builds the text notification for a record
func formatMessage(rec store.Record) string {
	var b strings.Builder
	if rec.Title != "" {
		b.WriteString(rec.Title)
		b.WriteString("\n")
	}
	if rec.PeriodStart != "" || rec.PeriodEnd != "" {
		fmt.Fprintf(&b, "С %s по %s планируются отключения электроэнергии по адресам:\n",
			rec.PeriodStart, rec.PeriodEnd)
	}
	if rec.Body != "" {
		b.WriteString(rec.Body)
		b.WriteString("\n")
	}
	if rec.URL != "" {
		b.WriteString(rec.URL)
	}
	return strings.TrimSpace(b.String())
}
