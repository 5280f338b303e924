package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go-jobwatch-automation/internal/models"
)

// ErrDelivery marks a message that no channel accepted.
var ErrDelivery = errors.New("delivery failed")

// Message is either a posting alert or a free-text status line. Each channel
// renders it in its own markup.
type Message struct {
	Posting *models.Posting
	Text    string
}

func PostingMessage(p models.Posting) Message {
	return Message{Posting: &p}
}

func TextMessage(text string) Message {
	return Message{Text: text}
}

// Channel delivers a message to one destination.
type Channel interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// DeliveryError records both attempts for one posting.
type DeliveryError struct {
	PostingID string
	Primary   error
	Fallback  error
}

func (e *DeliveryError) Error() string {
	if e.Fallback != nil {
		return fmt.Sprintf("posting %s: primary: %v; fallback: %v", e.PostingID, e.Primary, e.Fallback)
	}
	return fmt.Sprintf("posting %s: primary: %v (no fallback)", e.PostingID, e.Primary)
}

func (e *DeliveryError) Unwrap() []error {
	errs := []error{ErrDelivery}
	for _, err := range []error{e.Primary, e.Fallback} {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// LogChannel only logs; used when no webhook is configured.
type LogChannel struct {
	log *slog.Logger
}

func NewLogChannel(log *slog.Logger) *LogChannel {
	return &LogChannel{log: log}
}

func (c *LogChannel) Name() string { return "log" }

func (c *LogChannel) Send(ctx context.Context, msg Message) error {
	c.log.Warn("⚠️ No webhook configured; would send", "message", RenderPlain(msg))
	return nil
}
