package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go-jobwatch-automation/internal/config"
	"go-jobwatch-automation/internal/models"
)

// Notifier routes posting alerts to the primary channel with a single
// fallback attempt, and status lines to the status channel.
type Notifier struct {
	primary  Channel
	fallback Channel
	status   Channel
	delay    time.Duration
	log      *slog.Logger
}

func NewNotifier(primary, fallback, status Channel, delay time.Duration, log *slog.Logger) *Notifier {
	return &Notifier{
		primary:  primary,
		fallback: fallback,
		status:   status,
		delay:    delay,
		log:      log,
	}
}

// FromConfig wires the channels: Discord webhooks where configured, the
// Telegram bot as the next choice, and the log as the last resort.
func FromConfig(cfg config.NotifyConfig, log *slog.Logger) (*Notifier, error) {
	var tg Channel
	if cfg.TelegramToken != "" {
		t, err := NewTelegramChannel(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			return nil, err
		}
		tg = t
	}

	webhook := func(name, url string) Channel {
		if url == "" {
			return nil
		}
		return NewDiscordChannel(name, url, cfg.Timeout)
	}

	primary := firstChannel(webhook("primary", cfg.PrimaryWebhook), tg, NewLogChannel(log))
	fallback := webhook("fallback", cfg.FallbackWebhook)
	if fallback == nil && tg != nil && primary != tg {
		fallback = tg
	}
	status := firstChannel(webhook("status", cfg.StatusWebhook), tg, NewLogChannel(log))

	return NewNotifier(primary, fallback, status, cfg.SendDelay, log), nil
}

func firstChannel(chans ...Channel) Channel {
	for _, c := range chans {
		if c != nil {
			return c
		}
	}
	return nil
}

// DeliveryResult is the outcome for one posting.
type DeliveryResult struct {
	PostingID string
	Channel   string
	Err       error
}

// Notify sends p to the primary channel, then once to the fallback if the
// primary fails. The returned error is a *DeliveryError.
func (n *Notifier) Notify(ctx context.Context, p models.Posting) DeliveryResult {
	msg := PostingMessage(p)

	primaryErr := n.primary.Send(ctx, msg)
	if primaryErr == nil {
		return DeliveryResult{PostingID: p.ID, Channel: n.primary.Name()}
	}
	n.log.Warn("⚠️ Primary delivery failed", "job_id", p.ID, "channel", n.primary.Name(), "error", primaryErr)

	if n.fallback == nil {
		return DeliveryResult{PostingID: p.ID, Err: &DeliveryError{PostingID: p.ID, Primary: primaryErr}}
	}

	fallbackErr := n.fallback.Send(ctx, msg)
	if fallbackErr == nil {
		return DeliveryResult{PostingID: p.ID, Channel: n.fallback.Name()}
	}
	n.log.Error("❌ Fallback delivery failed", "job_id", p.ID, "channel", n.fallback.Name(), "error", fallbackErr)
	return DeliveryResult{PostingID: p.ID, Err: &DeliveryError{PostingID: p.ID, Primary: primaryErr, Fallback: fallbackErr}}
}

// NotifyAll sends postings in order, pausing between sends to stay under
// webhook rate limits. It stops early only if ctx is cancelled.
func (n *Notifier) NotifyAll(ctx context.Context, postings []models.Posting) []DeliveryResult {
	results := make([]DeliveryResult, 0, len(postings))
	for i, p := range postings {
		if i > 0 && n.delay > 0 {
			select {
			case <-ctx.Done():
				return results
			case <-time.After(n.delay):
			}
		}
		results = append(results, n.Notify(ctx, p))
	}
	return results
}

// Status sends a status line. Failures are logged and returned; they never
// affect the cycle outcome.
func (n *Notifier) Status(ctx context.Context, text string) error {
	if err := n.status.Send(ctx, TextMessage(text)); err != nil {
		n.log.Warn("⚠️ Failed to send status", "channel", n.status.Name(), "error", err)
		return fmt.Errorf("status via %s: %w", n.status.Name(), err)
	}
	return nil
}
