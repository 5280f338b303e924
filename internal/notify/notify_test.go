package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go-jobwatch-automation/internal/config"
	"go-jobwatch-automation/internal/logger"
	"go-jobwatch-automation/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	name string
	err  error
	sent []Message
}

func (f *fakeChannel) Name() string { return f.name }

func (f *fakeChannel) Send(ctx context.Context, msg Message) error {
	f.sent = append(f.sent, msg)
	return f.err
}

var job = models.Posting{
	ID:          "1003",
	Title:       "Junior Developer",
	Company:     "Acme",
	Location:    "Burnaby, BC",
	PostDateRaw: "Sep 2, 2025",
	Deadline:    "Sep 30, 2025",
	URL:         "https://portal.example/jobs?currentJobId=1003",
	Description: "a very long description that must never be sent",
}

func TestNotify_PrimarySuccess(t *testing.T) {
	primary := &fakeChannel{name: "primary"}
	fallback := &fakeChannel{name: "fallback"}
	n := NewNotifier(primary, fallback, &fakeChannel{name: "status"}, 0, logger.Discard())

	res := n.Notify(context.Background(), job)
	assert.NoError(t, res.Err)
	assert.Equal(t, "primary", res.Channel)
	assert.Len(t, primary.sent, 1)
	assert.Empty(t, fallback.sent)
}

func TestNotify_FallbackOnce(t *testing.T) {
	primary := &fakeChannel{name: "primary", err: errors.New("503")}
	fallback := &fakeChannel{name: "fallback"}
	n := NewNotifier(primary, fallback, &fakeChannel{name: "status"}, 0, logger.Discard())

	res := n.Notify(context.Background(), job)
	assert.NoError(t, res.Err)
	assert.Equal(t, "fallback", res.Channel)
	assert.Len(t, primary.sent, 1)
	assert.Len(t, fallback.sent, 1)
}

func TestNotify_BothFail(t *testing.T) {
	primaryErr := errors.New("primary down")
	primary := &fakeChannel{name: "primary", err: primaryErr}
	fallback := &fakeChannel{name: "fallback", err: errors.New("fallback down")}
	n := NewNotifier(primary, fallback, &fakeChannel{name: "status"}, 0, logger.Discard())

	res := n.Notify(context.Background(), job)
	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, ErrDelivery)
	assert.ErrorIs(t, res.Err, primaryErr)

	var de *DeliveryError
	require.ErrorAs(t, res.Err, &de)
	assert.Equal(t, "1003", de.PostingID)
	assert.Len(t, fallback.sent, 1, "fallback is tried exactly once")
}

func TestNotify_NoFallback(t *testing.T) {
	primary := &fakeChannel{name: "primary", err: errors.New("down")}
	n := NewNotifier(primary, nil, &fakeChannel{name: "status"}, 0, logger.Discard())

	res := n.Notify(context.Background(), job)
	assert.ErrorIs(t, res.Err, ErrDelivery)
	assert.Contains(t, res.Err.Error(), "no fallback")
}

func TestNotifyAll_KeepsOrder(t *testing.T) {
	primary := &fakeChannel{name: "primary"}
	n := NewNotifier(primary, nil, &fakeChannel{name: "status"}, time.Millisecond, logger.Discard())

	a, b := job, job
	a.ID, b.ID = "a", "b"
	results := n.NotifyAll(context.Background(), []models.Posting{a, b})
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].PostingID)
	assert.Equal(t, "b", primary.sent[1].Posting.ID)
}

func TestStatus(t *testing.T) {
	status := &fakeChannel{name: "status"}
	n := NewNotifier(&fakeChannel{name: "primary"}, nil, status, 0, logger.Discard())

	require.NoError(t, n.Status(context.Background(), "OK: 3 new"))
	assert.Equal(t, "OK: 3 new", status.sent[0].Text)

	status.err = errors.New("nope")
	assert.Error(t, n.Status(context.Background(), "x"))
}

func TestRenderPlain_CompactPosting(t *testing.T) {
	text := RenderPlain(PostingMessage(job))
	assert.True(t, strings.HasPrefix(text, "**Junior Developer** — Acme"))
	assert.Contains(t, text, "Link: https://portal.example/jobs?currentJobId=1003")
	assert.NotContains(t, text, "description")
	assert.NotContains(t, text, "Comp:")

	withComp := job
	withComp.CompFrom = "22"
	assert.Contains(t, RenderPlain(PostingMessage(withComp)), "Comp: 22–?")
}

func TestRenderHTML_Escapes(t *testing.T) {
	p := job
	p.Title = "R&D <Intern>"
	text := RenderHTML(PostingMessage(p))
	assert.Contains(t, text, "<b>R&amp;D &lt;Intern&gt;</b>")
	assert.Equal(t, "a &lt; b", RenderHTML(TextMessage("a < b")))
}

func TestDiscordChannel(t *testing.T) {
	var got discordPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ch := NewDiscordChannel("primary", srv.URL, time.Second)
	require.NoError(t, ch.Send(context.Background(), PostingMessage(job)))
	assert.Contains(t, got.Content, "Junior Developer")
}

func TestDiscordChannel_SuppressesMentions(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	p := job
	p.Title = "@everyone Hiring now <@&123>"
	require.NoError(t, NewDiscordChannel("primary", srv.URL, time.Second).Send(context.Background(), PostingMessage(p)))

	mentions, ok := raw["allowed_mentions"].(map[string]any)
	require.True(t, ok, "allowed_mentions missing")
	assert.Equal(t, []any{}, mentions["parse"])
}

func TestDiscordChannel_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"retry_after": 2}`))
	}))
	defer srv.Close()

	err := NewDiscordChannel("primary", srv.URL, time.Second).Send(context.Background(), TextMessage("hi"))
	assert.ErrorContains(t, err, "status 429")
}

func TestDiscordChannel_Truncates(t *testing.T) {
	var got discordPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	err := NewDiscordChannel("status", srv.URL, time.Second).Send(context.Background(), TextMessage(strings.Repeat("x", 3000)))
	require.NoError(t, err)
	assert.Equal(t, discordMaxContent, len([]rune(got.Content)))
}

type fakeBot struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.err
}

func TestTelegramChannel(t *testing.T) {
	bot := &fakeBot{}
	ch := &TelegramChannel{bot: bot, chatID: 42}

	require.NoError(t, ch.Send(context.Background(), PostingMessage(job)))
	msg := bot.sent[0].(tgbotapi.MessageConfig)
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Equal(t, tgbotapi.ModeHTML, msg.ParseMode)
	assert.Contains(t, msg.Text, "<b>Junior Developer</b>")
	assert.NotNil(t, msg.ReplyMarkup)

	bot.err = errors.New("chat not found")
	assert.ErrorContains(t, ch.Send(context.Background(), TextMessage("x")), "chat not found")
}

func TestFromConfig(t *testing.T) {
	n, err := FromConfig(config.NotifyConfig{PrimaryWebhook: "https://hooks.example/a", FallbackWebhook: "https://hooks.example/b"}, logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, "primary", n.primary.Name())
	assert.Equal(t, "fallback", n.fallback.Name())
	assert.Equal(t, "log", n.status.Name())

	n, err = FromConfig(config.NotifyConfig{}, logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, "log", n.primary.Name())
	assert.Nil(t, n.fallback)
}
