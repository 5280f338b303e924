package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// botSender is the part of tgbotapi.BotAPI the channel uses.
type botSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramChannel sends messages to one chat through a bot.
type TelegramChannel struct {
	bot    botSender
	chatID int64
}

func NewTelegramChannel(token string, chatID int64) (*TelegramChannel, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}
	return &TelegramChannel{bot: bot, chatID: chatID}, nil
}

func (t *TelegramChannel) Name() string { return "telegram" }

func (t *TelegramChannel) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tm := tgbotapi.NewMessage(t.chatID, RenderHTML(msg))
	tm.ParseMode = tgbotapi.ModeHTML //use HTML for bold/links
	tm.DisableWebPagePreview = true
	if msg.Posting != nil && msg.Posting.URL != "" {
		tm.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonURL("🔗 View Job", msg.Posting.URL),
			),
		)
	}

	if _, err := t.bot.Send(tm); err != nil {
		return fmt.Errorf("telegram send failed: %w", err)
	}
	return nil
}
