// Package notify delivers rendered reports to Telegram chats.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// MaxMessageLen is Telegram's limit for one text message
const MaxMessageLen = 4096

// Sender is the part of tgbotapi.BotAPI the notifier needs
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends text to a fixed set of chats
type Telegram struct {
	sender  Sender
	chatIDs []int64
	// pause between two sends, Telegram allows ~30 messages per second
	delay  time.Duration
	logger zerolog.Logger
}

// NewTelegram creates a notifier sending through sender
func NewTelegram(sender Sender, chatIDs ...int64) *Telegram {
	return &Telegram{
		sender:  sender,
		chatIDs: chatIDs,
		delay:   50 * time.Millisecond,
		logger:  log.With().Str("component", "telegram_notifier").Logger(),
	}
}

// NewTelegramBot connects to the Bot API with token
func NewTelegramBot(token string, chatIDs ...int64) (*Telegram, error) {
	if token == "" {
		return nil, errors.New("telegram bot token not set")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("initializing Telegram bot: %w", err)
	}
	return NewTelegram(bot, chatIDs...), nil
}

// Notify sends text to every chat, splitting it on line boundaries when it
// exceeds MaxMessageLen. Failed chats are reported together.
func (t *Telegram) Notify(ctx context.Context, text string) error {
	if len(t.chatIDs) == 0 {
		return errors.New("no telegram chat configured")
	}

	parts := Split(text, MaxMessageLen)
	var errs []error
	sent := 0

	for i, chatID := range t.chatIDs {
		for j, part := range parts {
			if i+j > 0 && t.delay > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(t.delay):
				}
			}

			msg := tgbotapi.NewMessage(chatID, part)
			msg.DisableWebPagePreview = true
			if _, err := t.sender.Send(msg); err != nil {
				t.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
				errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
				break
			}
			sent++
		}
	}

	t.logger.Info().Int("messages", sent).Int("chats", len(t.chatIDs)).Int("failed", len(errs)).Msg("Report delivered")
	return errors.Join(errs...)
}

// Split cuts text into chunks of at most limit bytes, preferring line breaks
func Split(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var parts []string
	var b strings.Builder
	for _, line := range strings.SplitAfter(text, "\n") {
		for len(line) > limit {
			if b.Len() > 0 {
				parts = append(parts, b.String())
				b.Reset()
			}
			cut := limit
			for cut > 0 && !utf8.RuneStart(line[cut]) {
				cut--
			}
			if cut == 0 {
				cut = limit
			}
			parts = append(parts, line[:cut])
			line = line[cut:]
		}
		if b.Len()+len(line) > limit {
			parts = append(parts, b.String())
			b.Reset()
		}
		b.WriteString(line)
	}
	if b.Len() > 0 {
		parts = append(parts, b.String())
	}
	return parts
}
