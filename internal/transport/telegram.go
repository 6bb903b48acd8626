package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/yndnr/tokrelay-go/internal/core/domain"
)

// Telegram limits.
const (
	maxMessageLength = 4096
	maxCaptionLength = 1024
)

// TelegramConfig configures the Telegram Bot API sender.
type TelegramConfig struct {
	BotToken string
	// APIEndpoint is a format string taking the token and method, as in
	// tgbotapi.APIEndpoint. Empty means the public Bot API.
	APIEndpoint string
	// Timeout bounds every HTTP request made by the bot client.
	Timeout time.Duration
}

// TelegramSender delivers messages through the Telegram Bot API.
type TelegramSender struct {
	bot *tgbotapi.BotAPI
}

// NewTelegramSender connects to the Bot API and verifies the token with getMe.
func NewTelegramSender(cfg TelegramConfig) (*TelegramSender, error) {
	if cfg.BotToken == "" {
		return nil, domain.ErrMissingArgument.WithDetails("telegram bot token")
	}
	endpoint := cfg.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}

	bot, err := tgbotapi.NewBotAPIWithClient(cfg.BotToken, endpoint, &http.Client{Timeout: cfg.Timeout})
	if err != nil {
		return nil, fmt.Errorf("telegram: connect: %w", err)
	}
	return &TelegramSender{bot: bot}, nil
}

// BotName returns the bot's username as reported by getMe.
func (s *TelegramSender) BotName() string {
	return s.bot.Self.UserName
}

// SendText sends a plain text message.
func (s *TelegramSender) SendText(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, truncate(text, maxMessageLength))
	msg.DisableWebPagePreview = true
	return s.send(ctx, msg)
}

// SendAttachment uploads att as a photo when it is an image and as a
// document otherwise.
func (s *TelegramSender) SendAttachment(ctx context.Context, chatID int64, att domain.Attachment, caption string) error {
	file := tgbotapi.FileBytes{Name: att.Name, Bytes: att.Data}
	caption = truncate(caption, maxCaptionLength)

	if att.IsImage() {
		photo := tgbotapi.NewPhoto(chatID, file)
		photo.Caption = caption
		return s.send(ctx, photo)
	}
	doc := tgbotapi.NewDocument(chatID, file)
	doc.Caption = caption
	return s.send(ctx, doc)
}

// send runs one Bot API call. The library has no context support, so the
// call runs in its own goroutine; the HTTP client timeout bounds it.
func (s *TelegramSender) send(ctx context.Context, c tgbotapi.Chattable) error {
	done := make(chan error, 1)
	go func() {
		_, err := s.bot.Send(c)
		done <- err
	}()

	select {
	case err := <-done:
		return classifyTelegramError(err)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// classifyTelegramError marks client-side Bot API rejections as permanent.
// 429 and 5xx stay transient.
func classifyTelegramError(err error) error {
	if err == nil {
		return nil
	}

	code := 0
	var apiErr *tgbotapi.Error
	var apiVal tgbotapi.Error
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiVal):
		code = apiVal.Code
	}

	switch code {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return Permanent(err)
	}
	return err
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}
