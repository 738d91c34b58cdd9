package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"

	"github.com/deusflow/cryptonews/internal/bot"
	"github.com/deusflow/cryptonews/internal/metrics"
	"github.com/deusflow/cryptonews/internal/sanitize"
)

const (
	// Telegram caption max ~1024 chars
	maxCaptionLength = 1000
	shutdownTimeout  = 5 * time.Second

	// Legacy Markdown; the library's ParseModeMarkdown is MarkdownV2, which
	// rejects unescaped '!' and '.' in the localized texts.
	parseModeMarkdown models.ParseMode = "Markdown"
)

// Handler produces the replies for one inbound message.
type Handler interface {
	Handle(ctx context.Context, userID, text string) []bot.Reply
}

// Bot delivers router replies over the Telegram Bot API.
type Bot struct {
	bot     *tgbot.Bot
	handler Handler
	logger  zerolog.Logger

	// chatLocks serializes handling per chat; updates arrive concurrently.
	// An entry lives only while a message for that chat is in flight.
	locksMu   sync.Mutex
	chatLocks map[int64]*chatLock
}

type chatLock struct {
	mu   sync.Mutex
	refs int
}

// NewBot creates the Telegram client. Extra options are appended after the
// defaults, so tests can point it at a fake server.
func NewBot(token string, handler Handler, logger zerolog.Logger, extra ...tgbot.Option) (*Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram token is required")
	}

	b := &Bot{handler: handler, logger: logger, chatLocks: make(map[int64]*chatLock)}
	opts := append([]tgbot.Option{tgbot.WithDefaultHandler(b.onUpdate)}, extra...)

	client, err := tgbot.New(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	b.bot = client

	logger.Info().Msg("Telegram bot created successfully")
	return b, nil
}

// RunPolling receives updates with long polling until ctx is done.
func (b *Bot) RunPolling(ctx context.Context) error {
	if _, err := b.bot.DeleteWebhook(ctx, &tgbot.DeleteWebhookParams{}); err != nil {
		b.logger.Warn().Err(err).Msg("Failed to delete webhook before polling")
	}
	b.logger.Info().Msg("Starting Telegram bot in polling mode...")
	b.bot.Start(ctx)
	b.logger.Info().Msg("Telegram bot stopped")
	return nil
}

// RunWebhook serves the webhook endpoint on addr until ctx is done. When
// publicURL is set the webhook is registered with Telegram first.
func (b *Bot) RunWebhook(ctx context.Context, addr, publicURL, secret string) error {
	if publicURL != "" {
		if _, err := b.bot.SetWebhook(ctx, &tgbot.SetWebhookParams{
			URL:         publicURL,
			SecretToken: secret,
		}); err != nil {
			return fmt.Errorf("failed to set webhook: %w", err)
		}
		b.logger.Info().Str("url", publicURL).Msg("Webhook registered")
	}

	mux := http.NewServeMux()
	mux.Handle("/", b.bot.WebhookHandler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go b.bot.StartWebhook(ctx)

	errCh := make(chan error, 1)
	go func() {
		b.logger.Info().Str("addr", addr).Msg("Webhook server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("webhook server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (b *Bot) onUpdate(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}

	chatID := update.Message.Chat.ID
	unlock := b.lockChat(chatID)
	defer unlock()

	replies := b.handler.Handle(ctx, strconv.FormatInt(chatID, 10), update.Message.Text)
	if err := b.Deliver(ctx, chatID, replies); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to deliver replies")
	}
}

// lockChat blocks until chatID is free and returns the release func. The
// entry is dropped once no handler holds or waits for it.
func (b *Bot) lockChat(chatID int64) func() {
	b.locksMu.Lock()
	l, ok := b.chatLocks[chatID]
	if !ok {
		l = &chatLock{}
		b.chatLocks[chatID] = l
	}
	l.refs++
	b.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		b.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(b.chatLocks, chatID)
		}
		b.locksMu.Unlock()
	}
}

// Deliver sends replies to chatID in order, stopping at the first failure.
func (b *Bot) Deliver(ctx context.Context, chatID int64, replies []bot.Reply) error {
	for i, reply := range replies {
		if err := b.send(ctx, chatID, reply); err != nil {
			metrics.Global.SetError(err.Error())
			return fmt.Errorf("reply %d/%d: %w", i+1, len(replies), err)
		}
		metrics.Global.IncrementMessagesSent()
	}
	metrics.Global.SetHealthy()
	return nil
}

func (b *Bot) send(ctx context.Context, chatID int64, reply bot.Reply) error {
	markup := keyboardMarkup(reply.Keyboard)

	if len(reply.Photo) > 0 {
		params := &tgbot.SendPhotoParams{
			ChatID:  chatID,
			Photo:   &models.InputFileUpload{Filename: "chart.png", Data: bytes.NewReader(reply.Photo)},
			Caption: sanitize.Truncate(reply.Caption, maxCaptionLength),
		}
		if markup != nil {
			params.ReplyMarkup = markup
		}
		_, err := b.bot.SendPhoto(ctx, params)
		return err
	}

	if reply.Text == "" {
		b.logger.Warn().Int64("chat_id", chatID).Msg("Skipping empty reply")
		return nil
	}

	params := &tgbot.SendMessageParams{
		ChatID: chatID,
		Text:   reply.Text,
	}
	if reply.Markdown {
		params.ParseMode = parseModeMarkdown
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}
	_, err := b.bot.SendMessage(ctx, params)
	return err
}

func keyboardMarkup(kb *bot.Keyboard) *models.ReplyKeyboardMarkup {
	if kb == nil {
		return nil
	}

	rows := make([][]models.KeyboardButton, 0, len(kb.Rows))
	for _, row := range kb.Rows {
		buttons := make([]models.KeyboardButton, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, models.KeyboardButton{Text: label})
		}
		rows = append(rows, buttons)
	}

	return &models.ReplyKeyboardMarkup{
		Keyboard:        rows,
		ResizeKeyboard:  !kb.OneTime,
		OneTimeKeyboard: kb.OneTime,
	}
}
