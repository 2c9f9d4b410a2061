package telegram

import (
	"context"
	"errors"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-course-bot/internal/application"
	"telegram-course-bot/internal/domain/model"
	"telegram-course-bot/internal/infra/logging"
	"telegram-course-bot/internal/infra/metrics"
	red "telegram-course-bot/internal/infra/redis"
)

func (r *RealTelegramBotAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	ctx = logging.WithUpdateID(ctx, update.UpdateID)

	if update.CallbackQuery != nil {
		return r.handleQuery(ctx, update.CallbackQuery)
	}
	if update.Message == nil || update.Message.From == nil {
		return nil
	}
	return r.handleMessage(ctx, update.Message)
}

func (r *RealTelegramBotAdapter) handleMessage(ctx context.Context, message *tgbotapi.Message) error {
	tgID := message.From.ID
	chatID := tgID
	if message.Chat != nil {
		chatID = message.Chat.ID
	}
	ctx = logging.WithTgID(ctx, tgID)

	action := messageAction(message)
	metrics.IncTelegramCommand(action)
	if !r.allow(ctx, tgID, red.ScopeMessage, action, r.limits.Messages) {
		return r.sendText(ctx, chatID, r.translator.T("err.rate_limited"))
	}

	var reply *application.Reply
	switch {
	case len(message.Photo) > 0:
		reply = r.facade.HandlePhoto(ctx, tgID, largestPhoto(message.Photo), message.Caption)
	case message.IsCommand():
		reply = r.facade.Command(ctx, tgID, message.Command(), message.CommandArguments())
	case strings.TrimSpace(message.Text) != "":
		progress := func(p *application.Reply) {
			if err := r.sendReply(ctx, chatID, p); err != nil {
				logging.With(ctx, r.log).Warn().Err(err).Msg("failed to send progress message")
			}
		}
		reply = r.facade.HandleText(ctx, tgID, message.Text, progress)
	default:
		return nil
	}
	return r.sendReply(ctx, chatID, reply)
}

func (r *RealTelegramBotAdapter) handleQuery(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	if query == nil || query.From == nil {
		return errors.New("invalid callback query")
	}

	// Stop the client spinner when we return.
	defer func() { _, _ = r.bot.Request(tgbotapi.NewCallback(query.ID, "")) }()

	tgID := query.From.ID
	chatID := tgID
	if query.Message != nil && query.Message.Chat != nil {
		chatID = query.Message.Chat.ID
	}
	ctx = logging.WithTgID(ctx, tgID)

	data := strings.TrimSpace(query.Data)
	action := callbackAction(data)
	metrics.IncTelegramCallback(action)
	if !r.allow(ctx, tgID, red.ScopeCallback, action, r.limits.Callbacks) {
		return r.sendText(ctx, chatID, r.translator.T("err.rate_limited"))
	}

	return r.sendReply(ctx, chatID, r.facade.HandleCallback(ctx, tgID, data))
}

// allow applies the per-user limit. Limiter failures let the update through.
func (r *RealTelegramBotAdapter) allow(ctx context.Context, tgID int64, scope red.Scope, action string, limit int) bool {
	if r.rateLimiter == nil || limit <= 0 {
		return true
	}
	window := r.limits.Window
	if window <= 0 {
		window = time.Minute
	}
	allowed, err := r.rateLimiter.Allow(ctx, tgID, scope, action, limit, window)
	if err != nil {
		logging.With(ctx, r.log).Warn().Err(err).Msg("rate limiter unavailable")
		return true
	}
	if !allowed {
		metrics.IncRateLimitTriggered()
	}
	return allowed
}

func (r *RealTelegramBotAdapter) sendText(ctx context.Context, chatID int64, text string) error {
	return r.sendReply(ctx, chatID, &application.Reply{Text: text})
}

const unknownAction = "unknown"

// messageAction labels a message for metrics and rate limiting. Commands
// outside the routed set share one label.
func messageAction(m *tgbotapi.Message) string {
	switch {
	case len(m.Photo) > 0:
		return "photo"
	case m.IsCommand():
		cmd := strings.ToLower(m.Command())
		if !application.KnownCommand(cmd) {
			return unknownAction
		}
		return "/" + cmd
	default:
		return "text"
	}
}

// callbackAction is the callback data prefix before the first colon when it
// names a known action.
func callbackAction(data string) string {
	if i := strings.IndexByte(data, ':'); i >= 0 {
		data = data[:i]
	}
	if !model.KnownAction(data) {
		return unknownAction
	}
	return data
}

func largestPhoto(sizes []tgbotapi.PhotoSize) string {
	best := sizes[0]
	for _, s := range sizes[1:] {
		if s.Width*s.Height > best.Width*best.Height {
			best = s
		}
	}
	return best.FileID
}
