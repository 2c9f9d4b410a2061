package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-course-bot/internal/application"
	"telegram-course-bot/internal/config"
	"telegram-course-bot/internal/domain/ports/adapter"
	red "telegram-course-bot/internal/infra/redis"
)

// maxCaptionLen is Telegram's limit for photo captions, counted in characters.
const maxCaptionLen = 1024

// botAPI is the subset of *tgbotapi.BotAPI the adapter uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

var _ adapter.TelegramBotAdapter = (*RealTelegramBotAdapter)(nil)

// RealTelegramBotAdapter polls updates and delegates them to the bot facade.
// Updates from one user always land on the same worker, so a user's
// messages are handled in the order they were sent.
type RealTelegramBotAdapter struct {
	bot         botAPI
	facade      application.Facade
	translator  adapter.Translator
	rateLimiter *red.RateLimiter
	limits      config.RateLimitConfig
	log         *zerolog.Logger

	updateWorkers int
	cancelPolling context.CancelFunc
}

func NewRealTelegramBotAdapter(
	cfg *config.BotConfig,
	limits config.RateLimitConfig,
	facade application.Facade,
	translator adapter.Translator,
	rateLimiter *red.RateLimiter,
	logger *zerolog.Logger,
) (*RealTelegramBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("username", bot.Self.UserName).Msg("authorized on telegram")
	return newAdapter(bot, cfg.Workers, limits, facade, translator, rateLimiter, logger), nil
}

func newAdapter(
	bot botAPI,
	workers int,
	limits config.RateLimitConfig,
	facade application.Facade,
	translator adapter.Translator,
	rateLimiter *red.RateLimiter,
	logger *zerolog.Logger,
) *RealTelegramBotAdapter {
	if workers <= 0 {
		workers = 5
	}
	return &RealTelegramBotAdapter{
		bot:           bot,
		facade:        facade,
		translator:    translator,
		rateLimiter:   rateLimiter,
		limits:        limits,
		log:           logger,
		updateWorkers: workers,
	}
}

// SetFacade completes construction when the facade depends on this adapter
// through the notification channel.
func (r *RealTelegramBotAdapter) SetFacade(f application.Facade) { r.facade = f }

// StartPolling blocks until ctx is cancelled or StopPolling is called.
func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context) error {
	if r.facade == nil {
		return errors.New("bot facade is nil")
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel

	var wg sync.WaitGroup
	shards := make([]chan tgbotapi.Update, r.updateWorkers)
	for i := range shards {
		shards[i] = make(chan tgbotapi.Update, 100)
		wg.Add(1)
		go func(id int, in <-chan tgbotapi.Update) {
			defer wg.Done()
			for up := range in {
				if err := r.handleUpdate(ctx, up); err != nil {
					r.log.Error().Err(err).Int("worker", id).Int("update_id", up.UpdateID).Msg("update handling failed")
				}
			}
		}(i, shards[i])
	}

	stop := func() error {
		r.bot.StopReceivingUpdates()
		for _, ch := range shards {
			close(ch)
		}
		wg.Wait()
		return ctx.Err()
	}

	for {
		select {
		case <-ctx.Done():
			return stop()
		case up, ok := <-updates:
			if !ok {
				return stop()
			}
			select {
			case shards[shardFor(updateUserID(up), len(shards))] <- up:
			case <-ctx.Done():
				return stop()
			}
		}
	}
}

func (r *RealTelegramBotAdapter) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

// SendMessage implements adapter.TelegramBotAdapter.
func (r *RealTelegramBotAdapter) SendMessage(ctx context.Context, params adapter.SendMessageParams) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	for _, c := range buildChattables(params) {
		if _, err := r.bot.Send(c); err != nil {
			return err
		}
	}
	return nil
}

func (r *RealTelegramBotAdapter) sendReply(ctx context.Context, chatID int64, reply *application.Reply) error {
	if reply == nil {
		return nil
	}
	return r.SendMessage(ctx, adapter.SendMessageParams{
		ChatID:   chatID,
		Text:     reply.Text,
		Rows:     reply.Rows,
		PhotoRef: reply.PhotoRef,
	})
}

// buildChattables turns one outbound message into the API calls needed to
// deliver it. A photo whose caption is too long is sent bare, followed by
// the text with the keyboard.
func buildChattables(p adapter.SendMessageParams) []tgbotapi.Chattable {
	markup := buildKeyboard(p.Rows)

	if p.PhotoRef != "" {
		photo := tgbotapi.NewPhoto(p.ChatID, tgbotapi.FileID(p.PhotoRef))
		if utf8.RuneCountInString(p.Text) <= maxCaptionLen {
			photo.Caption = p.Text
			photo.ParseMode = p.ParseMode
			if markup != nil {
				photo.ReplyMarkup = *markup
			}
			return []tgbotapi.Chattable{photo}
		}
		out := []tgbotapi.Chattable{photo}
		return append(out, newTextMessage(p, markup))
	}

	if strings.TrimSpace(p.Text) == "" {
		return nil
	}
	return []tgbotapi.Chattable{newTextMessage(p, markup)}
}

func newTextMessage(p adapter.SendMessageParams, markup *tgbotapi.InlineKeyboardMarkup) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(p.ChatID, p.Text)
	msg.ParseMode = p.ParseMode
	msg.DisableWebPagePreview = true
	if markup != nil {
		msg.ReplyMarkup = *markup
	}
	return msg
}

// buildKeyboard converts button rows into an inline keyboard.
// - If btn.URL is set, the button opens a link
// - Else if btn.Data is set, the button sends callback data
// - Else the label doubles as callback data
func buildKeyboard(rows [][]adapter.InlineButton) *tgbotapi.InlineKeyboardMarkup {
	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		kr := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			label := strings.TrimSpace(btn.Text)
			if label == "" {
				label = "•"
			}
			switch {
			case btn.URL != "":
				kr = append(kr, tgbotapi.NewInlineKeyboardButtonURL(label, btn.URL))
			case btn.Data != "":
				kr = append(kr, tgbotapi.NewInlineKeyboardButtonData(label, btn.Data))
			default:
				kr = append(kr, tgbotapi.NewInlineKeyboardButtonData(label, label))
			}
		}
		kbRows = append(kbRows, kr)
	}
	if len(kbRows) == 0 {
		return nil
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(kbRows...)
	return &markup
}

func shardFor(userID int64, shards int) int {
	if shards <= 1 {
		return 0
	}
	if userID < 0 {
		userID = -userID
	}
	return int(userID % int64(shards))
}

func updateUserID(up tgbotapi.Update) int64 {
	switch {
	case up.CallbackQuery != nil && up.CallbackQuery.From != nil:
		return up.CallbackQuery.From.ID
	case up.Message != nil && up.Message.From != nil:
		return up.Message.From.ID
	}
	return 0
}
