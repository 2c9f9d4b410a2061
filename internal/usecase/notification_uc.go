package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"telegram-course-bot/internal/domain/model"
	"telegram-course-bot/internal/domain/ports/adapter"
	portuc "telegram-course-bot/internal/domain/ports/usecase"
	"telegram-course-bot/internal/infra/metrics"
)

// Compile-time check
var _ NotificationUseCase = (*notificationUC)(nil)

const auditTimeLayout = "2006-01-02 15:04:05"

type NotificationUseCase interface {
	portuc.Notifier
}

// NotificationTargets are the chats operator messages go to. Zero disables
// the corresponding stream.
type NotificationTargets struct {
	AuditChatID int64
	AdminChatID int64
}

type notificationUC struct {
	bot     adapter.TelegramBotAdapter
	tasks   adapter.TaskSubmitter
	t       adapter.Translator
	targets NotificationTargets
	log     *zerolog.Logger
}

func NewNotificationUseCase(bot adapter.TelegramBotAdapter, tasks adapter.TaskSubmitter, t adapter.Translator, targets NotificationTargets, logger *zerolog.Logger) *notificationUC {
	return &notificationUC{bot: bot, tasks: tasks, t: t, targets: targets, log: logger}
}

func (n *notificationUC) PostAuditRecord(ctx context.Context, rec *model.AuditRecord) {
	if n.targets.AuditChatID == 0 || rec == nil {
		return
	}
	trx := rec.TrxID
	if trx == "" {
		trx = "-"
	}
	text := n.t.T("audit.record",
		rec.UserID, rec.CourseName, rec.Amount, trx, string(rec.Method), rec.At.Format(auditTimeLayout))
	n.dispatch("audit", adapter.SendMessageParams{ChatID: n.targets.AuditChatID, Text: text})
}

func (n *notificationUC) RelayEvidence(ctx context.Context, ev portuc.EvidenceRelay) {
	if n.targets.AdminChatID == 0 || ev.Course == nil {
		return
	}
	caption := ev.Caption
	if caption == "" {
		caption = "-"
	}
	text := n.t.T("evidence.relay",
		ev.UserID, ev.Course.Name, ev.Course.ID, ev.Course.Price, string(ev.Method), caption)
	n.dispatch("proof", adapter.SendMessageParams{
		ChatID:   n.targets.AdminChatID,
		Text:     text,
		PhotoRef: ev.PhotoRef,
		Rows: [][]adapter.InlineButton{{
			{Text: n.t.T("btn.approve"), Data: model.ApproveCallback(ev.UserID, ev.Course.ID)},
		}},
	})
}

func (n *notificationUC) NotifyGranted(ctx context.Context, userID int64, course *model.Course) {
	if course == nil {
		return
	}
	n.dispatch("grant", adapter.SendMessageParams{
		ChatID: userID,
		Text:   n.t.T("grant.approved", course.Name),
		Rows: [][]adapter.InlineButton{
			{{Text: n.t.T("btn.join_group", course.Name), URL: course.GroupLink}},
			{{Text: n.t.T("btn.main_menu"), Data: model.MenuCallback()}},
		},
	})
}

// dispatch hands the send to the worker pool. Delivery is best effort.
func (n *notificationUC) dispatch(kind string, params adapter.SendMessageParams) {
	err := n.tasks.Submit(func(ctx context.Context) error {
		if err := n.bot.SendMessage(ctx, params); err != nil {
			metrics.IncNotification(kind, "error")
			n.log.Error().Err(err).Str("kind", kind).Int64("chat_id", params.ChatID).Msg("notification delivery failed")
			return nil
		}
		metrics.IncNotification(kind, "sent")
		return nil
	})
	if err != nil {
		metrics.IncNotification(kind, "dropped")
		n.log.Warn().Err(err).Str("kind", kind).Msg("notification dropped")
	}
}
