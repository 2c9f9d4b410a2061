//go:build !integration

package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"telegram-course-bot/internal/domain/model"
	"telegram-course-bot/internal/domain/ports/adapter"
	portuc "telegram-course-bot/internal/domain/ports/usecase"
)

// argsTranslator renders the key followed by its arguments.
type argsTranslator struct{}

func (argsTranslator) T(key string, args ...interface{}) string {
	parts := []string{key}
	for _, a := range args {
		parts = append(parts, fmt.Sprint(a))
	}
	return strings.Join(parts, "|")
}

var testCourse = &model.Course{ID: "hsc2027_ict", Name: "ICT Course", Price: 500, GroupLink: "https://t.me/+abc"}

func TestNotificationUseCase_PostAuditRecord(t *testing.T) {
	t.Run("should post the record to the audit chat", func(t *testing.T) {
		bot := &MockTelegramBot{}
		uc := NewNotificationUseCase(bot, &inlineTasks{}, argsTranslator{}, NotificationTargets{AuditChatID: -100}, newTestLogger())

		uc.PostAuditRecord(context.Background(), &model.AuditRecord{
			TrxID: "ABC123", UserID: 1001, Amount: 500, CourseName: "ICT Course", Method: model.MethodBkash,
			At: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		})

		if len(bot.Sent) != 1 {
			t.Fatalf("expected one message, got %d", len(bot.Sent))
		}
		msg := bot.Sent[0]
		want := "audit.record|1001|ICT Course|500|ABC123|bkash|2026-01-02 03:04:05"
		if msg.ChatID != -100 || msg.Text != want {
			t.Errorf("unexpected message %+v", msg)
		}
	})

	t.Run("should show a dash for manual grants", func(t *testing.T) {
		bot := &MockTelegramBot{}
		uc := NewNotificationUseCase(bot, &inlineTasks{}, argsTranslator{}, NotificationTargets{AuditChatID: -100}, newTestLogger())

		uc.PostAuditRecord(context.Background(), &model.AuditRecord{UserID: 1, Method: model.MethodManual})

		if len(bot.Sent) != 1 || !strings.Contains(bot.Sent[0].Text, "|-|manual|") {
			t.Errorf("unexpected messages %+v", bot.Sent)
		}
	})

	t.Run("should do nothing without an audit chat", func(t *testing.T) {
		bot := &MockTelegramBot{}
		uc := NewNotificationUseCase(bot, &inlineTasks{}, keyTranslator{}, NotificationTargets{}, newTestLogger())

		uc.PostAuditRecord(context.Background(), &model.AuditRecord{TrxID: "A"})

		if len(bot.Sent) != 0 {
			t.Errorf("expected no messages, got %d", len(bot.Sent))
		}
	})

	t.Run("should swallow delivery and queue failures", func(t *testing.T) {
		bot := &MockTelegramBot{SendMessageFunc: func(context.Context, adapter.SendMessageParams) error {
			return errors.New("telegram down")
		}}
		uc := NewNotificationUseCase(bot, &inlineTasks{}, keyTranslator{}, NotificationTargets{AuditChatID: -100}, newTestLogger())
		uc.PostAuditRecord(context.Background(), &model.AuditRecord{TrxID: "A"})

		full := NewNotificationUseCase(bot, &inlineTasks{SubmitErr: errors.New("queue full")}, keyTranslator{}, NotificationTargets{AuditChatID: -100}, newTestLogger())
		full.PostAuditRecord(context.Background(), &model.AuditRecord{TrxID: "B"})

		if len(bot.Sent) != 1 {
			t.Errorf("expected exactly one delivery attempt, got %d", len(bot.Sent))
		}
	})
}

func TestNotificationUseCase_RelayEvidence(t *testing.T) {
	bot := &MockTelegramBot{}
	uc := NewNotificationUseCase(bot, &inlineTasks{}, keyTranslator{}, NotificationTargets{AdminChatID: -200}, newTestLogger())

	uc.RelayEvidence(context.Background(), portuc.EvidenceRelay{
		UserID: 1001, Course: testCourse, Method: model.MethodNagad, PhotoRef: "photo-1",
	})

	if len(bot.Sent) != 1 {
		t.Fatalf("expected one message, got %d", len(bot.Sent))
	}
	msg := bot.Sent[0]
	if msg.ChatID != -200 || msg.PhotoRef != "photo-1" || msg.Text != "evidence.relay" {
		t.Errorf("unexpected message %+v", msg)
	}
	if len(msg.Rows) != 1 || msg.Rows[0][0].Data != "approve:1001:hsc2027_ict" {
		t.Errorf("expected an approve button, got %+v", msg.Rows)
	}
}

func TestNotificationUseCase_NotifyGranted(t *testing.T) {
	bot := &MockTelegramBot{}
	uc := NewNotificationUseCase(bot, &inlineTasks{}, keyTranslator{}, NotificationTargets{}, newTestLogger())

	uc.NotifyGranted(context.Background(), 1001, testCourse)

	if len(bot.Sent) != 1 {
		t.Fatalf("expected one message, got %d", len(bot.Sent))
	}
	msg := bot.Sent[0]
	if msg.ChatID != 1001 || msg.Text != "grant.approved" {
		t.Errorf("unexpected message %+v", msg)
	}
	if len(msg.Rows) != 2 || msg.Rows[0][0].URL != "https://t.me/+abc" || msg.Rows[1][0].Data != "menu" {
		t.Errorf("unexpected buttons %+v", msg.Rows)
	}
}
