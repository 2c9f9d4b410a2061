package usecase

import (
	"context"

	"telegram-course-bot/internal/domain/model"
)

// EvidenceRelay is a manual-payment proof forwarded to the admin recipient.
type EvidenceRelay struct {
	UserID   int64
	Course   *model.Course
	Method   model.PaymentMethod
	PhotoRef string
	Caption  string
}

// Notifier defines the outbound notifications the purchase flow triggers.
// Every call returns immediately; delivery happens in the background and
// failures never reach the caller.
type Notifier interface {
	PostAuditRecord(ctx context.Context, rec *model.AuditRecord)
	RelayEvidence(ctx context.Context, ev EvidenceRelay)
	NotifyGranted(ctx context.Context, userID int64, course *model.Course)
}
