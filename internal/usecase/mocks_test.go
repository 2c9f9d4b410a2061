package usecase

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"telegram-course-bot/internal/domain/model"
	"telegram-course-bot/internal/domain/ports/adapter"
	portuc "telegram-course-bot/internal/domain/ports/usecase"
	"telegram-course-bot/internal/infra/memory"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

// --- Payment gateway ---

type MockGateway struct {
	mu    sync.Mutex
	Calls []string

	VerifyTransactionFunc func(ctx context.Context, trxID string) (*model.GatewayTransaction, error)
}

func (m *MockGateway) Name() string { return "mock" }

func (m *MockGateway) VerifyTransaction(ctx context.Context, trxID string) (*model.GatewayTransaction, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, trxID)
	m.mu.Unlock()
	if m.VerifyTransactionFunc != nil {
		return m.VerifyTransactionFunc(ctx, trxID)
	}
	return nil, nil
}

func (m *MockGateway) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

func completed(trxID, amount string) func(context.Context, string) (*model.GatewayTransaction, error) {
	return func(context.Context, string) (*model.GatewayTransaction, error) {
		return &model.GatewayTransaction{TrxID: trxID, Status: model.TransactionStatusCompleted, Amount: amount}, nil
	}
}

// --- Notifier ---

type MockNotifier struct {
	mu       sync.Mutex
	Audits   []*model.AuditRecord
	Evidence []portuc.EvidenceRelay
	Granted  []int64
}

func (m *MockNotifier) PostAuditRecord(_ context.Context, rec *model.AuditRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Audits = append(m.Audits, rec)
}

func (m *MockNotifier) RelayEvidence(_ context.Context, ev portuc.EvidenceRelay) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Evidence = append(m.Evidence, ev)
}

func (m *MockNotifier) NotifyGranted(_ context.Context, userID int64, _ *model.Course) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Granted = append(m.Granted, userID)
}

// --- Telegram bot ---

type MockTelegramBot struct {
	mu   sync.Mutex
	Sent []adapter.SendMessageParams

	SendMessageFunc func(ctx context.Context, params adapter.SendMessageParams) error
}

func (m *MockTelegramBot) SendMessage(ctx context.Context, params adapter.SendMessageParams) error {
	m.mu.Lock()
	m.Sent = append(m.Sent, params)
	m.mu.Unlock()
	if m.SendMessageFunc != nil {
		return m.SendMessageFunc(ctx, params)
	}
	return nil
}

// --- Task submitter ---

// inlineTasks runs tasks synchronously so tests can assert on their effects.
type inlineTasks struct {
	SubmitErr error
}

func (s *inlineTasks) Submit(task func(ctx context.Context) error) error {
	if s.SubmitErr != nil {
		return s.SubmitErr
	}
	return task(context.Background())
}

// --- Translator ---

// keyTranslator echoes keys so tests can assert which message was chosen.
type keyTranslator struct{}

func (keyTranslator) T(key string, args ...interface{}) string { return key }

// flakyLedger wraps the memory ledger and injects failures.
type flakyLedger struct {
	*memory.LedgerRepo
	hasCalls  int
	HasErrOn  int // fail the n-th Has call (1-based), 0 never
	CommitErr error
}

func (l *flakyLedger) Has(ctx context.Context, ref string) (bool, error) {
	l.hasCalls++
	if l.HasErrOn > 0 && l.hasCalls == l.HasErrOn {
		return false, errors.New("connection reset")
	}
	return l.LedgerRepo.Has(ctx, ref)
}

func (l *flakyLedger) Commit(ctx context.Context, ref, token string) error {
	if l.CommitErr != nil {
		return l.CommitErr
	}
	return l.LedgerRepo.Commit(ctx, ref, token)
}
