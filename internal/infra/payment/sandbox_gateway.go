package payment

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"telegram-course-bot/internal/domain"
	"telegram-course-bot/internal/domain/model"
	"telegram-course-bot/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*SandboxGateway)(nil)

// SandboxGateway is an in-memory gateway for local runs without bKash
// credentials. References of the form TEST<amount> complete with that amount,
// FAIL<anything> is reported as failed, anything else is unknown to the gateway.
// Registered transactions take precedence.
type SandboxGateway struct {
	mu  sync.Mutex
	trx map[string]model.GatewayTransaction
	now func() time.Time
}

func NewSandboxGateway() *SandboxGateway {
	return &SandboxGateway{
		trx: make(map[string]model.GatewayTransaction),
		now: time.Now,
	}
}

func (g *SandboxGateway) Name() string { return "sandbox" }

// Register makes trxID resolve to the given status and amount.
func (g *SandboxGateway) Register(trxID, status, amount string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.trx[trxID] = model.GatewayTransaction{TrxID: trxID, Status: status, Amount: amount, Currency: "BDT"}
}

func (g *SandboxGateway) VerifyTransaction(ctx context.Context, trxID string) (*model.GatewayTransaction, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayTransport, ctx.Err())
	default:
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if t, ok := g.trx[trxID]; ok {
		return &t, nil
	}

	upper := strings.ToUpper(trxID)
	t := model.GatewayTransaction{
		TrxID:          trxID,
		Currency:       "BDT",
		CompletedTime:  g.now().Format(time.RFC3339),
		CustomerMsisdn: "01XXXXXXXXX",
	}
	switch {
	case strings.HasPrefix(upper, "TEST"):
		t.Status = model.TransactionStatusCompleted
		t.Amount = strings.TrimPrefix(upper, "TEST")
	case strings.HasPrefix(upper, "FAIL"):
		t.Status = "Failed"
		t.Amount = "0"
	default:
		return nil, fmt.Errorf("%w: sandbox: transaction %q not found", domain.ErrGatewayTransport, trxID)
	}
	return &t, nil
}
