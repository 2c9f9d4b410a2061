//go:build !integration

package payment

import (
	"context"
	"errors"
	"testing"

	"telegram-course-bot/internal/domain"
)

func TestSandboxGateway(t *testing.T) {
	ctx := context.Background()
	g := NewSandboxGateway()

	t.Run("should complete TEST references with their amount", func(t *testing.T) {
		trx, err := g.VerifyTransaction(ctx, "test500")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !trx.Covers(500) || trx.Covers(501) {
			t.Errorf("unexpected transaction %+v", trx)
		}
	})

	t.Run("should report FAIL references as failed", func(t *testing.T) {
		trx, err := g.VerifyTransaction(ctx, "FAIL1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if trx.Covers(1) {
			t.Errorf("expected a failed transaction, got %+v", trx)
		}
	})

	t.Run("should treat unknown references as a transport failure", func(t *testing.T) {
		if _, err := g.VerifyTransaction(ctx, "ABC"); !errors.Is(err, domain.ErrGatewayTransport) {
			t.Errorf("expected ErrGatewayTransport, got %v", err)
		}
	})

	t.Run("should prefer registered transactions", func(t *testing.T) {
		g.Register("TEST999", "Initiated", "999")
		trx, err := g.VerifyTransaction(ctx, "TEST999")
		if err != nil || trx.Status != "Initiated" {
			t.Errorf("unexpected result %+v (%v)", trx, err)
		}
	})

	t.Run("should honour a cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := g.VerifyTransaction(cctx, "TEST1"); !errors.Is(err, domain.ErrGatewayTransport) {
			t.Errorf("expected ErrGatewayTransport, got %v", err)
		}
	})

	if g.Name() != "sandbox" {
		t.Errorf("unexpected gateway name %q", g.Name())
	}
}
