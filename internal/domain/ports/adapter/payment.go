package adapter

import (
	"context"

	"telegram-course-bot/internal/domain/model"
)

// PaymentGateway is the hex port for payment providers that can look up a
// transaction by its reference.
type PaymentGateway interface {
	Name() string
	// VerifyTransaction returns the provider record for trxID.
	// Authorization failures wrap domain.ErrGatewayAuth; any transport or
	// decoding failure wraps domain.ErrGatewayTransport.
	VerifyTransaction(ctx context.Context, trxID string) (*model.GatewayTransaction, error)
}
