package model

import (
	"strconv"
	"strings"
	"time"

	"telegram-course-bot/internal/domain"
)

// TransactionStatusCompleted is the only provider status that counts as paid.
const TransactionStatusCompleted = "Completed"

// GatewayTransaction is the provider's view of a transaction reference.
type GatewayTransaction struct {
	TrxID                string
	Status               string
	Amount               string // decimal string as reported, e.g. "500" or "500.00"
	Currency             string
	InitiationTime       string
	CompletedTime        string
	CustomerMsisdn       string
	TransactionType      string
	OrganizationName     string
	TransactionReference string
}

// Covers reports whether the transaction is completed and pays at least price.
func (t *GatewayTransaction) Covers(price int64) bool {
	if t == nil || t.Status != TransactionStatusCompleted {
		return false
	}
	paid, err := ParseAmountPoisha(t.Amount)
	if err != nil {
		return false
	}
	return paid >= price*100
}

// ParseAmountPoisha parses a decimal taka amount ("500", "499.5", "500.00")
// into poisha without going through floating point.
func ParseAmountPoisha(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "-") {
		return 0, domain.ErrInvalidFormat
	}
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, domain.ErrInvalidFormat
	}
	var f int64
	switch {
	case frac == "":
	case len(frac) > 2:
		// sub-poisha digits are truncated
		frac = frac[:2]
		fallthrough
	default:
		if len(frac) == 1 {
			frac += "0"
		}
		f, err = strconv.ParseInt(frac, 10, 64)
		if err != nil || f < 0 {
			return 0, domain.ErrInvalidFormat
		}
	}
	return w*100 + f, nil
}

// AuditRecord is posted to the operator channel after every granted purchase.
type AuditRecord struct {
	ID         string
	TrxID      string
	UserID     int64
	Amount     int64
	CourseID   string
	CourseName string
	Method     PaymentMethod
	At         time.Time
}
