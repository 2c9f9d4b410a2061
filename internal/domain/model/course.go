package model

import (
	"strings"
	"unicode"

	"telegram-course-bot/internal/domain"
)

const (
	// GroupLinkPrefix is the deep-link prefix every course join link must carry.
	GroupLinkPrefix = "https://t.me/"
	// PaymentLinkPrefix is required for external pay pages.
	PaymentLinkPrefix = "https://"
	// MaxCourseIDLen keeps the longest callback, approve:<int64>:<id>, within
	// Telegram's 64-byte button data limit.
	MaxCourseIDLen = 32
)

// Course is a purchasable unit granting access to a private group.
// Price is in whole taka, the same unit the gateway reports amounts in.
type Course struct {
	ID        string
	Name      string
	Price     int64
	GroupLink string
	ImageRef  string // telegram file id of an uploaded cover, optional
}

func (c *Course) IsZero() bool { return c == nil || c.ID == "" }

// ValidCourseID reports whether id can travel inside callback data: at most
// MaxCourseIDLen bytes, no ':' separator and no whitespace or control runes.
func ValidCourseID(id string) bool {
	if id == "" || len(id) > MaxCourseIDLen {
		return false
	}
	for _, r := range id {
		if r == ':' || unicode.IsSpace(r) || unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// NewCourse validates and constructs a course.
func NewCourse(id, name string, price int64, groupLink string) (*Course, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	groupLink = strings.TrimSpace(groupLink)
	if id == "" || name == "" || price <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	if !ValidCourseID(id) {
		return nil, domain.ErrInvalidFormat
	}
	if !strings.HasPrefix(groupLink, GroupLinkPrefix) {
		return nil, domain.ErrInvalidFormat
	}
	return &Course{
		ID:        id,
		Name:      name,
		Price:     price,
		GroupLink: groupLink,
	}, nil
}

// PaymentMethod identifies how the user pays for a course.
type PaymentMethod string

const (
	MethodNone PaymentMethod = ""
	// MethodBkash is an electronic transfer verified through the gateway.
	MethodBkash PaymentMethod = "bkash"
	// MethodNagad is a manual transfer proven by a screenshot and approved by an admin.
	MethodNagad PaymentMethod = "nagad"
	// MethodManual marks purchases granted by an admin without evidence in the flow.
	MethodManual PaymentMethod = "manual"
)

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(strings.ToLower(strings.TrimSpace(s))) {
	case MethodBkash:
		return MethodBkash, nil
	case MethodNagad:
		return MethodNagad, nil
	}
	return MethodNone, domain.ErrInvalidArgument
}

// PaymentDestinations holds the receiving account numbers shown to users.
type PaymentDestinations struct {
	BkashNumber string
	NagadNumber string
}

// Number returns the destination for a method, empty when not configured.
func (d PaymentDestinations) Number(m PaymentMethod) string {
	switch m {
	case MethodBkash:
		return d.BkashNumber
	case MethodNagad:
		return d.NagadNumber
	}
	return ""
}
