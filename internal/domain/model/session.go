package model

import "time"

// EvidenceKind is the kind of payment evidence a capturing session waits for.
type EvidenceKind string

const (
	EvidenceBkashTrx   EvidenceKind = "bkash-trx"
	EvidenceNagadProof EvidenceKind = "nagad-proof"
)

// PurchaseState is the closed set of states a session can be in.
// Only the types declared in this file implement it.
type PurchaseState interface {
	isPurchaseState()
	// PendingCourseID returns the course being purchased, or "" when browsing.
	PendingCourseID() string
}

// Browsing: no course is being purchased.
type Browsing struct{}

// Selected: the user opened a course page but has not pressed buy.
type Selected struct {
	CourseID string
}

// Pending: buy was pressed; Method is set once a payment method is chosen.
type Pending struct {
	CourseID string
	Method   PaymentMethod
}

// Capturing: the next inbound message is payment evidence for CourseID.
type Capturing struct {
	CourseID string
	Method   PaymentMethod
	Evidence EvidenceKind
}

func (Browsing) isPurchaseState()  {}
func (Selected) isPurchaseState()  {}
func (Pending) isPurchaseState()   {}
func (Capturing) isPurchaseState() {}

func (Browsing) PendingCourseID() string    { return "" }
func (s Selected) PendingCourseID() string  { return s.CourseID }
func (s Pending) PendingCourseID() string   { return s.CourseID }
func (s Capturing) PendingCourseID() string { return s.CourseID }

// StateName is a short label used in logs and metrics.
func StateName(s PurchaseState) string {
	switch s.(type) {
	case Selected:
		return "selected"
	case Pending:
		return "pending"
	case Capturing:
		return "capturing"
	default:
		return "browsing"
	}
}

// Session is the volatile per-user record of purchases and flow state.
type Session struct {
	UserID     int64
	Purchased  map[string]struct{}
	State      PurchaseState
	FirstSeen  time.Time
	LastActive time.Time
}

func NewSession(userID int64) *Session {
	now := time.Now()
	return &Session{
		UserID:     userID,
		Purchased:  make(map[string]struct{}),
		State:      Browsing{},
		FirstSeen:  now,
		LastActive: now,
	}
}

func (s *Session) HasPurchased(courseID string) bool {
	_, ok := s.Purchased[courseID]
	return ok
}

// Grant adds a course to the purchased set and, if that course was the one
// being purchased, returns the session to browsing. It reports whether the
// course was newly added.
func (s *Session) Grant(courseID string) bool {
	if s.Purchased == nil {
		s.Purchased = make(map[string]struct{})
	}
	_, had := s.Purchased[courseID]
	s.Purchased[courseID] = struct{}{}
	if s.PendingCourseID() == courseID {
		s.State = Browsing{}
	}
	return !had
}

func (s *Session) PendingCourseID() string {
	if s.State == nil {
		return ""
	}
	return s.State.PendingCourseID()
}

// PurchasedIDs returns a copy of the purchased set as a slice.
func (s *Session) PurchasedIDs() []string {
	out := make([]string, 0, len(s.Purchased))
	for id := range s.Purchased {
		out = append(out, id)
	}
	return out
}

// Clone returns a deep copy safe to hand out of a repository.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Purchased = make(map[string]struct{}, len(s.Purchased))
	for id := range s.Purchased {
		cp.Purchased[id] = struct{}{}
	}
	if cp.State == nil {
		cp.State = Browsing{}
	}
	return &cp
}

func (s *Session) Touch() { s.LastActive = time.Now() }
