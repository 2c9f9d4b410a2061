package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"telegram-course-bot/internal/domain"
	"telegram-course-bot/internal/domain/model"
	"telegram-course-bot/internal/domain/ports/adapter"
	"telegram-course-bot/internal/domain/ports/repository"
	portuc "telegram-course-bot/internal/domain/ports/usecase"
	"telegram-course-bot/internal/infra/logging"
	"telegram-course-bot/internal/infra/metrics"
)

// Compile-time check
var _ PurchaseUseCase = (*purchaseUC)(nil)

// Outcome tells the presentation layer which view to render for a result.
type Outcome int

const (
	OutcomeCourseView Outcome = iota
	OutcomeBuyOptions
	OutcomeBkashInstructions
	OutcomeNagadInstructions
	OutcomeAwaitTrx
	OutcomeVerified
	OutcomeVerificationFailed
	OutcomeVerificationError
	OutcomeProofForwarded
	OutcomeCancelled
)

// CourseStatus is the user's relation to a course as shown on its page.
type CourseStatus int

const (
	StatusNotPurchased CourseStatus = iota
	StatusPending
	StatusPurchased
)

// PurchaseResult is what one event produced. Course is nil only for Cancel.
type PurchaseResult struct {
	Outcome      Outcome
	Course       *model.Course
	Status       CourseStatus
	Method       model.PaymentMethod
	Destinations model.PaymentDestinations
	PaymentLink  string
	TrxID        string
	State        model.PurchaseState
}

// ApprovalResult is returned to the admin who approved a manual payment.
type ApprovalResult struct {
	Course  *model.Course
	UserID  int64
	Granted bool // false when the user already owned the course
}

type PurchaseUseCase interface {
	// Handle applies one user event to the user's session.
	Handle(ctx context.Context, userID int64, ev model.Event) (*PurchaseResult, error)
	// AdminApprove grants a course after a manual payment was reviewed.
	AdminApprove(ctx context.Context, adminID, userID int64, courseID string) (*ApprovalResult, error)
	Session(ctx context.Context, userID int64) (*model.Session, error)
	// MyCourses lists the user's purchased courses in catalog order.
	MyCourses(ctx context.Context, userID int64) ([]*model.Course, error)
}

type purchaseUC struct {
	catalog  repository.CatalogRepository
	sessions repository.SessionRepository
	ledger   repository.LedgerRepository
	admins   repository.AdminRepository
	gateway  adapter.PaymentGateway
	notifier portuc.Notifier

	verifyTimeout time.Duration
	dev           bool
	log           *zerolog.Logger
}

func NewPurchaseUseCase(
	catalog repository.CatalogRepository,
	sessions repository.SessionRepository,
	ledger repository.LedgerRepository,
	admins repository.AdminRepository,
	gateway adapter.PaymentGateway,
	notifier portuc.Notifier,
	verifyTimeout time.Duration,
	dev bool,
	logger *zerolog.Logger,
) *purchaseUC {
	if verifyTimeout <= 0 {
		verifyTimeout = 30 * time.Second
	}
	return &purchaseUC{
		catalog:       catalog,
		sessions:      sessions,
		ledger:        ledger,
		admins:        admins,
		gateway:       gateway,
		notifier:      notifier,
		verifyTimeout: verifyTimeout,
		dev:           dev,
		log:           logger,
	}
}

func (u *purchaseUC) Handle(ctx context.Context, userID int64, ev model.Event) (*PurchaseResult, error) {
	log := logging.With(logging.WithTgID(ctx, userID), u.log)
	defer logging.TraceDuration(log, "PurchaseUC."+ev.Name())()

	var (
		res *PurchaseResult
		err error
	)
	switch e := ev.(type) {
	case model.SelectCourse:
		res, err = u.selectCourse(ctx, userID, e.CourseID)
	case model.ChooseBuy:
		res, err = u.chooseBuy(ctx, userID, e.CourseID)
	case model.ChooseMethod:
		res, err = u.chooseMethod(ctx, userID, e.CourseID, e.Method)
	case model.RequestTrxCapture:
		res, err = u.requestTrxCapture(ctx, userID, e.CourseID)
	case model.SubmitTrxID:
		res, err = u.submitTrxID(ctx, userID, e.Raw, log)
	case model.SubmitProof:
		res, err = u.submitProof(ctx, userID, e.PhotoRef, e.Caption)
	case model.Cancel:
		res, err = u.cancel(ctx, userID)
	default:
		return nil, domain.ErrInvalidArgument
	}
	if err != nil {
		log.Debug().Err(err).Str("event", ev.Name()).Msg("event rejected")
		return nil, err
	}
	log.Debug().Str("event", ev.Name()).Str("state", model.StateName(res.State)).Msg("event applied")
	return res, nil
}

func (u *purchaseUC) selectCourse(ctx context.Context, userID int64, courseID string) (*PurchaseResult, error) {
	course, err := u.catalog.Get(ctx, courseID)
	if err != nil {
		return nil, err
	}

	status := StatusNotPurchased
	sess, err := u.sessions.Update(ctx, userID, func(s *model.Session) error {
		if s.HasPurchased(courseID) {
			status = StatusPurchased
			return nil
		}
		switch st := s.State.(type) {
		case model.Pending:
			if st.CourseID == courseID {
				status = StatusPending
				return nil
			}
		case model.Capturing:
			if st.CourseID == courseID {
				status = StatusPending
				return nil
			}
		}
		// replaces any other course being purchased
		s.State = model.Selected{CourseID: courseID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &PurchaseResult{Outcome: OutcomeCourseView, Course: course, Status: status, State: sess.State}, nil
}

// requirePending guards actions that continue a purchase of courseID.
func requirePending(s *model.Session, courseID string) error {
	if s.HasPurchased(courseID) {
		return domain.ErrAlreadyPurchased
	}
	if s.PendingCourseID() != courseID {
		return domain.ErrNoPendingCourse
	}
	return nil
}

func (u *purchaseUC) chooseBuy(ctx context.Context, userID int64, courseID string) (*PurchaseResult, error) {
	course, err := u.catalog.Get(ctx, courseID)
	if err != nil {
		return nil, err
	}
	dest, err := u.catalog.Destinations(ctx)
	if err != nil {
		return nil, err
	}
	sess, err := u.sessions.Update(ctx, userID, func(s *model.Session) error {
		if err := requirePending(s, courseID); err != nil {
			return err
		}
		s.State = model.Pending{CourseID: courseID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &PurchaseResult{
		Outcome:      OutcomeBuyOptions,
		Course:       course,
		Status:       StatusPending,
		Destinations: dest,
		PaymentLink:  u.paymentLink(ctx, courseID),
		State:        sess.State,
	}, nil
}

func (u *purchaseUC) chooseMethod(ctx context.Context, userID int64, courseID string, method model.PaymentMethod) (*PurchaseResult, error) {
	if method != model.MethodBkash && method != model.MethodNagad {
		return nil, domain.ErrInvalidArgument
	}
	course, err := u.catalog.Get(ctx, courseID)
	if err != nil {
		return nil, err
	}
	dest, err := u.catalog.Destinations(ctx)
	if err != nil {
		return nil, err
	}
	if dest.Number(method) == "" {
		return nil, domain.ErrMethodUnavailable
	}

	sess, err := u.sessions.Update(ctx, userID, func(s *model.Session) error {
		if err := requirePending(s, courseID); err != nil {
			return err
		}
		if method == model.MethodNagad {
			s.State = model.Capturing{CourseID: courseID, Method: method, Evidence: model.EvidenceNagadProof}
		} else {
			// trx capture starts on the explicit submit action
			s.State = model.Pending{CourseID: courseID, Method: method}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := &PurchaseResult{
		Outcome:      OutcomeBkashInstructions,
		Course:       course,
		Status:       StatusPending,
		Method:       method,
		Destinations: dest,
		State:        sess.State,
	}
	if method == model.MethodNagad {
		res.Outcome = OutcomeNagadInstructions
	} else {
		res.PaymentLink = u.paymentLink(ctx, courseID)
	}
	return res, nil
}

func (u *purchaseUC) requestTrxCapture(ctx context.Context, userID int64, courseID string) (*PurchaseResult, error) {
	course, err := u.catalog.Get(ctx, courseID)
	if err != nil {
		return nil, err
	}
	sess, err := u.sessions.Update(ctx, userID, func(s *model.Session) error {
		if err := requirePending(s, courseID); err != nil {
			return err
		}
		s.State = model.Capturing{CourseID: courseID, Method: model.MethodBkash, Evidence: model.EvidenceBkashTrx}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &PurchaseResult{
		Outcome: OutcomeAwaitTrx,
		Course:  course,
		Status:  StatusPending,
		Method:  model.MethodBkash,
		State:   sess.State,
	}, nil
}

// capturing returns the active capture of the given evidence kind.
func (u *purchaseUC) capturing(ctx context.Context, userID int64, kind model.EvidenceKind) (model.Capturing, error) {
	sess, err := u.sessions.Get(ctx, userID)
	if err != nil {
		return model.Capturing{}, err
	}
	c, ok := sess.State.(model.Capturing)
	if !ok || c.Evidence != kind {
		return model.Capturing{}, domain.ErrNotCapturing
	}
	return c, nil
}

// endCapture moves a still-open capture back to Pending with the same method.
func (u *purchaseUC) endCapture(ctx context.Context, userID int64, capture model.Capturing) (*model.Session, error) {
	return u.sessions.Update(ctx, userID, func(s *model.Session) error {
		if cur, ok := s.State.(model.Capturing); !ok || cur != capture {
			return domain.ErrNotCapturing
		}
		s.State = model.Pending{CourseID: capture.CourseID, Method: capture.Method}
		return nil
	})
}

func (u *purchaseUC) submitTrxID(ctx context.Context, userID int64, raw string, log *zerolog.Logger) (*PurchaseResult, error) {
	capture, err := u.capturing(ctx, userID, model.EvidenceBkashTrx)
	if err != nil {
		return nil, err
	}
	ref := strings.TrimSpace(raw)
	if ref == "" {
		return nil, domain.ErrInvalidArgument
	}
	course, err := u.catalog.Get(ctx, capture.CourseID)
	if err != nil {
		return nil, err
	}
	refLog := log.With().Str("trx_id", logging.Redact(ref, u.dev)).Str("course_id", course.ID).Logger()

	// The duplicate check runs while the capture is still open so the user can
	// simply send another reference.
	used, err := u.ledger.Has(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("ledger lookup: %w", err)
	}
	if used {
		metrics.IncLedgerRejection("duplicate")
		refLog.Info().Msg("duplicate transaction reference")
		return nil, domain.ErrDuplicateTransaction
	}
	token, claimed, err := u.ledger.Claim(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("ledger claim: %w", err)
	}
	if !claimed {
		// committed between Has and Claim, or another verification holds it
		used, err := u.ledger.Has(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("ledger lookup: %w", err)
		}
		if used {
			metrics.IncLedgerRejection("duplicate")
			return nil, domain.ErrDuplicateTransaction
		}
		metrics.IncLedgerRejection("in_flight")
		refLog.Info().Msg("transaction reference already being verified")
		return nil, domain.ErrTransactionInFlight
	}

	if _, err := u.endCapture(ctx, userID, capture); err != nil {
		_ = u.ledger.Abandon(ctx, ref, token)
		return nil, err
	}

	vctx, cancel := context.WithTimeout(ctx, u.verifyTimeout)
	trx, verr := u.gateway.VerifyTransaction(vctx, ref)
	cancel()

	res := &PurchaseResult{Course: course, Status: StatusPending, Method: model.MethodBkash, TrxID: ref}
	switch {
	case errors.Is(verr, domain.ErrGatewayAuth):
		u.abandon(ctx, ref, token, &refLog)
		metrics.IncVerification("error")
		refLog.Error().Err(verr).Msg("payment verification unavailable")
		res.Outcome = OutcomeVerificationError
	case verr != nil || !trx.Covers(course.Price):
		u.abandon(ctx, ref, token, &refLog)
		metrics.IncVerification("failed")
		ev := refLog.Info().Err(verr)
		if trx != nil {
			ev = ev.Str("status", trx.Status).Str("amount", trx.Amount)
		}
		ev.Msg("payment verification failed")
		res.Outcome = OutcomeVerificationFailed
	default:
		if err := u.ledger.Commit(ctx, ref, token); err != nil {
			// not consumed, so not granted; the user can resubmit later
			u.abandon(ctx, ref, token, &refLog)
			if errors.Is(err, domain.ErrDuplicateTransaction) || errors.Is(err, domain.ErrTransactionInFlight) {
				metrics.IncLedgerRejection("claim_lost")
			}
			metrics.IncVerification("error")
			refLog.Error().Err(err).Msg("ledger commit failed after verification")
			res.Outcome = OutcomeVerificationError
			break
		}
		if _, err := u.sessions.Update(ctx, userID, func(s *model.Session) error {
			s.Grant(course.ID)
			return nil
		}); err != nil {
			return nil, fmt.Errorf("grant purchase: %w", err)
		}
		metrics.IncVerification("verified")
		metrics.IncPurchase(string(model.MethodBkash), course.Price)
		refLog.Info().Str("amount", trx.Amount).Msg("payment verified, course granted")

		u.notifier.PostAuditRecord(ctx, &model.AuditRecord{
			ID:         uuid.NewString(),
			TrxID:      ref,
			UserID:     userID,
			Amount:     course.Price,
			CourseID:   course.ID,
			CourseName: course.Name,
			Method:     model.MethodBkash,
			At:         time.Now(),
		})
		res.Outcome = OutcomeVerified
		res.Status = StatusPurchased
	}

	sess, err := u.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	res.State = sess.State
	return res, nil
}

func (u *purchaseUC) abandon(ctx context.Context, ref, token string, log *zerolog.Logger) {
	if err := u.ledger.Abandon(ctx, ref, token); err != nil {
		log.Warn().Err(err).Msg("failed to abandon ledger claim")
	}
}

func (u *purchaseUC) submitProof(ctx context.Context, userID int64, photoRef, caption string) (*PurchaseResult, error) {
	capture, err := u.capturing(ctx, userID, model.EvidenceNagadProof)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(photoRef) == "" {
		return nil, domain.ErrInvalidArgument
	}
	course, err := u.catalog.Get(ctx, capture.CourseID)
	if err != nil {
		return nil, err
	}
	sess, err := u.endCapture(ctx, userID, capture)
	if err != nil {
		return nil, err
	}

	u.notifier.RelayEvidence(ctx, portuc.EvidenceRelay{
		UserID:   userID,
		Course:   course,
		Method:   capture.Method,
		PhotoRef: photoRef,
		Caption:  strings.TrimSpace(caption),
	})
	return &PurchaseResult{
		Outcome: OutcomeProofForwarded,
		Course:  course,
		Status:  StatusPending,
		Method:  capture.Method,
		State:   sess.State,
	}, nil
}

func (u *purchaseUC) cancel(ctx context.Context, userID int64) (*PurchaseResult, error) {
	sess, err := u.sessions.Update(ctx, userID, func(s *model.Session) error {
		s.State = model.Browsing{}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &PurchaseResult{Outcome: OutcomeCancelled, State: sess.State}, nil
}

func (u *purchaseUC) AdminApprove(ctx context.Context, adminID, userID int64, courseID string) (*ApprovalResult, error) {
	ok, err := u.admins.IsAdmin(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrForbidden
	}
	if userID <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	course, err := u.catalog.Get(ctx, courseID)
	if err != nil {
		return nil, err
	}

	var granted bool
	if _, err := u.sessions.Update(ctx, userID, func(s *model.Session) error {
		granted = s.Grant(courseID)
		return nil
	}); err != nil {
		return nil, err
	}

	u.log.Info().Int64("admin_id", adminID).Int64("tg_id", userID).Str("course_id", courseID).
		Bool("granted", granted).Msg("manual payment approved")
	if granted {
		metrics.IncPurchase(string(model.MethodManual), course.Price)
		u.notifier.NotifyGranted(ctx, userID, course)
		u.notifier.PostAuditRecord(ctx, &model.AuditRecord{
			ID:         uuid.NewString(),
			UserID:     userID,
			Amount:     course.Price,
			CourseID:   course.ID,
			CourseName: course.Name,
			Method:     model.MethodManual,
			At:         time.Now(),
		})
	}
	return &ApprovalResult{Course: course, UserID: userID, Granted: granted}, nil
}

func (u *purchaseUC) Session(ctx context.Context, userID int64) (*model.Session, error) {
	return u.sessions.Get(ctx, userID)
}

func (u *purchaseUC) MyCourses(ctx context.Context, userID int64) ([]*model.Course, error) {
	sess, err := u.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	all, err := u.catalog.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Course, 0, len(sess.Purchased))
	for _, c := range all {
		if sess.HasPurchased(c.ID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (u *purchaseUC) paymentLink(ctx context.Context, courseID string) string {
	link, err := u.catalog.GetPaymentLink(ctx, courseID)
	if err != nil {
		return ""
	}
	return link
}
