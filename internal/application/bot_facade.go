package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"telegram-course-bot/internal/domain"
	"telegram-course-bot/internal/domain/model"
	"telegram-course-bot/internal/domain/ports/adapter"
	"telegram-course-bot/internal/usecase"
)

// Links are optional URLs shown on menus. Empty values hide the buttons.
type Links struct {
	SupportURL string
	ChannelURL string
}

// BotFacade composes usecases into chat replies.
// It holds no transport types; the Telegram adapter only forwards the replies.
type BotFacade struct {
	PurchaseUC usecase.PurchaseUseCase
	CatalogUC  usecase.CatalogUseCase
	AdminUC    usecase.AdminUseCase
	StatsUC    usecase.StatsUseCase

	t     adapter.Translator
	links Links
	log   *zerolog.Logger
}

func NewBotFacade(
	purchaseUC usecase.PurchaseUseCase,
	catalogUC usecase.CatalogUseCase,
	adminUC usecase.AdminUseCase,
	statsUC usecase.StatsUseCase,
	t adapter.Translator,
	links Links,
	logger *zerolog.Logger,
) *BotFacade {
	return &BotFacade{
		PurchaseUC: purchaseUC,
		CatalogUC:  catalogUC,
		AdminUC:    adminUC,
		StatsUC:    statsUC,
		t:          t,
		links:      links,
		log:        logger,
	}
}

// ---- buttons ----

func (b *BotFacade) btn(key, data string, args ...interface{}) adapter.InlineButton {
	return adapter.InlineButton{Text: b.t.T(key, args...), Data: data}
}

func (b *BotFacade) urlBtn(key, url string, args ...interface{}) adapter.InlineButton {
	return adapter.InlineButton{Text: b.t.T(key, args...), URL: url}
}

func (b *BotFacade) menuRow() []adapter.InlineButton {
	return []adapter.InlineButton{b.btn("btn.main_menu", model.MenuCallback())}
}

func (b *BotFacade) mainMenu(text string) *Reply {
	rows := [][]adapter.InlineButton{
		{b.btn("btn.courses", model.CoursesCallback())},
	}
	var links []adapter.InlineButton
	if b.links.SupportURL != "" {
		links = append(links, b.urlBtn("btn.support", b.links.SupportURL))
	}
	if b.links.ChannelURL != "" {
		links = append(links, b.urlBtn("btn.channel", b.links.ChannelURL))
	}
	if len(links) > 0 {
		rows = append(rows, links)
	}
	return &Reply{Text: text, Rows: rows}
}

// ---- user commands ----

func (b *BotFacade) Start(ctx context.Context, tgID int64) *Reply {
	// first contact creates the session so the user shows up in stats
	if _, err := b.PurchaseUC.Session(ctx, tgID); err != nil {
		return b.errorReply(err)
	}
	return b.mainMenu(b.t.T("welcome"))
}

func (b *BotFacade) Help(ctx context.Context, tgID int64) *Reply {
	text := b.t.T("help")
	if b.AdminUC.IsAdmin(ctx, tgID) {
		text += "\n\n" + b.t.T("help.admin_hint")
	}
	return &Reply{Text: text, Rows: [][]adapter.InlineButton{b.menuRow()}}
}

func (b *BotFacade) Courses(ctx context.Context) *Reply {
	courses, err := b.CatalogUC.List(ctx)
	if err != nil {
		return b.errorReply(err)
	}
	if len(courses) == 0 {
		return &Reply{Text: b.t.T("courses.empty"), Rows: [][]adapter.InlineButton{b.menuRow()}}
	}
	rows := make([][]adapter.InlineButton, 0, len(courses)+1)
	for _, c := range courses {
		rows = append(rows, []adapter.InlineButton{b.btn("btn.course", model.CourseCallback(c.ID), c.Name, c.Price)})
	}
	rows = append(rows, b.menuRow())
	return &Reply{Text: b.t.T("courses.title"), Rows: rows}
}

func (b *BotFacade) MyCourses(ctx context.Context, tgID int64) *Reply {
	courses, err := b.PurchaseUC.MyCourses(ctx, tgID)
	if err != nil {
		return b.errorReply(err)
	}
	if len(courses) == 0 {
		return &Reply{
			Text: b.t.T("mycourses.empty"),
			Rows: [][]adapter.InlineButton{{b.btn("btn.courses", model.CoursesCallback())}, b.menuRow()},
		}
	}
	rows := make([][]adapter.InlineButton, 0, len(courses)+1)
	for _, c := range courses {
		rows = append(rows, []adapter.InlineButton{b.urlBtn("btn.join_group", c.GroupLink, c.Name)})
	}
	rows = append(rows, b.menuRow())
	return &Reply{Text: b.t.T("mycourses.title"), Rows: rows}
}

// ---- purchase flow ----

// HandleEvent applies a purchase event and renders the outcome.
func (b *BotFacade) HandleEvent(ctx context.Context, tgID int64, ev model.Event) *Reply {
	res, err := b.PurchaseUC.Handle(ctx, tgID, ev)
	if err != nil {
		return b.eventErrorReply(ctx, tgID, err)
	}
	return b.render(res)
}

func (b *BotFacade) HandleCallback(ctx context.Context, tgID int64, data string) *Reply {
	cb, err := model.ParseCallback(data)
	if err != nil {
		b.log.Debug().Str("data", data).Msg("unknown callback data")
		return b.mainMenu(b.t.T("err.unknown_action"))
	}
	switch cb.Action {
	case model.ActionMenu:
		return b.mainMenu(b.t.T("menu.title"))
	case model.ActionCourses:
		return b.Courses(ctx)
	case model.ActionApprove:
		return b.approve(ctx, tgID, cb.UserID, cb.CourseID)
	}
	ev, ok := cb.Event()
	if !ok {
		return b.mainMenu(b.t.T("err.unknown_action"))
	}
	return b.HandleEvent(ctx, tgID, ev)
}

func (b *BotFacade) HandleText(ctx context.Context, tgID int64, text string, progress func(*Reply)) *Reply {
	sess, err := b.PurchaseUC.Session(ctx, tgID)
	if err != nil {
		return b.errorReply(err)
	}
	capture, ok := sess.State.(model.Capturing)
	if !ok {
		return b.mainMenu(b.t.T("text.unknown"))
	}
	if capture.Evidence == model.EvidenceNagadProof {
		return &Reply{
			Text: b.t.T("proof.need_photo"),
			Rows: [][]adapter.InlineButton{{b.btn("btn.cancel", model.CancelCallback(capture.CourseID))}},
		}
	}
	if strings.TrimSpace(text) != "" && progress != nil {
		progress(&Reply{Text: b.t.T("trx.verifying")})
	}
	return b.HandleEvent(ctx, tgID, model.SubmitTrxID{Raw: text})
}

func (b *BotFacade) HandlePhoto(ctx context.Context, tgID int64, photoRef, caption string) *Reply {
	if fields := strings.Fields(caption); len(fields) > 0 && fields[0] == "/setimage" {
		return b.adminSetImage(ctx, tgID, strings.Join(fields[1:], " "), photoRef)
	}
	res, err := b.PurchaseUC.Handle(ctx, tgID, model.SubmitProof{PhotoRef: photoRef, Caption: caption})
	if errors.Is(err, domain.ErrNotCapturing) {
		return b.mainMenu(b.t.T("photo.unexpected"))
	}
	if err != nil {
		return b.eventErrorReply(ctx, tgID, err)
	}
	return b.render(res)
}

func (b *BotFacade) approve(ctx context.Context, adminID, userID int64, courseID string) *Reply {
	res, err := b.PurchaseUC.AdminApprove(ctx, adminID, userID, courseID)
	if err != nil {
		return b.errorReply(err)
	}
	if !res.Granted {
		return &Reply{Text: b.t.T("approve.already", res.UserID, res.Course.Name)}
	}
	return &Reply{Text: b.t.T("approve.done", res.UserID, res.Course.Name)}
}

func (b *BotFacade) statusText(s usecase.CourseStatus) string {
	switch s {
	case usecase.StatusPurchased:
		return b.t.T("status.purchased")
	case usecase.StatusPending:
		return b.t.T("status.pending")
	default:
		return b.t.T("status.not_purchased")
	}
}

func (b *BotFacade) render(res *usecase.PurchaseResult) *Reply {
	c := res.Course
	switch res.Outcome {
	case usecase.OutcomeCourseView:
		rows := [][]adapter.InlineButton{}
		switch res.Status {
		case usecase.StatusPurchased:
			rows = append(rows, []adapter.InlineButton{b.urlBtn("btn.join_group", c.GroupLink, c.Name)})
		case usecase.StatusPending:
			rows = append(rows,
				[]adapter.InlineButton{b.btn("btn.buy", model.BuyCallback(c.ID))},
				[]adapter.InlineButton{b.btn("btn.submit_trx", model.TrxCallback(c.ID))},
			)
		default:
			rows = append(rows, []adapter.InlineButton{b.btn("btn.buy", model.BuyCallback(c.ID))})
		}
		rows = append(rows, []adapter.InlineButton{
			b.btn("btn.back", model.CoursesCallback()),
			b.btn("btn.main_menu", model.MenuCallback()),
		})
		return &Reply{
			Text:     b.t.T("course.view", c.Name, b.statusText(res.Status), c.Price),
			Rows:     rows,
			PhotoRef: c.ImageRef,
		}

	case usecase.OutcomeBuyOptions:
		var methods []adapter.InlineButton
		if res.Destinations.BkashNumber != "" {
			methods = append(methods, b.btn("btn.pay_bkash", model.MethodCallback(model.MethodBkash, c.ID)))
		}
		if res.Destinations.NagadNumber != "" {
			methods = append(methods, b.btn("btn.pay_nagad", model.MethodCallback(model.MethodNagad, c.ID)))
		}
		rows := [][]adapter.InlineButton{}
		if len(methods) > 0 {
			rows = append(rows, methods)
		}
		rows = append(rows, []adapter.InlineButton{b.btn("btn.back", model.CourseCallback(c.ID))})
		return &Reply{
			Text: b.t.T("buy.options", c.Name, c.Price, orDash(res.Destinations.BkashNumber), orDash(res.Destinations.NagadNumber)),
			Rows: rows,
		}

	case usecase.OutcomeBkashInstructions:
		rows := [][]adapter.InlineButton{}
		if res.PaymentLink != "" {
			rows = append(rows, []adapter.InlineButton{b.urlBtn("btn.pay_link", res.PaymentLink)})
		}
		rows = append(rows,
			[]adapter.InlineButton{b.btn("btn.submit_trx", model.TrxCallback(c.ID))},
			[]adapter.InlineButton{b.btn("btn.back", model.CourseCallback(c.ID))},
		)
		return &Reply{Text: b.t.T("pay.bkash", c.Name, c.Price, res.Destinations.BkashNumber), Rows: rows}

	case usecase.OutcomeNagadInstructions:
		return &Reply{
			Text: b.t.T("pay.nagad", c.Name, c.Price, res.Destinations.NagadNumber),
			Rows: [][]adapter.InlineButton{{b.btn("btn.cancel", model.CancelCallback(c.ID))}},
		}

	case usecase.OutcomeAwaitTrx:
		return &Reply{
			Text: b.t.T("trx.prompt", c.Name, c.Price),
			Rows: [][]adapter.InlineButton{{b.btn("btn.cancel", model.CancelCallback(c.ID))}},
		}

	case usecase.OutcomeVerified:
		return &Reply{
			Text: b.t.T("trx.verified", c.Name, res.TrxID),
			Rows: [][]adapter.InlineButton{
				{b.urlBtn("btn.join_group", c.GroupLink, c.Name)},
				b.menuRow(),
			},
		}

	case usecase.OutcomeVerificationFailed:
		return &Reply{
			Text: b.t.T("trx.failed", res.TrxID),
			Rows: [][]adapter.InlineButton{
				{b.btn("btn.try_again", model.TrxCallback(c.ID))},
				b.menuRow(),
			},
		}

	case usecase.OutcomeVerificationError:
		rows := [][]adapter.InlineButton{}
		if b.links.SupportURL != "" {
			rows = append(rows, []adapter.InlineButton{b.urlBtn("btn.support", b.links.SupportURL)})
		}
		rows = append(rows, b.menuRow())
		return &Reply{Text: b.t.T("trx.error", res.TrxID), Rows: rows}

	case usecase.OutcomeProofForwarded:
		return &Reply{Text: b.t.T("proof.forwarded", c.Name), Rows: [][]adapter.InlineButton{b.menuRow()}}

	case usecase.OutcomeCancelled:
		return b.mainMenu(b.t.T("cancelled"))
	}
	return b.mainMenu(b.t.T("menu.title"))
}

// ---- errors ----

var errorKeys = []struct {
	err error
	key string
}{
	{domain.ErrDuplicateTransaction, "trx.duplicate"},
	{domain.ErrTransactionInFlight, "trx.in_flight"},
	{domain.ErrAlreadyPurchased, "err.already_purchased"},
	{domain.ErrNoPendingCourse, "err.no_pending"},
	{domain.ErrNotCapturing, "err.not_capturing"},
	{domain.ErrMethodUnavailable, "err.method_unavailable"},
	{domain.ErrNotFound, "err.not_found"},
	{domain.ErrAlreadyExists, "err.already_exists"},
	{domain.ErrInvalidArgument, "err.invalid_input"},
	{domain.ErrInvalidFormat, "err.invalid_format"},
	{domain.ErrPrimaryAdmin, "err.primary_admin"},
	{domain.ErrForbidden, "err.forbidden"},
}

func (b *BotFacade) errorText(err error) string {
	for _, e := range errorKeys {
		if errors.Is(err, e.err) {
			return b.t.T(e.key)
		}
	}
	b.log.Error().Err(err).Msg("request failed")
	return b.t.T("err.generic")
}

func (b *BotFacade) errorReply(err error) *Reply {
	return &Reply{Text: b.errorText(err), Rows: [][]adapter.InlineButton{b.menuRow()}}
}

// eventErrorReply keeps a cancel button while the user is still expected to
// send evidence, so a rejected reference can simply be retried.
func (b *BotFacade) eventErrorReply(ctx context.Context, tgID int64, err error) *Reply {
	reply := b.errorReply(err)
	if sess, serr := b.PurchaseUC.Session(ctx, tgID); serr == nil {
		if c, ok := sess.State.(model.Capturing); ok {
			reply.Rows = [][]adapter.InlineButton{{b.btn("btn.cancel", model.CancelCallback(c.CourseID))}}
		}
	}
	return reply
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// usage renders an argument error with the command syntax.
func (b *BotFacade) usage(key string) *Reply {
	return &Reply{Text: fmt.Sprintf("%s\n%s", b.t.T("err.invalid_input"), b.t.T(key))}
}
