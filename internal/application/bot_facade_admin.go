package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"telegram-course-bot/internal/domain"
	"telegram-course-bot/internal/domain/model"
	"telegram-course-bot/internal/infra/metrics"
)

type commandHandler func(ctx context.Context, tgID int64, args string) *Reply

type access int

const (
	accessUser access = iota
	accessAdmin
	accessPrimary
)

type commandRoute struct {
	access access
	fn     commandHandler
}

// commandRoutes maps command names (without the slash) to handlers.
func (b *BotFacade) commandRoutes() map[string]commandRoute {
	user := func(fn commandHandler) commandRoute { return commandRoute{access: accessUser, fn: fn} }
	admin := func(fn commandHandler) commandRoute { return commandRoute{access: accessAdmin, fn: fn} }
	primary := func(fn commandHandler) commandRoute { return commandRoute{access: accessPrimary, fn: fn} }

	return map[string]commandRoute{
		"start":     user(func(ctx context.Context, id int64, _ string) *Reply { return b.Start(ctx, id) }),
		"help":      user(func(ctx context.Context, id int64, _ string) *Reply { return b.Help(ctx, id) }),
		"courses":   user(func(ctx context.Context, _ int64, _ string) *Reply { return b.Courses(ctx) }),
		"mycourses": user(func(ctx context.Context, id int64, _ string) *Reply { return b.MyCourses(ctx, id) }),
		"cancel": user(func(ctx context.Context, id int64, _ string) *Reply {
			return b.HandleEvent(ctx, id, model.Cancel{})
		}),

		"admin":             admin(b.adminPanel),
		"addcourse":         admin(b.adminAddCourse),
		"editprice":         admin(b.adminEditPrice),
		"editlink":          admin(b.adminEditLink),
		"editname":          admin(b.adminEditName),
		"deletecourse":      admin(b.adminDeleteCourse),
		"listcourses":       admin(b.adminListCourses),
		"updatepayment":     admin(b.adminUpdateNumber(model.MethodBkash)),
		"updatenagad":       admin(b.adminUpdateNumber(model.MethodNagad)),
		"updatepaymentlink": admin(b.adminUpdatePaymentLink),
		"approve":           admin(b.adminApprove),
		"checktrx":          admin(b.adminCheckTrx),
		"addtrx":            admin(b.adminAddTrx),
		"removetrx":         admin(b.adminRemoveTrx),
		"stats":             admin(b.adminStats),
		"users":             admin(b.adminUsers),
		"revenue":           admin(b.adminRevenue),

		"addadmin":    primary(b.adminAddAdmin),
		"removeadmin": primary(b.adminRemoveAdmin),
		"listadmins":  primary(b.adminListAdmins),
	}
}

var knownCommands = func() map[string]struct{} {
	routes := (&BotFacade{}).commandRoutes()
	names := make(map[string]struct{}, len(routes))
	for name := range routes {
		names[name] = struct{}{}
	}
	return names
}()

// KnownCommand reports whether name (without the slash, any case) is routed.
func KnownCommand(name string) bool {
	_, ok := knownCommands[strings.ToLower(name)]
	return ok
}

func (b *BotFacade) Command(ctx context.Context, tgID int64, command, args string) *Reply {
	command = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(command), "/"))
	route, ok := b.commandRoutes()[command]
	if !ok {
		return b.mainMenu(b.t.T("cmd.unknown"))
	}
	if route.access != accessUser {
		allowed := b.AdminUC.IsAdmin(ctx, tgID)
		if route.access == accessPrimary {
			allowed = b.AdminUC.IsPrimary(tgID)
		}
		if !allowed {
			metrics.IncAdminCommand("/"+command, "unauthorized")
			b.log.Warn().Int64("tg_id", tgID).Str("command", command).Msg("unauthorized admin command")
			return &Reply{Text: b.t.T("err.forbidden")}
		}
		metrics.IncAdminCommand("/"+command, "authorized")
	}
	return route.fn(ctx, tgID, strings.TrimSpace(args))
}

// splitArgs splits "id rest of line" into the id and the trimmed rest.
func splitArgs(args string) (string, string) {
	head, rest, _ := strings.Cut(strings.TrimSpace(args), " ")
	return head, strings.TrimSpace(rest)
}

func (b *BotFacade) adminPanel(ctx context.Context, tgID int64, _ string) *Reply {
	text := b.t.T("admin.panel")
	if b.AdminUC.IsPrimary(tgID) {
		text += "\n\n" + b.t.T("admin.panel_primary")
	}
	return &Reply{Text: text}
}

// ---- catalog ----

func (b *BotFacade) adminAddCourse(ctx context.Context, _ int64, args string) *Reply {
	parts := strings.Split(args, "|")
	if len(parts) != 4 {
		return b.usage("usage.addcourse")
	}
	price, err := strconv.ParseInt(strings.TrimSpace(parts[2]), 10, 64)
	if err != nil || price <= 0 {
		return &Reply{Text: b.t.T("err.invalid_price")}
	}
	c, err := b.CatalogUC.AddCourse(ctx, parts[0], parts[1], price, parts[3])
	if err != nil {
		return b.errorReply(err)
	}
	return &Reply{Text: b.t.T("course.added", c.Name, c.ID)}
}

func (b *BotFacade) adminEditPrice(ctx context.Context, _ int64, args string) *Reply {
	id, raw := splitArgs(args)
	if id == "" || raw == "" {
		return b.usage("usage.editprice")
	}
	price, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || price <= 0 {
		return &Reply{Text: b.t.T("err.invalid_price")}
	}
	old, err := b.CatalogUC.EditPrice(ctx, id, price)
	if err != nil {
		return b.errorReply(err)
	}
	return &Reply{Text: b.t.T("course.price_updated", old.Name, old.Price, price)}
}

func (b *BotFacade) adminEditLink(ctx context.Context, _ int64, args string) *Reply {
	id, link := splitArgs(args)
	if id == "" || link == "" {
		return b.usage("usage.editlink")
	}
	old, err := b.CatalogUC.EditLink(ctx, id, link)
	if err != nil {
		return b.errorReply(err)
	}
	return &Reply{Text: b.t.T("course.link_updated", old.Name, old.GroupLink, link)}
}

func (b *BotFacade) adminEditName(ctx context.Context, _ int64, args string) *Reply {
	id, name := splitArgs(args)
	if id == "" || name == "" {
		return b.usage("usage.editname")
	}
	old, err := b.CatalogUC.EditName(ctx, id, name)
	if err != nil {
		return b.errorReply(err)
	}
	return &Reply{Text: b.t.T("course.name_updated", old.Name, name)}
}

func (b *BotFacade) adminDeleteCourse(ctx context.Context, _ int64, args string) *Reply {
	if args == "" {
		return b.usage("usage.deletecourse")
	}
	c, err := b.CatalogUC.DeleteCourse(ctx, args)
	if err != nil {
		return b.errorReply(err)
	}
	return &Reply{Text: b.t.T("course.deleted", c.Name)}
}

func (b *BotFacade) adminListCourses(ctx context.Context, _ int64, _ string) *Reply {
	courses, err := b.CatalogUC.List(ctx)
	if err != nil {
		return b.errorReply(err)
	}
	if len(courses) == 0 {
		return &Reply{Text: b.t.T("courses.empty")}
	}
	var sb strings.Builder
	sb.WriteString(b.t.T("courses.admin_title"))
	for _, c := range courses {
		link, _ := b.CatalogUC.PaymentLink(ctx, c.ID)
		sb.WriteString("\n\n")
		sb.WriteString(b.t.T("courses.admin_line", c.Name, c.ID, c.Price, c.GroupLink, orDash(link)))
	}
	return &Reply{Text: sb.String()}
}

func (b *BotFacade) adminSetImage(ctx context.Context, tgID int64, id, photoRef string) *Reply {
	if !b.AdminUC.IsAdmin(ctx, tgID) {
		metrics.IncAdminCommand("/setimage", "unauthorized")
		return &Reply{Text: b.t.T("err.forbidden")}
	}
	metrics.IncAdminCommand("/setimage", "authorized")
	if strings.TrimSpace(id) == "" {
		return b.usage("usage.setimage")
	}
	c, err := b.CatalogUC.SetImage(ctx, id, photoRef)
	if err != nil {
		return b.errorReply(err)
	}
	return &Reply{Text: b.t.T("course.image_updated", c.Name)}
}

// ---- payments ----

func (b *BotFacade) adminUpdateNumber(method model.PaymentMethod) commandHandler {
	return func(ctx context.Context, _ int64, args string) *Reply {
		if args == "" {
			return b.usage("usage.update_" + string(method))
		}
		if err := b.CatalogUC.SetPaymentNumber(ctx, method, args); err != nil {
			return &Reply{Text: b.t.T("err.invalid_phone")}
		}
		return &Reply{Text: b.t.T("payment.number_updated", string(method), args)}
	}
}

func (b *BotFacade) adminUpdatePaymentLink(ctx context.Context, _ int64, args string) *Reply {
	id, link := splitArgs(args)
	if id == "" || link == "" {
		return b.usage("usage.updatepaymentlink")
	}
	c, err := b.CatalogUC.SetPaymentLink(ctx, id, link)
	if err != nil {
		return b.errorReply(err)
	}
	return &Reply{Text: b.t.T("payment.link_updated", c.Name, link)}
}

func (b *BotFacade) adminApprove(ctx context.Context, tgID int64, args string) *Reply {
	rawID, courseID := splitArgs(args)
	userID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || courseID == "" {
		return b.usage("usage.approve")
	}
	return b.approve(ctx, tgID, userID, courseID)
}

// ---- ledger ----

func (b *BotFacade) adminCheckTrx(ctx context.Context, _ int64, args string) *Reply {
	if args == "" {
		return b.usage("usage.checktrx")
	}
	used, err := b.AdminUC.CheckTrx(ctx, args)
	if err != nil {
		return b.errorReply(err)
	}
	if used {
		return &Reply{Text: b.t.T("trx.status_used", args)}
	}
	return &Reply{Text: b.t.T("trx.status_unused", args)}
}

func (b *BotFacade) adminAddTrx(ctx context.Context, _ int64, args string) *Reply {
	if args == "" {
		return b.usage("usage.addtrx")
	}
	if err := b.AdminUC.AddTrx(ctx, args); err != nil {
		return b.errorReply(err)
	}
	return &Reply{Text: b.t.T("trx.added", args)}
}

func (b *BotFacade) adminRemoveTrx(ctx context.Context, _ int64, args string) *Reply {
	if args == "" {
		return b.usage("usage.removetrx")
	}
	if err := b.AdminUC.RemoveTrx(ctx, args); err != nil {
		return b.errorReply(err)
	}
	return &Reply{Text: b.t.T("trx.removed", args)}
}

// ---- stats ----

func (b *BotFacade) adminStats(ctx context.Context, _ int64, _ string) *Reply {
	ov, err := b.StatsUC.Overview(ctx)
	if err != nil {
		return b.errorReply(err)
	}
	return &Reply{Text: b.t.T("stats.overview", ov.Users, ov.Purchases, ov.Revenue, ov.Courses, ov.Admins)}
}

func (b *BotFacade) adminUsers(ctx context.Context, _ int64, _ string) *Reply {
	st, err := b.StatsUC.Users(ctx)
	if err != nil {
		return b.errorReply(err)
	}
	return &Reply{Text: b.t.T("stats.users", st.Total, st.Paid, st.Free, fmt.Sprintf("%.1f", st.ConversionRate))}
}

func (b *BotFacade) adminRevenue(ctx context.Context, _ int64, _ string) *Reply {
	rep, err := b.StatsUC.Revenue(ctx)
	if err != nil {
		return b.errorReply(err)
	}
	var sb strings.Builder
	sb.WriteString(b.t.T("stats.revenue_total", rep.Total))
	if len(rep.PerCourse) == 0 {
		sb.WriteString("\n\n")
		sb.WriteString(b.t.T("stats.revenue_none"))
	}
	for _, line := range rep.PerCourse {
		sb.WriteString("\n\n")
		sb.WriteString(b.t.T("stats.revenue_line", line.Course.Name, line.Sales, line.Revenue))
	}
	return &Reply{Text: sb.String()}
}

// ---- admin set ----

func parseUserID(args string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	return id, err == nil && id > 0
}

func (b *BotFacade) adminAddAdmin(ctx context.Context, tgID int64, args string) *Reply {
	id, ok := parseUserID(args)
	if !ok {
		return &Reply{Text: b.t.T("err.invalid_user_id")}
	}
	total, err := b.AdminUC.AddAdmin(ctx, tgID, id)
	if err != nil {
		return b.errorReply(err)
	}
	return &Reply{Text: b.t.T("admin.added", id, total)}
}

func (b *BotFacade) adminRemoveAdmin(ctx context.Context, tgID int64, args string) *Reply {
	id, ok := parseUserID(args)
	if !ok {
		return &Reply{Text: b.t.T("err.invalid_user_id")}
	}
	total, err := b.AdminUC.RemoveAdmin(ctx, tgID, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &Reply{Text: b.t.T("err.not_admin")}
		}
		return b.errorReply(err)
	}
	return &Reply{Text: b.t.T("admin.removed", id, total)}
}

func (b *BotFacade) adminListAdmins(ctx context.Context, tgID int64, _ string) *Reply {
	primary, others, err := b.AdminUC.ListAdmins(ctx, tgID)
	if err != nil {
		return b.errorReply(err)
	}
	var sb strings.Builder
	sb.WriteString(b.t.T("admin.list_primary", primary))
	if len(others) == 0 {
		sb.WriteString("\n")
		sb.WriteString(b.t.T("admin.list_none"))
	}
	for i, id := range others {
		sb.WriteString("\n")
		sb.WriteString(b.t.T("admin.list_line", i+1, id))
	}
	sb.WriteString("\n\n")
	sb.WriteString(b.t.T("admin.list_total", len(others)+1))
	return &Reply{Text: sb.String()}
}
