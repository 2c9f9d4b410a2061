//go:build !integration

package application_test

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"telegram-course-bot/internal/application"
	"telegram-course-bot/internal/domain/model"
	portuc "telegram-course-bot/internal/domain/ports/usecase"
	"telegram-course-bot/internal/infra/memory"
	"telegram-course-bot/internal/usecase"
)

const (
	adminID = int64(1)
	userID  = int64(1001)
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

// keyTranslator echoes keys so tests can assert which message was chosen.
type keyTranslator struct{}

func (keyTranslator) T(key string, args ...interface{}) string { return key }

type mockGateway struct {
	mu    sync.Mutex
	calls int
	trx   *model.GatewayTransaction
	err   error
}

func (m *mockGateway) Name() string { return "mock" }

func (m *mockGateway) VerifyTransaction(_ context.Context, trxID string) (*model.GatewayTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if m.trx == nil {
		return &model.GatewayTransaction{TrxID: trxID, Status: model.TransactionStatusCompleted, Amount: "500"}, nil
	}
	return m.trx, nil
}

type mockNotifier struct {
	evidence []portuc.EvidenceRelay
	granted  []int64
}

func (m *mockNotifier) PostAuditRecord(context.Context, *model.AuditRecord) {}
func (m *mockNotifier) RelayEvidence(_ context.Context, ev portuc.EvidenceRelay) {
	m.evidence = append(m.evidence, ev)
}
func (m *mockNotifier) NotifyGranted(_ context.Context, id int64, _ *model.Course) {
	m.granted = append(m.granted, id)
}

type fixture struct {
	facade   *application.BotFacade
	gateway  *mockGateway
	notifier *mockNotifier
	catalog  *memory.CatalogRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	logger := newTestLogger()
	catalog := memory.NewCatalogRepo(model.PaymentDestinations{BkashNumber: "01902912653", NagadNumber: "01712345678"})
	if err := catalog.Create(ctx, &model.Course{ID: "X", Name: "ICT", Price: 500, GroupLink: "https://t.me/+X"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	sessions := memory.NewSessionRepo()
	ledger := memory.NewLedgerRepo()
	admins := memory.NewAdminRepo(adminID)
	f := &fixture{gateway: &mockGateway{}, notifier: &mockNotifier{}, catalog: catalog}

	purchaseUC := usecase.NewPurchaseUseCase(catalog, sessions, ledger, admins, f.gateway, f.notifier, time.Second, false, logger)
	f.facade = application.NewBotFacade(
		purchaseUC,
		usecase.NewCatalogUseCase(catalog, logger),
		usecase.NewAdminUseCase(admins, ledger, logger),
		usecase.NewStatsUseCase(sessions, catalog, admins, logger),
		keyTranslator{},
		application.Links{SupportURL: "https://t.me/support"},
		logger,
	)
	return f
}

// hasButton reports whether any button carries the given callback data or URL.
func hasButton(r *application.Reply, target string) bool {
	for _, row := range r.Rows {
		for _, b := range row {
			if b.Data == target || b.URL == target {
				return true
			}
		}
	}
	return false
}

func TestBotFacade_BkashPurchaseFlow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	view := f.facade.HandleCallback(ctx, userID, "course:X")
	if view.Text != "course.view" || !hasButton(view, "buy:X") {
		t.Fatalf("unexpected course view %+v", view)
	}

	buy := f.facade.HandleCallback(ctx, userID, "buy:X")
	if buy.Text != "buy.options" || !hasButton(buy, "method:bkash:X") || !hasButton(buy, "method:nagad:X") {
		t.Fatalf("unexpected buy options %+v", buy)
	}

	pay := f.facade.HandleCallback(ctx, userID, "method:bkash:X")
	if pay.Text != "pay.bkash" || !hasButton(pay, "trx:X") {
		t.Fatalf("unexpected bkash instructions %+v", pay)
	}

	prompt := f.facade.HandleCallback(ctx, userID, "trx:X")
	if prompt.Text != "trx.prompt" || !hasButton(prompt, "cancel:X") {
		t.Fatalf("unexpected prompt %+v", prompt)
	}

	var interim []*application.Reply
	done := f.facade.HandleText(ctx, userID, "ABC123", func(r *application.Reply) { interim = append(interim, r) })

	if len(interim) != 1 || interim[0].Text != "trx.verifying" {
		t.Errorf("expected one verifying message, got %+v", interim)
	}
	if done.Text != "trx.verified" || !hasButton(done, "https://t.me/+X") {
		t.Errorf("unexpected result %+v", done)
	}

	again := f.facade.HandleCallback(ctx, userID, "course:X")
	if !hasButton(again, "https://t.me/+X") || hasButton(again, "buy:X") {
		t.Errorf("expected join button only for a purchased course, got %+v", again)
	}
}

func TestBotFacade_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("should keep the cancel button after a duplicate reference", func(t *testing.T) {
		f := newFixture(t)
		_ = f.facade.Command(ctx, adminID, "addtrx", "USED1")
		f.facade.HandleCallback(ctx, userID, "course:X")
		f.facade.HandleCallback(ctx, userID, "trx:X")

		reply := f.facade.HandleText(ctx, userID, "USED1", nil)

		if reply.Text != "trx.duplicate" || !hasButton(reply, "cancel:X") {
			t.Errorf("unexpected reply %+v", reply)
		}
		if f.gateway.calls != 0 {
			t.Error("gateway must not be called")
		}
	})

	t.Run("should offer a retry after a failed verification", func(t *testing.T) {
		f := newFixture(t)
		f.gateway.trx = &model.GatewayTransaction{Status: "Pending", Amount: "500"}
		f.facade.HandleCallback(ctx, userID, "course:X")
		f.facade.HandleCallback(ctx, userID, "trx:X")

		reply := f.facade.HandleText(ctx, userID, "R1", nil)

		if reply.Text != "trx.failed" || !hasButton(reply, "trx:X") {
			t.Errorf("unexpected reply %+v", reply)
		}
	})

	t.Run("should not treat free text as a reference outside capture", func(t *testing.T) {
		f := newFixture(t)
		reply := f.facade.HandleText(ctx, userID, "hello", nil)
		if reply.Text != "text.unknown" {
			t.Errorf("unexpected reply %+v", reply)
		}
		if f.gateway.calls != 0 {
			t.Error("gateway must not be called")
		}
	})

	t.Run("should reject buy without selecting the course", func(t *testing.T) {
		f := newFixture(t)
		if reply := f.facade.HandleCallback(ctx, userID, "buy:X"); reply.Text != "err.no_pending" {
			t.Errorf("unexpected reply %+v", reply)
		}
	})

	t.Run("should answer unknown input politely", func(t *testing.T) {
		f := newFixture(t)
		if reply := f.facade.HandleCallback(ctx, userID, "garbage:1:2:3"); reply.Text != "err.unknown_action" {
			t.Errorf("unexpected reply %+v", reply)
		}
		if reply := f.facade.Command(ctx, userID, "/nope", ""); reply.Text != "cmd.unknown" {
			t.Errorf("unexpected reply %+v", reply)
		}
	})
}

func TestBotFacade_NagadApproval(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.facade.HandleCallback(ctx, userID, "course:X")
	f.facade.HandleCallback(ctx, userID, "buy:X")

	nagad := f.facade.HandleCallback(ctx, userID, "method:nagad:X")
	if nagad.Text != "pay.nagad" {
		t.Fatalf("unexpected nagad instructions %+v", nagad)
	}
	if reply := f.facade.HandleText(ctx, userID, "I paid", nil); reply.Text != "proof.need_photo" {
		t.Errorf("expected a photo request, got %+v", reply)
	}

	proof := f.facade.HandlePhoto(ctx, userID, "photo-1", "")
	if proof.Text != "proof.forwarded" || len(f.notifier.evidence) != 1 {
		t.Fatalf("unexpected proof reply %+v", proof)
	}

	if reply := f.facade.HandleCallback(ctx, userID, "approve:1001:X"); reply.Text != "err.forbidden" {
		t.Errorf("expected non-admin approval to be forbidden, got %+v", reply)
	}
	if reply := f.facade.HandleCallback(ctx, adminID, "approve:1001:X"); reply.Text != "approve.done" {
		t.Errorf("unexpected approval reply %+v", reply)
	}
	if reply := f.facade.Command(ctx, adminID, "approve", "1001 X"); reply.Text != "approve.already" {
		t.Errorf("expected repeated approval to be reported, got %+v", reply)
	}
	if f.gateway.calls != 0 || len(f.notifier.granted) != 1 {
		t.Errorf("unexpected side effects: gateway=%d granted=%v", f.gateway.calls, f.notifier.granted)
	}
}

func TestBotFacade_AdminCommands(t *testing.T) {
	ctx := context.Background()

	t.Run("should forbid admin commands for regular users", func(t *testing.T) {
		f := newFixture(t)
		for _, cmd := range []string{"addcourse", "stats", "addadmin", "checktrx"} {
			if reply := f.facade.Command(ctx, userID, cmd, "x"); reply.Text != "err.forbidden" {
				t.Errorf("%s: expected err.forbidden, got %q", cmd, reply.Text)
			}
		}
	})

	t.Run("should reserve admin management for the primary admin", func(t *testing.T) {
		f := newFixture(t)
		if reply := f.facade.Command(ctx, adminID, "addadmin", "42"); reply.Text != "admin.added" {
			t.Fatalf("unexpected reply %q", reply.Text)
		}
		if reply := f.facade.Command(ctx, 42, "stats", ""); reply.Text != "stats.overview" {
			t.Errorf("expected secondary admin to read stats, got %q", reply.Text)
		}
		if reply := f.facade.Command(ctx, 42, "addadmin", "43"); reply.Text != "err.forbidden" {
			t.Errorf("expected secondary admin to be refused, got %q", reply.Text)
		}
		if reply := f.facade.Command(ctx, adminID, "removeadmin", "1"); reply.Text != "err.primary_admin" {
			t.Errorf("unexpected reply %q", reply.Text)
		}
		if reply := f.facade.Command(ctx, adminID, "removeadmin", "99"); reply.Text != "err.not_admin" {
			t.Errorf("unexpected reply %q", reply.Text)
		}
		if reply := f.facade.Command(ctx, adminID, "addadmin", "abc"); reply.Text != "err.invalid_user_id" {
			t.Errorf("unexpected reply %q", reply.Text)
		}
	})

	t.Run("should manage the catalog", func(t *testing.T) {
		f := newFixture(t)
		if reply := f.facade.Command(ctx, adminID, "addcourse", "bad"); !strings.Contains(reply.Text, "usage.addcourse") {
			t.Errorf("expected usage, got %q", reply.Text)
		}
		if reply := f.facade.Command(ctx, adminID, "addcourse", "Y|Bangla|abc|https://t.me/+Y"); reply.Text != "err.invalid_price" {
			t.Errorf("unexpected reply %q", reply.Text)
		}
		if reply := f.facade.Command(ctx, adminID, "addcourse", "Y|Bangla|300|https://t.me/+Y"); reply.Text != "course.added" {
			t.Errorf("unexpected reply %q", reply.Text)
		}
		if reply := f.facade.Command(ctx, adminID, "addcourse", "Y|Again|300|https://t.me/+Y"); reply.Text != "err.already_exists" {
			t.Errorf("unexpected reply %q", reply.Text)
		}
		if reply := f.facade.Command(ctx, adminID, "editprice", "Y 350"); reply.Text != "course.price_updated" {
			t.Errorf("unexpected reply %q", reply.Text)
		}
		if reply := f.facade.Command(ctx, adminID, "editlink", "Y http://bad"); reply.Text != "err.invalid_format" {
			t.Errorf("unexpected reply %q", reply.Text)
		}
		if reply := f.facade.Command(ctx, adminID, "editname", "Y Bangla First Paper"); reply.Text != "course.name_updated" {
			t.Errorf("unexpected reply %q", reply.Text)
		}
		c, _ := f.catalog.Get(ctx, "Y")
		if c.Name != "Bangla First Paper" || c.Price != 350 {
			t.Errorf("unexpected course %+v", c)
		}
		if reply := f.facade.Command(ctx, adminID, "updatepaymentlink", "Y https://pay.example/y"); reply.Text != "payment.link_updated" {
			t.Errorf("unexpected reply %q", reply.Text)
		}
		if reply := f.facade.Command(ctx, adminID, "listcourses", ""); !strings.Contains(reply.Text, "courses.admin_line") {
			t.Errorf("unexpected reply %q", reply.Text)
		}
		if reply := f.facade.Command(ctx, adminID, "deletecourse", "Y"); reply.Text != "course.deleted" {
			t.Errorf("unexpected reply %q", reply.Text)
		}
		if reply := f.facade.Command(ctx, adminID, "deletecourse", "Y"); reply.Text != "err.not_found" {
			t.Errorf("unexpected reply %q", reply.Text)
		}
	})

	t.Run("should validate payment numbers", func(t *testing.T) {
		f := newFixture(t)
		if reply := f.facade.Command(ctx, adminID, "updatepayment", "12345"); reply.Text != "err.invalid_phone" {
			t.Errorf("unexpected reply %q", reply.Text)
		}
		if reply := f.facade.Command(ctx, adminID, "updatenagad", "01812345678"); reply.Text != "payment.number_updated" {
			t.Errorf("unexpected reply %q", reply.Text)
		}
		dest, _ := f.catalog.Destinations(ctx)
		if dest.NagadNumber != "01812345678" {
			t.Errorf("unexpected destinations %+v", dest)
		}
	})

	t.Run("should override the ledger", func(t *testing.T) {
		f := newFixture(t)
		if reply := f.facade.Command(ctx, adminID, "checktrx", "T1"); reply.Text != "trx.status_unused" {
			t.Errorf("unexpected reply %q", reply.Text)
		}
		f.facade.Command(ctx, adminID, "addtrx", "T1")
		if reply := f.facade.Command(ctx, adminID, "checktrx", "T1"); reply.Text != "trx.status_used" {
			t.Errorf("unexpected reply %q", reply.Text)
		}
		f.facade.Command(ctx, adminID, "removetrx", "T1")
		if reply := f.facade.Command(ctx, adminID, "checktrx", "T1"); reply.Text != "trx.status_unused" {
			t.Errorf("unexpected reply %q", reply.Text)
		}
	})

	t.Run("should set a course image from a photo caption", func(t *testing.T) {
		f := newFixture(t)
		if reply := f.facade.HandlePhoto(ctx, userID, "p1", "/setimage X"); reply.Text != "err.forbidden" {
			t.Errorf("unexpected reply %q", reply.Text)
		}
		if reply := f.facade.HandlePhoto(ctx, adminID, "p1", "/setimage X"); reply.Text != "course.image_updated" {
			t.Errorf("unexpected reply %q", reply.Text)
		}
		view := f.facade.HandleCallback(ctx, userID, "course:X")
		if view.PhotoRef != "p1" {
			t.Errorf("expected course view to carry the image, got %+v", view)
		}
	})
}

func TestBotFacade_Menus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	start := f.facade.Command(ctx, userID, "/start", "")
	if start.Text != "welcome" || !hasButton(start, "courses") || !hasButton(start, "https://t.me/support") {
		t.Errorf("unexpected start reply %+v", start)
	}
	courses := f.facade.HandleCallback(ctx, userID, "courses")
	if !hasButton(courses, "course:X") {
		t.Errorf("expected a course button, got %+v", courses)
	}
	if reply := f.facade.Command(ctx, userID, "mycourses", ""); reply.Text != "mycourses.empty" {
		t.Errorf("unexpected reply %q", reply.Text)
	}
	if reply := f.facade.Command(ctx, userID, "help", ""); reply.Text != "help" {
		t.Errorf("unexpected help for a user %q", reply.Text)
	}
	if reply := f.facade.Command(ctx, adminID, "help", ""); !strings.Contains(reply.Text, "help.admin_hint") {
		t.Errorf("expected admin hint, got %q", reply.Text)
	}
}

func TestKnownCommand(t *testing.T) {
	for _, name := range []string{"start", "mycourses", "approve", "Stats", "listadmins"} {
		if !application.KnownCommand(name) {
			t.Errorf("expected %q to be routed", name)
		}
	}
	for _, name := range []string{"", "/start", "startx", "a8d7f6"} {
		if application.KnownCommand(name) {
			t.Errorf("expected %q to be unknown", name)
		}
	}
}
