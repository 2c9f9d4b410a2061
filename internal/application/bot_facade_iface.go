package application

import (
	"context"

	"telegram-course-bot/internal/domain/ports/adapter"
)

// Reply is one outgoing chat message. The transport adds the chat id.
type Reply struct {
	Text     string
	Rows     [][]adapter.InlineButton
	PhotoRef string
}

// Facade is the surface the Telegram adapter drives. Every method returns a
// reply to send back; errors are already rendered into text.
type Facade interface {
	// Command handles "/name args". Unknown commands get a hint reply.
	Command(ctx context.Context, tgID int64, command, args string) *Reply
	HandleCallback(ctx context.Context, tgID int64, data string) *Reply
	// HandleText treats free text as a transaction id while one is expected.
	// progress, when set, receives an interim reply before verification starts.
	HandleText(ctx context.Context, tgID int64, text string, progress func(*Reply)) *Reply
	HandlePhoto(ctx context.Context, tgID int64, photoRef, caption string) *Reply
}

var _ Facade = (*BotFacade)(nil)
