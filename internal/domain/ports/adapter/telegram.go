package adapter

import "context"

type InlineButton struct {
	Text string
	Data string
	URL  string
}

// SendMessageParams describes one outbound message. When PhotoRef is set the
// message is sent as a photo with Text as caption.
type SendMessageParams struct {
	ChatID    int64
	Text      string
	Rows      [][]InlineButton
	PhotoRef  string
	ParseMode string
}

type TelegramBotAdapter interface {
	SendMessage(ctx context.Context, params SendMessageParams) error
}
