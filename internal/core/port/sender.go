package port

import "context"

type ChatSender interface {
	// SendAsBot sends text to a channel as the bot account.
	SendAsBot(ctx context.Context, channel, text string) error
}
