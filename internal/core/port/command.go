package port

import (
	"context"

	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/core/domain"
)

type CommandDispatcher interface {
	// Dispatch runs the registered handler for a chat message flagged as a command.
	Dispatch(ctx context.Context, message *domain.ChatMessage) error
}

type RewardDispatcher interface {
	// Dispatch runs the registered handler for a channel-point redemption. Handler faults never escape.
	Dispatch(ctx context.Context, redemption domain.Redemption)
}

type Decorator interface {
	// Decorate replaces the fragment sequence of message with its decorated form.
	Decorate(ctx context.Context, message *domain.ChatMessage)
}

type CommandLister interface {
	// List returns a snapshot of all registered commands.
	List() []domain.ChatCommand
}
