package handler

import (
	"context"
	"time"

	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/core/domain"
	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/core/port"
	"github.com/rs/zerolog/log"
)

const EventChatMessage = "chat.message"

// Events is the glue between the platform transports and the engine. Each call handles one event.
type Events struct {
	decorator port.Decorator
	commands  port.CommandDispatcher
	rewards   port.RewardDispatcher
	messages  port.MessageStore
	publisher port.EventPublisher
	timeout   time.Duration
}

type EventsParams struct {
	Decorator port.Decorator
	Commands  port.CommandDispatcher
	Rewards   port.RewardDispatcher
	Messages  port.MessageStore
	Publisher port.EventPublisher
	// Timeout bounds the handling of a single event.
	Timeout time.Duration
}

func NewEvents(p EventsParams) *Events {
	return &Events{
		decorator: p.Decorator,
		commands:  p.Commands,
		rewards:   p.Rewards,
		messages:  p.Messages,
		publisher: p.Publisher,
		timeout:   p.Timeout,
	}
}

// HandleChat decorates a chat message, dispatches it when it is a command, and stores it.
// Command faults end here: they are logged and the message is still stored.
func (e *Events) HandleChat(ctx context.Context, message *domain.ChatMessage) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	l := log.With().
		Str("messageId", message.ID).
		Str("channel", message.Channel).
		Str("user", message.Chatter.Login).
		Logger()

	l.Debug().Str("message", message.Text).Msg("received chat message")

	e.decorator.Decorate(ctx, message)

	if message.IsCommand {
		if err := e.commands.Dispatch(ctx, message); err != nil {
			l.Err(err).Msg("failed to respond to command")
		}
	} else if e.publisher != nil {
		e.publisher.Publish(EventChatMessage, message)
	}

	if e.messages == nil {
		return
	}
	if err := e.messages.UpsertMessage(ctx, message); err != nil {
		l.Warn().Err(err).Msg("failed to store chat message")
	}
}

// HandleRedemption dispatches a channel-point redemption.
func (e *Events) HandleRedemption(ctx context.Context, redemption domain.Redemption) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	log.Debug().
		Str("redemptionId", redemption.ID).
		Str("reward", redemption.RewardTitle).
		Str("user", redemption.UserLogin).
		Msg("received redemption")

	e.rewards.Dispatch(ctx, redemption)
}

func (e *Events) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.timeout)
}
