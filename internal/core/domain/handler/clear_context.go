package handler

import (
	"context"
	"fmt"

	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/core/domain"
	"github.com/rs/zerolog/log"
)

// ClearContext drops the running ask conversation of the channel.
type ClearContext struct {
	ask *Ask
}

func NewClearContext(ask *Ask) *ClearContext {
	return &ClearContext{ask: ask}
}

func (c *ClearContext) Execute(ctx context.Context, cc *domain.CommandContext) error {
	l := log.With().
		Str("messageId", cc.Message.ID).
		Str("channel", cc.Message.Channel).
		Str("command", cc.Name).
		Logger()

	size, ok := c.ask.Forget(cc.Message.Channel)
	if !ok {
		l.Debug().Msg("no conversation in cache")
		return cc.Reply(ctx, "no conversation context")
	}

	l.Debug().Msg("cleared conversation cache")

	var plural string
	if size != 1 {
		plural = "s"
	}

	return cc.Reply(ctx, fmt.Sprintf("cleared conversation context with %d message%s", size, plural))
}
