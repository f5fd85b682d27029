package handler

import (
	"context"
	"strings"

	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/core/domain"
	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/core/port"
)

// List replies with every command the calling chatter is allowed to run.
type List struct {
	lister port.CommandLister
	prefix string
}

func NewList(lister port.CommandLister, prefix string) *List {
	return &List{lister: lister, prefix: prefix}
}

func (l *List) Execute(ctx context.Context, cc *domain.CommandContext) error {
	role := cc.Message.Chatter.Role

	var names []string
	for _, cmd := range l.lister.List() {
		if cmd.Type != domain.CommandTypeCommand || !domain.HasMinLevel(role, cmd.Permission) {
			continue
		}
		names = append(names, l.prefix+cmd.Key())
	}

	if len(names) == 0 {
		return cc.Reply(ctx, "No commands available.")
	}

	return cc.Reply(ctx, truncate("Commands: "+strings.Join(names, ", "), maxChatLength))
}
