package handler

import (
	"context"
	"strings"

	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/core/domain"
)

// maxChatLength is the longest message Twitch chat accepts.
const maxChatLength = 500

// TextResponse answers a command with a fixed template.
// Supported placeholders: {user}, {args}, {input}, {channel}.
type TextResponse struct {
	template string
}

func NewTextResponse(template string) *TextResponse {
	return &TextResponse{template: template}
}

func (t *TextResponse) Execute(ctx context.Context, cc *domain.CommandContext) error {
	args := strings.Join(cc.Args, " ")

	text := strings.NewReplacer(
		"{user}", chatterName(cc.Message.Chatter),
		"{args}", args,
		"{input}", args,
		"{channel}", cc.Message.Channel,
	).Replace(t.template)

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	return cc.Reply(ctx, truncate(text, maxChatLength))
}

// RewardTextResponse answers a redemption with a template and fulfills it.
// Supported placeholders: {user}, {input}, {args}, {reward}, {channel}.
type RewardTextResponse struct {
	template string
}

func NewRewardTextResponse(template string) *RewardTextResponse {
	return &RewardTextResponse{template: template}
}

func (t *RewardTextResponse) Execute(ctx context.Context, rc *domain.RewardContext) error {
	text := strings.NewReplacer(
		"{user}", userName(rc.User),
		"{input}", rc.Redemption.UserInput,
		"{args}", rc.Redemption.UserInput,
		"{reward}", rc.Reward.Title,
		"{channel}", rc.Broadcaster.Login,
	).Replace(t.template)

	if text = strings.TrimSpace(text); text != "" {
		if err := rc.Reply(ctx, truncate(text, maxChatLength)); err != nil {
			return err
		}
	}

	return rc.Fulfill(ctx)
}

func chatterName(c domain.Chatter) string {
	if c.DisplayName != "" {
		return c.DisplayName
	}

	return c.Login
}

func userName(u domain.User) string {
	if u.DisplayName != "" {
		return u.DisplayName
	}

	return u.Login
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}

	return string(r[:n-3]) + "..."
}
