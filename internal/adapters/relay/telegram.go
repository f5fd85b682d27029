package relay

import (
	"context"
	"fmt"
	"time"

	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/adapters/bus"
	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/core/domain"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const sendTimeout = 10 * time.Second

type TelegramBot interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// Telegram forwards reward activity to a moderator chat.
type Telegram struct {
	bot    TelegramBot
	chatID int64
	l      *zerolog.Logger
}

func NewTelegram(b TelegramBot, chatID int64) *Telegram {
	logger := log.With().Str("component", "telegram-relay").Int64("chatId", chatID).Logger()

	return &Telegram{bot: b, chatID: chatID, l: &logger}
}

// Run relays events until ctx is done or the channel closes.
func (t *Telegram) Run(ctx context.Context, events <-chan bus.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			text, ok := Format(ev)
			if !ok {
				continue
			}
			if err := t.send(ctx, text); err != nil {
				t.l.Warn().Err(err).Str("event", ev.Name).Msg("failed to relay event")
			}
		}
	}
}

func (t *Telegram) send(ctx context.Context, text string) error {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	_, err := t.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: t.chatID,
		Text:   text,
	})
	return err
}

// Format renders the reward events a moderator cares about.
func Format(ev bus.Event) (string, bool) {
	redemption, ok := ev.Payload.(domain.Redemption)
	if !ok {
		return "", false
	}

	user := redemption.UserDisplayName
	if user == "" {
		user = redemption.UserLogin
	}

	switch ev.Name {
	case "reward.redeemed":
		text := fmt.Sprintf("%s redeemed %s (%d points)", user, redemption.RewardTitle, redemption.RewardCost)
		if redemption.UserInput != "" {
			text += ": " + redemption.UserInput
		}
		return text, true
	case "reward.refunded":
		return fmt.Sprintf("refunded %s for %s (%d points)", redemption.RewardTitle, user, redemption.RewardCost), true
	default:
		return "", false
	}
}
