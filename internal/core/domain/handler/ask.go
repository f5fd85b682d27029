package handler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/core/domain"
	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/core/port"
	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/core/service"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Ask answers chat questions with a text generator. Each channel keeps one running conversation
// that is forgotten after CacheDuration without activity.
type Ask struct {
	textGenerator port.TextGenerator
	cacheDuration time.Duration
	cache         *sync.Map

	track service.Tracker
	l     *zerolog.Logger
}

type Conversation struct {
	mu       sync.Mutex
	messages []domain.Prompt
	timer    *time.Timer
	channel  string
}

type AskParams struct {
	TextGenerator port.TextGenerator
	CacheDuration time.Duration
	Track         service.Tracker
}

func NewAsk(p AskParams) *Ask {
	logger := log.With().
		Str("handler", "ask").
		Logger()

	return &Ask{
		textGenerator: p.TextGenerator,
		cacheDuration: p.CacheDuration,
		cache:         &sync.Map{},
		track:         p.Track,
		l:             &logger,
	}
}

func (a *Ask) Execute(ctx context.Context, cc *domain.CommandContext) error {
	message := cc.Message
	l := a.l.With().
		Str("messageId", message.ID).
		Str("channel", message.Channel).
		Logger()

	prompt := strings.TrimSpace(strings.Join(cc.Args, " "))
	if prompt == "" {
		if err := cc.Reply(ctx, fmt.Sprintf("@%s, ask me something.", chatterName(message.Chatter))); err != nil {
			return err
		}
		return domain.ErrEmptyPrompt
	}

	if a.track != nil && !a.track.CheckLimit(message.Channel) {
		l.Debug().Msg("daily token limit reached")
		return nil
	}

	l.Debug().Str("prompt", prompt).Str("user", message.Chatter.Login).Msg("handling request")

	conversation := a.conversationFor(message.Channel)

	conversation.mu.Lock()
	defer conversation.mu.Unlock()

	conversation.messages = append(conversation.messages, domain.Prompt{
		Author: domain.UserAuthor,
		Prompt: chatterName(message.Chatter) + ": " + prompt,
	})

	response, err := a.textGenerator.GenerateFromPrompt(ctx, conversation.messages)
	if err != nil {
		err = fmt.Errorf("failed to generate response: %w", err)
		conversation.messages = append(conversation.messages, domain.Prompt{Author: domain.SystemAuthor, Prompt: err.Error()})
		return err
	}

	if a.track != nil {
		a.track.AddTokens(message.Channel, response.Metadata.TotalTokens)
	}

	conversation.messages = append(conversation.messages,
		domain.Prompt{Author: domain.SystemAuthor, Prompt: response.Response})

	reply := strings.Join(strings.Fields(response.Response), " ")
	return cc.Reply(ctx, truncate("@"+chatterName(message.Chatter)+" "+reply, maxChatLength))
}

// Forget drops the conversation of a channel and returns how many messages it held.
func (a *Ask) Forget(channel string) (int, bool) {
	v, ok := a.cache.LoadAndDelete(channel)
	if !ok {
		return 0, false
	}

	conversation := v.(*Conversation)
	conversation.timer.Stop()

	conversation.mu.Lock()
	defer conversation.mu.Unlock()

	return len(conversation.messages), true
}

// conversationFor returns the channel conversation and pushes its expiry back.
func (a *Ask) conversationFor(channel string) *Conversation {
	fresh := &Conversation{channel: channel}
	fresh.timer = time.AfterFunc(a.cacheDuration, func() {
		a.l.Debug().Str("channel", channel).Msg("clearing conversation")
		a.cache.CompareAndDelete(channel, fresh)
	})

	v, loaded := a.cache.LoadOrStore(channel, fresh)
	if !loaded {
		a.l.Trace().Str("channel", channel).Msg("new conversation")
		return fresh
	}

	fresh.timer.Stop()

	conversation := v.(*Conversation)
	conversation.timer.Reset(a.cacheDuration)
	return conversation
}
