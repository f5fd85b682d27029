package twitch

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/core/domain"
	twitch "github.com/gempir/go-twitch-irc/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// IRCClient is the part of the go-twitch-irc client the bot uses.
type IRCClient interface {
	Say(channel, text string)
	Join(channels ...string)
	OnPrivateMessage(callback func(message twitch.PrivateMessage))
	Connect() error
	Disconnect() error
}

// Chat sends bot messages over IRC and turns incoming PRIVMSGs into chat messages.
type Chat struct {
	client  IRCClient
	limiter *rate.Limiter
	channel string
	prefix  string
	l       *zerolog.Logger
}

type ChatParams struct {
	Client  IRCClient
	Channel string
	Prefix  string
	// Rate and Burst pace outgoing messages. Twitch allows 20 messages per 30 seconds for regular bots.
	Rate  rate.Limit
	Burst int
}

func NewChat(p ChatParams) *Chat {
	logger := log.With().Str("component", "twitch-chat").Str("channel", p.Channel).Logger()

	limit, burst := p.Rate, p.Burst
	if limit <= 0 {
		limit = rate.Limit(20.0 / 30.0)
	}
	if burst <= 0 {
		burst = 1
	}

	return &Chat{
		client:  p.Client,
		limiter: rate.NewLimiter(limit, burst),
		channel: strings.ToLower(p.Channel),
		prefix:  p.Prefix,
		l:       &logger,
	}
}

func (c *Chat) SendAsBot(ctx context.Context, channel, text string) error {
	if channel == "" {
		channel = c.channel
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	c.l.Debug().Str("to", channel).Str("text", text).Msg("sending chat message")
	c.client.Say(channel, text)
	return nil
}

// Run joins the channel and feeds every chat message to handle until ctx is done.
func (c *Chat) Run(ctx context.Context, handle func(message *domain.ChatMessage)) error {
	c.client.OnPrivateMessage(func(msg twitch.PrivateMessage) {
		handle(ToChatMessage(msg, c.prefix))
	})

	go func() {
		<-ctx.Done()
		if err := c.client.Disconnect(); err != nil {
			c.l.Debug().Err(err).Msg("disconnect")
		}
	}()

	c.client.Join(c.channel)
	c.l.Info().Msg("connecting to twitch chat")

	err := c.client.Connect()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

var cheerPattern = regexp.MustCompile(`^([A-Za-z]+)(\d+)$`)

var cheerTiers = []int{10000, 5000, 1000, 100, 1}

// ToChatMessage maps an IRC message to the raw fragment form expected by the decorator: native emotes
// from the emote tag, mentions, cheermotes and a command on the first fragment.
func ToChatMessage(msg twitch.PrivateMessage, prefix string) *domain.ChatMessage {
	message := &domain.ChatMessage{
		ID:            msg.ID,
		BroadcasterID: msg.RoomID,
		Channel:       strings.ToLower(msg.Channel),
		Chatter: domain.Chatter{
			ID:          msg.User.ID,
			Login:       msg.User.Name,
			DisplayName: msg.User.DisplayName,
			Role:        roleFromBadges(msg.User.Badges),
		},
		Text:      msg.Message,
		ReplyToID: msg.Tags["reply-parent-msg-id"],
		CreatedAt: msg.Time,
	}

	message.Fragments = fragments(msg.Message, msg.Emotes, msg.Bits)

	if name, args, ok := domain.ParseCommand(msg.Message, prefix); ok &&
		len(message.Fragments) > 0 && message.Fragments[0].Type == domain.FragmentText {
		message.IsCommand = true
		message.Fragments[0].Command = name
		message.Fragments[0].Args = args
	}

	return message
}

func roleFromBadges(badges map[string]int) domain.Role {
	switch {
	case has(badges, "broadcaster"):
		return domain.RoleBroadcaster
	case has(badges, "moderator"):
		return domain.RoleModerator
	case has(badges, "vip"):
		return domain.RoleVIP
	case has(badges, "subscriber"), has(badges, "founder"):
		return domain.RoleSubscriber
	default:
		return domain.RoleEveryone
	}
}

func has(badges map[string]int, name string) bool {
	_, ok := badges[name]
	return ok
}

type span struct {
	start, end int
	emote      *twitch.Emote
}

// fragments cuts text at the emote positions. Positions are rune offsets with inclusive ends.
func fragments(text string, emotes []*twitch.Emote, bits int) []domain.Fragment {
	runes := []rune(text)

	var spans []span
	for _, e := range emotes {
		for _, p := range e.Positions {
			if p.Start < 0 || p.End >= len(runes) || p.Start > p.End {
				continue
			}
			spans = append(spans, span{start: p.Start, end: p.End, emote: e})
		}
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	var out []domain.Fragment
	cursor := 0
	for _, s := range spans {
		if s.start < cursor {
			continue
		}
		if s.start > cursor {
			out = append(out, special(string(runes[cursor:s.start]), bits)...)
		}
		out = append(out, domain.Fragment{
			Type:  domain.FragmentEmote,
			Text:  string(runes[s.start : s.end+1]),
			Emote: &domain.Emote{ID: s.emote.ID, Provider: domain.ProviderTwitch},
		})
		cursor = s.end + 1
	}
	if cursor < len(runes) {
		out = append(out, special(string(runes[cursor:]), bits)...)
	}

	return out
}

// special splits mentions and cheermotes out of a text run and keeps everything else verbatim.
func special(s string, bits int) []domain.Fragment {
	var out []domain.Fragment
	cursor, scan := 0, 0

	for _, word := range strings.Fields(s) {
		pos := strings.Index(s[scan:], word) + scan
		scan = pos + len(word)

		f, ok := specialFragment(word, bits)
		if !ok {
			continue
		}

		if pos > cursor {
			out = append(out, domain.Fragment{Type: domain.FragmentText, Text: s[cursor:pos]})
		}
		out = append(out, f)
		cursor = scan
	}

	if cursor < len(s) {
		out = append(out, domain.Fragment{Type: domain.FragmentText, Text: s[cursor:]})
	}

	return out
}

func specialFragment(word string, bits int) (domain.Fragment, bool) {
	if strings.HasPrefix(word, "@") && utf8.RuneCountInString(word) > 1 {
		login := strings.ToLower(strings.TrimRight(word[1:], ".,!?:;"))
		if login == "" {
			return domain.Fragment{}, false
		}
		return domain.Fragment{
			Type:    domain.FragmentMention,
			Text:    word,
			Mention: &domain.Mention{UserLogin: login, DisplayName: word[1:]},
		}, true
	}

	if bits > 0 {
		if m := cheerPattern.FindStringSubmatch(word); m != nil {
			amount, err := strconv.Atoi(m[2])
			if err == nil && amount > 0 {
				return domain.Fragment{
					Type:      domain.FragmentCheermote,
					Text:      word,
					Cheermote: &domain.Cheermote{Prefix: m[1], Bits: amount, Tier: cheerTier(amount)},
				}, true
			}
		}
	}

	return domain.Fragment{}, false
}

func cheerTier(amount int) int {
	for _, tier := range cheerTiers {
		if amount >= tier {
			return tier
		}
	}
	return 1
}
