package service

import (
	"context"
	"fmt"
	"net/url"
	"runtime"
	"strings"
	"time"

	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/core/domain"
	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/core/port"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const twitchEmoteURL = "https://static-cdn.jtvnw.net/emoticons/v2/%s/default/dark/%s"

var twitchEmoteSizes = map[string]string{"1x": "1.0", "2x": "2.0", "3x": "3.0"}

// Decorator turns the raw fragments of a chat message into word-level, provider-annotated fragments.
type Decorator struct {
	catalogs []port.EmoteCatalog
	previews port.URLMetadataFetcher
	workers  int
	metrics  *Metrics
	l        *zerolog.Logger
}

type DecoratorParams struct {
	// Catalogs are applied in order, one pass each.
	Catalogs []port.EmoteCatalog
	Previews port.URLMetadataFetcher
	// Workers bounds the lookups running at once within a catalog pass. Zero means half the CPUs.
	Workers int
	Metrics *Metrics
}

func NewDecorator(p DecoratorParams) *Decorator {
	logger := log.With().Str("component", "decorator").Logger()

	workers := p.Workers
	if workers <= 0 {
		workers = DefaultWorkers()
	}

	return &Decorator{
		catalogs: p.Catalogs,
		previews: p.Previews,
		workers:  workers,
		metrics:  p.Metrics,
		l:        &logger,
	}
}

// DefaultWorkers is half the available CPUs, at least one.
func DefaultWorkers() int {
	n := runtime.NumCPU() / 2
	if n < 1 {
		return 1
	}

	return n
}

func (d *Decorator) Decorate(ctx context.Context, message *domain.ChatMessage) {
	start := time.Now()

	fragments := explode(message.Fragments)
	normalizeNativeEmotes(fragments)

	for _, catalog := range d.catalogs {
		d.applyCatalog(fragments, catalog)
	}

	d.resolveURLs(ctx, fragments)

	message.Fragments = implode(fragments)

	d.metrics.decorated(time.Since(start))
	d.l.Trace().Str("messageId", message.ID).Int("fragments", len(message.Fragments)).Msg("decorated message")
}

func separator() domain.Fragment {
	return domain.Fragment{Type: domain.FragmentText, Text: " "}
}

// explode splits text fragments into single words and puts one separator between every pair of tokens.
func explode(in []domain.Fragment) []domain.Fragment {
	tokens := make([]domain.Fragment, 0, len(in))

	for _, f := range in {
		if f.Type != domain.FragmentText {
			tokens = append(tokens, f)
			continue
		}

		for i, word := range strings.Fields(f.Text) {
			token := domain.Fragment{Type: domain.FragmentText, Text: word}
			if i == 0 {
				token.Command = f.Command
				token.Args = f.Args
			}
			tokens = append(tokens, token)
		}
	}

	out := make([]domain.Fragment, 0, len(tokens)*2)
	for i, token := range tokens {
		if i > 0 {
			out = append(out, separator())
		}
		out = append(out, token)
	}

	return out
}

// normalizeNativeEmotes rewrites platform-tagged emotes into the canonical shape with synthesized image sizes.
func normalizeNativeEmotes(fragments []domain.Fragment) {
	for i, f := range fragments {
		if f.Type != domain.FragmentEmote || f.Emote == nil {
			continue
		}
		if f.Emote.Provider != "" && f.Emote.Provider != domain.ProviderTwitch {
			continue
		}

		urls := make(map[string]string, len(twitchEmoteSizes))
		for size, scale := range twitchEmoteSizes {
			urls[size] = fmt.Sprintf(twitchEmoteURL, f.Emote.ID, scale)
		}

		fragments[i].Emote = &domain.Emote{
			ID:         f.Emote.ID,
			Provider:   domain.ProviderTwitch,
			URLs:       urls,
			EmoteSetID: f.Emote.EmoteSetID,
			OwnerID:    f.Emote.OwnerID,
		}
	}
}

// applyCatalog runs one catalog over every word. Each lookup writes only its own slot.
func (d *Decorator) applyCatalog(fragments []domain.Fragment, catalog port.EmoteCatalog) {
	var g errgroup.Group
	g.SetLimit(d.workers)

	provider := string(catalog.Provider())

	for i := range fragments {
		if fragments[i].Type != domain.FragmentText || fragments[i].IsSeparator() {
			continue
		}

		g.Go(func() error {
			emote, ok := catalog.Lookup(fragments[i].Text)
			if !ok {
				return nil
			}

			f := fragments[i]
			f.Type = domain.FragmentEmote
			f.Emote = &emote
			fragments[i] = f

			d.metrics.emoteMatched(provider)
			return nil
		})
	}

	_ = g.Wait()
}

// resolveURLs runs sequentially so one message never opens more than one preview connection at a time.
func (d *Decorator) resolveURLs(ctx context.Context, fragments []domain.Fragment) {
	for i, f := range fragments {
		if f.Type != domain.FragmentText || f.IsSeparator() {
			continue
		}

		u, ok := parseWebURL(f.Text)
		if !ok {
			continue
		}

		var preview domain.URLPreview
		if d.previews != nil {
			preview = d.previews.Fetch(ctx, u)
		}
		if preview.Host == "" {
			preview.Host = u.Host
		}

		fragments[i].Type = domain.FragmentURL
		fragments[i].Preview = &preview
	}
}

func parseWebURL(s string) (*url.URL, bool) {
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return nil, false
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u, true
	default:
		return nil, false
	}
}

// implode merges runs of text fragments and drops a trailing separator.
func implode(in []domain.Fragment) []domain.Fragment {
	out := make([]domain.Fragment, 0, len(in))

	for _, f := range in {
		if f.Type == domain.FragmentText && len(out) > 0 && out[len(out)-1].Type == domain.FragmentText {
			out[len(out)-1].Text += f.Text
			continue
		}
		out = append(out, f)
	}

	if n := len(out); n > 0 && out[n-1].Type == domain.FragmentText {
		out[n-1].Text = strings.TrimSuffix(out[n-1].Text, " ")
		if out[n-1].Text == "" {
			out = out[:n-1]
		}
	}

	return out
}
