package preview

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/core/domain"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/time/rate"
)

const userAgent = "NoMercyBot/1.0 (+link preview)"

// Fetcher reads the title, description and image of a web page. Failures never surface:
// the caller always gets at least the host.
type Fetcher struct {
	client   *http.Client
	limiter  *rate.Limiter
	maxBytes int64
	l        *zerolog.Logger
}

type FetcherParams struct {
	Timeout time.Duration
	// Rate and Burst bound outbound page fetches across all messages.
	Rate     rate.Limit
	Burst    int
	MaxBytes int64
	Client   *http.Client
}

func NewFetcher(p FetcherParams) *Fetcher {
	logger := log.With().Str("component", "preview").Logger()

	client := p.Client
	if client == nil {
		client = &http.Client{Timeout: p.Timeout}
	}

	limit, burst := p.Rate, p.Burst
	if limit <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}

	maxBytes := p.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 512 * 1024
	}

	return &Fetcher{
		client:   client,
		limiter:  rate.NewLimiter(limit, burst),
		maxBytes: maxBytes,
		l:        &logger,
	}
}

func (f *Fetcher) Fetch(ctx context.Context, u *url.URL) domain.URLPreview {
	preview := domain.URLPreview{Host: u.Host}

	l := f.l.With().Str("url", u.String()).Logger()

	if err := f.limiter.Wait(ctx); err != nil {
		l.Debug().Err(err).Msg("preview rate limit wait aborted")
		return preview
	}

	body, err := f.download(ctx, u)
	if err != nil {
		l.Debug().Err(err).Msg("failed to fetch preview")
		return preview
	}
	defer body.Close()

	meta := parseMeta(io.LimitReader(body, f.maxBytes))

	preview.Title = firstNonEmpty(meta["og:title"], meta["twitter:title"], meta["title"])
	preview.Description = firstNonEmpty(meta["og:description"], meta["twitter:description"], meta["description"])

	if image := firstNonEmpty(meta["og:image"], meta["twitter:image"]); image != "" {
		if ref, err := u.Parse(image); err == nil {
			preview.ImageURL = ref.String()
		}
	}

	l.Trace().Str("title", preview.Title).Msg("fetched preview")
	return preview
}

func (f *Fetcher) download(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html")

	res, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error executing request %w", err)
	}

	if res.StatusCode != http.StatusOK {
		res.Body.Close()
		return nil, fmt.Errorf("unexpected status code on preview: %d", res.StatusCode)
	}

	if ct := res.Header.Get("Content-Type"); ct != "" && !strings.Contains(strings.ToLower(ct), "html") {
		res.Body.Close()
		return nil, fmt.Errorf("not an html page: %s", ct)
	}

	return res.Body, nil
}

// parseMeta collects <title> and <meta> values from the document head.
func parseMeta(r io.Reader) map[string]string {
	meta := map[string]string{}
	z := html.NewTokenizer(r)
	inTitle := false

	for {
		switch z.Next() {
		case html.ErrorToken:
			return meta
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			switch tok.DataAtom {
			case atom.Title:
				inTitle = true
			case atom.Meta:
				key, content := metaPair(tok)
				if key != "" && content != "" {
					if _, ok := meta[key]; !ok {
						meta[key] = content
					}
				}
			case atom.Body:
				return meta
			}
		case html.TextToken:
			if inTitle {
				if _, ok := meta["title"]; !ok {
					meta["title"] = strings.TrimSpace(string(z.Text()))
				}
			}
		case html.EndTagToken:
			if tok := z.Token(); tok.DataAtom == atom.Title {
				inTitle = false
			} else if tok.DataAtom == atom.Head {
				return meta
			}
		}
	}
}

func metaPair(tok html.Token) (string, string) {
	var key, content string
	for _, attr := range tok.Attr {
		switch strings.ToLower(attr.Key) {
		case "property", "name":
			if key == "" {
				key = strings.ToLower(strings.TrimSpace(attr.Val))
			}
		case "content":
			content = strings.TrimSpace(attr.Val)
		}
	}
	return key, content
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
