package twitch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/core/domain"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	defaultHelixURL = "https://api.twitch.tv/helix"
	defaultTokenURL = "https://id.twitch.tv/oauth2/token"
	defaultUserTTL  = 10 * time.Minute
)

var ErrUserNotFound = errors.New("user not found")

// Helix is the small part of the Twitch API the bot needs: settling redemptions and resolving users.
type Helix struct {
	client   *http.Client
	baseURL  string
	clientID string
	userTTL  time.Duration
	users    sync.Map // id -> cachedUser
	now      func() time.Time
	l        *zerolog.Logger
}

type cachedUser struct {
	user    domain.User
	expires time.Time
}

type HelixParams struct {
	ClientID     string
	ClientSecret string
	AccessToken  string
	RefreshToken string
	BaseURL      string
	TokenURL     string
	UserTTL      time.Duration
	// HTTPClient replaces the refreshing OAuth client.
	HTTPClient *http.Client
}

func NewHelix(ctx context.Context, p HelixParams) *Helix {
	logger := log.With().Str("component", "helix").Logger()

	client := p.HTTPClient
	if client == nil {
		tokenURL := p.TokenURL
		if tokenURL == "" {
			tokenURL = defaultTokenURL
		}
		cfg := &oauth2.Config{
			ClientID:     p.ClientID,
			ClientSecret: p.ClientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: tokenURL, AuthStyle: oauth2.AuthStyleInParams},
		}
		source := cfg.TokenSource(ctx, &oauth2.Token{
			AccessToken:  strings.TrimPrefix(p.AccessToken, "oauth:"),
			RefreshToken: p.RefreshToken,
		})
		client = oauth2.NewClient(ctx, source)
	}

	baseURL := strings.TrimRight(p.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultHelixURL
	}

	ttl := p.UserTTL
	if ttl <= 0 {
		ttl = defaultUserTTL
	}

	return &Helix{
		client:   client,
		baseURL:  baseURL,
		clientID: p.ClientID,
		userTTL:  ttl,
		now:      time.Now,
		l:        &logger,
	}
}

func (h *Helix) UpdateRedemptionStatus(ctx context.Context, broadcasterID, rewardID, redemptionID string,
	status domain.RedemptionStatus) error {
	q := url.Values{}
	q.Set("broadcaster_id", broadcasterID)
	q.Set("reward_id", rewardID)
	q.Set("id", redemptionID)

	body, err := json.Marshal(map[string]string{"status": string(status)})
	if err != nil {
		return err
	}

	res, err := h.do(ctx, http.MethodPatch, "/channel_points/custom_rewards/redemptions?"+q.Encode(), body)
	if err != nil {
		return fmt.Errorf("failed to update redemption %s: %w", redemptionID, err)
	}
	defer res.Body.Close()

	h.l.Debug().Str("redemptionId", redemptionID).Str("status", string(status)).Msg("updated redemption")
	return nil
}

// FetchOrGetUser returns a cached user or loads it from the API.
func (h *Helix) FetchOrGetUser(ctx context.Context, id string) (domain.User, error) {
	if v, ok := h.users.Load(id); ok {
		cached := v.(cachedUser)
		if h.now().Before(cached.expires) {
			return cached.user, nil
		}
	}

	res, err := h.do(ctx, http.MethodGet, "/users?id="+url.QueryEscape(id), nil)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to fetch user %s: %w", id, err)
	}
	defer res.Body.Close()

	var payload struct {
		Data []struct {
			ID          string `json:"id"`
			Login       string `json:"login"`
			DisplayName string `json:"display_name"`
		} `json:"data"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return domain.User{}, fmt.Errorf("failed to decode user %s: %w", id, err)
	}
	if len(payload.Data) == 0 {
		return domain.User{}, fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}

	d := payload.Data[0]
	user := domain.User{ID: d.ID, Login: d.Login, DisplayName: d.DisplayName}
	h.users.Store(id, cachedUser{user: user, expires: h.now().Add(h.userTTL)})

	return user, nil
}

func (h *Helix) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error creating request %w", err)
	}
	req.Header.Set("Client-Id", h.clientID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error executing request %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		res.Body.Close()
		return nil, fmt.Errorf("unexpected status code from helix: %d", res.StatusCode)
	}

	return res, nil
}
