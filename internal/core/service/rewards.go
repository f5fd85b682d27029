package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/core/domain"
	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/core/port"
	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	EventRewardRedeemed = "reward.redeemed"
	EventRewardRefunded = "reward.refunded"
)

const (
	deniedNotice = "@%s, you are not allowed to redeem %s. Your points have been refunded."
	failedNotice = "@%s, something went wrong with %s. Your points have been refunded."
)

// RewardFactory builds an executable reward from its persisted row.
type RewardFactory func(record domain.RewardRecord) (domain.TwitchReward, error)

// RewardRegistry indexes rewards by platform id and by lower-cased title. Readers never block;
// writers are serialized so both indexes always change together.
type RewardRegistry struct {
	mu      sync.Mutex
	byID    sync.Map // uuid.UUID -> *domain.TwitchReward
	byTitle sync.Map // string -> *domain.TwitchReward

	store     port.RewardStore
	updater   port.RedemptionUpdater
	users     port.UserDirectory
	roles     port.RoleResolver
	sender    port.ChatSender
	publisher port.EventPublisher
	factory   RewardFactory
	metrics   *Metrics
	l         *zerolog.Logger
}

type RewardRegistryParams struct {
	Store     port.RewardStore
	Updater   port.RedemptionUpdater
	Users     port.UserDirectory
	Roles     port.RoleResolver
	Sender    port.ChatSender
	Publisher port.EventPublisher
	Factory   RewardFactory
	Metrics   *Metrics
}

func NewRewardRegistry(p RewardRegistryParams) *RewardRegistry {
	logger := log.With().Str("component", "rewards").Logger()

	roles := p.Roles
	if roles == nil {
		roles = &ChannelRoleResolver{}
	}

	return &RewardRegistry{
		store:     p.Store,
		updater:   p.Updater,
		users:     p.Users,
		roles:     roles,
		sender:    p.Sender,
		publisher: p.Publisher,
		factory:   p.Factory,
		metrics:   p.Metrics,
		l:         &logger,
	}
}

// Load registers every enabled reward from the store. Rows that cannot be built are skipped.
func (r *RewardRegistry) Load(ctx context.Context) error {
	records, err := r.store.ListEnabledRewards(ctx)
	if err != nil {
		return fmt.Errorf("failed to load rewards: %w", err)
	}

	loaded := 0
	for _, record := range records {
		reward, err := r.factory(record)
		if err != nil {
			r.l.Warn().Err(err).Str("reward", record.Title).Msg("skipping reward")
			continue
		}
		r.Register(reward)
		loaded++
	}

	r.l.Info().Int("count", loaded).Msg("loaded rewards")
	return nil
}

// Register inserts or replaces a reward in both indexes. Entries left behind by a previous
// version of the reward under another id or title are dropped.
func (r *RewardRegistry) Register(reward domain.TwitchReward) {
	title := reward.TitleKey()
	if reward.ID == uuid.Nil && title == "" {
		r.l.Warn().Msg("refusing to register reward without id or title")
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p := &reward
	var stale []*domain.TwitchReward

	if reward.ID != uuid.Nil {
		if old, loaded := r.byID.Swap(reward.ID, p); loaded {
			stale = append(stale, old.(*domain.TwitchReward))
		}
	}
	if title != "" {
		if old, loaded := r.byTitle.Swap(title, p); loaded {
			stale = append(stale, old.(*domain.TwitchReward))
		}
	}

	for _, old := range stale {
		r.dropLocked(old)
	}

	r.l.Info().Str("reward", reward.Title).Str("id", idString(reward.ID)).Msg("adding reward to registry")
}

// Update replaces a registered reward and reports whether one was found under its id or title.
func (r *RewardRegistry) Update(reward domain.TwitchReward) bool {
	if _, ok := r.lookup(domain.RewardKey{ID: reward.ID, Title: reward.Title}); !ok {
		return false
	}

	r.Register(reward)
	return true
}

// Remove drops the reward found under key from both indexes.
func (r *RewardRegistry) Remove(key domain.RewardKey) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.lookup(key)
	if !ok {
		return false
	}

	r.dropLocked(p)
	return true
}

// dropLocked deletes index entries that still point at p.
func (r *RewardRegistry) dropLocked(p *domain.TwitchReward) {
	if p.ID != uuid.Nil {
		r.byID.CompareAndDelete(p.ID, p)
	}
	if title := p.TitleKey(); title != "" {
		r.byTitle.CompareAndDelete(title, p)
	}
}

// Get finds a reward by id first, then by title.
func (r *RewardRegistry) Get(key domain.RewardKey) (domain.TwitchReward, bool) {
	p, ok := r.lookup(key)
	if !ok {
		return domain.TwitchReward{}, false
	}

	return *p, true
}

func (r *RewardRegistry) lookup(key domain.RewardKey) (*domain.TwitchReward, bool) {
	if key.HasID() {
		if v, ok := r.byID.Load(key.ID); ok {
			return v.(*domain.TwitchReward), true
		}
	}

	if title := key.TitleKey(); title != "" {
		if v, ok := r.byTitle.Load(title); ok {
			return v.(*domain.TwitchReward), true
		}
	}

	return nil, false
}

// List returns each registered reward once, ordered by title.
func (r *RewardRegistry) List() []domain.TwitchReward {
	seen := map[*domain.TwitchReward]struct{}{}
	var list []domain.TwitchReward

	collect := func(_, v any) bool {
		p := v.(*domain.TwitchReward)
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			list = append(list, *p)
		}
		return true
	}
	r.byID.Range(collect)
	r.byTitle.Range(collect)

	sort.Slice(list, func(i, j int) bool { return list[i].TitleKey() < list[j].TitleKey() })
	return list
}

// AddOrUpdatePersisted upserts the reward row (keyed by id, or by title when id is empty), then mirrors
// it in memory. Disabled rewards are unregistered.
func (r *RewardRegistry) AddOrUpdatePersisted(ctx context.Context, id, title, response string,
	permission domain.Role, enabled bool, description string) (domain.TwitchReward, error) {
	id = strings.TrimSpace(id)
	title = strings.TrimSpace(title)

	if id != "" {
		parsed, err := uuid.FromString(id)
		if err != nil {
			return domain.TwitchReward{}, fmt.Errorf("%w: %s", domain.ErrInvalidRewardKey, err)
		}
		id = parsed.String()
	}
	if id == "" && title == "" {
		return domain.TwitchReward{}, domain.ErrInvalidRewardKey
	}

	record, err := r.store.UpsertReward(ctx, domain.RewardRecord{
		ID:          id,
		Title:       title,
		Response:    response,
		Permission:  permission,
		Enabled:     enabled,
		Description: description,
	})
	if err != nil {
		return domain.TwitchReward{}, fmt.Errorf("failed to persist reward %s: %w", title, err)
	}

	reward, err := r.factory(record)
	if err != nil {
		return domain.TwitchReward{}, err
	}

	if !record.Enabled {
		r.Remove(domain.RewardKey{ID: reward.ID, Title: reward.Title})
		return reward, nil
	}

	r.Register(reward)
	return reward, nil
}

// RemovePersisted deletes the reward row, then the in-memory entry. It returns false if no row existed.
func (r *RewardRegistry) RemovePersisted(ctx context.Context, key domain.RewardKey) (bool, error) {
	if key.IsZero() {
		return false, domain.ErrInvalidRewardKey
	}

	existed, err := r.store.DeleteReward(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to delete reward %s: %w", key, err)
	}
	if !existed {
		return false, nil
	}

	r.Remove(key)
	return true, nil
}

// Dispatch runs the reward matching the redemption. Denied redemptions are refunded with a chat notice.
// A failing or panicking handler is refunded, announced and logged; nothing escapes to the caller.
// Successful handlers settle the redemption themselves through Fulfill or Refund.
func (r *RewardRegistry) Dispatch(ctx context.Context, redemption domain.Redemption) {
	l := r.l.With().
		Str("redemptionId", redemption.ID).
		Str("rewardId", redemption.RewardID).
		Str("reward", redemption.RewardTitle).
		Logger()

	reward, ok := r.Get(domain.RedemptionKey(redemption))
	if !ok || reward.Handler == nil {
		l.Debug().Msg("no handler for reward")
		r.metrics.rewardDispatched("not_found")
		return
	}

	user := r.lookupUser(ctx, redemption.UserID, domain.User{
		ID:          redemption.UserID,
		Login:       redemption.UserLogin,
		DisplayName: redemption.UserDisplayName,
	})
	broadcaster := r.lookupUser(ctx, redemption.BroadcasterID, domain.User{
		ID:    redemption.BroadcasterID,
		Login: redemption.BroadcasterLogin,
	})

	channel := redemption.BroadcasterLogin
	if channel == "" {
		channel = broadcaster.Login
	}

	s := &settlement{registry: r, redemption: redemption, channel: channel}
	role := r.roles.ResolveRole(ctx, user, broadcaster)

	if !domain.HasMinLevel(role, reward.Permission) {
		l.Info().Str("user", user.Login).Str("role", string(role)).
			Str("required", string(reward.Permission)).
			Msg("permission denied, refunding")
		r.metrics.rewardDispatched("denied")
		r.compensate(ctx, s, "denied", fmt.Sprintf(deniedNotice, displayName(user), reward.Title))
		return
	}

	rc := &domain.RewardContext{
		Redemption:  redemption,
		Reward:      reward,
		User:        user,
		Broadcaster: broadcaster,
		Role:        role,
		Reply: func(ctx context.Context, text string) error {
			return r.sender.SendAsBot(ctx, channel, text)
		},
		Refund: func(ctx context.Context) error {
			return s.refund(ctx, "handler")
		},
		Fulfill: func(ctx context.Context) error {
			return s.fulfill(ctx)
		},
	}

	if err := r.execute(ctx, reward, rc); err != nil {
		l.Error().Err(err).Str("user", user.Login).Msg("reward handler failed, refunding")
		r.metrics.rewardDispatched("failed")
		r.compensate(ctx, s, "failed", fmt.Sprintf(failedNotice, displayName(user), reward.Title))
		return
	}

	r.metrics.rewardDispatched("ok")
	r.publish(EventRewardRedeemed, redemption)
}

func (r *RewardRegistry) execute(ctx context.Context, reward domain.TwitchReward, rc *domain.RewardContext) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: reward %s: %v", domain.ErrHandlerPanic, reward.Title, p)
		}
	}()

	return reward.Handler.Execute(ctx, rc)
}

// compensate refunds the redemption and tells the user, unless it was already settled.
func (r *RewardRegistry) compensate(ctx context.Context, s *settlement, reason, notice string) {
	if s.settled() {
		r.l.Warn().Str("redemptionId", s.redemption.ID).Msg("redemption already settled, not refunding")
		return
	}

	if err := s.refund(ctx, reason); err != nil {
		r.l.Error().Err(err).Str("redemptionId", s.redemption.ID).Msg("failed to refund redemption")
	}

	if err := r.sender.SendAsBot(ctx, s.channel, notice); err != nil {
		r.l.Warn().Err(err).Str("channel", s.channel).Msg("failed to send refund notice")
	}
}

func (r *RewardRegistry) lookupUser(ctx context.Context, id string, fallback domain.User) domain.User {
	if r.users == nil || id == "" {
		return fallback
	}

	user, err := r.users.FetchOrGetUser(ctx, id)
	if err != nil {
		r.l.Warn().Err(err).Str("userId", id).Msg("failed to fetch user, using event data")
		return fallback
	}

	return user
}

func (r *RewardRegistry) publish(event string, payload any) {
	if r.publisher == nil {
		return
	}
	r.publisher.Publish(event, payload)
}

// settlement lets a redemption be fulfilled or refunded at most once per dispatch.
type settlement struct {
	registry   *RewardRegistry
	redemption domain.Redemption
	channel    string
	done       atomic.Bool
}

func (s *settlement) settled() bool {
	return s.done.Load()
}

func (s *settlement) update(ctx context.Context, status domain.RedemptionStatus) (bool, error) {
	if !s.done.CompareAndSwap(false, true) {
		return false, nil
	}

	err := s.registry.updater.UpdateRedemptionStatus(ctx,
		s.redemption.BroadcasterID, s.redemption.RewardID, s.redemption.ID, status)
	if err != nil {
		s.done.Store(false)
		return false, fmt.Errorf("failed to mark redemption %s: %w", status, err)
	}

	return true, nil
}

func (s *settlement) refund(ctx context.Context, reason string) error {
	changed, err := s.update(ctx, domain.RedemptionCanceled)
	if changed {
		s.registry.metrics.refunded(reason)
		s.registry.publish(EventRewardRefunded, s.redemption)
	}

	return err
}

func (s *settlement) fulfill(ctx context.Context) error {
	_, err := s.update(ctx, domain.RedemptionFulfilled)
	return err
}

func displayName(u domain.User) string {
	if u.DisplayName != "" {
		return u.DisplayName
	}

	return u.Login
}

func idString(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}

	return id.String()
}
