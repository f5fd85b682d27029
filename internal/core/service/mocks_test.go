package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"

	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

type MockSender struct {
	mock.Mock
}

func (m *MockSender) SendAsBot(ctx context.Context, channel, text string) error {
	args := m.Called(ctx, channel, text)
	return args.Error(0)
}

type MockUpdater struct {
	mock.Mock
}

func (m *MockUpdater) UpdateRedemptionStatus(ctx context.Context, broadcasterID, rewardID, redemptionID string,
	status domain.RedemptionStatus) error {
	args := m.Called(ctx, broadcasterID, rewardID, redemptionID, status)
	return args.Error(0)
}

type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, u *url.URL) domain.URLPreview {
	args := m.Called(ctx, u.String())
	return args.Get(0).(domain.URLPreview)
}

type mapCatalog struct {
	provider domain.EmoteProvider
	emotes   map[string]string
}

func (c *mapCatalog) Provider() domain.EmoteProvider {
	return c.provider
}

func (c *mapCatalog) Lookup(name string) (domain.Emote, bool) {
	id, ok := c.emotes[strings.ToLower(name)]
	if !ok {
		return domain.Emote{}, false
	}

	return domain.Emote{
		ID:       id,
		Provider: c.provider,
		URLs:     map[string]string{"1x": "https://cdn.test/" + id},
	}, true
}

type fakeUsers struct {
	users map[string]domain.User
	err   error
}

func (f *fakeUsers) FetchOrGetUser(_ context.Context, id string) (domain.User, error) {
	if f.err != nil {
		return domain.User{}, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return domain.User{}, errors.New("user not found")
	}
	return u, nil
}

type recordedEvent struct {
	name    string
	payload any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakePublisher) Publish(event string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{name: event, payload: payload})
}

func (f *fakePublisher) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.events))
	for _, e := range f.events {
		names = append(names, e.name)
	}
	return names
}

type fakeCommandStore struct {
	mu      sync.Mutex
	records map[string]domain.CommandRecord
	err     error
}

func newFakeCommandStore(records ...domain.CommandRecord) *fakeCommandStore {
	s := &fakeCommandStore{records: map[string]domain.CommandRecord{}}
	for _, r := range records {
		s.records[r.Name] = r
	}
	return s
}

func (s *fakeCommandStore) UpsertCommand(_ context.Context, record domain.CommandRecord) (domain.CommandRecord, error) {
	if s.err != nil {
		return domain.CommandRecord{}, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.Name] = record
	return record, nil
}

func (s *fakeCommandStore) DeleteCommand(_ context.Context, name string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[name]
	delete(s.records, name)
	return ok, nil
}

func (s *fakeCommandStore) ListEnabledCommands(_ context.Context) ([]domain.CommandRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.CommandRecord
	for _, r := range s.records {
		if r.Enabled {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeRewardStore struct {
	mu      sync.Mutex
	records map[string]domain.RewardRecord
	err     error
}

func newFakeRewardStore(records ...domain.RewardRecord) *fakeRewardStore {
	s := &fakeRewardStore{records: map[string]domain.RewardRecord{}}
	for _, r := range records {
		s.records[r.Key()] = r
	}
	return s
}

func (s *fakeRewardStore) UpsertReward(_ context.Context, record domain.RewardRecord) (domain.RewardRecord, error) {
	if s.err != nil {
		return domain.RewardRecord{}, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.Key()] = record
	return record, nil
}

func (s *fakeRewardStore) DeleteReward(_ context.Context, key domain.RewardKey) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	found := false
	for k, r := range s.records {
		if (key.HasID() && strings.EqualFold(r.ID, key.ID.String())) ||
			(!key.HasID() && strings.EqualFold(strings.TrimSpace(r.Title), key.TitleKey())) {
			delete(s.records, k)
			found = true
		}
	}
	return found, nil
}

func (s *fakeRewardStore) ListEnabledRewards(_ context.Context) ([]domain.RewardRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.RewardRecord
	for _, r := range s.records {
		if r.Enabled {
			out = append(out, r)
		}
	}
	return out, nil
}
