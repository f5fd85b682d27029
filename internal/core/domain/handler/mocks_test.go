package handler

import (
	"context"
	"sync"

	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/core/domain"
)

type MockTextGenerator struct {
	response string
	err      error
	prompts  []domain.Prompt
}

func (m *MockTextGenerator) GenerateFromPrompt(_ context.Context, prompts []domain.Prompt) (domain.ModelResponse, error) {
	m.prompts = append([]domain.Prompt(nil), prompts...)
	return domain.ModelResponse{
		Response: m.response,
		Metadata: domain.ResponseMetadata{
			Model:            "unit-test",
			CompletionTokens: 24,
			TotalTokens:      42,
		},
	}, m.err
}

type MockTracker struct {
	limitReached bool
	used         map[string]int
}

func (m *MockTracker) AddTokens(channel string, tokens int) {
	if m.used == nil {
		m.used = map[string]int{}
	}
	m.used[channel] += tokens
}

func (m *MockTracker) CheckLimit(string) bool {
	return !m.limitReached
}

func (m *MockTracker) GetUsed(channel string) int {
	return m.used[channel]
}

// replies collects what a handler sends back to chat.
type replies struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (r *replies) reply(_ context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	return r.err
}

func (r *replies) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.texts) == 0 {
		return ""
	}
	return r.texts[len(r.texts)-1]
}

type staticLister []domain.ChatCommand

func (s staticLister) List() []domain.ChatCommand {
	return s
}

type fakePublisher struct {
	events  []string
	payload []any
}

func (f *fakePublisher) Publish(event string, payload any) {
	f.events = append(f.events, event)
	f.payload = append(f.payload, payload)
}

func commandContext(r *replies, role domain.Role, name string, args ...string) *domain.CommandContext {
	return &domain.CommandContext{
		Message: &domain.ChatMessage{
			ID:      "m1",
			Channel: "nomercy_tv",
			Chatter: domain.Chatter{ID: "42", Login: "viewer", DisplayName: "Viewer", Role: role},
		},
		Name:  name,
		Args:  args,
		Reply: r.reply,
	}
}

func rewardContext(r *replies, fulfilled *int) *domain.RewardContext {
	return &domain.RewardContext{
		Redemption: domain.Redemption{
			ID:          "r1",
			RewardID:    "b7f3c0a2-5d1e-4c6b-9a8f-1e2d3c4b5a69",
			RewardTitle: "Hydrate",
			UserInput:   "drink water",
		},
		Reward:      domain.TwitchReward{Title: "Hydrate"},
		User:        domain.User{ID: "42", Login: "viewer", DisplayName: "Viewer"},
		Broadcaster: domain.User{ID: "100", Login: "nomercy_tv"},
		Role:        domain.RoleEveryone,
		Reply:       r.reply,
		Refund:      func(context.Context) error { return nil },
		Fulfill: func(context.Context) error {
			*fulfilled++
			return nil
		},
	}
}
