package generator

import (
	"context"
	"errors"
	"testing"

	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/core/domain"
	"github.com/revrost/go-openrouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient is a test double for the OpenRouterClient interface.
type mockClient struct {
	createChatCompletionFunc func(ctx context.Context,
		ccr openrouter.ChatCompletionRequest) (openrouter.ChatCompletionResponse, error)
}

func (m *mockClient) CreateChatCompletion(ctx context.Context,
	ccr openrouter.ChatCompletionRequest) (openrouter.ChatCompletionResponse, error) {
	return m.createChatCompletionFunc(ctx, ccr)
}

func okResponse(text string) openrouter.ChatCompletionResponse {
	return openrouter.ChatCompletionResponse{
		Choices: []openrouter.ChatCompletionChoice{{
			Message: openrouter.ChatCompletionMessage{
				Content: openrouter.Content{Text: text},
			},
		}},
		Model: "openai/gpt-4.1-mini",
		Usage: openrouter.Usage{
			CompletionTokens: 7,
			TotalTokens:      9,
		},
	}
}

func TestOpenRouter_GenerateFromPrompt(t *testing.T) {
	testCases := []struct {
		name         string
		systemPrompt string
		prompts      []domain.Prompt
		mockResp     openrouter.ChatCompletionResponse
		mockErr      error
		wantRoles    []string
		wantModel    string
		expectedResp domain.ModelResponse
		expectErr    bool
	}{
		{
			name:         "single user prompt",
			systemPrompt: "you are a twitch bot",
			prompts:      []domain.Prompt{{Prompt: "hi", Author: domain.UserAuthor}},
			mockResp:     okResponse("hello!"),
			wantRoles:    []string{openrouter.ChatMessageRoleSystem, openrouter.ChatMessageRoleUser},
			wantModel:    "default/model",
			expectedResp: domain.ModelResponse{
				Response: "hello!",
				Metadata: domain.ResponseMetadata{
					Model:            "openai/gpt-4.1-mini",
					CompletionTokens: 7,
					TotalTokens:      9,
				},
			},
		},
		{
			name: "conversation with explicit model and no system prompt",
			prompts: []domain.Prompt{
				{Prompt: "hi", Author: domain.UserAuthor},
				{Prompt: "hello!", Author: domain.SystemAuthor},
				{Prompt: "how are you", Author: domain.UserAuthor, Model: "openai/gpt-4.1"},
			},
			mockResp: okResponse("fine"),
			wantRoles: []string{
				openrouter.ChatMessageRoleUser,
				openrouter.ChatMessageRoleAssistant,
				openrouter.ChatMessageRoleUser,
			},
			wantModel: "openai/gpt-4.1",
			expectedResp: domain.ModelResponse{
				Response: "fine",
				Metadata: domain.ResponseMetadata{
					Model:            "openai/gpt-4.1-mini",
					CompletionTokens: 7,
					TotalTokens:      9,
				},
			},
		},
		{
			name:      "API error returned",
			prompts:   []domain.Prompt{{Prompt: "fail", Author: domain.UserAuthor}},
			mockErr:   errors.New("api failure"),
			expectErr: true,
		},
		{
			name:      "no choices",
			prompts:   []domain.Prompt{{Prompt: "empty", Author: domain.UserAuthor}},
			mockResp:  openrouter.ChatCompletionResponse{},
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var got openrouter.ChatCompletionRequest
			mock := &mockClient{
				createChatCompletionFunc: func(_ context.Context,
					ccr openrouter.ChatCompletionRequest) (openrouter.ChatCompletionResponse, error) {
					got = ccr
					return tc.mockResp, tc.mockErr
				},
			}
			gen := &OpenRouter{
				client:       mock,
				systemPrompt: tc.systemPrompt,
				model:        "default/model",
			}

			resp, err := gen.GenerateFromPrompt(t.Context(), tc.prompts)
			if tc.expectErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expectedResp, resp)
			assert.Equal(t, tc.wantModel, got.Model)

			roles := make([]string, 0, len(got.Messages))
			for _, m := range got.Messages {
				roles = append(roles, m.Role)
			}
			assert.Equal(t, tc.wantRoles, roles)
		})
	}
}

func TestOpenRouter_EmptyPrompts(t *testing.T) {
	gen := &OpenRouter{client: &mockClient{}}

	_, err := gen.GenerateFromPrompt(t.Context(), nil)
	assert.ErrorIs(t, err, domain.ErrEmptyPrompt)
}
