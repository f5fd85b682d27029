package port

import (
	"context"

	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/core/domain"
)

type TextGenerator interface {
	GenerateFromPrompt(ctx context.Context, prompts []domain.Prompt) (domain.ModelResponse, error)
}
