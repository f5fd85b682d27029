package domain

import "errors"

var (
	ErrCommandNotFound  = errors.New("command not found")
	ErrRewardNotFound   = errors.New("reward not found")
	ErrInvalidCommand   = errors.New("invalid command")
	ErrInvalidRewardKey = errors.New("reward needs an id or a title")
	ErrHandlerPanic     = errors.New("handler panicked")
	ErrEmptyPrompt      = errors.New("empty prompt")
)
