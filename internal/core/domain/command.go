package domain

import (
	"context"
	"strings"
	"time"
)

type CommandType string

const (
	CommandTypeCommand CommandType = "command"
	CommandTypeEvent   CommandType = "event"
	CommandTypeMessage CommandType = "message"
)

// ParseCommandType maps unknown values to CommandTypeCommand.
func ParseCommandType(s string) CommandType {
	switch CommandType(strings.ToLower(strings.TrimSpace(s))) {
	case CommandTypeEvent:
		return CommandTypeEvent
	case CommandTypeMessage:
		return CommandTypeMessage
	default:
		return CommandTypeCommand
	}
}

type CommandHandler interface {
	// Execute runs the command for a single invocation.
	Execute(ctx context.Context, cc *CommandContext) error
}

// CommandHandlerFunc adapts a plain function to CommandHandler.
type CommandHandlerFunc func(ctx context.Context, cc *CommandContext) error

func (f CommandHandlerFunc) Execute(ctx context.Context, cc *CommandContext) error {
	return f(ctx, cc)
}

type ChatCommand struct {
	Name        string
	Permission  Role
	Type        CommandType
	Description string
	Handler     CommandHandler
	Storage     map[string]any
}

// Key is the case-insensitive registry key of the command.
func (c ChatCommand) Key() string {
	return strings.ToLower(strings.TrimSpace(c.Name))
}

// CommandRecord is the persisted form of a chat command.
type CommandRecord struct {
	Name        string      `json:"name"`
	Response    string      `json:"response"`
	Permission  Role        `json:"permission"`
	Type        CommandType `json:"type"`
	Enabled     bool        `json:"enabled"`
	Description string      `json:"description"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// CommandContext is built per dispatch and never persisted.
type CommandContext struct {
	Message *ChatMessage
	Command ChatCommand
	Name    string
	Args    []string
	Reply   func(ctx context.Context, text string) error
}

// ParseCommand splits a raw chat line into a lower-cased command name and its arguments.
// ok is false when the line does not start with prefix or carries no name.
func ParseCommand(text, prefix string) (name string, args []string, ok bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || prefix == "" || !strings.HasPrefix(fields[0], prefix) {
		return "", nil, false
	}

	name = strings.ToLower(strings.TrimPrefix(fields[0], prefix))
	if name == "" {
		return "", nil, false
	}

	return name, fields[1:], true
}

// ParseCommandArgs returns everything after the first word.
func ParseCommandArgs(text string) string {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return ""
	}

	return strings.Join(fields[1:], " ")
}
