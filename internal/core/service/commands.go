package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/core/domain"
	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/core/port"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// CommandFactory builds an executable command from its persisted row.
type CommandFactory func(record domain.CommandRecord) domain.ChatCommand

// CommandRegistry maps lower-cased trigger names to commands. Reads and writes are safe while dispatching.
type CommandRegistry struct {
	commands sync.Map // string -> *domain.ChatCommand

	store   port.CommandStore
	sender  port.ChatSender
	factory CommandFactory
	prefix  string
	metrics *Metrics
	l       *zerolog.Logger
}

type CommandRegistryParams struct {
	Store   port.CommandStore
	Sender  port.ChatSender
	Factory CommandFactory
	// Prefix is used to recover the command name when the first fragment does not carry one.
	Prefix  string
	Metrics *Metrics
}

func NewCommandRegistry(p CommandRegistryParams) *CommandRegistry {
	logger := log.With().Str("component", "commands").Logger()

	return &CommandRegistry{
		store:   p.Store,
		sender:  p.Sender,
		factory: p.Factory,
		prefix:  p.Prefix,
		metrics: p.Metrics,
		l:       &logger,
	}
}

// Load registers every enabled command from the store.
func (r *CommandRegistry) Load(ctx context.Context) error {
	records, err := r.store.ListEnabledCommands(ctx)
	if err != nil {
		return fmt.Errorf("failed to load commands: %w", err)
	}

	for _, record := range records {
		r.Register(r.factory(record))
	}

	r.l.Info().Int("count", len(records)).Msg("loaded commands")
	return nil
}

// Register inserts or replaces a command in memory only.
func (r *CommandRegistry) Register(cmd domain.ChatCommand) {
	key := cmd.Key()
	if key == "" {
		r.l.Warn().Msg("refusing to register command without a name")
		return
	}

	r.l.Info().Str("command", key).Msg("adding command to registry")
	r.commands.Store(key, &cmd)
}

// Update replaces an already registered command and reports whether it was present.
func (r *CommandRegistry) Update(cmd domain.ChatCommand) bool {
	key := cmd.Key()

	for {
		current, ok := r.commands.Load(key)
		if !ok {
			return false
		}
		if r.commands.CompareAndSwap(key, current, &cmd) {
			return true
		}
	}
}

// Remove drops a command from memory and reports whether it was present.
func (r *CommandRegistry) Remove(name string) bool {
	_, loaded := r.commands.LoadAndDelete(strings.ToLower(strings.TrimSpace(name)))
	return loaded
}

func (r *CommandRegistry) Get(name string) (domain.ChatCommand, bool) {
	v, ok := r.commands.Load(strings.ToLower(strings.TrimSpace(name)))
	if !ok {
		return domain.ChatCommand{}, false
	}

	return *v.(*domain.ChatCommand), true
}

// List returns the registered commands ordered by name.
func (r *CommandRegistry) List() []domain.ChatCommand {
	var list []domain.ChatCommand
	r.commands.Range(func(_, v any) bool {
		list = append(list, *v.(*domain.ChatCommand))
		return true
	})

	sort.Slice(list, func(i, j int) bool { return list[i].Key() < list[j].Key() })
	return list
}

// AddOrUpdatePersisted upserts the command row, then mirrors it in memory. Disabled commands are unregistered.
func (r *CommandRegistry) AddOrUpdatePersisted(ctx context.Context, name, response string, permission domain.Role,
	commandType domain.CommandType, enabled bool, description string) (domain.ChatCommand, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return domain.ChatCommand{}, domain.ErrInvalidCommand
	}

	record, err := r.store.UpsertCommand(ctx, domain.CommandRecord{
		Name:        name,
		Response:    response,
		Permission:  permission,
		Type:        commandType,
		Enabled:     enabled,
		Description: description,
	})
	if err != nil {
		return domain.ChatCommand{}, fmt.Errorf("failed to persist command %s: %w", name, err)
	}

	cmd := r.factory(record)
	if !record.Enabled {
		r.Remove(record.Name)
		return cmd, nil
	}

	r.Register(cmd)
	return cmd, nil
}

// RemovePersisted deletes the command row, then the in-memory entry. It returns false if no row existed.
func (r *CommandRegistry) RemovePersisted(ctx context.Context, name string) (bool, error) {
	name = strings.ToLower(strings.TrimSpace(name))

	existed, err := r.store.DeleteCommand(ctx, name)
	if err != nil {
		return false, fmt.Errorf("failed to delete command %s: %w", name, err)
	}
	if !existed {
		return false, nil
	}

	r.Remove(name)
	return true, nil
}

// Dispatch runs the command named by the first fragment of message. Unknown commands and insufficient
// permissions are silent. Handler errors and panics are returned to the caller.
func (r *CommandRegistry) Dispatch(ctx context.Context, message *domain.ChatMessage) (err error) {
	if message == nil || !message.IsCommand || len(message.Fragments) == 0 {
		return nil
	}

	name, args := r.commandOf(message)

	l := r.l.With().
		Str("messageId", message.ID).
		Str("channel", message.Channel).
		Str("command", name).
		Logger()

	cmd, ok := r.Get(name)
	if !ok || cmd.Handler == nil {
		l.Debug().Msg("no handler for command")
		r.metrics.commandDispatched("not_found")
		return nil
	}

	if !domain.HasMinLevel(message.Chatter.Role, cmd.Permission) {
		l.Debug().Str("role", string(message.Chatter.Role)).
			Str("required", string(cmd.Permission)).
			Msg("permission denied")
		r.metrics.commandDispatched("denied")
		return nil
	}

	cc := &domain.CommandContext{
		Message: message,
		Command: cmd,
		Name:    name,
		Args:    args,
		Reply: func(ctx context.Context, text string) error {
			return r.sender.SendAsBot(ctx, message.Channel, text)
		},
	}

	defer func() {
		if p := recover(); p != nil {
			r.metrics.commandDispatched("panic")
			err = fmt.Errorf("%w: command %s: %v", domain.ErrHandlerPanic, name, p)
		}
	}()

	l.Debug().Msg("handling command")

	if err := cmd.Handler.Execute(ctx, cc); err != nil {
		r.metrics.commandDispatched("failed")
		return fmt.Errorf("command %s: %w", name, err)
	}

	r.metrics.commandDispatched("ok")
	return nil
}

func (r *CommandRegistry) commandOf(message *domain.ChatMessage) (string, []string) {
	first := message.Fragments[0]
	if first.Command != "" {
		return strings.ToLower(first.Command), first.Args
	}

	name, args, _ := domain.ParseCommand(message.Text, r.prefix)
	return name, args
}
