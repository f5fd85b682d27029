package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/core/domain"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS commands (
  name TEXT PRIMARY KEY,
  response TEXT NOT NULL DEFAULT '',
  permission TEXT NOT NULL DEFAULT 'everyone',
  type TEXT NOT NULL DEFAULT 'command',
  enabled INTEGER NOT NULL DEFAULT 1,
  description TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS rewards (
  key TEXT PRIMARY KEY,
  id TEXT NOT NULL DEFAULT '',
  title TEXT NOT NULL DEFAULT '',
  response TEXT NOT NULL DEFAULT '',
  permission TEXT NOT NULL DEFAULT 'everyone',
  enabled INTEGER NOT NULL DEFAULT 1,
  description TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS chat_messages (
  id TEXT PRIMARY KEY,
  broadcaster_id TEXT NOT NULL DEFAULT '',
  channel TEXT NOT NULL DEFAULT '',
  user_id TEXT NOT NULL DEFAULT '',
  user_login TEXT NOT NULL DEFAULT '',
  display_name TEXT NOT NULL DEFAULT '',
  role TEXT NOT NULL DEFAULT 'everyone',
  text TEXT NOT NULL DEFAULT '',
  fragments_json TEXT NOT NULL DEFAULT '[]',
  is_command INTEGER NOT NULL DEFAULT 0,
  reply_to_id TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS chat_messages_channel_created ON chat_messages (channel, created_at);`

// SQLite persists commands, rewards and chat messages.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "apply schema")
	}
	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode=wal;`); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "set WAL")
	}
	ApplyPragmas(ctx, db)

	log.Debug().Str("path", path).Msg("opened sqlite store")
	return &SQLite{db: db, now: time.Now}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) Ping(ctx context.Context) error {
	return errors.Wrap(s.db.PingContext(ctx), "ping")
}

func (s *SQLite) String() string {
	return fmt.Sprintf("SQLite{%p}", s.db)
}

func (s *SQLite) UpsertCommand(ctx context.Context, record domain.CommandRecord) (domain.CommandRecord, error) {
	const q = `INSERT INTO commands (name, response, permission, type, enabled, description, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET
  response = excluded.response,
  permission = excluded.permission,
  type = excluded.type,
  enabled = excluded.enabled,
  description = excluded.description,
  updated_at = excluded.updated_at
RETURNING created_at, updated_at;`

	record.Name = strings.ToLower(strings.TrimSpace(record.Name))
	record.Permission = nzRole(record.Permission)
	if record.Type == "" {
		record.Type = domain.CommandTypeCommand
	}

	ts := formatTime(s.now())

	var created, updated string
	err := s.db.QueryRowContext(ctx, q, record.Name, record.Response, string(record.Permission),
		string(record.Type), record.Enabled, record.Description, ts, ts).Scan(&created, &updated)
	if err != nil {
		return domain.CommandRecord{}, errors.Wrap(err, "upsert command")
	}

	record.CreatedAt = parseTime(created)
	record.UpdatedAt = parseTime(updated)
	return record, nil
}

func (s *SQLite) DeleteCommand(ctx context.Context, name string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM commands WHERE name = ?;`, strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return false, errors.Wrap(err, "delete command")
	}

	return affected(res)
}

func (s *SQLite) ListEnabledCommands(ctx context.Context) ([]domain.CommandRecord, error) {
	const q = `SELECT name, response, permission, type, enabled, description, created_at, updated_at
FROM commands WHERE enabled = 1 ORDER BY name;`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, errors.Wrap(err, "list commands")
	}
	defer rows.Close()

	var out []domain.CommandRecord
	for rows.Next() {
		var (
			record           domain.CommandRecord
			permission, typ  string
			created, updated string
		)
		if err := rows.Scan(&record.Name, &record.Response, &permission, &typ, &record.Enabled,
			&record.Description, &created, &updated); err != nil {
			return nil, errors.Wrap(err, "scan command")
		}
		record.Permission = domain.Role(permission)
		record.Type = domain.CommandType(typ)
		record.CreatedAt = parseTime(created)
		record.UpdatedAt = parseTime(updated)
		out = append(out, record)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate commands")
	}
	return out, nil
}

func (s *SQLite) UpsertReward(ctx context.Context, record domain.RewardRecord) (domain.RewardRecord, error) {
	const q = `INSERT INTO rewards (key, id, title, response, permission, enabled, description, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
  title = excluded.title,
  response = excluded.response,
  permission = excluded.permission,
  enabled = excluded.enabled,
  description = excluded.description,
  updated_at = excluded.updated_at
RETURNING created_at, updated_at;`

	record.ID = strings.ToLower(strings.TrimSpace(record.ID))
	record.Title = strings.TrimSpace(record.Title)
	record.Permission = nzRole(record.Permission)

	ts := formatTime(s.now())

	var created, updated string
	err := s.db.QueryRowContext(ctx, q, record.Key(), record.ID, record.Title, record.Response,
		string(record.Permission), record.Enabled, record.Description, ts, ts).Scan(&created, &updated)
	if err != nil {
		return domain.RewardRecord{}, errors.Wrap(err, "upsert reward")
	}

	record.CreatedAt = parseTime(created)
	record.UpdatedAt = parseTime(updated)
	return record, nil
}

// DeleteReward removes by id when the key has one, otherwise every row carrying the title.
func (s *SQLite) DeleteReward(ctx context.Context, key domain.RewardKey) (bool, error) {
	var (
		res sql.Result
		err error
	)

	if key.HasID() {
		res, err = s.db.ExecContext(ctx, `DELETE FROM rewards WHERE id = ?;`, key.ID.String())
	} else {
		res, err = s.db.ExecContext(ctx, `DELETE FROM rewards WHERE LOWER(title) = ?;`, key.TitleKey())
	}
	if err != nil {
		return false, errors.Wrap(err, "delete reward")
	}

	return affected(res)
}

func (s *SQLite) ListEnabledRewards(ctx context.Context) ([]domain.RewardRecord, error) {
	const q = `SELECT id, title, response, permission, enabled, description, created_at, updated_at
FROM rewards WHERE enabled = 1 ORDER BY LOWER(title);`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, errors.Wrap(err, "list rewards")
	}
	defer rows.Close()

	var out []domain.RewardRecord
	for rows.Next() {
		var (
			record           domain.RewardRecord
			permission       string
			created, updated string
		)
		if err := rows.Scan(&record.ID, &record.Title, &record.Response, &permission, &record.Enabled,
			&record.Description, &created, &updated); err != nil {
			return nil, errors.Wrap(err, "scan reward")
		}
		record.Permission = domain.Role(permission)
		record.CreatedAt = parseTime(created)
		record.UpdatedAt = parseTime(updated)
		out = append(out, record)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate rewards")
	}
	return out, nil
}

// UpsertMessage stores a decorated message. A second delivery of the same id refreshes its content
// and updated_at but keeps created_at.
func (s *SQLite) UpsertMessage(ctx context.Context, message *domain.ChatMessage) error {
	const q = `INSERT INTO chat_messages (id, broadcaster_id, channel, user_id, user_login, display_name, role, text,
  fragments_json, is_command, reply_to_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  text = excluded.text,
  fragments_json = excluded.fragments_json,
  is_command = excluded.is_command,
  role = excluded.role,
  updated_at = excluded.updated_at;`

	if message.ID == "" {
		return errors.New("upsert message: empty id")
	}

	fragments, err := json.Marshal(message.Fragments)
	if err != nil {
		return errors.Wrap(err, "encode fragments")
	}

	now := s.now()
	created := message.CreatedAt
	if created.IsZero() {
		created = now
	}

	_, err = s.db.ExecContext(ctx, q, message.ID, message.BroadcasterID, message.Channel,
		message.Chatter.ID, message.Chatter.Login, message.Chatter.DisplayName, string(nzRole(message.Chatter.Role)),
		message.Text, string(fragments), message.IsCommand, message.ReplyToID, formatTime(created), formatTime(now))
	if err != nil {
		return errors.Wrap(err, "upsert message")
	}

	message.UpdatedAt = now
	return nil
}

func (s *SQLite) CountMessages(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chat_messages;`).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count messages")
	}
	return n, nil
}

// GetMessage loads a stored message with its fragments.
func (s *SQLite) GetMessage(ctx context.Context, id string) (*domain.ChatMessage, error) {
	const q = `SELECT id, broadcaster_id, channel, user_id, user_login, display_name, role, text, fragments_json,
  is_command, reply_to_id, created_at, updated_at FROM chat_messages WHERE id = ?;`

	var (
		msg              domain.ChatMessage
		role, fragments  string
		created, updated string
	)
	err := s.db.QueryRowContext(ctx, q, id).Scan(&msg.ID, &msg.BroadcasterID, &msg.Channel, &msg.Chatter.ID,
		&msg.Chatter.Login, &msg.Chatter.DisplayName, &role, &msg.Text, &fragments, &msg.IsCommand,
		&msg.ReplyToID, &created, &updated)
	if err != nil {
		return nil, errors.Wrap(err, "get message")
	}

	if err := json.Unmarshal([]byte(fragments), &msg.Fragments); err != nil {
		return nil, errors.Wrap(err, "decode fragments")
	}
	msg.Chatter.Role = domain.Role(role)
	msg.CreatedAt = parseTime(created)
	msg.UpdatedAt = parseTime(updated)
	return &msg, nil
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "rows affected")
	}
	return n > 0, nil
}

func nzRole(r domain.Role) domain.Role {
	if r == "" {
		return domain.RoleEveryone
	}
	return r
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
