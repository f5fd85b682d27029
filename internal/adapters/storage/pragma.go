package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// ApplyPragmas applies SQLite tuning statements when storage.tuning is enabled.
func ApplyPragmas(ctx context.Context, db *sql.DB) {
	if !viper.GetBool("storage.tuning") {
		return
	}

	pragmas := []string{
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA wal_autocheckpoint=1000;",
		"PRAGMA temp_store=MEMORY;",
	}

	for _, pragma := range pragmas {
		value, err := applyPragma(ctx, db, pragma)
		if err != nil {
			log.Warn().Err(err).Str("pragma", pragma).Msg("sqlite pragma failed")
			continue
		}
		log.Debug().Str("pragma", pragma).Interface("value", value).Msg("applied sqlite pragma")
	}
}

func applyPragma(ctx context.Context, db *sql.DB, pragma string) (any, error) {
	var value any
	if err := db.QueryRowContext(ctx, pragma).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
				return nil, execErr
			}
			return "ok", nil
		}
		return nil, err
	}
	return value, nil
}
