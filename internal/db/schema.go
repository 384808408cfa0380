package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaStatements crea el esquema minimo; todas las sentencias son idempotentes.
var schemaStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS vector`,
	`CREATE TABLE IF NOT EXISTS occupations (
		id           TEXT PRIMARY KEY,
		title        TEXT NOT NULL,
		description  TEXT NOT NULL DEFAULT '',
		skills       TEXT[] NOT NULL DEFAULT '{}',
		sector       TEXT NOT NULL DEFAULT '',
		trait_vector vector(15) NOT NULL,
		source       TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS occupations_source_idx ON occupations (source)`,
	`CREATE TABLE IF NOT EXISTS conversations (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		status     TEXT NOT NULL,
		phase      TEXT NOT NULL,
		state      JSONB NOT NULL,
		version    INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS conversations_user_idx ON conversations (user_id, updated_at DESC)`,
	`CREATE INDEX IF NOT EXISTS conversations_status_idx ON conversations (status, updated_at)`,
	`CREATE TABLE IF NOT EXISTS conversation_messages (
		seq             BIGSERIAL,
		id              TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		role            TEXT NOT NULL,
		content         TEXT NOT NULL,
		source          TEXT NOT NULL DEFAULT '',
		created_at      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS conversation_messages_conv_idx ON conversation_messages (conversation_id, seq)`,
	`CREATE TABLE IF NOT EXISTS user_profiles (
		user_id           TEXT PRIMARY KEY,
		target_occupation TEXT NOT NULL,
		updated_at        TIMESTAMPTZ NOT NULL
	)`,
}

// Migrate aplica el esquema en orden.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
