package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserProfileSink recibe la ocupacion objetivo cuando se confirma el ultimo hito.
type UserProfileSink interface {
	SetTargetOccupation(ctx context.Context, userID, label string) error
}

type PgUserProfileRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserProfileRepository(pool *pgxpool.Pool) *PgUserProfileRepository {
	return &PgUserProfileRepository{pool: pool}
}

func (r *PgUserProfileRepository) SetTargetOccupation(ctx context.Context, userID, label string) error {
	const query = `
		INSERT INTO user_profiles (user_id, target_occupation, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			target_occupation = EXCLUDED.target_occupation,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.pool.Exec(ctx, query, userID, label, time.Now().UTC())
	return err
}

// GetTargetOccupation devuelve "" si el usuario todavia no tiene ocupacion objetivo.
func (r *PgUserProfileRepository) GetTargetOccupation(ctx context.Context, userID string) (string, error) {
	const query = `SELECT target_occupation FROM user_profiles WHERE user_id = $1`
	var label string
	err := r.pool.QueryRow(ctx, query, userID).Scan(&label)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return label, err
}

type MemoryUserProfileSink struct {
	mu      sync.Mutex
	targets map[string]string
}

func NewMemoryUserProfileSink() *MemoryUserProfileSink {
	return &MemoryUserProfileSink{targets: make(map[string]string)}
}

func (s *MemoryUserProfileSink) SetTargetOccupation(_ context.Context, userID, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets[userID] = label
	return nil
}

func (s *MemoryUserProfileSink) GetTargetOccupation(_ context.Context, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.targets[userID], nil
}
