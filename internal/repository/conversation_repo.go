package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pathfinder-llm/internal/domain"
)

// StatusFilter es el predicado de las actualizaciones masivas de estado.
type StatusFilter struct {
	Statuses      []domain.ConversationStatus
	UpdatedBefore time.Time
	UserID        string
}

// ConversationRepository persiste el agregado Conversation completo.
type ConversationRepository interface {
	Create(ctx context.Context, conv domain.Conversation) error
	GetByID(ctx context.Context, id string) (domain.Conversation, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Conversation, error)
	// SaveTurn guarda estado y mensajes nuevos en una sola transaccion.
	// Falla con ErrVersionConflict si conv.Version no coincide con la version guardada.
	SaveTurn(ctx context.Context, conv *domain.Conversation, newMessages []domain.Message) error
	UpdateStatusWhere(ctx context.Context, filter StatusFilter, status domain.ConversationStatus) (int64, error)
}

// conversationState es lo que va a la columna JSONB.
type conversationState struct {
	Profile           domain.BuildingProfile                  `json:"profile"`
	Milestones        [domain.MilestoneCount]domain.Milestone `json:"milestones"`
	Recommendations   []domain.Recommendation                 `json:"recommendations"`
	Session           domain.SessionState                     `json:"session"`
	Quality           domain.QualityMetrics                   `json:"quality"`
	QuestionCount     int                                     `json:"question_count"`
	ConclusionEntries int                                     `json:"conclusion_entries"`
}

func stateOf(c *domain.Conversation) ([]byte, error) {
	return json.Marshal(conversationState{
		Profile:           c.Profile,
		Milestones:        c.Milestones,
		Recommendations:   c.Recommendations,
		Session:           c.Session,
		Quality:           c.Quality,
		QuestionCount:     c.QuestionCount,
		ConclusionEntries: c.ConclusionEntries,
	})
}

func applyState(c *domain.Conversation, raw []byte) error {
	var st conversationState
	if err := json.Unmarshal(raw, &st); err != nil {
		return fmt.Errorf("decode conversation state: %w", err)
	}
	c.Profile = st.Profile
	c.Milestones = st.Milestones
	c.Recommendations = st.Recommendations
	c.Session = st.Session
	c.Quality = st.Quality
	c.QuestionCount = st.QuestionCount
	c.ConclusionEntries = st.ConclusionEntries
	return nil
}

// PgConversationRepository guarda el estado en JSONB y los mensajes en su propia tabla.
type PgConversationRepository struct {
	pool *pgxpool.Pool
}

func NewPgConversationRepository(pool *pgxpool.Pool) *PgConversationRepository {
	return &PgConversationRepository{pool: pool}
}

func (r *PgConversationRepository) Create(ctx context.Context, conv domain.Conversation) error {
	state, err := stateOf(&conv)
	if err != nil {
		return err
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const query = `
			INSERT INTO conversations (id, user_id, status, phase, state, version, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`
		if _, err := tx.Exec(ctx, query,
			conv.ID,
			conv.UserID,
			string(conv.Status),
			string(conv.Phase),
			state,
			conv.Version,
			conv.CreatedAt,
			conv.UpdatedAt,
		); err != nil {
			return fmt.Errorf("insert conversation: %w", err)
		}
		return insertMessages(ctx, tx, conv.Messages)
	})
}

func insertMessages(ctx context.Context, tx pgx.Tx, messages []domain.Message) error {
	if len(messages) == 0 {
		return nil
	}
	const query = `
		INSERT INTO conversation_messages (id, conversation_id, role, content, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	batch := &pgx.Batch{}
	for _, m := range messages {
		batch.Queue(query, m.ID, m.ConversationID, m.Role, m.Content, m.Source, m.CreatedAt)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert messages: %w", err)
	}
	return nil
}

func (r *PgConversationRepository) GetByID(ctx context.Context, id string) (domain.Conversation, error) {
	const query = `
		SELECT id, user_id, status, phase, state, version, created_at, updated_at
		FROM conversations
		WHERE id = $1
	`
	conv, err := scanConversation(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Conversation{}, ErrNotFound
	}
	if err != nil {
		return domain.Conversation{}, err
	}

	messages, err := r.listMessages(ctx, id)
	if err != nil {
		return domain.Conversation{}, err
	}
	conv.Messages = messages
	return conv, nil
}

// ListByUser devuelve las conversaciones sin mensajes, mas recientes primero.
func (r *PgConversationRepository) ListByUser(ctx context.Context, userID string) ([]domain.Conversation, error) {
	const query = `
		SELECT id, user_id, status, phase, state, version, created_at, updated_at
		FROM conversations
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, conv)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (domain.Conversation, error) {
	var (
		c      domain.Conversation
		status string
		phase  string
		state  []byte
	)
	if err := row.Scan(&c.ID, &c.UserID, &status, &phase, &state, &c.Version, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return domain.Conversation{}, err
	}
	c.Status = domain.ConversationStatus(status)
	c.Phase = domain.Phase(phase)
	if err := applyState(&c, state); err != nil {
		return domain.Conversation{}, err
	}
	return c, nil
}

func (r *PgConversationRepository) listMessages(ctx context.Context, conversationID string) ([]domain.Message, error) {
	const query = `
		SELECT id, conversation_id, role, content, source, created_at
		FROM conversation_messages
		WHERE conversation_id = $1
		ORDER BY seq ASC
	`
	rows, err := r.pool.Query(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

func scanMessages(rows pgxRows) ([]domain.Message, error) {
	var messages []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.Source, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *PgConversationRepository) SaveTurn(ctx context.Context, conv *domain.Conversation, newMessages []domain.Message) error {
	state, err := stateOf(conv)
	if err != nil {
		return err
	}
	err = pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const query = `
			UPDATE conversations
			SET status = $3, phase = $4, state = $5, version = version + 1, updated_at = $6
			WHERE id = $1 AND version = $2
		`
		tag, err := tx.Exec(ctx, query,
			conv.ID,
			conv.Version,
			string(conv.Status),
			string(conv.Phase),
			state,
			conv.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("update conversation: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrVersionConflict
		}
		return insertMessages(ctx, tx, newMessages)
	})
	if err != nil {
		return err
	}
	conv.Version++
	return nil
}

func (r *PgConversationRepository) UpdateStatusWhere(ctx context.Context, filter StatusFilter, status domain.ConversationStatus) (int64, error) {
	statuses := make([]string, 0, len(filter.Statuses))
	for _, s := range filter.Statuses {
		statuses = append(statuses, string(s))
	}
	var before any
	if !filter.UpdatedBefore.IsZero() {
		before = filter.UpdatedBefore
	}
	var userID any
	if filter.UserID != "" {
		userID = filter.UserID
	}

	const query = `
		UPDATE conversations
		SET status = $1, version = version + 1, updated_at = $2
		WHERE status = ANY($3)
		  AND ($4::timestamptz IS NULL OR updated_at < $4)
		  AND ($5::text IS NULL OR user_id = $5)
	`
	tag, err := r.pool.Exec(ctx, query, string(status), time.Now().UTC(), statuses, before, userID)
	if err != nil {
		return 0, fmt.Errorf("bulk status update: %w", err)
	}
	return tag.RowsAffected(), nil
}
