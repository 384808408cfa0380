package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"pathfinder-llm/internal/domain"
)

// MemoryConversationRepository guarda copias profundas en memoria. Lo usan el CLI y los tests.
type MemoryConversationRepository struct {
	mu    sync.RWMutex
	items map[string][]byte
}

func NewMemoryConversationRepository() *MemoryConversationRepository {
	return &MemoryConversationRepository{items: make(map[string][]byte)}
}

func (r *MemoryConversationRepository) Create(_ context.Context, conv domain.Conversation) error {
	raw, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("encode conversation: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[conv.ID]; exists {
		return fmt.Errorf("conversation %s already exists", conv.ID)
	}
	r.items[conv.ID] = raw
	return nil
}

func (r *MemoryConversationRepository) GetByID(_ context.Context, id string) (domain.Conversation, error) {
	r.mu.RLock()
	raw, ok := r.items[id]
	r.mu.RUnlock()
	if !ok {
		return domain.Conversation{}, ErrNotFound
	}
	return decodeConversation(raw)
}

func decodeConversation(raw []byte) (domain.Conversation, error) {
	var conv domain.Conversation
	if err := json.Unmarshal(raw, &conv); err != nil {
		return domain.Conversation{}, fmt.Errorf("decode conversation: %w", err)
	}
	return conv, nil
}

func (r *MemoryConversationRepository) ListByUser(_ context.Context, userID string) ([]domain.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Conversation
	for _, raw := range r.items {
		conv, err := decodeConversation(raw)
		if err != nil {
			return nil, err
		}
		if conv.UserID == userID {
			conv.Messages = nil
			out = append(out, conv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

// SaveTurn reemplaza el agregado completo; newMessages ya vienen incluidos en conv.Messages.
func (r *MemoryConversationRepository) SaveTurn(_ context.Context, conv *domain.Conversation, _ []domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	raw, ok := r.items[conv.ID]
	if !ok {
		return ErrNotFound
	}
	stored, err := decodeConversation(raw)
	if err != nil {
		return err
	}
	if stored.Version != conv.Version {
		return ErrVersionConflict
	}

	next := *conv
	next.Version++
	encoded, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode conversation: %w", err)
	}
	r.items[conv.ID] = encoded
	conv.Version = next.Version
	return nil
}

func (r *MemoryConversationRepository) UpdateStatusWhere(_ context.Context, filter StatusFilter, status domain.ConversationStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var updated int64
	now := time.Now().UTC()
	for id, raw := range r.items {
		conv, err := decodeConversation(raw)
		if err != nil {
			return updated, err
		}
		if !matchesFilter(conv, filter) {
			continue
		}
		conv.Status = status
		conv.Version++
		conv.UpdatedAt = now
		encoded, err := json.Marshal(conv)
		if err != nil {
			return updated, fmt.Errorf("encode conversation: %w", err)
		}
		r.items[id] = encoded
		updated++
	}
	return updated, nil
}

func matchesFilter(conv domain.Conversation, f StatusFilter) bool {
	statusOK := false
	for _, s := range f.Statuses {
		if conv.Status == s {
			statusOK = true
			break
		}
	}
	if !statusOK {
		return false
	}
	if !f.UpdatedBefore.IsZero() && !conv.UpdatedAt.Before(f.UpdatedBefore) {
		return false
	}
	if f.UserID != "" && conv.UserID != f.UserID {
		return false
	}
	return true
}
