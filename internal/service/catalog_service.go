package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"pathfinder-llm/internal/domain"
	"pathfinder-llm/internal/repository"
)

type catalogEntry struct {
	records  []domain.OccupationRecord
	loadedAt time.Time
}

// CatalogService cachea el catalogo completo por source con TTL.
// Cargas concurrentes del mismo source se colapsan en una sola consulta.
type CatalogService struct {
	repo   repository.OccupationRepository
	source string
	ttl    time.Duration
	logger *zap.Logger

	group singleflight.Group
	mu    sync.RWMutex
	cache map[string]catalogEntry
	now   func() time.Time
}

func NewCatalogService(repo repository.OccupationRepository, source string, ttl time.Duration, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		repo:   repo,
		source: source,
		ttl:    ttl,
		logger: logger,
		cache:  make(map[string]catalogEntry),
		now:    time.Now,
	}
}

// All devuelve el catalogo completo del source configurado.
func (s *CatalogService) All(ctx context.Context) ([]domain.OccupationRecord, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("catalog not configured")
	}
	if records, ok := s.cached(s.source); ok {
		return records, nil
	}

	v, err, shared := s.group.Do(s.source, func() (interface{}, error) {
		if records, ok := s.cached(s.source); ok {
			return records, nil
		}
		records, err := s.repo.ListAll(context.WithoutCancel(ctx), s.source)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.cache[s.source] = catalogEntry{records: records, loadedAt: s.now()}
		s.mu.Unlock()
		s.logger.Debug("catalog loaded", zap.String("source", s.source), zap.Int("records", len(records)))
		return records, nil
	})
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	if shared {
		s.logger.Debug("catalog load shared", zap.String("source", s.source))
	}
	return v.([]domain.OccupationRecord), nil
}

func (s *CatalogService) cached(source string) ([]domain.OccupationRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.cache[source]
	if !ok {
		return nil, false
	}
	if s.ttl > 0 && s.now().Sub(entry.loadedAt) > s.ttl {
		return nil, false
	}
	return entry.records, true
}

// Sample elige el subconjunto que ve el colaborador generativo: los k mas cercanos
// al vector del usuario, o los primeros k si el perfil todavia no tiene rasgos.
func (s *CatalogService) Sample(ctx context.Context, user domain.TraitVector, k int) ([]domain.OccupationRecord, error) {
	if k <= 0 {
		k = 40
	}
	if user == (domain.TraitVector{}) {
		all, err := s.All(ctx)
		if err != nil {
			return nil, err
		}
		if len(all) > k {
			all = all[:k]
		}
		return all, nil
	}
	records, err := s.repo.Nearest(ctx, user, k, s.source)
	if err != nil {
		return nil, fmt.Errorf("sample catalog: %w", err)
	}
	return records, nil
}

// Invalidate descarta la cache (tras importar un catalogo).
func (s *CatalogService) Invalidate() {
	s.mu.Lock()
	s.cache = make(map[string]catalogEntry)
	s.mu.Unlock()
}
