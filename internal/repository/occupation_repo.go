package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"pathfinder-llm/internal/domain"
)

// OccupationRepository es el catalogo canonico de ocupaciones.
type OccupationRepository interface {
	// ListAll devuelve todo el catalogo, filtrado por source si no es vacio, ordenado por id.
	ListAll(ctx context.Context, source string) ([]domain.OccupationRecord, error)
	// Nearest devuelve los k registros mas cercanos por distancia coseno.
	Nearest(ctx context.Context, vector domain.TraitVector, k int, source string) ([]domain.OccupationRecord, error)
	Upsert(ctx context.Context, rec domain.OccupationRecord) error
}

type PgOccupationRepository struct {
	pool *pgxpool.Pool
}

func NewPgOccupationRepository(pool *pgxpool.Pool) *PgOccupationRepository {
	return &PgOccupationRepository{pool: pool}
}

const occupationColumns = `id, title, description, skills, sector, trait_vector, source`

func (r *PgOccupationRepository) ListAll(ctx context.Context, source string) ([]domain.OccupationRecord, error) {
	const query = `
		SELECT ` + occupationColumns + `
		FROM occupations
		WHERE ($1 = '' OR source = $1)
		ORDER BY id
	`
	rows, err := r.pool.Query(ctx, query, source)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOccupations(rows)
}

func (r *PgOccupationRepository) Nearest(ctx context.Context, vector domain.TraitVector, k int, source string) ([]domain.OccupationRecord, error) {
	if k <= 0 {
		k = 20
	}
	const query = `
		SELECT ` + occupationColumns + `
		FROM occupations
		WHERE ($3 = '' OR source = $3)
		ORDER BY trait_vector <=> $1, id
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, pgvector.NewVector(vector.Float32s()), k, source)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOccupations(rows)
}

func (r *PgOccupationRepository) Upsert(ctx context.Context, rec domain.OccupationRecord) error {
	const query = `
		INSERT INTO occupations (id, title, description, skills, sector, trait_vector, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			skills = EXCLUDED.skills,
			sector = EXCLUDED.sector,
			trait_vector = EXCLUDED.trait_vector,
			source = EXCLUDED.source
	`
	skills := rec.Skills
	if skills == nil {
		skills = []string{}
	}
	_, err := r.pool.Exec(ctx, query,
		rec.ID,
		rec.Title,
		rec.Description,
		skills,
		rec.Sector,
		pgvector.NewVector(rec.TraitVector.Float32s()),
		rec.Source,
	)
	if err != nil {
		return fmt.Errorf("upsert occupation %s: %w", rec.ID, err)
	}
	return nil
}

func scanOccupations(rows pgx.Rows) ([]domain.OccupationRecord, error) {
	var out []domain.OccupationRecord
	for rows.Next() {
		var (
			rec domain.OccupationRecord
			vec pgvector.Vector
		)
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.Description, &rec.Skills, &rec.Sector, &vec, &rec.Source); err != nil {
			return nil, err
		}
		rec.TraitVector = domain.TraitVectorFromFloat32s(vec.Slice())
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// MemoryOccupationRepository es el catalogo en memoria (CLI, herramientas offline, tests).
type MemoryOccupationRepository struct {
	mu      sync.RWMutex
	records map[string]domain.OccupationRecord
}

func NewMemoryOccupationRepository(records ...domain.OccupationRecord) *MemoryOccupationRepository {
	r := &MemoryOccupationRepository{records: make(map[string]domain.OccupationRecord, len(records))}
	for _, rec := range records {
		r.records[rec.ID] = rec
	}
	return r
}

func (r *MemoryOccupationRepository) ListAll(_ context.Context, source string) ([]domain.OccupationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.OccupationRecord, 0, len(r.records))
	for _, rec := range r.records {
		if source == "" || strings.EqualFold(rec.Source, source) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryOccupationRepository) Nearest(ctx context.Context, vector domain.TraitVector, k int, source string) ([]domain.OccupationRecord, error) {
	all, err := r.ListAll(ctx, source)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool {
		return vector.Cosine(all[i].TraitVector) > vector.Cosine(all[j].TraitVector)
	})
	if k > 0 && len(all) > k {
		all = all[:k]
	}
	return all, nil
}

func (r *MemoryOccupationRepository) Upsert(_ context.Context, rec domain.OccupationRecord) error {
	if strings.TrimSpace(rec.ID) == "" {
		return fmt.Errorf("occupation id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.ID] = rec
	return nil
}
