package service

import (
	"sort"
	"strings"

	"pathfinder-llm/internal/domain"
)

// Pesos de los componentes del puntaje de reconciliacion.
const (
	titleSimilarityWeight    = 0.3
	skillsSimilarityWeight   = 0.35
	descriptionWeight        = 0.2
	descriptionClusterWeight = 0.1
	singleDescriptionPenalty = 0.05
	sectorMatchBonus         = 0.1

	// MinUsableMatchScore: por debajo de este puntaje un match no se considera utilizable.
	MinUsableMatchScore = 0.3

	maxAlternatives = 2
)

// ScoreBreakdown detalla cada componente para diagnostico.
type ScoreBreakdown struct {
	Keyword     float64 `json:"keyword"`
	Title       float64 `json:"title"`
	Skills      float64 `json:"skills"`
	Description float64 `json:"description"`
	Sector      float64 `json:"sector"`
	Total       float64 `json:"total"`
}

type ScoredRecord struct {
	Record    domain.OccupationRecord `json:"record"`
	Score     float64                 `json:"score"`
	Tier      domain.ConfidenceTier   `json:"tier"`
	Breakdown ScoreBreakdown          `json:"breakdown"`
}

// Match es el resultado por sugerencia: el mejor registro y hasta dos alternativas.
type Match struct {
	Suggestion   domain.OccupationSuggestion `json:"suggestion"`
	Best         ScoredRecord                `json:"best"`
	Alternatives []ScoredRecord              `json:"alternatives,omitempty"`
}

func (m Match) Usable() bool {
	return m.Best.Record.ID != "" && m.Best.Score >= MinUsableMatchScore
}

// Reconciler cruza sugerencias en texto libre contra el catalogo canonico completo.
type Reconciler struct {
	clusters []KeywordCluster
}

func NewReconciler(clusters []KeywordCluster) *Reconciler {
	if clusters == nil {
		clusters = DefaultKeywordClusters
	}
	return &Reconciler{clusters: clusters}
}

// features precalcula lo que se reutiliza al comparar contra muchos registros.
type features struct {
	title       string
	titleHits   []bool
	tokens      map[string]struct{} // rationale (sugerencia) o skills (registro)
	description map[string]struct{}
	descHits    []bool
	hasDesc     bool
	sector      string
}

func (r *Reconciler) suggestionFeatures(s domain.OccupationSuggestion) features {
	f := features{
		title:  foldText(s.Title),
		tokens: tokenSet(s.Rationale),
		sector: foldText(s.Sector),
	}
	f.titleHits = clusterHits(f.title, r.clusters)
	if strings.TrimSpace(s.Description) != "" {
		f.hasDesc = true
		f.description = tokenSet(s.Description)
		f.descHits = clusterHits(foldText(s.Description), r.clusters)
	}
	return f
}

func (r *Reconciler) recordFeatures(rec domain.OccupationRecord) features {
	f := features{
		title:  foldText(rec.Title),
		tokens: tokenSet(rec.Skills...),
		sector: foldText(rec.Sector),
	}
	f.titleHits = clusterHits(f.title, r.clusters)
	if strings.TrimSpace(rec.Description) != "" {
		f.hasDesc = true
		f.description = tokenSet(rec.Description)
		f.descHits = clusterHits(foldText(rec.Description), r.clusters)
	}
	return f
}

func (r *Reconciler) score(s, rec features) ScoreBreakdown {
	var b ScoreBreakdown
	b.Keyword = clusterBonus(s.titleHits, rec.titleHits)
	b.Title = titleSimilarityWeight * foldedTitleSimilarity(s.title, rec.title)
	b.Skills = skillsSimilarityWeight * jaccard(s.tokens, rec.tokens)
	switch {
	case s.hasDesc && rec.hasDesc:
		b.Description = descriptionWeight*jaccard(s.description, rec.description) +
			descriptionClusterWeight*(clusterBonus(s.descHits, rec.descHits)/clusterBonusCap)
	case s.hasDesc != rec.hasDesc:
		b.Description = -singleDescriptionPenalty
	}
	if s.sector != "" && s.sector == rec.sector {
		b.Sector = sectorMatchBonus
	}
	b.Total = domain.Clamp01(b.Keyword + b.Title + b.Skills + b.Description + b.Sector)
	return b
}

// Score calcula el puntaje de una sugerencia contra un registro. No es simetrico en general.
func (r *Reconciler) Score(s domain.OccupationSuggestion, rec domain.OccupationRecord) ScoreBreakdown {
	return r.score(r.suggestionFeatures(s), r.recordFeatures(rec))
}

// Reconcile devuelve un Match por sugerencia con titulo no vacio.
// Empates: gana el registro con ID menor.
func (r *Reconciler) Reconcile(suggestions []domain.OccupationSuggestion, catalog []domain.OccupationRecord) []Match {
	if len(suggestions) == 0 || len(catalog) == 0 {
		return nil
	}
	recFeatures := make([]features, len(catalog))
	for i, rec := range catalog {
		recFeatures[i] = r.recordFeatures(rec)
	}

	matches := make([]Match, 0, len(suggestions))
	for _, s := range suggestions {
		if strings.TrimSpace(s.Title) == "" {
			continue
		}
		sf := r.suggestionFeatures(s)
		scored := make([]ScoredRecord, len(catalog))
		for i, rec := range catalog {
			b := r.score(sf, recFeatures[i])
			scored[i] = ScoredRecord{Record: rec, Score: b.Total, Tier: domain.TierForScore(b.Total), Breakdown: b}
		}
		sort.SliceStable(scored, func(i, j int) bool {
			if scored[i].Score != scored[j].Score {
				return scored[i].Score > scored[j].Score
			}
			return scored[i].Record.ID < scored[j].Record.ID
		})
		m := Match{Suggestion: s, Best: scored[0]}
		if n := len(scored) - 1; n > 0 {
			if n > maxAlternatives {
				n = maxAlternatives
			}
			m.Alternatives = append([]ScoredRecord(nil), scored[1:1+n]...)
		}
		matches = append(matches, m)
	}
	return matches
}
