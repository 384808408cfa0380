package service

import (
	"math"
	"sort"

	"pathfinder-llm/internal/domain"
)

// CosineSimilarity devuelve 0 si alguno de los vectores tiene magnitud cero.
func CosineSimilarity(a, b domain.TraitVector) float64 {
	return a.Cosine(b)
}

// RankedOccupation es el resultado del ranking por similitud de rasgos.
type RankedOccupation struct {
	Record domain.OccupationRecord `json:"record"`
	Score  int                     `json:"score"` // 0-100
}

// RankOccupations ordena por round(cos*100) descendente, estable sobre el orden de entrada.
func RankOccupations(user domain.TraitVector, records []domain.OccupationRecord, limit int) []RankedOccupation {
	ranked := make([]RankedOccupation, len(records))
	for i, rec := range records {
		ranked[i] = RankedOccupation{
			Record: rec,
			Score:  int(math.Round(CosineSimilarity(user, rec.TraitVector) * 100)),
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if limit >= 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
