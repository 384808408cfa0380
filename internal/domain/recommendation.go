package domain

import "time"

type ConfidenceTier string

const (
	TierHigh   ConfidenceTier = "high"
	TierMedium ConfidenceTier = "medium"
	TierLow    ConfidenceTier = "low"
)

// TierForScore aplica los umbrales 0.75 / 0.5.
func TierForScore(score float64) ConfidenceTier {
	switch {
	case score >= 0.75:
		return TierHigh
	case score >= 0.5:
		return TierMedium
	default:
		return TierLow
	}
}

const (
	MatchMethodReconciled = "reconciled"
	MatchMethodVector     = "vector"
)

// Recommendation asocia una sugerencia con un registro canonico.
// Solo Reaction puede cambiar despues de creada.
type Recommendation struct {
	SourceTitle     string         `json:"source_title,omitempty"`
	Rationale       string         `json:"rationale,omitempty"`
	OccupationID    string         `json:"occupation_id"`
	OccupationTitle string         `json:"occupation_title"`
	MatchScore      float64        `json:"match_score"`
	ConfidenceTier  ConfidenceTier `json:"confidence_tier"`
	Method          string         `json:"method"`
	Alternatives    []string       `json:"alternatives,omitempty"`
	Reaction        string         `json:"reaction,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

const (
	ReactionLiked    = "liked"
	ReactionDisliked = "disliked"
	ReactionSaved    = "saved"
)

func ValidReaction(r string) bool {
	switch r {
	case ReactionLiked, ReactionDisliked, ReactionSaved:
		return true
	}
	return false
}
