package domain

import "time"

// TraitScore acumula la evidencia de un rasgo a lo largo de la conversacion.
type TraitScore struct {
	Score             float64   `json:"score"`
	Confidence        float64   `json:"confidence"`
	EvidenceSourceIDs []string  `json:"evidence_source_ids,omitempty"`
	LastUpdated       time.Time `json:"last_updated"`
}

// Seen indica si el rasgo recibio evidencia alguna vez.
func (t TraitScore) Seen() bool {
	return !t.LastUpdated.IsZero()
}

type Interest struct {
	Domain       string    `json:"domain"`
	Level        float64   `json:"level"` // 1-5
	Context      string    `json:"context,omitempty"`
	DiscoveredAt time.Time `json:"discovered_at"`
}

type ValueEntry struct {
	Value      string `json:"value"`
	Importance int    `json:"importance"` // 1-5
	Context    string `json:"context,omitempty"`
}

const (
	ConstraintImpactBlocking     = "blocking"
	ConstraintImpactLimiting     = "limiting"
	ConstraintImpactPreferential = "preferential"
)

// ValidConstraintImpact valida el impacto declarado de una restriccion.
func ValidConstraintImpact(impact string) bool {
	switch impact {
	case ConstraintImpactBlocking, ConstraintImpactLimiting, ConstraintImpactPreferential:
		return true
	}
	return false
}

type Constraint struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Flexibility int    `json:"flexibility"` // 1-5
	Impact      string `json:"impact"`
}

type WorkEnvironment struct {
	TeamSize     string `json:"team_size,omitempty"`     // solo, small, large
	LocationMode string `json:"location_mode,omitempty"` // remote, hybrid, onsite
	Pace         string `json:"pace,omitempty"`
	Structure    string `json:"structure,omitempty"`
}

func (w WorkEnvironment) IsZero() bool {
	return w == WorkEnvironment{}
}

// BuildingProfile es el perfil en construccion de una conversacion.
type BuildingProfile struct {
	Traits           [TraitCount]TraitScore `json:"traits"`
	Interests        []Interest             `json:"interests"`
	Values           []ValueEntry           `json:"values"`
	Constraints      []Constraint           `json:"constraints"`
	WorkEnvironment  WorkEnvironment        `json:"work_environment"`
	PersonalityNotes []string               `json:"personality_notes,omitempty"`
	ExperienceLevel  string                 `json:"experience_level,omitempty"`
}

// StrongInterestCount cuenta intereses con nivel >= 3.
func (p *BuildingProfile) StrongInterestCount() int {
	n := 0
	for _, in := range p.Interests {
		if in.Level >= 3 {
			n++
		}
	}
	return n
}
