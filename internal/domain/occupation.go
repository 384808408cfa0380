package domain

// OccupationRecord es un registro del catalogo canonico de ocupaciones (solo lectura para el motor).
type OccupationRecord struct {
	ID          string      `json:"id" yaml:"id"`
	Title       string      `json:"title" yaml:"title"`
	Description string      `json:"description,omitempty" yaml:"description"`
	Skills      []string    `json:"skills,omitempty" yaml:"skills"`
	Sector      string      `json:"sector,omitempty" yaml:"sector"`
	TraitVector TraitVector `json:"trait_vector" yaml:"-"`
	Source      string      `json:"source,omitempty" yaml:"source"`
}

// OccupationSuggestion es una recomendacion en texto libre del colaborador generativo.
type OccupationSuggestion struct {
	Title       string `json:"title"`
	Rationale   string `json:"rationale"`
	Sector      string `json:"sector,omitempty"`
	Description string `json:"description,omitempty"`
}
