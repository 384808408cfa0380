package domain

// Signals es la salida estructurada comun a los analizadores y al colaborador generativo.
type Signals struct {
	Traits           []TraitInsight       `json:"traits,omitempty"`
	Interests        []InterestInsight    `json:"interests,omitempty"`
	Values           []ValueInsight       `json:"values,omitempty"`
	Constraints      []ConstraintInsight  `json:"constraints,omitempty"`
	WorkEnvironment  WorkEnvironment      `json:"work_environment,omitempty"`
	PersonalityNotes []string             `json:"personality_notes,omitempty"`
	ExperienceLevel  string               `json:"experience_level,omitempty"`
	Milestones       []MilestoneDetection `json:"milestones,omitempty"`
}

type TraitInsight struct {
	Trait      Trait   `json:"trait"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
}

type InterestInsight struct {
	Domain     string  `json:"domain"`
	Confidence float64 `json:"confidence"`
	Evidence   string  `json:"evidence,omitempty"`
}

type ValueInsight struct {
	Value      string `json:"value"`
	Importance int    `json:"importance"`
	Context    string `json:"context,omitempty"`
}

type ConstraintInsight struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Flexibility int    `json:"flexibility"`
	Impact      string `json:"impact"`
}

// Empty reporta si no hay ninguna señal utilizable.
func (s Signals) Empty() bool {
	return len(s.Traits) == 0 && len(s.Interests) == 0 && len(s.Values) == 0 &&
		len(s.Constraints) == 0 && s.WorkEnvironment.IsZero() && len(s.PersonalityNotes) == 0 &&
		s.ExperienceLevel == "" && len(s.Milestones) == 0
}
