package service

import (
	"math"
	"sort"
	"strings"
	"time"

	"pathfinder-llm/internal/domain"
)

// ProfileAggregator es el unico dueño de las mutaciones sobre el perfil en construccion.
type ProfileAggregator struct {
	profile *domain.BuildingProfile
	now     func() time.Time
}

func NewProfileAggregator(profile *domain.BuildingProfile) *ProfileAggregator {
	return &ProfileAggregator{
		profile: profile,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// MergeTrait combina la nueva evidencia con un promedio ponderado por confianza.
// La confianza resultante decae con la cantidad de fuentes acumuladas.
// Una misma fuente aporta una sola vez por rasgo.
func (a *ProfileAggregator) MergeTrait(trait domain.Trait, newScore, newConfidence float64, sourceID string) {
	if !trait.Valid() {
		return
	}
	if sourceID != "" && a.hasSource(trait, sourceID) {
		return
	}
	newScore = domain.Clamp01(newScore)
	newConfidence = domain.Clamp01(newConfidence)

	current := &a.profile.Traits[trait]
	if !current.Seen() {
		*current = domain.TraitScore{}
	}
	oldScore := domain.Clamp01(current.Score)
	oldConfidence := domain.Clamp01(current.Confidence)
	sources := len(current.EvidenceSourceIDs)

	totalWeight := oldConfidence + newConfidence
	var score float64
	switch {
	case totalWeight > 0:
		score = (oldScore*oldConfidence + newScore*newConfidence) / totalWeight
	case sources == 0:
		score = newScore
	default:
		score = (oldScore + newScore) / 2
	}

	current.Score = domain.Clamp01(score)
	current.Confidence = domain.Clamp01(totalWeight / float64(sources+1))
	if sourceID != "" {
		current.EvidenceSourceIDs = append(current.EvidenceSourceIDs, sourceID)
	}
	current.LastUpdated = a.now()
}

func (a *ProfileAggregator) hasSource(trait domain.Trait, sourceID string) bool {
	for _, id := range a.profile.Traits[trait].EvidenceSourceIDs {
		if id == sourceID {
			return true
		}
	}
	return false
}

// MergeInterest sube el nivel de un interes existente o lo inserta.
func (a *ProfileAggregator) MergeInterest(domainName string, confidence float64, evidence string) {
	key := normalizeKey(domainName)
	if key == "" {
		return
	}
	confidence = domain.Clamp01(confidence)

	for i := range a.profile.Interests {
		in := &a.profile.Interests[i]
		if normalizeKey(in.Domain) != key {
			continue
		}
		step := 1.0
		if confidence > 0.7 {
			step = 1.5
		}
		in.Level = math.Min(5, in.Level+step)
		if in.Context == "" {
			in.Context = strings.TrimSpace(evidence)
		}
		return
	}

	level := math.Max(2, math.Round(confidence*5))
	a.profile.Interests = append(a.profile.Interests, domain.Interest{
		Domain:       strings.TrimSpace(domainName),
		Level:        domain.ClampRange(level, 1, 5),
		Context:      strings.TrimSpace(evidence),
		DiscoveredAt: a.now(),
	})
}

// MergeValue inserta solo si el valor no existe (gana la primera mencion).
func (a *ProfileAggregator) MergeValue(value string, importance int, context string) bool {
	key := normalizeKey(value)
	if key == "" {
		return false
	}
	for _, v := range a.profile.Values {
		if normalizeKey(v.Value) == key {
			return false
		}
	}
	a.profile.Values = append(a.profile.Values, domain.ValueEntry{
		Value:      strings.TrimSpace(value),
		Importance: clampInt(importance, 1, 5),
		Context:    strings.TrimSpace(context),
	})
	return true
}

// MergeConstraint inserta solo si el tipo no existe; impactos invalidos se descartan.
func (a *ProfileAggregator) MergeConstraint(c domain.ConstraintInsight) bool {
	key := normalizeKey(c.Type)
	impact := strings.ToLower(strings.TrimSpace(c.Impact))
	if key == "" || !domain.ValidConstraintImpact(impact) {
		return false
	}
	for _, existing := range a.profile.Constraints {
		if normalizeKey(existing.Type) == key {
			return false
		}
	}
	a.profile.Constraints = append(a.profile.Constraints, domain.Constraint{
		Type:        strings.TrimSpace(c.Type),
		Description: strings.TrimSpace(c.Description),
		Flexibility: clampInt(c.Flexibility, 1, 5),
		Impact:      impact,
	})
	return true
}

// MergeWorkEnvironment completa solo los campos vacios.
func (a *ProfileAggregator) MergeWorkEnvironment(w domain.WorkEnvironment) {
	cur := &a.profile.WorkEnvironment
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = strings.TrimSpace(src)
		}
	}
	fill(&cur.TeamSize, w.TeamSize)
	fill(&cur.LocationMode, w.LocationMode)
	fill(&cur.Pace, w.Pace)
	fill(&cur.Structure, w.Structure)
}

func (a *ProfileAggregator) AddPersonalityNote(note string) {
	note = strings.TrimSpace(note)
	if note == "" {
		return
	}
	for _, existing := range a.profile.PersonalityNotes {
		if strings.EqualFold(existing, note) {
			return
		}
	}
	a.profile.PersonalityNotes = append(a.profile.PersonalityNotes, note)
}

func (a *ProfileAggregator) SetExperienceLevel(level string) {
	if a.profile.ExperienceLevel == "" {
		a.profile.ExperienceLevel = strings.TrimSpace(level)
	}
}

// ApplySignals fusiona un payload completo de insights. Los hitos no se tocan aqui.
func (a *ProfileAggregator) ApplySignals(s domain.Signals, sourceID string) {
	for _, t := range s.Traits {
		a.MergeTrait(t.Trait, t.Score, t.Confidence, sourceID)
	}
	for _, in := range s.Interests {
		a.MergeInterest(in.Domain, in.Confidence, in.Evidence)
	}
	for _, v := range s.Values {
		a.MergeValue(v.Value, v.Importance, v.Context)
	}
	for _, c := range s.Constraints {
		a.MergeConstraint(c)
	}
	a.MergeWorkEnvironment(s.WorkEnvironment)
	for _, note := range s.PersonalityNotes {
		a.AddPersonalityNote(note)
	}
	if s.ExperienceLevel != "" {
		a.SetExperienceLevel(s.ExperienceLevel)
	}
}

// Completeness pondera rasgos (40%), intereses (25%), valores (20%) y experiencia (15%).
func (a *ProfileAggregator) Completeness() float64 {
	if a == nil || a.profile == nil {
		return 0
	}
	scored := 0
	for _, t := range a.profile.Traits {
		if t.Score > 0.1 {
			scored++
		}
	}
	traitPart := float64(scored) / float64(domain.TraitCount)
	interestPart := math.Min(float64(len(a.profile.Interests))/3, 1)
	valuePart := math.Min(float64(len(a.profile.Values))/3, 1)
	experiencePart := 0.0
	if strings.TrimSpace(a.profile.ExperienceLevel) != "" {
		experiencePart = 1
	}
	return domain.Clamp01(traitPart*0.40 + interestPart*0.25 + valuePart*0.20 + experiencePart*0.15)
}

// RankedTrait es un rasgo con su puntaje para reportes.
type RankedTrait struct {
	Trait      domain.Trait `json:"trait"`
	Score      float64      `json:"score"`
	Confidence float64      `json:"confidence"`
}

// TopTraits ordena por score*confidence, filtrando score <= 0.1.
func (a *ProfileAggregator) TopTraits(n int) []RankedTrait {
	var out []RankedTrait
	for i, t := range a.profile.Traits {
		if t.Score > 0.1 {
			out = append(out, RankedTrait{Trait: domain.Trait(i), Score: t.Score, Confidence: t.Confidence})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score*out[i].Confidence > out[j].Score*out[j].Confidence
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// UserVector expone los puntajes actuales como vector para el ranking por similitud.
func (a *ProfileAggregator) UserVector() domain.TraitVector {
	var v domain.TraitVector
	for i, t := range a.profile.Traits {
		v[i] = domain.Clamp01(t.Score)
	}
	return v
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
