package service

import (
	"testing"

	"pathfinder-llm/internal/domain"
)

func animalCatalog() []domain.OccupationRecord {
	return []domain.OccupationRecord{
		{ID: "M1805", Title: "Desarrollador de software", Sector: "Tecnologia", Skills: []string{"programacion", "bases de datos"}},
		{ID: "A1501", Title: "Soigneur animalier", Sector: "Agricultura", Skills: []string{"alimentation", "soins", "animaux"}},
		{ID: "J1506", Title: "Enfermero", Sector: "Salud", Skills: []string{"cuidados", "pacientes"}},
		{ID: "A1408", Title: "Eleveur", Sector: "Agricultura", Skills: []string{"elevage", "animaux"}},
	}
}

func TestReconcileCrossLanguageCluster(t *testing.T) {
	r := NewReconciler(nil)
	matches := r.Reconcile([]domain.OccupationSuggestion{{Title: "Animal Caretaker"}}, animalCatalog())
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	m := matches[0]
	if m.Best.Record.ID != "A1501" {
		t.Fatalf("expected A1501, got %s (%+v)", m.Best.Record.ID, m.Best.Breakdown)
	}
	if m.Best.Score < 0.5 {
		t.Fatalf("expected score >= 0.5, got %f", m.Best.Score)
	}
	if m.Best.Tier == domain.TierLow {
		t.Fatalf("expected at least medium tier, got %s", m.Best.Tier)
	}
	if !m.Usable() {
		t.Fatalf("expected usable match")
	}
	if len(m.Alternatives) != 2 {
		t.Fatalf("expected 2 alternatives, got %d", len(m.Alternatives))
	}
}

func TestReconcileTieGoesToLowestID(t *testing.T) {
	r := NewReconciler(nil)
	catalog := []domain.OccupationRecord{
		{ID: "Z900", Title: "Cocinero"},
		{ID: "B200", Title: "Cocinero"},
		{ID: "C300", Title: "Cocinero"},
	}
	matches := r.Reconcile([]domain.OccupationSuggestion{{Title: "Cocinero"}}, catalog)
	if matches[0].Best.Record.ID != "B200" {
		t.Fatalf("expected B200, got %s", matches[0].Best.Record.ID)
	}
	if got := matches[0].Alternatives; got[0].Record.ID != "C300" || got[1].Record.ID != "Z900" {
		t.Fatalf("unexpected alternatives order: %s, %s", got[0].Record.ID, got[1].Record.ID)
	}
}

func TestReconcileAlternativesBounded(t *testing.T) {
	r := NewReconciler(nil)
	single := r.Reconcile([]domain.OccupationSuggestion{{Title: "Cocinero"}}, animalCatalog()[:1])
	if len(single) != 1 || len(single[0].Alternatives) != 0 {
		t.Fatalf("expected no alternatives with single record")
	}
	pair := r.Reconcile([]domain.OccupationSuggestion{{Title: "Cocinero"}}, animalCatalog()[:2])
	if len(pair[0].Alternatives) != 1 {
		t.Fatalf("expected 1 alternative, got %d", len(pair[0].Alternatives))
	}
}

func TestReconcileSkipsEmptyTitles(t *testing.T) {
	r := NewReconciler(nil)
	matches := r.Reconcile([]domain.OccupationSuggestion{{Title: "  "}, {Title: "Enfermero"}}, animalCatalog())
	if len(matches) != 1 || matches[0].Suggestion.Title != "Enfermero" {
		t.Fatalf("expected only the titled suggestion, got %+v", matches)
	}
	if matches[0].Best.Record.ID != "J1506" {
		t.Fatalf("expected J1506, got %s", matches[0].Best.Record.ID)
	}
	if got := r.Reconcile(nil, animalCatalog()); got != nil {
		t.Fatalf("expected nil for no suggestions")
	}
	if got := r.Reconcile([]domain.OccupationSuggestion{{Title: "x"}}, nil); got != nil {
		t.Fatalf("expected nil for empty catalog")
	}
}

func TestScoreComponents(t *testing.T) {
	r := NewReconciler(nil)

	withSector := r.Score(domain.OccupationSuggestion{Title: "Enfermero", Sector: "salud"}, domain.OccupationRecord{ID: "J1506", Title: "Enfermero", Sector: "Salud"})
	if withSector.Sector != sectorMatchBonus {
		t.Fatalf("expected sector bonus, got %f", withSector.Sector)
	}
	if withSector.Title != titleSimilarityWeight {
		t.Fatalf("expected full title similarity, got %f", withSector.Title)
	}

	oneDesc := r.Score(domain.OccupationSuggestion{Title: "Enfermero", Description: "cuida pacientes"}, domain.OccupationRecord{ID: "J1506", Title: "Enfermero"})
	if oneDesc.Description != -singleDescriptionPenalty {
		t.Fatalf("expected single description penalty, got %f", oneDesc.Description)
	}

	unrelated := r.Score(domain.OccupationSuggestion{Title: "Piloto"}, domain.OccupationRecord{ID: "X1", Title: "Zapatero remendon"})
	if unrelated.Total >= MinUsableMatchScore {
		t.Fatalf("expected unusable score, got %f", unrelated.Total)
	}
	if unrelated.Total < 0 || unrelated.Total > 1 {
		t.Fatalf("score out of range: %f", unrelated.Total)
	}
}

func TestSimilarityHelpersSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"Animal Caretaker", "Soigneur animalier"},
		{"Vétérinaire", "veterinario"},
		{"", "chef"},
	}
	for _, p := range pairs {
		if titleSimilarity(p[0], p[1]) != titleSimilarity(p[1], p[0]) {
			t.Fatalf("title similarity not symmetric for %v", p)
		}
		a, b := tokenSet(p[0]), tokenSet(p[1])
		if jaccard(a, b) != jaccard(b, a) {
			t.Fatalf("jaccard not symmetric for %v", p)
		}
		ha := clusterHits(foldText(p[0]), DefaultKeywordClusters)
		hb := clusterHits(foldText(p[1]), DefaultKeywordClusters)
		if clusterBonus(ha, hb) != clusterBonus(hb, ha) {
			t.Fatalf("cluster bonus not symmetric for %v", p)
		}
	}
}

func TestFoldTextAndWordPrefix(t *testing.T) {
	if got := foldText("  Vétérinaire   Équin "); got != "veterinaire equin" {
		t.Fatalf("unexpected fold: %q", got)
	}
	if !containsWordPrefix("auxiliaire veterinaire", "vet") {
		t.Fatalf("expected prefix match")
	}
	if containsWordPrefix("velvet", "vet") {
		t.Fatalf("expected no match inside a word")
	}
	if got := clusterBonus([]bool{true, true, true}, []bool{true, true, true}); got != clusterBonusCap {
		t.Fatalf("expected capped bonus, got %f", got)
	}
}
