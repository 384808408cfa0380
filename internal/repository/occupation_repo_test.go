package repository

import (
	"context"
	"testing"

	"pathfinder-llm/internal/domain"
)

func TestMemoryOccupationRepository(t *testing.T) {
	var empathy, technical domain.TraitVector
	empathy[domain.TraitEmpathy] = 0.9
	technical[domain.TraitTechnicalAptitude] = 0.9

	repo := NewMemoryOccupationRepository(
		domain.OccupationRecord{ID: "M1805", Title: "Desarrollador", Source: "rome", TraitVector: technical},
		domain.OccupationRecord{ID: "J1506", Title: "Enfermero", Source: "ROME", TraitVector: empathy},
		domain.OccupationRecord{ID: "X1", Title: "Otro", Source: "esco"},
	)
	ctx := context.Background()

	all, err := repo.ListAll(ctx, "")
	if err != nil || len(all) != 3 || all[0].ID != "J1506" {
		t.Fatalf("expected all records ordered by id, got %+v (%v)", all, err)
	}
	rome, _ := repo.ListAll(ctx, "rome")
	if len(rome) != 2 {
		t.Fatalf("expected case-insensitive source filter, got %d", len(rome))
	}

	nearest, err := repo.Nearest(ctx, technical, 1, "rome")
	if err != nil || len(nearest) != 1 || nearest[0].ID != "M1805" {
		t.Fatalf("expected M1805 nearest, got %+v (%v)", nearest, err)
	}

	if err := repo.Upsert(ctx, domain.OccupationRecord{ID: "J1506", Title: "Enfermero/a", Source: "rome"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	rome, _ = repo.ListAll(ctx, "rome")
	if rome[0].Title != "Enfermero/a" {
		t.Fatalf("expected upsert to replace record, got %s", rome[0].Title)
	}
	if err := repo.Upsert(ctx, domain.OccupationRecord{ID: " "}); err == nil {
		t.Fatalf("expected error for empty id")
	}
}

func TestMemoryUserProfileSink(t *testing.T) {
	sink := NewMemoryUserProfileSink()
	ctx := context.Background()
	if label, _ := sink.GetTargetOccupation(ctx, "u1"); label != "" {
		t.Fatalf("expected empty target, got %q", label)
	}
	_ = sink.SetTargetOccupation(ctx, "u1", "Enfermero")
	_ = sink.SetTargetOccupation(ctx, "u1", "Soigneur animalier")
	if label, _ := sink.GetTargetOccupation(ctx, "u1"); label != "Soigneur animalier" {
		t.Fatalf("expected last target to win, got %q", label)
	}
}
