package repository

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"pathfinder-llm/internal/domain"
)

// catalogFile es el formato de importacion: los rasgos van por nombre.
type catalogFile struct {
	Source      string          `yaml:"source"`
	Occupations []catalogRecord `yaml:"occupations"`
}

type catalogRecord struct {
	domain.OccupationRecord `yaml:",inline"`
	Traits                  map[string]float64 `yaml:"traits"`
}

// DecodeCatalogYAML lee un catalogo. El source del archivo aplica a los registros que no traen uno.
func DecodeCatalogYAML(r io.Reader) ([]domain.OccupationRecord, error) {
	var file catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	seen := make(map[string]bool, len(file.Occupations))
	out := make([]domain.OccupationRecord, 0, len(file.Occupations))
	for i, item := range file.Occupations {
		rec := item.OccupationRecord
		rec.ID = strings.TrimSpace(rec.ID)
		rec.Title = strings.TrimSpace(rec.Title)
		if rec.ID == "" || rec.Title == "" {
			return nil, fmt.Errorf("occupation #%d: id and title are required", i+1)
		}
		if seen[rec.ID] {
			return nil, fmt.Errorf("occupation %s: duplicated id", rec.ID)
		}
		seen[rec.ID] = true
		vec, err := domain.TraitVectorFromMap(item.Traits)
		if err != nil {
			return nil, fmt.Errorf("occupation %s: %w", rec.ID, err)
		}
		rec.TraitVector = vec
		if rec.Source == "" {
			rec.Source = file.Source
		}
		out = append(out, rec)
	}
	return out, nil
}

// LoadCatalogFile abre y decodifica un catalogo YAML del disco.
func LoadCatalogFile(path string) ([]domain.OccupationRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeCatalogYAML(f)
}
