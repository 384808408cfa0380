package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"pathfinder-llm/internal/config"
	"pathfinder-llm/internal/domain"
	"pathfinder-llm/internal/repository"
	"pathfinder-llm/internal/service"
)

const (
	colorGreen = "\033[32m"
	colorRed   = "\033[31m"
	colorCyan  = "\033[36m"
	colorReset = "\033[0m"
)

// Scenario es una sugerencia en texto libre con el registro que deberia ganar.
type Scenario struct {
	Name       string                      `yaml:"name"`
	Suggestion domain.OccupationSuggestion `yaml:"suggestion"`
	ExpectedID string                      `yaml:"expected_id"`
	// MinScore vacio significa que alcanza con un match utilizable.
	MinScore float64 `yaml:"min_score"`
}

type scenarioFile struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

type outcome struct {
	Scenario Scenario
	Match    service.Match
	Passed   bool
}

// match_check evalua el reconciliador contra escenarios YAML, sin red ni base de datos.
// Uso: match_check [scenarios.yaml]
func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	path := "catalog/match_scenarios.yaml"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	catalog, err := repository.LoadCatalogFile(cfg.CatalogFile)
	if err != nil {
		log.Fatalf("cargar catalogo: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("abrir escenarios: %v", err)
	}
	scenarios, err := decodeScenarios(f)
	f.Close()
	if err != nil {
		log.Fatalf("leer escenarios: %v", err)
	}

	results := evaluate(service.NewReconciler(nil), scenarios, catalog)
	passed := 0
	for _, r := range results {
		printOutcome(r)
		if r.Passed {
			passed++
		}
	}
	fmt.Printf("\n%d/%d escenarios OK\n", passed, len(results))
	if passed != len(results) {
		os.Exit(1)
	}
}

func decodeScenarios(r io.Reader) ([]Scenario, error) {
	var file scenarioFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return file.Scenarios, nil
}

func evaluate(rec *service.Reconciler, scenarios []Scenario, catalog []domain.OccupationRecord) []outcome {
	out := make([]outcome, 0, len(scenarios))
	for _, sc := range scenarios {
		res := outcome{Scenario: sc}
		if matches := rec.Reconcile([]domain.OccupationSuggestion{sc.Suggestion}, catalog); len(matches) == 1 {
			res.Match = matches[0]
			res.Passed = res.Match.Usable() &&
				res.Match.Best.Record.ID == sc.ExpectedID &&
				res.Match.Best.Score >= sc.MinScore
		}
		out = append(out, res)
	}
	return out
}

func printOutcome(r outcome) {
	status := colorGreen + "OK " + colorReset
	if !r.Passed {
		status = colorRed + "FAIL" + colorReset
	}
	fmt.Printf("%s %s[%s]%s %q -> %s (%s) esperado %s\n",
		status, colorCyan, r.Scenario.Name, colorReset,
		r.Scenario.Suggestion.Title, r.Match.Best.Record.Title, r.Match.Best.Record.ID, r.Scenario.ExpectedID)
	b := r.Match.Best.Breakdown
	fmt.Printf("     total %.2f (%s) keyword %.2f title %.2f skills %.2f desc %.2f sector %.2f\n",
		b.Total, r.Match.Best.Tier, b.Keyword, b.Title, b.Skills, b.Description, b.Sector)
	for _, alt := range r.Match.Alternatives {
		fmt.Printf("     alt %s (%s) %.2f\n", alt.Record.Title, alt.Record.ID, alt.Score)
	}
}
