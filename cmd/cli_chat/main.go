package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"pathfinder-llm/internal/config"
	"pathfinder-llm/internal/domain"
	"pathfinder-llm/internal/llm"
	"pathfinder-llm/internal/logger"
	"pathfinder-llm/internal/repository"
	"pathfinder-llm/internal/service"
)

// cli_chat corre una conversacion completa en la terminal con almacenamiento en memoria.
func main() {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	zl, err := logger.New(false, cfg.LogDebug)
	if err != nil {
		log.Fatal(err)
	}
	defer zl.Sync()

	records, err := repository.LoadCatalogFile(cfg.CatalogFile)
	if err != nil {
		log.Fatalf("cargar catalogo %s: %v", cfg.CatalogFile, err)
	}
	fmt.Printf("Catalogo cargado: %d ocupaciones\n", len(records))

	sink := repository.NewMemoryUserProfileSink()
	deps := service.OrchestratorDeps{
		Conversations: repository.NewMemoryConversationRepository(),
		Catalog:       service.NewCatalogService(repository.NewMemoryOccupationRepository(records...), cfg.CatalogSource, cfg.CatalogCacheTTL, zl),
		Sink:          sink,
	}
	llmClient, err := llm.NewFromOptions(ctx, cfg.LLMOptions(), zl)
	if err != nil {
		zl.Warn("llm client init failed", zap.Error(err))
	}
	if llmClient != nil {
		deps.Analyzer = service.NewLLMAnalyzer(llmClient, zl)
		deps.Coach = service.NewLLMCoach(llmClient, zl)
		fmt.Println("Modo generativo activo.")
	} else {
		fmt.Println("Sin LLM configurado: preguntas por reglas.")
	}

	orch := service.NewOrchestrator(deps, cfg.OrchestratorSettings(), zl)
	defer orch.Wait()

	conv, err := orch.Start(ctx, "cli-user")
	if err != nil {
		log.Fatalf("iniciar conversacion: %v", err)
	}

	fmt.Println("---- Orientacion vocacional (comandos: /perfil, /pausa, /salir) ----")
	fmt.Printf("Guia > %s\n", conv.Messages[len(conv.Messages)-1].Content)

	for {
		fmt.Print("Tu > ")
		text, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		text = strings.TrimSpace(text)
		switch strings.ToLower(text) {
		case "":
			continue
		case "/salir":
			if _, err := orch.Abandon(ctx, conv.ID); err != nil && !errors.Is(err, service.ErrInvalidTransition) {
				fmt.Printf("Error cerrando: %v\n", err)
			}
			return
		case "/perfil":
			current, err := orch.Get(ctx, conv.ID)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			printProfile(current)
			continue
		case "/pausa":
			if _, err := orch.Pause(ctx, conv.ID); err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			fmt.Print("Conversacion pausada. Enter para retomar...")
			_, _ = reader.ReadString('\n')
			if _, err := orch.Resume(ctx, conv.ID); err != nil {
				fmt.Printf("Error: %v\n", err)
			}
			continue
		}

		result, err := orch.ProcessTurn(ctx, conv.ID, text)
		if errors.Is(err, service.ErrTurnFailed) {
			fmt.Printf("Guia > %s\n", service.ApologyMessage)
			continue
		}
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		for _, name := range result.Confirmed {
			fmt.Printf("  [hito confirmado: %s]\n", name)
		}
		if len(result.Recommendations) > 0 {
			fmt.Println("  Ocupaciones sugeridas:")
			for _, rec := range result.Recommendations {
				fmt.Printf("   - %s (%s, %.0f%%, %s)\n", rec.OccupationTitle, rec.ConfidenceTier, rec.MatchScore*100, rec.Method)
			}
		}
		fmt.Printf("Guia > %s\n", result.Reply.Content)

		if result.Conversation.Status == domain.StatusCompleted {
			orch.Wait()
			if label, err := sink.GetTargetOccupation(ctx, "cli-user"); err == nil && label != "" {
				fmt.Printf("Objetivo guardado en tu perfil: %s\n", label)
			}
			fmt.Println("Conversacion completada.")
			printProfile(result.Conversation)
			return
		}
	}
}

func printProfile(conv domain.Conversation) {
	summary := service.SummarizeProfile(&conv.Profile)
	fmt.Printf("--- Perfil (fase %s, completitud %.0f%%) ---\n", conv.Phase, summary.Completeness*100)
	for _, t := range summary.TopTraits {
		fmt.Printf("  %-22s %.2f (conf %.2f)\n", t.Trait, t.Score, t.Confidence)
	}
	for _, in := range summary.Interests {
		fmt.Printf("  interes: %s\n", in.Domain)
	}
	for _, m := range conv.Milestones {
		fmt.Printf("  hito %-24s %s\n", m.Name, m.State)
	}
}
