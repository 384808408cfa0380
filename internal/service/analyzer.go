package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"pathfinder-llm/internal/domain"
	"pathfinder-llm/internal/llm"
	"pathfinder-llm/internal/logger"
)

// AnalyzeRequest es el texto del usuario mas contexto liviano.
type AnalyzeRequest struct {
	Text             string
	Phase            domain.Phase
	KnownTraits      []RankedTrait
	PendingMilestone domain.MilestoneName
}

// SignalAnalyzer extrae señales estructuradas de un mensaje del usuario.
type SignalAnalyzer interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (domain.Signals, error)
}

var ErrAnalyzerNotConfigured = errors.New("signal analyzer not configured")

// LLMAnalyzer usa el LLM para inferir rasgos, intereses, valores, restricciones e hitos.
type LLMAnalyzer struct {
	llmClient llm.LLMClient
	logger    *zap.Logger
}

func NewLLMAnalyzer(llmClient llm.LLMClient, logger *zap.Logger) *LLMAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMAnalyzer{llmClient: llmClient, logger: logger}
}

func (a *LLMAnalyzer) Analyze(ctx context.Context, req AnalyzeRequest) (domain.Signals, error) {
	if a == nil || a.llmClient == nil {
		return domain.Signals{}, ErrAnalyzerNotConfigured
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return domain.Signals{}, nil
	}

	rawResp, err := a.llmClient.Generate(ctx, buildAnalysisPrompt(req))
	if err != nil {
		return domain.Signals{}, fmt.Errorf("llm generate: %w", err)
	}

	var payload signalsPayload
	if err := decodeLLMObject(rawResp, &payload); err != nil {
		a.logger.Warn("analysis response not parseable", zap.String("raw", logger.TruncateForLog(rawResp, 200)))
		return domain.Signals{}, fmt.Errorf("parse llm response: %w", err)
	}
	signals, dropped := payload.toSignals()
	if dropped > 0 {
		a.logger.Debug("malformed analysis items dropped", zap.Int("dropped", dropped))
	}
	return signals, nil
}

func buildAnalysisPrompt(req AnalyzeRequest) string {
	var sb strings.Builder
	sb.WriteString(analysisSystemPrompt)
	sb.WriteString("\n\nFase actual: ")
	sb.WriteString(string(req.Phase))
	if len(req.KnownTraits) > 0 {
		sb.WriteString("\nRasgos ya observados: ")
		for i, t := range req.KnownTraits {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s=%.2f", t.Trait, t.Score)
		}
	}
	if req.PendingMilestone != "" {
		fmt.Fprintf(&sb, "\nHito pendiente de confirmacion: %s", req.PendingMilestone)
	}
	sb.WriteString("\n\nTexto del usuario:\n")
	sb.WriteString(strings.TrimSpace(req.Text))
	return sb.String()
}
