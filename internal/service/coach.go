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

var ErrCoachNotConfigured = errors.New("coach not configured")

// ProfileSummary es la vista compacta del perfil que se le pasa al colaborador generativo.
type ProfileSummary struct {
	TopTraits       []RankedTrait
	Interests       []domain.Interest
	Values          []domain.ValueEntry
	Constraints     []domain.Constraint
	WorkEnvironment domain.WorkEnvironment
	ExperienceLevel string
	Completeness    float64
}

// SummarizeProfile arma el resumen usando el agregador (top 5 rasgos).
func SummarizeProfile(p *domain.BuildingProfile) ProfileSummary {
	agg := NewProfileAggregator(p)
	return ProfileSummary{
		TopTraits:       agg.TopTraits(5),
		Interests:       p.Interests,
		Values:          p.Values,
		Constraints:     p.Constraints,
		WorkEnvironment: p.WorkEnvironment,
		ExperienceLevel: p.ExperienceLevel,
		Completeness:    agg.Completeness(),
	}
}

type CoachRequest struct {
	Phase      domain.Phase
	Turns      []domain.Message
	Profile    ProfileSummary
	Milestones [domain.MilestoneCount]domain.Milestone
}

// CoachReply es el siguiente turno del asistente mas las señales que el modelo infirio.
type CoachReply struct {
	Message  string
	Signals  domain.Signals
	Conclude bool
}

type SuggestRequest struct {
	Profile ProfileSummary
	Catalog []domain.OccupationRecord
	Limit   int
}

// Coach es el colaborador generativo: conduce la conversacion y sugiere ocupaciones.
type Coach interface {
	Respond(ctx context.Context, req CoachRequest) (CoachReply, error)
	Suggest(ctx context.Context, req SuggestRequest) ([]domain.OccupationSuggestion, error)
}

// LLMCoach implementa Coach sobre un LLMClient. Una salida sin JSON es un error.
type LLMCoach struct {
	llmClient llm.LLMClient
	logger    *zap.Logger
}

func NewLLMCoach(llmClient llm.LLMClient, logger *zap.Logger) *LLMCoach {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMCoach{llmClient: llmClient, logger: logger}
}

type coachPayload struct {
	signalsPayload
	Message  string `json:"message"`
	Conclude bool   `json:"conclude"`
}

func (c *LLMCoach) Respond(ctx context.Context, req CoachRequest) (CoachReply, error) {
	if c == nil || c.llmClient == nil {
		return CoachReply{}, ErrCoachNotConfigured
	}
	raw, err := c.llmClient.Generate(ctx, buildCoachPrompt(req))
	if err != nil {
		return CoachReply{}, fmt.Errorf("llm generate: %w", err)
	}

	var payload coachPayload
	if err := decodeLLMObject(raw, &payload); err != nil {
		c.logger.Warn("coach response not parseable", zap.String("raw", logger.TruncateForLog(raw, 200)))
		return CoachReply{}, fmt.Errorf("parse coach response: %w", err)
	}
	msg := unescapeMaybeDoubleEscaped(payload.Message)
	if msg == "" {
		return CoachReply{}, fmt.Errorf("%w: empty message", ErrMalformedLLMOutput)
	}
	signals, dropped := payload.signalsPayload.toSignals()
	if dropped > 0 {
		c.logger.Debug("malformed coach items dropped", zap.Int("dropped", dropped))
	}
	return CoachReply{Message: msg, Signals: signals, Conclude: payload.Conclude}, nil
}

type suggestPayload struct {
	Suggestions []domain.OccupationSuggestion `json:"suggestions"`
}

func (c *LLMCoach) Suggest(ctx context.Context, req SuggestRequest) ([]domain.OccupationSuggestion, error) {
	if c == nil || c.llmClient == nil {
		return nil, ErrCoachNotConfigured
	}
	raw, err := c.llmClient.Generate(ctx, buildSuggestPrompt(req))
	if err != nil {
		return nil, fmt.Errorf("llm generate: %w", err)
	}
	var payload suggestPayload
	if err := decodeLLMObject(raw, &payload); err != nil {
		c.logger.Warn("suggest response not parseable", zap.String("raw", logger.TruncateForLog(raw, 200)))
		return nil, fmt.Errorf("parse suggest response: %w", err)
	}

	limit := req.Limit
	if limit <= 0 || limit > 3 {
		limit = 3
	}
	out := make([]domain.OccupationSuggestion, 0, limit)
	for _, s := range payload.Suggestions {
		if strings.TrimSpace(s.Title) == "" {
			continue
		}
		out = append(out, s)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func writeProfileSummary(sb *strings.Builder, p ProfileSummary) {
	sb.WriteString("=== PERFIL ===\n")
	fmt.Fprintf(sb, "Completitud: %.0f%%\n", p.Completeness*100)
	for _, t := range p.TopTraits {
		fmt.Fprintf(sb, "- rasgo %s: %.2f (confianza %.2f)\n", t.Trait, t.Score, t.Confidence)
	}
	for _, in := range p.Interests {
		fmt.Fprintf(sb, "- interes %s: nivel %.1f\n", in.Domain, in.Level)
	}
	for _, v := range p.Values {
		fmt.Fprintf(sb, "- valor %s: importancia %d\n", v.Value, v.Importance)
	}
	for _, c := range p.Constraints {
		fmt.Fprintf(sb, "- restriccion %s (%s): %s\n", c.Type, c.Impact, c.Description)
	}
	if !p.WorkEnvironment.IsZero() {
		w := p.WorkEnvironment
		fmt.Fprintf(sb, "- entorno: equipo=%s modalidad=%s ritmo=%s estructura=%s\n", w.TeamSize, w.LocationMode, w.Pace, w.Structure)
	}
	if p.ExperienceLevel != "" {
		fmt.Fprintf(sb, "- experiencia: %s\n", p.ExperienceLevel)
	}
}

func buildCoachPrompt(req CoachRequest) string {
	var sb strings.Builder
	sb.WriteString(coachSystemPrompt)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Fase: %s\n\n", req.Phase)
	writeProfileSummary(&sb, req.Profile)

	sb.WriteString("\n=== HITOS ===\n")
	for _, m := range req.Milestones {
		fmt.Fprintf(&sb, "- %s: %s", m.Name, m.State)
		if m.Value != "" {
			fmt.Fprintf(&sb, " (%s)", m.Value)
		}
		if m.JobTitle != "" {
			fmt.Fprintf(&sb, " [%s]", m.JobTitle)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\n=== CONVERSACION RECIENTE ===\n")
	for _, msg := range req.Turns {
		role := "Usuario"
		if msg.Role == domain.RoleAssistant {
			role = "Orientador"
		}
		fmt.Fprintf(&sb, "%s: %s\n", role, strings.TrimSpace(msg.Content))
	}
	return sb.String()
}

func buildSuggestPrompt(req SuggestRequest) string {
	var sb strings.Builder
	sb.WriteString(suggestSystemPrompt)
	sb.WriteString("\n\n")
	writeProfileSummary(&sb, req.Profile)
	sb.WriteString("\n=== OCUPACIONES DE REFERENCIA ===\n")
	for _, rec := range req.Catalog {
		fmt.Fprintf(&sb, "- %s", rec.Title)
		if rec.Sector != "" {
			fmt.Fprintf(&sb, " [%s]", rec.Sector)
		}
		if len(rec.Skills) > 0 {
			fmt.Fprintf(&sb, ": %s", strings.Join(rec.Skills, ", "))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
