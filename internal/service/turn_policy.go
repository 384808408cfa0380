package service

import "pathfinder-llm/internal/domain"

// Umbrales de avance de fase por cantidad de preguntas del asistente.
const (
	explorationAfterQuestions     = 3
	deepeningAfterQuestions       = 6
	conclusionAfterQuestions      = 12
	earlyConclusionAfterQuestions = 8
	strongInterestsForConclusion  = 3
)

// shouldRecommend decide si este turno recalcula recomendaciones.
// Elegibilidad por volumen, fase o intereses fuertes; el ritmo se cuenta en turnos del usuario.
func shouldRecommend(c *domain.Conversation, s OrchestratorSettings) bool {
	eligible := len(c.Messages) >= s.RecommendationMinMessages ||
		c.Phase == domain.PhaseConclusion ||
		c.Profile.StrongInterestCount() >= strongInterestsForConclusion
	if !eligible {
		return false
	}
	every := s.RecommendationEvery
	if every <= 1 {
		return true
	}
	return userTurnCount(c)%every == 0
}

func userTurnCount(c *domain.Conversation) int {
	n := 0
	for _, m := range c.Messages {
		if m.Role == domain.RoleUser {
			n++
		}
	}
	return n
}

// advancePhase aplica la transicion de fase al final del turno. Nunca retrocede.
// Devuelve true si la conversacion queda completada (segunda entrada a conclusion).
func advancePhase(c *domain.Conversation, concludeRequested bool) bool {
	wantsConclusion := c.QuestionCount >= conclusionAfterQuestions ||
		(c.Profile.StrongInterestCount() >= strongInterestsForConclusion && c.QuestionCount >= earlyConclusionAfterQuestions) ||
		concludeRequested
	if wantsConclusion {
		c.ConclusionEntries++
		if c.Phase == domain.PhaseConclusion && c.ConclusionEntries >= 2 {
			c.Status = domain.StatusCompleted
			return true
		}
		c.Phase = domain.PhaseConclusion
		return false
	}

	next := c.Phase
	switch {
	case c.QuestionCount >= deepeningAfterQuestions:
		next = domain.PhaseDeepening
	case c.QuestionCount >= explorationAfterQuestions:
		next = domain.PhaseExploration
	}
	if c.Phase.Before(next) {
		c.Phase = next
	}
	return false
}
