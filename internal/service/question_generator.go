package service

import (
	"fmt"

	"pathfinder-llm/internal/domain"
)

const (
	duplicateLookback     = 5
	duplicateOverlapLimit = 0.6
)

// Estrategias del generador por reglas.
const (
	StrategyConfirmation = "confirmation"
	StrategyInterests    = "interests"
	StrategyValues       = "values"
	StrategyEnvironment  = "environment"
	StrategyPhase        = "phase"
)

var phaseQuestions = map[domain.Phase][]string{
	domain.PhaseIntroduction: {
		"Para empezar, contame que cosas te gusta hacer en tu tiempo libre.",
		"¿Que actividades te hacen perder la nocion del tiempo?",
		"¿Hubo alguna materia o tema que siempre te haya llamado la atencion?",
	},
	domain.PhaseExploration: {
		"¿Preferis trabajar con personas, con datos, con objetos o con ideas?",
		"Contame de un proyecto o tarea de la que te sientas orgulloso.",
		"¿Que tipo de problemas te gusta resolver?",
		"¿En que situaciones la gente suele pedirte ayuda?",
	},
	domain.PhaseDeepening: {
		"Imagina un dia de trabajo ideal: ¿donde estas y que haces en la primera hora?",
		"¿Que tareas te desgastan aunque sepas hacerlas bien?",
		"¿Te ves mas en un rol de especialista o coordinando a otros?",
		"¿Que sector te atrae mas para aplicar lo que te gusta?",
	},
	domain.PhaseConclusion: {
		"Con todo lo que hablamos, ¿que ocupacion te entusiasma mas explorar?",
		"¿Hay algun trabajo concreto que quieras que miremos en detalle?",
		"¿Que primer paso te gustaria dar en las proximas semanas?",
	},
}

var gapQuestions = map[string][]string{
	StrategyInterests: {
		"¿Que temas podrias estudiar durante horas sin aburrirte?",
		"Si pudieras aprender cualquier oficio gratis, ¿cual elegirias?",
	},
	StrategyValues: {
		"¿Que es lo mas importante para vos en un trabajo: estabilidad, libertad, ingresos o ayudar a otros?",
		"¿Que te haria sentir que tu trabajo vale la pena?",
	},
	StrategyEnvironment: {
		"¿Preferis trabajar desde casa, en una oficina o al aire libre?",
		"¿Te sentis mas comodo en equipos chicos o en organizaciones grandes?",
	},
}

// GeneratedQuestion es la pregunta elegida y la estrategia que la produjo.
type GeneratedQuestion struct {
	Text     string
	Strategy string
}

// QuestionGenerator produce el siguiente turno sin colaborador generativo.
type QuestionGenerator struct{}

func NewQuestionGenerator() *QuestionGenerator {
	return &QuestionGenerator{}
}

// Next elige la pregunta segun hito pendiente, huecos del perfil y fase, evitando
// repetir algo casi igual a las ultimas preguntas del asistente.
func (g *QuestionGenerator) Next(c *domain.Conversation) GeneratedQuestion {
	recent := c.AssistantMessages(duplicateLookback)

	machine := NewMilestoneMachine(&c.Milestones, nil, nil)
	if idx := machine.Pending(); idx >= 0 {
		q := confirmationQuestion(c.Milestones[idx])
		if !isNearDuplicate(q, recent) {
			return GeneratedQuestion{Text: q, Strategy: StrategyConfirmation}
		}
	}

	var candidates []GeneratedQuestion
	if c.Phase != domain.PhaseIntroduction {
		p := &c.Profile
		if len(p.Interests) < 3 {
			candidates = appendStrategy(candidates, StrategyInterests, gapQuestions[StrategyInterests])
		}
		if len(p.Values) < 2 {
			candidates = appendStrategy(candidates, StrategyValues, gapQuestions[StrategyValues])
		}
		if p.WorkEnvironment.IsZero() {
			candidates = appendStrategy(candidates, StrategyEnvironment, gapQuestions[StrategyEnvironment])
		}
	}
	candidates = appendStrategy(candidates, StrategyPhase, rotate(phaseQuestions[c.Phase], c.QuestionCount))

	for _, cand := range candidates {
		if !isNearDuplicate(cand.Text, recent) {
			return cand
		}
	}

	// Todo el banco esta repetido: se recorre el resto de fases antes de rendirse.
	for _, phase := range []domain.Phase{domain.PhaseExploration, domain.PhaseDeepening, domain.PhaseIntroduction, domain.PhaseConclusion} {
		for _, q := range phaseQuestions[phase] {
			if !isNearDuplicate(q, recent) {
				return GeneratedQuestion{Text: q, Strategy: StrategyPhase}
			}
		}
	}
	return GeneratedQuestion{Text: "Contame un poco mas sobre eso.", Strategy: StrategyPhase}
}

func confirmationQuestion(m domain.Milestone) string {
	subject := m.Value
	if m.JobTitle != "" {
		subject = m.JobTitle
	}
	switch m.Name {
	case domain.MilestonePassions:
		if subject != "" {
			return fmt.Sprintf("Me parece que lo que mas te apasiona es %s. ¿Es asi?", subject)
		}
		return "Creo que ya identificamos lo que te apasiona. ¿Lo confirmas?"
	case domain.MilestoneRole:
		return fmt.Sprintf("Entiendo que te ves en un rol de %s. ¿Es correcto?", orDefault(subject, "ese tipo"))
	case domain.MilestoneDomain:
		return fmt.Sprintf("¿Confirmas que el area que mas te interesa es %s?", orDefault(subject, "la que mencionaste"))
	case domain.MilestoneFormat:
		return fmt.Sprintf("¿El formato de trabajo que buscas es %s?", orDefault(subject, "el que describiste"))
	default:
		return fmt.Sprintf("¿Te identificas con el trabajo de %s?", orDefault(subject, "la ocupacion que hablamos"))
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func appendStrategy(out []GeneratedQuestion, strategy string, questions []string) []GeneratedQuestion {
	for _, q := range questions {
		out = append(out, GeneratedQuestion{Text: q, Strategy: strategy})
	}
	return out
}

// rotate desplaza la lista para no empezar siempre por la misma pregunta.
func rotate(items []string, offset int) []string {
	if len(items) == 0 {
		return nil
	}
	offset %= len(items)
	if offset < 0 {
		offset += len(items)
	}
	out := make([]string, 0, len(items))
	out = append(out, items[offset:]...)
	return append(out, items[:offset]...)
}

func isNearDuplicate(candidate string, recent []string) bool {
	cand := tokenSet(candidate)
	for _, prev := range recent {
		if overlapRatio(cand, tokenSet(prev)) > duplicateOverlapLimit {
			return true
		}
	}
	return false
}
