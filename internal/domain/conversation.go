package domain

import "time"

type ConversationStatus string

const (
	StatusActive    ConversationStatus = "active"
	StatusPaused    ConversationStatus = "paused"
	StatusCompleted ConversationStatus = "completed"
	StatusAbandoned ConversationStatus = "abandoned"
)

// Terminal indica que la conversacion ya no admite mutaciones.
func (s ConversationStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusAbandoned
}

type Phase string

const (
	PhaseIntroduction Phase = "introduction"
	PhaseExploration  Phase = "exploration"
	PhaseDeepening    Phase = "deepening"
	PhaseConclusion   Phase = "conclusion"
)

func phaseRank(p Phase) int {
	switch p {
	case PhaseIntroduction:
		return 0
	case PhaseExploration:
		return 1
	case PhaseDeepening:
		return 2
	case PhaseConclusion:
		return 3
	}
	return -1
}

// Before reporta si p esta antes que other en la secuencia de fases.
func (p Phase) Before(other Phase) bool {
	a, b := phaseRank(p), phaseRank(other)
	return a >= 0 && b >= 0 && a < b
}

func (p Phase) Valid() bool {
	return phaseRank(p) >= 0
}

// SessionState guarda la degradacion "pegajosa" de colaboradores para la conversacion.
type SessionState struct {
	AnalyzerDegraded   bool `json:"analyzer_degraded"`
	GenerativeDegraded bool `json:"generative_degraded"`
	GenerativeFailures int  `json:"generative_failures"`
}

// QualityMetrics son promedios corridos actualizados en cada turno.
type QualityMetrics struct {
	Engagement float64 `json:"engagement"`
	Confidence float64 `json:"confidence"`
	Flow       float64 `json:"flow"`
	Samples    int     `json:"samples"`
}

// Conversation es el agregado que se persiste completo por turno.
type Conversation struct {
	ID                string                    `json:"id"`
	UserID            string                    `json:"user_id"`
	Status            ConversationStatus        `json:"status"`
	Phase             Phase                     `json:"phase"`
	Profile           BuildingProfile           `json:"profile"`
	Milestones        [MilestoneCount]Milestone `json:"milestones"`
	Messages          []Message                 `json:"messages"`
	Recommendations   []Recommendation          `json:"recommendations"`
	Session           SessionState              `json:"session"`
	Quality           QualityMetrics            `json:"quality"`
	QuestionCount     int                       `json:"question_count"`
	ConclusionEntries int                       `json:"conclusion_entries"`
	Version           int                       `json:"version"`
	CreatedAt         time.Time                 `json:"created_at"`
	UpdatedAt         time.Time                 `json:"updated_at"`
}

// AssistantMessages devuelve los ultimos n mensajes del asistente, del mas viejo al mas nuevo.
func (c *Conversation) AssistantMessages(n int) []string {
	var out []string
	for i := len(c.Messages) - 1; i >= 0 && len(out) < n; i-- {
		if c.Messages[i].Role == RoleAssistant {
			out = append(out, c.Messages[i].Content)
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
