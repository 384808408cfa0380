package service

import (
	"math"
	"strings"

	"pathfinder-llm/internal/domain"
)

const engagementWordsTarget = 25.0

// turnQuality son las muestras de un turno antes de promediarlas.
type turnQuality struct {
	Engagement float64
	Confidence float64
	Flow       float64
}

// measureTurn: engagement por largo de respuesta, confianza media de las señales
// y flujo como 1 - solapamiento entre la nueva pregunta y la anterior.
func measureTurn(userText string, signals domain.Signals, question, previousQuestion string) turnQuality {
	words := len(strings.Fields(userText))
	q := turnQuality{Engagement: math.Min(float64(words)/engagementWordsTarget, 1)}

	var sum float64
	var n int
	for _, t := range signals.Traits {
		sum += domain.Clamp01(t.Confidence)
		n++
	}
	for _, in := range signals.Interests {
		sum += domain.Clamp01(in.Confidence)
		n++
	}
	if n > 0 {
		q.Confidence = sum / float64(n)
	}

	q.Flow = 1
	if previousQuestion != "" {
		q.Flow = 1 - overlapRatio(tokenSet(question), tokenSet(previousQuestion))
	}
	return q
}

// updateQuality aplica el promedio corrido m' = m + (x - m)/(n+1).
func updateQuality(m *domain.QualityMetrics, q turnQuality) {
	n := float64(m.Samples)
	m.Engagement += (q.Engagement - m.Engagement) / (n + 1)
	m.Confidence += (q.Confidence - m.Confidence) / (n + 1)
	m.Flow += (q.Flow - m.Flow) / (n + 1)
	m.Samples++
}
