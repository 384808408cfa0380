package service

import (
	"time"

	"go.uber.org/zap"

	"pathfinder-llm/internal/domain"
)

type milestoneEvent string

const (
	eventDetectAuto    milestoneEvent = "detect_auto"
	eventDetectPending milestoneEvent = "detect_pending"
	eventAffirm        milestoneEvent = "affirm"
	eventReject        milestoneEvent = "reject"
)

type transitionKey struct {
	from  domain.MilestoneState
	event milestoneEvent
}

// milestoneTransitions es la tabla completa de transiciones validas.
// Un hito confirmado no aparece como origen: es inmutable.
var milestoneTransitions = map[transitionKey]domain.MilestoneState{
	{domain.MilestoneUnreached, eventDetectAuto}:            domain.MilestoneConfirmed,
	{domain.MilestoneUnreached, eventDetectPending}:         domain.MilestoneNeedsConfirmation,
	{domain.MilestoneDetected, eventDetectAuto}:             domain.MilestoneConfirmed,
	{domain.MilestoneDetected, eventDetectPending}:          domain.MilestoneNeedsConfirmation,
	{domain.MilestoneNeedsConfirmation, eventDetectAuto}:    domain.MilestoneConfirmed,
	{domain.MilestoneNeedsConfirmation, eventDetectPending}: domain.MilestoneNeedsConfirmation,
	{domain.MilestoneNeedsConfirmation, eventAffirm}:        domain.MilestoneConfirmed,
	{domain.MilestoneNeedsConfirmation, eventReject}:        domain.MilestoneDetected,
}

const rejectionPenalty = 20.0

// MilestoneMachine aplica detecciones y confirmaciones sobre los cinco hitos de una conversacion.
type MilestoneMachine struct {
	milestones *[domain.MilestoneCount]domain.Milestone
	rules      []ConfirmationRule
	logger     *zap.Logger
	now        func() time.Time
}

func NewMilestoneMachine(milestones *[domain.MilestoneCount]domain.Milestone, rules []ConfirmationRule, logger *zap.Logger) *MilestoneMachine {
	if rules == nil {
		rules = DefaultConfirmationRules
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MilestoneMachine{
		milestones: milestones,
		rules:      rules,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// LastConfirmedIndex devuelve el mayor indice confirmado o -1.
func (m *MilestoneMachine) LastConfirmedIndex() int {
	last := -1
	for i, ms := range m.milestones {
		if ms.Confirmed() {
			last = i
		}
	}
	return last
}

// gateOpen: los hitos 0-2 exigen el anterior confirmado; 3-4 solo exigen el 2.
func gateOpen(index, lastConfirmed int) bool {
	if index <= 2 {
		return index <= lastConfirmed+1
	}
	return lastConfirmed >= 2
}

func (m *MilestoneMachine) fire(index int, event milestoneEvent) bool {
	ms := &m.milestones[index]
	next, ok := milestoneTransitions[transitionKey{ms.State, event}]
	if !ok {
		return false
	}
	ms.State = next
	return true
}

// Pending devuelve el indice del unico hito pendiente de confirmacion, o -1 si hay cero o varios.
func (m *MilestoneMachine) Pending() int {
	idx := -1
	for i, ms := range m.milestones {
		if ms.PendingConfirmation() {
			if idx >= 0 {
				return -1
			}
			idx = i
		}
	}
	return idx
}

// ApplyConfirmation interpreta la respuesta del usuario si hay exactamente un hito pendiente.
// Devuelve el indice del hito confirmado, o -1.
func (m *MilestoneMachine) ApplyConfirmation(userText string) (ConfirmationVerdict, int) {
	idx := m.Pending()
	if idx < 0 {
		return VerdictUnknown, -1
	}
	verdict := ClassifyConfirmation(userText, m.rules)
	ms := &m.milestones[idx]
	switch verdict {
	case VerdictAffirm:
		if m.fire(idx, eventAffirm) {
			now := m.now()
			ms.Achieved = true
			ms.AchievedAt = &now
			m.logger.Info("milestone confirmed by user", zap.String("milestone", string(ms.Name)))
			return verdict, idx
		}
	case VerdictReject:
		if m.fire(idx, eventReject) {
			ms.Achieved = false
			ms.AchievedAt = nil
			ms.Confidence = domain.ClampRange(ms.Confidence-rejectionPenalty, 0, 100)
			m.logger.Info("milestone rejected by user", zap.String("milestone", string(ms.Name)), zap.Float64("confidence", ms.Confidence))
		}
	}
	return verdict, -1
}

// ApplyDetections procesa las detecciones del turno en el orden fijo de hitos.
// Devuelve los indices que quedaron confirmados en esta llamada.
func (m *MilestoneMachine) ApplyDetections(detections []domain.MilestoneDetection) []int {
	return m.ApplyDetectionsGated(detections, m.LastConfirmedIndex())
}

// ApplyDetectionsGated evalua la compuerta contra lastConfirmed fijado por el llamador,
// de modo que varias tandas del mismo turno comparten una sola foto de los hitos.
func (m *MilestoneMachine) ApplyDetectionsGated(detections []domain.MilestoneDetection, lastConfirmed int) []int {
	byIndex := make(map[int]domain.MilestoneDetection, len(detections))
	for _, d := range detections {
		idx := domain.MilestoneIndex(d.Name)
		if idx < 0 {
			m.logger.Debug("unknown milestone dropped", zap.String("milestone", string(d.Name)))
			continue
		}
		if d.Achieved == nil {
			m.logger.Debug("malformed milestone signal dropped", zap.String("milestone", string(d.Name)))
			continue
		}
		if d.Confidence < 0 || d.Confidence > 100 {
			m.logger.Debug("milestone confidence out of range", zap.String("milestone", string(d.Name)), zap.Float64("confidence", d.Confidence))
			continue
		}
		byIndex[idx] = d
	}

	var confirmed []int
	for idx := 0; idx < domain.MilestoneCount; idx++ {
		d, ok := byIndex[idx]
		if !ok || !*d.Achieved {
			continue
		}
		if !gateOpen(idx, lastConfirmed) {
			m.logger.Info("milestone detection skipped by ordering gate",
				zap.String("milestone", string(d.Name)),
				zap.Int("last_confirmed_index", lastConfirmed),
			)
			continue
		}
		event := eventDetectPending
		if !d.NeedsConfirmation {
			event = eventDetectAuto
		}
		if !m.fire(idx, event) {
			continue
		}
		ms := &m.milestones[idx]
		ms.Achieved = true
		ms.Confidence = d.Confidence
		if d.Value != "" {
			ms.Value = d.Value
		}
		if d.JobTitle != "" {
			ms.JobTitle = d.JobTitle
		}
		if ms.Confirmed() {
			now := m.now()
			ms.AchievedAt = &now
			confirmed = append(confirmed, idx)
		}
	}
	return confirmed
}
