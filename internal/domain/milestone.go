package domain

import "time"

// MilestoneName identifica uno de los cinco hitos ordenados de la conversacion.
type MilestoneName string

const (
	MilestonePassions MilestoneName = "passions_identified"
	MilestoneRole     MilestoneName = "role_determined"
	MilestoneDomain   MilestoneName = "domain_identified"
	MilestoneFormat   MilestoneName = "format_defined"
	MilestoneJob      MilestoneName = "job_identified"

	MilestoneCount = 5
)

// MilestoneOrder es el orden fijo de los hitos.
var MilestoneOrder = [MilestoneCount]MilestoneName{
	MilestonePassions,
	MilestoneRole,
	MilestoneDomain,
	MilestoneFormat,
	MilestoneJob,
}

// MilestoneIndex devuelve la posicion del hito o -1 si el nombre no existe.
func MilestoneIndex(name MilestoneName) int {
	for i, n := range MilestoneOrder {
		if n == name {
			return i
		}
	}
	return -1
}

type MilestoneState string

const (
	MilestoneUnreached         MilestoneState = "unreached"
	MilestoneDetected          MilestoneState = "detected"
	MilestoneNeedsConfirmation MilestoneState = "needs_confirmation"
	MilestoneConfirmed         MilestoneState = "confirmed"
)

type Milestone struct {
	Name       MilestoneName  `json:"name"`
	State      MilestoneState `json:"state"`
	Achieved   bool           `json:"achieved"`
	Confidence float64        `json:"confidence"` // 0-100
	Value      string         `json:"value,omitempty"`
	JobTitle   string         `json:"job_title,omitempty"`
	AchievedAt *time.Time     `json:"achieved_at,omitempty"`
}

func (m Milestone) Confirmed() bool {
	return m.State == MilestoneConfirmed
}

func (m Milestone) PendingConfirmation() bool {
	return m.State == MilestoneNeedsConfirmation
}

// NewMilestones crea los cinco hitos en estado inicial.
func NewMilestones() [MilestoneCount]Milestone {
	var out [MilestoneCount]Milestone
	for i, name := range MilestoneOrder {
		out[i] = Milestone{Name: name, State: MilestoneUnreached}
	}
	return out
}

// MilestoneDetection es la señal que produce el colaborador generativo por hito.
// Achieved es puntero para distinguir un payload sin el campo (malformado) de false.
type MilestoneDetection struct {
	Name              MilestoneName `json:"name"`
	Achieved          *bool         `json:"achieved"`
	Confidence        float64       `json:"confidence"`
	Value             string        `json:"value,omitempty"`
	JobTitle          string        `json:"job_title,omitempty"`
	NeedsConfirmation bool          `json:"needs_confirmation"`
}
