package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Trait identifica una dimension del espacio de rasgos compartido por perfiles y ocupaciones.
type Trait int

const (
	TraitOpenness Trait = iota
	TraitConscientiousness
	TraitExtraversion
	TraitAgreeableness
	TraitEmotionalStability
	TraitAnalyticalThinking
	TraitCreativity
	TraitLeadership
	TraitTeamwork
	TraitCommunication
	TraitProblemSolving
	TraitAdaptability
	TraitAttentionToDetail
	TraitEmpathy
	TraitTechnicalAptitude

	// TraitCount es la longitud de todo vector de rasgos.
	TraitCount
)

var ErrUnknownTrait = errors.New("unknown trait")

var traitNames = [TraitCount]string{
	"openness",
	"conscientiousness",
	"extraversion",
	"agreeableness",
	"emotional_stability",
	"analytical_thinking",
	"creativity",
	"leadership",
	"teamwork",
	"communication",
	"problem_solving",
	"adaptability",
	"attention_to_detail",
	"empathy",
	"technical_aptitude",
}

// traitIndex se construye una sola vez al cargar el paquete.
var traitIndex = func() map[string]Trait {
	idx := make(map[string]Trait, TraitCount)
	for i, name := range traitNames {
		idx[name] = Trait(i)
	}
	return idx
}()

func (t Trait) String() string {
	if !t.Valid() {
		return fmt.Sprintf("trait(%d)", int(t))
	}
	return traitNames[t]
}

func (t Trait) Valid() bool {
	return t >= 0 && t < TraitCount
}

func (t Trait) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTrait, int(t))
	}
	return []byte(traitNames[t]), nil
}

func (t *Trait) UnmarshalText(text []byte) error {
	parsed, err := ParseTrait(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// AllTraits devuelve las dimensiones en el orden canonico.
func AllTraits() []Trait {
	out := make([]Trait, TraitCount)
	for i := range out {
		out[i] = Trait(i)
	}
	return out
}

// ParseTrait resuelve un nombre (case-insensitive, acepta espacios o guiones) a su dimension.
func ParseTrait(name string) (Trait, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	t, ok := traitIndex[key]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownTrait, name)
	}
	return t, nil
}

// TraitVector es un vector de rasgos con valores en [0,1], indexado por Trait.
type TraitVector [TraitCount]float64

// TraitVectorFromMap rechaza claves desconocidas; las dimensiones ausentes quedan en 0.
func TraitVectorFromMap(values map[string]float64) (TraitVector, error) {
	var v TraitVector
	for name, value := range values {
		t, err := ParseTrait(name)
		if err != nil {
			return TraitVector{}, err
		}
		v[t] = Clamp01(value)
	}
	return v, nil
}

// Map expone el vector con nombres de rasgo como claves.
func (v TraitVector) Map() map[string]float64 {
	out := make(map[string]float64, TraitCount)
	for i, value := range v {
		out[traitNames[i]] = value
	}
	return out
}

// Float32s convierte el vector al formato usado por la columna pgvector.
func (v TraitVector) Float32s() []float32 {
	out := make([]float32, TraitCount)
	for i, value := range v {
		out[i] = float32(value)
	}
	return out
}

// TraitVectorFromFloat32s es la inversa de Float32s; valores sobrantes se ignoran.
func TraitVectorFromFloat32s(values []float32) TraitVector {
	var v TraitVector
	for i := 0; i < len(values) && i < int(TraitCount); i++ {
		v[i] = Clamp01(float64(values[i]))
	}
	return v
}

// Cosine es la similitud coseno; 0 si alguno de los vectores tiene magnitud cero.
func (v TraitVector) Cosine(other TraitVector) float64 {
	var dot, magA, magB float64
	for i := range v {
		dot += v[i] * other[i]
		magA += v[i] * v[i]
		magB += other[i] * other[i]
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return ClampRange(dot/(math.Sqrt(magA)*math.Sqrt(magB)), -1, 1)
}

// Clamp01 acota al rango [0,1]; NaN se trata como 0.
func Clamp01(x float64) float64 {
	if math.IsNaN(x) || x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// ClampRange acota x a [lo,hi]; NaN cae en lo.
func ClampRange(x, lo, hi float64) float64 {
	if math.IsNaN(x) || x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
