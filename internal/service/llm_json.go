package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"pathfinder-llm/internal/domain"
)

// ErrMalformedLLMOutput indica que la salida del modelo no contiene un objeto JSON utilizable.
var ErrMalformedLLMOutput = errors.New("malformed llm output")

var (
	fenceStart = regexp.MustCompile("(?is)^\\s*```(?:json)?\\s*")
	fenceEnd   = regexp.MustCompile("(?is)\\s*```\\s*$")
)

// cleanLLMJSONResponse quita fences ```json ... ``` y BOM, dejando el contenido usable.
func cleanLLMJSONResponse(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	s = strings.TrimPrefix(s, "\uFEFF")
	s = fenceStart.ReplaceAllString(s, "")
	s = fenceEnd.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func extractFirstJSONObject(input string) string {
	start := strings.IndexByte(input, '{')
	if start == -1 {
		return ""
	}

	inString := false
	escape := false
	depth := 0

	for i := start; i < len(input); i++ {
		ch := input[i]

		if inString {
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return input[start : i+1]
			}
			if depth < 0 {
				return ""
			}
		}
	}

	return ""
}

// decodeLLMObject limpia la respuesta, extrae el primer objeto y lo decodifica en out.
// Texto sin JSON es un error: nunca se intenta rescatar texto libre.
func decodeLLMObject(raw string, out any) error {
	cleaned := cleanLLMJSONResponse(raw)
	obj := extractFirstJSONObject(cleaned)
	if obj == "" {
		return fmt.Errorf("%w: no json object found", ErrMalformedLLMOutput)
	}
	if err := json.Unmarshal([]byte(obj), out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedLLMOutput, err)
	}
	return nil
}

// unescapeMaybeDoubleEscaped arregla textos que el modelo manda doble-escapados ("hola\\nmundo").
func unescapeMaybeDoubleEscaped(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || !strings.Contains(s, `\`) {
		return s
	}
	quoted := `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
	if unq, err := strconv.Unquote(quoted); err == nil {
		return strings.TrimSpace(unq)
	}
	replacer := strings.NewReplacer(
		`\\`, `\`,
		`\"`, `"`,
		`\n`, "\n",
		`\r`, "\r",
		`\t`, "\t",
	)
	return replacer.Replace(s)
}

// signalsPayload es la forma cruda de las señales; cada item se decodifica por separado
// para que uno malformado no invalide el resto.
type signalsPayload struct {
	Traits           []json.RawMessage      `json:"traits"`
	Interests        []json.RawMessage      `json:"interests"`
	Values           []json.RawMessage      `json:"values"`
	Constraints      []json.RawMessage      `json:"constraints"`
	WorkEnvironment  domain.WorkEnvironment `json:"work_environment"`
	PersonalityNotes []string               `json:"personality_notes"`
	ExperienceLevel  string                 `json:"experience_level"`
	Milestones       []json.RawMessage      `json:"milestones"`
}

type rawTrait struct {
	Trait      string   `json:"trait"`
	Score      *float64 `json:"score"`
	Confidence *float64 `json:"confidence"`
}

// toSignals convierte el payload crudo descartando los items invalidos. Devuelve cuantos descarto.
func (p signalsPayload) toSignals() (domain.Signals, int) {
	var out domain.Signals
	dropped := 0

	for _, raw := range p.Traits {
		var item rawTrait
		if err := json.Unmarshal(raw, &item); err != nil || item.Score == nil {
			dropped++
			continue
		}
		trait, err := domain.ParseTrait(item.Trait)
		if err != nil {
			dropped++
			continue
		}
		score := *item.Score
		// Algunos modelos responden en escala 0-100.
		if score > 1 && score <= 100 {
			score /= 100
		}
		conf := 0.5
		if item.Confidence != nil {
			conf = *item.Confidence
		}
		out.Traits = append(out.Traits, domain.TraitInsight{Trait: trait, Score: score, Confidence: conf})
	}

	for _, raw := range p.Interests {
		var item domain.InterestInsight
		if err := json.Unmarshal(raw, &item); err != nil || strings.TrimSpace(item.Domain) == "" {
			dropped++
			continue
		}
		out.Interests = append(out.Interests, item)
	}

	for _, raw := range p.Values {
		var item domain.ValueInsight
		if err := json.Unmarshal(raw, &item); err != nil || strings.TrimSpace(item.Value) == "" {
			dropped++
			continue
		}
		out.Values = append(out.Values, item)
	}

	for _, raw := range p.Constraints {
		var item domain.ConstraintInsight
		if err := json.Unmarshal(raw, &item); err != nil || !domain.ValidConstraintImpact(strings.ToLower(strings.TrimSpace(item.Impact))) {
			dropped++
			continue
		}
		out.Constraints = append(out.Constraints, item)
	}

	for _, raw := range p.Milestones {
		var item domain.MilestoneDetection
		if err := json.Unmarshal(raw, &item); err != nil || item.Achieved == nil {
			dropped++
			continue
		}
		out.Milestones = append(out.Milestones, item)
	}

	out.WorkEnvironment = p.WorkEnvironment
	out.PersonalityNotes = p.PersonalityNotes
	out.ExperienceLevel = strings.TrimSpace(p.ExperienceLevel)
	return out, dropped
}
