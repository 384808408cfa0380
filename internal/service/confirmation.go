package service

import (
	"regexp"
	"strings"
)

// ConfirmationVerdict es el resultado de clasificar la respuesta del usuario a un hito pendiente.
type ConfirmationVerdict int

const (
	VerdictUnknown ConfirmationVerdict = iota
	VerdictAffirm
	VerdictReject
)

func (v ConfirmationVerdict) String() string {
	switch v {
	case VerdictAffirm:
		return "affirm"
	case VerdictReject:
		return "reject"
	default:
		return "unknown"
	}
}

// ConfirmationRule asocia un patron con su veredicto. El orden de la lista importa.
type ConfirmationRule struct {
	Pattern *regexp.Regexp
	Verdict ConfirmationVerdict
}

// DefaultConfirmationRules cubre es/en/fr. Primero las formas ancladas al inicio,
// despues las frases sueltas; las negaciones van antes que las afirmaciones en cada grupo.
var DefaultConfirmationRules = []ConfirmationRule{
	{regexp.MustCompile(`(?i)^\s*(no|non|nope|nah|pas vraiment|pas du tout|para nada|not really|not quite)(?:[\s,.;:!?]|$)`), VerdictReject},
	{regexp.MustCompile(`(?i)^\s*(si|sí|yes|yep|yeah|oui|ouais|exacto|exactamente|exactly|claro|correcto|correct|tout à fait|absolument|d'accord|vale|dale|perfecto|of course|sure)(?:[\s,.;:!?]|$)`), VerdictAffirm},
	{regexp.MustCompile(`(?i)\b(no es eso|no es asi|no es así|no del todo|me equivoque|that's wrong|that is wrong|not me|ce n'est pas ça|c'est faux|pas ça)\b`), VerdictReject},
	{regexp.MustCompile(`(?i)\b(es eso|eso es|asi es|así es|tienes razon|tienes razón|me identifico|that's right|that is right|sounds right|c'est ça|c'est bien ça|bien vu)\b`), VerdictAffirm},
}

// ClassifyConfirmation aplica las reglas en orden y devuelve la primera coincidencia.
func ClassifyConfirmation(text string, rules []ConfirmationRule) ConfirmationVerdict {
	text = strings.TrimSpace(text)
	if text == "" {
		return VerdictUnknown
	}
	for _, r := range rules {
		if r.Pattern != nil && r.Pattern.MatchString(text) {
			return r.Verdict
		}
	}
	return VerdictUnknown
}
