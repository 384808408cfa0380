package service

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldText pasa a minusculas, quita acentos y colapsa espacios ("Vétérinaire" -> "veterinaire").
func foldText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(strings.ToLower(out)), " ")
}

// tokenSet devuelve los tokens plegados de mas de 2 caracteres.
func tokenSet(texts ...string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, text := range texts {
		words := strings.FieldsFunc(foldText(text), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		for _, w := range words {
			if utf8.RuneCountInString(w) > 2 {
				set[w] = struct{}{}
			}
		}
	}
	return set
}

// jaccard es |A∩B| / |A∪B|; 0 si ambos conjuntos estan vacios.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// overlapRatio es |A∩B| / min(|A|,|B|); se usa para detectar preguntas casi repetidas.
func overlapRatio(a, b map[string]struct{}) float64 {
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	if len(small) == 0 {
		return 0
	}
	inter := 0
	for k := range small {
		if _, ok := large[k]; ok {
			inter++
		}
	}
	return float64(inter) / float64(len(small))
}

// titleSimilarity es 1 - levenshtein(a,b)/max(len(a),len(b)) sobre titulos plegados.
func titleSimilarity(a, b string) float64 {
	return foldedTitleSimilarity(foldText(a), foldText(b))
}

func foldedTitleSimilarity(a, b string) float64 {
	maxLen := utf8.RuneCountInString(a)
	if l := utf8.RuneCountInString(b); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(maxLen)
}
