package service

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// KeywordCluster agrupa sinonimos (es/en/fr, sin acentos) de un mismo dominio de oficio.
// Las palabras clave se comparan como prefijo de palabra; pueden ser frases.
type KeywordCluster struct {
	Name     string
	Keywords []string
}

var DefaultKeywordClusters = []KeywordCluster{
	{Name: "caretaker", Keywords: []string{"caretaker", "keeper", "soigneur", "soigneuse", "cuidador", "cuidadora", "gardien"}},
	{Name: "animal", Keywords: []string{"animal", "animaux", "pet", "mascota", "faune", "fauna", "zoo"}},
	{Name: "animal_care", Keywords: []string{"animal care", "animal keeper", "zookeeper", "soigneur animalier", "soigneuse animaliere", "soins aux animaux", "cuidador de animales"}},
	{Name: "veterinary", Keywords: []string{"veterinar", "vet", "auxiliaire spe"}},
	{Name: "breeding", Keywords: []string{"breed", "eleveur", "eleveuse", "elevage", "criador", "criadero"}},
	{Name: "shelter", Keywords: []string{"shelter", "refuge", "refugio", "fourriere", "protectora", "pension canine"}},
	{Name: "technology", Keywords: []string{"developer", "developpeur", "desarrollador", "programm", "software", "logiciel", "informati", "data", "web"}},
	{Name: "health", Keywords: []string{"nurse", "infirmier", "infirmiere", "enfermer", "medic", "sante", "salud", "health"}},
	{Name: "education", Keywords: []string{"teacher", "enseignant", "professeur", "profesor", "docente", "formateur", "educat", "tutor"}},
	{Name: "hospitality", Keywords: []string{"cook", "chef", "cuisinier", "cocinero", "hotel", "restaura", "serveur", "camarero", "waiter"}},
	{Name: "construction", Keywords: []string{"builder", "macon", "albanil", "construct", "carpent", "charpent", "electrici", "plomb", "plumb"}},
	{Name: "transport", Keywords: []string{"driver", "chauffeur", "conducteur", "conductor", "logisti", "transport"}},
	{Name: "commerce", Keywords: []string{"sales", "vendeur", "vendeuse", "vendedor", "commerc", "retail", "comptab", "account"}},
	{Name: "arts", Keywords: []string{"design", "graphi", "artist", "artiste", "musici", "photograph", "illustrat"}},
}

const (
	clusterBonusStep = 0.2
	clusterBonusCap  = 0.5
)

// clusterHits marca los clusters presentes en un texto ya plegado.
func clusterHits(folded string, clusters []KeywordCluster) []bool {
	hits := make([]bool, len(clusters))
	for i, c := range clusters {
		for _, kw := range c.Keywords {
			if containsWordPrefix(folded, kw) {
				hits[i] = true
				break
			}
		}
	}
	return hits
}

// clusterBonus suma 0.2 por cluster compartido, con tope 0.5.
func clusterBonus(a, b []bool) float64 {
	bonus := 0.0
	for i := range a {
		if i < len(b) && a[i] && b[i] {
			bonus += clusterBonusStep
		}
	}
	if bonus > clusterBonusCap {
		bonus = clusterBonusCap
	}
	return bonus
}

// containsWordPrefix busca kw empezando en limite de palabra ("vet" matchea "veterinaire", no "velvet").
func containsWordPrefix(text, kw string) bool {
	if kw == "" {
		return false
	}
	offset := 0
	for {
		i := strings.Index(text[offset:], kw)
		if i < 0 {
			return false
		}
		pos := offset + i
		if pos == 0 {
			return true
		}
		prev, _ := utf8.DecodeLastRuneInString(text[:pos])
		if !unicode.IsLetter(prev) && !unicode.IsDigit(prev) {
			return true
		}
		offset = pos + len(kw)
		if offset >= len(text) {
			return false
		}
	}
}
