package service

import (
	"context"
	"strings"

	"pathfinder-llm/internal/domain"
)

// Confianzas fijas del analizador por reglas: nunca pretende mas que una heuristica.
const (
	keywordTraitScore      = 0.65
	keywordTraitConfidence = 0.3
	keywordInterestConf    = 0.5
	keywordMilestoneConf   = 40.0
)

type traitRule struct {
	trait    domain.Trait
	keywords []string
}

type labeledRule struct {
	label    string
	keywords []string
}

var keywordTraitRules = []traitRule{
	{domain.TraitOpenness, []string{"curios", "aprender", "nuevo", "learn", "new things", "apprendre", "decouvr"}},
	{domain.TraitConscientiousness, []string{"organiz", "planific", "ordenad", "plan ", "rigour", "rigueur"}},
	{domain.TraitExtraversion, []string{"gente", "people", "social", "hablar con", "monde"}},
	{domain.TraitAgreeableness, []string{"amable", "kind", "gentil", "cooper"}},
	{domain.TraitEmotionalStability, []string{"calma", "tranquil", "calm", "presion", "pressure", "stress"}},
	{domain.TraitAnalyticalThinking, []string{"analiz", "analy", "datos", "data", "logic", "numer", "matemat", "math"}},
	{domain.TraitCreativity, []string{"crear", "creativ", "creat", "disen", "design", "arte", "art ", "dibuj", "draw", "dessin"}},
	{domain.TraitLeadership, []string{"lider", "leader", "liderar", "dirigir", "manage", "gerer", "diriger"}},
	{domain.TraitTeamwork, []string{"equipo", "team", "equipe", "colabor", "collabor"}},
	{domain.TraitCommunication, []string{"comunic", "communic", "explicar", "explain", "expliquer", "escribir", "writ"}},
	{domain.TraitProblemSolving, []string{"resolver", "solve", "resoudre", "problema", "problem", "arregl", "fix", "repar"}},
	{domain.TraitAdaptability, []string{"adapt", "cambio", "change", "flexib"}},
	{domain.TraitAttentionToDetail, []string{"detalle", "detail", "precis", "minucios", "meticul"}},
	{domain.TraitEmpathy, []string{"ayudar", "help", "aider", "cuidar", "caring", "take care", "soigner", "escuchar", "listen", "ecouter"}},
	{domain.TraitTechnicalAptitude, []string{"tecnolog", "technolog", "program", "comput", "ordinateur", "maquina", "machine", "herramient", "tool", "outil"}},
}

var keywordInterestRules = []labeledRule{
	{"technology", []string{"tecnolog", "technolog", "program", "comput", "informati", "software", "videojueg", "video game"}},
	{"animals", []string{"animal", "animaux", "perro", "dog", "chien", "gato", "cat ", "chat ", "caballo", "horse", "cheval", "mascota", "pets"}},
	{"health", []string{"salud", "health", "sante", "medic", "hospital", "enfermer", "nurse"}},
	{"education", []string{"ensen", "teach", "enseign", "educa", "ninos", "child", "enfant"}},
	{"arts", []string{"arte", "art ", "music", "pintur", "paint", "peintur", "dibuj", "draw", "dessin", "foto", "photo"}},
	{"nature", []string{"naturaleza", "nature", "plant", "jardin", "garden", "bosque", "forest", "foret", "aire libre", "outdoor", "plein air"}},
	{"business", []string{"negocio", "business", "empresa", "entreprise", "vender", "sell", "vendre", "dinero", "money"}},
	{"construction", []string{"constru", "build", "batir", "manos", "hands", "mains", "carpinter", "menuis"}},
	{"science", []string{"cienc", "scien", "investig", "research", "recherche", "laborator"}},
	{"cooking", []string{"cocin", "cook", "cuisin", "gastronom", "reposter", "patiss"}},
	{"sports", []string{"deporte", "sport", "futbol", "football", "entrenar", "train", "gimnas"}},
}

var keywordValueRules = []labeledRule{
	{"stability", []string{"estabilidad", "stability", "stabilite", "seguridad", "security", "securite"}},
	{"income", []string{"dinero", "money", "argent", "salario", "sueldo", "salary", "salaire"}},
	{"autonomy", []string{"libertad", "freedom", "liberte", "autonom", "independ"}},
	{"social_impact", []string{"ayudar a", "help people", "aider les", "impacto", "impact", "sociedad", "society", "societe"}},
	{"work_life_balance", []string{"equilibrio", "balance", "equilibre", "tiempo libre", "free time", "temps libre", "familia", "family", "famille"}},
	{"growth", []string{"crecer", "grow", "progres", "carrera", "career", "carriere"}},
}

type constraintRule struct {
	kind     string
	impact   string
	keywords []string
}

var keywordConstraintRules = []constraintRule{
	{"location", domain.ConstraintImpactLimiting, []string{"no puedo mudarme", "cannot move", "can't move", "ne peux pas demenager", "cerca de casa", "close to home", "pres de chez"}},
	{"schedule", domain.ConstraintImpactLimiting, []string{"horario", "schedule", "horaire", "medio tiempo", "part time", "part-time", "temps partiel"}},
	{"education", domain.ConstraintImpactPreferential, []string{"sin titulo", "no degree", "sans diplome", "no estudie", "didn't study"}},
	{"health", domain.ConstraintImpactBlocking, []string{"discapacidad", "disability", "handicap", "alergi", "allerg"}},
}

var keywordLocationModes = []labeledRule{
	{"remote", []string{"remoto", "remote", "teletrabajo", "desde casa", "from home", "teletravail", "a distance"}},
	{"onsite", []string{"oficina", "office", "bureau", "presencial", "on site", "sur place"}},
	{"outdoor", []string{"aire libre", "outdoor", "plein air", "al exterior", "outside"}},
}

var keywordExperienceLevels = []labeledRule{
	{"student", []string{"estudiante", "student", "etudiant", "universidad", "university", "universite", "colegio", "school", "ecole"}},
	{"entry", []string{"primer trabajo", "first job", "premier emploi", "sin experiencia", "no experience", "sans experience"}},
	{"experienced", []string{"anos de experiencia", "years of experience", "ans d'experience", "trabaje como", "worked as", "travaille comme"}},
}

// KeywordAnalyzer es el analizador por reglas: coincidencia de palabras clave sobre texto plegado.
type KeywordAnalyzer struct{}

func NewKeywordAnalyzer() *KeywordAnalyzer {
	return &KeywordAnalyzer{}
}

func (KeywordAnalyzer) Analyze(_ context.Context, req AnalyzeRequest) (domain.Signals, error) {
	folded := foldText(req.Text)
	if folded == "" {
		return domain.Signals{}, nil
	}
	// Espacio final para que palabras clave como "art " matcheen al final del texto.
	folded += " "

	var out domain.Signals
	for _, r := range keywordTraitRules {
		if anyKeyword(folded, r.keywords) {
			out.Traits = append(out.Traits, domain.TraitInsight{Trait: r.trait, Score: keywordTraitScore, Confidence: keywordTraitConfidence})
		}
	}
	for _, r := range keywordInterestRules {
		if anyKeyword(folded, r.keywords) {
			out.Interests = append(out.Interests, domain.InterestInsight{Domain: r.label, Confidence: keywordInterestConf, Evidence: strings.TrimSpace(req.Text)})
		}
	}
	for _, r := range keywordValueRules {
		if anyKeyword(folded, r.keywords) {
			out.Values = append(out.Values, domain.ValueInsight{Value: r.label, Importance: 3})
		}
	}
	for _, r := range keywordConstraintRules {
		if anyKeyword(folded, r.keywords) {
			out.Constraints = append(out.Constraints, domain.ConstraintInsight{Type: r.kind, Description: strings.TrimSpace(req.Text), Flexibility: 3, Impact: r.impact})
		}
	}
	if mode := firstLabel(folded, keywordLocationModes); mode != "" {
		out.WorkEnvironment.LocationMode = mode
	}
	out.ExperienceLevel = firstLabel(folded, keywordExperienceLevels)

	// Con al menos dos intereses claros se propone el primer hito, siempre pidiendo confirmacion.
	if len(out.Interests) >= 2 && req.Phase != domain.PhaseIntroduction {
		achieved := true
		labels := make([]string, 0, len(out.Interests))
		for _, in := range out.Interests {
			labels = append(labels, in.Domain)
		}
		out.Milestones = append(out.Milestones, domain.MilestoneDetection{
			Name:              domain.MilestonePassions,
			Achieved:          &achieved,
			Confidence:        keywordMilestoneConf,
			Value:             strings.Join(labels, ", "),
			NeedsConfirmation: true,
		})
	}
	return out, nil
}

func anyKeyword(folded string, keywords []string) bool {
	for _, kw := range keywords {
		if containsWordPrefix(folded, kw) {
			return true
		}
	}
	return false
}

func firstLabel(folded string, rules []labeledRule) string {
	for _, r := range rules {
		if anyKeyword(folded, r.keywords) {
			return r.label
		}
	}
	return ""
}
