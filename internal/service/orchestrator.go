package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pathfinder-llm/internal/domain"
	"pathfinder-llm/internal/logger"
	"pathfinder-llm/internal/repository"
)

var (
	ErrConversationNotFound      = errors.New("conversation not found")
	ErrConversationNotActive     = errors.New("conversation not active")
	ErrConversationBusy          = errors.New("conversation busy")
	ErrInvalidInput              = errors.New("invalid input")
	ErrInvalidTransition         = errors.New("invalid status transition")
	ErrTurnFailed                = errors.New("turn failed")
	ErrRecommendationNotFound    = errors.New("recommendation not found")
	ErrOrchestratorNotConfigured = errors.New("orchestrator not configured")
)

// ApologyMessage es lo unico que ve el usuario cuando un turno no se pudo guardar.
const ApologyMessage = "Perdon, tuve un problema procesando tu mensaje. ¿Podes intentarlo de nuevo?"

// Origen de cada mensaje.
const (
	SourceUser       = "user"
	SourceGenerative = "generative"
	SourceRuleBased  = "rule_based"
)

const (
	maxRecommendations = 3
	sinkTimeout        = 5 * time.Second
)

// OrchestratorSettings son los parametros ajustables por configuracion.
type OrchestratorSettings struct {
	RecommendationEvery       int
	RecommendationMinMessages int
	GenerativeFailureLimit    int
	CollaboratorTimeout       time.Duration
	CatalogSource             string
	CatalogSampleSize         int
	ContextTurns              int
}

func (s OrchestratorSettings) withDefaults() OrchestratorSettings {
	if s.RecommendationEvery <= 0 {
		s.RecommendationEvery = 2
	}
	if s.RecommendationMinMessages <= 0 {
		s.RecommendationMinMessages = 8
	}
	if s.GenerativeFailureLimit <= 0 {
		s.GenerativeFailureLimit = 1
	}
	if s.CollaboratorTimeout <= 0 {
		s.CollaboratorTimeout = 20 * time.Second
	}
	if s.CatalogSampleSize <= 0 {
		s.CatalogSampleSize = 40
	}
	if s.ContextTurns <= 0 {
		s.ContextTurns = 10
	}
	return s
}

// OrchestratorDeps agrupa los colaboradores. Analyzer, Coach y Sink son opcionales.
type OrchestratorDeps struct {
	Conversations repository.ConversationRepository
	Catalog       *CatalogService
	Analyzer      SignalAnalyzer
	Coach         Coach
	Sink          repository.UserProfileSink
	Locker        TurnLocker
}

// Orchestrator conduce el ciclo de vida de las conversaciones y procesa cada turno.
type Orchestrator struct {
	conversations    repository.ConversationRepository
	catalog          *CatalogService
	analyzer         SignalAnalyzer
	fallbackAnalyzer SignalAnalyzer
	coach            Coach
	questions        *QuestionGenerator
	reconciler       *Reconciler
	rules            []ConfirmationRule
	sink             repository.UserProfileSink
	locker           TurnLocker
	settings         OrchestratorSettings
	logger           *zap.Logger

	background sync.WaitGroup
	now        func() time.Time
	newID      func() string
}

func NewOrchestrator(deps OrchestratorDeps, settings OrchestratorSettings, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	locker := deps.Locker
	if locker == nil {
		locker = NewMemoryTurnLocker()
	}
	return &Orchestrator{
		conversations:    deps.Conversations,
		catalog:          deps.Catalog,
		analyzer:         deps.Analyzer,
		fallbackAnalyzer: NewKeywordAnalyzer(),
		coach:            deps.Coach,
		questions:        NewQuestionGenerator(),
		reconciler:       NewReconciler(nil),
		rules:            DefaultConfirmationRules,
		sink:             deps.Sink,
		locker:           locker,
		settings:         settings.withDefaults(),
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
		newID:            uuid.NewString,
	}
}

// TurnResult es lo que devuelve un turno persistido.
type TurnResult struct {
	Conversation    domain.Conversation
	Reply           domain.Message
	Recommendations []domain.Recommendation
	Confirmed       []domain.MilestoneName
}

func (o *Orchestrator) ready() error {
	if o == nil || o.conversations == nil {
		return ErrOrchestratorNotConfigured
	}
	return nil
}

func (o *Orchestrator) newMessage(conversationID, role, content, source string, at time.Time) domain.Message {
	return domain.Message{
		ID:             o.newID(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		Source:         source,
		CreatedAt:      at,
	}
}

// Start crea una conversacion vacia con la pregunta de apertura.
func (o *Orchestrator) Start(ctx context.Context, userID string) (domain.Conversation, error) {
	if err := o.ready(); err != nil {
		return domain.Conversation{}, err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.Conversation{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	now := o.now()
	conv := domain.Conversation{
		ID:         o.newID(),
		UserID:     userID,
		Status:     domain.StatusActive,
		Phase:      domain.PhaseIntroduction,
		Milestones: domain.NewMilestones(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	opening := o.questions.Next(&conv)
	conv.Messages = []domain.Message{o.newMessage(conv.ID, domain.RoleAssistant, opening.Text, SourceRuleBased, now)}
	conv.QuestionCount = 1

	if err := o.conversations.Create(ctx, conv); err != nil {
		return domain.Conversation{}, fmt.Errorf("create conversation: %w", err)
	}
	o.logger.Info("conversation started", zap.String("conversation_id", conv.ID), zap.String("user_id", userID))
	return conv, nil
}

func (o *Orchestrator) load(ctx context.Context, id string) (domain.Conversation, error) {
	conv, err := o.conversations.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Conversation{}, ErrConversationNotFound
	}
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("load conversation: %w", err)
	}
	return conv, nil
}

func (o *Orchestrator) lock(ctx context.Context, id string) (func(), error) {
	unlock, err := o.locker.Lock(ctx, "conversation:"+id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConversationBusy, err)
	}
	return unlock, nil
}

func (o *Orchestrator) Get(ctx context.Context, id string) (domain.Conversation, error) {
	if err := o.ready(); err != nil {
		return domain.Conversation{}, err
	}
	return o.load(ctx, id)
}

func (o *Orchestrator) ListByUser(ctx context.Context, userID string) ([]domain.Conversation, error) {
	if err := o.ready(); err != nil {
		return nil, err
	}
	return o.conversations.ListByUser(ctx, userID)
}

// ProcessTurn procesa un mensaje del usuario y persiste todo el turno en una sola escritura.
func (o *Orchestrator) ProcessTurn(ctx context.Context, conversationID, userText string) (TurnResult, error) {
	if err := o.ready(); err != nil {
		return TurnResult{}, err
	}
	unlock, err := o.lock(ctx, conversationID)
	if err != nil {
		return TurnResult{}, err
	}
	defer unlock()

	conv, err := o.load(ctx, conversationID)
	if err != nil {
		return TurnResult{}, err
	}
	if conv.Status != domain.StatusActive {
		return TurnResult{}, ErrConversationNotActive
	}
	text := strings.TrimSpace(userText)
	if text == "" {
		return TurnResult{}, fmt.Errorf("%w: empty message", ErrInvalidInput)
	}
	log := logger.WithConversation(o.logger, conv.ID)

	now := o.now()
	previousQuestion := ""
	if recent := conv.AssistantMessages(1); len(recent) > 0 {
		previousQuestion = recent[0]
	}
	userMsg := o.newMessage(conv.ID, domain.RoleUser, text, SourceUser, now)
	conv.Messages = append(conv.Messages, userMsg)

	machine := NewMilestoneMachine(&conv.Milestones, o.rules, log)
	machine.now = o.now
	agg := NewProfileAggregator(&conv.Profile)
	agg.now = o.now

	var confirmed []int
	if verdict, idx := machine.ApplyConfirmation(text); idx >= 0 {
		confirmed = append(confirmed, idx)
	} else if verdict != VerdictUnknown {
		log.Debug("confirmation verdict applied", zap.String("verdict", verdict.String()))
	}

	// Todas las detecciones del turno comparten la misma compuerta.
	gate := machine.LastConfirmedIndex()
	signals := o.analyze(ctx, &conv, text, log)
	agg.ApplySignals(signals, userMsg.ID)
	confirmed = append(confirmed, machine.ApplyDetectionsGated(signals.Milestones, gate)...)

	var recs []domain.Recommendation
	if shouldRecommend(&conv, o.settings) {
		recs = o.recommend(ctx, &conv, agg, log)
		if len(recs) > 0 {
			conv.Recommendations = recs
		}
	}

	turn := o.nextTurn(ctx, &conv, log)
	if !turn.signals.Empty() {
		agg.ApplySignals(uncoveredSignals(turn.signals, signals), userMsg.ID)
		confirmed = append(confirmed, machine.ApplyDetectionsGated(turn.signals.Milestones, gate)...)
	}

	assistantMsg := o.newMessage(conv.ID, domain.RoleAssistant, turn.text, turn.source, now)
	conv.Messages = append(conv.Messages, assistantMsg)
	conv.QuestionCount++
	if advancePhase(&conv, turn.conclude) {
		log.Info("conversation completed", zap.Int("question_count", conv.QuestionCount))
	}
	updateQuality(&conv.Quality, measureTurn(text, signals, turn.text, previousQuestion))
	conv.UpdatedAt = now

	if err := o.conversations.SaveTurn(ctx, &conv, []domain.Message{userMsg, assistantMsg}); err != nil {
		log.Error("turn not persisted", zap.Error(err))
		return TurnResult{}, fmt.Errorf("%w: %v", ErrTurnFailed, err)
	}

	names := o.afterPersist(&conv, confirmed, log)
	return TurnResult{
		Conversation:    conv,
		Reply:           assistantMsg,
		Recommendations: recs,
		Confirmed:       names,
	}, nil
}

// uncoveredSignals quita de extra los rasgos e intereses que el analizador ya reporto en el turno.
func uncoveredSignals(extra, analyzed domain.Signals) domain.Signals {
	traits := make(map[domain.Trait]bool, len(analyzed.Traits))
	for _, t := range analyzed.Traits {
		traits[t.Trait] = true
	}
	interests := make(map[string]bool, len(analyzed.Interests))
	for _, in := range analyzed.Interests {
		interests[normalizeKey(in.Domain)] = true
	}

	out := extra
	out.Traits = nil
	for _, t := range extra.Traits {
		if !traits[t.Trait] {
			out.Traits = append(out.Traits, t)
		}
	}
	out.Interests = nil
	for _, in := range extra.Interests {
		if !interests[normalizeKey(in.Domain)] {
			out.Interests = append(out.Interests, in)
		}
	}
	return out
}

// afterPersist notifica al sink si se confirmo el ultimo hito. No bloquea el turno.
func (o *Orchestrator) afterPersist(conv *domain.Conversation, confirmed []int, log *zap.Logger) []domain.MilestoneName {
	seen := make(map[int]bool, len(confirmed))
	var names []domain.MilestoneName
	for _, idx := range confirmed {
		if seen[idx] {
			continue
		}
		seen[idx] = true
		names = append(names, domain.MilestoneOrder[idx])
		if domain.MilestoneOrder[idx] == domain.MilestoneJob {
			o.notifySink(conv.UserID, targetLabel(conv), log)
		}
	}
	return names
}

func targetLabel(conv *domain.Conversation) string {
	job := conv.Milestones[domain.MilestoneIndex(domain.MilestoneJob)]
	switch {
	case job.JobTitle != "":
		return job.JobTitle
	case job.Value != "":
		return job.Value
	case len(conv.Recommendations) > 0:
		return conv.Recommendations[0].OccupationTitle
	}
	return ""
}

func (o *Orchestrator) notifySink(userID, label string, log *zap.Logger) {
	if o.sink == nil || label == "" {
		return
	}
	o.background.Add(1)
	go func() {
		defer o.background.Done()
		ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
		defer cancel()
		if err := o.sink.SetTargetOccupation(ctx, userID, label); err != nil {
			log.Warn("user profile sink failed", zap.Error(err))
			return
		}
		log.Info("target occupation stored", zap.String("label", label))
	}()
}

// Wait espera las notificaciones en curso (apagado ordenado y tests).
func (o *Orchestrator) Wait() {
	if o != nil {
		o.background.Wait()
	}
}

func (o *Orchestrator) analyze(ctx context.Context, conv *domain.Conversation, text string, log *zap.Logger) domain.Signals {
	req := AnalyzeRequest{
		Text:        text,
		Phase:       conv.Phase,
		KnownTraits: NewProfileAggregator(&conv.Profile).TopTraits(5),
	}
	if idx := NewMilestoneMachine(&conv.Milestones, o.rules, nil).Pending(); idx >= 0 {
		req.PendingMilestone = domain.MilestoneOrder[idx]
	}

	if o.analyzer != nil && !conv.Session.AnalyzerDegraded {
		cctx, cancel := context.WithTimeout(ctx, o.settings.CollaboratorTimeout)
		signals, err := o.analyzer.Analyze(cctx, req)
		cancel()
		if err == nil {
			return signals
		}
		conv.Session.AnalyzerDegraded = true
		log.Warn("analyzer failed, using keyword analyzer for the rest of the session", zap.Error(err))
	}

	signals, err := o.fallbackAnalyzer.Analyze(ctx, req)
	if err != nil {
		log.Warn("keyword analyzer failed", zap.Error(err))
		return domain.Signals{}
	}
	return signals
}

func (o *Orchestrator) recordGenerativeFailure(conv *domain.Conversation, err error, log *zap.Logger) {
	conv.Session.GenerativeFailures++
	log.Warn("generative collaborator failed",
		zap.Error(err),
		zap.Int("failures", conv.Session.GenerativeFailures),
	)
	if conv.Session.GenerativeFailures >= o.settings.GenerativeFailureLimit && !conv.Session.GenerativeDegraded {
		conv.Session.GenerativeDegraded = true
		log.Warn("generative collaborator disabled for the rest of the session")
	}
}

func (o *Orchestrator) generativeAvailable(conv *domain.Conversation) bool {
	return o.coach != nil && !conv.Session.GenerativeDegraded
}

// recommend intenta el camino generativo + reconciliacion y cae al ranking vectorial
// si el colaborador falla, no sugiere nada o ningun match es utilizable.
func (o *Orchestrator) recommend(ctx context.Context, conv *domain.Conversation, agg *ProfileAggregator, log *zap.Logger) []domain.Recommendation {
	if o.catalog == nil {
		return nil
	}
	catalog, err := o.catalog.All(ctx)
	if err != nil {
		log.Warn("catalog unavailable, skipping recommendations", zap.Error(err))
		return nil
	}
	if len(catalog) == 0 {
		return nil
	}
	now := o.now()
	user := agg.UserVector()

	if o.generativeAvailable(conv) {
		sample, err := o.catalog.Sample(ctx, user, o.settings.CatalogSampleSize)
		if err != nil {
			log.Warn("catalog sample failed, using catalog head", zap.Error(err))
			sample = catalog
			if len(sample) > o.settings.CatalogSampleSize {
				sample = sample[:o.settings.CatalogSampleSize]
			}
		}
		cctx, cancel := context.WithTimeout(ctx, o.settings.CollaboratorTimeout)
		suggestions, err := o.coach.Suggest(cctx, SuggestRequest{
			Profile: SummarizeProfile(&conv.Profile),
			Catalog: sample,
			Limit:   maxRecommendations,
		})
		cancel()
		if err != nil {
			o.recordGenerativeFailure(conv, err, log)
		} else if recs := reconciledRecommendations(o.reconciler.Reconcile(suggestions, catalog), now); len(recs) > 0 {
			return recs
		} else {
			log.Info("no usable reconciled match, falling back to vector ranking", zap.Int("suggestions", len(suggestions)))
		}
	}
	return vectorRecommendations(RankOccupations(user, catalog, maxRecommendations), now)
}

func reconciledRecommendations(matches []Match, now time.Time) []domain.Recommendation {
	seen := make(map[string]bool)
	var out []domain.Recommendation
	for _, m := range matches {
		if !m.Usable() || seen[m.Best.Record.ID] {
			continue
		}
		seen[m.Best.Record.ID] = true
		alternatives := make([]string, 0, len(m.Alternatives))
		for _, alt := range m.Alternatives {
			alternatives = append(alternatives, alt.Record.ID)
		}
		out = append(out, domain.Recommendation{
			SourceTitle:     m.Suggestion.Title,
			Rationale:       m.Suggestion.Rationale,
			OccupationID:    m.Best.Record.ID,
			OccupationTitle: m.Best.Record.Title,
			MatchScore:      m.Best.Score,
			ConfidenceTier:  m.Best.Tier,
			Method:          domain.MatchMethodReconciled,
			Alternatives:    alternatives,
			CreatedAt:       now,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MatchScore > out[j].MatchScore })
	if len(out) > maxRecommendations {
		out = out[:maxRecommendations]
	}
	return out
}

func vectorRecommendations(ranked []RankedOccupation, now time.Time) []domain.Recommendation {
	var out []domain.Recommendation
	for _, r := range ranked {
		if r.Score <= 0 {
			continue
		}
		score := float64(r.Score) / 100
		out = append(out, domain.Recommendation{
			Rationale:       fmt.Sprintf("Similitud de rasgos: %d%%", r.Score),
			OccupationID:    r.Record.ID,
			OccupationTitle: r.Record.Title,
			MatchScore:      score,
			ConfidenceTier:  domain.TierForScore(score),
			Method:          domain.MatchMethodVector,
			CreatedAt:       now,
		})
	}
	return out
}

type assistantTurn struct {
	text     string
	source   string
	conclude bool
	signals  domain.Signals
}

func (o *Orchestrator) nextTurn(ctx context.Context, conv *domain.Conversation, log *zap.Logger) assistantTurn {
	if o.generativeAvailable(conv) {
		turns := conv.Messages
		if len(turns) > o.settings.ContextTurns {
			turns = turns[len(turns)-o.settings.ContextTurns:]
		}
		cctx, cancel := context.WithTimeout(ctx, o.settings.CollaboratorTimeout)
		reply, err := o.coach.Respond(cctx, CoachRequest{
			Phase:      conv.Phase,
			Turns:      turns,
			Profile:    SummarizeProfile(&conv.Profile),
			Milestones: conv.Milestones,
		})
		cancel()
		if err == nil {
			return assistantTurn{text: reply.Message, source: SourceGenerative, conclude: reply.Conclude, signals: reply.Signals}
		}
		o.recordGenerativeFailure(conv, err, log)
	}
	q := o.questions.Next(conv)
	log.Debug("rule-based question", zap.String("strategy", q.Strategy))
	return assistantTurn{text: q.Text, source: SourceRuleBased}
}

// transition cambia el estado de la conversacion si la transicion es valida.
func (o *Orchestrator) transition(ctx context.Context, id string, to domain.ConversationStatus, from ...domain.ConversationStatus) (domain.Conversation, error) {
	if err := o.ready(); err != nil {
		return domain.Conversation{}, err
	}
	unlock, err := o.lock(ctx, id)
	if err != nil {
		return domain.Conversation{}, err
	}
	defer unlock()

	conv, err := o.load(ctx, id)
	if err != nil {
		return domain.Conversation{}, err
	}
	allowed := false
	for _, s := range from {
		if conv.Status == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return domain.Conversation{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, conv.Status, to)
	}
	conv.Status = to
	conv.UpdatedAt = o.now()
	if err := o.conversations.SaveTurn(ctx, &conv, nil); err != nil {
		return domain.Conversation{}, fmt.Errorf("save status: %w", err)
	}
	o.logger.Info("conversation status changed", zap.String("conversation_id", id), zap.String("status", string(to)))
	return conv, nil
}

func (o *Orchestrator) Pause(ctx context.Context, id string) (domain.Conversation, error) {
	return o.transition(ctx, id, domain.StatusPaused, domain.StatusActive)
}

func (o *Orchestrator) Resume(ctx context.Context, id string) (domain.Conversation, error) {
	return o.transition(ctx, id, domain.StatusActive, domain.StatusPaused)
}

func (o *Orchestrator) Abandon(ctx context.Context, id string) (domain.Conversation, error) {
	return o.transition(ctx, id, domain.StatusAbandoned, domain.StatusActive, domain.StatusPaused)
}

func (o *Orchestrator) Complete(ctx context.Context, id string) (domain.Conversation, error) {
	return o.transition(ctx, id, domain.StatusCompleted, domain.StatusActive, domain.StatusPaused)
}

// React etiqueta una recomendacion con la reaccion del usuario. Es lo unico mutable de una recomendacion.
func (o *Orchestrator) React(ctx context.Context, conversationID, occupationID, reaction string) (domain.Conversation, error) {
	if err := o.ready(); err != nil {
		return domain.Conversation{}, err
	}
	reaction = strings.ToLower(strings.TrimSpace(reaction))
	if !domain.ValidReaction(reaction) {
		return domain.Conversation{}, fmt.Errorf("%w: unknown reaction %q", ErrInvalidInput, reaction)
	}
	unlock, err := o.lock(ctx, conversationID)
	if err != nil {
		return domain.Conversation{}, err
	}
	defer unlock()

	conv, err := o.load(ctx, conversationID)
	if err != nil {
		return domain.Conversation{}, err
	}
	found := false
	for i := range conv.Recommendations {
		if conv.Recommendations[i].OccupationID == occupationID {
			conv.Recommendations[i].Reaction = reaction
			found = true
			break
		}
	}
	if !found {
		return domain.Conversation{}, ErrRecommendationNotFound
	}
	conv.UpdatedAt = o.now()
	if err := o.conversations.SaveTurn(ctx, &conv, nil); err != nil {
		return domain.Conversation{}, fmt.Errorf("save reaction: %w", err)
	}
	return conv, nil
}

// ResetStale abandona en bloque las conversaciones activas o pausadas sin actividad en idle.
func (o *Orchestrator) ResetStale(ctx context.Context, idle time.Duration) (int64, error) {
	if err := o.ready(); err != nil {
		return 0, err
	}
	if idle <= 0 {
		return 0, fmt.Errorf("%w: idle must be positive", ErrInvalidInput)
	}
	n, err := o.conversations.UpdateStatusWhere(ctx, repository.StatusFilter{
		Statuses:      []domain.ConversationStatus{domain.StatusActive, domain.StatusPaused},
		UpdatedBefore: o.now().Add(-idle),
	}, domain.StatusAbandoned)
	if err != nil {
		return 0, fmt.Errorf("reset stale conversations: %w", err)
	}
	o.logger.Info("stale conversations abandoned", zap.Int64("count", n), zap.Duration("idle", idle))
	return n, nil
}
