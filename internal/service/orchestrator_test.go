package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"pathfinder-llm/internal/domain"
	"pathfinder-llm/internal/repository"
)

type stubAnalyzer struct {
	mu      sync.Mutex
	signals domain.Signals
	err     error
	calls   int
}

func (a *stubAnalyzer) Analyze(_ context.Context, _ AnalyzeRequest) (domain.Signals, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	return a.signals, a.err
}

type stubCoach struct {
	mu           sync.Mutex
	reply        CoachReply
	respondErr   error
	suggestions  []domain.OccupationSuggestion
	suggestErr   error
	respondCalls int
	suggestCalls int
}

func (c *stubCoach) Respond(_ context.Context, _ CoachRequest) (CoachReply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.respondCalls++
	if c.respondErr != nil {
		return CoachReply{}, c.respondErr
	}
	return c.reply, nil
}

func (c *stubCoach) Suggest(_ context.Context, _ SuggestRequest) ([]domain.OccupationSuggestion, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.suggestCalls++
	return c.suggestions, c.suggestErr
}

type brokenSaveRepo struct {
	*repository.MemoryConversationRepository
}

func (brokenSaveRepo) SaveTurn(context.Context, *domain.Conversation, []domain.Message) error {
	return errors.New("db down")
}

var testNow = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

func newTestOrchestrator(deps OrchestratorDeps, settings OrchestratorSettings) *Orchestrator {
	if deps.Conversations == nil {
		deps.Conversations = repository.NewMemoryConversationRepository()
	}
	o := NewOrchestrator(deps, settings, zap.NewNop())
	o.now = func() time.Time { return testNow }
	return o
}

// seedConversation guarda una conversacion activa en exploracion con la pregunta de apertura.
func seedConversation(t *testing.T, repo repository.ConversationRepository, mutate func(*domain.Conversation)) domain.Conversation {
	t.Helper()
	conv := domain.Conversation{
		ID:         uuid.NewString(),
		UserID:     "u1",
		Status:     domain.StatusActive,
		Phase:      domain.PhaseExploration,
		Milestones: domain.NewMilestones(),
		Messages: []domain.Message{
			{ID: uuid.NewString(), Role: domain.RoleAssistant, Content: "¿Que te gusta hacer?", Source: SourceRuleBased, CreatedAt: testNow},
		},
		QuestionCount: 1,
		CreatedAt:     testNow,
		UpdatedAt:     testNow,
	}
	if mutate != nil {
		mutate(&conv)
	}
	if err := repo.Create(context.Background(), conv); err != nil {
		t.Fatalf("seed conversation: %v", err)
	}
	return conv
}

func TestOrchestratorStart(t *testing.T) {
	o := newTestOrchestrator(OrchestratorDeps{}, OrchestratorSettings{})

	conv, err := o.Start(context.Background(), "u1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if conv.Status != domain.StatusActive || conv.Phase != domain.PhaseIntroduction {
		t.Fatalf("unexpected initial state: %s/%s", conv.Status, conv.Phase)
	}
	if got := NewProfileAggregator(&conv.Profile).Completeness(); got != 0 {
		t.Fatalf("expected empty profile, got completeness %f", got)
	}
	if len(conv.Messages) != 1 || conv.Messages[0].Role != domain.RoleAssistant || conv.QuestionCount != 1 {
		t.Fatalf("expected opening question, got %+v", conv.Messages)
	}

	stored, err := o.Get(context.Background(), conv.ID)
	if err != nil || stored.ID != conv.ID {
		t.Fatalf("expected stored conversation, got %v", err)
	}

	if _, err := o.Start(context.Background(), "  "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := o.Get(context.Background(), "missing"); !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	var nilOrch *Orchestrator
	if _, err := nilOrch.Start(context.Background(), "u1"); !errors.Is(err, ErrOrchestratorNotConfigured) {
		t.Fatalf("expected not configured, got %v", err)
	}
}

func TestOrchestratorProcessTurnRuleBased(t *testing.T) {
	repo := repository.NewMemoryConversationRepository()
	o := newTestOrchestrator(OrchestratorDeps{Conversations: repo}, OrchestratorSettings{})
	conv := seedConversation(t, repo, nil)

	res, err := o.ProcessTurn(context.Background(), conv.ID, "Me encanta cuidar animales")
	if err != nil {
		t.Fatalf("process turn: %v", err)
	}
	if res.Reply.Source != SourceRuleBased || res.Reply.Content == "" {
		t.Fatalf("expected rule-based reply, got %+v", res.Reply)
	}
	if len(res.Conversation.Messages) != 3 || res.Conversation.QuestionCount != 2 {
		t.Fatalf("unexpected messages/questions: %d/%d", len(res.Conversation.Messages), res.Conversation.QuestionCount)
	}
	if res.Conversation.Version != 1 {
		t.Fatalf("expected version bump, got %d", res.Conversation.Version)
	}
	if len(res.Conversation.Profile.Interests) == 0 {
		t.Fatalf("expected keyword analyzer to record interests")
	}
	if res.Conversation.Quality.Samples != 1 {
		t.Fatalf("expected quality sample, got %d", res.Conversation.Quality.Samples)
	}

	if _, err := o.ProcessTurn(context.Background(), conv.ID, "   "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := o.ProcessTurn(context.Background(), "missing", "hola"); !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestOrchestratorIgnoresOutOfOrderMilestone(t *testing.T) {
	repo := repository.NewMemoryConversationRepository()
	analyzer := &stubAnalyzer{signals: domain.Signals{Milestones: []domain.MilestoneDetection{
		{Name: domain.MilestoneRole, Achieved: achieved(true), Confidence: 80, NeedsConfirmation: true},
	}}}
	o := newTestOrchestrator(OrchestratorDeps{Conversations: repo, Analyzer: analyzer}, OrchestratorSettings{})
	conv := seedConversation(t, repo, func(c *domain.Conversation) {
		c.Milestones[0].State = domain.MilestoneDetected
	})
	before := conv.Milestones[1]

	res, err := o.ProcessTurn(context.Background(), conv.ID, "Me veo liderando equipos")
	if err != nil {
		t.Fatalf("process turn: %v", err)
	}
	if res.Conversation.Milestones[1] != before {
		t.Fatalf("expected role milestone untouched, got %+v", res.Conversation.Milestones[1])
	}
	if len(res.Confirmed) != 0 {
		t.Fatalf("expected nothing confirmed, got %v", res.Confirmed)
	}
}

func TestOrchestratorTurnDetectionsShareOneGate(t *testing.T) {
	repo := repository.NewMemoryConversationRepository()
	analyzer := &stubAnalyzer{signals: domain.Signals{
		Traits:     []domain.TraitInsight{{Trait: domain.TraitOpenness, Score: 0.8, Confidence: 0.6}},
		Interests:  []domain.InterestInsight{{Domain: "animales", Confidence: 0.8}},
		Milestones: []domain.MilestoneDetection{detection(domain.MilestonePassions, false)},
	}}
	coach := &stubCoach{reply: CoachReply{
		Message: "¿Y que papel te gustaria tener?",
		Signals: domain.Signals{
			Traits:     []domain.TraitInsight{{Trait: domain.TraitOpenness, Score: 0.2, Confidence: 0.9}},
			Interests:  []domain.InterestInsight{{Domain: "Animales", Confidence: 0.9}},
			Milestones: []domain.MilestoneDetection{detection(domain.MilestoneRole, false)},
		},
	}}
	o := newTestOrchestrator(OrchestratorDeps{Conversations: repo, Analyzer: analyzer, Coach: coach}, OrchestratorSettings{
		RecommendationMinMessages: 100,
	})
	conv := seedConversation(t, repo, nil)

	res, err := o.ProcessTurn(context.Background(), conv.ID, "Me encantan los animales")
	if err != nil {
		t.Fatalf("process turn: %v", err)
	}
	if len(res.Confirmed) != 1 || res.Confirmed[0] != domain.MilestonePassions {
		t.Fatalf("expected only passions confirmed, got %v", res.Confirmed)
	}
	if res.Conversation.Milestones[1].State != domain.MilestoneUnreached {
		t.Fatalf("expected role unreached, got %s", res.Conversation.Milestones[1].State)
	}

	openness := res.Conversation.Profile.Traits[domain.TraitOpenness]
	if len(openness.EvidenceSourceIDs) != 1 {
		t.Fatalf("expected a single evidence source for the turn, got %v", openness.EvidenceSourceIDs)
	}
	if math.Abs(openness.Score-0.8) > 1e-9 || math.Abs(openness.Confidence-0.6) > 1e-9 {
		t.Fatalf("expected analyzer evidence only, got score %f confidence %f", openness.Score, openness.Confidence)
	}
	if got := res.Conversation.Profile.Interests; len(got) != 1 || got[0].Level != 4 {
		t.Fatalf("expected one interest at level 4, got %+v", got)
	}
}

func TestOrchestratorProcessTurnChecksStatusBeforeText(t *testing.T) {
	repo := repository.NewMemoryConversationRepository()
	o := newTestOrchestrator(OrchestratorDeps{Conversations: repo}, OrchestratorSettings{})
	conv := seedConversation(t, repo, func(c *domain.Conversation) {
		c.Status = domain.StatusPaused
	})

	if _, err := o.ProcessTurn(context.Background(), conv.ID, ""); !errors.Is(err, ErrConversationNotActive) {
		t.Fatalf("expected not active, got %v", err)
	}
	if _, err := o.ProcessTurn(context.Background(), "missing", " "); !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestOrchestratorConfirmsPendingMilestone(t *testing.T) {
	repo := repository.NewMemoryConversationRepository()
	o := newTestOrchestrator(OrchestratorDeps{Conversations: repo}, OrchestratorSettings{})
	conv := seedConversation(t, repo, func(c *domain.Conversation) {
		c.Milestones[0].State = domain.MilestoneNeedsConfirmation
		c.Milestones[0].Value = "animales"
	})

	res, err := o.ProcessTurn(context.Background(), conv.ID, "Sí, exacto")
	if err != nil {
		t.Fatalf("process turn: %v", err)
	}
	if len(res.Confirmed) != 1 || res.Confirmed[0] != domain.MilestonePassions {
		t.Fatalf("expected passions confirmed, got %v", res.Confirmed)
	}
	if !res.Conversation.Milestones[0].Confirmed() {
		t.Fatalf("expected confirmed state persisted")
	}
}

func TestOrchestratorGenerativeFallbackAfterFailureLimit(t *testing.T) {
	repo := repository.NewMemoryConversationRepository()
	coach := &stubCoach{respondErr: errors.New("llm timeout")}
	o := newTestOrchestrator(OrchestratorDeps{Conversations: repo, Coach: coach}, OrchestratorSettings{
		GenerativeFailureLimit:    2,
		RecommendationMinMessages: 100,
	})
	conv := seedConversation(t, repo, nil)

	for turn := 1; turn <= 4; turn++ {
		res, err := o.ProcessTurn(context.Background(), conv.ID, "hola, sigo aca")
		if err != nil {
			t.Fatalf("turn %d: %v", turn, err)
		}
		if res.Reply.Source != SourceRuleBased {
			t.Fatalf("turn %d: expected rule-based reply, got %s", turn, res.Reply.Source)
		}
		if turn == 2 && !res.Conversation.Session.GenerativeDegraded {
			t.Fatalf("expected degradation after second failure")
		}
	}
	if coach.respondCalls != 2 {
		t.Fatalf("expected coach called on the first two turns only, got %d", coach.respondCalls)
	}
}

func TestOrchestratorSingleFailureDegradesByDefault(t *testing.T) {
	repo := repository.NewMemoryConversationRepository()
	coach := &stubCoach{respondErr: errors.New("boom")}
	o := newTestOrchestrator(OrchestratorDeps{Conversations: repo, Coach: coach}, OrchestratorSettings{RecommendationMinMessages: 100})
	conv := seedConversation(t, repo, nil)

	for i := 0; i < 3; i++ {
		if _, err := o.ProcessTurn(context.Background(), conv.ID, "hola"); err != nil {
			t.Fatalf("process turn: %v", err)
		}
	}
	if coach.respondCalls != 1 {
		t.Fatalf("expected a single attempt, got %d", coach.respondCalls)
	}
}

func TestOrchestratorAnalyzerDegradationIsSticky(t *testing.T) {
	repo := repository.NewMemoryConversationRepository()
	analyzer := &stubAnalyzer{err: errors.New("analyzer down")}
	o := newTestOrchestrator(OrchestratorDeps{Conversations: repo, Analyzer: analyzer}, OrchestratorSettings{})
	conv := seedConversation(t, repo, nil)

	res, err := o.ProcessTurn(context.Background(), conv.ID, "Me gustan los animales")
	if err != nil {
		t.Fatalf("process turn: %v", err)
	}
	if !res.Conversation.Session.AnalyzerDegraded {
		t.Fatalf("expected analyzer degraded")
	}
	if len(res.Conversation.Profile.Interests) == 0 {
		t.Fatalf("expected keyword analyzer to take over in the same turn")
	}
	if _, err := o.ProcessTurn(context.Background(), conv.ID, "y la musica"); err != nil {
		t.Fatalf("process turn: %v", err)
	}
	if analyzer.calls != 1 {
		t.Fatalf("expected analyzer not retried, got %d calls", analyzer.calls)
	}
}

func TestOrchestratorReconciledRecommendations(t *testing.T) {
	repo := repository.NewMemoryConversationRepository()
	catalog := NewCatalogService(repository.NewMemoryOccupationRepository(animalCatalog()...), "", time.Minute, nil)
	coach := &stubCoach{
		reply:       CoachReply{Message: "¿Que es lo que mas disfrutas de cuidarlos?"},
		suggestions: []domain.OccupationSuggestion{{Title: "Animal Caretaker", Rationale: "le encantan los animales"}},
	}
	o := newTestOrchestrator(OrchestratorDeps{Conversations: repo, Catalog: catalog, Coach: coach}, OrchestratorSettings{
		RecommendationEvery:       1,
		RecommendationMinMessages: 1,
	})
	conv := seedConversation(t, repo, nil)

	res, err := o.ProcessTurn(context.Background(), conv.ID, "Me encanta cuidar animales")
	if err != nil {
		t.Fatalf("process turn: %v", err)
	}
	if res.Reply.Source != SourceGenerative || res.Reply.Content != coach.reply.Message {
		t.Fatalf("expected generative reply, got %+v", res.Reply)
	}
	if len(res.Recommendations) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(res.Recommendations))
	}
	rec := res.Recommendations[0]
	if rec.OccupationID != "A1501" || rec.Method != domain.MatchMethodReconciled || rec.MatchScore < 0.5 {
		t.Fatalf("unexpected recommendation: %+v", rec)
	}
	if rec.SourceTitle != "Animal Caretaker" || len(rec.Alternatives) != 2 {
		t.Fatalf("expected source title and alternatives, got %+v", rec)
	}
	if len(res.Conversation.Recommendations) != 1 {
		t.Fatalf("expected recommendations persisted on the conversation")
	}
}

func TestOrchestratorVectorFallback(t *testing.T) {
	repo := repository.NewMemoryConversationRepository()
	records := []domain.OccupationRecord{
		{ID: "J1506", Title: "Enfermero", TraitVector: vec(map[domain.Trait]float64{domain.TraitEmpathy: 0.9})},
		{ID: "M1805", Title: "Desarrollador de software", TraitVector: vec(map[domain.Trait]float64{domain.TraitTechnicalAptitude: 0.9})},
	}
	catalog := NewCatalogService(repository.NewMemoryOccupationRepository(records...), "", time.Minute, nil)
	analyzer := &stubAnalyzer{signals: domain.Signals{Traits: []domain.TraitInsight{{Trait: domain.TraitEmpathy, Score: 0.9, Confidence: 0.8}}}}
	coach := &stubCoach{suggestErr: errors.New("quota"), reply: CoachReply{Message: "no deberia usarse"}}
	o := newTestOrchestrator(OrchestratorDeps{Conversations: repo, Catalog: catalog, Analyzer: analyzer, Coach: coach}, OrchestratorSettings{
		RecommendationEvery:       1,
		RecommendationMinMessages: 1,
	})
	conv := seedConversation(t, repo, nil)

	res, err := o.ProcessTurn(context.Background(), conv.ID, "Me gusta ayudar a la gente")
	if err != nil {
		t.Fatalf("process turn: %v", err)
	}
	if len(res.Recommendations) != 1 {
		t.Fatalf("expected zero-score records dropped, got %+v", res.Recommendations)
	}
	rec := res.Recommendations[0]
	if rec.OccupationID != "J1506" || rec.Method != domain.MatchMethodVector || rec.ConfidenceTier != domain.TierHigh {
		t.Fatalf("unexpected vector recommendation: %+v", rec)
	}
	// La falla de Suggest cuenta para el limite y el mismo turno ya sale por reglas.
	if coach.respondCalls != 0 || res.Reply.Source != SourceRuleBased {
		t.Fatalf("expected rule-based reply after suggest failure, calls=%d source=%s", coach.respondCalls, res.Reply.Source)
	}
	if res.Conversation.Session.GenerativeFailures != 1 {
		t.Fatalf("expected 1 generative failure, got %d", res.Conversation.Session.GenerativeFailures)
	}
}

func TestOrchestratorJobMilestoneNotifiesSink(t *testing.T) {
	defer goleak.VerifyNone(t)

	repo := repository.NewMemoryConversationRepository()
	sink := repository.NewMemoryUserProfileSink()
	analyzer := &stubAnalyzer{signals: domain.Signals{Milestones: []domain.MilestoneDetection{
		{Name: domain.MilestoneJob, Achieved: achieved(true), Confidence: 85, JobTitle: "Soigneur animalier"},
	}}}
	o := newTestOrchestrator(OrchestratorDeps{Conversations: repo, Analyzer: analyzer, Sink: sink}, OrchestratorSettings{})
	conv := seedConversation(t, repo, func(c *domain.Conversation) {
		for i := 0; i < 3; i++ {
			c.Milestones[i].State = domain.MilestoneConfirmed
			c.Milestones[i].Achieved = true
		}
	})

	res, err := o.ProcessTurn(context.Background(), conv.ID, "Quiero ser cuidador en un zoo")
	if err != nil {
		t.Fatalf("process turn: %v", err)
	}
	o.Wait()

	if len(res.Confirmed) != 1 || res.Confirmed[0] != domain.MilestoneJob {
		t.Fatalf("expected job milestone confirmed, got %v", res.Confirmed)
	}
	label, err := sink.GetTargetOccupation(context.Background(), "u1")
	if err != nil || label != "Soigneur animalier" {
		t.Fatalf("expected sink target stored, got %q (%v)", label, err)
	}
}

func TestOrchestratorCompletesOnSecondConclusionEntry(t *testing.T) {
	repo := repository.NewMemoryConversationRepository()
	o := newTestOrchestrator(OrchestratorDeps{Conversations: repo}, OrchestratorSettings{})
	conv := seedConversation(t, repo, func(c *domain.Conversation) {
		c.Phase = domain.PhaseConclusion
		c.QuestionCount = 12
		c.ConclusionEntries = 1
	})

	res, err := o.ProcessTurn(context.Background(), conv.ID, "Creo que quiero probar con la enfermeria")
	if err != nil {
		t.Fatalf("process turn: %v", err)
	}
	if res.Conversation.Status != domain.StatusCompleted {
		t.Fatalf("expected completed, got %s", res.Conversation.Status)
	}
	if _, err := o.ProcessTurn(context.Background(), conv.ID, "hola?"); !errors.Is(err, ErrConversationNotActive) {
		t.Fatalf("expected not active after completion, got %v", err)
	}
}

func TestOrchestratorTurnFailureIsReported(t *testing.T) {
	repo := brokenSaveRepo{repository.NewMemoryConversationRepository()}
	o := newTestOrchestrator(OrchestratorDeps{Conversations: repo}, OrchestratorSettings{})
	conv := seedConversation(t, repo, nil)

	if _, err := o.ProcessTurn(context.Background(), conv.ID, "hola"); !errors.Is(err, ErrTurnFailed) {
		t.Fatalf("expected turn failure, got %v", err)
	}
	stored, err := repo.GetByID(context.Background(), conv.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(stored.Messages) != 1 {
		t.Fatalf("expected nothing persisted, got %d messages", len(stored.Messages))
	}
}

func TestOrchestratorSerializesConcurrentTurns(t *testing.T) {
	defer goleak.VerifyNone(t)

	repo := repository.NewMemoryConversationRepository()
	o := newTestOrchestrator(OrchestratorDeps{Conversations: repo}, OrchestratorSettings{})
	conv := seedConversation(t, repo, nil)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := o.ProcessTurn(context.Background(), conv.ID, "me gusta programar"); err != nil {
				t.Errorf("process turn: %v", err)
			}
		}()
	}
	wg.Wait()

	stored, err := o.Get(context.Background(), conv.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(stored.Messages) != 9 || stored.Version != 4 {
		t.Fatalf("expected 4 serialized turns, got %d messages at version %d", len(stored.Messages), stored.Version)
	}
}

func TestOrchestratorStatusTransitions(t *testing.T) {
	repo := repository.NewMemoryConversationRepository()
	o := newTestOrchestrator(OrchestratorDeps{Conversations: repo}, OrchestratorSettings{})
	conv := seedConversation(t, repo, nil)
	ctx := context.Background()

	if _, err := o.Pause(ctx, conv.ID); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if _, err := o.ProcessTurn(ctx, conv.ID, "hola"); !errors.Is(err, ErrConversationNotActive) {
		t.Fatalf("expected paused conversation to reject turns, got %v", err)
	}
	if _, err := o.Pause(ctx, conv.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if _, err := o.Resume(ctx, conv.ID); err != nil {
		t.Fatalf("resume: %v", err)
	}
	got, err := o.Abandon(ctx, conv.ID)
	if err != nil || got.Status != domain.StatusAbandoned {
		t.Fatalf("abandon: %v (%s)", err, got.Status)
	}
	if _, err := o.Resume(ctx, conv.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected abandoned to be terminal, got %v", err)
	}
	if _, err := o.Complete(ctx, conv.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected abandoned to be terminal, got %v", err)
	}

	other := seedConversation(t, repo, nil)
	if got, err := o.Complete(ctx, other.ID); err != nil || got.Status != domain.StatusCompleted {
		t.Fatalf("complete: %v", err)
	}
}

func TestOrchestratorReact(t *testing.T) {
	repo := repository.NewMemoryConversationRepository()
	o := newTestOrchestrator(OrchestratorDeps{Conversations: repo}, OrchestratorSettings{})
	conv := seedConversation(t, repo, func(c *domain.Conversation) {
		c.Recommendations = []domain.Recommendation{
			{OccupationID: "A1501", OccupationTitle: "Soigneur animalier", MatchScore: 0.6, Method: domain.MatchMethodReconciled},
			{OccupationID: "J1506", OccupationTitle: "Enfermero", MatchScore: 0.4, Method: domain.MatchMethodVector},
		}
	})
	ctx := context.Background()

	got, err := o.React(ctx, conv.ID, "J1506", " Liked ")
	if err != nil {
		t.Fatalf("react: %v", err)
	}
	if got.Recommendations[1].Reaction != domain.ReactionLiked || got.Recommendations[0].Reaction != "" {
		t.Fatalf("unexpected reactions: %+v", got.Recommendations)
	}
	if got.Recommendations[1].MatchScore != 0.4 {
		t.Fatalf("react must not change other fields")
	}

	if _, err := o.React(ctx, conv.ID, "J1506", "love"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid reaction, got %v", err)
	}
	if _, err := o.React(ctx, conv.ID, "Z9999", domain.ReactionSaved); !errors.Is(err, ErrRecommendationNotFound) {
		t.Fatalf("expected recommendation not found, got %v", err)
	}
}

func TestOrchestratorResetStale(t *testing.T) {
	repo := repository.NewMemoryConversationRepository()
	o := newTestOrchestrator(OrchestratorDeps{Conversations: repo}, OrchestratorSettings{})
	stale := seedConversation(t, repo, func(c *domain.Conversation) { c.UpdatedAt = testNow.Add(-48 * time.Hour) })
	fresh := seedConversation(t, repo, func(c *domain.Conversation) { c.UpdatedAt = testNow.Add(-time.Hour) })
	seedConversation(t, repo, func(c *domain.Conversation) {
		c.Status = domain.StatusCompleted
		c.UpdatedAt = testNow.Add(-48 * time.Hour)
	})

	n, err := o.ResetStale(context.Background(), 24*time.Hour)
	if err != nil {
		t.Fatalf("reset stale: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 abandoned conversation, got %d", n)
	}
	if got, _ := o.Get(context.Background(), stale.ID); got.Status != domain.StatusAbandoned {
		t.Fatalf("expected stale conversation abandoned, got %s", got.Status)
	}
	if got, _ := o.Get(context.Background(), fresh.ID); got.Status != domain.StatusActive {
		t.Fatalf("expected fresh conversation untouched, got %s", got.Status)
	}
	if _, err := o.ResetStale(context.Background(), 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid idle, got %v", err)
	}
}
