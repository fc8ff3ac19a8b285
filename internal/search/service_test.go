package search

import (
	"context"
	"testing"
	"time"

	"github.com/shopsearch/shop-search/internal/bus"
	"github.com/shopsearch/shop-search/internal/catalog"
	"github.com/shopsearch/shop-search/internal/conversation"
	"github.com/shopsearch/shop-search/internal/enhance"
	"github.com/shopsearch/shop-search/internal/intent"
	"github.com/shopsearch/shop-search/internal/params"
	"github.com/shopsearch/shop-search/internal/personalize"
	"github.com/shopsearch/shop-search/internal/pipeline"
	"github.com/shopsearch/shop-search/internal/pkg/logger"
	"github.com/shopsearch/shop-search/internal/rank"
	"github.com/shopsearch/shop-search/internal/respond"
	"github.com/shopsearch/shop-search/internal/validate"
	"github.com/shopsearch/shop-search/internal/vectordb"
)

func testLogger() *logger.Logger {
	return logger.New("error", "text")
}

type testEnv struct {
	svc      *Service
	sessions *conversation.MemoryStore
	prefs    *personalize.MemoryStore
	bus      *bus.MemoryBus
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	log := testLogger()

	products := []catalog.Product{
		{ID: "p1", Name: "Pegasus 41", Brand: "Nike", Category: "running shoes", Description: "responsive nike running shoes", Price: 80, InStock: true},
		{ID: "p2", Name: "Winflo 11", Brand: "Nike", Category: "running shoes", Description: "cushioned nike running shoes", Price: 75, InStock: true},
		{ID: "p3", Name: "Gel-Kayano", Brand: "Asics", Category: "running shoes", Description: "stable asics running shoes", Price: 85, InStock: true},
	}

	orch := pipeline.NewOrchestrator(
		intent.NewClassifier(nil, 0.3, log),
		params.NewExtractor(nil, log),
		conversation.NewResolver(),
		enhance.NewEnhancer(),
		vectordb.NewMemoryRetriever(products),
		rank.NewRanker(rank.Options{}),
		validate.NewValidator(3),
		respond.NewGenerator(nil, 3, log),
		pipeline.Options{EnableConversation: opts.EnableConversation},
		log,
	)

	sessions := conversation.NewMemoryStore(0)
	prefs := personalize.NewMemoryStore()
	eventBus := bus.NewMemoryBus(log)
	t.Cleanup(func() { eventBus.Close() })

	return &testEnv{
		svc:      NewService(orch, sessions, prefs, eventBus, opts, log),
		sessions: sessions,
		prefs:    prefs,
		bus:      eventBus,
	}
}

func TestSearchAssignsSessionID(t *testing.T) {
	env := newTestEnv(t, Options{})

	resp, err := env.svc.Search(context.Background(), Request{Query: "nike running shoes"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.SessionID == "" {
		t.Error("session ID should be assigned")
	}
	if resp.RequestID == "" {
		t.Error("request ID should be assigned")
	}
	if resp.Response == "" {
		t.Fatal("response text must never be empty")
	}
}

func TestSearchKeepsSessionID(t *testing.T) {
	env := newTestEnv(t, Options{})

	resp, err := env.svc.Search(context.Background(), Request{Query: "nike running shoes", SessionID: "mine"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.SessionID != "mine" {
		t.Errorf("SessionID = %q, want mine", resp.SessionID)
	}
}

func TestSearchCapsResults(t *testing.T) {
	env := newTestEnv(t, Options{TopN: 2})

	resp, err := env.svc.Search(context.Background(), Request{Query: "nike running shoes"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(resp.Results) > 2 {
		t.Errorf("got %d results, want at most 2", len(resp.Results))
	}
}

func TestSearchSavesTurn(t *testing.T) {
	env := newTestEnv(t, Options{EnableConversation: true})
	ctx := context.Background()

	if _, err := env.svc.Search(ctx, Request{Query: "nike running shoes", SessionID: "s1"}); err != nil {
		t.Fatalf("Search: %v", err)
	}

	sessCtx, err := env.sessions.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(sessCtx.Turns) != 1 {
		t.Fatalf("Turns = %d, want 1", len(sessCtx.Turns))
	}
	turn := sessCtx.Turns[0]
	if turn.Query != "nike running shoes" {
		t.Errorf("turn query = %q", turn.Query)
	}
	if len(turn.TopResults) == 0 {
		t.Error("turn should record the top result IDs")
	}
}

func TestSearchFollowUpUsesSavedTurn(t *testing.T) {
	env := newTestEnv(t, Options{EnableConversation: true})
	ctx := context.Background()

	if _, err := env.svc.Search(ctx, Request{Query: "nike running shoes", SessionID: "s1"}); err != nil {
		t.Fatalf("first search: %v", err)
	}
	resp, err := env.svc.Search(ctx, Request{Query: "cheaper", SessionID: "s1"})
	if err != nil {
		t.Fatalf("follow-up search: %v", err)
	}
	if resp.Response == "" {
		t.Fatal("response text must never be empty")
	}
	if len(resp.Results) == 0 {
		t.Error("follow-up should resolve against the saved turn and find results")
	}
}

func TestSearchPublishesTelemetry(t *testing.T) {
	env := newTestEnv(t, Options{})
	ctx := context.Background()

	events := make(chan bus.Event, 1)
	env.bus.Subscribe(ctx, bus.TopicSearchCompleted, func(ctx context.Context, event bus.Event) error {
		events <- event
		return nil
	})

	if _, err := env.svc.Search(ctx, Request{Query: "nike running shoes", SessionID: "s1"}); err != nil {
		t.Fatalf("Search: %v", err)
	}

	select {
	case event := <-events:
		if event.SessionID != "s1" {
			t.Errorf("event session = %q", event.SessionID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no telemetry event published")
	}
}

func TestSearchLearnsPreferences(t *testing.T) {
	env := newTestEnv(t, Options{EnablePersonalization: true})
	ctx := context.Background()

	// Repeat exposure across searches promotes the brand.
	for i := 0; i < 2; i++ {
		if _, err := env.svc.Search(ctx, Request{Query: "nike running shoes", UserID: "u1"}); err != nil {
			t.Fatalf("Search: %v", err)
		}
	}

	prefs, err := env.prefs.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !prefs.PrefersCategory("running shoes") {
		t.Errorf("category affinity not learned: %+v", prefs)
	}
	if !prefs.PrefersBrand("Nike") {
		t.Errorf("brand preference not learned: %+v", prefs)
	}
}

func TestSubmitFeedback(t *testing.T) {
	env := newTestEnv(t, Options{})
	ctx := context.Background()

	events := make(chan bus.Event, 1)
	env.bus.Subscribe(ctx, bus.TopicFeedbackReceived, func(ctx context.Context, event bus.Event) error {
		events <- event
		return nil
	})

	fb := Feedback{SessionID: "s1", Query: "nike running shoes", Rating: 4}
	if err := env.svc.SubmitFeedback(ctx, fb); err != nil {
		t.Fatalf("SubmitFeedback: %v", err)
	}

	select {
	case event := <-events:
		got, ok := event.Payload.(Feedback)
		if !ok {
			t.Fatalf("payload type %T", event.Payload)
		}
		if got.Rating != 4 {
			t.Errorf("rating = %d", got.Rating)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no feedback event published")
	}
}
