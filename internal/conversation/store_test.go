package conversation

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()

	sessCtx, err := s.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(sessCtx.Turns) != 0 {
		t.Fatal("fresh session should have no turns")
	}

	sessCtx.AddTurn(Turn{Query: "running shoes"}, 10)
	if err := s.Save(ctx, sessCtx); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := s.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Turns) != 1 || loaded.Turns[0].Query != "running shoes" {
		t.Errorf("Turns = %+v", loaded.Turns)
	}
}

func TestMemoryStoreLoadReturnsCopy(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()

	orig := &Context{SessionID: "s1"}
	orig.AddTurn(Turn{Query: "first"}, 10)
	if err := s.Save(ctx, orig); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, _ := s.Load(ctx, "s1")
	loaded.Turns[0].Query = "mutated"

	again, _ := s.Load(ctx, "s1")
	if again.Turns[0].Query != "first" {
		t.Error("mutating a loaded context leaked into the store")
	}
}

func TestMemoryStoreTTL(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	now := time.Now()
	s.now = func() time.Time { return now }
	ctx := context.Background()

	sessCtx := &Context{SessionID: "s1"}
	sessCtx.AddTurn(Turn{Query: "q"}, 10)
	if err := s.Save(ctx, sessCtx); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, _ := s.Load(ctx, "s1")
	if len(loaded.Turns) != 1 {
		t.Fatal("entry should be live before expiry")
	}

	now = now.Add(2 * time.Minute)
	loaded, _ = s.Load(ctx, "s1")
	if len(loaded.Turns) != 0 {
		t.Error("expired entry should load as fresh")
	}
}

func TestMemoryStoreClear(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()

	sessCtx := &Context{SessionID: "s1"}
	sessCtx.AddTurn(Turn{Query: "q"}, 10)
	s.Save(ctx, sessCtx)

	if err := s.Clear(ctx, "s1"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	loaded, _ := s.Load(ctx, "s1")
	if len(loaded.Turns) != 0 {
		t.Error("cleared session should load as fresh")
	}
}

func TestAddTurnTrimsHistory(t *testing.T) {
	sessCtx := &Context{SessionID: "s1"}
	for i := 0; i < 15; i++ {
		sessCtx.AddTurn(Turn{Query: string(rune('a' + i))}, 10)
	}
	if len(sessCtx.Turns) != 10 {
		t.Fatalf("Turns = %d, want trimmed to 10", len(sessCtx.Turns))
	}
	if sessCtx.Turns[0].Query != "f" {
		t.Errorf("oldest kept turn = %q, want f", sessCtx.Turns[0].Query)
	}
	if last := sessCtx.LastTurn(); last == nil || last.Query != "o" {
		t.Error("LastTurn should be the newest")
	}
}

func TestLastTurnNilSafe(t *testing.T) {
	var sessCtx *Context
	if sessCtx.LastTurn() != nil {
		t.Error("nil context should have no last turn")
	}
	if (&Context{}).LastTurn() != nil {
		t.Error("empty context should have no last turn")
	}
}
