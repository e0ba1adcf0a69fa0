package agents

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/Batatao343/rpg-ia-master/internal/services"
	"github.com/Batatao343/rpg-ia-master/pkg/actor"
	"github.com/Batatao343/rpg-ia-master/pkg/chat"
	"github.com/Batatao343/rpg-ia-master/pkg/rag"
	"github.com/Batatao343/rpg-ia-master/pkg/state"
)

type fakeRetriever struct {
	lore string
	err  error
}

func (f fakeRetriever) Query(context.Context, string, string, string) (string, error) {
	return f.lore, f.err
}

func storySession() *state.GameState {
	gs := state.NewGameState(&actor.PlayerState{Name: "Kael", HP: 20, MaxHP: 20})
	gs.World.Location = "Vilarejo"
	return gs
}

func newStoryteller(llm services.LLMService, retriever rag.Retriever) *Storyteller {
	designer := NewDesigner(llm, nil, discardLogger())
	return NewStoryteller(llm, retriever, designer, discardLogger())
}

func TestStorytellerRespond(t *testing.T) {
	llm := services.NewMockLLM()
	llm.ChatFunc = func(_ context.Context, system string, _ []chat.Message) (string, error) {
		if !strings.Contains(system, "A mina foi selada há cem anos.") {
			t.Error("retrieved lore missing from system prompt")
		}
		return "O vilarejo acorda sob neblina.", nil
	}
	llm.GenerateJSONFunc = func(_ context.Context, _ string, _ []chat.Message, out any) error {
		return json.Unmarshal([]byte(`{"location": "", "new_npcs": [], "beat_concluded": false}`), out)
	}

	s := newStoryteller(llm, fakeRetriever{lore: "A mina foi selada há cem anos."})
	delta := s.Respond(context.Background(), storySession(), "olho ao redor")

	if len(delta.Messages) != 2 || !delta.Messages[1].IsNarrative() {
		t.Fatalf("expected user + narrative, got %+v", delta.Messages)
	}
	if delta.Location != "" {
		t.Errorf("no move should leave location empty, got %q", delta.Location)
	}
}

func TestStorytellerSceneChange(t *testing.T) {
	llm := services.NewMockLLM()
	calls := 0
	llm.GenerateJSONFunc = func(_ context.Context, system string, _ []chat.Message, out any) error {
		calls++
		if strings.Contains(system, "designer de personagens") {
			return json.Unmarshal([]byte(`{"name": "Velha Ceiça", "role": "curandeira", "persona": "enigmática"}`), out)
		}
		return json.Unmarshal([]byte(`{"location": "Floresta Sombria", "new_npcs": ["Velha Ceiça"], "beat_concluded": true}`), out)
	}

	s := newStoryteller(llm, rag.Noop{})
	delta := s.Respond(context.Background(), storySession(), "sigo pela trilha")

	if delta.Location != "Floresta Sombria" {
		t.Errorf("location = %q, want Floresta Sombria", delta.Location)
	}
	if !delta.AdvanceBeat {
		t.Error("concluded beat should advance the campaign")
	}
	if len(delta.NewNPCs) != 1 || delta.NewNPCs[0].ID != "velha-ceica" {
		t.Fatalf("new NPC wrong: %+v", delta.NewNPCs)
	}
	if delta.NewNPCs[0].Location != "Floresta Sombria" {
		t.Errorf("introduced NPC should live where the scene moved, got %q", delta.NewNPCs[0].Location)
	}
}

func TestStorytellerKnownNPCNotReintroduced(t *testing.T) {
	llm := services.NewMockLLM()
	llm.GenerateJSONFunc = func(_ context.Context, _ string, _ []chat.Message, out any) error {
		return json.Unmarshal([]byte(`{"location": "", "new_npcs": ["Borin"], "beat_concluded": false}`), out)
	}

	gs := storySession()
	gs.NPCs["borin"] = &actor.NPC{ID: "borin", Name: "Borin", Location: "Vilarejo"}

	s := newStoryteller(llm, rag.Noop{})
	delta := s.Respond(context.Background(), gs, "procuro o ferreiro")

	if len(delta.NewNPCs) != 0 {
		t.Errorf("present NPC must not be re-introduced: %+v", delta.NewNPCs)
	}
}

func TestStorytellerProviderDown(t *testing.T) {
	llm := services.NewMockLLM()
	llm.ChatFunc = func(context.Context, string, []chat.Message) (string, error) {
		return "", errors.New("provider down")
	}
	llm.GenerateJSONFunc = func(context.Context, string, []chat.Message, any) error {
		return errors.New("provider down")
	}

	s := newStoryteller(llm, fakeRetriever{err: errors.New("index offline")})
	delta := s.Respond(context.Background(), storySession(), "olá?")

	last := delta.Messages[len(delta.Messages)-1]
	if !last.IsNarrative() {
		t.Fatal("provider failure must still yield a narrative")
	}
	if !strings.Contains(last.Content, "indisponível") {
		t.Errorf("expected fallback text, got %q", last.Content)
	}
}
