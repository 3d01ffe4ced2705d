package cards

import (
	"context"
	"errors"
	"testing"

	"github.com/covalynce/covalynce-cli/internal/model"
)

func TestOpenEditorSnapshotsCard(t *testing.T) {
	s, _, _ := seedStore(&fakeBackend{}, card("c1", model.CategoryMarketing))

	if !s.OpenEditor("c1") {
		t.Fatal("OpenEditor returned false for a present card")
	}
	content, _, open := s.Draft()
	if !open {
		t.Fatal("no draft open")
	}
	if content != "content of c1" {
		t.Errorf("draft = %q, want snapshot of card content", content)
	}

	// Editing the draft must not leak into the collection.
	s.SetDraft("edited")
	got, _ := s.Get("c1")
	if got.Content != "content of c1" {
		t.Errorf("collection card mutated to %q before save", got.Content)
	}
}

func TestOpenEditorMissingCard(t *testing.T) {
	s, _, _ := seedStore(&fakeBackend{})
	if s.OpenEditor("nope") {
		t.Error("OpenEditor returned true for an absent card")
	}
}

func TestRephraseFailureKeepsDraft(t *testing.T) {
	backend := &fakeBackend{
		rephraseFn: func(context.Context, string, string) (string, error) {
			return "", errors.New("model overloaded")
		},
	}
	s, toasts, _ := seedStore(backend, card("c1", model.CategoryMarketing))
	s.OpenEditor("c1")
	s.SetDraft("my own words")

	if err := s.RephraseDraft(context.Background(), "u1"); err == nil {
		t.Error("expected error from failed rephrase")
	}

	content, _, open := s.Draft()
	if !open {
		t.Fatal("edit session closed by failure")
	}
	if content != "my own words" {
		t.Errorf("draft = %q, want user text preserved", content)
	}
	if len(toasts.messages) != 1 {
		t.Errorf("toasts = %v, want one warning", toasts.messages)
	}
}

func TestRephraseReplacesDraft(t *testing.T) {
	backend := &fakeBackend{
		rephraseFn: func(_ context.Context, _ string, content string) (string, error) {
			return "polished: " + content, nil
		},
	}
	s, _, _ := seedStore(backend, card("c1", model.CategoryMarketing))
	s.OpenEditor("c1")

	if err := s.RephraseDraft(context.Background(), "u1"); err != nil {
		t.Fatalf("RephraseDraft: %v", err)
	}
	content, _, _ := s.Draft()
	if content != "polished: content of c1" {
		t.Errorf("draft = %q", content)
	}
}

func TestGenerateImageRejectsEmptyDraftLocally(t *testing.T) {
	backend := &fakeBackend{
		imageFn: func(context.Context, string, string, string) (string, error) {
			t.Error("empty draft must not reach the network")
			return "", nil
		},
	}
	s, toasts, _ := seedStore(backend, card("c1", model.CategoryMarketing))
	s.OpenEditor("c1")
	s.SetDraft("")

	if err := s.GenerateDraftImage(context.Background(), "u1"); err != nil {
		t.Fatalf("GenerateDraftImage: %v", err)
	}
	if len(toasts.messages) != 1 {
		t.Errorf("toasts = %v, want one warning", toasts.messages)
	}
}

func TestSaveDraftCommitsByID(t *testing.T) {
	s, _, _ := seedStore(&fakeBackend{},
		card("c1", model.CategoryMarketing),
		card("c2", model.CategoryStrategy),
	)
	s.OpenEditor("c2")
	s.SetDraft("rewritten")
	s.SaveDraft()

	got, ok := s.Get("c2")
	if !ok {
		t.Fatal("c2 missing after save")
	}
	if got.Content != "rewritten" {
		t.Errorf("content = %q, want rewritten", got.Content)
	}
	if _, _, open := s.Draft(); open {
		t.Error("edit session still open after save")
	}

	// Untouched cards stay untouched.
	other, _ := s.Get("c1")
	if other.Content != "content of c1" {
		t.Errorf("c1 content = %q, want unchanged", other.Content)
	}
}

func TestCloseEditorAbandonsDraft(t *testing.T) {
	s, _, _ := seedStore(&fakeBackend{}, card("c1", model.CategoryMarketing))
	s.OpenEditor("c1")
	s.SetDraft("abandoned")
	s.CloseEditor()

	got, _ := s.Get("c1")
	if got.Content != "content of c1" {
		t.Errorf("content = %q, want unchanged after close", got.Content)
	}
}

func TestFreeDraftSaveLeavesCollectionAlone(t *testing.T) {
	s, _, _ := seedStore(&fakeBackend{}, card("c1", model.CategoryMarketing))
	s.OpenDraft("lifted from a competitor post")
	s.SaveDraft()

	if s.Count() != 1 {
		t.Errorf("count = %d, want 1", s.Count())
	}
	got, _ := s.Get("c1")
	if got.Content != "content of c1" {
		t.Errorf("c1 mutated by free draft save: %q", got.Content)
	}
}
