// Package modal implements the parameterized dialog primitives. Each
// kind holds at most one active configuration; opening a second of the
// same kind replaces the first rather than queuing behind it.
package modal

import "sync"

// Kind enumerates the independent dialog kinds.
type Kind string

const (
	Confirm     Kind = "confirm"
	Prompt      Kind = "prompt"
	MultiPrompt Kind = "multi_prompt"
	Consent     Kind = "consent"
	Editor      Kind = "editor"
	PlanUpgrade Kind = "plan_upgrade"
	MemeEditor  Kind = "meme_editor"
)

// Field describes one input of a MultiPrompt dialog.
type Field struct {
	Key         string
	Label       string
	Placeholder string
}

// Config parameterizes a dialog. OnConfirm is the single continuation,
// invoked with the user-supplied values when the dialog is confirmed.
// Cancellation invokes nothing.
type Config struct {
	Kind        Kind
	Title       string
	Message     string
	Placeholder string
	Fields      []Field
	OnConfirm   func(values map[string]string)
}

// Stack tracks the active configuration per kind.
type Stack struct {
	mu     sync.Mutex
	active map[Kind]Config
}

// NewStack creates an empty Stack.
func NewStack() *Stack {
	return &Stack{active: make(map[Kind]Config)}
}

// Open activates cfg, replacing any prior configuration of the same
// kind.
func (s *Stack) Open(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active[cfg.Kind] = cfg
}

// Active returns the current configuration for kind, if any.
func (s *Stack) Active(kind Kind) (Config, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := s.active[kind]
	return cfg, ok
}

// ConfirmDialog closes the dialog of the given kind and invokes its
// continuation with values. It is a no-op when no dialog of that kind
// is open.
func (s *Stack) ConfirmDialog(kind Kind, values map[string]string) {
	s.mu.Lock()
	cfg, ok := s.active[kind]
	if ok {
		delete(s.active, kind)
	}
	s.mu.Unlock()

	// The continuation runs outside the lock: it routinely reopens
	// dialogs or mutates other stores.
	if ok && cfg.OnConfirm != nil {
		cfg.OnConfirm(values)
	}
}

// Cancel closes the dialog of the given kind without invoking its
// continuation.
func (s *Stack) Cancel(kind Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, kind)
}
