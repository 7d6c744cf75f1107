package wizard

import (
	"context"
	"sync"
)

// Registry holds at most one active session per borrower.
type Registry struct {
	deps Dependencies

	mu       sync.Mutex
	sessions map[string]*Machine
}

// NewRegistry returns an empty registry whose sessions share deps.
func NewRegistry(deps Dependencies) *Registry {
	return &Registry{
		deps:     deps,
		sessions: make(map[string]*Machine),
	}
}

// Start returns the borrower's active session, or opens a new one when there
// is none or the previous one completed.
func (r *Registry) Start(ctx context.Context, borrowerID string) (*Machine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.sessions[borrowerID]; ok && !m.Snapshot().Step.IsTerminal() {
		return m, nil
	}

	m, err := New(ctx, r.deps, borrowerID)
	if err != nil {
		return nil, err
	}
	r.sessions[borrowerID] = m
	return m, nil
}

// Get returns the borrower's session if one has been started.
func (r *Registry) Get(borrowerID string) (*Machine, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.sessions[borrowerID]
	return m, ok
}

// Remove drops the borrower's session.
func (r *Registry) Remove(borrowerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, borrowerID)
}

// Len returns the number of tracked sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
