package app

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/pscheid92/examguard/internal/domain"
)

// Registry tracks the active attempt of every student in the process.
type Registry struct {
	mu     sync.Mutex
	active map[int64]uuid.UUID
}

func NewRegistry() *Registry {
	return &Registry{active: make(map[int64]uuid.UUID)}
}

// Acquire marks the attempt as the student's active one. It fails with
// domain.ErrSessionActive if another attempt holds the slot.
func (r *Registry) Acquire(studentID int64, attempt uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if held, ok := r.active[studentID]; ok && held != attempt {
		return fmt.Errorf("student %d already in attempt %s: %w", studentID, held, domain.ErrSessionActive)
	}
	r.active[studentID] = attempt
	return nil
}

// Release frees the slot if the attempt still holds it.
func (r *Registry) Release(studentID int64, attempt uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if held, ok := r.active[studentID]; ok && held == attempt {
		delete(r.active, studentID)
	}
}

// Active returns the student's active attempt.
func (r *Registry) Active(studentID int64) (uuid.UUID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.active[studentID]
	return id, ok
}
