package app

import (
	"strings"

	"live-poll-service/internal/domain"
)

// registry tracks connected students keyed by connection identity. It carries
// no lock of its own; the owning Session serializes every access.
type registry struct {
	students map[string]*domain.Student
	order    []string
}

func newRegistry() *registry {
	return &registry{students: make(map[string]*domain.Student)}
}

// join registers or overwrites the student for a connection. Re-joining with
// the same connection id keeps its original position in the roster.
func (r *registry) join(connID, name string) (*domain.Student, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, domain.ErrNameRequired
	}
	if _, ok := r.students[connID]; !ok {
		r.order = append(r.order, connID)
	}
	student := &domain.Student{ID: connID, Name: trimmed}
	r.students[connID] = student
	return student, nil
}

func (r *registry) get(connID string) (*domain.Student, bool) {
	student, ok := r.students[connID]
	return student, ok
}

func (r *registry) remove(connID string) {
	if _, ok := r.students[connID]; !ok {
		return
	}
	delete(r.students, connID)
	for i, id := range r.order {
		if id == connID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// resetAnswers clears per-round answer state; called once per question start.
func (r *registry) resetAnswers() {
	for _, student := range r.students {
		student.HasAnsweredCurrent = false
		student.IsCorrectAnswer = nil
	}
}

// allAnswered reports whether every connected student has answered the
// current question. An empty roster never reports true.
func (r *registry) allAnswered() bool {
	if len(r.students) == 0 {
		return false
	}
	for _, student := range r.students {
		if !student.HasAnsweredCurrent {
			return false
		}
	}
	return true
}

// snapshot returns the roster in join order as value copies.
func (r *registry) snapshot() []domain.Student {
	out := make([]domain.Student, 0, len(r.students))
	for _, id := range r.order {
		if student, ok := r.students[id]; ok {
			out = append(out, *student)
		}
	}
	return out
}
