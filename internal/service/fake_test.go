package service

import (
	"context"
	"sync"
	"time"

	"github.com/Rrens/chatdesk/internal/domain"
	"github.com/google/uuid"
)

// memSessionRepository is an in-memory SessionRepository with the same
// versioning rules as the real stores. Writes fail on a done context, like
// the database drivers do.
type memSessionRepository struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]domain.Session
}

func newMemSessionRepository() *memSessionRepository {
	return &memSessionRepository{sessions: make(map[uuid.UUID]domain.Session)}
}

func clone(s domain.Session) *domain.Session {
	s.Messages = append([]domain.Message(nil), s.Messages...)
	return &s
}

func (r *memSessionRepository) FindByIDAndOwner(_ context.Context, id, ownerID uuid.UUID) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.OwnerID != ownerID {
		return nil, nil
	}
	return clone(s), nil
}

func (r *memSessionRepository) Create(ctx context.Context, session *domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[session.ID]; ok {
		return domain.ErrConflict
	}
	r.sessions[session.ID] = *clone(*session)
	return nil
}

func (r *memSessionRepository) Save(ctx context.Context, session *domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.sessions[session.ID]
	if !ok || stored.OwnerID != session.OwnerID || stored.Version != session.Version {
		return domain.ErrConflict
	}
	session.Version++
	r.sessions[session.ID] = *clone(*session)
	return nil
}

func (r *memSessionRepository) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]domain.SessionSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.SessionSummary
	for _, s := range r.sessions {
		if s.OwnerID == ownerID {
			out = append(out, s.Summary())
		}
	}
	return out, nil
}

func (r *memSessionRepository) UpdateTitle(_ context.Context, id, ownerID uuid.UUID, title string, now time.Time) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	s.Title = title
	s.UpdatedAt = now
	s.Version++
	r.sessions[id] = s
	return clone(s), nil
}

func (r *memSessionRepository) Delete(_ context.Context, id, ownerID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.OwnerID != ownerID {
		return domain.ErrNotFound
	}
	delete(r.sessions, id)
	return nil
}
