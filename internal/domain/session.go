package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultSessionTitle is used for sessions created explicitly without a title
	DefaultSessionTitle = "untitled"

	// SendSessionTitle is used for sessions created implicitly by a send
	SendSessionTitle = "new conversation"
)

// Session is a persisted conversation thread owned by one user
type Session struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	Version   int64     `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Append adds messages in order and bumps UpdatedAt
func (s *Session) Append(msgs ...Message) {
	for _, m := range msgs {
		s.Messages = append(s.Messages, m)
		if m.CreatedAt.After(s.UpdatedAt) {
			s.UpdatedAt = m.CreatedAt
		}
	}
}

// FirstUserMessage returns the earliest user turn, if any
func (s *Session) FirstUserMessage() (Message, bool) {
	for _, m := range s.Messages {
		if m.Role == RoleUser {
			return m, true
		}
	}
	return Message{}, false
}

// Summary returns the list view of the session
func (s *Session) Summary() SessionSummary {
	return SessionSummary{
		ID:        s.ID,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// SessionSummary is a session without its messages
type SessionSummary struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionCreate represents explicit session creation data
type SessionCreate struct {
	Title string `json:"title" validate:"omitempty,max=200"`
}

// TitleUpdate represents a rename request
type TitleUpdate struct {
	Title string `json:"title" validate:"required,max=200"`
}

// SessionRepository defines the interface for session storage.
//
// FindByIDAndOwner returns (nil, nil) when no session with that id belongs to
// owner. Create fails with ErrConflict if the id is taken. Save writes title,
// messages and UpdatedAt only if the stored version equals session.Version,
// and increments session.Version on success; otherwise it returns ErrConflict.
type SessionRepository interface {
	FindByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID) (*Session, error)
	Create(ctx context.Context, session *Session) error
	Save(ctx context.Context, session *Session) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]SessionSummary, error)
	UpdateTitle(ctx context.Context, id, ownerID uuid.UUID, title string, now time.Time) (*Session, error)
	Delete(ctx context.Context, id, ownerID uuid.UUID) error
}
