package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Rrens/chatdesk/internal/domain"
	"github.com/google/uuid"
)

// SessionRepository implements domain.SessionRepository.
// Timestamps are stored as unix nanoseconds, messages as a JSON array.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(d *DB) *SessionRepository {
	return &SessionRepository{db: d.db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var (
		s                    domain.Session
		msgs                 string
		createdAt, updatedAt int64
	)
	if err := row.Scan(&s.ID, &s.OwnerID, &s.Title, &msgs, &s.Version, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(msgs), &s.Messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal messages: %w", err)
	}
	s.CreatedAt = time.Unix(0, createdAt).UTC()
	s.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return &s, nil
}

func marshalMessages(msgs []domain.Message) (string, error) {
	if msgs == nil {
		msgs = []domain.Message{}
	}
	data, err := json.Marshal(msgs)
	if err != nil {
		return "", fmt.Errorf("failed to marshal messages: %w", err)
	}
	return string(data), nil
}

func (r *SessionRepository) FindByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID) (*domain.Session, error) {
	query := `
		SELECT id, owner_id, title, messages, version, created_at, updated_at
		FROM chat_sessions
		WHERE id = ? AND owner_id = ?
	`
	s, err := scanSession(r.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return s, nil
}

func (r *SessionRepository) Create(ctx context.Context, session *domain.Session) error {
	msgs, err := marshalMessages(session.Messages)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO chat_sessions (id, owner_id, title, messages, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		session.ID,
		session.OwnerID,
		session.Title,
		msgs,
		session.Version,
		session.CreatedAt.UnixNano(),
		session.UpdatedAt.UnixNano(),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("session %s already exists: %w", session.ID, domain.ErrConflict)
		}
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Save(ctx context.Context, session *domain.Session) error {
	msgs, err := marshalMessages(session.Messages)
	if err != nil {
		return err
	}

	query := `
		UPDATE chat_sessions
		SET title = ?, messages = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND owner_id = ? AND version = ?
	`
	res, err := r.db.ExecContext(ctx, query,
		session.Title,
		msgs,
		session.UpdatedAt.UnixNano(),
		session.ID,
		session.OwnerID,
		session.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("session %s changed concurrently: %w", session.ID, domain.ErrConflict)
	}

	session.Version++
	return nil
}

func (r *SessionRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.SessionSummary, error) {
	query := `
		SELECT id, title, created_at, updated_at
		FROM chat_sessions
		WHERE owner_id = ?
		ORDER BY updated_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []domain.SessionSummary{}
	for rows.Next() {
		var (
			s                    domain.SessionSummary
			createdAt, updatedAt int64
		)
		if err := rows.Scan(&s.ID, &s.Title, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		s.CreatedAt = time.Unix(0, createdAt).UTC()
		s.UpdatedAt = time.Unix(0, updatedAt).UTC()
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return sessions, nil
}

func (r *SessionRepository) UpdateTitle(ctx context.Context, id, ownerID uuid.UUID, title string, now time.Time) (*domain.Session, error) {
	query := `
		UPDATE chat_sessions
		SET title = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND owner_id = ?
		RETURNING id, owner_id, title, messages, version, created_at, updated_at
	`
	s, err := scanSession(r.db.QueryRowContext(ctx, query, title, now.UnixNano(), id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update title: %w", err)
	}
	return s, nil
}

func (r *SessionRepository) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM chat_sessions WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
