package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Rrens/chatdesk/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionRepository implements domain.SessionRepository.
// Messages live in a jsonb column next to the session row.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func marshalMessages(msgs []domain.Message) ([]byte, error) {
	if msgs == nil {
		msgs = []domain.Message{}
	}
	data, err := json.Marshal(msgs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal messages: %w", err)
	}
	return data, nil
}

func (r *SessionRepository) FindByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID) (*domain.Session, error) {
	query := `
		SELECT id, owner_id, title, messages, version, created_at, updated_at
		FROM chat_sessions
		WHERE id = $1 AND owner_id = $2
	`
	var (
		s    domain.Session
		msgs []byte
	)
	err := r.pool.QueryRow(ctx, query, id, ownerID).Scan(
		&s.ID,
		&s.OwnerID,
		&s.Title,
		&msgs,
		&s.Version,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if err := json.Unmarshal(msgs, &s.Messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal messages: %w", err)
	}
	return &s, nil
}

func (r *SessionRepository) Create(ctx context.Context, session *domain.Session) error {
	msgs, err := marshalMessages(session.Messages)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO chat_sessions (id, owner_id, title, messages, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.pool.Exec(ctx, query,
		session.ID,
		session.OwnerID,
		session.Title,
		msgs,
		session.Version,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
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
		SET title = $1, messages = $2, updated_at = $3, version = version + 1
		WHERE id = $4 AND owner_id = $5 AND version = $6
	`
	tag, err := r.pool.Exec(ctx, query,
		session.Title,
		msgs,
		session.UpdatedAt,
		session.ID,
		session.OwnerID,
		session.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session %s changed concurrently: %w", session.ID, domain.ErrConflict)
	}

	session.Version++
	return nil
}

func (r *SessionRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.SessionSummary, error) {
	query := `
		SELECT id, title, created_at, updated_at
		FROM chat_sessions
		WHERE owner_id = $1
		ORDER BY updated_at DESC
	`
	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []domain.SessionSummary{}
	for rows.Next() {
		var s domain.SessionSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
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
		SET title = $1, updated_at = $2, version = version + 1
		WHERE id = $3 AND owner_id = $4
		RETURNING id, owner_id, title, messages, version, created_at, updated_at
	`
	var (
		s    domain.Session
		msgs []byte
	)
	err := r.pool.QueryRow(ctx, query, title, now, id, ownerID).Scan(
		&s.ID,
		&s.OwnerID,
		&s.Title,
		&msgs,
		&s.Version,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update title: %w", err)
	}
	if err := json.Unmarshal(msgs, &s.Messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal messages: %w", err)
	}
	return &s, nil
}

func (r *SessionRepository) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	query := `DELETE FROM chat_sessions WHERE id = $1 AND owner_id = $2`
	tag, err := r.pool.Exec(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
