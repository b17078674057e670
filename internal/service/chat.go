package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Rrens/chatdesk/internal/domain"
	"github.com/Rrens/chatdesk/internal/llm"
	"github.com/Rrens/chatdesk/internal/responder"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Responder produces the assistant reply for a user turn
type Responder interface {
	Respond(ctx context.Context, prompt string) responder.Result
}

// TitleSuggester generates a session title from the first user message
type TitleSuggester interface {
	SuggestTitle(ctx context.Context, message string) (string, error)
}

// ChatService handles session and message operations
type ChatService struct {
	sessions  domain.SessionRepository
	responder Responder
	titles    TitleSuggester
	locker    Locker
	now       func() time.Time
}

// NewChatService creates a new chat service. titles may be nil, in which
// case suggested titles are always derived from the message text.
func NewChatService(
	sessions domain.SessionRepository,
	responder Responder,
	titles TitleSuggester,
	locker Locker,
) *ChatService {
	return &ChatService{
		sessions:  sessions,
		responder: responder,
		titles:    titles,
		locker:    locker,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateSession creates an empty session with a store-assigned id
func (s *ChatService) CreateSession(ctx context.Context, ownerID uuid.UUID, input domain.SessionCreate) (*domain.Session, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = domain.DefaultSessionTitle
	}

	now := s.now()
	session := &domain.Session{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Title:     title,
		Messages:  []domain.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// ListSessions returns the owner's sessions, most recently updated first
func (s *ChatService) ListSessions(ctx context.Context, ownerID uuid.UUID) ([]domain.SessionSummary, error) {
	return s.sessions.ListByOwner(ctx, ownerID)
}

// GetSession returns a session with all of its messages
func (s *ChatService) GetSession(ctx context.Context, id, ownerID uuid.UUID) (*domain.Session, error) {
	session, err := s.sessions.FindByIDAndOwner(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, domain.ErrNotFound
	}
	return session, nil
}

// UpdateTitle renames a session
func (s *ChatService) UpdateTitle(ctx context.Context, id, ownerID uuid.UUID, title string) (*domain.Session, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, domain.ErrBlankContent
	}
	return s.sessions.UpdateTitle(ctx, id, ownerID, title, s.now())
}

// DeleteSession removes a session and its messages
func (s *ChatService) DeleteSession(ctx context.Context, id, ownerID uuid.UUID) error {
	return s.sessions.Delete(ctx, id, ownerID)
}

// AddMessage appends one message with an explicit role, without asking the responder
func (s *ChatService) AddMessage(ctx context.Context, id, ownerID uuid.UUID, input domain.MessageCreate) (*domain.Session, error) {
	if strings.TrimSpace(input.Content) == "" {
		return nil, domain.ErrBlankContent
	}

	unlock, err := s.locker.Lock(ctx, id.String())
	if err != nil {
		return nil, err
	}
	defer unlock()

	session, err := s.GetSession(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	session.Append(domain.NewMessage(input.Role, input.Content, s.now()))

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return session, nil
}

// SendMessage records a user turn and the assistant's reply in the session,
// creating the session under the caller's id if it does not exist yet.
// A responder failure does not fail the call; the stored reply is then
// responder.FailureNotice. Cancelling ctx after the lock is held does not
// stop the exchange from being stored.
func (s *ChatService) SendMessage(ctx context.Context, id, ownerID uuid.UUID, text string) (*domain.Exchange, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrBlankContent
	}

	unlock, err := s.locker.Lock(ctx, id.String())
	if err != nil {
		return nil, err
	}
	defer unlock()

	session, err := s.sessions.FindByIDAndOwner(ctx, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	created := session == nil
	if created {
		now := s.now()
		session = &domain.Session{
			ID:        id,
			OwnerID:   ownerID,
			Title:     domain.SendSessionTitle,
			Messages:  []domain.Message{},
			CreatedAt: now,
			UpdatedAt: now,
		}
	}

	userMsg := domain.NewMessage(domain.RoleUser, text, s.now())

	res := s.responder.Respond(ctx, userMsg.Content)
	logger := log.With().
		Str("session_id", id.String()).
		Str("responder", res.Status.String()).
		Logger()
	if res.Status != responder.StatusOK {
		logger.Warn().Err(res.Err).Msg("responder did not answer from primary endpoint")
	}

	assistantMsg := domain.NewMessage(domain.RoleAssistant, res.Text, s.now())
	session.Append(userMsg, assistantMsg)

	// persisted even if the caller has gone away
	persistCtx := context.WithoutCancel(ctx)

	// A new session is written once, with the exchange already in it
	if created {
		err = s.sessions.Create(persistCtx, session)
	} else {
		err = s.sessions.Save(persistCtx, session)
	}
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to persist exchange: %w", err)
	}

	logger.Info().Bool("created", created).Int("messages", len(session.Messages)).Msg("exchange persisted")

	return &domain.Exchange{
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
	}, nil
}

// SuggestTitle retitles a session from its first user message
func (s *ChatService) SuggestTitle(ctx context.Context, id, ownerID uuid.UUID) (*domain.Session, error) {
	session, err := s.GetSession(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	first, ok := session.FirstUserMessage()
	if !ok {
		return nil, domain.ErrNoUserMessage
	}

	title := llm.FallbackTitle(first.Content)
	if s.titles != nil {
		suggested, err := s.titles.SuggestTitle(ctx, first.Content)
		if err != nil {
			log.Warn().Err(err).Str("session_id", id.String()).Msg("title suggestion failed, using message prefix")
		} else {
			title = suggested
		}
	}

	return s.sessions.UpdateTitle(ctx, id, ownerID, title, s.now())
}
