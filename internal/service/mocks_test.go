package service

import (
	"context"
	"io"
	"time"

	"github.com/Rrens/chatdesk/internal/domain"
	"github.com/Rrens/chatdesk/internal/responder"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockSessionRepository mocks the SessionRepository interface
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) FindByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID) (*domain.Session, error) {
	args := m.Called(ctx, id, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockSessionRepository) Create(ctx context.Context, session *domain.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) Save(ctx context.Context, session *domain.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.SessionSummary, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]domain.SessionSummary), args.Error(1)
}

func (m *MockSessionRepository) UpdateTitle(ctx context.Context, id, ownerID uuid.UUID, title string, now time.Time) (*domain.Session, error) {
	args := m.Called(ctx, id, ownerID, title, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockSessionRepository) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	args := m.Called(ctx, id, ownerID)
	return args.Error(0)
}

// MockUserRepository mocks the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

// MockResponder mocks the Responder interface
type MockResponder struct {
	mock.Mock
}

func (m *MockResponder) Respond(ctx context.Context, prompt string) responder.Result {
	args := m.Called(ctx, prompt)
	return args.Get(0).(responder.Result)
}

// MockTitleSuggester mocks the TitleSuggester interface
type MockTitleSuggester struct {
	mock.Mock
}

func (m *MockTitleSuggester) SuggestTitle(ctx context.Context, message string) (string, error) {
	args := m.Called(ctx, message)
	return args.String(0), args.Error(1)
}

// MockDocumentProcessor mocks the DocumentProcessor interface
type MockDocumentProcessor struct {
	mock.Mock
}

func (m *MockDocumentProcessor) Process(ctx context.Context, filename string, content io.Reader) (map[string]any, error) {
	// drain so the store sees a rewound reader
	io.Copy(io.Discard, content)
	args := m.Called(ctx, filename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]any), args.Error(1)
}

// MockBlobStore mocks the BlobStore interface
type MockBlobStore struct {
	mock.Mock
	received []byte
}

func (m *MockBlobStore) Upload(ctx context.Context, name, contentType string, r io.Reader) (string, string, error) {
	m.received, _ = io.ReadAll(r)
	args := m.Called(ctx, name, contentType)
	return args.String(0), args.String(1), args.Error(2)
}
