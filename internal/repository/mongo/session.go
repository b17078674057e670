package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Rrens/chatdesk/internal/domain"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type messageDocument struct {
	Role      string    `bson:"role"`
	Content   string    `bson:"content"`
	CreatedAt time.Time `bson:"created_at"`
}

type sessionDocument struct {
	ID        string            `bson:"_id"`
	OwnerID   string            `bson:"owner_id"`
	Title     string            `bson:"title"`
	Messages  []messageDocument `bson:"messages,omitempty"`
	Version   int64             `bson:"version"`
	CreatedAt time.Time         `bson:"created_at"`
	UpdatedAt time.Time         `bson:"updated_at"`
}

func toMessageDocuments(msgs []domain.Message) []messageDocument {
	docs := make([]messageDocument, len(msgs))
	for i, m := range msgs {
		docs[i] = messageDocument{Role: string(m.Role), Content: m.Content, CreatedAt: m.CreatedAt}
	}
	return docs
}

func (d *sessionDocument) toDomain() (*domain.Session, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid session id %q: %w", d.ID, err)
	}
	ownerID, err := uuid.Parse(d.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("invalid owner id %q: %w", d.OwnerID, err)
	}

	msgs := make([]domain.Message, len(d.Messages))
	for i, m := range d.Messages {
		msgs[i] = domain.Message{Role: domain.MessageRole(m.Role), Content: m.Content, CreatedAt: m.CreatedAt}
	}

	return &domain.Session{
		ID:        id,
		OwnerID:   ownerID,
		Title:     d.Title,
		Messages:  msgs,
		Version:   d.Version,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}, nil
}

// SessionRepository implements domain.SessionRepository on a Mongo collection.
// A session and its messages are one document, so a save is a single write.
type SessionRepository struct {
	col *mongo.Collection
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{col: db.Database.Collection(sessionsCollection)}
}

func ownedBy(id, ownerID uuid.UUID) bson.M {
	return bson.M{"_id": id.String(), "owner_id": ownerID.String()}
}

func (r *SessionRepository) FindByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID) (*domain.Session, error) {
	var doc sessionDocument
	if err := r.col.FindOne(ctx, ownedBy(id, ownerID)).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return doc.toDomain()
}

func (r *SessionRepository) Create(ctx context.Context, session *domain.Session) error {
	doc := sessionDocument{
		ID:        session.ID.String(),
		OwnerID:   session.OwnerID.String(),
		Title:     session.Title,
		Messages:  toMessageDocuments(session.Messages),
		Version:   session.Version,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("session %s already exists: %w", session.ID, domain.ErrConflict)
		}
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Save(ctx context.Context, session *domain.Session) error {
	filter := ownedBy(session.ID, session.OwnerID)
	filter["version"] = session.Version

	update := bson.M{
		"$set": bson.M{
			"title":      session.Title,
			"messages":   toMessageDocuments(session.Messages),
			"updated_at": session.UpdatedAt,
		},
		"$inc": bson.M{"version": 1},
	}

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("session %s changed concurrently: %w", session.ID, domain.ErrConflict)
	}

	session.Version++
	return nil
}

func (r *SessionRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.SessionSummary, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}}).
		SetProjection(bson.M{"messages": 0})

	cur, err := r.col.Find(ctx, bson.M{"owner_id": ownerID.String()}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer cur.Close(ctx)

	summaries := []domain.SessionSummary{}
	for cur.Next(ctx) {
		var doc sessionDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode session: %w", err)
		}
		s, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, s.Summary())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return summaries, nil
}

func (r *SessionRepository) UpdateTitle(ctx context.Context, id, ownerID uuid.UUID, title string, now time.Time) (*domain.Session, error) {
	update := bson.M{
		"$set": bson.M{"title": title, "updated_at": now},
		"$inc": bson.M{"version": 1},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc sessionDocument
	if err := r.col.FindOneAndUpdate(ctx, ownedBy(id, ownerID), update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update title: %w", err)
	}
	return doc.toDomain()
}

func (r *SessionRepository) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	res, err := r.col.DeleteOne(ctx, ownedBy(id, ownerID))
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
