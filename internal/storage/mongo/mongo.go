// Package mongo is the session.Backend on MongoDB. Sessions keep a forward
// list of question ids alongside each question's back-reference.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SeptianSamdany/interview-prep-ai/internal/session"
	"github.com/SeptianSamdany/interview-prep-ai/pkg/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type sessionDoc struct {
	ID            primitive.ObjectID   `bson:"_id"`
	User          string               `bson:"user"`
	Role          string               `bson:"role"`
	Experience    string               `bson:"experience"`
	TopicsToFocus string               `bson:"topicsToFocus"`
	Description   string               `bson:"description"`
	Questions     []primitive.ObjectID `bson:"questions"`
	CreatedAt     time.Time            `bson:"createdAt"`
	UpdatedAt     time.Time            `bson:"updatedAt"`
}

type questionDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	Session   primitive.ObjectID `bson:"session"`
	Question  string             `bson:"question"`
	Answer    string             `bson:"answer"`
	Note      string             `bson:"note"`
	IsPinned  bool               `bson:"isPinned"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d *sessionDoc) model() *model.Session {
	return &model.Session{
		ID:            d.ID.Hex(),
		UserID:        d.User,
		Role:          d.Role,
		Experience:    d.Experience,
		TopicsToFocus: d.TopicsToFocus,
		Description:   d.Description,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func (d *questionDoc) model() *model.Question {
	return &model.Question{
		ID:        d.ID.Hex(),
		SessionID: d.Session.Hex(),
		Question:  d.Question,
		Answer:    d.Answer,
		Note:      d.Note,
		IsPinned:  d.IsPinned,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type Store struct {
	sessions  *mongodrv.Collection
	questions *mongodrv.Collection
}

var _ session.Backend = (*Store)(nil)

// Connect dials uri and verifies the primary is reachable.
func Connect(ctx context.Context, uri string) (*mongodrv.Client, error) {
	client, err := mongodrv.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

func New(db *mongodrv.Database) *Store {
	return &Store{
		sessions:  db.Collection("sessions"),
		questions: db.Collection("questions"),
	}
}

// EnsureIndexes creates the lookup indexes used by the store.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.sessions.Indexes().CreateOne(ctx, mongodrv.IndexModel{
		Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create sessions index: %w", err)
	}
	_, err = s.questions.Indexes().CreateOne(ctx, mongodrv.IndexModel{
		Keys: bson.D{{Key: "session", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create questions index: %w", err)
	}
	return nil
}

func (s *Store) InsertSession(ctx context.Context, sess *model.Session) error {
	oid, err := objectID(sess.ID)
	if err != nil {
		return err
	}
	doc := sessionDoc{
		ID:            oid,
		User:          sess.UserID,
		Role:          sess.Role,
		Experience:    sess.Experience,
		TopicsToFocus: sess.TopicsToFocus,
		Description:   sess.Description,
		Questions:     []primitive.ObjectID{},
		CreatedAt:     sess.CreatedAt,
		UpdatedAt:     sess.UpdatedAt,
	}
	if _, err := s.sessions.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// InsertQuestions uses an ordered insert so a failure leaves a prefix.
func (s *Store) InsertQuestions(ctx context.Context, qs []*model.Question) (int, error) {
	if len(qs) == 0 {
		return 0, nil
	}

	docs := make([]interface{}, 0, len(qs))
	for _, q := range qs {
		oid, err := objectID(q.ID)
		if err != nil {
			return 0, err
		}
		sid, err := objectID(q.SessionID)
		if err != nil {
			return 0, err
		}
		docs = append(docs, questionDoc{
			ID:        oid,
			Session:   sid,
			Question:  q.Question,
			Answer:    q.Answer,
			Note:      q.Note,
			IsPinned:  q.IsPinned,
			CreatedAt: q.CreatedAt,
			UpdatedAt: q.UpdatedAt,
		})
	}

	_, err := s.questions.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true))
	if err != nil {
		var bwe mongodrv.BulkWriteException
		if errors.As(err, &bwe) && len(bwe.WriteErrors) > 0 {
			return bwe.WriteErrors[0].Index, fmt.Errorf("insert questions: %w", err)
		}
		return 0, fmt.Errorf("insert questions: %w", err)
	}
	return len(qs), nil
}

func (s *Store) AttachQuestions(ctx context.Context, sessionID string, questionIDs []string, at time.Time) error {
	sid, err := objectID(sessionID)
	if err != nil {
		return err
	}
	oids, err := objectIDs(questionIDs)
	if err != nil {
		return err
	}

	update := bson.M{
		"$push": bson.M{"questions": bson.M{"$each": oids}},
		"$set":  bson.M{"updatedAt": at},
	}
	res, err := s.sessions.UpdateOne(ctx, bson.M{"_id": sid}, update)
	if err != nil {
		return fmt.Errorf("attach questions: %w", err)
	}
	if res.MatchedCount == 0 {
		return session.ErrNotFound
	}
	return nil
}

func (s *Store) FindSession(ctx context.Context, id string) (*model.Session, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc sessionDoc
	if err := s.sessions.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	return doc.model(), nil
}

func (s *Store) FindSessionsByOwner(ctx context.Context, ownerID string) ([]*model.Session, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := s.sessions.Find(ctx, bson.M{"user": ownerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find sessions: %w", err)
	}
	var docs []sessionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode sessions: %w", err)
	}

	out := make([]*model.Session, len(docs))
	for i := range docs {
		out[i] = docs[i].model()
	}
	return out, nil
}

func (s *Store) FindQuestion(ctx context.Context, id string) (*model.Question, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc questionDoc
	if err := s.questions.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	return doc.model(), nil
}

func (s *Store) FindQuestionsBySessions(ctx context.Context, sessionIDs []string) ([]*model.Question, error) {
	oids, err := objectIDs(sessionIDs)
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "isPinned", Value: -1},
		{Key: "createdAt", Value: 1},
		{Key: "_id", Value: 1},
	})
	cur, err := s.questions.Find(ctx, bson.M{"session": bson.M{"$in": oids}}, opts)
	if err != nil {
		return nil, fmt.Errorf("find questions: %w", err)
	}
	var docs []questionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}

	out := make([]*model.Question, len(docs))
	for i := range docs {
		out[i] = docs[i].model()
	}
	return out, nil
}

// TogglePin negates the stored flag server side with an update pipeline.
func (s *Store) TogglePin(ctx context.Context, questionID string, at time.Time) (*model.Question, error) {
	update := mongodrv.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "isPinned", Value: bson.D{{Key: "$not", Value: bson.A{"$isPinned"}}}},
			{Key: "updatedAt", Value: at},
		}}},
	}
	return s.findOneAndUpdate(ctx, questionID, update)
}

func (s *Store) UpdateNote(ctx context.Context, questionID, note string, at time.Time) (*model.Question, error) {
	update := bson.M{"$set": bson.M{"note": note, "updatedAt": at}}
	return s.findOneAndUpdate(ctx, questionID, update)
}

func (s *Store) findOneAndUpdate(ctx context.Context, questionID string, update interface{}) (*model.Question, error) {
	oid, err := objectID(questionID)
	if err != nil {
		return nil, err
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc questionDoc
	if err := s.questions.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	return doc.model(), nil
}

func (s *Store) DeleteQuestionsBySession(ctx context.Context, sessionID string) (int64, error) {
	sid, err := objectID(sessionID)
	if err != nil {
		return 0, err
	}
	res, err := s.questions.DeleteMany(ctx, bson.M{"session": sid})
	if err != nil {
		return 0, fmt.Errorf("delete questions: %w", err)
	}
	return res.DeletedCount, nil
}

// DeleteQuestions removes the questions and pulls them from any session's
// reference list.
func (s *Store) DeleteQuestions(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	oids, err := objectIDs(ids)
	if err != nil {
		return err
	}
	if _, err := s.questions.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": oids}}); err != nil {
		return fmt.Errorf("delete questions: %w", err)
	}
	_, err = s.sessions.UpdateMany(ctx,
		bson.M{"questions": bson.M{"$in": oids}},
		bson.M{"$pull": bson.M{"questions": bson.M{"$in": oids}}},
	)
	if err != nil {
		return fmt.Errorf("detach questions: %w", err)
	}
	return nil
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.sessions.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if res.DeletedCount == 0 {
		return session.ErrNotFound
	}
	return nil
}

// objectID maps a malformed id to ErrNotFound: no document can have it.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, session.ErrNotFound
	}
	return oid, nil
}

func objectIDs(ids []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, len(ids))
	for i, id := range ids {
		oid, err := objectID(id)
		if err != nil {
			return nil, err
		}
		out[i] = oid
	}
	return out, nil
}

func notFound(err error) error {
	if errors.Is(err, mongodrv.ErrNoDocuments) {
		return session.ErrNotFound
	}
	return err
}
