package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mindcoach-service/internal/domain"
)

// QuestionStore loads and saves question documents.
type QuestionStore struct {
	collection *mongo.Collection
}

func NewQuestionStore(db *mongo.Database) *QuestionStore {
	return &QuestionStore{collection: db.Collection(questionsCollection)}
}

func (s *QuestionStore) LoadQuestions(ctx context.Context) ([]domain.Question, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}, {Key: "createdAt", Value: 1}})
	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer cursor.Close(ctx)

	questions := make([]domain.Question, 0)
	if err := cursor.All(ctx, &questions); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	return questions, nil
}

func (s *QuestionStore) SaveQuestion(ctx context.Context, q domain.Question) error {
	if err := q.Validate(); err != nil {
		return err
	}
	_, err := s.collection.ReplaceOne(ctx, bson.M{"_id": q.ID}, q, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save question: %w", err)
	}
	return nil
}
