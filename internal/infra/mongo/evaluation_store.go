package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mindcoach-service/internal/domain"
)

// EvaluationStore keeps evaluation records in the "results" collection.
type EvaluationStore struct {
	collection *mongo.Collection
}

func NewEvaluationStore(db *mongo.Database) *EvaluationStore {
	return &EvaluationStore{collection: db.Collection(evaluationsCollection)}
}

func (s *EvaluationStore) Save(ctx context.Context, rec *domain.EvaluationRecord) (string, error) {
	if rec.PerQuestion == nil {
		rec.PerQuestion = []domain.PerQuestionEvaluation{}
	}
	if rec.ID == "" {
		rec.ID = primitive.NewObjectID().Hex()
		if _, err := s.collection.InsertOne(ctx, rec); err != nil {
			rec.ID = ""
			return "", fmt.Errorf("insert evaluation: %w", err)
		}
		return rec.ID, nil
	}

	res, err := s.collection.ReplaceOne(ctx, bson.M{"_id": rec.ID}, rec)
	if err != nil {
		return "", fmt.Errorf("replace evaluation: %w", err)
	}
	if res.MatchedCount == 0 {
		return "", domain.ErrEvaluationNotFound
	}
	return rec.ID, nil
}

func (s *EvaluationStore) Get(ctx context.Context, id string) (domain.EvaluationRecord, error) {
	return s.findOne(ctx, bson.M{"_id": id}, nil)
}

func (s *EvaluationStore) LatestByPlayer(ctx context.Context, playerID string) (domain.EvaluationRecord, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return s.findOne(ctx, bson.M{"playerId": playerID}, opts)
}

func (s *EvaluationStore) ListLatest(ctx context.Context) ([]domain.EvaluationRecord, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "playerId", Value: 1}, {Key: "createdAt", Value: -1}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$playerId"},
			{Key: "latest", Value: bson.D{{Key: "$first", Value: "$$ROOT"}}},
		}}},
		{{Key: "$replaceRoot", Value: bson.D{{Key: "newRoot", Value: "$latest"}}}},
		{{Key: "$sort", Value: bson.D{{Key: "playerId", Value: 1}}}},
	}
	cursor, err := s.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	defer cursor.Close(ctx)

	records := make([]domain.EvaluationRecord, 0)
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode evaluations: %w", err)
	}
	return records, nil
}

func (s *EvaluationStore) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (domain.EvaluationRecord, error) {
	var rec domain.EvaluationRecord
	var err error
	if opts != nil {
		err = s.collection.FindOne(ctx, filter, opts).Decode(&rec)
	} else {
		err = s.collection.FindOne(ctx, filter).Decode(&rec)
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.EvaluationRecord{}, domain.ErrEvaluationNotFound
	}
	if err != nil {
		return domain.EvaluationRecord{}, fmt.Errorf("find evaluation: %w", err)
	}
	return rec, nil
}
