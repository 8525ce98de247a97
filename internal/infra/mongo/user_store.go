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

// UserStore keeps accounts in the "users" collection. Email uniqueness is
// enforced by the index created in EnsureIndexes.
type UserStore struct {
	collection *mongo.Collection
}

func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{collection: db.Collection(usersCollection)}
}

func (s *UserStore) Create(ctx context.Context, u *domain.User) error {
	assigned := false
	if u.ID == "" {
		u.ID = primitive.NewObjectID().Hex()
		assigned = true
	}
	if _, err := s.collection.InsertOne(ctx, u); err != nil {
		if assigned {
			u.ID = ""
		}
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *UserStore) Get(ctx context.Context, id string) (domain.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *UserStore) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.collection.Find(ctx, bson.M{"role": role}, opts)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cursor.Close(ctx)

	users := make([]domain.User, 0)
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

func (s *UserStore) findOne(ctx context.Context, filter bson.M) (domain.User, error) {
	var u domain.User
	err := s.collection.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}
