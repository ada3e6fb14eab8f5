// internal/app/store/oauthstate/store.go
package oauthstate

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// State is a pending ORCID authorization. It binds the opaque state token
// handed to ORCID to the signed-in user who started the link.
type State struct {
	State     string             `bson:"state"`
	UserID    primitive.ObjectID `bson:"user_id"`
	ReturnURL string             `bson:"return_url,omitempty"` // frontend path to land on afterwards
	ExpiresAt time.Time          `bson:"expires_at"`
	CreatedAt time.Time          `bson:"created_at"`
}

// Store manages OAuth2 state tokens in MongoDB.
type Store struct {
	c   *mongo.Collection
	now func() time.Time
}

// New creates a new OAuth state Store.
func New(db *mongo.Database) *Store {
	return &Store{
		c:   db.Collection("oauth_states"),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// EnsureIndexes creates the unique lookup index and the TTL index that
// expires abandoned states.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "state", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_oauth_state"),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("idx_oauth_ttl"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Save stores a state token for userID that stays valid for ttl.
func (s *Store) Save(ctx context.Context, state string, userID primitive.ObjectID, returnURL string, ttl time.Duration) error {
	now := s.now()
	_, err := s.c.InsertOne(ctx, State{
		State:     state,
		UserID:    userID,
		ReturnURL: returnURL,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	})
	return err
}

// Consume looks up an unexpired state and deletes it in the same operation,
// so each token can be redeemed once. ok is false when the token is unknown,
// already used, or expired.
func (s *Store) Consume(ctx context.Context, state string) (st State, ok bool, err error) {
	err = s.c.FindOneAndDelete(ctx, bson.M{
		"state":      state,
		"expires_at": bson.M{"$gt": s.now()},
	}).Decode(&st)

	if err == mongo.ErrNoDocuments {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, err
	}
	return st, true, nil
}
