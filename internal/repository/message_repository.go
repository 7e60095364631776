package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/SharvChopra/SnapGram/internal/apperr"
	"github.com/SharvChopra/SnapGram/internal/domain"
)

// MessageRepository is the durable message store. Records are append-only;
// the read flag is the only field ever updated after insert.
type MessageRepository struct {
	coll *mongo.Collection
}

func NewMessageRepository(db *mongo.Database) *MessageRepository {
	r := &MessageRepository{coll: db.Collection("messages")}
	for _, idx := range []mongo.IndexModel{
		{Keys: bson.D{{Key: "sender", Value: 1}, {Key: "recipient", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "sender", Value: 1}, {Key: "created_at", Value: 1}}},
	} {
		_, _ = r.coll.Indexes().CreateOne(context.Background(), idx)
	}
	return r
}

func (r *MessageRepository) Insert(ctx context.Context, m *domain.Message) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if _, err := r.coll.InsertOne(ctx, m); err != nil {
		return fmt.Errorf("%w: insert message: %v", apperr.ErrStorage, err)
	}
	return nil
}

// ListBetween returns the transcript between two users, oldest first. A zero
// before means no cursor; limit <= 0 means the whole history.
func (r *MessageRepository) ListBetween(ctx context.Context, userA, userB string, limit int64, before time.Time) ([]domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"$or": bson.A{
		bson.M{"sender": userA, "recipient": userB},
		bson.M{"sender": userB, "recipient": userA},
	}}
	if !before.IsZero() {
		filter["created_at"] = bson.M{"$lt": before}
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if limit > 0 {
		// keep the most recent window: sort desc, cap, reverse
		opts = options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	}
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: find conversation: %v", apperr.ErrStorage, err)
	}
	defer cur.Close(ctx)

	out := []domain.Message{}
	for cur.Next(ctx) {
		var m domain.Message
		if err := cur.Decode(&m); err != nil {
			return nil, fmt.Errorf("%w: decode message: %v", apperr.ErrStorage, err)
		}
		out = append(out, m)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%w: cursor: %v", apperr.ErrStorage, err)
	}
	if limit > 0 {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out, nil
}

// ListInvolving returns every message where user is sender or recipient.
// Feeds the conversation reduce; no ordering promised.
func (r *MessageRepository) ListInvolving(ctx context.Context, user string) ([]domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"$or": bson.A{
		bson.M{"sender": user},
		bson.M{"recipient": user},
	}}
	cur, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: find messages: %v", apperr.ErrStorage, err)
	}
	defer cur.Close(ctx)

	out := []domain.Message{}
	for cur.Next(ctx) {
		var m domain.Message
		if err := cur.Decode(&m); err != nil {
			return nil, fmt.Errorf("%w: decode message: %v", apperr.ErrStorage, err)
		}
		out = append(out, m)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%w: cursor: %v", apperr.ErrStorage, err)
	}
	return out, nil
}

// MarkRead flags every unread message from sender to recipient and reports
// how many were flipped.
func (r *MessageRepository) MarkRead(ctx context.Context, sender, recipient string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := r.coll.UpdateMany(ctx,
		bson.M{"sender": sender, "recipient": recipient, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return 0, fmt.Errorf("%w: mark read: %v", apperr.ErrStorage, err)
	}
	return res.ModifiedCount, nil
}
