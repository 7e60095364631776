package users

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/SharvChopra/SnapGram/internal/apperr"
	"github.com/SharvChopra/SnapGram/internal/cache"
	"github.com/SharvChopra/SnapGram/internal/domain"
)

const summaryTTL = 5 * time.Minute

// Directory reads the users collection owned by the account service. The
// messaging core never writes it; it only needs existence checks and the
// summary fields a conversation entry shows.
type Directory struct {
	coll  *mongo.Collection
	cache *cache.Client // optional
	log   *zap.SugaredLogger
}

func NewDirectory(db *mongo.Database, c *cache.Client, log *zap.SugaredLogger) *Directory {
	return &Directory{coll: db.Collection("users"), cache: c, log: log}
}

func (d *Directory) Exists(ctx context.Context, userID string) (bool, error) {
	if d.cache != nil {
		if s, err := d.cache.GetPartnerSummary(ctx, userID); err == nil && s != nil {
			return true, nil
		}
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	n, err := d.coll.CountDocuments(ctx, bson.M{"_id": userID})
	if err != nil {
		return false, fmt.Errorf("%w: count users: %v", apperr.ErrStorage, err)
	}
	return n > 0, nil
}

func (d *Directory) Summary(ctx context.Context, userID string) (*domain.PartnerSummary, error) {
	if d.cache != nil {
		if s, err := d.cache.GetPartnerSummary(ctx, userID); err == nil && s != nil {
			return s, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var s domain.PartnerSummary
	err := d.coll.FindOne(ctx, bson.M{"_id": userID}).Decode(&s)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("%w: user %s", apperr.ErrNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find user: %v", apperr.ErrStorage, err)
	}

	if d.cache != nil {
		if err := d.cache.SetPartnerSummary(ctx, &s, summaryTTL); err != nil {
			d.log.Warnw("cache user summary", "user", userID, "err", err)
		}
	}
	return &s, nil
}
