package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SharvChopra/SnapGram/internal/domain"
)

type Client struct {
	Cli    *redis.Client
	prefix string
}

func NewRedis(addr, password string, db int, prefix string) (*Client, error) {
	r := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := r.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Client{Cli: r, prefix: prefix}, nil
}

func (c *Client) Close() error {
	return c.Cli.Close()
}

func (c *Client) key(parts ...string) string {
	k := c.prefix
	for _, p := range parts {
		k += ":" + p
	}
	return k
}

type Presence struct {
	Online   bool  `json:"online"`
	LastSeen int64 `json:"last_seen"`
}

// SetPresence mirrors a user's hub state so other instances and the REST
// surface can see who is reachable for push.
func (c *Client) SetPresence(ctx context.Context, userID string, online bool) error {
	b, _ := json.Marshal(Presence{Online: online, LastSeen: time.Now().Unix()})
	return c.Cli.Set(ctx, c.key("presence", userID), b, 0).Err()
}

func (c *Client) GetPresence(ctx context.Context, userID string) (Presence, error) {
	b, err := c.Cli.Get(ctx, c.key("presence", userID)).Bytes()
	if err == redis.Nil {
		return Presence{}, nil
	}
	if err != nil {
		return Presence{}, err
	}
	var p Presence
	if err := json.Unmarshal(b, &p); err != nil {
		return Presence{}, err
	}
	return p, nil
}

// GetPartnerSummary returns a cached user summary, or nil on miss.
func (c *Client) GetPartnerSummary(ctx context.Context, userID string) (*domain.PartnerSummary, error) {
	b, err := c.Cli.Get(ctx, c.key("user", userID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s domain.PartnerSummary
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) SetPartnerSummary(ctx context.Context, s *domain.PartnerSummary, ttl time.Duration) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.Cli.Set(ctx, c.key("user", s.ID), b, ttl).Err()
}
