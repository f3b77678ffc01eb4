package postings

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"donorflow/config"
	"donorflow/types"
)

// Register remembers payment identities that were posted to the
// accounting platform so repeated batches do not double-post a donation.
type Register struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = "localhost:6379"
	}
	if c.Prefix == "" {
		c.Prefix = config.PostedKeyPrefix
	}
	if c.TTL <= 0 {
		c.TTL = config.PostedTTL
	}
	return c
}

func NewRegister(cfg Config) (*Register, error) {
	cfg = cfg.withDefaults()
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Addr, err)
	}
	log.Printf("Posted-payment register connected to redis at %s", cfg.Addr)

	return &Register{client: client, prefix: cfg.Prefix, ttl: cfg.TTL}, nil
}

func (r *Register) key(identity types.PaymentIdentity) string {
	return r.prefix + ":" + identity.Key()
}

// MarkPosted records that the identity was posted. Entries expire after
// the configured TTL; by then the bank statement window has long closed.
func (r *Register) MarkPosted(ctx context.Context, identity types.PaymentIdentity) error {
	err := r.client.Set(ctx, r.key(identity), time.Now().Format(time.RFC3339), r.ttl).Err()
	if err != nil {
		return fmt.Errorf("marking %s as posted: %w", identity.Key(), err)
	}
	return nil
}

func (r *Register) WasPosted(ctx context.Context, identity types.PaymentIdentity) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(identity)).Result()
	if err != nil {
		return false, fmt.Errorf("checking posted state for %s: %w", identity.Key(), err)
	}
	return n > 0, nil
}

func (r *Register) Close() error {
	return r.client.Close()
}
