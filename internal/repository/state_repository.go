package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const loginStatePrefix = "auth:login_state:"

// LoginStateRepository stores pending OAuth2 login states in Redis.
type LoginStateRepository struct {
	client *redis.Client
}

// NewLoginStateRepository builds the store.
func NewLoginStateRepository(client *redis.Client) *LoginStateRepository {
	return &LoginStateRepository{client: client}
}

// Save records state for ttl. A state that already exists is an error.
func (r *LoginStateRepository) Save(ctx context.Context, state string, ttl time.Duration) error {
	ok, err := r.client.SetNX(ctx, loginStatePrefix+state, "1", ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("login state already exists")
	}
	return nil
}

// Consume deletes state and reports whether it was pending.
func (r *LoginStateRepository) Consume(ctx context.Context, state string) (bool, error) {
	if state == "" {
		return false, nil
	}
	err := r.client.GetDel(ctx, loginStatePrefix+state).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
