package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/thethakurshivam/grs-sub003/pkg/config"
)

// NewRedis returns a configured Redis client shared by the balance cache and the event publisher.
func NewRedis(cfg config.RedisConfig) (*redis.Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

// BalanceKey is the cache key for a student's balance snapshot.
func BalanceKey(studentID string) string {
	return "credits:balance:" + studentID
}

// BalanceVersionKey holds the counter bumped on every committed change to the
// student's ledger. Snapshots stamped with an older value are ignored.
func BalanceVersionKey(studentID string) string {
	return "credits:balance_version:" + studentID
}
