// file: service/cache.go

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"go-bank-ledger/logger"
	"go-bank-ledger/metrics"
	"go-bank-ledger/model"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// ICacheClient is the subset of *redis.Client the services use.
type ICacheClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// AccountCache keeps each client's account list in Redis. Cache failures
// never fail the request; after repeated failures the breaker opens and
// Redis is bypassed until it recovers. A nil *AccountCache or a nil client
// disables caching.
//
// Each client has an invalidation generation. A list loaded under an older
// generation is never left in Redis, so a read racing a write cannot cache
// the pre-write balances. The generation is per process; writers on other
// instances are bounded by the TTL.
type AccountCache struct {
	client      ICacheClient
	ttl         time.Duration
	breaker     *gobreaker.CircuitBreaker
	generations sync.Map // uuid.UUID -> *atomic.Uint64
}

func NewAccountCache(client ICacheClient, ttl time.Duration) *AccountCache {
	settings := gobreaker.Settings{
		Name:        "account-cache",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Log.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Cache circuit breaker state changed")
		},
	}

	return &AccountCache{
		client:  client,
		ttl:     ttl,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

func accountsCacheKey(clientID uuid.UUID) string {
	return fmt.Sprintf("accounts:%s", clientID)
}

func (c *AccountCache) enabled() bool {
	return c != nil && c.client != nil
}

func (c *AccountCache) counter(clientID uuid.UUID) *atomic.Uint64 {
	v, _ := c.generations.LoadOrStore(clientID, new(atomic.Uint64))
	return v.(*atomic.Uint64)
}

// Generation returns the current invalidation generation of clientID.
// Read it before loading the list that is later passed to SetAccounts.
func (c *AccountCache) Generation(clientID uuid.UUID) uint64 {
	if !c.enabled() {
		return 0
	}
	return c.counter(clientID).Load()
}

// GetAccounts returns the cached list and true on a hit.
func (c *AccountCache) GetAccounts(ctx context.Context, clientID uuid.UUID) ([]*model.Account, bool) {
	if !c.enabled() {
		return nil, false
	}

	raw, err := c.breaker.Execute(func() (interface{}, error) {
		val, err := c.client.Get(ctx, accountsCacheKey(clientID)).Result()
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return val, err
	})
	if err != nil {
		metrics.ObserveCache("error")
		logger.Log.WithError(err).WithField("client_id", clientID).Warn("Account cache read failed")
		return nil, false
	}

	cached, _ := raw.(string)
	if cached == "" {
		metrics.ObserveCache("miss")
		return nil, false
	}

	var accounts []*model.Account
	if err := json.Unmarshal([]byte(cached), &accounts); err != nil {
		metrics.ObserveCache("error")
		return nil, false
	}
	metrics.ObserveCache("hit")
	return accounts, true
}

// SetAccounts caches a list loaded under generation gen. It does nothing if
// clientID was invalidated since, and removes the entry again if an
// invalidation lands while the write is in flight.
func (c *AccountCache) SetAccounts(ctx context.Context, clientID uuid.UUID, accounts []*model.Account, gen uint64) {
	if !c.enabled() {
		return
	}
	generation := c.counter(clientID)
	if generation.Load() != gen {
		return
	}

	data, err := json.Marshal(accounts)
	if err != nil {
		return
	}
	_, err = c.breaker.Execute(func() (interface{}, error) {
		return nil, c.client.Set(ctx, accountsCacheKey(clientID), data, c.ttl).Err()
	})
	if err != nil {
		logger.Log.WithError(err).WithField("client_id", clientID).Warn("Account cache write failed")
		return
	}
	if generation.Load() != gen {
		c.Invalidate(ctx, clientID)
	}
}

// Invalidate drops the cached lists of every given client.
func (c *AccountCache) Invalidate(ctx context.Context, clientIDs ...uuid.UUID) {
	if !c.enabled() || len(clientIDs) == 0 {
		return
	}

	keys := make([]string, 0, len(clientIDs))
	for _, id := range clientIDs {
		c.counter(id).Add(1)
		keys = append(keys, accountsCacheKey(id))
	}
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.client.Del(ctx, keys...).Err()
	})
	if err != nil {
		logger.Log.WithError(err).WithField("keys", keys).Warn("Account cache invalidation failed")
	}
}
