package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the guard only when it still holds our token, so a
// guard that expired and was re-acquired by another submit is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// Acquire takes the guard for key with SET NX. It returns an empty token
// when another holder has it.
func (s *RedisStore) Acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	ok, err := s.rdb.SetNX(ctx, submitGuardPrefix+key, token, ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return token, nil
}

func (s *RedisStore) Release(ctx context.Context, key, token string) error {
	return releaseScript.Run(ctx, s.rdb, []string{submitGuardPrefix + key}, token).Err()
}

// BlacklistToken stores the JWT ID for the token's remaining lifetime.
func (s *RedisStore) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, blacklistPrefix+jti, "1", ttl).Err()
}

func (s *RedisStore) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := s.rdb.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisStore) PublishSessionEvent(ctx context.Context, ev SessionEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.rdb.Publish(ctx, sessionChannel, payload).Err()
}

// SubscribeSessionEvents streams events until ctx is done, then closes the
// returned channel.
func (s *RedisStore) SubscribeSessionEvents(ctx context.Context) (<-chan SessionEvent, error) {
	ps := s.rdb.Subscribe(ctx, sessionChannel)
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", sessionChannel, err)
	}

	out := make(chan SessionEvent, 16)
	go func() {
		defer close(out)
		defer ps.Close()
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev SessionEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
