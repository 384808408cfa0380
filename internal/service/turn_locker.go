package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrTurnLockTimeout = errors.New("turn lock not acquired")

// TurnLocker serializa los turnos de una misma conversacion.
// Lock bloquea hasta obtener el lock o hasta que ctx termine; unlock es idempotente.
type TurnLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

type memoryTurnLocker struct {
	mu    sync.Mutex
	slots map[string]*lockSlot
}

type lockSlot struct {
	ch   chan struct{}
	refs int
}

func NewMemoryTurnLocker() TurnLocker {
	return &memoryTurnLocker{slots: make(map[string]*lockSlot)}
}

func (l *memoryTurnLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[key]
	if !ok {
		slot = &lockSlot{ch: make(chan struct{}, 1)}
		l.slots[key] = slot
	}
	slot.refs++
	l.mu.Unlock()

	select {
	case slot.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, slot, false)
		return nil, errors.Join(ErrTurnLockTimeout, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(key, slot, true) })
	}, nil
}

func (l *memoryTurnLocker) release(key string, slot *lockSlot, held bool) {
	if held {
		<-slot.ch
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, key)
	}
}

// Libera solo si el token sigue siendo el nuestro.
const redisUnlockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

type redisLockClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

type redisTurnLocker struct {
	client redisLockClient
	ttl    time.Duration
	retry  time.Duration
	prefix string
}

// NewRedisTurnLocker usa SET NX PX con token propio; el ttl acota un lock huerfano si el proceso muere.
func NewRedisTurnLocker(client *redis.Client, ttl time.Duration) TurnLocker {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &redisTurnLocker{
		client: client,
		ttl:    ttl,
		retry:  50 * time.Millisecond,
		prefix: "turn:lock:",
	}
}

func (l *redisTurnLocker) Lock(ctx context.Context, key string) (func(), error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrTurnLockTimeout
	}
	redisKey := l.prefix + key
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, errors.Join(ErrTurnLockTimeout, err)
		}
		if ok {
			break
		}
		timer := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, errors.Join(ErrTurnLockTimeout, ctx.Err())
		case <-timer.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
			defer cancel()
			_ = l.client.Eval(releaseCtx, redisUnlockScript, []string{redisKey}, token).Err()
		})
	}, nil
}
