package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultSessionTTL = 2 * time.Hour
	maxApplyAttempts  = 3
)

// RedisStore keeps sessions in Redis. The slot view lives under its own key so a
// step save never overwrites a newer availability result.
type RedisStore struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

// NewRedisStore panics on a nil client. A non-positive ttl uses two hours.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if client == nil {
		panic("wizard: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &RedisStore{
		redis:  client,
		ttl:    ttl,
		tracer: otel.Tracer("carebook.internal.wizard.store"),
	}
}

func sessionKey(id string) string { return fmt.Sprintf("wizard:session:%s", id) }
func genKey(id string) string     { return sessionKey(id) + ":gen" }
func slotsKey(id string) string   { return sessionKey(id) + ":slots" }
func submitKey(id string) string  { return sessionKey(id) + ":submit" }

func (s *RedisStore) Create(ctx context.Context, sess *Session) error {
	return s.write(ctx, "wizard.create_session", sess)
}

func (s *RedisStore) Save(ctx context.Context, sess *Session) error {
	exists, err := s.redis.Exists(ctx, sessionKey(sess.ID)).Result()
	if err != nil {
		return fmt.Errorf("wizard: failed to check session: %w", err)
	}
	if exists == 0 {
		return ErrSessionNotFound
	}
	return s.write(ctx, "wizard.save_session", sess)
}

func (s *RedisStore) write(ctx context.Context, spanName string, sess *Session) error {
	ctx, span := s.tracer.Start(ctx, spanName)
	defer span.End()

	core := sess.clone()
	core.Availability = SlotView{}
	data, err := json.Marshal(core)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("wizard: failed to marshal session: %w", err)
	}
	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKey(sess.ID), data, s.ttl)
		pipe.Expire(ctx, slotsKey(sess.ID), s.ttl)
		pipe.Expire(ctx, genKey(sess.ID), s.ttl)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("wizard: failed to persist session: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "wizard.get_session")
	defer span.End()

	data, err := s.redis.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("wizard: failed to load session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("wizard: failed to decode session: %w", err)
	}

	view, err := s.redis.Get(ctx, slotsKey(id)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
	case err != nil:
		span.RecordError(err)
		return nil, fmt.Errorf("wizard: failed to load slot view: %w", err)
	default:
		if err := json.Unmarshal(view, &sess.Availability); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("wizard: failed to decode slot view: %w", err)
		}
	}
	return &sess, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.redis.Del(ctx, sessionKey(id), genKey(id), slotsKey(id), submitKey(id)).Err(); err != nil {
		return fmt.Errorf("wizard: failed to delete session: %w", err)
	}
	return nil
}

func (s *RedisStore) BeginAvailability(ctx context.Context, id string) (int64, error) {
	var incr *redis.IntCmd
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, genKey(id))
		pipe.Expire(ctx, genKey(id), s.ttl)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("wizard: failed to start availability load: %w", err)
	}
	return incr.Val(), nil
}

// ApplyAvailability watches the generation key so a load that was superseded
// between the check and the write is rejected.
func (s *RedisStore) ApplyAvailability(ctx context.Context, id string, gen int64, view SlotView) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "wizard.apply_availability")
	defer span.End()

	view.Generation = gen
	data, err := json.Marshal(view)
	if err != nil {
		return false, fmt.Errorf("wizard: failed to marshal slot view: %w", err)
	}

	for attempt := 0; attempt < maxApplyAttempts; attempt++ {
		applied := false
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			current, err := tx.Get(ctx, genKey(id)).Int64()
			if err != nil && !errors.Is(err, redis.Nil) {
				return err
			}
			if current != gen {
				return nil
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, slotsKey(id), data, s.ttl)
				return nil
			})
			if err == nil {
				applied = true
			}
			return err
		}, genKey(id))
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			span.RecordError(err)
			return false, fmt.Errorf("wizard: failed to apply slot view: %w", err)
		}
		return applied, nil
	}
	return false, nil
}

func (s *RedisStore) AcquireSubmit(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	ok, err := s.redis.SetNX(ctx, submitKey(id), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("wizard: failed to acquire submit lock: %w", err)
	}
	return ok, nil
}

func (s *RedisStore) ReleaseSubmit(ctx context.Context, id string) error {
	if err := s.redis.Del(ctx, submitKey(id)).Err(); err != nil {
		return fmt.Errorf("wizard: failed to release submit lock: %w", err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
