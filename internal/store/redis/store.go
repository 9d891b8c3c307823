package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/xid"

	"github.com/MrSnakeDoc/cobus/internal/domain"
	"github.com/MrSnakeDoc/cobus/internal/store"
)

// Store mirrors one unit into Redis.
type Store struct {
	client *redis.Client
	keys   Keys
}

var _ store.Adapter = (*Store)(nil)

// NewStore creates a store for unit on top of an already connected client.
func NewStore(client *redis.Client, unit string) *Store {
	return &Store{
		client: client,
		keys:   NewKeys(unit),
	}
}

type currentStateBody struct {
	NumberOfPassengers *int `json:"number_of_passengers"`
}

func (s *Store) ReadCurrentState(ctx context.Context) (domain.CurrentStateResult, error) {
	const op = "read current state"

	data, err := s.client.Get(ctx, s.keys.CurrentState()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Missing(), nil
		}
		return domain.Missing(), store.Unavailable(op, err)
	}

	var body currentStateBody
	if err := json.Unmarshal(data, &body); err != nil {
		return domain.Missing(), store.Unavailable(op, fmt.Errorf("failed to unmarshal current state: %w", err))
	}
	if body.NumberOfPassengers == nil {
		return domain.Missing(), nil
	}
	return domain.Present(domain.CurrentState{NumberOfPassengers: *body.NumberOfPassengers}), nil
}

func (s *Store) WriteCurrentState(ctx context.Context, n int) error {
	data, err := json.Marshal(domain.CurrentState{NumberOfPassengers: n})
	if err != nil {
		return store.Unavailable("write current state", err)
	}
	if err := s.client.Set(ctx, s.keys.CurrentState(), data, 0).Err(); err != nil {
		return store.Unavailable("write current state", err)
	}
	return nil
}

func (s *Store) ReadHistoryHead(ctx context.Context, limit int) ([]domain.RecordState, error) {
	const op = "read history head"

	if limit <= 0 {
		return []domain.RecordState{}, nil
	}

	ids, err := s.client.ZRangeByLex(ctx, s.keys.RecordStateIndex(), &redis.ZRangeBy{
		Min:   "-",
		Max:   "+",
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, store.Unavailable(op, err)
	}
	if len(ids) == 0 {
		return []domain.RecordState{}, nil
	}

	values, err := s.client.HMGet(ctx, s.keys.RecordStates(), ids...).Result()
	if err != nil {
		return nil, store.Unavailable(op, err)
	}

	out := make([]domain.RecordState, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Index entry without a value: the hash was trimmed by hand.
			continue
		}
		var entry domain.RecordState
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, store.Unavailable(op, fmt.Errorf("failed to unmarshal record %s: %w", ids[i], err))
		}
		out = append(out, entry)
	}
	return out, nil
}

func (s *Store) AppendHistory(ctx context.Context, entry domain.RecordState) error {
	const op = "append history"

	data, err := json.Marshal(entry)
	if err != nil {
		return store.Unavailable(op, err)
	}

	id := xid.New().String()
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.keys.RecordStates(), id, data)
		pipe.ZAdd(ctx, s.keys.RecordStateIndex(), redis.Z{Score: 0, Member: id})
		return nil
	})
	if err != nil {
		return store.Unavailable(op, err)
	}
	return nil
}

func (s *Store) ClearHistory(ctx context.Context) error {
	if err := s.client.Del(ctx, s.keys.RecordStates(), s.keys.RecordStateIndex()).Err(); err != nil {
		return store.Unavailable("clear history", err)
	}
	return nil
}
