package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/xid"

	"github.com/MrSnakeDoc/cobus/internal/domain"
	"github.com/MrSnakeDoc/cobus/internal/store"
)

func TestKeys(t *testing.T) {
	k := NewKeys("bus-7")

	tests := []struct {
		name, got, want string
	}{
		{"current state", k.CurrentState(), "cobus:bus-7:current_state"},
		{"record states", k.RecordStates(), "cobus:bus-7:record_states"},
		{"record index", k.RecordStateIndex(), "cobus:bus-7:record_states:keys"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestStore_UnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer func() { _ = client.Close() }()

	s := NewStore(client, "bus")
	if err := s.WriteCurrentState(context.Background(), 1); !errors.Is(err, store.ErrRemoteUnavailable) {
		t.Errorf("err = %v, want ErrRemoteUnavailable", err)
	}
}

// TestStore_Live runs against a real server when COBUS_TEST_REDIS_ADDR is set.
func TestStore_Live(t *testing.T) {
	addr := os.Getenv("COBUS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("COBUS_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer func() { _ = client.Close() }()

	unit := "test-" + xid.New().String()
	s := NewStore(client, unit)
	defer func() {
		_ = client.Del(ctx, s.keys.CurrentState(), s.keys.RecordStates(), s.keys.RecordStateIndex()).Err()
	}()

	res, err := s.ReadCurrentState(ctx)
	if err != nil || res.Present {
		t.Fatalf("ReadCurrentState = %+v, %v; want Missing", res, err)
	}

	if err := s.WriteCurrentState(ctx, 3); err != nil {
		t.Fatalf("WriteCurrentState: %v", err)
	}
	if res, err := s.ReadCurrentState(ctx); err != nil || res.PassengersOrZero() != 3 {
		t.Fatalf("ReadCurrentState = %+v, %v; want 3", res, err)
	}

	for i := 0; i < 5; i++ {
		if err := s.AppendHistory(ctx, domain.RecordState{Datetime: "t", NumberOfPassengers: i}); err != nil {
			t.Fatalf("AppendHistory: %v", err)
		}
	}
	head, err := s.ReadHistoryHead(ctx, 4)
	if err != nil {
		t.Fatalf("ReadHistoryHead: %v", err)
	}
	if len(head) != 4 {
		t.Fatalf("len(head) = %d, want 4", len(head))
	}
	for i, e := range head {
		if e.NumberOfPassengers != i {
			t.Errorf("head[%d] = %d, want %d", i, e.NumberOfPassengers, i)
		}
	}

	if err := s.ClearHistory(ctx); err != nil {
		t.Fatalf("ClearHistory: %v", err)
	}
	if head, err := s.ReadHistoryHead(ctx, 99); err != nil || len(head) != 0 {
		t.Errorf("after clear: %d entries, err %v", len(head), err)
	}
}
