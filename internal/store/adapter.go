// Package store defines the narrow contract the controller uses to mirror a
// unit into a remote hierarchical JSON store.
package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/MrSnakeDoc/cobus/internal/domain"
)

// ErrRemoteUnavailable is wrapped by every error an Adapter returns.
var ErrRemoteUnavailable = errors.New("remote store unavailable")

// Adapter is a best-effort view over the two subtrees owned by one unit.
// Implementations never retry, cache or batch.
type Adapter interface {
	// ReadCurrentState returns Missing when the subtree does not exist yet.
	ReadCurrentState(ctx context.Context) (domain.CurrentStateResult, error)
	// WriteCurrentState overwrites the subtree with exactly {number_of_passengers: n}.
	WriteCurrentState(ctx context.Context, n int) error
	// ReadHistoryHead returns up to limit snapshots in ascending key order.
	ReadHistoryHead(ctx context.Context, limit int) ([]domain.RecordState, error)
	// AppendHistory stores entry under a freshly generated ordered key.
	AppendHistory(ctx context.Context, entry domain.RecordState) error
	// ClearHistory removes the whole record_states subtree.
	ClearHistory(ctx context.Context) error
}

// Unavailable wraps cause so that errors.Is(err, ErrRemoteUnavailable) holds.
func Unavailable(op string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%s: %w", op, ErrRemoteUnavailable)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrRemoteUnavailable, cause)
}

// forbiddenUnitChars cannot appear in a remote key.
const forbiddenUnitChars = ".$#[]/"

// ValidateUnit rejects names that are not a single remote key: empty names,
// path separators and the characters the store reserves, and control codes.
func ValidateUnit(name string) error {
	if name == "" {
		return errors.New("unit name is required")
	}
	if i := strings.IndexAny(name, forbiddenUnitChars); i >= 0 {
		return fmt.Errorf("unit name %q contains %q", name, name[i])
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("unit name %q contains a control character", name)
		}
	}
	return nil
}

// Paths lays out the subtrees of a unit. The unit is escaped as a single path
// segment.
type Paths struct {
	Unit string
}

func (p Paths) Root() string         { return "/" + url.PathEscape(p.Unit) }
func (p Paths) CurrentState() string { return p.Root() + "/current_state" }
func (p Paths) RecordStates() string { return p.Root() + "/record_states" }
