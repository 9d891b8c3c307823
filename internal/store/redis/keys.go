package redis

import (
	"strings"

	"github.com/MrSnakeDoc/cobus/internal/store"
)

// KeyPrefix namespaces every key written by cobus.
const KeyPrefix = "cobus"

// Keys maps a unit's hierarchical paths onto flat Redis keys:
// /{unit}/current_state -> cobus:{unit}:current_state.
type Keys struct {
	paths store.Paths
}

func NewKeys(unit string) Keys {
	return Keys{paths: store.Paths{Unit: unit}}
}

// CurrentState holds the JSON current-state record.
func (k Keys) CurrentState() string { return pathKey(k.paths.CurrentState()) }

// RecordStates is the hash of generated key -> JSON snapshot.
func (k Keys) RecordStates() string { return pathKey(k.paths.RecordStates()) }

// RecordStateIndex is the sorted set (all scores 0) ordering generated keys lexicographically.
func (k Keys) RecordStateIndex() string { return k.RecordStates() + ":keys" }

func pathKey(path string) string {
	return KeyPrefix + strings.ReplaceAll(path, "/", ":")
}
