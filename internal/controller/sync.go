package controller

import (
	"context"

	"github.com/MrSnakeDoc/cobus/internal/domain"
	"github.com/MrSnakeDoc/cobus/internal/logger"
)

const (
	opReadCurrentState = "read_current_state"
	opReadHistoryHead  = "read_history_head"
)

// SyncWithServer reconciles the local and remote views.
//
// Forward (reverse=false) overwrites the remote side with the local one: the
// count is written, the remote history cleared and the local snapshots
// appended newest first, so remote key order equals local order.
//
// Reverse (reverse=true) loads the remote count (0 when missing) and the first
// domain.HistoryHeadLimit snapshots in key order, then evaluates capacity.
//
// The first failing step aborts the sync and leaves both sides partially
// synced.
func (c *Controller) SyncWithServer(ctx context.Context, reverse bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.syncLocked(ctx, reverse)
}

func (c *Controller) syncLocked(ctx context.Context, reverse bool) bool {
	c.log.Debug("syncing with server", logger.Bool("reverse", reverse))
	if reverse {
		return c.reverseLocked(ctx)
	}
	return c.forwardLocked(ctx)
}

func (c *Controller) forwardLocked(ctx context.Context) bool {
	if !c.remote(opWriteCurrentState, c.store.WriteCurrentState(ctx, c.count)) {
		return false
	}
	if !c.remote(opClearHistory, c.store.ClearHistory(ctx)) {
		return false
	}

	entries := c.history.Entries()
	for i, entry := range entries {
		if !c.remote(opAppendHistory, c.store.AppendHistory(ctx, entry)) {
			c.log.Warn("forward sync interrupted",
				logger.Int("pushed", i),
				logger.Int("total", len(entries)))
			return false
		}
	}

	c.log.Info("local state pushed to server",
		logger.Int("passengers", c.count),
		logger.Int("record_states", len(entries)))
	return true
}

func (c *Controller) reverseLocked(ctx context.Context) bool {
	res, err := c.store.ReadCurrentState(ctx)
	if !c.remote(opReadCurrentState, err) {
		return false
	}
	if !res.Present {
		c.log.Info("no current state on server, assuming 0 passengers")
	}
	count := res.PassengersOrZero()
	if count < 0 {
		c.log.Warn("server holds a negative number of passengers, using 0", logger.Int("remote", count))
		count = 0
	}
	c.count = count
	c.refreshGauges()

	entries, err := c.store.ReadHistoryHead(ctx, domain.HistoryHeadLimit)
	if !c.remote(opReadHistoryHead, err) {
		return false
	}
	c.history.Replace(entries)
	c.refreshGauges()

	c.checkStateLocked(ctx, true)

	c.log.Info("local state pulled from server",
		logger.Int("passengers", c.count),
		logger.Int("record_states", c.history.Len()))
	return true
}
