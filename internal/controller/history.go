package controller

import (
	"context"

	"github.com/MrSnakeDoc/cobus/internal/domain"
	"github.com/MrSnakeDoc/cobus/internal/logger"
)

const (
	opAppendHistory = "append_history"
	opClearHistory  = "clear_history"
)

// PushRecordState snapshots the current count at the front of the history,
// evicting the oldest snapshot past the cap. With onServer the snapshot is
// also appended remotely; the local push is kept if that fails.
func (c *Controller) PushRecordState(ctx context.Context, onServer bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pushRecordStateLocked(ctx, onServer)
}

func (c *Controller) pushRecordStateLocked(ctx context.Context, onServer bool) bool {
	entry := domain.NewRecordState(c.now(), c.count)
	if c.history.Push(entry) {
		c.log.Debug("history full, oldest record state dropped", logger.Int("cap", domain.HistoryCap))
	}
	c.refreshGauges()

	if !onServer {
		c.log.Info("record state saved locally")
		return true
	}

	if !c.remote(opAppendHistory, c.store.AppendHistory(ctx, entry)) {
		return false
	}
	c.log.Info("record state saved on server")
	return true
}

// CleanRecordStates empties the history locally and remotely, then seeds it
// with one snapshot of the current count. The seed only goes to the remote
// store when the remote clear succeeded.
func (c *Controller) CleanRecordStates(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cleanRecordStatesLocked(ctx)
}

func (c *Controller) cleanRecordStatesLocked(ctx context.Context) bool {
	c.history.Clear()
	cleared := c.remote(opClearHistory, c.store.ClearHistory(ctx))
	pushed := c.pushRecordStateLocked(ctx, cleared)
	return cleared && pushed
}
