package controller

import (
	"context"

	"github.com/MrSnakeDoc/cobus/internal/alert"
	"github.com/MrSnakeDoc/cobus/internal/logger"
)

// Action selects the direction of a count update.
type Action string

const (
	ActionAdd    Action = "add"
	ActionRemove Action = "remove"
)

const opWriteCurrentState = "write_current_state"

// AddPassenger boards one passenger.
func (c *Controller) AddPassenger(ctx context.Context, onServer bool) bool {
	return c.Update(ctx, ActionAdd, 1, onServer)
}

// RemovePassenger drops one passenger.
func (c *Controller) RemovePassenger(ctx context.Context, onServer bool) bool {
	return c.Update(ctx, ActionRemove, 1, onServer)
}

// Update applies action with number passengers. Removing more passengers than
// are aboard saturates at zero and raises the negative-decrement alert.
// Unknown actions and non-positive numbers change nothing and return false.
// With onServer the new count is written remotely and the result reflects that
// write; the local change is kept either way.
func (c *Controller) Update(ctx context.Context, action Action, number int, onServer bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if number < 1 {
		c.log.Debug("ignoring update with non-positive number", logger.Int("number", number))
		return false
	}

	switch action {
	case ActionAdd:
		c.count += number
	case ActionRemove:
		if number > c.count {
			c.log.Warn("could not save a negative number of passengers, saving 0 instead",
				logger.Int("passengers", c.count),
				logger.Int("removed", number))
			c.metrics.negativeDecrements.Inc()
			alert.Emit(ctx, c.alert, alert.NegativeDecrement)
			c.count = 0
		} else {
			c.count -= number
		}
	default:
		c.log.Debug("ignoring unknown action", logger.String("action", string(action)))
		return false
	}

	c.refreshGauges()
	c.checkStateLocked(ctx, true)

	if !onServer {
		c.log.Info("number of passengers modified locally", logger.Int("passengers", c.count))
		return true
	}

	if !c.remote(opWriteCurrentState, c.store.WriteCurrentState(ctx, c.count)) {
		return false
	}
	c.log.Info("number of passengers modified on server", logger.Int("passengers", c.count))
	return true
}

// CheckState reports whether the unit is within capacity. With raiseAlert an
// over-capacity unit emits the alert on every call.
func (c *Controller) CheckState(ctx context.Context, raiseAlert bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.checkStateLocked(ctx, raiseAlert)
}

func (c *Controller) checkStateLocked(ctx context.Context, raiseAlert bool) bool {
	within := c.count <= c.max
	c.capacity.observe(ctx, !within, c.count)

	if !within && raiseAlert {
		c.metrics.capacityAlerts.Inc()
		alert.Emit(ctx, c.alert, alert.OverCapacity)
	}
	return within
}

// CleanNumberOfPassengers resets the count to zero locally and remotely.
func (c *Controller) CleanNumberOfPassengers(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cleanNumberOfPassengersLocked(ctx)
}

func (c *Controller) cleanNumberOfPassengersLocked(ctx context.Context) bool {
	c.count = 0
	c.refreshGauges()
	c.capacity.observe(ctx, false, 0)
	return c.remote(opWriteCurrentState, c.store.WriteCurrentState(ctx, 0))
}
