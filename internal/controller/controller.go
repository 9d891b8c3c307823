// Package controller owns the passenger count and snapshot history of one
// unit and keeps them mirrored to a remote store.
//
// Operations never fail loudly: they return a success flag and log the cause.
// Local state is never rolled back when the remote side fails, so after a
// failure the local view may lead the remote one until the next successful
// sync.
package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MrSnakeDoc/cobus/internal/alert"
	"github.com/MrSnakeDoc/cobus/internal/domain"
	"github.com/MrSnakeDoc/cobus/internal/logger"
	"github.com/MrSnakeDoc/cobus/internal/store"
)

// Options configures a Controller.
type Options struct {
	UnitName       string
	MaxPassengers  int
	CleanAtStartup bool // wipe local and remote data instead of pulling it

	Store    store.Adapter
	Alert    alert.Sink           // defaults to alert.Noop
	Logger   logger.Logger        // defaults to logger.Nop
	Now      func() time.Time     // defaults to time.Now
	Registry *prometheus.Registry // defaults to a fresh registry
}

// Controller is safe for concurrent use; operations are serialized.
type Controller struct {
	mu sync.Mutex

	unit    string
	max     int
	count   int
	history *domain.History

	store    store.Adapter
	alert    alert.Sink
	log      logger.Logger
	now      func() time.Time
	capacity *capacityMachine
	metrics  *metrics
	registry *prometheus.Registry
}

// Snapshot is a consistent copy of the controller state.
type Snapshot struct {
	Unit          string               `json:"unit"`
	Passengers    int                  `json:"number_of_passengers"`
	MaxPassengers int                  `json:"max_passengers"`
	Capacity      string               `json:"capacity"`
	RecordStates  []domain.RecordState `json:"record_states"`
}

// New builds a controller and runs the startup policy. Only configuration
// errors are returned; remote failures during startup are logged.
func New(ctx context.Context, opts Options) (*Controller, error) {
	if opts.UnitName == "" {
		return nil, errors.New("controller: unit name is required")
	}
	if opts.MaxPassengers <= 0 {
		return nil, fmt.Errorf("controller: max passengers must be > 0, got %d", opts.MaxPassengers)
	}
	if opts.Store == nil {
		return nil, errors.New("controller: remote store is required")
	}
	if opts.Alert == nil {
		opts.Alert = alert.Noop{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}

	log := opts.Logger.With(logger.String("unit", opts.UnitName))
	c := &Controller{
		unit:     opts.UnitName,
		max:      opts.MaxPassengers,
		history:  domain.NewHistory(),
		store:    opts.Store,
		alert:    opts.Alert,
		log:      log,
		now:      opts.Now,
		capacity: newCapacityMachine(log),
		metrics:  newMetrics(opts.Registry, opts.UnitName),
		registry: opts.Registry,
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if opts.CleanAtStartup {
		c.startClean(ctx)
	} else {
		c.startPull(ctx)
	}
	return c, nil
}

func (c *Controller) startClean(ctx context.Context) {
	c.log.Info("cleaning unit data at startup")
	countOK := c.cleanNumberOfPassengersLocked(ctx)
	historyOK := c.cleanRecordStatesLocked(ctx)
	if !countOK || !historyOK {
		c.log.Warn("startup clean did not reach the remote store, local state is clean")
	}
}

func (c *Controller) startPull(ctx context.Context) {
	c.log.Info("loading unit data from remote store")
	if c.syncLocked(ctx, true) {
		return
	}
	c.count = 0
	c.history.Clear()
	c.refreshGauges()
	c.capacity.observe(ctx, false, 0)
	c.log.Error("could not load unit data, starting empty")
}

func (c *Controller) UnitName() string   { return c.unit }
func (c *Controller) MaxPassengers() int { return c.max }

// Registry exposes the controller's metrics.
func (c *Controller) Registry() *prometheus.Registry { return c.registry }

// Count returns the passengers currently aboard.
func (c *Controller) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// History returns the snapshots, newest first.
func (c *Controller) History() []domain.RecordState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.Entries()
}

// CapacityState is StateNormal or StateOverCapacity.
func (c *Controller) CapacityState() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capacity.current()
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Unit:          c.unit,
		Passengers:    c.count,
		MaxPassengers: c.max,
		Capacity:      c.capacity.current(),
		RecordStates:  c.history.Entries(),
	}
}

// Describe renders the count and the history for humans.
func (c *Controller) Describe() string {
	s := c.Snapshot()

	var b strings.Builder
	fmt.Fprintf(&b, "Unit: %s (max %d passengers, %s)\n", s.Unit, s.MaxPassengers, s.Capacity)
	fmt.Fprintf(&b, "Number of passengers: %d\n", s.Passengers)
	fmt.Fprintf(&b, "Record states (%d):\n", len(s.RecordStates))
	for i, r := range s.RecordStates {
		fmt.Fprintf(&b, "  %3d. %s  %d\n", i+1, r.Datetime, r.NumberOfPassengers)
	}
	return b.String()
}

func (c *Controller) String() string { return c.Describe() }

// remote records the outcome of a store call and reports success.
func (c *Controller) remote(op string, err error) bool {
	if err != nil {
		c.metrics.remoteOps.WithLabelValues(op, statusFailed).Inc()
		c.log.Error("could not perform this action on the remote store",
			logger.String("op", op),
			logger.Error(err))
		return false
	}
	c.metrics.remoteOps.WithLabelValues(op, statusSuccess).Inc()
	return true
}

func (c *Controller) refreshGauges() {
	c.metrics.passengers.Set(float64(c.count))
	c.metrics.historyEntries.Set(float64(c.history.Len()))
}
