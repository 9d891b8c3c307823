package controller

import (
	"context"
	"errors"

	"github.com/looplab/fsm"

	"github.com/MrSnakeDoc/cobus/internal/logger"
)

const (
	StateNormal       = "normal"
	StateOverCapacity = "over_capacity"

	eventOverflow = "overflow"
	eventSettle   = "settle"
)

// capacityMachine tracks whether the unit is over capacity. It only records
// transitions; alerting is decided on every evaluation by the controller.
type capacityMachine struct {
	fsm *fsm.FSM
	log logger.Logger
}

func newCapacityMachine(log logger.Logger) *capacityMachine {
	m := &capacityMachine{log: log}

	m.fsm = fsm.NewFSM(
		StateNormal,
		fsm.Events{
			{Name: eventOverflow, Src: []string{StateNormal}, Dst: StateOverCapacity},
			{Name: eventSettle, Src: []string{StateOverCapacity}, Dst: StateNormal},
		},
		fsm.Callbacks{
			"enter_" + StateOverCapacity: func(_ context.Context, e *fsm.Event) {
				m.log.Warn("unit is over capacity", logger.Int("passengers", passengersArg(e)))
			},
			"enter_" + StateNormal: func(_ context.Context, e *fsm.Event) {
				m.log.Info("unit back within capacity", logger.Int("passengers", passengersArg(e)))
			},
		},
	)
	return m
}

// observe moves the machine to match the current occupancy.
func (m *capacityMachine) observe(ctx context.Context, over bool, passengers int) {
	event := eventSettle
	if over {
		event = eventOverflow
	}
	if !m.fsm.Can(event) {
		return
	}
	if err := m.fsm.Event(ctx, event, passengers); err != nil {
		var noTransition fsm.NoTransitionError
		if !errors.As(err, &noTransition) {
			m.log.Debug("capacity transition failed", logger.String("event", event), logger.Error(err))
		}
	}
}

func (m *capacityMachine) current() string {
	return m.fsm.Current()
}

func passengersArg(e *fsm.Event) int {
	if len(e.Args) == 0 {
		return 0
	}
	n, _ := e.Args[0].(int)
	return n
}
