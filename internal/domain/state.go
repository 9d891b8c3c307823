package domain

import (
	"fmt"
	"time"
)

// DatetimeLayout is the timestamp format of a snapshot ("2024-03-01 17:04:05.123456").
const DatetimeLayout = "2006-01-02 15:04:05.000000"

// CurrentState is the occupancy record stored at /{unit}/current_state.
type CurrentState struct {
	NumberOfPassengers int `json:"number_of_passengers"`
}

// CurrentStateResult is the outcome of reading the current state: either a
// record is present or the subtree does not exist yet.
type CurrentStateResult struct {
	State   CurrentState
	Present bool
}

// Present wraps a record that exists remotely.
func Present(state CurrentState) CurrentStateResult {
	return CurrentStateResult{State: state, Present: true}
}

// Missing is the result for a subtree that does not exist.
func Missing() CurrentStateResult {
	return CurrentStateResult{}
}

// PassengersOrZero returns the stored count, or 0 when nothing is stored.
func (r CurrentStateResult) PassengersOrZero() int {
	if !r.Present {
		return 0
	}
	return r.State.NumberOfPassengers
}

// RecordState is an immutable snapshot of the occupancy at a point in time.
type RecordState struct {
	Datetime           string `json:"datetime"`
	NumberOfPassengers int    `json:"number_of_passengers"`
}

// NewRecordState snapshots n passengers at t.
func NewRecordState(t time.Time, n int) RecordState {
	return RecordState{
		Datetime:           t.Format(DatetimeLayout),
		NumberOfPassengers: n,
	}
}

func (r RecordState) String() string {
	return fmt.Sprintf("{datetime: %s, number_of_passengers: %d}", r.Datetime, r.NumberOfPassengers)
}
