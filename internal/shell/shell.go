// Package shell drives a controller from a line-oriented menu.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/MrSnakeDoc/cobus/internal/logger"
)

const Menu = `
1. Add a passenger.
2. Remove a passenger.
3. Save record state.
4. Clean passengers.
5. Clean record states.
6. Print local data.
7. Sync with server.
8. Sync with server on reverse.
100. Exit
>>> `

const (
	msgBye         = "[EXIT] Bye"
	msgUnavailable = "[ERROR] Option not available."
	msgFailed      = "[ERROR] Could not perform this action."

	msgPassengerAdded   = "[SUCCESS] Passenger added."
	msgPassengerRemoved = "[SUCCESS] Passenger removed."
	msgRecordSaved      = "[SUCCESS] Record state saved."
	msgCountCleaned     = "[SUCCESS] Passengers cleaned."
	msgRecordsCleaned   = "[SUCCESS] Record states cleaned."
	msgSynced           = "[SUCCESS] Synced with server."
)

// Controller is the part of the controller the menu drives.
type Controller interface {
	AddPassenger(ctx context.Context, onServer bool) bool
	RemovePassenger(ctx context.Context, onServer bool) bool
	PushRecordState(ctx context.Context, onServer bool) bool
	CleanNumberOfPassengers(ctx context.Context) bool
	CleanRecordStates(ctx context.Context) bool
	SyncWithServer(ctx context.Context, reverse bool) bool
	Describe() string
}

type Shell struct {
	ctrl Controller
	in   io.Reader
	out  io.Writer
	log  logger.Logger
}

func New(ctrl Controller, in io.Reader, out io.Writer, log logger.Logger) *Shell {
	if log == nil {
		log = logger.Nop()
	}
	return &Shell{ctrl: ctrl, in: in, out: out, log: log}
}

// Run prompts until the exit option, end of input or ctx cancellation.
// Only write errors on out are returned.
func (s *Shell) Run(ctx context.Context) error {
	lines := make(chan string)
	done := make(chan struct{})
	defer close(done)

	go func() {
		defer close(lines)
		sc := bufio.NewScanner(s.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-done:
				return
			}
		}
		if err := sc.Err(); err != nil {
			s.log.Warn("shell input closed", logger.Error(err))
		}
	}()

	for {
		if _, err := io.WriteString(s.out, Menu); err != nil {
			return err
		}

		var line string
		select {
		case <-ctx.Done():
			s.log.Info("shell interrupted")
			_, err := fmt.Fprintln(s.out)
			return err
		case l, ok := <-lines:
			if !ok {
				_, err := fmt.Fprintln(s.out)
				return err
			}
			line = l
		}

		exit, err := s.dispatch(ctx, strings.TrimSpace(line))
		if err != nil || exit {
			return err
		}
	}
}

func (s *Shell) dispatch(ctx context.Context, option string) (exit bool, err error) {
	s.log.Debug("shell option", logger.String("option", option))

	switch option {
	case "100":
		_, err = fmt.Fprintln(s.out, msgBye)
		return true, err
	case "1":
		err = s.report(s.ctrl.AddPassenger(ctx, true), msgPassengerAdded)
	case "2":
		err = s.report(s.ctrl.RemovePassenger(ctx, true), msgPassengerRemoved)
	case "3":
		err = s.report(s.ctrl.PushRecordState(ctx, true), msgRecordSaved)
	case "4":
		err = s.report(s.ctrl.CleanNumberOfPassengers(ctx), msgCountCleaned)
	case "5":
		err = s.report(s.ctrl.CleanRecordStates(ctx), msgRecordsCleaned)
	case "6":
		_, err = fmt.Fprint(s.out, s.ctrl.Describe())
	case "7":
		err = s.report(s.ctrl.SyncWithServer(ctx, false), msgSynced)
	case "8":
		err = s.report(s.ctrl.SyncWithServer(ctx, true), msgSynced)
	default:
		_, err = fmt.Fprintln(s.out, msgUnavailable)
	}
	return false, err
}

// report prints the outcome of a controller action; the cause is in the log.
func (s *Shell) report(ok bool, success string) error {
	msg := success
	if !ok {
		msg = msgFailed
	}
	_, err := fmt.Fprintln(s.out, msg)
	return err
}
