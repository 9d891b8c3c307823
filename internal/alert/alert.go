// Package alert emits audible tones. Alerts are advisory: a sink never
// reports failure to its caller.
package alert

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/MrSnakeDoc/cobus/internal/logger"
)

const (
	BackendNone    = "none"
	BackendCommand = "command"

	// DefaultCommand plays a sine tone through ALSA with SoX.
	DefaultCommand = "play -nq -t alsa synth {duration} sine {frequency}"
)

// Tone is a calibrated alert intent.
type Tone struct {
	FrequencyHz float64
	DurationS   float64
	Repetitions int
}

var (
	// OverCapacity is raised while the unit carries more passengers than allowed.
	OverCapacity = Tone{FrequencyHz: 300, DurationS: 0.5, Repetitions: 2}
	// NegativeDecrement is raised when more passengers leave than are aboard.
	NegativeDecrement = Tone{FrequencyHz: 500, DurationS: 1, Repetitions: 1}
)

// Sink blocks until repetitions tones have been emitted one after another.
type Sink interface {
	Alert(ctx context.Context, frequencyHz, durationS float64, repetitions int)
}

// Emit plays tone on sink.
func Emit(ctx context.Context, sink Sink, tone Tone) {
	sink.Alert(ctx, tone.FrequencyHz, tone.DurationS, tone.Repetitions)
}

// New picks a sink by backend name.
func New(backend, command string, log logger.Logger) (Sink, error) {
	switch backend {
	case "", BackendNone:
		return Noop{}, nil
	case BackendCommand:
		if command == "" {
			command = DefaultCommand
		}
		return NewCommand(command, log)
	default:
		return nil, fmt.Errorf("unknown alert backend %q", backend)
	}
}

// Noop is used where tone output is unsupported.
type Noop struct{}

func (Noop) Alert(context.Context, float64, float64, int) {}

type runFunc func(ctx context.Context, name string, args ...string) error

// Command runs an external program once per repetition. The template may
// reference {frequency} (Hz) and {duration} (seconds).
type Command struct {
	argv []string
	log  logger.Logger
	run  runFunc
}

func NewCommand(template string, log logger.Logger) (*Command, error) {
	argv := strings.Fields(template)
	if len(argv) == 0 {
		return nil, fmt.Errorf("alert command is empty")
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Command{
		argv: argv,
		log:  log,
		run:  execRun,
	}, nil
}

func execRun(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

func (c *Command) Alert(ctx context.Context, frequencyHz, durationS float64, repetitions int) {
	r := strings.NewReplacer(
		"{frequency}", formatFloat(frequencyHz),
		"{duration}", formatFloat(durationS),
	)
	argv := make([]string, len(c.argv))
	for i, a := range c.argv {
		argv[i] = r.Replace(a)
	}

	for i := 0; i < repetitions; i++ {
		if ctx.Err() != nil {
			return
		}
		if err := c.run(ctx, argv[0], argv[1:]...); err != nil {
			// A missing player fails every time; don't repeat the noise in the logs.
			c.log.Warn("alert command failed",
				logger.String("command", argv[0]),
				logger.Float64("frequency_hz", frequencyHz),
				logger.Float64("duration_s", durationS),
				logger.Int("repetition", i+1),
				logger.Error(err))
			return
		}
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
