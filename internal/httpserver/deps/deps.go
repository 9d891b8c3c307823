package deps

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MrSnakeDoc/cobus/internal/controller"
	"github.com/MrSnakeDoc/cobus/internal/logger"
	"github.com/MrSnakeDoc/cobus/internal/store"
)

// StateSource is the read side of the controller.
type StateSource interface {
	Snapshot() controller.Snapshot
}

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	TimeNow      func() time.Time     // for testing, defaults to time.Now
	AllowedCIDRS []string             // IPs allowed to reach /readyz, /state and /metrics
	TrustProxy   bool                 // true if running behind a trusted reverse proxy (e.g., cloudflared)
	State        StateSource          // controller being observed
	Store        store.Adapter        // remote store probed by /readyz
	Registry     *prometheus.Registry // served on /metrics
	ProbeTimeout time.Duration        // per /readyz store probe, defaults to 2s
	ProbeBurst   int                  // /readyz requests per client before throttling
	ProbePerMin  int                  // /readyz refill rate per client
}
