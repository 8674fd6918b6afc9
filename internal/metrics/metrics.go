// Package metrics records session lifecycle timings.
package metrics

import "time"

// Boot failure reasons used as the "reason" label.
const (
	ReasonTimeout  = "timeout"
	ReasonExited   = "exited"
	ReasonSpawn    = "spawn"
	ReasonIO       = "io"
	ReasonCanceled = "canceled"
	ReasonOther    = "other"
)

// Collector receives one call per lifecycle event of a session.
// Implementations must be safe for concurrent use.
type Collector interface {
	// BootSucceeded records a boot that reached the ready pattern.
	BootSucceeded(d time.Duration)

	// BootFailed records a boot that did not, with one of the Reason constants.
	BootFailed(reason string, d time.Duration)

	// WaitFinished records the outcome of a wait issued after boot.
	WaitFinished(matched bool, d time.Duration)

	// ProcessTerminated records how long stopping the process took.
	ProcessTerminated(d time.Duration)
}

type noopCollector struct{}

func (noopCollector) BootSucceeded(time.Duration)      {}
func (noopCollector) BootFailed(string, time.Duration) {}
func (noopCollector) WaitFinished(bool, time.Duration) {}
func (noopCollector) ProcessTerminated(time.Duration)  {}

// NewNoop returns a Collector that discards everything.
func NewNoop() Collector {
	return noopCollector{}
}
