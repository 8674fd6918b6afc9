package process

import "time"

// Stoppable is a resource that can be stopped within a timeout.
type Stoppable interface {
	Stop(timeout time.Duration) error
}

var _ Stoppable = (*Handle)(nil)

// StopAndNil stops *p and sets it to nil in one step, so a partially built
// owner can tear down whatever it holds without tracking which parts exist.
// A nil p or *p is a no-op. *p is cleared even when Stop fails.
//
//	var h *process.Handle
//	err := process.StopAndNil(&h, 10*time.Second)
func StopAndNil[P interface {
	*E
	Stoppable
}, E any](p *P, timeout time.Duration) error {
	if p == nil || *p == nil {
		return nil
	}
	defer func() { *p = nil }()
	return (*p).Stop(timeout)
}
