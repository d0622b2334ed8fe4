// Package walking implements C5: the state machine and per-tick control
// loop that glues the pattern generator (C2), interpolator (C3), and
// kinematics (C4) together (spec.md §4.5).
package walking

import (
	"fmt"

	"go.viam.com/heicub/ioboundary"
)

// FatalError is returned by Step for the fatal tier of spec.md §7: solver
// infeasibility or a joint-limit violation. It always wraps the
// ioboundary.ErrorKind that was published alongside it.
type FatalError struct {
	Kind ioboundary.ErrorKind
	Err  error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }
