//go:build !release

package assert

import "fmt"

// That panics with a *Violation when cond is false. Violations are bugs in the caller or in the
// library itself and are never returned as errors.
func That(cond bool, format string, args ...any) { //nolint:goprintffuncname // it's ok
	if !cond {
		panic(&Violation{Message: fmt.Sprintf(format, args...)})
	}
}

// Enabled reports whether invariant checks are compiled in.
const Enabled = true
