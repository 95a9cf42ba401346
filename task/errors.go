package task

import (
	"fmt"
	"sync/atomic"
)

// ContractViolation reports misuse of the task API: it is raised for
// double-resolve and continuation rebinding, programmer errors rather than
// runtime failures. Cross-thread work-queue polling is not detected by any
// package in this module. Per spec.md §7 these are
// fatal in debug builds and silently ignored in release; StrictMode selects
// which behavior this process wants.
type ContractViolation struct {
	Op string
}

func (e *ContractViolation) Error() string {
	return fmt.Sprintf("task: contract violation: %s", e.Op)
}

var strictMode atomic.Bool

// SetStrictMode controls whether contract violations (§7) panic (true,
// "debug") or are silently ignored (false, "release", the default).
func SetStrictMode(v bool) { strictMode.Store(v) }

// StrictMode reports the current setting; see SetStrictMode.
func StrictMode() bool { return strictMode.Load() }

// reportViolation panics with a *ContractViolation in strict mode; it is a
// silent no-op otherwise, matching the "fatal in debug, ignored in release"
// policy from spec.md §7.
func reportViolation(op string) {
	if strictMode.Load() {
		panic(&ContractViolation{Op: op})
	}
}
