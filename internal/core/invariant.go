package core

import "fmt"

// invariantf terminates the operation on a programming-error
// condition. Continuing past one of these risks structural corruption
// of the shared tables, so they are never reported as recoverable
// errors.
func invariantf(cond bool, format string, args ...any) {
	if !cond {
		panic("hivefs: invariant violation: " + fmt.Sprintf(format, args...))
	}
}
