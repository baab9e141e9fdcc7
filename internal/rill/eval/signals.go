package eval

import "github.com/rill-lang/rill/internal/rill/value"

// BreakSignal and ReturnSignal are explicit, result-carrying control-flow
// signals (§9): they travel as ordinary Go errors rather than panics, and
// are caught at the boundary each one is scoped to (a loop/collection body
// for Break, a closure invocation for Return).
type BreakSignal struct{ Value value.Value }

func (s *BreakSignal) Error() string { return "break outside a loop or collection body" }

type ReturnSignal struct{ Value value.Value }

func (s *ReturnSignal) Error() string { return "return outside a closure body" }

func asBreak(err error) (*BreakSignal, bool) {
	b, ok := err.(*BreakSignal)
	return b, ok
}

func asReturn(err error) (*ReturnSignal, bool) {
	r, ok := err.(*ReturnSignal)
	return r, ok
}
