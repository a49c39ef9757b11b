package recommend

import "strings"

// deltaFilter suppresses stray newline-only tokens that completion models
// tend to emit before the first real text. State is scoped to one relay
// invocation; concurrent relays each carry their own filter.
type deltaFilter struct {
	started    bool
	suppressed int
}

// Keep reports whether delta should be emitted. At most the first two
// newline-only deltas are dropped, and only before any real text has
// been emitted; once real text starts, everything passes through.
func (f *deltaFilter) Keep(delta string) bool {
	if !f.started && f.suppressed < 2 && newlineOnly(delta) {
		f.suppressed++
		return false
	}
	if delta != "" && !newlineOnly(delta) {
		f.started = true
	}
	return true
}

// newlineOnly reports whether s is non-empty and consists solely of
// newline characters.
func newlineOnly(s string) bool {
	return s != "" && strings.Trim(s, "\n") == ""
}
