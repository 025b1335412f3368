package compare

import "errors"

// Sentinel errors for the engine's failure modes. Every non-nil error
// CompareViews returns is one of these, either as is or wrapped with
// fmt.Errorf's %w, so a caller can errors.Is down to the specific
// cause.
var (
	// ErrCancelled means the progress collaborator requested abort.
	ErrCancelled = errors.New("compare: run cancelled")
	// ErrHostFailure names a misbehaving HostView call. No path in
	// CompareViews returns it: a panic raised inside a HostView call is
	// recovered like any other panic and reported as ErrLogicViolation.
	ErrHostFailure = errors.New("compare: host collaborator failure")
	// ErrResourceExhausted means an input exceeded an internal sizing
	// limit of the LCS kernel (too many distinct line/word/char hashes
	// in one Diff call). It is never a sign of a misbehaving HostView;
	// the run simply has to give up on input this large.
	ErrResourceExhausted = errors.New("compare: resource limit exceeded")
	// ErrLogicViolation means an internal invariant was broken. This
	// should be impossible in a correct build; it always aborts the
	// whole run rather than returning partial output.
	ErrLogicViolation = errors.New("compare: internal invariant violated")
)
