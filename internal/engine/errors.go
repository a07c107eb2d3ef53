package engine

import "errors"

var (
	// ErrNotStartable is returned by Start when the session was rejected
	// during eligibility checks and is flagged non-startable.
	ErrNotStartable = errors.New("session is not startable")

	// ErrWrongPhase is returned when an action is invoked outside the phase
	// that permits it.
	ErrWrongPhase = errors.New("action not allowed in current phase")

	// ErrNotFinished is returned by Result while the session is still live.
	ErrNotFinished = errors.New("session is not finished")
)

// RejectReason classifies why a session cannot be started. These are expected,
// user-facing verdicts surfaced in the intro phase, not errors.
type RejectReason string

const (
	RejectNone          RejectReason = ""
	RejectDisabled      RejectReason = "disabled"
	RejectEmptyPool     RejectReason = "empty_pool"
	RejectRetakeBlocked RejectReason = "retake_blocked"
	RejectCooldown      RejectReason = "cooldown_active"
	RejectFetchFailed   RejectReason = "fetch_failed"
)

// Eligibility is the verdict computed once during the loading to intro
// transition. CooldownRemaining is only set for RejectCooldown.
type Eligibility struct {
	Startable         bool         `json:"startable"`
	Reason            RejectReason `json:"reason,omitempty"`
	CooldownRemaining int          `json:"cooldown_remaining_minutes,omitempty"`
}
