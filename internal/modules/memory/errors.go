package memory

import "errors"

// ErrNotFound covers missing, inactive, and (for non-owners) expired
// memories. The three cases are indistinguishable on purpose: a denied viewer
// must not learn whether the id exists.
var ErrNotFound = errors.New("memory not found")

// Forbidden reason codes surfaced to clients so they can render the matching
// call-to-action.
const (
	ReasonPrivate        = "private"
	ReasonFollowersOnly  = "followers_only"
	ReasonNotTargeted    = "not_targeted"
	ReasonTooFar         = "too_far"
	ReasonNotYetOpen     = "not_yet_available"
	ReasonPasscodeNeeded = "passcode_required"
	ReasonWrongPasscode  = "wrong_passcode"
	ReasonPrevStepLocked = "previous_step_locked"
)

// ForbiddenError is a failed access or unlock check with a typed reason.
type ForbiddenError struct {
	Reason  string
	Message string
}

func (e *ForbiddenError) Error() string { return e.Message }

func forbidden(reason, message string) *ForbiddenError {
	return &ForbiddenError{Reason: reason, Message: message}
}

// BadRequestError is a malformed or missing input.
type BadRequestError struct {
	Message string
}

func (e *BadRequestError) Error() string { return e.Message }

func badRequest(message string) *BadRequestError {
	return &BadRequestError{Message: message}
}

// ConflictError is a uniqueness violation (duplicate journey step).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }
