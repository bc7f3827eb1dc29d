package ledger

import (
	"errors"
	"fmt"
	"strings"
)

// SignatureStatus enumerates the per-signer states of a document.
type SignatureStatus string

const (
	// StatusWaiting is the initial state assigned to every signer at mint.
	StatusWaiting SignatureStatus = "Waiting"
	// StatusSigned is the affirmative terminal state.
	StatusSigned SignatureStatus = "Signed"
	// StatusRejected is the negative terminal state.
	StatusRejected SignatureStatus = "Rejected"
	// StatusNotASigner is a predicate result for accounts outside a document's
	// signer list. It is never persisted.
	StatusNotASigner SignatureStatus = "NotASigner"
)

// ErrInvalidStatus indicates a status value outside the known enumeration.
var ErrInvalidStatus = errors.New("ledger: invalid signature status")

// ParseStatus validates raw input and returns the matching SignatureStatus.
func ParseStatus(rawInput string) (SignatureStatus, error) {
	switch strings.TrimSpace(rawInput) {
	case string(StatusWaiting):
		return StatusWaiting, nil
	case string(StatusSigned):
		return StatusSigned, nil
	case string(StatusRejected):
		return StatusRejected, nil
	case string(StatusNotASigner):
		return StatusNotASigner, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, rawInput)
	}
}

// Storable reports whether the status may be written to the signer table.
// NotASigner is a predicate, not a stored state.
func (s SignatureStatus) Storable() bool {
	switch s {
	case StatusWaiting, StatusSigned, StatusRejected:
		return true
	default:
		return false
	}
}

// String returns the canonical spelling of the status.
func (s SignatureStatus) String() string {
	return string(s)
}
