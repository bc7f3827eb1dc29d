package ledger

import "errors"

// Code is the stable numeric identifier of a ledger failure. The values are
// part of the external contract and must not be renumbered.
type Code uint32

const (
	CodeTokenNotMinted          Code = 1
	CodeDocumentSigningsIsEmpty Code = 2
	CodeNotASigner              Code = 3
	CodeAlreadySigned           Code = 4
	CodeSignerDoesNotExist      Code = 5
	CodeDocumentHashesIsEmpty   Code = 6
	CodeDocumentHashMismatch    Code = 7
	CodeHashNotFound            Code = 8
	CodeDeadlinesIsEmpty        Code = 9
	CodeDeadlinePassed          Code = 10
	CodeDeadlineNotFound        Code = 11
	CodeSignatureExpired        Code = 12
	CodeTokenAlreadyMinted      Code = 13
	CodeTokenDoesNotExist       Code = 14
	CodeSignersListEmpty        Code = 15
)

// Error is a ledger failure with a stable code and name. The set of values is
// closed; callers compare with errors.Is against the exported sentinels.
type Error struct {
	code Code
	name string
}

func (e *Error) Error() string {
	return e.name
}

// Code returns the stable numeric code of the failure.
func (e *Error) Code() Code {
	return e.code
}

// Name returns the stable snake_case identifier of the failure.
func (e *Error) Name() string {
	return e.name
}

var (
	ErrTokenNotMinted          = &Error{code: CodeTokenNotMinted, name: "token_not_minted"}
	ErrDocumentSigningsIsEmpty = &Error{code: CodeDocumentSigningsIsEmpty, name: "document_signings_is_empty"}
	ErrNotASigner              = &Error{code: CodeNotASigner, name: "not_a_signer"}
	ErrAlreadySigned           = &Error{code: CodeAlreadySigned, name: "already_signed"}
	ErrSignerDoesNotExist      = &Error{code: CodeSignerDoesNotExist, name: "signer_does_not_exist"}
	ErrDocumentHashesIsEmpty   = &Error{code: CodeDocumentHashesIsEmpty, name: "document_hashes_is_empty"}
	ErrDocumentHashMismatch    = &Error{code: CodeDocumentHashMismatch, name: "document_hash_mismatch"}
	ErrHashNotFound            = &Error{code: CodeHashNotFound, name: "hash_not_found"}
	ErrDeadlinesIsEmpty        = &Error{code: CodeDeadlinesIsEmpty, name: "deadlines_is_empty"}
	ErrDeadlinePassed          = &Error{code: CodeDeadlinePassed, name: "deadline_passed"}
	ErrDeadlineNotFound        = &Error{code: CodeDeadlineNotFound, name: "deadline_not_found"}
	// ErrSignatureExpired is retained for contract compatibility. The engine
	// captures the clock once per operation, so the second deadline gate of
	// the original contract can no longer fire; DeadlinePassed covers it.
	ErrSignatureExpired   = &Error{code: CodeSignatureExpired, name: "signature_expired"}
	ErrTokenAlreadyMinted = &Error{code: CodeTokenAlreadyMinted, name: "token_already_minted"}
	ErrTokenDoesNotExist  = &Error{code: CodeTokenDoesNotExist, name: "token_does_not_exist"}
	ErrSignersListEmpty   = &Error{code: CodeSignersListEmpty, name: "signers_list_empty"}
)

var (
	// ErrAlreadyInitialized indicates a second init attempt.
	ErrAlreadyInitialized = errors.New("ledger: already initialized")
	// ErrNotInitialized indicates an admin read before init.
	ErrNotInitialized = errors.New("ledger: not initialized")
	// ErrUnauthorized indicates the caller failed signer authentication.
	ErrUnauthorized = errors.New("ledger: signer authentication failed")
)

// CodeOf extracts the stable code from err, reporting ok=false for errors
// outside the closed ledger set.
func CodeOf(err error) (Code, bool) {
	var ledgerErr *Error
	if errors.As(err, &ledgerErr) {
		return ledgerErr.code, true
	}
	return 0, false
}
