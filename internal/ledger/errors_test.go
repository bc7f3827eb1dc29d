package ledger

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorCodesAreStable(t *testing.T) {
	expected := []struct {
		err  *Error
		code Code
		name string
	}{
		{ErrTokenNotMinted, 1, "token_not_minted"},
		{ErrDocumentSigningsIsEmpty, 2, "document_signings_is_empty"},
		{ErrNotASigner, 3, "not_a_signer"},
		{ErrAlreadySigned, 4, "already_signed"},
		{ErrSignerDoesNotExist, 5, "signer_does_not_exist"},
		{ErrDocumentHashesIsEmpty, 6, "document_hashes_is_empty"},
		{ErrDocumentHashMismatch, 7, "document_hash_mismatch"},
		{ErrHashNotFound, 8, "hash_not_found"},
		{ErrDeadlinesIsEmpty, 9, "deadlines_is_empty"},
		{ErrDeadlinePassed, 10, "deadline_passed"},
		{ErrDeadlineNotFound, 11, "deadline_not_found"},
		{ErrSignatureExpired, 12, "signature_expired"},
		{ErrTokenAlreadyMinted, 13, "token_already_minted"},
		{ErrTokenDoesNotExist, 14, "token_does_not_exist"},
		{ErrSignersListEmpty, 15, "signers_list_empty"},
	}

	seen := make(map[Code]string, len(expected))
	for _, entry := range expected {
		if entry.err.Code() != entry.code {
			t.Fatalf("%s: code %d, want %d", entry.name, entry.err.Code(), entry.code)
		}
		if entry.err.Name() != entry.name {
			t.Fatalf("code %d: name %q, want %q", entry.code, entry.err.Name(), entry.name)
		}
		if entry.err.Error() != entry.name {
			t.Fatalf("code %d: Error() %q, want %q", entry.code, entry.err.Error(), entry.name)
		}
		if previous, duplicate := seen[entry.code]; duplicate {
			t.Fatalf("code %d assigned to both %s and %s", entry.code, previous, entry.name)
		}
		seen[entry.code] = entry.name
	}
}

func TestCodeOfUnwrapsLedgerErrors(t *testing.T) {
	wrapped := fmt.Errorf("signing token 7: %w", ErrDeadlinePassed)

	code, ok := CodeOf(wrapped)
	if !ok || code != CodeDeadlinePassed {
		t.Fatalf("CodeOf(wrapped) = (%d, %v), want (10, true)", code, ok)
	}
	if !errors.Is(wrapped, ErrDeadlinePassed) {
		t.Fatalf("wrapped error must satisfy errors.Is against the sentinel")
	}

	if _, ok := CodeOf(errors.New("plain failure")); ok {
		t.Fatalf("CodeOf must report false outside the ledger set")
	}
	if _, ok := CodeOf(ErrUnauthorized); ok {
		t.Fatalf("authentication failures carry no contract code")
	}
}
