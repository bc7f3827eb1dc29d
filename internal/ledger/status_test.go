package ledger

import (
	"errors"
	"testing"
)

func TestParseStatusAcceptsCanonicalSpellings(t *testing.T) {
	cases := map[string]SignatureStatus{
		"Waiting":    StatusWaiting,
		"Signed":     StatusSigned,
		"Rejected":   StatusRejected,
		"NotASigner": StatusNotASigner,
		" Signed ":   StatusSigned,
	}
	for raw, want := range cases {
		got, err := ParseStatus(raw)
		if err != nil {
			t.Fatalf("ParseStatus(%q) returned error: %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseStatus(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestParseStatusRejectsUnknownValues(t *testing.T) {
	for _, raw := range []string{"", "signed", "WAITING", "Approved"} {
		if _, err := ParseStatus(raw); !errors.Is(err, ErrInvalidStatus) {
			t.Fatalf("ParseStatus(%q) expected ErrInvalidStatus, got %v", raw, err)
		}
	}
}

func TestStorableExcludesNotASigner(t *testing.T) {
	for _, status := range []SignatureStatus{StatusWaiting, StatusSigned, StatusRejected} {
		if !status.Storable() {
			t.Fatalf("%v must be storable", status)
		}
	}
	if StatusNotASigner.Storable() {
		t.Fatalf("NotASigner must never be storable")
	}
	if SignatureStatus("bogus").Storable() {
		t.Fatalf("unknown statuses must not be storable")
	}
}
