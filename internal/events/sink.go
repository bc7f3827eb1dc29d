package events

import "github.com/petaldocs/docsign/internal/ledger"

// LedgerSink adapts a Dispatcher to the ledger's event emission interface.
type LedgerSink struct {
	dispatcher *Dispatcher
}

// NewLedgerSink wraps the dispatcher for use as a ledger.EventSink.
func NewLedgerSink(dispatcher *Dispatcher) *LedgerSink {
	return &LedgerSink{dispatcher: dispatcher}
}

// MintEmitted implements ledger.EventSink.
func (s *LedgerSink) MintEmitted(recipient ledger.AccountID, tokenID uint32) {
	s.dispatcher.MintEmitted(recipient.String(), tokenID)
}

// SignatureEmitted implements ledger.EventSink.
func (s *LedgerSink) SignatureEmitted(tokenID uint32, signer ledger.AccountID, status ledger.SignatureStatus) {
	s.dispatcher.SignatureEmitted(tokenID, signer.String(), status.String())
}
