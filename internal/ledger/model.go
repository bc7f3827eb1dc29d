package ledger

import (
	"errors"
	"fmt"
	"strings"
)

const maxIdentifierLength = 190

// ErrInvalidAccountID indicates that an account identifier is empty or
// exceeds storage bounds.
var ErrInvalidAccountID = errors.New("ledger: invalid account id")

// AccountID represents a validated opaque account identifier.
type AccountID string

// NewAccountID validates raw input and returns an AccountID.
func NewAccountID(rawInput string) (AccountID, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidAccountID)
	}
	if len(trimmed) > maxIdentifierLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidAccountID, maxIdentifierLength)
	}
	return AccountID(trimmed), nil
}

// String returns the underlying account identifier.
func (id AccountID) String() string {
	return string(id)
}

// TokenOwner records ownership of one document token. A row exists iff the
// token has been minted; existence checks go through this table alone.
type TokenOwner struct {
	TokenID uint32 `gorm:"column:token_id;primaryKey;autoIncrement:false"`
	Owner   string `gorm:"column:owner;size:190;not null;index"`
}

// TableName provides the explicit table binding for GORM.
func (TokenOwner) TableName() string {
	return "token_owners"
}

// TokenURI records the metadata URI committed at mint. Kept apart from
// ownership so the URI can move independently in a future extension.
type TokenURI struct {
	TokenID uint32 `gorm:"column:token_id;primaryKey;autoIncrement:false"`
	URI     string `gorm:"column:uri;type:text;not null"`
}

// TableName provides the explicit table binding for GORM.
func (TokenURI) TableName() string {
	return "token_uris"
}

// DocumentHash records the content hash committed at mint. Opaque text,
// equality-compared only.
type DocumentHash struct {
	TokenID uint32 `gorm:"column:token_id;primaryKey;autoIncrement:false"`
	Hash    string `gorm:"column:document_hash;type:text;not null"`
}

// TableName provides the explicit table binding for GORM.
func (DocumentHash) TableName() string {
	return "document_hashes"
}

// DocumentDeadline records the signing deadline set at mint. Never mutated.
type DocumentDeadline struct {
	TokenID  uint32 `gorm:"column:token_id;primaryKey;autoIncrement:false"`
	Deadline uint64 `gorm:"column:deadline;not null"`
}

// TableName provides the explicit table binding for GORM.
func (DocumentDeadline) TableName() string {
	return "document_deadlines"
}

// DocumentSigner is one signer enrollment for one token. Status holds a
// storable SignatureStatus; NotASigner never appears as a stored value.
type DocumentSigner struct {
	TokenID          uint32 `gorm:"column:token_id;primaryKey;autoIncrement:false"`
	Signer           string `gorm:"column:signer;primaryKey;size:190;not null"`
	Status           string `gorm:"column:status;size:32;not null"`
	UpdatedAtSeconds int64  `gorm:"column:updated_at_s;not null;default:0"`
}

// TableName provides the explicit table binding for GORM.
func (DocumentSigner) TableName() string {
	return "document_signers"
}

// SignerNonce counts successful signatures per signer, global across tokens.
type SignerNonce struct {
	Signer string `gorm:"column:signer;primaryKey;size:190;not null"`
	Nonce  uint32 `gorm:"column:nonce;not null;default:0"`
}

// TableName provides the explicit table binding for GORM.
func (SignerNonce) TableName() string {
	return "signer_nonces"
}

const adminRecordID = 1

// AdminRecord is the singleton administrator row established by Init.
type AdminRecord struct {
	ID        uint32 `gorm:"column:id;primaryKey;autoIncrement:false"`
	Account   string `gorm:"column:account;size:190;not null"`
	CreatedAt int64  `gorm:"column:created_at_s;not null"`
}

// TableName provides the explicit table binding for GORM.
func (AdminRecord) TableName() string {
	return "admin_records"
}

const debugCounterID = 1

// DebugCounter is a diagnostic counter with no ledger semantics.
type DebugCounter struct {
	ID    uint32 `gorm:"column:id;primaryKey;autoIncrement:false"`
	Value uint32 `gorm:"column:value;not null;default:0"`
}

// TableName provides the explicit table binding for GORM.
func (DebugCounter) TableName() string {
	return "debug_counters"
}

// SignatureEvent captures an append-only audit trail of successful signs.
type SignatureEvent struct {
	EventID          string `gorm:"column:event_id;primaryKey;size:190;not null"`
	TokenID          uint32 `gorm:"column:token_id;not null;index:idx_signature_events_token,priority:1"`
	Signer           string `gorm:"column:signer;size:190;not null"`
	Status           string `gorm:"column:status;size:32;not null"`
	DocumentHash     string `gorm:"column:document_hash;type:text;not null"`
	Deadline         uint64 `gorm:"column:deadline;not null"`
	Nonce            uint32 `gorm:"column:nonce;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null;index:idx_signature_events_token,priority:2"`
}

// TableName provides the explicit table binding for GORM.
func (SignatureEvent) TableName() string {
	return "signature_events"
}

// MintRequest carries the parameters of a SafeMint call.
type MintRequest struct {
	To           AccountID
	TokenID      uint32
	MetaURI      string
	Signers      []AccountID
	DocumentHash string
	Deadline     uint64
}

// SignRequest carries the parameters of a SignDocument call.
type SignRequest struct {
	DocumentHash string
	Signer       AccountID
	Status       SignatureStatus
	TokenID      uint32
}
