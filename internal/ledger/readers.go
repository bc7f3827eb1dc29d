package ledger

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Owners returns the full token to owner mapping.
func (s *Service) Owners(ctx context.Context) (map[uint32]string, error) {
	var rows []TokenOwner
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("ledger: owners query failed: %w", err)
	}
	owners := make(map[uint32]string, len(rows))
	for _, row := range rows {
		owners[row.TokenID] = row.Owner
	}
	return owners, nil
}

// TokenURIs returns the full token to metadata URI mapping.
func (s *Service) TokenURIs(ctx context.Context) (map[uint32]string, error) {
	var rows []TokenURI
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("ledger: uris query failed: %w", err)
	}
	uris := make(map[uint32]string, len(rows))
	for _, row := range rows {
		uris[row.TokenID] = row.URI
	}
	return uris, nil
}

// TokenURI returns the metadata URI of one token; fails when absent.
func (s *Service) TokenURI(ctx context.Context, tokenID uint32) (string, error) {
	var row TokenURI
	err := s.db.WithContext(ctx).Take(&row, "token_id = ?", tokenID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrTokenDoesNotExist
	}
	if err != nil {
		return "", fmt.Errorf("ledger: uri query failed: %w", err)
	}
	return row.URI, nil
}

// DocumentHashes returns the full token to content hash mapping.
func (s *Service) DocumentHashes(ctx context.Context) (map[uint32]string, error) {
	var rows []DocumentHash
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("ledger: hashes query failed: %w", err)
	}
	hashes := make(map[uint32]string, len(rows))
	for _, row := range rows {
		hashes[row.TokenID] = row.Hash
	}
	return hashes, nil
}

// Deadlines returns the full token to deadline mapping.
func (s *Service) Deadlines(ctx context.Context) (map[uint32]uint64, error) {
	var rows []DocumentDeadline
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("ledger: deadlines query failed: %w", err)
	}
	deadlines := make(map[uint32]uint64, len(rows))
	for _, row := range rows {
		deadlines[row.TokenID] = row.Deadline
	}
	return deadlines, nil
}

// Documents returns every token's signer to status mapping.
func (s *Service) Documents(ctx context.Context) (map[uint32]map[string]SignatureStatus, error) {
	var documents map[uint32]map[string]SignatureStatus
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var loadErr error
		documents, loadErr = loadDocuments(tx)
		return loadErr
	})
	if err != nil {
		return nil, err
	}
	return documents, nil
}

// Document returns one token's signer to status mapping, empty when the
// token is unknown.
func (s *Service) Document(ctx context.Context, tokenID uint32) (map[string]SignatureStatus, error) {
	var rows []DocumentSigner
	if err := s.db.WithContext(ctx).
		Where("token_id = ?", tokenID).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("ledger: document query failed: %w", err)
	}
	document := make(map[string]SignatureStatus, len(rows))
	for _, row := range rows {
		document[row.Signer] = SignatureStatus(row.Status)
	}
	return document, nil
}

// Nonce returns the signer's signature counter, zero when never signed.
func (s *Service) Nonce(ctx context.Context, signer AccountID) (uint32, error) {
	var record SignerNonce
	err := s.db.WithContext(ctx).Take(&record, "signer = ?", signer.String()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("ledger: nonce query failed: %w", err)
	}
	return record.Nonce, nil
}

func loadDocuments(tx *gorm.DB) (map[uint32]map[string]SignatureStatus, error) {
	var rows []DocumentSigner
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("ledger: documents query failed: %w", err)
	}
	documents := make(map[uint32]map[string]SignatureStatus)
	for _, row := range rows {
		inner, ok := documents[row.TokenID]
		if !ok {
			inner = make(map[string]SignatureStatus)
			documents[row.TokenID] = inner
		}
		inner[row.Signer] = SignatureStatus(row.Status)
	}
	return documents, nil
}
