package ledger

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SafeMint issues one document token: ownership, metadata URI, content hash,
// deadline and the signer enrollment are established in a single transaction.
// A deadline already in the past is legal here; it only makes every later
// sign fail. Returns the token id on success.
func (s *Service) SafeMint(ctx context.Context, req MintRequest) (uint32, error) {
	if len(req.Signers) == 0 {
		return 0, ErrSignersListEmpty
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := mintToken(tx, req.TokenID, req.To); err != nil {
			return err
		}
		if err := setTokenURI(tx, req.TokenID, req.MetaURI); err != nil {
			return err
		}

		hashRecord := DocumentHash{TokenID: req.TokenID, Hash: req.DocumentHash}
		if err := tx.Create(&hashRecord).Error; err != nil {
			return fmt.Errorf("ledger: document hash insert failed: %w", err)
		}

		deadlineRecord := DocumentDeadline{TokenID: req.TokenID, Deadline: req.Deadline}
		if err := tx.Create(&deadlineRecord).Error; err != nil {
			return fmt.Errorf("ledger: deadline insert failed: %w", err)
		}

		// A signer listed twice enrolls once; the repeated entry carries the
		// same Waiting status.
		seen := make(map[AccountID]struct{}, len(req.Signers))
		for _, signer := range req.Signers {
			if _, duplicate := seen[signer]; duplicate {
				continue
			}
			seen[signer] = struct{}{}
			enrollment := DocumentSigner{
				TokenID: req.TokenID,
				Signer:  signer.String(),
				Status:  StatusWaiting.String(),
			}
			if err := tx.Create(&enrollment).Error; err != nil {
				return fmt.Errorf("ledger: signer enrollment failed: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.events.MintEmitted(req.To, req.TokenID)
	s.logger.Info("token minted",
		zap.Uint32("token_id", req.TokenID),
		zap.String("owner", req.To.String()),
		zap.Int("signers", len(req.Signers)))
	return req.TokenID, nil
}

func mintToken(tx *gorm.DB, tokenID uint32, to AccountID) error {
	minted, err := tokenMinted(tx, tokenID)
	if err != nil {
		return err
	}
	if minted {
		return ErrTokenAlreadyMinted
	}
	owner := TokenOwner{TokenID: tokenID, Owner: to.String()}
	if err := tx.Create(&owner).Error; err != nil {
		return fmt.Errorf("ledger: owner insert failed: %w", err)
	}
	return nil
}

func setTokenURI(tx *gorm.DB, tokenID uint32, uri string) error {
	minted, err := tokenMinted(tx, tokenID)
	if err != nil {
		return err
	}
	if !minted {
		return ErrTokenDoesNotExist
	}
	record := TokenURI{TokenID: tokenID, URI: uri}
	if err := tx.Create(&record).Error; err != nil {
		return fmt.Errorf("ledger: uri insert failed: %w", err)
	}
	return nil
}

func tokenMinted(tx *gorm.DB, tokenID uint32) (bool, error) {
	var count int64
	if err := tx.Model(&TokenOwner{}).Where("token_id = ?", tokenID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("ledger: owner lookup failed: %w", err)
	}
	return count > 0, nil
}

// SignDocument records one signer's status for a token. The validation
// sequence and its failure codes are part of the external contract; checks
// run in order and the first failure aborts with no state change. On success
// the signer's nonce advances, an audit row is appended and the full
// token to signer-status map is returned.
func (s *Service) SignDocument(ctx context.Context, req SignRequest) (map[uint32]map[string]SignatureStatus, error) {
	if !req.Status.Storable() {
		return nil, fmt.Errorf("%w: %q is not a storable status", ErrInvalidStatus, req.Status)
	}

	now := s.clock().UTC().Unix()
	var (
		documents map[uint32]map[string]SignatureStatus
		nonce     uint32
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		minted, err := tokenMinted(tx, req.TokenID)
		if err != nil {
			return err
		}
		if !minted {
			return ErrTokenNotMinted
		}

		var enrollmentCount int64
		if err := tx.Model(&DocumentSigner{}).Count(&enrollmentCount).Error; err != nil {
			return fmt.Errorf("ledger: signings lookup failed: %w", err)
		}
		if enrollmentCount == 0 {
			return ErrDocumentSigningsIsEmpty
		}

		var tokenEnrollmentCount int64
		if err := tx.Model(&DocumentSigner{}).
			Where("token_id = ?", req.TokenID).
			Count(&tokenEnrollmentCount).Error; err != nil {
			return fmt.Errorf("ledger: signings lookup failed: %w", err)
		}
		if tokenEnrollmentCount == 0 {
			return ErrDocumentSigningsIsEmpty
		}

		var enrollment DocumentSigner
		err = tx.Take(&enrollment, "token_id = ? AND signer = ?", req.TokenID, req.Signer.String()).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSignerDoesNotExist
		}
		if err != nil {
			return fmt.Errorf("ledger: enrollment lookup failed: %w", err)
		}
		// Stored NotASigner would breach the enrollment invariant; reported
		// rather than silently accepted.
		if enrollment.Status == StatusNotASigner.String() {
			return ErrNotASigner
		}

		var hashCount int64
		if err := tx.Model(&DocumentHash{}).Count(&hashCount).Error; err != nil {
			return fmt.Errorf("ledger: hash lookup failed: %w", err)
		}
		if hashCount == 0 {
			return ErrDocumentHashesIsEmpty
		}

		var hashRecord DocumentHash
		err = tx.Take(&hashRecord, "token_id = ?", req.TokenID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrHashNotFound
		}
		if err != nil {
			return fmt.Errorf("ledger: hash lookup failed: %w", err)
		}
		if hashRecord.Hash != req.DocumentHash {
			return ErrDocumentHashMismatch
		}

		var deadlineCount int64
		if err := tx.Model(&DocumentDeadline{}).Count(&deadlineCount).Error; err != nil {
			return fmt.Errorf("ledger: deadline lookup failed: %w", err)
		}
		if deadlineCount == 0 {
			return ErrDeadlinesIsEmpty
		}

		var deadlineRecord DocumentDeadline
		err = tx.Take(&deadlineRecord, "token_id = ?", req.TokenID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDeadlineNotFound
		}
		if err != nil {
			return fmt.Errorf("ledger: deadline lookup failed: %w", err)
		}
		if uint64(now) > deadlineRecord.Deadline {
			return ErrDeadlinePassed
		}

		if err := s.authorizer.RequireAuth(ctx, req.Signer); err != nil {
			return fmt.Errorf("%w: %v", ErrUnauthorized, err)
		}
		// Waiting is the only state a signer may transition out of; this
		// guard also makes Rejected terminal.
		if enrollment.Status != StatusWaiting.String() {
			return ErrAlreadySigned
		}

		nonce, err = advanceNonce(tx, req.Signer)
		if err != nil {
			return err
		}

		if err := tx.Model(&DocumentSigner{}).
			Where("token_id = ? AND signer = ?", req.TokenID, req.Signer.String()).
			Updates(map[string]interface{}{
				"status":       req.Status.String(),
				"updated_at_s": now,
			}).Error; err != nil {
			return fmt.Errorf("ledger: status update failed: %w", err)
		}

		eventID, err := s.idProvider.NewID()
		if err != nil {
			return fmt.Errorf("ledger: event id generation failed: %w", err)
		}
		audit := SignatureEvent{
			EventID:          eventID,
			TokenID:          req.TokenID,
			Signer:           req.Signer.String(),
			Status:           req.Status.String(),
			DocumentHash:     req.DocumentHash,
			Deadline:         deadlineRecord.Deadline,
			Nonce:            nonce,
			AppliedAtSeconds: now,
		}
		if err := tx.Create(&audit).Error; err != nil {
			return fmt.Errorf("ledger: audit insert failed: %w", err)
		}

		documents, err = loadDocuments(tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.events.SignatureEmitted(req.TokenID, req.Signer, req.Status)
	s.logger.Info("document signed",
		zap.Uint32("token_id", req.TokenID),
		zap.String("signer", req.Signer.String()),
		zap.String("status", req.Status.String()),
		zap.Uint32("nonce", nonce))
	return documents, nil
}

// advanceNonce updates the signer's counter and returns the stored value.
// The original contract keeps the very first nonce system-wide at zero and
// starts every later first-time signer at one; that behavior is preserved.
func advanceNonce(tx *gorm.DB, signer AccountID) (uint32, error) {
	var tableCount int64
	if err := tx.Model(&SignerNonce{}).Count(&tableCount).Error; err != nil {
		return 0, fmt.Errorf("ledger: nonce lookup failed: %w", err)
	}

	var record SignerNonce
	err := tx.Take(&record, "signer = ?", signer.String()).Error
	last := record.Nonce
	missing := errors.Is(err, gorm.ErrRecordNotFound)
	if missing {
		last = 0
	} else if err != nil {
		return 0, fmt.Errorf("ledger: nonce lookup failed: %w", err)
	}

	next := last
	if tableCount > 0 {
		next = last + 1
	}

	if missing {
		if err := tx.Create(&SignerNonce{Signer: signer.String(), Nonce: next}).Error; err != nil {
			return 0, fmt.Errorf("ledger: nonce insert failed: %w", err)
		}
		return next, nil
	}
	if err := tx.Model(&SignerNonce{}).
		Where("signer = ?", signer.String()).
		Update("nonce", next).Error; err != nil {
		return 0, fmt.Errorf("ledger: nonce update failed: %w", err)
	}
	return next, nil
}
