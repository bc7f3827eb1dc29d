package accounts

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/petaldocs/docsign/internal/auth"
	"gorm.io/gorm"
)

// ErrInvalidIdentity indicates the claims did not contain a usable identifier.
var ErrInvalidIdentity = errors.New("accounts: invalid identity")

// ServiceConfig describes the dependencies required for account resolution.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
}

// Service manages canonical ledger account ids for identity-provider subjects.
type Service struct {
	db    *gorm.DB
	now   func() time.Time
	cache sync.Map
}

// NewService constructs the account directory.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("accounts: database connection required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		db:    cfg.Database,
		now:   clock,
		cache: sync.Map{},
	}, nil
}

// ResolveAccountID returns the canonical ledger account id for the provided
// verified identity claims. It records a new mapping when the issuer+subject
// pair has not been seen before.
func (s *Service) ResolveAccountID(claims auth.IdentityClaims) (string, error) {
	issuer := normalize(claims.Issuer)
	subject := normalize(claims.Subject)
	if subject == "" {
		return "", ErrInvalidIdentity
	}
	if issuer == "" {
		issuer = "default"
	}

	cacheKey := issuer + ":" + subject
	if cachedIdentifier, ok := s.cache.Load(cacheKey); ok {
		accountID, ok := cachedIdentifier.(string)
		if ok {
			return accountID, nil
		}
	}

	var account Account
	err := s.db.
		Where("issuer = ? AND subject = ?", issuer, subject).
		First(&account).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		account = Account{
			Issuer:     issuer,
			Subject:    subject,
			AccountID:  subject,
			LastSeenAt: s.now(),
		}
		if err := s.db.Create(&account).Error; err != nil {
			return "", err
		}
	} else if err != nil {
		return "", err
	} else {
		_ = s.db.Model(&Account{}).
			Where("issuer = ? AND subject = ?", issuer, subject).
			Update("last_seen_at", s.now()).
			Error
	}

	s.cache.Store(cacheKey, account.AccountID)
	return account.AccountID, nil
}
