package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errMissingDatabase   = errors.New("database handle is required")
	errMissingIDProvider = errors.New("id provider is required")
	noOpLogger           = zap.NewNop()
)

// Authorizer performs caller authentication for a signer account. It stands
// in for the host's require_auth primitive: implementations compare the
// request principal against the signer the operation names.
type Authorizer interface {
	RequireAuth(ctx context.Context, signer AccountID) error
}

// AuthorizerFunc adapts a function to the Authorizer interface.
type AuthorizerFunc func(ctx context.Context, signer AccountID) error

// RequireAuth invokes the wrapped function.
func (f AuthorizerFunc) RequireAuth(ctx context.Context, signer AccountID) error {
	return f(ctx, signer)
}

// EventSink receives ledger events after the surrounding transaction has
// committed. Implementations must not block.
type EventSink interface {
	MintEmitted(recipient AccountID, tokenID uint32)
	SignatureEmitted(tokenID uint32, signer AccountID, status SignatureStatus)
}

type noOpEventSink struct{}

func (noOpEventSink) MintEmitted(AccountID, uint32) {}

func (noOpEventSink) SignatureEmitted(uint32, AccountID, SignatureStatus) {}

// IDProvider issues identifiers for signature audit records.
type IDProvider interface {
	NewID() (string, error)
}

// ServiceConfig describes the dependencies of the signing ledger.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	Authorizer Authorizer
	Events     EventSink
	IDProvider IDProvider
	Logger     *zap.Logger
}

// Service is the document-signing state engine. Every public method runs as
// one transaction: on any failure no write commits.
type Service struct {
	db         *gorm.DB
	clock      func() time.Time
	authorizer Authorizer
	events     EventSink
	idProvider IDProvider
	logger     *zap.Logger
}

// NewService constructs the ledger service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("ledger: %w", errMissingDatabase)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	authorizer := cfg.Authorizer
	if authorizer == nil {
		authorizer = AuthorizerFunc(func(context.Context, AccountID) error {
			return ErrUnauthorized
		})
	}

	events := cfg.Events
	if events == nil {
		events = noOpEventSink{}
	}

	idProvider := cfg.IDProvider
	if idProvider == nil {
		return nil, fmt.Errorf("ledger: %w", errMissingIDProvider)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &Service{
		db:         cfg.Database,
		clock:      clock,
		authorizer: authorizer,
		events:     events,
		idProvider: idProvider,
		logger:     logger,
	}, nil
}

// Init establishes the administrator. The token id parameter is accepted for
// contract compatibility and has no effect. A second call fails.
func (s *Service) Init(ctx context.Context, admin AccountID, _ uint32) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&AdminRecord{}).Count(&count).Error; err != nil {
			return fmt.Errorf("ledger: admin lookup failed: %w", err)
		}
		if count > 0 {
			return ErrAlreadyInitialized
		}
		record := AdminRecord{
			ID:        adminRecordID,
			Account:   admin.String(),
			CreatedAt: s.clock().UTC().Unix(),
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("ledger: admin insert failed: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("ledger initialized", zap.String("admin", admin.String()))
	return nil
}

// Admin returns the administrator account. Fails if Init has not run.
func (s *Service) Admin(ctx context.Context) (AccountID, error) {
	var record AdminRecord
	err := s.db.WithContext(ctx).Take(&record, "id = ?", adminRecordID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotInitialized
	}
	if err != nil {
		return "", fmt.Errorf("ledger: admin lookup failed: %w", err)
	}
	return AccountID(record.Account), nil
}

// BumpDebugCounter increments the diagnostic counter.
func (s *Service) BumpDebugCounter(ctx context.Context) (uint32, error) {
	var value uint32
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var counter DebugCounter
		err := tx.Take(&counter, "id = ?", debugCounterID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			counter = DebugCounter{ID: debugCounterID}
			if err := tx.Create(&counter).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		counter.Value++
		value = counter.Value
		return tx.Model(&DebugCounter{}).
			Where("id = ?", debugCounterID).
			Update("value", counter.Value).Error
	})
	if err != nil {
		return 0, fmt.Errorf("ledger: debug counter bump failed: %w", err)
	}
	return value, nil
}

// DebugCounter returns the diagnostic counter, zero when never bumped.
func (s *Service) DebugCounter(ctx context.Context) (uint32, error) {
	var counter DebugCounter
	err := s.db.WithContext(ctx).Take(&counter, "id = ?", debugCounterID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("ledger: debug counter lookup failed: %w", err)
	}
	return counter.Value, nil
}
