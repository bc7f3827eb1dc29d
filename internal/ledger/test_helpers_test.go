package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type testClock struct {
	mu  sync.Mutex
	now int64
}

func newTestClock(unixSeconds int64) *testClock {
	return &testClock{now: unixSeconds}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Unix(c.now, 0).UTC()
}

func (c *testClock) Set(unixSeconds int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = unixSeconds
}

func openTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("unexpected database open error: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unexpected database handle error: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(
		&TokenOwner{},
		&TokenURI{},
		&DocumentHash{},
		&DocumentDeadline{},
		&DocumentSigner{},
		&SignerNonce{},
		&AdminRecord{},
		&DebugCounter{},
		&SignatureEvent{},
	); err != nil {
		t.Fatalf("unexpected migration error: %v", err)
	}
	return db
}

func allowAllAuthorizer() Authorizer {
	return AuthorizerFunc(func(context.Context, AccountID) error {
		return nil
	})
}

func newTestService(t *testing.T, clock *testClock) *Service {
	t.Helper()
	return newTestServiceWithAuthorizer(t, clock, allowAllAuthorizer())
}

func newTestServiceWithAuthorizer(t *testing.T, clock *testClock, authorizer Authorizer) *Service {
	t.Helper()
	service, err := NewService(ServiceConfig{
		Database:   openTestDatabase(t),
		Clock:      clock.Now,
		Authorizer: authorizer,
		IDProvider: NewUUIDProvider(),
	})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return service
}

func mustAccountID(t *testing.T, value string) AccountID {
	t.Helper()
	id, err := NewAccountID(value)
	if err != nil {
		t.Fatalf("unexpected account id error: %v", err)
	}
	return id
}

func mustMint(t *testing.T, service *Service, req MintRequest) uint32 {
	t.Helper()
	tokenID, err := service.SafeMint(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected mint error: %v", err)
	}
	return tokenID
}
