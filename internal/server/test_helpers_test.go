package server

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/petaldocs/docsign/internal/accounts"
	"github.com/petaldocs/docsign/internal/auth"
	"github.com/petaldocs/docsign/internal/events"
	"github.com/petaldocs/docsign/internal/ledger"
)

const testSigningSecret = "server-test-secret"

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(unixSeconds int64) *testClock {
	return &testClock{now: time.Unix(unixSeconds, 0).UTC()}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(unixSeconds int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = time.Unix(unixSeconds, 0).UTC()
}

type testEnvironment struct {
	handler    http.Handler
	ledger     *ledger.Service
	issuer     *auth.TokenIssuer
	dispatcher *events.Dispatcher
	clock      *testClock
}

func openLedgerDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(
		&ledger.TokenOwner{},
		&ledger.TokenURI{},
		&ledger.DocumentHash{},
		&ledger.DocumentDeadline{},
		&ledger.DocumentSigner{},
		&ledger.SignerNonce{},
		&ledger.AdminRecord{},
		&ledger.DebugCounter{},
		&ledger.SignatureEvent{},
		&accounts.Account{},
	); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	return db
}

func newTestEnvironment(t *testing.T) *testEnvironment {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clock := newTestClock(500)
	dispatcher := events.NewDispatcher()

	ledgerService, err := ledger.NewService(ledger.ServiceConfig{
		Database:   openLedgerDatabase(t),
		Clock:      clock.Now,
		Authorizer: auth.NewPrincipalAuthorizer(),
		Events:     events.NewLedgerSink(dispatcher),
		IDProvider: ledger.NewUUIDProvider(),
	})
	if err != nil {
		t.Fatalf("failed to build ledger service: %v", err)
	}

	issuer, err := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte(testSigningSecret),
		Issuer:        "docsign-auth",
		Audience:      "docsign-api",
		TokenTTL:      time.Hour,
	})
	if err != nil {
		t.Fatalf("failed to build token issuer: %v", err)
	}

	handler, err := NewHTTPHandler(Dependencies{
		Tokens:     issuer,
		Ledger:     ledgerService,
		Dispatcher: dispatcher,
	})
	if err != nil {
		t.Fatalf("failed to build http handler: %v", err)
	}

	return &testEnvironment{
		handler:    handler,
		ledger:     ledgerService,
		issuer:     issuer,
		dispatcher: dispatcher,
		clock:      clock,
	}
}

func (env *testEnvironment) bearerToken(t *testing.T, account string) string {
	t.Helper()
	token, _, err := env.issuer.IssueSignerToken(context.Background(), account)
	if err != nil {
		t.Fatalf("failed to issue signer token: %v", err)
	}
	return "Bearer " + token
}

func (env *testEnvironment) mintDocument(t *testing.T, tokenID uint32, signers ...string) {
	t.Helper()
	accountIDs := make([]ledger.AccountID, 0, len(signers))
	for _, raw := range signers {
		signer, err := ledger.NewAccountID(raw)
		if err != nil {
			t.Fatalf("invalid signer %q: %v", raw, err)
		}
		accountIDs = append(accountIDs, signer)
	}
	owner, err := ledger.NewAccountID("owner-account")
	if err != nil {
		t.Fatalf("invalid owner: %v", err)
	}
	if _, err := env.ledger.SafeMint(context.Background(), ledger.MintRequest{
		To:           owner,
		TokenID:      tokenID,
		MetaURI:      "ipfs://meta/doc",
		Signers:      accountIDs,
		DocumentHash: "hash-1",
		Deadline:     1000,
	}); err != nil {
		t.Fatalf("failed to mint document: %v", err)
	}
}
