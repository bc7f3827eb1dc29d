package ledger

import (
	"context"
	"errors"
	"testing"
)

func TestInitEstablishesAdminOnce(t *testing.T) {
	clock := newTestClock(100)
	service := newTestService(t, clock)

	admin := mustAccountID(t, "admin-account")
	if err := service.Init(context.Background(), admin, 0); err != nil {
		t.Fatalf("unexpected init error: %v", err)
	}

	stored, err := service.Admin(context.Background())
	if err != nil {
		t.Fatalf("unexpected admin error: %v", err)
	}
	if stored != admin {
		t.Fatalf("expected admin %q, got %q", admin, stored)
	}

	other := mustAccountID(t, "other-account")
	err = service.Init(context.Background(), other, 0)
	if !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("expected ErrAlreadyInitialized, got %v", err)
	}

	stored, err = service.Admin(context.Background())
	if err != nil {
		t.Fatalf("unexpected admin error: %v", err)
	}
	if stored != admin {
		t.Fatalf("second init must not replace admin, got %q", stored)
	}
}

func TestAdminBeforeInitFails(t *testing.T) {
	service := newTestService(t, newTestClock(100))

	_, err := service.Admin(context.Background())
	if !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}

func TestInitIgnoresTokenIDParameter(t *testing.T) {
	service := newTestService(t, newTestClock(100))

	admin := mustAccountID(t, "admin-account")
	if err := service.Init(context.Background(), admin, 42); err != nil {
		t.Fatalf("unexpected init error: %v", err)
	}

	owners, err := service.Owners(context.Background())
	if err != nil {
		t.Fatalf("unexpected owners error: %v", err)
	}
	if len(owners) != 0 {
		t.Fatalf("init must not touch the token registry, got %v", owners)
	}
}

func TestDebugCounterStartsAtZeroAndIncrements(t *testing.T) {
	service := newTestService(t, newTestClock(100))

	value, err := service.DebugCounter(context.Background())
	if err != nil {
		t.Fatalf("unexpected counter error: %v", err)
	}
	if value != 0 {
		t.Fatalf("expected zero counter, got %d", value)
	}

	for i := uint32(1); i <= 3; i++ {
		bumped, err := service.BumpDebugCounter(context.Background())
		if err != nil {
			t.Fatalf("unexpected bump error: %v", err)
		}
		if bumped != i {
			t.Fatalf("expected counter %d, got %d", i, bumped)
		}
	}

	value, err = service.DebugCounter(context.Background())
	if err != nil {
		t.Fatalf("unexpected counter error: %v", err)
	}
	if value != 3 {
		t.Fatalf("expected counter 3, got %d", value)
	}
}

func TestNewServiceRequiresDatabase(t *testing.T) {
	_, err := NewService(ServiceConfig{IDProvider: NewUUIDProvider()})
	if err == nil {
		t.Fatalf("expected error for missing database")
	}
}

func TestNewServiceRequiresIDProvider(t *testing.T) {
	_, err := NewService(ServiceConfig{Database: openTestDatabase(t)})
	if err == nil {
		t.Fatalf("expected error for missing id provider")
	}
}
