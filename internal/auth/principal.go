package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/petaldocs/docsign/internal/ledger"
)

type principalContextKey struct{}

var (
	// ErrNoPrincipal indicates the request context carries no authenticated account.
	ErrNoPrincipal = errors.New("auth: no authenticated account in context")
	// ErrPrincipalMismatch indicates the authenticated account is not the named signer.
	ErrPrincipalMismatch = errors.New("auth: authenticated account is not the requested signer")
)

// ContextWithAccount returns a context carrying the authenticated account id.
func ContextWithAccount(ctx context.Context, account string) context.Context {
	return context.WithValue(ctx, principalContextKey{}, account)
}

// AccountFromContext extracts the authenticated account id, if any.
func AccountFromContext(ctx context.Context) (string, bool) {
	account, ok := ctx.Value(principalContextKey{}).(string)
	if !ok || account == "" {
		return "", false
	}
	return account, true
}

// PrincipalAuthorizer authorizes ledger operations by matching the signer an
// operation names against the authenticated account in the request context.
type PrincipalAuthorizer struct{}

// NewPrincipalAuthorizer constructs the context-backed authorizer.
func NewPrincipalAuthorizer() *PrincipalAuthorizer {
	return &PrincipalAuthorizer{}
}

// RequireAuth implements ledger.Authorizer.
func (a *PrincipalAuthorizer) RequireAuth(ctx context.Context, signer ledger.AccountID) error {
	account, ok := AccountFromContext(ctx)
	if !ok {
		return ErrNoPrincipal
	}
	if account != signer.String() {
		return fmt.Errorf("%w: %s", ErrPrincipalMismatch, signer.String())
	}
	return nil
}
