package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/petaldocs/docsign/internal/auth"
	"github.com/petaldocs/docsign/internal/events"
	"github.com/petaldocs/docsign/internal/ledger"
	"go.uber.org/zap"
)

const accountContextKey = "docsign_account_id"

var (
	errMissingTokenManager  = errors.New("token manager dependency required")
	errMissingLedger        = errors.New("ledger service dependency required")
	errInvalidAuthorization = errors.New("authorization header missing or invalid")
)

// IdentityVerifier verifies external identity-provider ID tokens.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (auth.IdentityClaims, error)
}

// AccountResolver maps verified identity claims to a ledger account id.
type AccountResolver interface {
	ResolveAccountID(claims auth.IdentityClaims) (string, error)
}

// SignerTokenManager issues and validates signer bearer tokens.
type SignerTokenManager interface {
	IssueSignerToken(ctx context.Context, account string) (string, int64, error)
	ValidateToken(token string) (string, error)
}

// Dependencies carries the collaborators of the HTTP surface. Verifier and
// Accounts are optional: without them the token exchange route is not mounted.
type Dependencies struct {
	Verifier   IdentityVerifier
	Accounts   AccountResolver
	Tokens     SignerTokenManager
	Ledger     *ledger.Service
	Dispatcher *events.Dispatcher
	Logger     *zap.Logger
}

// NewHTTPHandler assembles the gin router for the ledger API.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Tokens == nil {
		return nil, errMissingTokenManager
	}
	if deps.Ledger == nil {
		return nil, errMissingLedger
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		verifier:   deps.Verifier,
		accounts:   deps.Accounts,
		tokens:     deps.Tokens,
		ledger:     deps.Ledger,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}

	if deps.Verifier != nil && deps.Accounts != nil {
		router.POST("/auth/token", handler.handleTokenExchange)
	}

	router.POST("/init", handler.handleInit)
	router.GET("/admin", handler.handleGetAdmin)
	router.GET("/owners", handler.handleGetOwners)
	router.GET("/uris", handler.handleGetTokenURIs)
	router.GET("/tokens/:id/uri", handler.handleGetTokenURI)
	router.GET("/documents", handler.handleGetDocuments)
	router.GET("/hashes", handler.handleGetDocumentHashes)
	router.GET("/deadlines", handler.handleGetDeadlines)
	router.GET("/documents/:id", handler.handleGetDocument)
	router.GET("/accounts/:id/nonce", handler.handleGetNonce)
	router.POST("/debug/counter", handler.handleBumpDebugCounter)
	router.GET("/debug/counter", handler.handleGetDebugCounter)

	protected := router.Group("/")
	protected.Use(handler.authorizeRequest)
	protected.POST("/tokens", handler.handleMint)
	protected.POST("/tokens/:id/signatures", handler.handleSign)
	if deps.Dispatcher != nil {
		protected.GET("/events/stream", handler.handleEventStream)
	}

	return router, nil
}

type httpHandler struct {
	verifier   IdentityVerifier
	accounts   AccountResolver
	tokens     SignerTokenManager
	ledger     *ledger.Service
	dispatcher *events.Dispatcher
	logger     *zap.Logger
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	account, err := h.tokens.ValidateToken(token)
	if err != nil {
		// Expired tokens are routine client behavior, not a server concern.
		if errors.Is(err, jwt.ErrTokenExpired) {
			h.logger.Info("token validation failed", zap.Error(err))
		} else {
			h.logger.Warn("token validation failed", zap.Error(err))
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Set(accountContextKey, account)
	c.Request = c.Request.WithContext(auth.ContextWithAccount(c.Request.Context(), account))
	c.Next()
}

// bearerToken reads the Authorization header, falling back to the
// access_token query parameter for EventSource clients.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return strings.TrimSpace(c.Query("access_token"))
}

// respondLedgerError translates ledger failures into stable HTTP responses.
// Coded failures keep their contract code in the body.
func (h *httpHandler) respondLedgerError(c *gin.Context, err error) {
	if code, ok := ledger.CodeOf(err); ok {
		var ledgerErr *ledger.Error
		errors.As(err, &ledgerErr)
		c.JSON(httpStatusForCode(code), gin.H{"error": ledgerErr.Name(), "code": uint32(code)})
		return
	}

	switch {
	case errors.Is(err, ledger.ErrAlreadyInitialized):
		c.JSON(http.StatusConflict, gin.H{"error": "already_initialized"})
	case errors.Is(err, ledger.ErrNotInitialized):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_initialized"})
	case errors.Is(err, ledger.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "signer_auth_failed"})
	case errors.Is(err, ledger.ErrInvalidStatus), errors.Is(err, ledger.ErrInvalidAccountID):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
	default:
		h.logger.Error("ledger operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}

func httpStatusForCode(code ledger.Code) int {
	switch code {
	case ledger.CodeTokenNotMinted, ledger.CodeHashNotFound,
		ledger.CodeDeadlineNotFound, ledger.CodeTokenDoesNotExist:
		return http.StatusNotFound
	case ledger.CodeNotASigner, ledger.CodeSignerDoesNotExist:
		return http.StatusForbidden
	case ledger.CodeAlreadySigned, ledger.CodeTokenAlreadyMinted,
		ledger.CodeDeadlinePassed, ledger.CodeSignatureExpired:
		return http.StatusConflict
	case ledger.CodeSignersListEmpty:
		return http.StatusBadRequest
	case ledger.CodeDocumentSigningsIsEmpty, ledger.CodeDocumentHashesIsEmpty,
		ledger.CodeDeadlinesIsEmpty:
		return http.StatusInternalServerError
	case ledger.CodeDocumentHashMismatch:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
