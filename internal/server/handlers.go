package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/petaldocs/docsign/internal/ledger"
	"go.uber.org/zap"
)

type tokenExchangePayload struct {
	IDToken string `json:"id_token"`
}

type tokenResponsePayload struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
	AccountID   string `json:"account_id"`
}

func (h *httpHandler) handleTokenExchange(c *gin.Context) {
	var request tokenExchangePayload
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.IDToken) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	claims, err := h.verifier.Verify(c.Request.Context(), request.IDToken)
	if err != nil {
		h.logger.Warn("id token verification failed", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	account, err := h.accounts.ResolveAccountID(claims)
	if err != nil {
		h.logger.Error("account resolution failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "account_resolution_failed"})
		return
	}

	token, expiresIn, err := h.tokens.IssueSignerToken(c.Request.Context(), account)
	if err != nil {
		h.logger.Error("failed to issue signer token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token_issue_failed"})
		return
	}

	c.JSON(http.StatusOK, tokenResponsePayload{
		AccessToken: token,
		ExpiresIn:   expiresIn,
		TokenType:   "Bearer",
		AccountID:   account,
	})
}

type initRequestPayload struct {
	Admin string `json:"admin"`
	// TokenID is accepted for contract compatibility and has no effect.
	TokenID uint32 `json:"token_id"`
}

func (h *httpHandler) handleInit(c *gin.Context) {
	var request initRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	admin, err := ledger.NewAccountID(request.Admin)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_admin"})
		return
	}
	if err := h.ledger.Init(c.Request.Context(), admin, request.TokenID); err != nil {
		h.respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"admin": admin.String()})
}

func (h *httpHandler) handleGetAdmin(c *gin.Context) {
	admin, err := h.ledger.Admin(c.Request.Context())
	if err != nil {
		h.respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"admin": admin.String()})
}

type mintRequestPayload struct {
	To           string   `json:"to"`
	TokenID      uint32   `json:"token_id"`
	MetaURI      string   `json:"meta_uri"`
	Signers      []string `json:"signers"`
	DocumentHash string   `json:"document_hash"`
	Deadline     uint64   `json:"deadline"`
}

func (h *httpHandler) handleMint(c *gin.Context) {
	var request mintRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	to, err := ledger.NewAccountID(request.To)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_recipient"})
		return
	}

	signers := make([]ledger.AccountID, 0, len(request.Signers))
	for _, raw := range request.Signers {
		signer, err := ledger.NewAccountID(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_signer"})
			return
		}
		signers = append(signers, signer)
	}

	tokenID, err := h.ledger.SafeMint(c.Request.Context(), ledger.MintRequest{
		To:           to,
		TokenID:      request.TokenID,
		MetaURI:      request.MetaURI,
		Signers:      signers,
		DocumentHash: request.DocumentHash,
		Deadline:     request.Deadline,
	})
	if err != nil {
		h.respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token_id": tokenID})
}

type signRequestPayload struct {
	DocumentHash string `json:"document_hash"`
	Signer       string `json:"signer"`
	Status       string `json:"status"`
}

func (h *httpHandler) handleSign(c *gin.Context) {
	tokenID, ok := tokenIDParam(c)
	if !ok {
		return
	}

	var request signRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	signer, err := ledger.NewAccountID(request.Signer)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_signer"})
		return
	}

	status, err := ledger.ParseStatus(request.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_status"})
		return
	}

	documents, err := h.ledger.SignDocument(c.Request.Context(), ledger.SignRequest{
		DocumentHash: request.DocumentHash,
		Signer:       signer,
		Status:       status,
		TokenID:      tokenID,
	})
	if err != nil {
		h.respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": documents})
}

func (h *httpHandler) handleGetOwners(c *gin.Context) {
	owners, err := h.ledger.Owners(c.Request.Context())
	if err != nil {
		h.respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"owners": owners})
}

func (h *httpHandler) handleGetTokenURIs(c *gin.Context) {
	uris, err := h.ledger.TokenURIs(c.Request.Context())
	if err != nil {
		h.respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"uris": uris})
}

func (h *httpHandler) handleGetTokenURI(c *gin.Context) {
	tokenID, ok := tokenIDParam(c)
	if !ok {
		return
	}
	uri, err := h.ledger.TokenURI(c.Request.Context(), tokenID)
	if err != nil {
		h.respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token_id": tokenID, "uri": uri})
}

func (h *httpHandler) handleGetDocumentHashes(c *gin.Context) {
	hashes, err := h.ledger.DocumentHashes(c.Request.Context())
	if err != nil {
		h.respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hashes": hashes})
}

func (h *httpHandler) handleGetDeadlines(c *gin.Context) {
	deadlines, err := h.ledger.Deadlines(c.Request.Context())
	if err != nil {
		h.respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deadlines": deadlines})
}

func (h *httpHandler) handleGetDocuments(c *gin.Context) {
	documents, err := h.ledger.Documents(c.Request.Context())
	if err != nil {
		h.respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": documents})
}

func (h *httpHandler) handleGetDocument(c *gin.Context) {
	tokenID, ok := tokenIDParam(c)
	if !ok {
		return
	}
	document, err := h.ledger.Document(c.Request.Context(), tokenID)
	if err != nil {
		h.respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token_id": tokenID, "document": document})
}

func (h *httpHandler) handleGetNonce(c *gin.Context) {
	account, err := ledger.NewAccountID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_account"})
		return
	}
	nonce, err := h.ledger.Nonce(c.Request.Context(), account)
	if err != nil {
		h.respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": account.String(), "nonce": nonce})
}

func (h *httpHandler) handleBumpDebugCounter(c *gin.Context) {
	value, err := h.ledger.BumpDebugCounter(c.Request.Context())
	if err != nil {
		h.respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"value": value})
}

func (h *httpHandler) handleGetDebugCounter(c *gin.Context) {
	value, err := h.ledger.DebugCounter(c.Request.Context())
	if err != nil {
		h.respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"value": value})
}

func tokenIDParam(c *gin.Context) (uint32, bool) {
	raw := c.Param("id")
	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_token_id"})
		return 0, false
	}
	return uint32(value), true
}
