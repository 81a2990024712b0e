// Package ledgerdelivery manages delivery layer of ledger queries.
package ledgerdelivery

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/finvault/corebank/internal/domain"
	"github.com/finvault/corebank/pkg/errorspkg"
	"github.com/finvault/corebank/pkg/web"
)

// Service provides the ledger service interface needed by the ledger
// delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package ledgerdelivery
type Service interface {
	VerifyLedgerBalance(ctx context.Context) error
	EntriesByTransaction(ctx context.Context, transactionID string) ([]domain.Entry, error)
	CalculateBalance(ctx context.Context, accountID string) (domain.AccountBalance, error)
}

// Handler facilitates ledger delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns ledger handler.
func NewHandler(s Service) Handler {
	return Handler{service: s}
}

type verifyData struct {
	Balanced bool   `json:"balanced"`
	Detail   string `json:"detail,omitempty"`
}

// Verify handles http request to check that the whole ledger balances to
// zero per currency.
func (h *Handler) Verify(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	if err := h.service.VerifyLedgerBalance(ctx); err != nil {
		if errors.Is(err, domain.ErrDoubleEntryViolation) {
			gctx.JSON(http.StatusConflict, web.Response{
				Code: domain.ErrorCode(err),
				Data: verifyData{Balanced: false, Detail: err.Error()},
			})

			return
		}

		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: verifyData{Balanced: true}})
}

type uriRequest struct {
	ID string `uri:"id" binding:"required"`
}

type entriesData struct {
	TransactionID string         `json:"transaction_id"`
	Entries       []domain.Entry `json:"entries"`
}

// EntriesByTransaction handles http request to list the postings of one
// transaction.
func (h *Handler) EntriesByTransaction(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(gctx)

	var req uriRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Error(err))

		return
	}

	entries, err := h.service.EntriesByTransaction(ctx, req.ID)
	if err != nil {
		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: entriesData{TransactionID: req.ID, Entries: entries}})
}

// AccountBalance handles http request for the ledger-derived balance of one
// account, counter-accounts included.
func (h *Handler) AccountBalance(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(gctx)

	var req uriRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Error(err))

		return
	}

	balance, err := h.service.CalculateBalance(ctx, req.ID)
	if err != nil {
		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: balance})
}
