// Package transactiondelivery manages delivery layer of transactions.
package transactiondelivery

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/finvault/corebank/internal/domain"
	"github.com/finvault/corebank/internal/transactionservice"
	"github.com/finvault/corebank/pkg/errorspkg"
	"github.com/finvault/corebank/pkg/web"
)

// Processor provides the service layer interface needed by the transaction
// delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package transactiondelivery
type Processor interface {
	ProcessTransfer(ctx context.Context, arg transactionservice.Params) (domain.Transaction, error)
	ProcessDeposit(ctx context.Context, arg transactionservice.Params) (domain.Transaction, error)
	ProcessWithdrawal(ctx context.Context, arg transactionservice.Params) (domain.Transaction, error)
	ProcessPayment(ctx context.Context, arg transactionservice.Params) (domain.Transaction, error)
	ProcessFee(ctx context.Context, arg transactionservice.Params) (domain.Transaction, error)
	ProcessInterest(ctx context.Context, arg transactionservice.Params) (domain.Transaction, error)
	ProcessAdjustment(ctx context.Context, arg transactionservice.AdjustmentParams) (domain.Transaction, error)
	ReverseTransaction(ctx context.Context, originalID, reference string) (domain.Transaction, error)
	Get(ctx context.Context, id string) (domain.Transaction, error)
}

// Handler facilitates transaction delivery layer logic.
type Handler struct {
	processor Processor
}

// NewHandler returns transaction handler.
func NewHandler(p Processor) Handler {
	return Handler{processor: p}
}

func bindErrorMsg(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		field := ve[0]
		return field.Field() + web.GetErrorMsg(field)
	}

	return "invalid request"
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrTransactionNotFound),
		errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrValidationFailed),
		errors.Is(err, domain.ErrInvalidAmount):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrTransactionAlreadyProcessed),
		errors.Is(err, domain.ErrTransactionNotReversible),
		errors.Is(err, domain.ErrInvalidTransactionState),
		errors.Is(err, domain.ErrStaleBalanceVersion):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(err error) web.Response {
	if errorStatus(err) == http.StatusInternalServerError {
		err = errorspkg.ErrInternal
	}

	res := web.Response{Code: domain.ErrorCode(err), Error: err.Error()}

	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		res.Violations = vErr.Violations
	}

	return res
}

type transactionData struct {
	Transaction domain.Transaction `json:"transaction"`
}

type moneyRequest struct {
	SourceAccountID      string `json:"source_account_id"`
	DestinationAccountID string `json:"destination_account_id"`
	Amount               string `json:"amount" binding:"required"`
	Currency             string `json:"currency" binding:"required,currency"`
	Reference            string `json:"reference" binding:"required"`
	IdempotencyKey       string `json:"idempotency_key"`
}

func (h *Handler) bindParams(gctx *gin.Context) (transactionservice.Params, bool) {
	l := zerolog.Ctx(gctx)

	var req moneyRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: bindErrorMsg(err)})

		return transactionservice.Params{}, false
	}

	amount, err := domain.MoneyFromDecimal(req.Amount, req.Currency)
	if err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, errorBody(err))

		return transactionservice.Params{}, false
	}

	return transactionservice.Params{
		SourceAccountID:      req.SourceAccountID,
		DestinationAccountID: req.DestinationAccountID,
		Amount:               amount,
		Reference:            req.Reference,
		IdempotencyKey:       req.IdempotencyKey,
	}, true
}

func (h *Handler) respond(gctx *gin.Context, tx domain.Transaction, err error) {
	if err != nil {
		gctx.JSON(errorStatus(err), errorBody(err))
		return
	}

	gctx.JSON(http.StatusCreated, web.Response{Data: transactionData{tx}})
}

// CreateTransfer handles http request to move money between two accounts.
func (h *Handler) CreateTransfer(gctx *gin.Context) {
	arg, ok := h.bindParams(gctx)
	if !ok {
		return
	}

	tx, err := h.processor.ProcessTransfer(gctx.Request.Context(), arg)
	h.respond(gctx, tx, err)
}

// CreateDeposit handles http request to credit money into an account.
func (h *Handler) CreateDeposit(gctx *gin.Context) {
	arg, ok := h.bindParams(gctx)
	if !ok {
		return
	}

	tx, err := h.processor.ProcessDeposit(gctx.Request.Context(), arg)
	h.respond(gctx, tx, err)
}

// CreateWithdrawal handles http request to debit money out of an account.
func (h *Handler) CreateWithdrawal(gctx *gin.Context) {
	arg, ok := h.bindParams(gctx)
	if !ok {
		return
	}

	tx, err := h.processor.ProcessWithdrawal(gctx.Request.Context(), arg)
	h.respond(gctx, tx, err)
}

// CreatePayment handles http request to settle a payment from an account.
func (h *Handler) CreatePayment(gctx *gin.Context) {
	arg, ok := h.bindParams(gctx)
	if !ok {
		return
	}

	tx, err := h.processor.ProcessPayment(gctx.Request.Context(), arg)
	h.respond(gctx, tx, err)
}

// CreateFee handles http request to charge a fee to an account.
func (h *Handler) CreateFee(gctx *gin.Context) {
	arg, ok := h.bindParams(gctx)
	if !ok {
		return
	}

	tx, err := h.processor.ProcessFee(gctx.Request.Context(), arg)
	h.respond(gctx, tx, err)
}

// CreateInterest handles http request to credit interest to an account.
func (h *Handler) CreateInterest(gctx *gin.Context) {
	arg, ok := h.bindParams(gctx)
	if !ok {
		return
	}

	tx, err := h.processor.ProcessInterest(gctx.Request.Context(), arg)
	h.respond(gctx, tx, err)
}

type adjustmentRequest struct {
	AccountID      string `json:"account_id" binding:"required"`
	Amount         string `json:"amount" binding:"required"`
	Currency       string `json:"currency" binding:"required,currency"`
	Reference      string `json:"reference" binding:"required"`
	IdempotencyKey string `json:"idempotency_key"`
}

// CreateAdjustment handles http request to post a signed manual correction.
func (h *Handler) CreateAdjustment(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(gctx)

	var req adjustmentRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: bindErrorMsg(err)})

		return
	}

	amount, err := domain.MoneyFromDecimal(req.Amount, req.Currency)
	if err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, errorBody(err))

		return
	}

	tx, err := h.processor.ProcessAdjustment(ctx, transactionservice.AdjustmentParams{
		AccountID:      req.AccountID,
		Amount:         amount,
		Reference:      req.Reference,
		IdempotencyKey: req.IdempotencyKey,
	})
	h.respond(gctx, tx, err)
}

type uriRequest struct {
	ID string `uri:"id" binding:"required"`
}

type reverseRequest struct {
	Reference string `json:"reference"`
}

// Reverse handles http request to reverse a completed transaction.
func (h *Handler) Reverse(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(gctx)

	var uri uriRequest
	if err := gctx.ShouldBindUri(&uri); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: bindErrorMsg(err)})

		return
	}

	var req reverseRequest
	if gctx.Request.ContentLength > 0 {
		if err := gctx.ShouldBindJSON(&req); err != nil {
			l.Info().Err(err).Send()
			gctx.JSON(http.StatusBadRequest, web.Response{Error: bindErrorMsg(err)})

			return
		}
	}

	tx, err := h.processor.ReverseTransaction(ctx, uri.ID, req.Reference)
	h.respond(gctx, tx, err)
}

// Get handles http request to fetch one transaction.
func (h *Handler) Get(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(gctx)

	var req uriRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: bindErrorMsg(err)})

		return
	}

	tx, err := h.processor.Get(ctx, req.ID)
	if err != nil {
		gctx.JSON(errorStatus(err), errorBody(err))
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: transactionData{tx}})
}
