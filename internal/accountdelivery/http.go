// Package accountdelivery manages delivery layer of accounts.
package accountdelivery

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/finvault/corebank/internal/domain"
	"github.com/finvault/corebank/pkg/errorspkg"
	"github.com/finvault/corebank/pkg/web"
)

// AccountStore provides the account persistence interface needed by the
// account delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package accountdelivery
type AccountStore interface {
	Create(ctx context.Context, owner, currency string, overdraftLimit int64) (domain.Account, error)
	Get(ctx context.Context, id string) (domain.Account, error)
	SetStatus(ctx context.Context, id string, status domain.AccountStatus) (domain.Account, error)
}

// BalanceStore provides the balance persistence interface needed by the
// account delivery layer.
type BalanceStore interface {
	Init(ctx context.Context, accountID, currency string) (domain.Balance, error)
	Get(ctx context.Context, accountID string) (domain.Balance, error)
}

// Ledger provides the ledger queries needed by the account delivery layer.
type Ledger interface {
	Statement(ctx context.Context, accountID string, from, to time.Time) ([]domain.Entry, error)
	Reconcile(ctx context.Context, accountID string) (domain.Reconciliation, error)
}

// Handler facilitates account delivery layer logic.
type Handler struct {
	accounts AccountStore
	balances BalanceStore
	ledger   Ledger
}

// NewHandler returns account handler.
func NewHandler(accounts AccountStore, balances BalanceStore, ledger Ledger) Handler {
	return Handler{accounts: accounts, balances: balances, ledger: ledger}
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
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrBalanceNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrValidationFailed),
		errors.Is(err, domain.ErrInvalidAmount):
		return http.StatusBadRequest
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

type createRequest struct {
	Owner          string `json:"owner" binding:"required"`
	Currency       string `json:"currency" binding:"required,currency"`
	OverdraftLimit int64  `json:"overdraft_limit" binding:"min=0"`
}

type accountData struct {
	Account domain.Account `json:"account"`
	Balance domain.Balance `json:"balance"`
}

// Create handles http request to open an account with a zero balance record.
func (h *Handler) Create(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(gctx)

	var req createRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: bindErrorMsg(err)})

		return
	}

	account, err := h.accounts.Create(ctx, req.Owner, req.Currency, req.OverdraftLimit)
	if err != nil {
		gctx.JSON(errorStatus(err), errorBody(err))
		return
	}

	balance, err := h.balances.Init(ctx, account.ID, account.Currency)
	if err != nil {
		gctx.JSON(errorStatus(err), errorBody(err))
		return
	}

	gctx.JSON(http.StatusCreated, web.Response{Data: accountData{Account: account, Balance: balance}})
}

type uriRequest struct {
	ID string `uri:"id" binding:"required"`
}

// Get handles http request to get one account.
func (h *Handler) Get(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(gctx)

	var req uriRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: bindErrorMsg(err)})

		return
	}

	account, err := h.accounts.Get(ctx, req.ID)
	if err != nil {
		gctx.JSON(errorStatus(err), errorBody(err))
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: account})
}

type setStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=ACTIVE FROZEN CLOSED"`
}

// SetStatus handles http request to freeze, unfreeze or close an account.
func (h *Handler) SetStatus(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(gctx)

	var uri uriRequest
	if err := gctx.ShouldBindUri(&uri); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: bindErrorMsg(err)})

		return
	}

	var req setStatusRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: bindErrorMsg(err)})

		return
	}

	account, err := h.accounts.SetStatus(ctx, uri.ID, domain.AccountStatus(req.Status))
	if err != nil {
		gctx.JSON(errorStatus(err), errorBody(err))
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: account})
}

// GetBalance handles http request to read the stored balance record.
func (h *Handler) GetBalance(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(gctx)

	var req uriRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: bindErrorMsg(err)})

		return
	}

	balance, err := h.balances.Get(ctx, req.ID)
	if err != nil {
		gctx.JSON(errorStatus(err), errorBody(err))
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: balance})
}

type statementRequest struct {
	From time.Time `form:"from" time_format:"2006-01-02"`
	To   time.Time `form:"to" time_format:"2006-01-02"`
}

type statementData struct {
	AccountID string         `json:"account_id"`
	Entries   []domain.Entry `json:"entries"`
}

// GetStatement handles http request for the account statement over a date
// range. An omitted bound means unbounded on that side.
func (h *Handler) GetStatement(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(gctx)

	var uri uriRequest
	if err := gctx.ShouldBindUri(&uri); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: bindErrorMsg(err)})

		return
	}

	var req statementRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: bindErrorMsg(err)})

		return
	}

	if req.To.IsZero() {
		req.To = time.Now().UTC()
	}

	entries, err := h.ledger.Statement(ctx, uri.ID, req.From, req.To)
	if err != nil {
		gctx.JSON(errorStatus(err), errorBody(err))
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: statementData{AccountID: uri.ID, Entries: entries}})
}

// Reconcile handles http request to compare the stored balance against the
// ledger-derived balance.
func (h *Handler) Reconcile(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(gctx)

	var req uriRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: bindErrorMsg(err)})

		return
	}

	report, err := h.ledger.Reconcile(ctx, req.ID)
	if err != nil {
		gctx.JSON(errorStatus(err), errorBody(err))
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: report})
}
