package accountdelivery

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/finvault/corebank/internal/domain"
	"github.com/finvault/corebank/pkg/currencypkg"
	"github.com/finvault/corebank/pkg/errorspkg"
	"github.com/finvault/corebank/pkg/randompkg"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := v.RegisterValidation("currency", currencypkg.ValidCurrency); err != nil {
			panic(err)
		}
	}

	os.Exit(m.Run())
}

func newTestRouter(h Handler) *gin.Engine {
	router := gin.New()
	router.POST("/accounts", h.Create)
	router.GET("/accounts/:id", h.Get)
	router.PATCH("/accounts/:id/status", h.SetStatus)
	router.GET("/accounts/:id/balance", h.GetBalance)
	router.GET("/accounts/:id/statement", h.GetStatement)
	router.GET("/accounts/:id/reconcile", h.Reconcile)

	return router
}

func randomAccount() domain.Account {
	return domain.Account{
		ID:             uuid.NewString(),
		Owner:          randompkg.Owner(),
		Currency:       currencypkg.USD,
		Status:         domain.AccountActive,
		OverdraftLimit: domain.Money{Currency: currencypkg.USD},
		CreatedAt:      time.Now().Truncate(time.Second).UTC(),
	}
}

func TestCreate(t *testing.T) {
	account := randomAccount()

	testCases := []struct {
		name          string
		body          gin.H
		buildStubs    func(accounts *MockAccountStore, balances *MockBalanceStore)
		checkResponse func(t *testing.T, recorder *httptest.ResponseRecorder)
	}{
		{
			name: "OK",
			body: gin.H{"owner": account.Owner, "currency": account.Currency},
			buildStubs: func(accounts *MockAccountStore, balances *MockBalanceStore) {
				accounts.EXPECT().
					Create(gomock.Any(), account.Owner, account.Currency, int64(0)).
					Return(account, nil)

				balances.EXPECT().
					Init(gomock.Any(), account.ID, account.Currency).
					Return(domain.NewBalance(account.ID, account.Currency), nil)
			},
			checkResponse: func(t *testing.T, recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusCreated, recorder.Code)

				var got struct {
					Data accountData `json:"data"`
				}
				require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
				require.Equal(t, account.ID, got.Data.Account.ID)
				require.Equal(t, account.ID, got.Data.Balance.AccountID)
				require.True(t, got.Data.Balance.Available.IsZero())
			},
		},
		{
			name:          "MissingOwner",
			body:          gin.H{"currency": account.Currency},
			buildStubs:    func(accounts *MockAccountStore, balances *MockBalanceStore) {},
			checkResponse: func(t *testing.T, recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusBadRequest, recorder.Code)
			},
		},
		{
			name:          "UnsupportedCurrency",
			body:          gin.H{"owner": account.Owner, "currency": "XTS"},
			buildStubs:    func(accounts *MockAccountStore, balances *MockBalanceStore) {},
			checkResponse: func(t *testing.T, recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusBadRequest, recorder.Code)
			},
		},
		{
			name: "InternalError",
			body: gin.H{"owner": account.Owner, "currency": account.Currency},
			buildStubs: func(accounts *MockAccountStore, balances *MockBalanceStore) {
				accounts.EXPECT().
					Create(gomock.Any(), account.Owner, account.Currency, int64(0)).
					Return(domain.Account{}, errorspkg.ErrInternal)
			},
			checkResponse: func(t *testing.T, recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusInternalServerError, recorder.Code)
			},
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			accounts := NewMockAccountStore(ctrl)
			balances := NewMockBalanceStore(ctrl)
			ledger := NewMockLedger(ctrl)
			tc.buildStubs(accounts, balances)

			router := newTestRouter(NewHandler(accounts, balances, ledger))

			body, err := json.Marshal(tc.body)
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodPost, "/accounts", bytes.NewReader(body))
			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, req)

			tc.checkResponse(t, recorder)
		})
	}
}

func TestGet(t *testing.T) {
	account := randomAccount()

	testCases := []struct {
		name          string
		id            string
		buildStubs    func(accounts *MockAccountStore)
		checkResponse func(t *testing.T, recorder *httptest.ResponseRecorder)
	}{
		{
			name: "OK",
			id:   account.ID,
			buildStubs: func(accounts *MockAccountStore) {
				accounts.EXPECT().Get(gomock.Any(), account.ID).Return(account, nil)
			},
			checkResponse: func(t *testing.T, recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusOK, recorder.Code)
			},
		},
		{
			name: "NotFound",
			id:   "missing",
			buildStubs: func(accounts *MockAccountStore) {
				accounts.EXPECT().Get(gomock.Any(), "missing").Return(domain.Account{}, domain.ErrAccountNotFound)
			},
			checkResponse: func(t *testing.T, recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusNotFound, recorder.Code)
				require.Contains(t, recorder.Body.String(), "ACCOUNT_NOT_FOUND")
			},
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			accounts := NewMockAccountStore(ctrl)
			tc.buildStubs(accounts)

			router := newTestRouter(NewHandler(accounts, NewMockBalanceStore(ctrl), NewMockLedger(ctrl)))

			req := httptest.NewRequest(http.MethodGet, "/accounts/"+tc.id, nil)
			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, req)

			tc.checkResponse(t, recorder)
		})
	}
}

func TestSetStatus(t *testing.T) {
	account := randomAccount()
	frozen := account
	frozen.Status = domain.AccountFrozen

	ctrl := gomock.NewController(t)
	accounts := NewMockAccountStore(ctrl)
	accounts.EXPECT().
		SetStatus(gomock.Any(), account.ID, domain.AccountFrozen).
		Return(frozen, nil)

	router := newTestRouter(NewHandler(accounts, NewMockBalanceStore(ctrl), NewMockLedger(ctrl)))

	body, err := json.Marshal(gin.H{"status": "FROZEN"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPatch, "/accounts/"+account.ID+"/status", bytes.NewReader(body))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), "FROZEN")
}

func TestGetStatement(t *testing.T) {
	account := randomAccount()

	entries := []domain.Entry{
		{ID: "e1", AccountID: account.ID, Type: domain.Debit, Amount: domain.Money{Amount: 100000, Currency: currencypkg.USD}},
	}

	ctrl := gomock.NewController(t)
	ledger := NewMockLedger(ctrl)
	ledger.EXPECT().
		Statement(gomock.Any(), account.ID, gomock.Any(), gomock.Any()).
		Return(entries, nil)

	router := newTestRouter(NewHandler(NewMockAccountStore(ctrl), NewMockBalanceStore(ctrl), ledger))

	url := fmt.Sprintf("/accounts/%s/statement?from=2026-01-01&to=2026-02-01", account.ID)
	req := httptest.NewRequest(http.MethodGet, url, nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), "e1")
}

func TestReconcile(t *testing.T) {
	account := randomAccount()

	report := domain.Reconciliation{
		Expected:    domain.Money{Amount: 50000, Currency: currencypkg.USD},
		Actual:      domain.Money{Amount: 50000, Currency: currencypkg.USD},
		Discrepancy: domain.Money{Currency: currencypkg.USD},
		IsBalanced:  true,
	}

	ctrl := gomock.NewController(t)
	ledger := NewMockLedger(ctrl)
	ledger.EXPECT().Reconcile(gomock.Any(), account.ID).Return(report, nil)

	router := newTestRouter(NewHandler(NewMockAccountStore(ctrl), NewMockBalanceStore(ctrl), ledger))

	req := httptest.NewRequest(http.MethodGet, "/accounts/"+account.ID+"/reconcile", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), `"is_balanced":true`)
}
