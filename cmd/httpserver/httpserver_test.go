package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/finvault/corebank/pkg/configpkg"
	"github.com/finvault/corebank/pkg/currencypkg"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	config := configpkg.Config{
		Environment:          "test",
		ReversalWindowDays:   30,
		MaxTransactionAmount: 100000000,
		DailyTransferLimit:   500000000,
		DailyWithdrawalLimit: 200000000,
	}

	server, err := NewInMemory(zerolog.Nop(), config)
	require.NoError(t, err)

	return server
}

func do(t *testing.T, server *Server, method, url string, body gin.H) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, url, reader)
	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)

	return recorder
}

func decode(t *testing.T, recorder *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), out))
}

func createAccount(t *testing.T, server *Server, owner string) string {
	t.Helper()

	recorder := do(t, server, http.MethodPost, "/accounts", gin.H{
		"owner":    owner,
		"currency": currencypkg.USD,
	})
	require.Equal(t, http.StatusCreated, recorder.Code)

	var res struct {
		Data struct {
			Account struct {
				ID string `json:"id"`
			} `json:"account"`
		} `json:"data"`
	}
	decode(t, recorder, &res)
	require.NotEmpty(t, res.Data.Account.ID)

	return res.Data.Account.ID
}

func availableBalance(t *testing.T, server *Server, accountID string) string {
	t.Helper()

	recorder := do(t, server, http.MethodGet, "/accounts/"+accountID+"/balance", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var res struct {
		Data struct {
			Available struct {
				Amount   int64  `json:"amount"`
				Currency string `json:"currency"`
			} `json:"available_balance"`
		} `json:"data"`
	}
	decode(t, recorder, &res)

	raw, err := json.Marshal(res.Data.Available)
	require.NoError(t, err)

	return string(raw)
}

func transactionID(t *testing.T, recorder *httptest.ResponseRecorder) string {
	t.Helper()

	var res struct {
		Data struct {
			Transaction struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			} `json:"transaction"`
		} `json:"data"`
	}
	decode(t, recorder, &res)
	require.Equal(t, "COMPLETED", res.Data.Transaction.Status)

	return res.Data.Transaction.ID
}

func TestMoneyMovementEndToEnd(t *testing.T) {
	server := newTestServer(t)

	alice := createAccount(t, server, "alice")
	bob := createAccount(t, server, "bob")

	// Fund alice from the outside world.
	recorder := do(t, server, http.MethodPost, "/deposits", gin.H{
		"destination_account_id": alice,
		"amount":                 "1000.00",
		"currency":               currencypkg.USD,
		"reference":              "initial funding",
	})
	require.Equal(t, http.StatusCreated, recorder.Code)
	transactionID(t, recorder)

	require.Contains(t, availableBalance(t, server, alice), `"amount":100000`)

	// Move part of it to bob.
	recorder = do(t, server, http.MethodPost, "/transfers", gin.H{
		"source_account_id":      alice,
		"destination_account_id": bob,
		"amount":                 "150.00",
		"currency":               currencypkg.USD,
		"reference":              "rent",
	})
	require.Equal(t, http.StatusCreated, recorder.Code)
	transferID := transactionID(t, recorder)

	require.Contains(t, availableBalance(t, server, alice), `"amount":85000`)
	require.Contains(t, availableBalance(t, server, bob), `"amount":15000`)

	// Both postings of the transfer are in the ledger.
	recorder = do(t, server, http.MethodGet, "/ledger/transactions/"+transferID+"/entries", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), "DEBIT")
	require.Contains(t, recorder.Body.String(), "CREDIT")

	// The whole ledger balances to zero.
	recorder = do(t, server, http.MethodGet, "/ledger/verify", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), `"balanced":true`)

	// Statements and reconciliation agree with the stored balances.
	recorder = do(t, server, http.MethodGet, "/accounts/"+alice+"/reconcile", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), `"is_balanced":true`)

	// Reverse the transfer and check the money went back.
	recorder = do(t, server, http.MethodPost, "/transactions/"+transferID+"/reverse", nil)
	require.Equal(t, http.StatusCreated, recorder.Code)

	require.Contains(t, availableBalance(t, server, alice), `"amount":100000`)
	require.Contains(t, availableBalance(t, server, bob), `"amount":0,`)

	// A second reversal of the same transaction is rejected.
	recorder = do(t, server, http.MethodPost, "/transactions/"+transferID+"/reverse", nil)
	require.Equal(t, http.StatusConflict, recorder.Code)
	require.Contains(t, recorder.Body.String(), "TRANSACTION_NOT_REVERSIBLE")
}

func TestInsufficientFundsLeavesNoTrace(t *testing.T) {
	server := newTestServer(t)

	alice := createAccount(t, server, "alice")
	bob := createAccount(t, server, "bob")

	recorder := do(t, server, http.MethodPost, "/transfers", gin.H{
		"source_account_id":      alice,
		"destination_account_id": bob,
		"amount":                 "50.00",
		"currency":               currencypkg.USD,
		"reference":              "doomed",
	})
	require.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	require.Contains(t, recorder.Body.String(), "insufficient_funds")

	require.Contains(t, availableBalance(t, server, alice), `"amount":0,`)
	require.Contains(t, availableBalance(t, server, bob), `"amount":0,`)
}

func TestDepositFromUnfundedSourceIsRejected(t *testing.T) {
	server := newTestServer(t)

	alice := createAccount(t, server, "alice")
	bob := createAccount(t, server, "bob")

	// A deposit naming a customer source debits that account, so it must
	// clear the same funds checks as any other debit.
	recorder := do(t, server, http.MethodPost, "/deposits", gin.H{
		"source_account_id":      bob,
		"destination_account_id": alice,
		"amount":                 "50.00",
		"currency":               currencypkg.USD,
		"reference":              "book transfer",
	})
	require.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	require.Contains(t, recorder.Body.String(), "insufficient_funds")

	require.Contains(t, availableBalance(t, server, alice), `"amount":0,`)
	require.Contains(t, availableBalance(t, server, bob), `"amount":0,`)
}

func TestFeeReversalRestoresFeeRevenue(t *testing.T) {
	server := newTestServer(t)

	alice := createAccount(t, server, "alice")

	recorder := do(t, server, http.MethodPost, "/deposits", gin.H{
		"destination_account_id": alice,
		"amount":                 "100.00",
		"currency":               currencypkg.USD,
		"reference":              "funding",
	})
	require.Equal(t, http.StatusCreated, recorder.Code)

	recorder = do(t, server, http.MethodPost, "/fees", gin.H{
		"source_account_id": alice,
		"amount":            "2.50",
		"currency":          currencypkg.USD,
		"reference":         "monthly maintenance",
	})
	require.Equal(t, http.StatusCreated, recorder.Code)
	feeID := transactionID(t, recorder)

	recorder = do(t, server, http.MethodPost, "/transactions/"+feeID+"/reverse", nil)
	require.Equal(t, http.StatusCreated, recorder.Code)

	require.Contains(t, availableBalance(t, server, alice), `"amount":10000`)

	// The waived fee lands back on FEE_REVENUE, which flattens to zero.
	recorder = do(t, server, http.MethodGet, "/ledger/accounts/FEE_REVENUE/balance", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), `"debit_total":{"amount":250`)
	require.Contains(t, recorder.Body.String(), `"credit_total":{"amount":250`)
	require.Contains(t, recorder.Body.String(), `"net":{"amount":0,`)

	recorder = do(t, server, http.MethodGet, "/ledger/verify", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), `"balanced":true`)
}

func TestIdempotentDeposit(t *testing.T) {
	server := newTestServer(t)

	alice := createAccount(t, server, "alice")

	body := gin.H{
		"destination_account_id": alice,
		"amount":                 "100.00",
		"currency":               currencypkg.USD,
		"reference":              "payroll",
		"idempotency_key":        "payroll-2026-08",
	}

	first := do(t, server, http.MethodPost, "/deposits", body)
	require.Equal(t, http.StatusCreated, first.Code)
	firstID := transactionID(t, first)

	second := do(t, server, http.MethodPost, "/deposits", body)
	require.Equal(t, http.StatusCreated, second.Code)
	require.Equal(t, firstID, transactionID(t, second))

	// Replays never double-post.
	require.Contains(t, availableBalance(t, server, alice), `"amount":10000`)
}

func TestFrozenAccountCannotSend(t *testing.T) {
	server := newTestServer(t)

	alice := createAccount(t, server, "alice")
	bob := createAccount(t, server, "bob")

	recorder := do(t, server, http.MethodPost, "/deposits", gin.H{
		"destination_account_id": alice,
		"amount":                 "100.00",
		"currency":               currencypkg.USD,
		"reference":              "funding",
	})
	require.Equal(t, http.StatusCreated, recorder.Code)

	recorder = do(t, server, http.MethodPatch, "/accounts/"+alice+"/status", gin.H{"status": "FROZEN"})
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = do(t, server, http.MethodPost, "/transfers", gin.H{
		"source_account_id":      alice,
		"destination_account_id": bob,
		"amount":                 "10.00",
		"currency":               currencypkg.USD,
		"reference":              "blocked",
	})
	require.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	require.Contains(t, recorder.Body.String(), "account_inactive")

	// Frozen accounts do not receive either.
	recorder = do(t, server, http.MethodPost, "/deposits", gin.H{
		"destination_account_id": alice,
		"amount":                 "5.00",
		"currency":               currencypkg.USD,
		"reference":              "interest catchup",
	})
	require.Equal(t, http.StatusUnprocessableEntity, recorder.Code)

	// Unfreezing restores both directions.
	recorder = do(t, server, http.MethodPatch, "/accounts/"+alice+"/status", gin.H{"status": "ACTIVE"})
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = do(t, server, http.MethodPost, "/deposits", gin.H{
		"destination_account_id": alice,
		"amount":                 "5.00",
		"currency":               currencypkg.USD,
		"reference":              "interest catchup",
	})
	require.Equal(t, http.StatusCreated, recorder.Code)
}

func TestFeeAndInterestFlows(t *testing.T) {
	server := newTestServer(t)

	alice := createAccount(t, server, "alice")

	recorder := do(t, server, http.MethodPost, "/deposits", gin.H{
		"destination_account_id": alice,
		"amount":                 "200.00",
		"currency":               currencypkg.USD,
		"reference":              "funding",
	})
	require.Equal(t, http.StatusCreated, recorder.Code)

	recorder = do(t, server, http.MethodPost, "/fees", gin.H{
		"source_account_id": alice,
		"amount":            "2.50",
		"currency":          currencypkg.USD,
		"reference":         "monthly maintenance",
	})
	require.Equal(t, http.StatusCreated, recorder.Code)

	recorder = do(t, server, http.MethodPost, "/interest", gin.H{
		"destination_account_id": alice,
		"amount":                 "1.25",
		"currency":               currencypkg.USD,
		"reference":              "savings interest",
	})
	require.Equal(t, http.StatusCreated, recorder.Code)

	require.Contains(t, availableBalance(t, server, alice), `"amount":19875`)

	recorder = do(t, server, http.MethodGet, "/ledger/verify", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), `"balanced":true`)
}
