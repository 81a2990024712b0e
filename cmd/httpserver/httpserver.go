// Package httpserver manages server creation and api routing.
package httpserver

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/finvault/corebank/internal/accountdelivery"
	"github.com/finvault/corebank/internal/accountrepo"
	"github.com/finvault/corebank/internal/auditlog"
	"github.com/finvault/corebank/internal/balancerepo"
	"github.com/finvault/corebank/internal/ledgerdelivery"
	"github.com/finvault/corebank/internal/ledgerrepo"
	"github.com/finvault/corebank/internal/ledgerservice"
	"github.com/finvault/corebank/internal/middleware"
	"github.com/finvault/corebank/internal/transactiondelivery"
	"github.com/finvault/corebank/internal/transactionrepo"
	"github.com/finvault/corebank/internal/transactionservice"
	"github.com/finvault/corebank/internal/transactionvalidator"
	"github.com/finvault/corebank/pkg/configpkg"
	"github.com/finvault/corebank/pkg/currencypkg"
)

// Server holds db connection, handlers router and configuration.
type Server struct {
	DB     *sql.DB
	Engine *gin.Engine
	Config configpkg.Config
}

// ServeHTTP implements the http.Handler interface for the Server type.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Engine.ServeHTTP(w, r)
}

type stores struct {
	accounts     accountdelivery.AccountStore
	transactions transactionStore
	ledger       ledgerservice.Repo
}

// transactionStore is the union of what the processor and the validator
// need from transaction persistence.
type transactionStore interface {
	transactionservice.TransactionStore
	transactionvalidator.DailyTotals
}

// accountBalances is the widest balance interface the wiring needs; both
// repo implementations satisfy it.
type accountBalances interface {
	ledgerservice.BalanceStore
	accountdelivery.BalanceStore
}

func buildEngine(logger zerolog.Logger, config configpkg.Config, s stores, balances accountBalances) (*gin.Engine, error) {
	accountRepo := s.accounts
	transactionRepo := s.transactions

	ledgerService := ledgerservice.New(s.ledger, balances)

	limits := transactionvalidator.Limits{
		MaxTransactionAmount: config.MaxTransactionAmount,
		DailyTransferLimit:   config.DailyTransferLimit,
		DailyWithdrawalLimit: config.DailyWithdrawalLimit,
	}

	txValidator := transactionvalidator.New(accountRepo, balances, transactionRepo, limits)

	reversalWindow := time.Duration(config.ReversalWindowDays) * 24 * time.Hour
	processor := transactionservice.New(transactionRepo, ledgerService, txValidator, auditlog.New(), reversalWindow)

	accountHandler := accountdelivery.NewHandler(accountRepo, balances, ledgerService)
	transactionHandler := transactiondelivery.NewHandler(processor)
	ledgerHandler := ledgerdelivery.NewHandler(ledgerService)

	engine := gin.New()

	engine.Use(middleware.RequestLogger(logger))
	engine.Use(gin.Recovery())

	engine.POST("/accounts", accountHandler.Create)
	engine.GET("/accounts/:id", accountHandler.Get)
	engine.PATCH("/accounts/:id/status", accountHandler.SetStatus)
	engine.GET("/accounts/:id/balance", accountHandler.GetBalance)
	engine.GET("/accounts/:id/statement", accountHandler.GetStatement)
	engine.GET("/accounts/:id/reconcile", accountHandler.Reconcile)

	engine.POST("/transfers", transactionHandler.CreateTransfer)
	engine.POST("/deposits", transactionHandler.CreateDeposit)
	engine.POST("/withdrawals", transactionHandler.CreateWithdrawal)
	engine.POST("/payments", transactionHandler.CreatePayment)
	engine.POST("/fees", transactionHandler.CreateFee)
	engine.POST("/interest", transactionHandler.CreateInterest)
	engine.POST("/adjustments", transactionHandler.CreateAdjustment)
	engine.GET("/transactions/:id", transactionHandler.Get)
	engine.POST("/transactions/:id/reverse", transactionHandler.Reverse)

	engine.GET("/ledger/verify", ledgerHandler.Verify)
	engine.GET("/ledger/transactions/:id/entries", ledgerHandler.EntriesByTransaction)
	engine.GET("/ledger/accounts/:id/balance", ledgerHandler.AccountBalance)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := v.RegisterValidation("currency", currencypkg.ValidCurrency); err != nil {
			return nil, errors.New("cannot register currency validator")
		}
	}

	return engine, nil
}

// New creates Server type with instantiated domains and routes backed by
// PostgreSQL.
func New(conn *sql.DB, logger zerolog.Logger, config configpkg.Config) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)

	engine, err := buildEngine(logger, config, stores{
		accounts:     accountrepo.NewRepoPGS(conn),
		transactions: transactionrepo.NewRepoPGS(conn),
		ledger:       ledgerrepo.NewRepoPGS(conn),
	}, balancerepo.NewRepoPGS(conn))
	if err != nil {
		return nil, err
	}

	return &Server{DB: conn, Engine: engine, Config: config}, nil
}

// NewInMemory creates a Server over the in-memory stores. Useful for local
// runs and end-to-end tests without a database.
func NewInMemory(logger zerolog.Logger, config configpkg.Config) (*Server, error) {
	engine, err := buildEngine(logger, config, stores{
		accounts:     accountrepo.NewRepoMem(),
		transactions: transactionrepo.NewRepoMem(),
		ledger:       ledgerrepo.NewRepoMem(),
	}, balancerepo.NewRepoMem())
	if err != nil {
		return nil, err
	}

	return &Server{Engine: engine, Config: config}, nil
}
