// Package main starts the core banking API: accounts, balances, the
// double-entry ledger and transaction processing.
package main

import (
	"github.com/rs/zerolog/log"

	"github.com/finvault/corebank/cmd/httpserver"
	"github.com/finvault/corebank/internal/middleware"
	"github.com/finvault/corebank/pkg/configpkg"
	"github.com/finvault/corebank/pkg/dbpkg"

	_ "github.com/lib/pq"
)

func main() {
	config, err := configpkg.Load("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}

	logger := middleware.CreateLogger(config)

	db, err := dbpkg.Setup(config.DBDriver, config.DBSource)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot connect to database")
	}

	server, err := httpserver.New(db, logger, config)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot create server")
	}

	logger.Info().Msg("CORE BANKING API SERVER HAS STARTED")

	err = server.Engine.Run(config.ServerAddress)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot start server")
	}
}
