package main

import (
	"database/sql"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/arsy786/eagle-bank/cmd/httpserver"
	"github.com/arsy786/eagle-bank/internal/middleware"
	"github.com/arsy786/eagle-bank/pkg/configpkg"
)

func main() {
	config, err := configpkg.Load("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}

	logger := middleware.CreateLogger(config)

	var conn *sql.DB

	if config.DBDriver != "memory" {
		conn, err = sql.Open(config.DBDriver, config.DBSource)
		if err != nil {
			logger.Fatal().Err(err).Msg("cannot connect to db")
		}
	}

	server, err := httpserver.New(conn, logger, config)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot create server")
	}

	if err := server.Run(); err != nil {
		logger.Fatal().Err(err).Msg("cannot start server")
	}
}
