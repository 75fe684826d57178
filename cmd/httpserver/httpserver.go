// Package httpserver manages server creation and api routing.
package httpserver

import (
	"database/sql"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/arsy786/eagle-bank/internal/accountdelivery"
	"github.com/arsy786/eagle-bank/internal/accountrepo"
	"github.com/arsy786/eagle-bank/internal/accountservice"
	"github.com/arsy786/eagle-bank/internal/memstore"
	"github.com/arsy786/eagle-bank/internal/middleware"
	"github.com/arsy786/eagle-bank/internal/transactiondelivery"
	"github.com/arsy786/eagle-bank/internal/transactionrepo"
	"github.com/arsy786/eagle-bank/internal/transactionservice"
	"github.com/arsy786/eagle-bank/internal/userdelivery"
	"github.com/arsy786/eagle-bank/internal/userrepo"
	"github.com/arsy786/eagle-bank/internal/userservice"
	"github.com/arsy786/eagle-bank/pkg/configpkg"
	"github.com/arsy786/eagle-bank/pkg/tokenpkg"
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

// Run starts the server on the configured address.
func (s *Server) Run() error {
	return s.Engine.Run(s.Config.ServerAddress)
}

func newTokenMaker(config configpkg.Config) (tokenpkg.Maker, error) {
	switch config.TokenType {
	case "PASETO":
		return tokenpkg.NewPasetoMaker(config.TokenSymmetricKey)
	case "", "JWT":
		return tokenpkg.NewJWTMaker(config.TokenSymmetricKey)
	}

	return nil, fmt.Errorf("unsupported token type %s", config.TokenType)
}

// New creates Server type with instantiated domains and routes.
//
// A nil conn wires the in-memory store instead of Postgres repos.
func New(conn *sql.DB, logger zerolog.Logger, config configpkg.Config) (*Server, error) {
	var (
		userRepo        userservice.Repo
		accountRepo     accountservice.Repo
		transactionRepo transactionservice.Repo
		accountGetter   transactionservice.AccountRepo
	)

	if conn != nil {
		userRepo = userrepo.NewRepoPGS(conn)
		pgsAccountRepo := accountrepo.NewRepoPGS(conn)
		accountRepo = pgsAccountRepo
		accountGetter = pgsAccountRepo
		transactionRepo = transactionrepo.NewRepoPGS(conn)
	} else {
		store := memstore.New()
		userRepo = store.Users()
		memAccountRepo := store.Accounts()
		accountRepo = memAccountRepo
		accountGetter = memAccountRepo
		transactionRepo = store.Transactions()
	}

	tokenMaker, err := newTokenMaker(config)
	if err != nil {
		return nil, fmt.Errorf("cannot create token maker: %w", err)
	}

	userService := userservice.New(userRepo)
	accountService := accountservice.New(accountRepo)
	transactionService := transactionservice.New(transactionRepo, accountGetter)

	userHandler := userdelivery.NewHandler(userService, tokenMaker, config.AccessTokenDuration)
	accountHandler := accountdelivery.NewHandler(accountService)
	transactionHandler := transactiondelivery.NewHandler(transactionService)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(middleware.RequestLogger(logger))
	engine.Use(gin.Recovery())

	engine.POST("/users", userHandler.Create)
	engine.POST("/users/login", userHandler.Login)

	authRoutes := engine.Group("/").Use(middleware.AuthMiddleware(tokenMaker))

	authRoutes.POST("/accounts", accountHandler.Create)
	authRoutes.GET("/accounts", accountHandler.List)
	authRoutes.GET("/accounts/:id", accountHandler.Get)
	authRoutes.PATCH("/accounts/:id", accountHandler.Update)
	authRoutes.DELETE("/accounts/:id", accountHandler.Delete)

	authRoutes.POST("/accounts/:id/transactions", transactionHandler.Post)
	authRoutes.GET("/accounts/:id/transactions", transactionHandler.List)
	authRoutes.GET("/accounts/:id/transactions/:tid", transactionHandler.Get)

	server := &Server{
		DB:     conn,
		Engine: engine,
		Config: config,
	}

	return server, nil
}
