package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/susu3304/splitmail/internal/config"
	"github.com/susu3304/splitmail/internal/ledger"
	"github.com/susu3304/splitmail/internal/pipeline"
)

type API struct {
	router    *mux.Router
	config    *config.Config
	ledger    *ledger.Client
	runner    *pipeline.Runner
	jwtSecret []byte
	log       *zap.Logger
}

func New(cfg *config.Config, lg *ledger.Client, runner *pipeline.Runner, log *zap.Logger) *API {
	api := &API{
		router:    mux.NewRouter(),
		config:    cfg,
		ledger:    lg,
		runner:    runner,
		jwtSecret: []byte(cfg.JWTSecret),
		log:       log,
	}

	api.setupRoutes()
	return api
}

func (a *API) setupRoutes() {
	// Auth endpoints
	a.router.HandleFunc("/api/auth/login", a.handleLogin).Methods("GET")
	a.router.HandleFunc("/api/auth/callback", a.handleCallback).Methods("GET")

	// Protected endpoints
	protected := a.router.PathPrefix("/api").Subrouter()
	protected.Use(a.authMiddleware)

	protected.HandleFunc("/expenses/process", a.handleProcess).Methods("POST")
	protected.HandleFunc("/expenses", a.handleListExpenses).Methods("GET")
	protected.HandleFunc("/friends", a.handleListFriends).Methods("GET")
	protected.HandleFunc("/groups", a.handleListGroups).Methods("GET")
	protected.HandleFunc("/me", a.handleMe).Methods("GET")
}

func (a *API) Start() error {
	corsOptions := cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	}

	handler := cors.New(corsOptions).Handler(a.router)

	a.log.Info("api server listening", zap.String("bind", a.config.WebBind))
	return http.ListenAndServe(a.config.WebBind, handler)
}
