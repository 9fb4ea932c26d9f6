package api

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/tbrandt/grouppot/internal/config"
	"github.com/tbrandt/grouppot/internal/db"
	"github.com/tbrandt/grouppot/internal/tracker"
	"golang.org/x/oauth2"
)

type API struct {
	router      *mux.Router
	db          *db.DB
	tracker     *tracker.Service
	config      *config.Config
	oauthConfig *oauth2.Config
	jwtSecret   []byte
}

func New(cfg *config.Config, database *db.DB, svc *tracker.Service) *API {
	api := &API{
		router:    mux.NewRouter(),
		db:        database,
		tracker:   svc,
		config:    cfg,
		jwtSecret: []byte(cfg.JWTSecret),
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURI,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://accounts.google.com/o/oauth2/auth",
				TokenURL: "https://oauth2.googleapis.com/token",
			},
		},
	}

	api.setupRoutes()
	return api
}

func (a *API) setupRoutes() {
	// Auth endpoints
	a.router.HandleFunc("/api/auth/login", a.handleLogin).Methods("GET")
	a.router.HandleFunc("/api/auth/callback", a.handleCallback).Methods("GET")
	a.router.HandleFunc("/api/auth/logout", a.handleLogout).Methods("POST")

	// Protected endpoints
	protected := a.router.PathPrefix("/api").Subrouter()
	protected.Use(a.authMiddleware)

	protected.HandleFunc("/groups", a.handleListGroups).Methods("GET")
	protected.HandleFunc("/groups", a.handleCreateGroup).Methods("POST")
	protected.HandleFunc("/groups/{group_id}", a.handleGetGroup).Methods("GET")
	protected.HandleFunc("/groups/{group_id}", a.handleDeleteGroup).Methods("DELETE")

	protected.HandleFunc("/groups/{group_id}/sessions", a.handleListSessions).Methods("GET")
	protected.HandleFunc("/groups/{group_id}/sessions", a.handleCreateSession).Methods("POST")
	protected.HandleFunc("/groups/{group_id}/sessions/{session_id}", a.handleGetSession).Methods("GET")
	protected.HandleFunc("/groups/{group_id}/sessions/{session_id}", a.handleDeleteSession).Methods("DELETE")
	protected.HandleFunc("/groups/{group_id}/sessions/{session_id}/settings", a.handleUpdateSettings).Methods("PUT")
	protected.HandleFunc("/groups/{group_id}/sessions/{session_id}/settlement", a.handleSettlement).Methods("GET")

	protected.HandleFunc("/groups/{group_id}/sessions/{session_id}/players", a.handleAddPlayer).Methods("POST")
	protected.HandleFunc("/groups/{group_id}/sessions/{session_id}/players", a.handleClearPlayers).Methods("DELETE")
	protected.HandleFunc("/groups/{group_id}/sessions/{session_id}/players/{player_id}", a.handleRemovePlayer).Methods("DELETE")
	protected.HandleFunc("/groups/{group_id}/sessions/{session_id}/players/{player_id}/buy-ins", a.handleAddBuyIn).Methods("POST")
	protected.HandleFunc("/groups/{group_id}/sessions/{session_id}/players/{player_id}/buy-ins/last", a.handleRemoveLastBuyIn).Methods("DELETE")
	protected.HandleFunc("/groups/{group_id}/sessions/{session_id}/players/{player_id}/end-amount", a.handleSetEndAmount).Methods("PUT")
	protected.HandleFunc("/groups/{group_id}/sessions/{session_id}/end-amounts", a.handleClearEndAmounts).Methods("DELETE")
}

func (a *API) Start() error {
	// Setup CORS - allow all origins for development, restrict in production
	// Note: When AllowedOrigins is "*", AllowCredentials must be false for security
	corsOptions := cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	}

	handler := cors.New(corsOptions).Handler(a.router)

	log.Printf("API server listening on http://%s", a.config.WebBind)
	return http.ListenAndServe(a.config.WebBind, handler)
}
