package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"nextlog-sync-server/internal/config"
	"nextlog-sync-server/internal/handler"
	"nextlog-sync-server/internal/lotw"
	"nextlog-sync-server/internal/middleware"
	"nextlog-sync-server/internal/repository"
	"nextlog-sync-server/internal/service"
	"nextlog-sync-server/internal/websocket"
	"nextlog-sync-server/pkg/vault"

	_ "github.com/lib/pq"

	"github.com/gorilla/mux"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}

	v, err := vault.New(cfg.Security.EncryptionSecret)
	if err != nil {
		log.Fatalf("Failed to initialize vault: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	stationRepo := repository.NewStationRepository(db)
	contactRepo := repository.NewContactRepository(db)
	credentialRepo := repository.NewCredentialRepository(db)
	syncLogRepo := repository.NewSyncLogRepository(db)

	wsManager := websocket.NewManager(
		cfg.WebSocket.MaxConnPerUser,
		cfg.WebSocket.WriteWait,
		cfg.WebSocket.PongWait,
		cfg.WebSocket.PingPeriod,
	)
	go wsManager.Run()

	signer := lotw.NewSigner(cfg.LoTW.TQSLPath, os.TempDir(), cfg.LoTW.SignTimeout)
	lotwClient := lotw.NewClient(cfg.LoTW.UploadURL, cfg.LoTW.ReportURL, cfg.LoTW.LoginURL, cfg.LoTW.HTTPTimeout)

	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration, cfg.JWT.RefreshTokenExpiration)
	stationService := service.NewStationService(stationRepo, v)
	contactService := service.NewContactService(contactRepo, stationRepo)
	credentialService := service.NewCredentialService(credentialRepo, stationRepo, v)
	syncService := service.NewSyncService(contactRepo, stationRepo, credentialRepo, syncLogRepo, v, signer, lotwClient, wsManager)

	authHandler := handler.NewAuthHandler(authService)
	stationHandler := handler.NewStationHandler(stationService)
	contactHandler := handler.NewContactHandler(contactService)
	lotwHandler := handler.NewLotwHandler(syncService, credentialService, syncLogRepo)
	wsHandler := handler.NewWebSocketHandler(wsManager, cfg.JWT.Secret, cfg.WebSocket.ReadBufferSize, cfg.WebSocket.WriteBufferSize)

	r := mux.NewRouter()

	r.Use(middleware.LoggerMiddleware)
	r.Use(middleware.CORSMiddleware(strings.Split(cfg.CORS.AllowedOrigins, ",")))

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/refresh", authHandler.Refresh).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/logout", authHandler.Logout).Methods("POST", "OPTIONS")

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware(cfg.JWT.Secret))

	protected.HandleFunc("/stations", stationHandler.Create).Methods("POST", "OPTIONS")
	protected.HandleFunc("/stations", stationHandler.List).Methods("GET", "OPTIONS")
	protected.HandleFunc("/stations/{id}", stationHandler.Get).Methods("GET", "OPTIONS")
	protected.HandleFunc("/stations/{id}", stationHandler.Update).Methods("PUT", "OPTIONS")
	protected.HandleFunc("/stations/{id}", stationHandler.Delete).Methods("DELETE", "OPTIONS")
	protected.HandleFunc("/stations/{id}/lotw-login", stationHandler.SetLotwLogin).Methods("PUT", "OPTIONS")

	protected.HandleFunc("/contacts", contactHandler.Create).Methods("POST", "OPTIONS")
	protected.HandleFunc("/contacts", contactHandler.List).Methods("GET", "OPTIONS")
	protected.HandleFunc("/contacts/{id}", contactHandler.Get).Methods("GET", "OPTIONS")
	protected.HandleFunc("/contacts/{id}", contactHandler.Update).Methods("PUT", "OPTIONS")
	protected.HandleFunc("/contacts/{id}", contactHandler.Delete).Methods("DELETE", "OPTIONS")

	protected.HandleFunc("/lotw/certificates", lotwHandler.UploadCertificate).Methods("POST", "OPTIONS")
	protected.HandleFunc("/lotw/stations/{stationId}/certificates", lotwHandler.ListCertificates).Methods("GET", "OPTIONS")
	protected.HandleFunc("/lotw/stations/{stationId}/certificates/{id}/activate", lotwHandler.ActivateCertificate).Methods("POST", "OPTIONS")
	protected.HandleFunc("/lotw/stations/{stationId}/certificates/{id}", lotwHandler.DeleteCertificate).Methods("DELETE", "OPTIONS")

	protected.HandleFunc("/lotw/upload", lotwHandler.Upload).Methods("POST", "OPTIONS")
	protected.HandleFunc("/lotw/download", lotwHandler.Download).Methods("POST", "OPTIONS")
	protected.HandleFunc("/lotw/logs/uploads", lotwHandler.ListUploadLogs).Methods("GET", "OPTIONS")
	protected.HandleFunc("/lotw/logs/downloads", lotwHandler.ListDownloadLogs).Methods("GET", "OPTIONS")

	cron := api.PathPrefix("/cron").Subrouter()
	cron.Use(middleware.CronAuthMiddleware(cfg.Security.CronSecret))
	cron.HandleFunc("/lotw/upload", lotwHandler.CronUpload).Methods("POST")
	cron.HandleFunc("/lotw/download", lotwHandler.CronDownload).Methods("POST")

	r.HandleFunc("/ws", wsHandler.HandleConnection)

	r.HandleFunc("/health", healthHandler).Methods("GET")

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting Nextlog Sync Server on %s (env: %s)", addr, cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped gracefully")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","service":"nextlog-sync-server"}`))
}
