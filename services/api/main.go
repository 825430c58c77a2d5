package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ridermarket/internal/config"
	"github.com/ridermarket/internal/conversation"
	"github.com/ridermarket/internal/fileserver"
	"github.com/ridermarket/internal/handler"
	"github.com/ridermarket/internal/logger"
	"github.com/ridermarket/internal/middleware"
	"github.com/ridermarket/internal/presence"
	"github.com/ridermarket/internal/repository"
	"github.com/ridermarket/internal/startup"
	"github.com/ridermarket/internal/storage"
	"github.com/ridermarket/internal/storage/memory"
	"github.com/ridermarket/migrations"
)

func main() {
	logger.SetPrefix("api")
	migrate := flag.Bool("migrate", false, "run database migrations and exit")
	dev := flag.Bool("dev", false, "start with embedded PostgreSQL (no external DB required)")
	flag.Parse()

	logger.Info("starting API service")
	cfg := config.Load()
	logger.SetLevel(cfg.LogLevel)

	var embeddedDB *embeddedpostgres.EmbeddedPostgres
	if *dev {
		var err error
		embeddedDB, err = startEmbeddedPostgres(cfg)
		if err != nil {
			logger.Errorf("embedded postgres: %v", err)
			os.Exit(1)
		}
		defer func() {
			logger.Info("stopping embedded postgres...")
			if err := embeddedDB.Stop(); err != nil {
				logger.Errorf("embedded postgres stop: %v", err)
			}
		}()
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL())
	if err != nil {
		logger.Errorf("parse db config: %v", err)
		os.Exit(1)
	}
	poolCfg.MaxConns = int32(cfg.DBMaxConnections())
	poolCfg.MinConns = 4

	pool := startup.ConnectDBWithRetry(poolCfg, 60*time.Second)
	defer pool.Close()

	runMigrations(pool)
	if *migrate && !*dev {
		return
	}
	logger.Info("database connected, migrations applied")

	var sessions storage.SessionStore
	if cfg.Redis.URL != "" {
		sessions = startup.ConnectRedisWithRetry(cfg.Redis.URL, 60*time.Second)
	} else {
		logger.Info("REDIS_URL not set, using in-memory session store")
		sessions = memory.New()
	}
	defer sessions.Close()

	userRepo := repository.NewUserRepository(pool)
	contactRepo := repository.NewContactRepository(pool)
	msgRepo := repository.NewMessageRepository(pool)
	typingRepo := repository.NewTypingRepository(pool)
	teamRepo := repository.NewTeamRepository(pool)
	riderRepo := repository.NewRiderRepository(pool)
	openingRepo := repository.NewOpeningRepository(pool)

	presenceSvc := presence.NewService(userRepo, typingRepo)
	convSvc := conversation.NewService(contactRepo, msgRepo, presenceSvc, logger.Errorf)
	files := fileserver.New(cfg.UploadDir, cfg.MaxUploadSize, cfg.PublicBaseURL)

	authH := handler.NewAuthHandler(userRepo, sessions, cfg.SessionTTL)
	convH := handler.NewConversationHandler(convSvc, contactRepo)
	msgH := handler.NewMessageHandler(convSvc)
	inboxH := handler.NewInboxHandler(contactRepo)
	riderH := handler.NewRiderHandler(riderRepo)
	teamH := handler.NewTeamHandler(teamRepo, files)
	openingH := handler.NewOpeningHandler(openingRepo, teamRepo, contactRepo)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.RecoverJSON)
	r.Use(chimw.Compress(5))
	r.Use(middleware.RequestLog)
	r.Use(middleware.RateLimitAPI)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSAllowedOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Session-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/api/files/{name}", teamH.ServeFile)
	r.Post("/api/auth/login", authH.Login)
	r.Post("/api/auth/logout", authH.Logout)

	// Public directory reads; the conversation snapshot also serves
	// anonymous callers, personalizing only when a session resolves.
	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalSession(sessions))
		r.Get("/api/conversations/{id}/messages", convH.GetSnapshot)
		r.Get("/api/riders", riderH.List)
		r.Get("/api/riders/{id}", riderH.Get)
		r.Get("/api/teams", teamH.List)
		r.Get("/api/teams/{id}", teamH.Get)
		r.Get("/api/openings", openingH.List)
		r.Get("/api/openings/{id}", openingH.Get)
		r.Get("/api/users/{id}", authH.GetUser)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionAuth(sessions))
		r.Get("/api/users/me", authH.Me)
		r.Put("/api/users/me", authH.UpdateMe)
		r.Get("/api/conversations/{id}", convH.GetConversation)
		r.Patch("/api/conversations/{id}", convH.UpdateStatus)
		r.Post("/api/messages", msgH.Create)
		r.Get("/api/messages/{id}", msgH.Get)
		r.Patch("/api/messages/{id}", msgH.Update)
		r.Delete("/api/messages/{id}", msgH.Delete)
		r.Post("/api/typing", msgH.Typing)
		r.Get("/api/inbox", inboxH.List)
		r.Get("/api/inbox/pending-count", inboxH.PendingCount)
		r.Put("/api/riders/me", riderH.UpsertMe)
		r.Put("/api/teams/me", teamH.UpsertMe)
		r.Post("/api/teams/me/logo", teamH.UploadLogo)
		r.Post("/api/openings", openingH.Create)
		r.Patch("/api/openings/{id}", openingH.Update)
		r.Delete("/api/openings/{id}", openingH.Delete)
		r.Post("/api/openings/{id}/apply", openingH.Apply)
	})

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	var srvWg sync.WaitGroup
	errCh := make(chan error, 1)
	srvWg.Add(1)
	go func() {
		defer srvWg.Done()
		logger.Infof("server listening on %s", cfg.ServerAddr)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Errorf("server error: %v", err)
			os.Exit(1)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server shutdown: %v", err)
	}
	logger.Info("server stopped accepting connections")
	srvWg.Wait()
	logger.Info("server goroutine exited")
}

// runMigrations applies every embedded .sql file in name order.
func runMigrations(pool *pgxpool.Pool) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	entries, err := migrations.Files.ReadDir(".")
	if err != nil {
		logger.Errorf("list migrations: %v", err)
		os.Exit(1)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		data, err := migrations.Files.ReadFile(name)
		if err != nil {
			logger.Errorf("read migration %s: %v", name, err)
			os.Exit(1)
		}
		if _, err := pool.Exec(ctx, string(data)); err != nil {
			logger.Errorf("run migration %s: %v", name, err)
			os.Exit(1)
		}
	}
	logger.Info("migrations applied")
}

func startEmbeddedPostgres(cfg *config.Config) (*embeddedpostgres.EmbeddedPostgres, error) {
	const (
		port     = 5432
		user     = "ridermarket"
		password = "ridermarket_secret"
		database = "ridermarket"
	)

	dataDir := filepath.Join(".", ".pgdata")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create pgdata dir: %w", err)
	}

	db := embeddedpostgres.NewDatabase(
		embeddedpostgres.DefaultConfig().
			Port(port).
			Username(user).
			Password(password).
			Database(database).
			DataPath(dataDir).
			RuntimePath(filepath.Join(os.TempDir(), "embedded-pg-runtime")),
	)

	logger.Info("starting embedded PostgreSQL...")
	if err := db.Start(); err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}

	cfg.Database.URL = fmt.Sprintf(
		"postgres://%s:%s@localhost:%d/%s?sslmode=disable",
		user, password, port, database,
	)
	logger.Infof("embedded PostgreSQL running on port %d", port)
	return db, nil
}
