package server

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	"evalsphere/internal/domain/audit"
	"evalsphere/internal/domain/evaluation"
	"evalsphere/internal/domain/org"
	"evalsphere/internal/domain/reports"
	"evalsphere/internal/domain/survey"
	"evalsphere/internal/platform/config"
	cryptoutil "evalsphere/internal/platform/crypto"
	"evalsphere/internal/platform/db"
	"evalsphere/internal/platform/metrics"
	"evalsphere/internal/transport/http/api"
	audithandler "evalsphere/internal/transport/http/handlers/audit"
	authhandler "evalsphere/internal/transport/http/handlers/auth"
	evaluationhandler "evalsphere/internal/transport/http/handlers/evaluation"
	orghandler "evalsphere/internal/transport/http/handlers/org"
	reportshandler "evalsphere/internal/transport/http/handlers/reports"
	surveyhandler "evalsphere/internal/transport/http/handlers/survey"
	"evalsphere/internal/transport/http/middleware"
)

func Run() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	}

	crypto, err := cryptoutil.New(cfg.DataEncryptionKey)
	if err != nil {
		log.Fatalf("encryption setup failed: %v", err)
	}
	if !crypto.Configured() {
		slog.Warn("data encryption key not set, evaluation comments stored in plaintext")
	}

	collector := metrics.New()
	auditSvc := audit.New(pool)

	orgStore := org.NewStore(pool)
	orgSvc := org.NewService(orgStore)
	surveyStore := survey.NewStore(pool)
	surveySvc := survey.NewService(surveyStore)
	evalStore := evaluation.NewStore(pool, crypto)
	evalSvc := evaluation.NewService(evalStore, orgStore, surveyStore, collector)
	reportsSvc := reports.NewService(reports.NewStore(pool), evalSvc)
	idemStore := middleware.NewIdempotencyStore(pool)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Metrics(collector))
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.Route("/api/v1", func(r chi.Router) {
		authHandler := authhandler.NewHandler(pool, cfg.JWTSecret, crypto, cfg.SessionTTL)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/refresh", authHandler.HandleRefresh)
		r.Post("/auth/logout", authHandler.HandleLogout)
		r.Post("/auth/request-reset", authHandler.HandleRequestReset)
		r.Post("/auth/reset", authHandler.HandleResetPassword)
		r.Post("/auth/mfa/setup", authHandler.HandleMFASetup)
		r.Post("/auth/mfa/enable", authHandler.HandleMFAEnable)
		r.Post("/auth/mfa/disable", authHandler.HandleMFADisable)

		orgHandler := orghandler.NewHandler(orgSvc, auditSvc)
		orgHandler.RegisterRoutes(r, orgStore)

		surveyHandler := surveyhandler.NewHandler(surveySvc)
		surveyHandler.RegisterRoutes(r, orgStore)

		evalHandler := evaluationhandler.NewHandler(evalSvc, orgSvc, auditSvc, idemStore)
		evalHandler.RegisterRoutes(r, orgStore)

		reportsHandler := reportshandler.NewHandler(reportsSvc, orgSvc, evalSvc)
		reportsHandler.RegisterRoutes(r, orgStore)

		auditHandler := audithandler.NewHandler(auditSvc)
		auditHandler.RegisterRoutes(r, orgStore)

		if cfg.MetricsEnabled {
			r.With(middleware.RequirePermission("admin.system", orgStore)).
				Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
					api.Success(w, collector.Snapshot(), middleware.GetRequestID(r.Context()))
				})
		}
	})

	router.Mount("/", spaHandler{staticPath: cfg.FrontendDir, indexPath: "index.html"})

	log.Printf("evalsphere server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

type spaHandler struct {
	staticPath string
	indexPath  string
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(h.staticPath, r.URL.Path)
	_, err := os.Stat(path)
	if err == nil {
		http.FileServer(http.Dir(h.staticPath)).ServeHTTP(w, r)
		return
	}

	if os.IsNotExist(err) {
		http.ServeFile(w, r, filepath.Join(h.staticPath, h.indexPath))
		return
	}

	http.NotFound(w, r)
}
