package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/johngerving/3D-Building-Map-sub000/internal/asset"
	"github.com/johngerving/3D-Building-Map-sub000/internal/auth"
	"github.com/johngerving/3D-Building-Map-sub000/internal/building"
	"github.com/johngerving/3D-Building-Map-sub000/internal/collab"
	"github.com/johngerving/3D-Building-Map-sub000/internal/config"
	"github.com/johngerving/3D-Building-Map-sub000/internal/db"
	"github.com/johngerving/3D-Building-Map-sub000/internal/db/dbgen"
	"github.com/johngerving/3D-Building-Map-sub000/internal/engine"
	"github.com/johngerving/3D-Building-Map-sub000/internal/export"
	mw "github.com/johngerving/3D-Building-Map-sub000/internal/middleware"
	"github.com/johngerving/3D-Building-Map-sub000/internal/model"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	queries := dbgen.New(pool)

	authService, err := auth.NewService(queries, auth.Options{
		SessionSecret:      cfg.SessionSecret,
		GoogleClientID:     cfg.GoogleClientID,
		GoogleClientSecret: cfg.GoogleClientSecret,
		GoogleRedirectURL:  cfg.GoogleRedirectURL,
		AdminEmails:        cfg.Admins(),
	})
	if err != nil {
		slog.Error("create auth service", "error", err)
		os.Exit(1)
	}
	if !cfg.GoogleEnabled() {
		slog.Warn("google sign-in disabled, GOOGLE_CLIENT_ID is not set")
	}
	authHandler := auth.NewHandler(authService, strings.HasPrefix(cfg.GoogleRedirectURL, "https://"))

	buildingService := building.NewService(pool)
	buildingHandler := building.NewHandler(buildingService)

	metrics, err := engine.NewMetrics()
	if err != nil {
		slog.Error("create pipeline metrics", "error", err)
		os.Exit(1)
	}
	pipeline := engine.NewPipeline(
		asset.NewFetcher(cfg.AssetDir, cfg.FetchTimeout),
		engine.WithLogger(slog.Default()),
		engine.WithMetrics(metrics),
	)

	modelService, err := model.NewService(buildingService, pipeline, cfg.ModelCacheSize, slog.Default())
	if err != nil {
		slog.Error("create model service", "error", err)
		os.Exit(1)
	}
	modelHandler := model.NewHandler(modelService)
	exportHandler := export.NewHandler(modelService)

	hub := collab.NewHub(buildingService)
	go hub.Run(ctx)
	collabHandler := collab.NewHandler(hub, authService, buildingService, cfg.Origins())

	buildingService.OnChange(func(buildingID string, revision int64) {
		modelService.Invalidate(buildingID)
		hub.Invalidate(buildingID, revision)
	})

	assetHandler := asset.NewHandler(cfg.AssetDir)
	requireAuth := authService.AuthMiddleware

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)

	// Auth routes (public)
	r.HandleFunc("/auth/google/login", authHandler.Login).Methods("GET")
	r.HandleFunc("/auth/google/callback", authHandler.Callback).Methods("GET")
	r.HandleFunc("/auth/logout", authHandler.Logout).Methods("POST")
	r.Handle("/auth/me", requireAuth(http.HandlerFunc(authHandler.Me))).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			http.Error(w, `{"status":"database unavailable"}`, http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Floor plans
	r.Handle("/assets/upload", requireAuth(http.HandlerFunc(assetHandler.Upload))).Methods("POST")
	r.Handle("/assets/{assetId}", requireAuth(http.HandlerFunc(assetHandler.HandleDelete))).Methods("DELETE")
	r.PathPrefix("/assets/").Handler(assetHandler.Serve()).Methods("GET")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(requireAuth)
	buildingHandler.Register(api)
	modelHandler.Register(api)
	exportHandler.Register(api)

	// WebSocket endpoint, authenticated by the handler itself
	collabHandler.Register(r)

	addr := ":" + strconv.Itoa(cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mw.CORS(cfg.Origins())(r),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown", "error", err)
		}
	}()

	slog.Info("server starting", "addr", addr, "assets", cfg.AssetDir)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	level, _ := cfg.SlogLevel()
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
