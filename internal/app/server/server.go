package server

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/shopspring/decimal"

	"fleetpay/internal/domain/adjustment"
	"fleetpay/internal/domain/advance"
	"fleetpay/internal/domain/driver"
	"fleetpay/internal/domain/escrow"
	"fleetpay/internal/domain/load"
	"fleetpay/internal/domain/payroll"
	"fleetpay/internal/domain/recurring"
	"fleetpay/internal/mileage"
	"fleetpay/internal/platform/cache"
	"fleetpay/internal/platform/config"
	"fleetpay/internal/platform/db"
	"fleetpay/internal/platform/metrics"
	adjustmenthandler "fleetpay/internal/transport/http/handlers/adjustments"
	advancehandler "fleetpay/internal/transport/http/handlers/advances"
	authhandler "fleetpay/internal/transport/http/handlers/auth"
	driverhandler "fleetpay/internal/transport/http/handlers/drivers"
	escrowhandler "fleetpay/internal/transport/http/handlers/escrow"
	mileagehandler "fleetpay/internal/transport/http/handlers/mileage"
	payrollhandler "fleetpay/internal/transport/http/handlers/payroll"
	recurringhandler "fleetpay/internal/transport/http/handlers/recurring"
	"fleetpay/internal/transport/http/middleware"
)

func Run() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config invalid: %v", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, "migrations"); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	}

	var coordCache cache.CoordinateCache
	if cfg.RedisAddr != "" {
		redisCache, err := cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatalf("redis connect failed: %v", err)
		}
		defer redisCache.Close()
		coordCache = redisCache
	} else {
		coordCache = cache.NewMemory()
	}

	resolver := mileage.NewResolver([]mileage.Provider{
		mileage.NewZippopotamProvider(cfg.GeocodeTimeout),
		mileage.NewNominatimProvider(cfg.GeocodeTimeout),
	}, coordCache, cfg.GeocodeTimeout)

	driverService := driver.NewService(driver.NewStore(pool))
	loadStore := load.NewStore(pool)
	adjustmentService := adjustment.NewService(adjustment.NewStore(pool))
	recurringService := recurring.NewService(recurring.NewStore(pool))

	advanceStore := advance.NewStore(pool)
	advanceService := advance.NewService(advanceStore, advance.Limits{
		Ceiling:  decimal.NewFromFloat(cfg.AdvanceCeiling),
		MaxWeeks: cfg.AdvanceMaxWeeks,
	})

	escrowService := escrow.NewService(escrow.NewStore(pool), escrow.SuggestionParams{
		TargetWeeks:      cfg.EscrowTargetWeeks,
		MinWeeklyDeposit: decimal.NewFromFloat(cfg.EscrowMinWeekly),
		MaxWeeklyDeposit: decimal.NewFromFloat(cfg.EscrowMaxWeekly),
		MinNetPayFloor:   decimal.NewFromFloat(cfg.MinNetPayFloor),
	})

	aggregator := payroll.NewAggregator(driverService, loadStore, recurringService,
		advanceService, adjustmentService, escrowService)
	payrollStore := payroll.NewStore(pool, advanceStore)
	payrollService := payroll.NewService(payrollStore, aggregator, driverService,
		escrowService, payroll.NewPaystubRenderer(cfg.PaystubDir))
	batch := payroll.NewOrchestrator(payrollService, driverService, cfg.BatchWorkers)

	collector := metrics.New()

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(collector))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.MaxBody(cfg.MaxBodyBytes))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
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

	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(collector.Snapshot())
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		authHandler := authhandler.NewHandler(pool, cfg.JWTSecret)
		r.Post("/auth/login", authHandler.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser)
			r.Get("/auth/me", authHandler.HandleMe)

			driverhandler.NewHandler(driverService).RegisterRoutes(r)
			mileagehandler.NewHandler(resolver).RegisterRoutes(r)
			adjustmenthandler.NewHandler(adjustmentService).RegisterRoutes(r)
			recurringhandler.NewHandler(recurringService).RegisterRoutes(r)
			advancehandler.NewHandler(advanceService).RegisterRoutes(r)
			escrowhandler.NewHandler(escrowService).RegisterRoutes(r)
			payrollhandler.NewHandler(payrollService, batch).RegisterRoutes(r)
		})
	})

	log.Printf("fleetpay server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
