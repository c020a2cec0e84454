package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"

	"github.com/jumla-app/trader-gateway/internal/auth"
	"github.com/jumla-app/trader-gateway/internal/cart"
	"github.com/jumla-app/trader-gateway/internal/catalog"
	"github.com/jumla-app/trader-gateway/internal/checkout"
	"github.com/jumla-app/trader-gateway/internal/common"
	"github.com/jumla-app/trader-gateway/internal/config"
	"github.com/jumla-app/trader-gateway/internal/health"
	"github.com/jumla-app/trader-gateway/internal/notify"
	"github.com/jumla-app/trader-gateway/internal/obs"
	"github.com/jumla-app/trader-gateway/internal/lock"
	"github.com/jumla-app/trader-gateway/internal/ratelimit"
	"github.com/jumla-app/trader-gateway/internal/resilience"
	"github.com/jumla-app/trader-gateway/internal/security"
	"github.com/jumla-app/trader-gateway/internal/shipment"
	"github.com/jumla-app/trader-gateway/internal/upstream"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	if cfg.TracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "trader-gateway",
			Endpoint:      cfg.TracingEndpoint,
			Exporter:      "otlp",
			SamplingRatio: cfg.TracingSampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("parse redis url")
		}
		redisClient = redis.NewClient(redisOpts)
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error().Err(err).Msg("close redis")
			}
		}()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Msg("ping redis")
		}
	} else {
		logger.Warn().Msg("REDIS_URL not set, caching, idempotency and rate limiting disabled")
	}

	breaker := resilience.NewBreaker(10, 0.5, 30*time.Second,
		logger.With().Str("component", "breaker").Logger())
	upstreamClient := &upstream.Client{
		BaseURL: cfg.UpstreamBaseURL,
		HTTP:    upstream.NewHTTPClient(cfg.UpstreamTimeout, breaker),
		Logger:  logger.With().Str("component", "upstream").Logger(),
	}

	cartStore := cart.NewStore(logger.With().Str("component", "cart").Logger())
	domainMetrics := obs.NewDomainMetrics("trader", nil)

	authService := &auth.Service{Client: upstreamClient, TTL: cfg.SessionTTL, Metrics: domainMetrics}
	authMiddleware := auth.Middleware{Service: authService}
	authHandlers := auth.Handlers{
		Service:  authService,
		Carts:    cartStore,
		Upstream: upstreamClient,
		Logger:   logger.With().Str("component", "auth").Logger(),
	}

	catalogService, err := catalog.NewService(catalog.ServiceConfig{
		Upstream: upstreamClient,
		Cache:    catalog.NewCache(redisClient, cfg.CatalogCacheTTL),
		Logger:   logger.With().Str("component", "catalog").Logger(),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise catalog service")
	}
	catalogHandlers := catalog.Handlers{Service: catalogService}

	cartHandlers := cart.Handlers{Store: cartStore, MinOrderTotal: cfg.MinOrderTotal, Metrics: domainMetrics}

	checkoutService := &checkout.Service{
		Carts:         cartStore,
		Upstream:      upstreamClient,
		Areas:         catalogService,
		MinOrderTotal: cfg.MinOrderTotal,
		Lock:          lock.SubmitLock{R: redisClient, TTL: cfg.UpstreamTimeout * 3},
		Metrics:       domainMetrics,
		Logger:        logger.With().Str("component", "checkout").Logger(),
	}
	checkoutHandlers := checkout.Handlers{Service: checkoutService, Upstream: upstreamClient}

	shipmentHandlers := shipment.Handlers{
		Upstream: upstreamClient,
		Logger:   logger.With().Str("component", "shipment").Logger(),
	}
	notifyHandlers := notify.Handlers{
		Upstream: upstreamClient,
		Logger:   logger.With().Str("component", "notify").Logger(),
	}

	httpMetrics := obs.NewHTTPMetrics("trader", obs.ParseBucketsCSV(cfg.MetricsBuckets), nil)

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}
	limiter := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: redisClient, Prefix: "ratelimit:"},
		Config: ratelimit.Config{
			Key:    ratelimit.SessionOrIP,
			Window: cfg.RateLimitWindow,
			Max:    cfg.RateLimitMax,
		},
		OnError: func(err error) {
			logger.Warn().Err(err).Msg("rate limiter unavailable")
		},
	}

	healthHandler := health.Handler{
		Checker: health.Probes{
			Redis:       redisClient,
			UpstreamURL: cfg.UpstreamBaseURL,
		},
		UpstreamTimeout: cfg.UpstreamTimeout,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if cfg.TracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{Enable: true, EnableHSTS: cfg.AppEnv == "production"}.Middleware)
	r.Use(security.BodyLimit{Max: 1 << 20}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(v chi.Router) {
		v.Route("/auth", func(a chi.Router) {
			a.With(limiter.Middleware).Post("/login", authHandlers.Login)
			a.Group(func(protected chi.Router) {
				protected.Use(authMiddleware.RequireSession)
				protected.Post("/logout", authHandlers.Logout)
				protected.Get("/me", authHandlers.Me)
			})
		})

		v.Group(func(trader chi.Router) {
			trader.Use(authMiddleware.RequireSession)
			trader.Use(auth.RequireTrader)

			trader.Get("/stores", catalogHandlers.ListStores)
			trader.Get("/stores/{storeID}/products", catalogHandlers.ListStoreProducts)
			trader.Get("/areas", catalogHandlers.ListAreas)

			trader.Route("/cart", func(c chi.Router) {
				c.Get("/", cartHandlers.Get)
				c.Delete("/", cartHandlers.Clear)
				c.Post("/items", cartHandlers.Add)
				c.Put("/stores/{storeID}/items/{productID}", cartHandlers.SetQuantity)
				c.Delete("/stores/{storeID}/items/{productID}", cartHandlers.Remove)
				c.Put("/stores/{storeID}/deferred", cartHandlers.SetDeferred)
			})

			trader.Group(func(g chi.Router) {
				g.Use(limiter.Middleware)
				g.Use(idem.Middleware)
				g.Post("/checkout", checkoutHandlers.Submit)
			})
			trader.Get("/orders", checkoutHandlers.History)
		})

		v.Group(func(user chi.Router) {
			user.Use(authMiddleware.RequireSession)
			user.Get("/notifications", notifyHandlers.List)
			user.Post("/notifications/{notificationID}/read", notifyHandlers.MarkRead)
		})

		v.Group(func(driver chi.Router) {
			driver.Use(authMiddleware.RequireSession)
			driver.Use(auth.RequireDriver)
			driver.Get("/shipments/available", shipmentHandlers.Available)
			driver.Get("/shipments", shipmentHandlers.Mine)
			driver.Post("/shipments/{shipmentID}/accept", shipmentHandlers.Accept)
			driver.Post("/shipments/{shipmentID}/state", shipmentHandlers.Advance)
			driver.Post("/shipments/{shipmentID}/cancel", shipmentHandlers.Cancel)
		})
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info().Msg("shutting down")
	health.SetReady(false)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}
