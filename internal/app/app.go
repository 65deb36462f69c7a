package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/campomarket/storefront/internal/domain/auth"
	"github.com/campomarket/storefront/internal/domain/cart"
	"github.com/campomarket/storefront/internal/domain/catalog"
	"github.com/campomarket/storefront/internal/domain/checkout"
	"github.com/campomarket/storefront/internal/domain/order"
	"github.com/campomarket/storefront/internal/domain/pricing"
	"github.com/campomarket/storefront/internal/exchange"
	"github.com/campomarket/storefront/internal/handler"
	"github.com/campomarket/storefront/internal/payment"
	"github.com/campomarket/storefront/internal/storage/postgres"
	"github.com/campomarket/storefront/pkg/health"
	"github.com/campomarket/storefront/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.AddLivenessCheck("gc-pause", time.Second, health.GCMaxPauseCheck(500*time.Millisecond))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Storage.
	productRepo := postgres.NewProductRepository(pool)
	cartStore := postgres.NewCartStore(pool)
	orderRepo := postgres.NewOrderRepository(pool)

	// Exchange rate: HTTP providers behind a staleness cache.
	defaultRate, err := decimal.NewFromString(cfg.Exchange.DefaultRate)
	if err != nil {
		return errors.Wrap(err, "parse default rate")
	}
	endpoints := make([]exchange.Endpoint, len(cfg.Exchange.Sources))
	for i, url := range cfg.Exchange.Sources {
		endpoints[i] = exchange.Endpoint{URL: url, Fields: cfg.Exchange.Fields}
	}
	rates := exchange.NewCache(
		exchange.NewHTTPSource(endpoints, cfg.Exchange.Timeout),
		cfg.Exchange.TTL,
		defaultRate,
	)

	// Domain services.
	cartService := cart.NewService(pricing.DefaultPolicy(), productRepo, cartStore, rates)
	orderService := order.NewService(orderRepo)

	authProvider := auth.NewStaticProvider([]byte(cfg.Auth.Pepper))
	for _, u := range cfg.Auth.Users {
		authProvider.Register(u.Token, auth.User{ID: u.ID, Name: u.Name, Email: u.Email})
	}

	checkouts := checkout.NewManager(checkout.Deps{
		Auth:         authProvider,
		FiscalForm:   checkout.BasicFiscalForm{},
		DeliveryForm: checkout.BasicDeliveryForm{},
		Gateway:      payment.NewSimulator(cfg.Payment.SimulatedDelay),
		Factory:      order.NewFactory(),
		Orders:       orderRepo,
		Carts:        cartService,
	})

	// HTTP handlers.
	h := handler.NewHandler(
		handler.Config{ImageBaseURL: cfg.ImageBaseURL},
		productRepo,
		catalog.NewSearcher(productRepo),
		cartService,
		checkouts,
		orderService,
		authProvider,
	)

	// Mux: health endpoints + API routes on one server.
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", http.StripPrefix("/api", h.Routes()))

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization", "X-Session-ID"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("storefront-api", m.TracerProvider(), m.MeterProvider()),
			httpmiddleware.Labeler(),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
