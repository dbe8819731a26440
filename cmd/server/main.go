package main // Entry point package

import (
	"context"
	"errors"
	"fmt"
	"log" // Logging library
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"         // Echo web framework
	glog "github.com/labstack/gommon/log" // Echo's leveled logger

	"github.com/iliyamo/summer-camp-booking/internal/config"
	"github.com/iliyamo/summer-camp-booking/internal/database"
	"github.com/iliyamo/summer-camp-booking/internal/handler"
	"github.com/iliyamo/summer-camp-booking/internal/middleware"
	"github.com/iliyamo/summer-camp-booking/internal/obs"
	"github.com/iliyamo/summer-camp-booking/internal/queue"
	"github.com/iliyamo/summer-camp-booking/internal/repository"
	"github.com/iliyamo/summer-camp-booking/internal/router"
	"github.com/iliyamo/summer-camp-booking/internal/service"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err) // Log and exit if startup or the server fails
	}
}

// run wires the application and blocks until a shutdown signal arrives or
// the HTTP server fails.  Deferred cleanups run on every return path.
func run() error {
	cfg, err := config.Load() // Load environment config
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OTelEnabled {
		shutdown, err := obs.InitTracer(ctx, cfg.ServiceName, cfg.OTelEndpoint, cfg.Env)
		if err != nil {
			log.Printf("tracing disabled: %v", err)
		} else {
			defer func() { _ = shutdown(context.Background()) }()
		}
	}

	client, err := database.Open(ctx, cfg.MongoURI)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Printf("mongo disconnect: %v", err)
		}
	}()
	db := client.Database(cfg.MongoDB)
	if err := database.EnsureIndexes(ctx, db); err != nil {
		return fmt.Errorf("db indexes: %w", err)
	}

	users := repository.NewUserRepo(db)
	menu := repository.NewMenuRepo(db)
	carts := repository.NewCartRepo(db)

	// Redis is optional; without it the role cache, rate limiter and
	// response cache are all off.
	rcfg, err := config.LoadRedisConfig()
	if err != nil {
		return fmt.Errorf("redis config: %w", err)
	}
	rdb := config.NewRedisClient(rcfg)
	if rdb == nil {
		log.Printf("redis unavailable at %s; running without cache and rate limit", rcfg.Address())
	} else {
		defer rdb.Close()
	}
	rl, err := config.LoadRateLimitConfig()
	if err != nil {
		return fmt.Errorf("rate limit config: %w", err)
	}
	cc, err := config.LoadCacheConfig()
	if err != nil {
		return fmt.Errorf("cache config: %w", err)
	}

	fresh := service.NewStoreRoleProvider(users)
	roles := service.RoleProvider(fresh)
	var roleCache service.RoleCache
	if cfg.RoleCacheEnabled {
		roles = service.NewCachedRoleProvider(fresh, rdb, cfg.RoleCacheTTL)
		roleCache, _ = roles.(service.RoleCache)
	}

	var events service.EventPublisher = service.NopPublisher{}
	if cfg.EventsEnabled {
		if pub, err := service.NewPublisher(cfg.RabbitURL); err != nil {
			log.Printf("events disabled: %v", err)
		} else {
			events = pub
			defer pub.Close()
		}
		go func() {
			if err := queue.StartCartConsumer(ctx, cfg.RabbitURL, cfg.CartLogDir); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("cart-consumer stopped: %v", err)
			}
		}()
	}

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Logger.SetLevel(logLevel(cfg.LogLevel))
	e.HTTPErrorHandler = handler.ErrorHandler

	deps := router.Deps{
		Secret:     cfg.JWTSecret,
		TokenTTL:   cfg.TokenTTL,
		Timeout:    cfg.DBTimeout,
		Users:      users,
		Menu:       menu,
		Carts:      carts,
		Roles:      roles,
		FreshRoles: fresh,
		RoleCache:  roleCache,
		Ping:       func(ctx context.Context) error { return database.Ping(ctx, client) },
		Events:     events,
		Redis:      rdb,
		RateLimit:  rl,
		Cache:      middleware.NewResponseCache(cc, rdb),
	}
	router.Use(e, deps)
	router.RegisterRoutes(e, deps) // Register application routes

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	serveErr := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) { // Start HTTP server
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}
	log.Printf("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(sctx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	return nil
}

func logLevel(s string) glog.Lvl {
	switch s {
	case "debug":
		return glog.DEBUG
	case "warn":
		return glog.WARN
	case "error":
		return glog.ERROR
	case "off":
		return glog.OFF
	}
	return glog.INFO
}
