package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/events"
	"storefront/internal/httpapi"
	"storefront/internal/logx"
	"storefront/internal/service"
	"storefront/internal/storage"
	"storefront/internal/store"
	"storefront/internal/store/memstore"
	"storefront/internal/tokencache"
)

// backend is what both store drivers provide.
type backend interface {
	store.Transactor
	Repos() store.Repos
	Ping(ctx context.Context) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logx.Fatal().Err(err).Msg("load config")
	}
	logx.Init(logx.Options{Environment: cfg.Environment()})
	if ginReleaseMode(cfg.Environment()) {
		gin.SetMode(gin.ReleaseMode)
	}
	decimal.MarshalJSONWithoutQuotes = true

	ctx := context.Background()
	var checks []httpapi.Check

	data := openStore(cfg)
	checks = append(checks, httpapi.Check{Name: "store", Ping: data.Ping})

	var tokens service.TokenCache = tokencache.NewMemory(cfg.TokenTTL())
	if cfg.Redis.URL != "" {
		rdb, err := tokencache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			logx.Fatal().Err(err).Msg("connect redis")
		}
		defer rdb.Close()
		tokens = tokencache.NewRedis(rdb, cfg.TokenTTL())
		checks = append(checks, httpapi.Check{Name: "redis", Ping: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}

	var pub events.Publisher = events.NopPublisher{}
	if cfg.AMQP.URL != "" {
		pool, err := events.NewChannelPool(cfg.AMQP.URL, cfg.AMQP.Queue, cfg.AMQP.ChannelPoolSize)
		if err != nil {
			logx.Fatal().Err(err).Msg("connect rabbitmq")
		}
		defer pool.Close()
		pub = events.NewAMQPPublisher(pool, cfg.AMQP.Queue)
	}

	uploads := storage.NewLocal(cfg.UploadDir, nil)
	if cfg.FTP.Addr != "" {
		uploads.Pusher = storage.NewFTP(cfg.FTP)
	}

	repos := data.Repos()
	router := httpapi.NewRouter(httpapi.Deps{
		Users:         service.NewUserService(repos.Users, tokens),
		Categories:    service.NewCategoryService(repos.Categories),
		Products:      service.NewProductService(repos.Products, repos.Categories, cfg.ImageHost),
		Carts:         service.NewCartService(repos.Carts, repos.Products, cfg.ImageHost),
		Shippings:     service.NewShippingService(repos.Shippings),
		Orders:        service.NewOrderService(repos, data, pub, cfg.ImageHost),
		Uploads:       uploads,
		ImageHost:     cfg.ImageHost,
		UploadDir:     cfg.UploadDir,
		SessionName:   cfg.SessionName,
		SessionSecret: cfg.SessionSecret,
		SecureCookie:  cfg.Environment().IsProduction(),
		Checks:        checks,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logx.Info().Str("addr", srv.Addr).Str("store", cfg.StoreDriver).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal().Err(err).Msg("listen")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	logx.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logx.Error().Err(err).Msg("shutdown")
	}
}

func openStore(cfg *config.App) backend {
	if cfg.StoreDriver == "memory" {
		logx.Warn().Msg("using in-memory store, data is lost on exit")
		return memstore.New()
	}
	gdb := db.MustOpen(cfg.DSN)
	if err := db.Migrate(gdb); err != nil {
		logx.Fatal().Err(err).Msg("auto-migrate")
	}
	return store.NewGorm(gdb)
}

// ginReleaseMode reports whether gin runs without its debug output.
func ginReleaseMode(env config.Environment) bool { return env != config.Development }
