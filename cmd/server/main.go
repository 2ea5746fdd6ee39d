package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/zari-storefront/internal/adapter/cache"
	"github.com/example/zari-storefront/internal/adapter/clipboard"
	"github.com/example/zari-storefront/internal/adapter/httpapi"
	"github.com/example/zari-storefront/internal/adapter/natsstan"
	"github.com/example/zari-storefront/internal/adapter/redisstore"
	"github.com/example/zari-storefront/internal/adapter/repo"
	"github.com/example/zari-storefront/internal/checkout"
	"github.com/example/zari-storefront/internal/clientstate"
	"github.com/example/zari-storefront/internal/config"
	"github.com/example/zari-storefront/internal/delivery"
	"github.com/example/zari-storefront/internal/domain"
	"github.com/example/zari-storefront/internal/logger"
	"github.com/example/zari-storefront/internal/receiptcodec"
	"github.com/example/zari-storefront/internal/usecase"
	"github.com/example/zari-storefront/internal/verify"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const sessionIdleTTL = 24 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.LogEnv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := newStateStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	codec, err := receiptcodec.New(cfg.ReceiptSecret)
	if err != nil {
		return fmt.Errorf("receipt codec: %w", err)
	}
	table, err := loadTable(cfg.DeliveryTablePath)
	if err != nil {
		return err
	}
	gw, err := newGateway(cfg, log)
	if err != nil {
		return err
	}

	ccfg := &checkout.Config{
		Table:               table,
		Codec:               codec,
		CountryCode:         cfg.DefaultCountryCode,
		RequireVerification: cfg.VerifyRequired,
		Log:                 log,
	}
	if cb := newClipboard(cfg, log); cb != nil {
		ccfg.Clipboard = cb
	}

	state := clientstate.NewService(store, log)
	uc, err := usecase.NewCheckout(state, ccfg, gw, nil, log)
	if err != nil {
		return err
	}
	uc.IdleTTL = sessionIdleTTL
	if pub := newPublisher(cfg, log); pub != nil {
		defer pub.Close()
		uc.Publisher = pub
	}

	api := httpapi.NewServer(httpapi.Deps{
		State:    state,
		Checkout: uc,
		Decode:   usecase.DecodeReceipt{Codec: codec, Password: cfg.AdminPassword},
		Table:    table,
		Log:      log,
		WebDir:   "web",
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: api, ReadHeaderTimeout: 5 * time.Second}
	errc := make(chan error, 1)
	go func() {
		log.Info("http listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errc:
		return fmt.Errorf("http: %w", err)
	}
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	return srv.Shutdown(shutdownCtx)
}

// newStateStore picks Postgres, then Redis, then process memory.
func newStateStore(ctx context.Context, cfg config.Config, log *zap.Logger) (domain.StateStore, func(), error) {
	switch {
	case cfg.DatabaseURL != "":
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("db connect: %w", err)
		}
		if err := repo.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("init schema: %w", err)
		}
		log.Info("client state in postgres")
		return repo.NewPostgresStateStore(pool), pool.Close, nil
	case cfg.RedisAddr != "":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		s := redisstore.New(client, 0)
		if err := s.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		log.Info("client state in redis", zap.String("addr", cfg.RedisAddr))
		return s, func() { _ = client.Close() }, nil
	}
	log.Warn("no DATABASE_URL or REDIS_ADDR, client state is kept in memory")
	return cache.NewMemoryStateStore(), func() {}, nil
}

func loadTable(path string) (*delivery.Table, error) {
	if path == "" {
		return delivery.Default(), nil
	}
	return delivery.LoadFile(path)
}

// newGateway returns nil when verification is switched off.
func newGateway(cfg config.Config, log *zap.Logger) (*verify.Gateway, error) {
	var p verify.Provider
	switch cfg.VerifyProvider {
	case config.ProviderStatic:
		log.Warn("phone verification uses a static code")
		p = verify.Static{Code: cfg.VerifyStaticCode, Log: log}
	case config.ProviderTwilio:
		tw, err := verify.NewTwilio(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.ServiceSID)
		if err != nil {
			return nil, err
		}
		p = tw
	default:
		return nil, nil
	}
	return verify.NewGateway(p, cfg.VerifyCooldown, log), nil
}

// newPublisher connects the operator feed; the storefront runs without it.
func newPublisher(cfg config.Config, log *zap.Logger) *natsstan.Publisher {
	if !cfg.NATS.Enabled() {
		return nil
	}
	pub, err := natsstan.Connect(cfg.NATS.ClusterID, cfg.NATS.ClientID, cfg.NATS.URL, cfg.NATS.Subject)
	if err != nil {
		log.Warn("operator feed disabled", zap.Error(err))
		return nil
	}
	log.Info("publishing receipt tokens", zap.String("subject", cfg.NATS.Subject))
	return pub
}

func newClipboard(cfg config.Config, log *zap.Logger) domain.Clipboard {
	if !cfg.ClipboardEnabled {
		return nil
	}
	cb, err := clipboard.NewSystem()
	if err != nil {
		log.Warn("clipboard disabled", zap.Error(err))
		return nil
	}
	return cb
}
