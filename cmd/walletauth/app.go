package main

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/layer-3/walletauth/adapters/events"
	"github.com/layer-3/walletauth/adapters/limiter"
	"github.com/layer-3/walletauth/adapters/signature"
	"github.com/layer-3/walletauth/adapters/store"
	"github.com/layer-3/walletauth/adapters/tokenizer"
	"github.com/layer-3/walletauth/internal/config"
	"github.com/layer-3/walletauth/internal/logging"
	"github.com/layer-3/walletauth/internal/metrics"
	"github.com/layer-3/walletauth/ports"
	"github.com/layer-3/walletauth/service"
)

// app holds the wired service and the connections it owns
type app struct {
	cfg    *config.Config
	logger *logrus.Entry

	redis   *redis.Client
	db      *sqlx.DB
	closers []func() error
}

func loadConfig() (*config.Config, error) {
	if err := config.LoadEnv(envFile); err != nil {
		return nil, err
	}
	return config.Load(cfgFile)
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{
		cfg:    cfg,
		logger: logging.NewLoggerWithService("walletauth", cfg.LogLevel),
	}

	if cfg.NeedsRedis() {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		a.closers = append(a.closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.redis = client
	}

	if cfg.Store == config.StorePostgres {
		db, err := store.ConnectPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		a.db = db
	}

	return a, nil
}

func (a *app) stores() (ports.UserStore, ports.TokenStore) {
	switch a.cfg.Store {
	case config.StoreRedis:
		s := store.NewRedisStore(a.redis)
		return s, s
	case config.StorePostgres:
		s := store.NewPostgresStore(a.db)
		return s, s
	default:
		s := store.NewMemoryStore()
		return s, s
	}
}

func (a *app) limiter() ports.AttemptLimiter {
	switch {
	case a.cfg.Limiter.MaxVerifyAttempts == 0:
		return ports.NoopLimiter{}
	case a.redis != nil:
		return limiter.NewRedisLimiter(a.redis, a.cfg.Limiter.MaxVerifyAttempts, a.cfg.Limiter.Window)
	default:
		return limiter.NewMemoryLimiter(a.cfg.Limiter.MaxVerifyAttempts, a.cfg.Limiter.Window)
	}
}

func (a *app) publisher() (ports.EventPublisher, error) {
	if !a.cfg.Events.Enabled {
		return ports.NoopPublisher{}, nil
	}

	pub, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client: a.redis,
		},
		logging.NewWatermillAdapter(a.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis publisher: %w", err)
	}

	p := events.NewWatermillPublisher(pub)
	a.closers = append(a.closers, p.Close)
	return p, nil
}

func (a *app) authService(collector *metrics.Collector) (*service.AuthService, error) {
	verifier, err := signature.New(a.cfg.Chain)
	if err != nil {
		return nil, err
	}

	tk, err := tokenizer.NewJWTTokenizer([]byte(a.cfg.JWT.Secret), a.cfg.JWT.Issuer)
	if err != nil {
		return nil, err
	}

	pub, err := a.publisher()
	if err != nil {
		return nil, err
	}

	users, tokens := a.stores()

	return service.NewAuthService(
		users,
		verifier,
		service.NewChallengeManager(users),
		service.NewTokenIssuer(tk, tokens, a.cfg.JWT.AccessTTL, a.cfg.JWT.RefreshTTL),
		service.WithLimiter(a.limiter()),
		service.WithEventPublisher(pub),
		service.WithRecorder(collector),
		service.WithLogger(a.logger),
	), nil
}

// Close releases connections in reverse order of acquisition
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.WithError(err).Warn("failed to close resource")
		}
	}
	a.closers = nil
}
