package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/opencampus/portalgw/internal/auth"
	"github.com/opencampus/portalgw/internal/config"
	"github.com/opencampus/portalgw/internal/logging"
	"github.com/opencampus/portalgw/internal/observability"
	"github.com/opencampus/portalgw/internal/ratelimit"
	"github.com/opencampus/portalgw/internal/ratelimit/store"
	"github.com/opencampus/portalgw/internal/server"
	"github.com/opencampus/portalgw/internal/token"
)

// startupTimeout bounds dependency dial-and-migrate at boot.
const startupTimeout = 30 * time.Second

// application holds all application components.
type application struct {
	config     *config.PortalConfig
	configPath string
	logger     observability.Logger
	pipeline   *logging.Logger
	server     *server.Server
	accounts   *auth.AccountStore
	redisStore *store.RedisStore
	pgSink     *logging.PostgresSink
}

// newApplication wires all components together.
func newApplication(
	cfg *config.PortalConfig,
	configPath string,
	logger observability.Logger,
) (*application, error) {
	app := &application{
		config:     cfg,
		configPath: configPath,
		logger:     logger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	pipeline, err := app.initPipeline(ctx)
	if err != nil {
		return nil, err
	}
	app.pipeline = pipeline

	codec, err := token.NewCodec([]byte(cfg.Auth.JWTSecret),
		token.WithIssuer(cfg.Auth.Issuer),
		token.WithDefaultTTL(cfg.Auth.TokenTTL.Duration()),
		token.WithCodecLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("create token codec: %w", err)
	}

	limiter, redisStore, err := app.initLimiter(cfg)
	if err != nil {
		return nil, err
	}
	app.redisStore = redisStore

	app.accounts = auth.NewAccountStore(accountsFromConfig(cfg.Auth.Accounts))

	probes := map[string]server.Pinger{}
	if redisStore != nil {
		probes["redis"] = redisStore
	}
	if app.pgSink != nil {
		probes["postgres"] = app.pgSink
	}

	srv, err := server.New(server.Deps{
		Config:          cfg,
		Logger:          pipeline,
		Codec:           codec,
		Limiter:         limiter,
		Accounts:        app.accounts,
		ProcessLogger:   logger,
		ReadinessProbes: probes,
	})
	if err != nil {
		return nil, fmt.Errorf("create server: %w", err)
	}
	app.server = srv

	return app, nil
}

// initPipeline builds the log pipeline from configuration: local sink
// always, plus whichever of the postgres, tracker and alert sinks are
// configured.
func (app *application) initPipeline(ctx context.Context) (*logging.Logger, error) {
	opts := []logging.Option{}

	if dsn := app.config.Logging.PostgresDSN; dsn != "" {
		sink, err := logging.NewPostgresSink(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("create postgres log sink: %w", err)
		}
		app.pgSink = sink
		opts = append(opts, logging.WithPersistSink(sink))
	} else {
		app.logger.Warn("log persistence disabled, no postgres DSN configured")
	}

	if endpoint := app.config.Logging.TrackerEndpoint; endpoint != "" {
		opts = append(opts, logging.WithTrackerSink(
			logging.NewTrackerSink(endpoint, logging.WithTrackerLogger(app.logger)),
		))
	}

	if webhook := app.config.Logging.AlertWebhook; webhook != "" {
		opts = append(opts, logging.WithAlertSink(logging.NewAlertSink(webhook)))
	}

	forwardLevel, err := logging.ParseLevel(app.config.Logging.ForwardLevel)
	if err != nil {
		return nil, fmt.Errorf("parse forward level: %w", err)
	}
	opts = append(opts, logging.WithForwardLevel(forwardLevel))

	return logging.New(app.logger, opts...), nil
}

// initLimiter connects to Redis and builds the per-route limiter set.
// A Redis that is down at boot is tolerated: the store error path in
// the limiter fails open, and the connection recovers on its own.
func (app *application) initLimiter(cfg *config.PortalConfig) (ratelimit.Limiter, *store.RedisStore, error) {
	if !cfg.RateLimit.Enabled {
		return ratelimit.NewNoopLimiter(), nil, nil
	}

	redisCfg := store.DefaultRedisConfig()
	redisCfg.Address = cfg.Redis.Addr
	redisCfg.Password = cfg.Redis.Password
	redisCfg.DB = cfg.Redis.DB
	redisCfg.Prefix = cfg.Redis.KeyPrefix
	if cfg.Redis.DialTimeout > 0 {
		redisCfg.DialTimeout = cfg.Redis.DialTimeout.Duration()
	}
	if cfg.Redis.ReadTimeout > 0 {
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout.Duration()
	}
	if cfg.Redis.PoolSize > 0 {
		redisCfg.PoolSize = cfg.Redis.PoolSize
	}

	redisStore, err := store.NewRedisStore(redisCfg)
	if err != nil {
		app.logger.Warn("redis unreachable at startup, rate limiting fails open until it recovers",
			observability.Error(err))
	}

	return buildPrefixRouter(cfg, redisStore), redisStore, nil
}

// buildPrefixRouter assembles the default limiter plus per-route
// overrides from the rate limit config.
func buildPrefixRouter(cfg *config.PortalConfig, st store.Store) *ratelimit.PrefixRouter {
	zlog := zap.NewNop()
	fallback := ratelimit.NewWindowLimiter(st, &ratelimit.Config{
		Limit:  cfg.RateLimit.Default.Limit,
		Window: cfg.RateLimit.Default.Window.Duration(),
	}, zlog)

	router := ratelimit.NewPrefixRouter(fallback)
	for _, route := range cfg.RateLimit.Routes {
		router.AddRule(route.PathPrefix, ratelimit.NewWindowLimiter(st, &ratelimit.Config{
			Limit:  route.Limit,
			Window: route.Window.Duration(),
		}, zlog))
	}

	return router
}

// applyReload pushes the reloadable parts of a new configuration into
// the running components: rate limit rules, the log forward level and
// the account set.
func (app *application) applyReload(cfg *config.PortalConfig) {
	if app.redisStore != nil {
		if cfg.RateLimit.Enabled {
			app.server.SetLimiter(buildPrefixRouter(cfg, app.redisStore))
		} else {
			app.server.SetLimiter(ratelimit.NewNoopLimiter())
		}
	}

	if level, err := logging.ParseLevel(cfg.Logging.ForwardLevel); err == nil {
		app.pipeline.SetForwardLevel(level)
	}

	app.accounts.Replace(accountsFromConfig(cfg.Auth.Accounts))

	app.config = cfg

	app.logger.Info("configuration reloaded",
		observability.Int("ratelimit_default", cfg.RateLimit.Default.Limit),
		observability.String("forward_level", cfg.Logging.ForwardLevel),
		observability.Int("accounts", len(cfg.Auth.Accounts)),
	)
}

func accountsFromConfig(accounts []config.Account) []auth.Account {
	out := make([]auth.Account, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, auth.Account(a))
	}
	return out
}
