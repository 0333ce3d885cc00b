package main

import (
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"liyu1981.xyz/iot-anchor-service/pkg/anchor"
	"liyu1981.xyz/iot-anchor-service/pkg/common"
	"liyu1981.xyz/iot-anchor-service/pkg/config"
	"liyu1981.xyz/iot-anchor-service/pkg/db"
	"liyu1981.xyz/iot-anchor-service/pkg/ledger"
	"liyu1981.xyz/iot-anchor-service/pkg/lock"
	"liyu1981.xyz/iot-anchor-service/pkg/metrics"
)

// app is everything the commands share, built once from config.
type app struct {
	cfg         *config.Config
	anchor      *anchor.Anchor
	metrics     *metrics.Collectors
	registry    *prometheus.Registry
	redisClient *redis.Client
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config, copy .env.example to .env first if in development")
	}

	logger := common.GetLogger()

	dialector, ok := db.UseDialector(cfg.Database.Type, cfg.Database.DSN)
	if !ok {
		return nil, errors.Errorf("unknown %s: %s", common.EnvKeyIOTDBType, cfg.Database.Type)
	}
	dbInstance := db.GetInstance(dialector)

	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	collectors := metrics.New(registry)

	anchorCore := &anchor.Anchor{
		Db: *dbInstance,
		Ledgers: anchor.Ledgers{
			Iota:   ledger.NewIotaClient(cfg.Iota.NodeURL, cfg.LedgerTimeout),
			Signum: ledger.NewSignumClient(cfg.Signum.NodeURL, cfg.LedgerTimeout),
		},
		Settings: anchor.Settings{
			AppNamespace:  cfg.AppNamespace,
			LedgerTimeout: cfg.LedgerTimeout,
			Iota: anchor.IotaSettings{
				NodeURL:     cfg.Iota.NodeURL,
				ExplorerURL: cfg.Iota.ExplorerURL,
				Network:     cfg.Iota.Network,
			},
			Signum: anchor.SignumSettings{
				ExplorerURL: cfg.Signum.ExplorerURL,
				Network:     cfg.Signum.Network,
				Recipient:   cfg.Signum.Recipient,
				Keys: ledger.SigningKeys{
					PublicKey:    cfg.Signum.PublicKey,
					SecretPhrase: cfg.Signum.Passphrase,
				},
				FeeUnitPlanck: cfg.Signum.FeeUnitPlanck,
			},
		},
		Metrics: collectors,
	}
	anchorCore.WithDefaultServices()

	a := &app{
		cfg:      cfg,
		anchor:   anchorCore,
		metrics:  collectors,
		registry: registry,
	}
	if cfg.Redis.Addr != "" {
		a.redisClient = lock.NewRedisClient(cfg.Redis)
	}

	logger.Info("Application configured",
		zap.String("db_type", cfg.Database.Type),
		zap.String("iota_node", cfg.Iota.NodeURL),
		zap.String("signum_node", cfg.Signum.NodeURL),
		zap.Bool("redis_lock", a.redisClient != nil),
	)
	return a, nil
}

func (a *app) newRateLimiterStore() *anchor.RateLimiterStore {
	return anchor.NewRateLimiterStore(rate.Limit(a.cfg.Server.DefaultRate), a.cfg.Server.DefaultBurst)
}

// newPoller locks through redis when configured; a single replica needs no lock.
func (a *app) newPoller() *anchor.Poller {
	poller := &anchor.Poller{
		Anchor:    a.anchor,
		Interval:  a.cfg.Poller.Interval,
		BatchSize: a.cfg.Poller.BatchSize,
		Workers:   a.cfg.Poller.Workers,
		LockTTL:   a.cfg.Poller.LockTTL,
	}
	if a.redisClient != nil {
		poller.Locker = lock.NewRedisLocker(a.redisClient)
	}
	return poller
}

func (a *app) close() {
	if a.redisClient != nil {
		_ = a.redisClient.Close()
	}
}
