package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"liyu1981.xyz/iot-anchor-service/pkg/common"
)

type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	MQTT     MQTTConfig
	Iota     IotaConfig
	Signum   SignumConfig
	Poller   PollerConfig
	Redis    RedisConfig

	AppNamespace      string
	InternalAPISecret string
	LedgerTimeout     time.Duration
}

type DatabaseConfig struct {
	Type string // file, memory or postgres
	Path string
	DSN  string
}

type ServerConfig struct {
	HttpHostPort string
	GrpcHostPort string
	DefaultRate  float64
	DefaultBurst int
}

type MQTTConfig struct {
	Broker    string
	ClientID  string
	User      string
	Pass      string
	TopicRoot string
}

type IotaConfig struct {
	NodeURL     string
	ExplorerURL string
	Network     string
}

type SignumConfig struct {
	NodeURL       string
	ExplorerURL   string
	Network       string
	Recipient     string
	Passphrase    string
	PublicKey     string
	FeeUnitPlanck int64
}

type PollerConfig struct {
	Interval  time.Duration
	BatchSize int
	Workers   int
	LockTTL   time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

const (
	DefaultIotaNodeURL      = "https://api.shimmer.network"
	DefaultIotaExplorerURL  = "https://explorer.shimmer.network/shimmer/block"
	DefaultIotaNetwork      = "shimmer"
	DefaultSignumNodeURL    = "https://europe.signum.network"
	DefaultSignumExplorer   = "https://chain.signum.network/tx"
	DefaultSignumNetwork    = "signum"
	DefaultSignumFeeUnit    = int64(735000)
	DefaultAppNamespace     = "iotanchor"
	DefaultMQTTTopicRoot    = "sensors"
	DefaultHttpHostPort     = ":1080"
	DefaultLedgerTimeout    = 30 * time.Second
	DefaultPollerInterval   = 60 * time.Second
	DefaultPollerBatchSize  = 50
	DefaultPollerWorkers    = 4
	DefaultPollerLockTTL    = 55 * time.Second
	DefaultRateLimit        = 5.0
	DefaultRateLimitBurst   = 10
	DefaultDatabaseType     = "file"
	DefaultDatabaseFilePath = "anchor.db"
)

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	// a missing .env is fine, variables may come from the environment directly
	_ = godotenv.Load()

	var err error
	cfg := &Config{
		Database: DatabaseConfig{
			Type: getEnv(common.EnvKeyIOTDBType, DefaultDatabaseType),
			Path: getEnv(common.EnvKeyIOTDbPath, DefaultDatabaseFilePath),
			DSN:  getEnv(common.EnvKeyIOTDbDSN, ""),
		},
		Server: ServerConfig{
			HttpHostPort: getEnv(common.EnvKeyIOTHttpHostPort, DefaultHttpHostPort),
			GrpcHostPort: getEnv(common.EnvKeyIOTGrpcHostPort, ""),
		},
		MQTT: MQTTConfig{
			Broker:    getEnv(common.EnvKeyMQTTBroker, "tcp://localhost:1883"),
			ClientID:  getEnv(common.EnvKeyMQTTClientID, "iot-anchor-ingestor"),
			User:      getEnv(common.EnvKeyMQTTUser, ""),
			Pass:      getEnv(common.EnvKeyMQTTPass, ""),
			TopicRoot: getEnv(common.EnvKeyMQTTTopicRoot, DefaultMQTTTopicRoot),
		},
		Iota: IotaConfig{
			NodeURL:     getEnv(common.EnvKeyIotaNodeURL, DefaultIotaNodeURL),
			ExplorerURL: getEnv(common.EnvKeyIotaExplorerURL, DefaultIotaExplorerURL),
			Network:     getEnv(common.EnvKeyIotaNetwork, DefaultIotaNetwork),
		},
		Signum: SignumConfig{
			NodeURL:     getEnv(common.EnvKeySignumNodeURL, DefaultSignumNodeURL),
			ExplorerURL: getEnv(common.EnvKeySignumExplorerURL, DefaultSignumExplorer),
			Network:     getEnv(common.EnvKeySignumNetwork, DefaultSignumNetwork),
			Recipient:   getEnv(common.EnvKeySignumRecipient, ""),
			Passphrase:  getEnv(common.EnvKeySignumPassphrase, ""),
			PublicKey:   getEnv(common.EnvKeySignumPublicKey, ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv(common.EnvKeyRedisAddr, ""),
			Password: getEnv(common.EnvKeyRedisPassword, ""),
		},
		AppNamespace:      getEnv(common.EnvKeyAppNamespace, DefaultAppNamespace),
		InternalAPISecret: getEnv(common.EnvKeyInternalAPISecret, ""),
	}

	if cfg.Server.DefaultRate, err = getFloat(common.EnvKeyIOTDefaultRate, DefaultRateLimit); err != nil {
		return nil, err
	}
	if cfg.Server.DefaultBurst, err = getInt(common.EnvKeyIOTDefaultBurst, DefaultRateLimitBurst); err != nil {
		return nil, err
	}
	if cfg.Signum.FeeUnitPlanck, err = getInt64(common.EnvKeySignumFeeUnitPlanck, DefaultSignumFeeUnit); err != nil {
		return nil, err
	}
	if cfg.Poller.Interval, err = getDuration(common.EnvKeyPollerInterval, DefaultPollerInterval); err != nil {
		return nil, err
	}
	if cfg.Poller.BatchSize, err = getInt(common.EnvKeyPollerBatchSize, DefaultPollerBatchSize); err != nil {
		return nil, err
	}
	if cfg.Poller.Workers, err = getInt(common.EnvKeyPollerWorkers, DefaultPollerWorkers); err != nil {
		return nil, err
	}
	if cfg.Poller.LockTTL, err = getDuration(common.EnvKeyPollerLockTTL, DefaultPollerLockTTL); err != nil {
		return nil, err
	}
	if cfg.Redis.DB, err = getInt(common.EnvKeyRedisDB, 0); err != nil {
		return nil, err
	}
	if cfg.LedgerTimeout, err = getDuration(common.EnvKeyLedgerTimeout, DefaultLedgerTimeout); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Type {
	case "file", "memory":
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("%s is required when %s=postgres", common.EnvKeyIOTDbDSN, common.EnvKeyIOTDBType)
		}
	default:
		return fmt.Errorf("unknown %s: %q", common.EnvKeyIOTDBType, c.Database.Type)
	}
	if c.InternalAPISecret == "" {
		return fmt.Errorf("%s is required", common.EnvKeyInternalAPISecret)
	}
	if c.AppNamespace == "" {
		return fmt.Errorf("%s can not be empty", common.EnvKeyAppNamespace)
	}
	if c.Server.DefaultRate <= 0 || c.Server.DefaultBurst <= 0 {
		return fmt.Errorf("%s and %s must be positive", common.EnvKeyIOTDefaultRate, common.EnvKeyIOTDefaultBurst)
	}
	if c.Signum.FeeUnitPlanck <= 0 {
		return fmt.Errorf("%s must be positive", common.EnvKeySignumFeeUnitPlanck)
	}
	if c.Poller.Interval <= 0 || c.Poller.BatchSize <= 0 || c.Poller.Workers <= 0 {
		return fmt.Errorf("poller interval, batch size and workers must be positive")
	}
	if c.LedgerTimeout <= 0 {
		return fmt.Errorf("%s must be positive", common.EnvKeyLedgerTimeout)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, found := os.LookupEnv(key); found && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s, should be an int value: %w", key, err)
	}
	return n, nil
}

func getInt64(key string, fallback int64) (int64, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s, should be an int64 value: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s, should be a float64 value: %w", key, err)
	}
	return f, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s, should be a duration like 30s: %w", key, err)
	}
	return d, nil
}
