package common

const (
	EnvKeyGoEnv string = "GO_ENV"

	EnvKeyRunIntegrationTests string = "RUN_INTEGRATION_TESTS"
	EnvKeyLogDir              string = "LOG_DIR"

	EnvKeyIOTDBType string = "IOT_DB_TYPE"
	EnvKeyIOTDbPath string = "IOT_DB_PATH"
	EnvKeyIOTDbDSN  string = "IOT_DB_DSN"

	EnvKeyIOTHttpHostPort string = "IOT_HTTP_HOST_PORT"
	EnvKeyIOTGrpcHostPort string = "IOT_GRPC_HOST_PORT"

	EnvKeyIOTDefaultRate  string = "IOT_DEFAULT_RATE"
	EnvKeyIOTDefaultBurst string = "IOT_DEFAULT_BURST"

	EnvKeyInternalAPISecret string = "INTERNAL_API_SECRET"
	EnvKeyAppNamespace      string = "ANCHOR_APP_NAMESPACE"
	EnvKeyLedgerTimeout     string = "LEDGER_TIMEOUT"

	EnvKeyMQTTBroker    string = "MQTT_BROKER"
	EnvKeyMQTTClientID  string = "MQTT_CLIENT_ID"
	EnvKeyMQTTUser      string = "MQTT_USER"
	EnvKeyMQTTPass      string = "MQTT_PASS"
	EnvKeyMQTTTopicRoot string = "MQTT_TOPIC_ROOT"

	EnvKeyIotaNodeURL     string = "IOTA_NODE_URL"
	EnvKeyIotaExplorerURL string = "IOTA_EXPLORER_URL"
	EnvKeyIotaNetwork     string = "IOTA_NETWORK"

	EnvKeySignumNodeURL       string = "SIGNUM_NODE_URL"
	EnvKeySignumExplorerURL   string = "SIGNUM_EXPLORER_URL"
	EnvKeySignumNetwork       string = "SIGNUM_NETWORK"
	EnvKeySignumRecipient     string = "SIGNUM_RECIPIENT"
	EnvKeySignumPassphrase    string = "SIGNUM_PASSPHRASE"
	EnvKeySignumPublicKey     string = "SIGNUM_PUBLIC_KEY"
	EnvKeySignumFeeUnitPlanck string = "SIGNUM_FEE_UNIT_PLANCK"

	EnvKeyPollerInterval  string = "POLLER_INTERVAL"
	EnvKeyPollerBatchSize string = "POLLER_BATCH_SIZE"
	EnvKeyPollerWorkers   string = "POLLER_WORKERS"
	EnvKeyPollerLockTTL   string = "POLLER_LOCK_TTL"

	EnvKeyRedisAddr     string = "REDIS_ADDR"
	EnvKeyRedisPassword string = "REDIS_PASSWORD"
	EnvKeyRedisDB       string = "REDIS_DB"

	LoggerNameAnchorCore    string = "anchor_core"
	LoggerNameRestfulServer string = "restful_server"
	LoggerNameGrpcServer    string = "grpc_server"
	LoggerNameIngestor      string = "ingestor"
	LoggerNameLedger        string = "ledger"

	LoggerFieldCategory      string = "category"
	LoggerCategoryUpload     string = "upload"
	LoggerCategoryAttempt    string = "attempt"
	LoggerCategoryConfirm    string = "confirm"
	LoggerCategoryPoller     string = "poller"
	LoggerCategoryStats      string = "stats"
	LoggerCategoryReading    string = "reading"
	LoggerCategoryPreference string = "preference"
)
