package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	SQLitePath      string
	PostgresDSN     string
	RedisAddr       string
	MongoURI        string
	ClickHouseAddr  string
	ClickHouseDB    string
	KafkaBrokers    []string
	TopicOrders     string
	TopicPayments   string
	TopicUsers      string
	TopicWallets    string
	ConsumerGroup   string
	UseKafka        bool
	LocalDeployment bool

	CacheTTL          time.Duration
	OutboxPeriod      time.Duration
	OutboxLimit       int
	OutboxMaxAttempts int

	// Barrido de caducidad de pedidos
	SweepInterval   time.Duration
	OrderExpiration time.Duration

	HTTPPort string
}

func LoadConfig() *Config {
	getEnv := func(key, fallback string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fallback
	}

	getBool := func(key string, fallback bool) bool {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err == nil {
				return b
			}
		}
		return fallback
	}

	getDuration := func(key string, fallback time.Duration) time.Duration {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err == nil {
				return d
			}
		}
		return fallback
	}

	getInt := func(key string, fallback int) int {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err == nil {
				return n
			}
		}
		return fallback
	}

	kafkaBrokers := strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ",")

	return &Config{
		SQLitePath:      getEnv("SQLITE_PATH", "./viajelab.db"),
		PostgresDSN:     getEnv("POSTGRES_DSN", ""),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		MongoURI:        getEnv("MONGO_URI", ""),
		ClickHouseAddr:  getEnv("CLICKHOUSE_ADDR", ""),
		ClickHouseDB:    getEnv("CLICKHOUSE_DB", "viajelab"),
		KafkaBrokers:    kafkaBrokers,
		TopicOrders:     getEnv("KAFKA_TOPIC_ORDERS", "order-events"),
		TopicPayments:   getEnv("KAFKA_TOPIC_PAYMENTS", "payment-events"),
		TopicUsers:      getEnv("KAFKA_TOPIC_USERS", "user-events"),
		TopicWallets:    getEnv("KAFKA_TOPIC_WALLETS", "wallet-events"),
		ConsumerGroup:   getEnv("KAFKA_GROUP", "viajelab"),
		UseKafka:        getBool("USE_KAFKA", false),
		LocalDeployment: getBool("LOCAL_DEPLOYMENT", true),

		CacheTTL:          getDuration("CACHE_TTL", 5*time.Minute),
		OutboxPeriod:      getDuration("OUTBOX_PERIOD", 1*time.Second),
		OutboxLimit:       getInt("OUTBOX_LIMIT", 10),
		OutboxMaxAttempts: getInt("OUTBOX_MAX_ATTEMPTS", 10),

		SweepInterval:   getDuration("ORDER_SWEEP_INTERVAL", 30*time.Minute),
		OrderExpiration: getDuration("ORDER_EXPIRATION", 2*time.Hour),

		HTTPPort: getEnv("HTTP_PORT", "8080"),
	}
}
