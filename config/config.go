// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppName            string `mapstructure:"app_name"`
	Port               int    `mapstructure:"port"`
	LogLevel           string `mapstructure:"log_level"`
	PrettyLogs         bool   `mapstructure:"pretty_logs"`
	StartupMaxAttempts int    `mapstructure:"startup_max_attempts"`

	// PostgreSQL
	DatabaseHost                string        `mapstructure:"db_host"`
	DatabasePort                int           `mapstructure:"db_port"`
	DatabaseUserName            string        `mapstructure:"db_user_name"`
	DatabasePassword            string        `mapstructure:"db_password"`
	DatabaseName                string        `mapstructure:"db_name"`
	DatabaseSSLMode             string        `mapstructure:"db_ssl_mode"`
	DatabaseMaxOpenConns        int           `mapstructure:"db_max_open_conns"`
	DatabaseMaxIdleConns        int           `mapstructure:"db_max_idle_conns"`
	DatabaseConnMaxLifetime     time.Duration `mapstructure:"db_conn_max_lifetime"`
	DatabaseMigrationFolderPath string        `mapstructure:"db_migration_folder_path"`

	// Graph database (Memgraph)
	GraphEnabled    bool   `mapstructure:"graph_enabled"`
	GraphDBHost     string `mapstructure:"graph_db_host"`
	GraphDBPort     int    `mapstructure:"graph_db_port"`
	GraphDBUser     string `mapstructure:"graph_db_user"`
	GraphDBPassword string `mapstructure:"graph_db_password"`

	// Kafka consumer (marketplace mutations)
	KafkaBrokers         []string `mapstructure:"kafka_brokers"`
	KafkaInputTopic      string   `mapstructure:"kafka_input_topic"`
	KafkaConsumerGroup   string   `mapstructure:"kafka_consumer_group"`
	KafkaConsumerEnabled bool     `mapstructure:"kafka_consumer_enabled"`

	// Kafka producer (notification events)
	KafkaNotificationTopic string `mapstructure:"kafka_notification_topic"`
	KafkaBatchSize         int    `mapstructure:"kafka_batch_size"`
	KafkaBatchTimeoutMS    int    `mapstructure:"kafka_batch_timeout_ms"`
	KafkaRequiredAcks      int    `mapstructure:"kafka_required_acks"`
	KafkaCompression       string `mapstructure:"kafka_compression"`

	// Tracing
	TracingEnabled bool   `mapstructure:"tracing_enabled"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPInsecure   bool   `mapstructure:"otlp_insecure"`
}

// Load reads configuration from the environment, with .env as a convenience
// for local development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// AutomaticEnv alone doesn't surface env-only keys to Unmarshal; binding
	// every known key makes the env the source of truth.
	for _, key := range v.AllKeys() {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind config key %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "clover-api")
	v.SetDefault("port", 3004)
	v.SetDefault("log_level", "info")
	v.SetDefault("pretty_logs", false)
	v.SetDefault("startup_max_attempts", 5)

	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", 5432)
	v.SetDefault("db_user_name", "postgres")
	v.SetDefault("db_password", "")
	v.SetDefault("db_name", "clover")
	v.SetDefault("db_ssl_mode", "disable")
	v.SetDefault("db_max_open_conns", 25)
	v.SetDefault("db_max_idle_conns", 10)
	v.SetDefault("db_conn_max_lifetime", "10s")
	v.SetDefault("db_migration_folder_path", "db/pg")

	v.SetDefault("graph_enabled", false)
	v.SetDefault("graph_db_host", "localhost")
	v.SetDefault("graph_db_port", 7687)
	v.SetDefault("graph_db_user", "")
	v.SetDefault("graph_db_password", "")

	v.SetDefault("kafka_brokers", []string{"localhost:9092"})
	v.SetDefault("kafka_input_topic", "marketplace-mutations")
	v.SetDefault("kafka_consumer_group", "clover-consumer")
	v.SetDefault("kafka_consumer_enabled", true)

	v.SetDefault("kafka_notification_topic", "notification-events")
	v.SetDefault("kafka_batch_size", 100)
	v.SetDefault("kafka_batch_timeout_ms", 100)
	v.SetDefault("kafka_required_acks", 1)
	v.SetDefault("kafka_compression", "snappy")

	v.SetDefault("tracing_enabled", false)
	v.SetDefault("otlp_endpoint", "localhost:4317")
	v.SetDefault("otlp_insecure", true)
}
