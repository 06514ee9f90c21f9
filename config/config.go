package config

import "time"

type Config struct {
	AppName            string `env:"APP_NAME" env-default:"foxglove"`
	LogLevel           string `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs         bool   `env:"PRETTY_LOGS" env-default:"false"`
	StartupMaxAttempts int    `env:"STARTUP_MAX_ATTEMPTS" env-default:"5"`

	// PostgreSQL (destination store)
	DatabaseDriver                string        `env:"DB_DRIVER" env-default:"postgres"`
	DatabaseHost                  string        `env:"DB_HOST" env-default:"localhost"`
	DatabasePort                  string        `env:"DB_PORT" env-default:"5432"`
	DatabaseUserName              string        `env:"DB_USER_NAME" env-default:""`
	DatabasePassword              string        `env:"DB_PASSWORD" env-default:""`
	DatabaseName                  string        `env:"DB_NAME" env-default:"quriousri"`
	DatabaseSSLMode               string        `env:"DB_SSL_MODE" env-default:"disable"`
	DatabaseMaxOpenConns          int           `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	DatabaseMaxIdleConns          int           `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	DatabaseConnMaxLifetime       time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"10s"`
	DatabaseMigrationFolderPath   string        `env:"DB_MIGRATION_FOLDER_PATH" env-default:"db/pg"`
	DatabaseMigrationVersion      int           `env:"DB_MIGRATION_VERSION" env-default:"0"`
	DatabaseMigrationForce        int           `env:"DB_MIGRATION_FORCE" env-default:"0"`
	DatabaseMigrationAutoRollback bool          `env:"DB_MIGRATION_AUTO_ROLLBACK" env-default:"true"`

	// Source data (FDA bulk downloads)
	DrugsBulkURL       string        `env:"DRUGS_BULK_URL" env-default:"https://download.open.fda.gov/drug/drugsfda/drug-drugsfda-0001-of-0001.json.zip"`
	LabelMetadataURL   string        `env:"LABEL_METADATA_URL" env-default:"https://api.fda.gov/drug/label.json?limit=1"`
	LabelShardBaseURL  string        `env:"LABEL_SHARD_BASE_URL" env-default:"https://download.open.fda.gov/drug/label"`
	DownloadDir        string        `env:"DOWNLOAD_DIR" env-default:"output"`
	RequestTimeout     time.Duration `env:"REQUEST_TIMEOUT" env-default:"300s"`
	DownloadMaxRetries int           `env:"DOWNLOAD_MAX_RETRIES" env-default:"3"`

	// Load behavior
	LabelBatchSize  int `env:"LABEL_BATCH_SIZE" env-default:"1000"`
	TrialLimit      int `env:"TRIAL_LIMIT" env-default:"0"`       // max records per module, 0 = unlimited
	TrialShardLimit int `env:"TRIAL_SHARD_LIMIT" env-default:"0"` // max label shards, 0 = all

	// Pipeline modules
	RegistrationEnabled bool `env:"REGISTRATION_PIPELINE_ENABLED" env-default:"true"`
	LabelEnabled        bool `env:"LABEL_PIPELINE_ENABLED" env-default:"true"`

	// Kafka producer (lifecycle events)
	KafkaProducerEnabled bool     `env:"KAFKA_PRODUCER_ENABLED" env-default:"false"`
	KafkaBrokers         []string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaOutputTopic     string   `env:"KAFKA_OUTPUT_TOPIC" env-default:"drug-load-events"`
	KafkaBatchSize       int      `env:"KAFKA_BATCH_SIZE" env-default:"100"`
	KafkaBatchTimeout    int      `env:"KAFKA_BATCH_TIMEOUT_MS" env-default:"100"`
	KafkaRequiredAcks    int      `env:"KAFKA_REQUIRED_ACKS" env-default:"1"`
	KafkaCompression     string   `env:"KAFKA_COMPRESSION" env-default:"snappy"`
}
