package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Configuration struct {
	Logs     LogsSettings     `mapstructure:"logs"`
	App      Application      `mapstructure:"app"`
	Database Database         `mapstructure:"database"`
	Kafka    KafkaConfig      `mapstructure:"kafka"`
	Redis    Redis            `mapstructure:"redis"`
	Security SecuritySettings `mapstructure:"security"`
	Server   ServerSettings   `mapstructure:"server"`
	Activity ActivityConfig   `mapstructure:"activity"`
	Cache    CacheConfig      `mapstructure:"cache"`
}

type LogsSettings struct {
	Level            string `mapstructure:"level"`
	Path             string `mapstructure:"log-path"`
	EnableJSONOutput bool   `mapstructure:"enable-json-output"`
}

type Application struct {
	Name    string `mapstructure:"name"`
	Timeout int    `mapstructure:"timeout"`
	Version string `mapstructure:"version"`
}

type Database struct {
	Url                string `mapstructure:"url"`
	DbName             string `mapstructure:"dbname"`
	UserCollection     string `mapstructure:"user-collection"`
	SessionCollection  string `mapstructure:"session-collection"`
	ActivityCollection string `mapstructure:"activity-collection"`
	Timeout            int    `mapstructure:"timeout"`
}

type KafkaConfig struct {
	Brokers          string        `mapstructure:"brokers"`
	Topic            string        `mapstructure:"topic"`
	ClientID         string        `mapstructure:"client-id"`
	Enabled          bool          `mapstructure:"enabled"`
	DialTimeout      int           `mapstructure:"dial-timeout"`
	WriteTimeout     int           `mapstructure:"write-timeout"`
	HeartbeatSeconds int           `mapstructure:"heartbeat-seconds"`
	QueueSize        int           `mapstructure:"queue-size"`
	Security         KafkaSecurity `mapstructure:"security"`
}

type KafkaSecurity struct {
	Mode      string `mapstructure:"mode"`
	Mechanism string `mapstructure:"mechanism"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
}

// BrokerList splits the comma-separated broker string into trimmed,
// non-empty addresses.
func (k *KafkaConfig) BrokerList() []string {
	parts := strings.Split(k.Brokers, ",")
	brokers := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			brokers = append(brokers, trimmed)
		}
	}
	return brokers
}

type Redis struct {
	Url      string `mapstructure:"url"`
	Password string `mapstructure:"password"`
	Db       int    `mapstructure:"db"`
}

type SecuritySettings struct {
	JwtKey string `mapstructure:"jwt-key"`
}

type ServerSettings struct {
	Port         string `mapstructure:"port"`
	Mode         string `mapstructure:"mode"`
	ReadTimeout  int    `mapstructure:"read-timeout"`
	WriteTimeout int    `mapstructure:"write-timeout"`
	IdleTimeout  int    `mapstructure:"idle-timeout"`
}

type ActivityConfig struct {
	RecentLimit int `mapstructure:"recent-limit"`
}

type CacheConfig struct {
	SessionExpirationMinutes  int    `mapstructure:"session-expiration-minutes"`
	ActivityExpirationMinutes int    `mapstructure:"activity-expiration-minutes"`
	ActivityKeyPrefix         string `mapstructure:"activity-key-prefix"`
}

func Load() *Configuration {
	cfg := read()
	logrus.Info("Configuration loaded")

	// Override with environment variables
	mongoUri := os.Getenv("MONGODB_URL")
	if mongoUri != "" {
		cfg.Database.Url = mongoUri
	}

	dbName := os.Getenv("DB_NAME")
	if dbName != "" {
		cfg.Database.DbName = dbName
	}

	redisUrl := os.Getenv("REDIS_URL")
	if redisUrl != "" {
		cfg.Redis.Url = redisUrl
	}

	redisDB := os.Getenv("REDIS_DB")
	if redisDB != "" {
		if db, err := strconv.Atoi(redisDB); err == nil {
			cfg.Redis.Db = db
		}
	}

	kafkaBrokers := os.Getenv("KAFKA_BROKERS")
	if kafkaBrokers != "" {
		cfg.Kafka.Brokers = kafkaBrokers
	}

	kafkaTopic := os.Getenv("KAFKA_ACTIVITY_TOPIC")
	if kafkaTopic != "" {
		cfg.Kafka.Topic = kafkaTopic
	}

	kafkaClientID := os.Getenv("KAFKA_CLIENT_ID")
	if kafkaClientID != "" {
		cfg.Kafka.ClientID = kafkaClientID
	}

	kafkaEnabled := os.Getenv("KAFKA_ENABLED")
	if kafkaEnabled != "" {
		cfg.Kafka.Enabled = kafkaEnabled != "false"
	}

	kafkaUsername := os.Getenv("KAFKA_USERNAME")
	if kafkaUsername != "" {
		cfg.Kafka.Security.Username = kafkaUsername
	}

	kafkaPassword := os.Getenv("KAFKA_PASSWORD")
	if kafkaPassword != "" {
		cfg.Kafka.Security.Password = kafkaPassword
	}

	jwtKey := os.Getenv("JWT_KEY")
	if jwtKey != "" {
		cfg.Security.JwtKey = jwtKey
	}

	return cfg
}

func read() *Configuration {
	viper.SetConfigFile("src/internal/config/cfg.yml")
	viper.AutomaticEnv()
	viper.SetConfigType("yml")

	var config Configuration

	err := viper.ReadInConfig()
	if err != nil {
		logrus.Panicf("Error reading config file, %s", err)
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		logrus.Panicf("Error unmarshalling config file, %s", err)
	}

	return &config
}
