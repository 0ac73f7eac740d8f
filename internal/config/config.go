package config

import (
	"time"

	"github.com/spf13/viper"

	pkgconfig "github.com/supdesk/relay-service/pkg/config"
	"github.com/supdesk/relay-service/pkg/database"
	"github.com/supdesk/relay-service/pkg/log"
)

type Config struct {
	Server    ServerConfig
	WebSocket WebSocketConfig
	Auth      AuthConfig
	Store     StoreConfig
	Database  database.Config
	Directory DirectoryConfig
	Cache     CacheConfig
	Feed      FeedConfig
	Log       log.Config
}

type ServerConfig struct {
	Host string
	Port int
}

type WebSocketConfig struct {
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
}

type AuthConfig struct {
	TokenTTL          time.Duration `mapstructure:"token_ttl"`
	Issuer            string
	DefaultCredential string `mapstructure:"default_credential"`
}

type StoreConfig struct {
	Driver    string // cassandra, memory
	MachineID int64  `mapstructure:"machine_id"`
	Cassandra CassandraConfig
}

type CassandraConfig struct {
	Hosts          []string
	Keyspace       string
	Consistency    string
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	Timeout        time.Duration
}

type DirectoryConfig struct {
	Driver string // gorm, memory
}

type CacheConfig struct {
	Enabled  bool
	Address  string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

type FeedConfig struct {
	Enabled    bool
	Brokers    string
	Topic      string
	Partitions int
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 9092)
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.max_message_size", 4096)
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("auth.issuer", "relay-service")
	v.SetDefault("auth.default_credential", "default")
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.machine_id", 0)
	v.SetDefault("store.cassandra.hosts", []string{"localhost:9042"})
	v.SetDefault("store.cassandra.keyspace", "relay")
	v.SetDefault("store.cassandra.consistency", "LOCAL_QUORUM")
	v.SetDefault("store.cassandra.connect_timeout", "10s")
	v.SetDefault("store.cassandra.timeout", "5s")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.file_path", "relay.db")
	v.SetDefault("directory.driver", "gorm")
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.address", "localhost:6379")
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.prefix", "relay:history")
	v.SetDefault("cache.ttl", "60s")
	v.SetDefault("feed.enabled", false)
	v.SetDefault("feed.brokers", "localhost:9092")
	v.SetDefault("feed.topic", "relay-messages")
	v.SetDefault("feed.partitions", 8)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.service_name", "relay-service")

	// Override from environment
	v.BindEnv("server.port", "PORT")
	v.BindEnv("store.driver", "STORE_DRIVER")
	v.BindEnv("store.cassandra.hosts", "CASSANDRA_HOSTS")
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("directory.driver", "DIRECTORY_DRIVER")
	v.BindEnv("cache.enabled", "CACHE_ENABLED")
	v.BindEnv("cache.address", "REDIS_ADDRESS")
	v.BindEnv("cache.password", "REDIS_PASSWORD")
	v.BindEnv("feed.enabled", "FEED_ENABLED")
	v.BindEnv("feed.brokers", "KAFKA_BROKERS")
	v.BindEnv("feed.topic", "KAFKA_TOPIC")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Parse durations
	cfg.WebSocket.PingInterval = parseDuration(v, "websocket.ping_interval", 30*time.Second)
	cfg.WebSocket.PongWait = parseDuration(v, "websocket.pong_wait", 60*time.Second)
	cfg.WebSocket.WriteWait = parseDuration(v, "websocket.write_wait", 10*time.Second)
	cfg.Auth.TokenTTL = parseDuration(v, "auth.token_ttl", 24*time.Hour)
	cfg.Store.Cassandra.ConnectTimeout = parseDuration(v, "store.cassandra.connect_timeout", 10*time.Second)
	cfg.Store.Cassandra.Timeout = parseDuration(v, "store.cassandra.timeout", 5*time.Second)
	cfg.Cache.TTL = parseDuration(v, "cache.ttl", time.Minute)

	return &cfg, nil
}

func parseDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	str := v.GetString(key)
	d, err := time.ParseDuration(str)
	if err != nil {
		return defaultVal
	}
	return d
}
