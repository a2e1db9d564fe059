package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

var (
	ErrEmptyToken    = errors.New("error getting DS_TELEGRAM_TOKEN: variable not specified or contains an empty string")
	ErrEmptyStoreURL = errors.New("error getting DS_STORE_URL: variable not specified or contains an empty string")
	ErrBadDriver     = errors.New("error getting DS_STORAGE_DRIVER: supported drivers are sqlite, redis")
)

// Storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

type Config struct {
	Env      string // Env is the current environment: local, development, production.
	StoreURL string // StoreURL is the storefront origin, e.g. https://darkside.example.
	HTTPAddr string
	Storage  Storage
	Tg       Telegram
	Search   Search
	// RateLimit is the number of storefront requests per second.
	RateLimit float64
	// ProductTTL is how long product snapshots stay in the in-memory cache.
	ProductTTL time.Duration
	// MoneyFormat is the shop money format, e.g. "${{amount}}".
	MoneyFormat string
}

type Storage struct {
	Driver        string
	Path          string // Path is the sqlite database file.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

type Telegram struct {
	Token   string        // Token is an unique telgram bot token.
	Timeout time.Duration // Timeout is a poller timeout duration.
}

type Search struct {
	Debounce  time.Duration
	MinLength int
	Limit     int
}

// MustLoad loads the configuration from environment variables and returns a Config struct.
func MustLoad() *Config {
	viper.SetEnvPrefix("DS")
	viper.AutomaticEnv()

	// optional args
	viper.SetDefault("ENV", "production")
	viper.SetDefault("HTTP_ADDR", ":8080")
	viper.SetDefault("STORAGE_DRIVER", DriverSQLite)
	viper.SetDefault("STORAGE_PATH", "darkside.db")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("TELEGRAM_TIMEOUT", "15s")
	viper.SetDefault("SEARCH_DEBOUNCE", "300ms")
	viper.SetDefault("SEARCH_MIN_LENGTH", 2)
	viper.SetDefault("SEARCH_LIMIT", 8)
	viper.SetDefault("RATE_LIMIT", 4)
	viper.SetDefault("PRODUCT_CACHE_TTL", "10m")
	viper.SetDefault("MONEY_FORMAT", "${{amount}}")

	if viper.GetString("TELEGRAM_TOKEN") == "" {
		panic(ErrEmptyToken)
	}

	if viper.GetString("STORE_URL") == "" {
		panic(ErrEmptyStoreURL)
	}

	driver := viper.GetString("STORAGE_DRIVER")
	if driver != DriverSQLite && driver != DriverRedis {
		panic(ErrBadDriver)
	}

	return &Config{
		Env:      viper.GetString("ENV"),
		StoreURL: viper.GetString("STORE_URL"),
		HTTPAddr: viper.GetString("HTTP_ADDR"),
		Storage: Storage{
			Driver:        driver,
			Path:          viper.GetString("STORAGE_PATH"),
			RedisAddr:     viper.GetString("REDIS_ADDR"),
			RedisPassword: viper.GetString("REDIS_PASSWORD"),
			RedisDB:       viper.GetInt("REDIS_DB"),
		},
		Tg: Telegram{
			Token:   viper.GetString("TELEGRAM_TOKEN"),
			Timeout: viper.GetDuration("TELEGRAM_TIMEOUT"),
		},
		Search: Search{
			Debounce:  viper.GetDuration("SEARCH_DEBOUNCE"),
			MinLength: viper.GetInt("SEARCH_MIN_LENGTH"),
			Limit:     viper.GetInt("SEARCH_LIMIT"),
		},
		RateLimit:   viper.GetFloat64("RATE_LIMIT"),
		ProductTTL:  viper.GetDuration("PRODUCT_CACHE_TTL"),
		MoneyFormat: viper.GetString("MONEY_FORMAT"),
	}
}
