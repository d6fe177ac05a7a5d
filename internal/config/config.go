package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/yukikurage/company-task-api/internal/constants"
)

type Config struct {
	AppEnv   string
	LogLevel string
	HTTPPort int
	GinMode  string

	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	RedisHost     string
	RedisPort     string
	SessionSecret string

	JWTSecret            string
	JWTExpirationMinutes int
	JWTIssuer            string

	CacheBackend string
	TaskListTTL  time.Duration
	AnalyticsTTL time.Duration

	CompanyCodeLength      int
	CompanyCodeMaxAttempts int

	OpenAIAPIKey string
}

// Load reads configuration from the environment, falling back to an optional
// .env or config.env file in the working directory.
func Load() *Config {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig()

	v.SetConfigName("config")
	v.AddConfigPath("./config")
	_ = v.MergeInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	return &Config{
		AppEnv:   v.GetString("APP_ENV"),
		LogLevel: v.GetString("LOG_LEVEL"),
		HTTPPort: v.GetInt("HTTP_PORT"),
		GinMode:  v.GetString("GIN_MODE"),

		DBDriver:   strings.ToLower(v.GetString("DB_DRIVER")),
		DBHost:     v.GetString("DB_HOST"),
		DBPort:     v.GetString("DB_PORT"),
		DBUser:     v.GetString("DB_USER"),
		DBPassword: v.GetString("DB_PASSWORD"),
		DBName:     v.GetString("DB_NAME"),
		DBSSLMode:  v.GetString("DB_SSLMODE"),

		RedisHost:     v.GetString("REDIS_HOST"),
		RedisPort:     v.GetString("REDIS_PORT"),
		SessionSecret: v.GetString("SESSION_SECRET"),

		JWTSecret:            v.GetString("JWT_SECRET"),
		JWTExpirationMinutes: v.GetInt("JWT_EXPIRATION_MINUTES"),
		JWTIssuer:            v.GetString("JWT_ISSUER"),

		CacheBackend: strings.ToLower(v.GetString("CACHE_BACKEND")),
		TaskListTTL:  time.Duration(v.GetInt("CACHE_TASKS_TTL_SECONDS")) * time.Second,
		AnalyticsTTL: time.Duration(v.GetInt("CACHE_ANALYTICS_TTL_SECONDS")) * time.Second,

		CompanyCodeLength:      v.GetInt("COMPANY_CODE_LENGTH"),
		CompanyCodeMaxAttempts: v.GetInt("COMPANY_CODE_MAX_ATTEMPTS"),

		OpenAIAPIKey: v.GetString("OPENAI_API_KEY"),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HTTP_PORT", 8080)
	v.SetDefault("GIN_MODE", "debug")

	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "3306")
	v.SetDefault("DB_USER", "taskuser")
	v.SetDefault("DB_PASSWORD", "taskpassword")
	v.SetDefault("DB_NAME", "task_management")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("SESSION_SECRET", "default-secret-key-change-me")

	v.SetDefault("JWT_SECRET", "default-jwt-secret-change-me")
	v.SetDefault("JWT_EXPIRATION_MINUTES", 24*60)
	v.SetDefault("JWT_ISSUER", "company-task-api")

	v.SetDefault("CACHE_BACKEND", "memory")
	v.SetDefault("CACHE_TASKS_TTL_SECONDS", int(constants.DefaultTaskListTTL/time.Second))
	v.SetDefault("CACHE_ANALYTICS_TTL_SECONDS", int(constants.DefaultAnalyticsTTL/time.Second))

	v.SetDefault("COMPANY_CODE_LENGTH", constants.DefaultCompanyCodeLength)
	v.SetDefault("COMPANY_CODE_MAX_ATTEMPTS", constants.DefaultCompanyCodeMaxAttempts)

	v.SetDefault("OPENAI_API_KEY", "")
}

// RedisAddr returns host:port of the Redis server shared by sessions and the read cache.
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

// ListenAddr returns the HTTP listen address.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// DSN builds the driver-specific connection string.
func (c *Config) DSN() string {
	switch c.DBDriver {
	case "postgres":
		u := &url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.DBUser, c.DBPassword),
			Host:     c.DBHost + ":" + c.DBPort,
			Path:     "/" + c.DBName,
			RawQuery: "sslmode=" + c.DBSSLMode,
		}
		return u.String()
	case "sqlite":
		return c.DBName
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			c.DBUser,
			c.DBPassword,
			c.DBHost,
			c.DBPort,
			c.DBName,
		)
	}
}
