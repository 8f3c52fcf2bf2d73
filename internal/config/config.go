package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "QLINK"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	App      AppConfig      `mapstructure:"app"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Path     string `mapstructure:"path"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

type AppConfig struct {
	Environment      string   `mapstructure:"environment"`
	ShortCodeLength  int      `mapstructure:"short_code_length"`
	ManageCodeLength int      `mapstructure:"manage_code_length"`
	MaxRetries       int      `mapstructure:"max_retries"`
	OpenDelete       bool     `mapstructure:"open_delete"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	StaticDir        string   `mapstructure:"static_dir"`
}

type CacheConfig struct {
	Driver string        `mapstructure:"driver"`
	TTL    time.Duration `mapstructure:"ttl"`
	Size   int           `mapstructure:"size"`
}

type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         string `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
	MaxRetries   int    `mapstructure:"max_retry"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load читает config.yaml из ./configs или текущей директории и накладывает
// переменные окружения QLINK_*.
func Load() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "qlink.sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "qlink")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.dbname", "qlink")

	// Настройки приложения
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.short_code_length", 6)
	v.SetDefault("app.manage_code_length", 6)
	v.SetDefault("app.max_retries", 5)
	v.SetDefault("app.open_delete", false)
	v.SetDefault("app.allowed_origins", []string{})
	v.SetDefault("app.static_dir", "./public")

	v.SetDefault("cache.driver", "none")
	v.SetDefault("cache.ttl", time.Hour)
	v.SetDefault("cache.size", 10000)

	// Настройки Redis
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 5)
	v.SetDefault("redis.max_retry", 3)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported database driver %q (supported: sqlite, postgres)", c.Database.Driver)
	}

	switch c.Cache.Driver {
	case CacheRedis, CacheMemory, CacheNone:
	default:
		return fmt.Errorf("unsupported cache driver %q (supported: redis, memory, none)", c.Cache.Driver)
	}

	if c.App.ShortCodeLength <= 0 {
		return fmt.Errorf("app.short_code_length must be positive, got %d", c.App.ShortCodeLength)
	}
	if c.App.ManageCodeLength <= 0 {
		return fmt.Errorf("app.manage_code_length must be positive, got %d", c.App.ManageCodeLength)
	}
	if c.App.MaxRetries <= 0 {
		return fmt.Errorf("app.max_retries must be at least 1, got %d", c.App.MaxRetries)
	}
	if c.Cache.Driver == CacheMemory && c.Cache.Size <= 0 {
		return fmt.Errorf("cache.size must be positive for the memory cache, got %d", c.Cache.Size)
	}

	return nil
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	CacheRedis  = "redis"
	CacheMemory = "memory"
	CacheNone   = "none"
)

func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// PostgresDSN собирает строку подключения для pgx
func (c DatabaseConfig) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.DBName)
}

func (c *Config) RedisAddress() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

func (c *Config) IsProduction() bool {
	return strings.ToLower(c.App.Environment) == "production"
}

func (c *Config) GetAllowedOrigins() []string {
	if len(c.App.AllowedOrigins) == 0 {
		if c.IsProduction() {
			// В продакшене требуем явного указания origins
			return nil
		}
		return []string{"*"}
	}
	return c.App.AllowedOrigins
}
