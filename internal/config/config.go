package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	AppEnv   string         `mapstructure:"app_env"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	DB       DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	RBAC     RBACConfig     `mapstructure:"rbac"`
	Leave    LeaveConfig    `mapstructure:"leave"`
	Mail     MailConfig     `mapstructure:"mail"`
	Outbox   OutboxConfig   `mapstructure:"outbox"`
	Retries  int            `mapstructure:"connect_retries"`
}

type HTTPConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	RateLimit    float64       `mapstructure:"rate_limit"`
	RateBurst    int           `mapstructure:"rate_burst"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	Port            string        `mapstructure:"port"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Addr string `mapstructure:"addr"`
}

type KafkaConfig struct {
	Broker        string `mapstructure:"broker"`
	ConsumerGroup string `mapstructure:"consumer_group"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type RBACConfig struct {
	ModelPath string `mapstructure:"model_path"`
}

type LeaveConfig struct {
	Timezone string `mapstructure:"timezone"`
}

// MailConfig selects the SMTP relay. An empty Host means notifications are
// only logged.
type MailConfig struct {
	From     string `mapstructure:"from"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type OutboxConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	BatchSize    int           `mapstructure:"batch_size"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_env", "development")
	v.SetDefault("connect_retries", 5)

	v.SetDefault("http.port", "3000")
	v.SetDefault("http.read_timeout", 5*time.Second)
	v.SetDefault("http.write_timeout", 10*time.Second)
	v.SetDefault("http.idle_timeout", 60*time.Second)
	v.SetDefault("http.rate_limit", 20.0)
	v.SetDefault("http.rate_burst", 40)

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "hrms")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", time.Hour)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("kafka.broker", "")
	v.SetDefault("kafka.consumer_group", "go-hrms-notifications")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("rbac.model_path", "internal/rbac/infra/model.conf")
	v.SetDefault("leave.timezone", "UTC")
	v.SetDefault("mail.from", "hr@localhost")
	v.SetDefault("mail.host", "")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("outbox.poll_interval", 3*time.Second)
	v.SetDefault("outbox.batch_size", 50)
}

// Load reads configuration from the environment. Nested keys map to
// upper-case env names with dots replaced by underscores (db.host -> DB_HOST).
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// PORT is what most platforms inject.
	if err := v.BindEnv("http.port", "HTTP_PORT", "PORT"); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.DB.MaxIdleConns > c.DB.MaxOpenConns {
		errs = append(errs, errors.New("db.max_idle_conns cannot be greater than db.max_open_conns"))
	}
	if _, err := time.LoadLocation(c.Leave.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("leave.timezone: %w", err))
	}
	if c.Outbox.BatchSize < 1 {
		errs = append(errs, errors.New("outbox.batch_size must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// Location is the timezone used to decide what "today" is for leave dates.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Leave.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
