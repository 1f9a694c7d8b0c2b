package config

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/fx"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var Module = fx.Provide(NewConfig)

type IConfig interface {
	Get(key string) interface{}
	GetBool(key string) bool
	GetFloat64(key string) float64
	GetInt(key string) int
	GetInt64(key string) int64
	GetString(key string) string
	GetStringSlice(key string) []string
	GetDuration(key string) time.Duration
}

type config struct {
	cfg *viper.Viper
}

func NewConfig() IConfig {
	_ = godotenv.Load()

	cfg := viper.New()
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()

	_ = cfg.BindEnv("server.port", "SERVICE_HTTP_PORT")
	_ = cfg.BindEnv("database.dns", "DATABASE_DNS")
	_ = cfg.BindEnv("database.migration", "DATABASE_MIGRATION")
	_ = cfg.BindEnv("database.host", "POSTGRES_HOST")
	_ = cfg.BindEnv("database.user", "POSTGRES_USER")
	_ = cfg.BindEnv("database.password", "POSTGRES_PASSWORD")
	_ = cfg.BindEnv("database.dbname", "POSTGRES_DATABASE")
	_ = cfg.BindEnv("database.port", "POSTGRES_PORT")
	_ = cfg.BindEnv("database.pool_max_conns", "POSTGRES_MAX_CONNECTION")
	_ = cfg.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = cfg.BindEnv("redis.addrs", "REDIS_ADDRS")
	_ = cfg.BindEnv("redis.prefix", "REDIS_PREFIX")
	_ = cfg.BindEnv("bot_token_dispatch", "BOT_TOKEN_DISPATCH")
	_ = cfg.BindEnv("operator_chat_id", "OPERATOR_CHAT_ID")
	_ = cfg.BindEnv("jwt_secret", "JWT_SECRET")
	_ = cfg.BindEnv("monitor.interval", "MONITOR_INTERVAL")
	_ = cfg.BindEnv("monitor.tier1_after", "MONITOR_TIER1_AFTER")
	_ = cfg.BindEnv("monitor.tier2_after", "MONITOR_TIER2_AFTER")
	_ = cfg.BindEnv("notify.timeout", "NOTIFY_TIMEOUT")
	_ = cfg.BindEnv("verify.ttl", "VERIFY_TTL")
	_ = cfg.BindEnv("geocode.ttl", "GEOCODE_TTL")

	cfg.SetDefault("server.port", ":8080")
	cfg.SetDefault("redis.prefix", "dispatch")
	cfg.SetDefault("monitor.interval", time.Minute)
	cfg.SetDefault("monitor.tier1_after", 5*time.Minute)
	cfg.SetDefault("monitor.tier2_after", 10*time.Minute)
	cfg.SetDefault("notify.timeout", 3*time.Second)
	cfg.SetDefault("verify.ttl", 10*time.Minute)
	cfg.SetDefault("geocode.ttl", 24*time.Hour)

	if addrs := cfg.GetString("redis.addrs"); addrs != "" {
		cfg.Set("redis.addrs", strings.Split(addrs, ","))
	}

	if cfg.GetString("database.dns") == "" {
		if dsn := buildPostgresDSN(cfg); dsn != "" {
			cfg.Set("database.dns", dsn)
		}
	}
	if cfg.GetString("database.migration") == "" {
		if url := buildPostgresURL(cfg); url != "" {
			cfg.Set("database.migration", url)
		}
	}

	return &config{cfg: cfg}
}

func (c *config) Get(key string) interface{} {
	return c.cfg.Get(key)
}

func (c *config) GetBool(key string) bool {
	return c.cfg.GetBool(key)
}

func (c *config) GetFloat64(key string) float64 {
	return c.cfg.GetFloat64(key)
}

func (c *config) GetInt(key string) int {
	return c.cfg.GetInt(key)
}

func (c *config) GetInt64(key string) int64 {
	return c.cfg.GetInt64(key)
}

func (c *config) GetString(key string) string {
	return c.cfg.GetString(key)
}

func (c *config) GetStringSlice(key string) []string {
	return c.cfg.GetStringSlice(key)
}

func (c *config) GetDuration(key string) time.Duration {
	return c.cfg.GetDuration(key)
}

func buildPostgresDSN(v *viper.Viper) string {
	user := v.GetString("database.user")
	password := v.GetString("database.password")
	dbname := v.GetString("database.dbname")
	host := v.GetString("database.host")
	port := v.GetString("database.port")
	poolMaxConns := v.GetInt("database.pool_max_conns")
	if poolMaxConns == 0 {
		poolMaxConns = 30
	}

	if user == "" && host == "" && dbname == "" {
		return ""
	}

	parts := []string{}
	if user != "" {
		parts = append(parts, "user="+user)
	}
	if password != "" {
		parts = append(parts, "password="+password)
	}
	if dbname != "" {
		parts = append(parts, "dbname="+dbname)
	}
	if host != "" {
		parts = append(parts, "host="+host)
	}
	if port != "" {
		parts = append(parts, "port="+port)
	}
	parts = append(parts, fmt.Sprintf("pool_max_conns=%d", poolMaxConns))

	return strings.Join(parts, " ")
}

func buildPostgresURL(v *viper.Viper) string {
	user := v.GetString("database.user")
	password := v.GetString("database.password")
	host := v.GetString("database.host")
	port := v.GetString("database.port")
	dbname := v.GetString("database.dbname")

	if user == "" || host == "" || dbname == "" {
		return ""
	}

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		user,
		password,
		host,
		port,
		dbname,
	)
}
