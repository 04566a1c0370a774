package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host           string          `mapstructure:"host"`
	Port           int             `mapstructure:"port"`
	Mode           string          `mapstructure:"mode"`
	BaseURL        string          `mapstructure:"base_url"`
	AllowedOrigins []string        `mapstructure:"allowed_origins"`
	RateLimit      RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig throttles authenticated callers per principal. It needs Redis.
type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	RequestsPerHour   int  `mapstructure:"requests_per_hour"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	SQLitePath      string `mapstructure:"sqlite_path"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC&clientFoundRows=true",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

// IsSQLite reports whether the relational backend is the embedded SQLite file.
func (d *DatabaseConfig) IsSQLite() bool {
	return d.Driver == "sqlite"
}

type StorageConfig struct {
	// Backend selects the repository implementation: "gorm" or "bolt".
	Backend  string `mapstructure:"backend"`
	BoltPath string `mapstructure:"bolt_path"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type JWTConfig struct {
	Secret     string `mapstructure:"secret"`
	Issuer     string `mapstructure:"issuer"`
	ExpMinutes int    `mapstructure:"exp_minutes"`
}

type DelegatedKeyConfig struct {
	MaxSkewSeconds int `mapstructure:"max_skew_seconds"`
}

func (d *DelegatedKeyConfig) MaxSkew() time.Duration {
	return time.Duration(d.MaxSkewSeconds) * time.Second
}

type AuthConfig struct {
	JWT       JWTConfig          `mapstructure:"jwt"`
	Delegated DelegatedKeyConfig `mapstructure:"delegated"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type EngineConfig struct {
	// Owner is the principal allowed to approve codehashes and register merchants.
	Owner string `mapstructure:"owner"`
	// ScheduleAnchor is "processing_time" or "previous_due_date".
	ScheduleAnchor string `mapstructure:"schedule_anchor"`
	// Timezone is only used when rendering dates for operators.
	Timezone string `mapstructure:"timezone"`
}

type PaymentLockConfig struct {
	Driver     string `mapstructure:"driver"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
}

func (p *PaymentLockConfig) TTL() time.Duration {
	return time.Duration(p.TTLSeconds) * time.Second
}

type PaymentConfig struct {
	// Executor is "log" or "redis".
	Executor string            `mapstructure:"executor"`
	Stream   string            `mapstructure:"stream"`
	Lock     PaymentLockConfig `mapstructure:"lock"`
}

type AgentConfig struct {
	BaseURL         string `mapstructure:"base_url"`
	Token           string `mapstructure:"token"`
	Principal       string `mapstructure:"principal"`
	KeyFile         string `mapstructure:"key_file"`
	QuoteFile       string `mapstructure:"quote_file"`
	TrustAnchor     string `mapstructure:"trust_anchor"`
	Checksum        string `mapstructure:"checksum"`
	Codehash        string `mapstructure:"codehash"`
	IntervalSeconds int    `mapstructure:"interval_seconds"`
	BatchSize       int    `mapstructure:"batch_size"`
	Concurrency     int    `mapstructure:"concurrency"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds"`
}

func (a *AgentConfig) Interval() time.Duration {
	return time.Duration(a.IntervalSeconds) * time.Second
}

func (a *AgentConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}
