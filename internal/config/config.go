package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/manda2/internal/logger"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server      ServerConfig   `mapstructure:"server"`
	Log         LogConfig      `mapstructure:"log"`
	Database    DatabaseConfig `mapstructure:"database"`
	OperatorJWT JWTConfig      `mapstructure:"operator_jwt"`
	UserJWT     JWTConfig      `mapstructure:"user_jwt"`
	Redis       RedisConfig    `mapstructure:"redis"`
	Queue       QueueConfig    `mapstructure:"queue"`
	Kafka       KafkaConfig    `mapstructure:"kafka"`
	CORS        CORSConfig     `mapstructure:"cors"`
	Security    SecurityConfig `mapstructure:"security"`
	Checkout    CheckoutConfig `mapstructure:"checkout"`
	Monitor     MonitorConfig  `mapstructure:"monitor"`
	Report      ReportConfig   `mapstructure:"report"`
	Metrics     MetricsConfig  `mapstructure:"metrics"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host                     string `mapstructure:"host"`
	Port                     string `mapstructure:"port"`
	Mode                     string `mapstructure:"mode"` // debug / release
	ReadHeaderTimeoutSeconds int    `mapstructure:"read_header_timeout_seconds"`
	ShutdownTimeoutSeconds   int    `mapstructure:"shutdown_timeout_seconds"`
}

// Addr 监听地址
func (c ServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// ReadHeaderTimeout 请求头读取超时
func (c ServerConfig) ReadHeaderTimeout() time.Duration {
	if c.ReadHeaderTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.ReadHeaderTimeoutSeconds) * time.Second
}

// ShutdownTimeout 优雅停机等待时长
func (c ServerConfig) ShutdownTimeout() time.Duration {
	if c.ShutdownTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
	Stderr     bool   `mapstructure:"stderr"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Level:      c.Level,
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
		Stderr:     c.Stderr,
	}
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver   string             `mapstructure:"driver"`    // 数据库驱动（sqlite/postgres）
	DSN      string             `mapstructure:"dsn"`       // 数据库连接串
	LogLevel string             `mapstructure:"log_level"` // SQL 日志级别（silent/error/warn/info）
	Pool     DatabasePoolConfig `mapstructure:"pool"`
}

// JWTConfig JWT 配置
type JWTConfig struct {
	SecretKey   string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
}

// KafkaConfig 销售事件总线配置
type KafkaConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Brokers string `mapstructure:"brokers"` // 逗号分隔
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	SubmitRateLimit RateLimitConfig `mapstructure:"submit_rate_limit"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxRequests   int `mapstructure:"max_requests"`
}

// CheckoutConfig 结账配置
type CheckoutConfig struct {
	SourceTag             string   `mapstructure:"source_tag"`
	PaymentDelayMS        int      `mapstructure:"payment_delay_ms"`
	DeliveryZones         []string `mapstructure:"delivery_zones"`
	SessionIdleTTLMinutes int      `mapstructure:"session_idle_ttl_minutes"`
}

// PaymentDelay 模拟支付处理时长
func (c CheckoutConfig) PaymentDelay() time.Duration {
	if c.PaymentDelayMS < 0 {
		return 0
	}
	return time.Duration(c.PaymentDelayMS) * time.Millisecond
}

// SessionIdleTTL 会话空闲回收时长
func (c CheckoutConfig) SessionIdleTTL() time.Duration {
	if c.SessionIdleTTLMinutes <= 0 {
		return 2 * time.Hour
	}
	return time.Duration(c.SessionIdleTTLMinutes) * time.Minute
}

// MonitorConfig 厨房看板配置
type MonitorConfig struct {
	PollIntervalSeconds int  `mapstructure:"poll_interval_seconds"`
	JitterMS            int  `mapstructure:"jitter_ms"`
	PushEnabled         bool `mapstructure:"push_enabled"`
}

// PollInterval 轮询间隔
func (c MonitorConfig) PollInterval() time.Duration {
	if c.PollIntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// Jitter 轮询抖动上限
func (c MonitorConfig) Jitter() time.Duration {
	if c.JitterMS <= 0 {
		return 0
	}
	return time.Duration(c.JitterMS) * time.Millisecond
}

// ReportConfig 报表配置
type ReportConfig struct {
	Timezone              string `mapstructure:"timezone"`
	CacheTTLSeconds       int    `mapstructure:"cache_ttl_seconds"`
	WarmupIntervalSeconds int    `mapstructure:"warmup_interval_seconds"`
	TopProductsLimit      int    `mapstructure:"top_products_limit"`
}

// MetricsConfig Prometheus 指标配置
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// Load 从 config.yml 加载配置
func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")     // 从当前目录查找
	viper.AddConfigPath("../")   // 如果从 cmd/server 运行
	viper.AddConfigPath("./etc") // etc 文件夹

	setDefaults(viper.GetViper())

	// 环境变量支持（例如 server.port -> SERVER_PORT）
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", viper.ConfigFileUsed())
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("配置解析失败: %w", err))
	}

	return &cfg
}

// Default 返回仅包含默认值的配置（测试与工具命令使用）
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Errorf("默认配置解析失败: %w", err))
	}
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_header_timeout_seconds", 10)
	v.SetDefault("server.shutdown_timeout_seconds", 15)
	v.SetDefault("log.level", "")
	v.SetDefault("log.dir", "")
	v.SetDefault("log.filename", "manda2.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)
	v.SetDefault("log.stderr", true)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./db/manda2.db")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.pool.max_open_conns", 1)
	v.SetDefault("database.pool.max_idle_conns", 1)
	v.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	v.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	v.SetDefault("operator_jwt.secret", "operator-change-me-in-production")
	v.SetDefault("operator_jwt.expire_hours", 12)
	v.SetDefault("user_jwt.secret", "user-change-me-in-production")
	v.SetDefault("user_jwt.expire_hours", 24)
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "m2")
	v.SetDefault("queue.enabled", true)
	v.SetDefault("queue.host", "127.0.0.1")
	v.SetDefault("queue.port", 6379)
	v.SetDefault("queue.password", "")
	v.SetDefault("queue.db", 1)
	v.SetDefault("queue.concurrency", 10)
	v.SetDefault("queue.queues", map[string]int{
		"default":  10,
		"critical": 5,
	})
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", "127.0.0.1:9092")
	v.SetDefault("kafka.topic", "manda2.sales")
	v.SetDefault("kafka.group_id", "manda2-monitor")
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Accept-Language",
		"Authorization",
		"Cache-Control",
		"X-Requested-With",
		"X-Request-ID",
	})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", 600)
	v.SetDefault("security.submit_rate_limit.window_seconds", 60)
	v.SetDefault("security.submit_rate_limit.max_requests", 5)
	v.SetDefault("checkout.source_tag", "Manda2")
	v.SetDefault("checkout.payment_delay_ms", 2000)
	v.SetDefault("checkout.delivery_zones", []string{
		"Condesa, CDMX",
		"Roma Norte, CDMX",
		"Polanco, CDMX",
		"Del Valle, CDMX",
		"Narvarte, CDMX",
	})
	v.SetDefault("checkout.session_idle_ttl_minutes", 120)
	v.SetDefault("monitor.poll_interval_seconds", 30)
	v.SetDefault("monitor.jitter_ms", 1500)
	v.SetDefault("monitor.push_enabled", false)
	v.SetDefault("report.timezone", "America/Mexico_City")
	v.SetDefault("report.cache_ttl_seconds", 45)
	v.SetDefault("report.warmup_interval_seconds", 300)
	v.SetDefault("report.top_products_limit", 5)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "manda2")
}
