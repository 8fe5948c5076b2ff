package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置结构体（完全匹配config.yaml）
type Config struct {
	Server    ServerConfig            `mapstructure:"server"`    // 服务器配置
	Log       LogConfig               `mapstructure:"log"`       // 日志配置
	Database  DatabaseConfig          `mapstructure:"database"`  // 数据库配置
	App       AppConfig               `mapstructure:"app"`       // 运行环境
	Pipeline  PipelineConfig          `mapstructure:"pipeline"`  // 流水线配置
	Watch     WatchConfig             `mapstructure:"watch"`     // 轮询调度配置
	Sources   map[string]SourceConfig `mapstructure:"sources"`   // 申报来源（house/senate）独立配置
	Reference ReferenceConfig         `mapstructure:"reference"` // 参考数据文件
	Alerts    AlertsConfig            `mapstructure:"alerts"`    // 告警输出
	Lock      LockConfig              `mapstructure:"lock"`      // 跨进程运行锁
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port int    `mapstructure:"port"` // 服务端口
	Mode string `mapstructure:"mode"` // Gin运行模式：debug/release/test
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug/info/warn/error
	Format string `mapstructure:"format"` // text/json
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`            // postgres/mysql/sqlite
	DSN             string        `mapstructure:"dsn"`               // 连接DSN
	MaxOpenConns    int           `mapstructure:"max_open_conns"`    // 最大打开连接数
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`    // 最大空闲连接数
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"` // 连接最大存活时间
	Debug           bool          `mapstructure:"debug"`             // 打印SQL
}

// AppConfig 运行环境
type AppConfig struct {
	Dev      bool   `mapstructure:"dev"`      // 开发模式（使用fixture数据源）
	Timezone string `mapstructure:"timezone"` // 计算“今天”使用的时区
}

// PipelineConfig 流水线配置
type PipelineConfig struct {
	LookbackDays     int           `mapstructure:"lookback_days"`     // 拉取申报的回看天数
	FuzzyThreshold   float64       `mapstructure:"fuzzy_threshold"`   // 模糊匹配阈值（0-100）
	EnableFuzzy      bool          `mapstructure:"enable_fuzzy"`      // 映射阶段是否启用模糊匹配
	Score            bool          `mapstructure:"score"`             // 是否打分
	Alerts           bool          `mapstructure:"alerts"`            // 是否发送告警
	StageTimeout     time.Duration `mapstructure:"stage_timeout"`     // 单阶段外部I/O超时
	RefreshReference bool          `mapstructure:"refresh_reference"` // 每次运行前重新加载议员/委员会
}

// WatchConfig 轮询调度配置
type WatchConfig struct {
	Enabled  bool          `mapstructure:"enabled"`   // serve模式下是否同时启动轮询
	Interval time.Duration `mapstructure:"interval"`  // 轮询间隔
	Jitter   time.Duration `mapstructure:"jitter"`    // 对称随机抖动上限
	MinSleep time.Duration `mapstructure:"min_sleep"` // 最短睡眠时间
	Sources  []string      `mapstructure:"sources"`   // 参与轮询的来源
}

// SourceConfig 单个申报来源的独立配置
type SourceConfig struct {
	Kind       string `mapstructure:"kind"`        // fixture/http
	Path       string `mapstructure:"path"`        // fixture文件路径
	BaseURL    string `mapstructure:"base_url"`    // API基础地址
	Endpoint   string `mapstructure:"endpoint"`    // 申报列表接口路径
	Timeout    int    `mapstructure:"timeout"`     // 请求超时（秒）
	RetryCount int    `mapstructure:"retry_count"` // 重试次数
	AuthToken  string `mapstructure:"auth_token"`  // 通用认证Token
	Proxy      string `mapstructure:"proxy"`       // 代理地址
}

// ReferenceConfig 参考数据文件
type ReferenceConfig struct {
	MembersCSV          string `mapstructure:"members_csv"`
	CommitteesCSV       string `mapstructure:"committees_csv"`
	MemberCommitteesCSV string `mapstructure:"member_committees_csv"`
	CompanyTickers      string `mapstructure:"company_tickers"`
}

// AlertsConfig 告警输出配置
type AlertsConfig struct {
	Sink  string      `mapstructure:"sink"` // log/kafka
	Kafka KafkaConfig `mapstructure:"kafka"`
}

// KafkaConfig Kafka告警配置
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// LockConfig 运行锁配置，RedisAddr 为空时使用进程内锁
type LockConfig struct {
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	Key           string        `mapstructure:"key"`
	TTL           time.Duration `mapstructure:"ttl"`
}

// LoadConfig 加载配置文件（config/config.yaml），敏感项从 .env 覆盖（不提交 git）
func LoadConfig() (*Config, error) {
	return LoadConfigFrom("./config")
}

// LoadConfigFrom 从指定目录读取 config.yaml；文件不存在时使用默认值
func LoadConfigFrom(dir string) (*Config, error) {
	// 1. 加载 .env（若存在），env 中的值会覆盖 config.yaml 中同名字段
	_ = godotenv.Load() // 忽略错误（.env 可不存在）

	// 2. 读取 config.yaml
	v := viper.New()
	setDefaults(v)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	v.SetTypeByDefaultValue(true)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 3. 敏感字段：用 env 覆盖（优先级 env > yaml）
	overrideFromEnv(&cfg)
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "ticker.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("app.dev", true)
	v.SetDefault("app.timezone", "America/New_York")
	v.SetDefault("pipeline.lookback_days", 60)
	v.SetDefault("pipeline.fuzzy_threshold", 85.0)
	v.SetDefault("pipeline.enable_fuzzy", true)
	v.SetDefault("pipeline.score", true)
	v.SetDefault("pipeline.alerts", false)
	v.SetDefault("pipeline.stage_timeout", 2*time.Minute)
	v.SetDefault("pipeline.refresh_reference", true)
	v.SetDefault("watch.enabled", false)
	v.SetDefault("watch.interval", 75*time.Second)
	v.SetDefault("watch.jitter", 20*time.Second)
	v.SetDefault("watch.min_sleep", 5*time.Second)
	v.SetDefault("watch.sources", []string{"house", "senate"})
	v.SetDefault("alerts.sink", "log")
	v.SetDefault("alerts.kafka.topic", "ticker.alerts")
	v.SetDefault("lock.key", "ticker:pipeline:lock")
	v.SetDefault("lock.ttl", 10*time.Minute)
}

// overrideFromEnv 用环境变量覆盖敏感配置
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("TICKER_DB_URL"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("TICKER_DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("TICKER_DEV"); v != "" {
		cfg.App.Dev = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("TICKER_TZ"); v != "" {
		cfg.App.Timezone = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Alerts.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Lock.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Lock.RedisPassword = v
	}
	for name, src := range cfg.Sources {
		key := strings.ToUpper(name) + "_AUTH_TOKEN"
		if v := os.Getenv(key); v != "" {
			src.AuthToken = v
			cfg.Sources[name] = src
		}
	}
}

// Location 返回配置的时区，解析失败时退回 UTC
func (a AppConfig) Location() *time.Location {
	if a.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
