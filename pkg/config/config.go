// 文件: pkg/config/config.go
// 应用配置
//
// YAML 文件 + 环境变量展开（${VAR}），缺省字段使用 Default() 的值

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"loanlab.com/pkg/kafka"
	"loanlab.com/pkg/loan"
	"loanlab.com/pkg/scenario"
	"loanlab.com/pkg/simulation"
)

// =============================================================================
// 配置结构
// =============================================================================

// Config 顶层配置
type Config struct {
	App        AppConfig         `yaml:"app"`
	Loan       loan.Position     `yaml:"loan"`
	Thresholds loan.Thresholds   `yaml:"thresholds"`
	Simulation simulation.Config `yaml:"simulation"`
	Scenario   ScenarioConfig    `yaml:"scenario"`
	Alerts     AlertsConfig      `yaml:"alerts"`
	Redis      RedisConfig       `yaml:"redis"`
	MySQL      MySQLConfig       `yaml:"mysql"`
	Kafka      KafkaConfig       `yaml:"kafka"`
	NATS       NATSConfig        `yaml:"nats"`
	Metrics    MetricsConfig     `yaml:"metrics"`
}

// AppConfig 进程级配置
type AppConfig struct {
	Name         string        `yaml:"name"`
	Env          string        `yaml:"env"`       // development / production
	LogLevel     string        `yaml:"log_level"` // debug / info / warn / error
	NodeID       int64         `yaml:"node_id"`   // snowflake 节点号
	TickInterval time.Duration `yaml:"tick_interval"`
}

// ScenarioConfig 情景分析配置
type ScenarioConfig struct {
	// Shocks 额外的自定义冲击，和预置场景一起跑压力测试
	Shocks []scenario.Shock `yaml:"shocks"`

	// ProjectionYears / ProjectionGrowth 增长预测默认参数
	ProjectionYears  float64 `yaml:"projection_years"`
	ProjectionGrowth float64 `yaml:"projection_growth"`
}

// AlertsConfig 预警配置
type AlertsConfig struct {
	Backend  string        `yaml:"backend"` // memory / redis
	Cooldown time.Duration `yaml:"cooldown"`
	// PriceLow 价格跌破时预警，0 表示不设置
	PriceLow float64 `yaml:"price_low"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MySQLConfig 报告归档库
type MySQLConfig struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"`
}

// KafkaConfig 事件流
type KafkaConfig struct {
	Enabled  bool                 `yaml:"enabled"`
	Topic    string               `yaml:"topic"`
	GroupID  string               `yaml:"group_id"`
	Producer kafka.ProducerConfig `yaml:"producer"`
}

// NATSConfig 实时推送
type NATSConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
}

// MetricsConfig Prometheus 导出
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// =============================================================================
// 默认值 & 加载
// =============================================================================

// Default 默认配置：示例仓位 0.05 BTC @ 65000，借 2000
func Default() Config {
	return Config{
		App: AppConfig{
			Name:         "loanlab",
			Env:          "development",
			LogLevel:     "info",
			NodeID:       1,
			TickInterval: simulation.DefaultTickInterval,
		},
		Loan: loan.Position{
			CollateralAmount:   0.05,
			AssetPrice:         65000,
			LoanAmount:         2000,
			AnnualInterestRate: 0.12,
		},
		Thresholds: loan.DefaultThresholds(),
		Simulation: simulation.DefaultConfig(),
		Scenario: ScenarioConfig{
			ProjectionYears:  1,
			ProjectionGrowth: 0.2,
		},
		Alerts: AlertsConfig{
			Backend:  "memory",
			Cooldown: 60 * time.Second,
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
		Kafka: KafkaConfig{
			Topic:    "loan_sim_events",
			GroupID:  "loan-event-tail",
			Producer: kafka.DefaultProducerConfig([]string{"localhost:9092"}),
		},
		NATS:    NATSConfig{URL: "nats://localhost:4222"},
		Metrics: MetricsConfig{Enabled: true, Addr: ":9100"},
	}
}

// Load 读取配置文件；path 为空时返回默认配置
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := Parse(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse 在 cfg 现有值之上解析 YAML，然后校验
func Parse(data []byte, cfg *Config) error {
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	cfg.normalize()
	return cfg.Validate()
}

func (c *Config) normalize() {
	c.App.Env = strings.ToLower(strings.TrimSpace(c.App.Env))
	c.App.LogLevel = strings.ToLower(strings.TrimSpace(c.App.LogLevel))
	c.Alerts.Backend = strings.ToLower(strings.TrimSpace(c.Alerts.Backend))
	if c.Alerts.Backend == "" {
		c.Alerts.Backend = "memory"
	}
	if c.App.TickInterval <= 0 {
		c.App.TickInterval = simulation.DefaultTickInterval
	}
}
