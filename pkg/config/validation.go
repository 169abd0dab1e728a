package config

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError 单个字段的校验错误
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s=%v: %s", e.Field, e.Value, e.Message)
}

// ValidationErrors 聚合的校验错误
type ValidationErrors []ValidationError

func (es ValidationErrors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return "invalid config: " + strings.Join(msgs, "; ")
}

// Validate 一次性返回所有问题，而不是遇到第一个就停
func (c *Config) Validate() error {
	var errs ValidationErrors
	add := func(field string, value any, msg string) {
		errs = append(errs, ValidationError{Field: field, Value: value, Message: msg})
	}

	if err := c.Thresholds.Validate(); err != nil {
		add("thresholds", c.Thresholds, err.Error())
	}
	if err := c.Simulation.Validate(); err != nil {
		add("simulation", c.Simulation, err.Error())
	}

	if c.Loan.CollateralAmount < 0 {
		add("loan.collateral_amount", c.Loan.CollateralAmount, "must not be negative")
	}
	if c.Loan.AssetPrice < 0 {
		add("loan.asset_price", c.Loan.AssetPrice, "must not be negative")
	}
	if c.Loan.LoanAmount < 0 {
		add("loan.loan_amount", c.Loan.LoanAmount, "must not be negative")
	}
	if c.Loan.AnnualInterestRate < 0 {
		add("loan.annual_interest_rate", c.Loan.AnnualInterestRate, "must not be negative")
	}

	switch c.App.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		add("app.log_level", c.App.LogLevel, "must be one of debug, info, warn, error")
	}
	if c.App.NodeID < 0 || c.App.NodeID > 1023 {
		add("app.node_id", c.App.NodeID, "must be within [0, 1023]")
	}

	switch c.Alerts.Backend {
	case "memory":
	case "redis":
		if !c.Redis.Enabled {
			add("alerts.backend", c.Alerts.Backend, "requires redis.enabled")
		}
	default:
		add("alerts.backend", c.Alerts.Backend, "must be memory or redis")
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		add("redis.addr", c.Redis.Addr, "required when redis is enabled")
	}
	if c.MySQL.Enabled && c.MySQL.DSN == "" {
		add("mysql.dsn", c.MySQL.DSN, "required when mysql is enabled")
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Producer.Brokers) == 0 {
			add("kafka.producer.brokers", c.Kafka.Producer.Brokers, "required when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			add("kafka.topic", c.Kafka.Topic, "required when kafka is enabled")
		}
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		add("nats.url", c.NATS.URL, "required when nats is enabled")
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		add("metrics.addr", c.Metrics.Addr, "required when metrics is enabled")
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// AsValidationErrors 取出聚合的校验错误
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var ve ValidationErrors
	ok := errors.As(err, &ve)
	return ve, ok
}
