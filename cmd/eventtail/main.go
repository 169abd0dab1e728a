package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"loanlab.com/pkg/config"
	"loanlab.com/pkg/events"
	"loanlab.com/pkg/kafka"
	"loanlab.com/pkg/logger"
	"loanlab.com/pkg/nats"
	"loanlab.com/pkg/scenario"
)

// 跟踪模拟器发出的事件：从 Kafka 消费组或 NATS 订阅读取并打印

func main() {
	configPath := flag.String("config", "", "path to YAML config")
	source := flag.String("source", "kafka", "event source: kafka or nats")
	runFilter := flag.String("run", "", "only show events of this run id")
	typeFilter := flag.String("type", "", "comma separated event types, e.g. tick,alert")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}
	log := logger.Must(cfg.App.LogLevel, cfg.App.Env)
	defer func() { _ = log.Sync() }()

	filter := events.Filter{RunID: *runFilter}
	for _, t := range strings.Split(*typeFilter, ",") {
		if t = strings.TrimSpace(t); t != "" {
			filter.Types = append(filter.Types, events.EventType(strings.ToLower(t)))
		}
	}
	tail := events.NewTail(filter, func(_ context.Context, e *events.LoanEvent) error {
		fields := []zap.Field{
			zap.Int64("event_id", e.EventID),
			zap.String("run_id", e.RunID),
			zap.Int64("seq", e.Seq),
			zap.String("price", scenario.FormatCurrency(e.Price)),
			zap.String("loan", scenario.FormatCurrency(e.Loan)),
			zap.String("ltv", scenario.FormatPercent(e.LTV)),
			zap.String("zone", e.Zone.String()),
		}
		switch e.Type {
		case events.EventReborrow:
			fields = append(fields, zap.String("delta", scenario.FormatCurrency(e.Delta)))
		case events.EventAlert:
			fields = append(fields, zap.String("alert_id", e.AlertID))
		}
		log.Info(string(e.Type), fields...)
		return nil
	}, log)

	var stop func() error

	switch *source {
	case "kafka":
		consumerCfg := kafka.DefaultConsumerConfig(cfg.Kafka.Producer.Brokers, cfg.Kafka.GroupID, []string{cfg.Kafka.Topic})
		consumer, err := kafka.NewConsumer(consumerCfg, tail.KafkaHandler(), log)
		if err != nil {
			log.Fatal("create kafka consumer failed", zap.Error(err))
		}
		consumer.Start()
		stop = func() error {
			err := consumer.Stop()
			st := consumer.Stats()
			log.Info("kafka consumer stats",
				zap.Int64("consumed", st.Consumed),
				zap.Int64("failed", st.Failed),
				zap.Int64("lag", st.Lag))
			return err
		}
		log.Info("✅ tailing kafka", zap.String("topic", cfg.Kafka.Topic), zap.String("group", cfg.Kafka.GroupID))

	case "nats":
		sub, err := nats.NewSubscriber(cfg.NATS.URL, tail.NatsHandler(), log)
		if err != nil {
			log.Fatal("connect nats failed", zap.Error(err))
		}
		if err := sub.Subscribe(events.SubjectWildcard); err != nil {
			log.Fatal("subscribe failed", zap.Error(err))
		}
		stop = sub.Close
		log.Info("✅ tailing nats", zap.String("subject", events.SubjectWildcard))

	default:
		log.Fatal("unknown source", zap.String("source", *source))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("🛑 shutting down...")
	if err := stop(); err != nil {
		log.Warn("stop failed", zap.Error(err))
	}
	st := tail.Stats()
	log.Info("tail stats",
		zap.Int64("delivered", st.Delivered),
		zap.Int64("skipped", st.Skipped),
		zap.Int64("malformed", st.Malformed))
}
