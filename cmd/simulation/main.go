package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"loanlab.com/pkg/alert"
	"loanlab.com/pkg/config"
	"loanlab.com/pkg/events"
	"loanlab.com/pkg/kafka"
	"loanlab.com/pkg/logger"
	"loanlab.com/pkg/metrics"
	"loanlab.com/pkg/nats"
	"loanlab.com/pkg/report"
	"loanlab.com/pkg/scenario"
	"loanlab.com/pkg/simulation"
)

// =============================================================================
// 主程序
// =============================================================================

func main() {
	configPath := flag.String("config", "", "path to YAML config (defaults are used when empty)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	log := logger.Must(cfg.App.LogLevel, cfg.App.Env)
	defer func() { _ = log.Sync() }()

	if err := events.InitSnowflake(cfg.App.NodeID); err != nil {
		log.Fatal("init snowflake failed", zap.Error(err))
	}
	runID := events.NewRunID()
	log = log.With(zap.String("run_id", runID))
	log.Info("starting loan simulation", zap.String("app", cfg.App.Name))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. 基础设施
	// -------------------------------------------------------------------------
	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal("redis ping failed", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		defer rdb.Close()
		log.Info("✅ redis connected", zap.String("addr", cfg.Redis.Addr))
	}

	publisher := buildPublisher(cfg, log)
	defer publisher.Close()
	recorder := events.NewRecorder(runID, publisher, log)

	// 2. 情景分析：启动时对初始仓位跑一遍压力测试和增长预测
	// -------------------------------------------------------------------------
	reports := buildReportService(cfg, rdb, log)
	runScenarios(ctx, cfg, runID, reports, log)

	// 3. 模拟时钟
	// -------------------------------------------------------------------------
	clock, err := simulation.NewClock(cfg.Simulation, cfg.Loan, cfg.Thresholds,
		simulation.WithLogger(log))
	if err != nil {
		log.Fatal("create clock failed", zap.Error(err))
	}
	if err := recorder.RecordReset(ctx, clock.Position(), clock.Snapshot()); err != nil {
		log.Warn("record reset failed", zap.Error(err))
	}

	// 4. 预警
	// -------------------------------------------------------------------------
	var manager alert.Manager
	if cfg.Alerts.Backend == "redis" {
		manager = alert.NewRedisManager(rdb, cfg.Alerts.Cooldown)
	} else {
		mm := alert.NewMemoryManager()
		mm.SetCooldown(cfg.Alerts.Cooldown)
		manager = mm
	}
	evaluator := alert.NewEvaluator(manager, log)

	rules := alert.DefaultRules(cfg.Thresholds)
	if cfg.Alerts.PriceLow > 0 {
		rules = append(rules, alert.AlertRule{
			AlertID:   "price_low",
			Metric:    alert.MetricPrice,
			Direction: alert.DirectionLow,
			Threshold: cfg.Alerts.PriceLow,
			Type:      alert.AlertDaily,
			Message:   "price fell below " + scenario.FormatCurrency(cfg.Alerts.PriceLow),
		})
	}
	if err := evaluator.Install(ctx, rules); err != nil {
		log.Fatal("install alert rules failed", zap.Error(err))
	}

	// 5. 指标
	// -------------------------------------------------------------------------
	collector := metrics.New()
	collector.ObserveSnapshot(clock.Position(), clock.Snapshot())
	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(cfg.Metrics.Addr, collector, log)
		metricsServer.Start()
	}

	// 6. Ticker + 广播
	// -------------------------------------------------------------------------
	ticker := simulation.NewTicker(clock, cfg.App.TickInterval, log)
	broadcaster := simulation.NewBroadcaster()
	ticks := ticker.Start()

	var wg sync.WaitGroup

	// 6.1 处理链：指标 → 预警 → 事件
	pipeline := broadcaster.Subscribe(64)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for r := range pipeline {
			collector.Observe(r)
			collector.SetDropped(ticker.Dropped())

			triggers, err := evaluator.Evaluate(ctx, r)
			if err != nil {
				log.Error("evaluate alerts failed", zap.Error(err))
			}
			collector.ObserveAlerts(triggers)

			if err := recorder.RecordTick(ctx, r); err != nil {
				log.Warn("record tick failed", zap.Int64("seq", r.Seq), zap.Error(err))
			}
			for _, t := range triggers {
				if err := recorder.RecordAlert(ctx, r, t); err != nil {
					log.Warn("record alert failed", zap.String("alert_id", t.Rule.AlertID), zap.Error(err))
				}
			}
		}
	}()

	// 6.2 控制台输出
	console := broadcaster.Subscribe(16)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for r := range console {
			log.Info("tick",
				zap.Int64("seq", r.Seq),
				zap.String("price", scenario.FormatCurrency(r.Price)),
				zap.String("ltv", scenario.FormatPercent(r.Snapshot.LTV)),
				zap.String("loan", scenario.FormatCurrency(r.Position.LoanAmount)),
				zap.Float64("day", r.ElapsedDays),
				zap.String("zone", r.Snapshot.Zone.String()),
			)
			if r.Ended {
				log.Info("🏁 loan term ended",
					zap.String("interest", scenario.FormatCurrency(r.InterestAccrued)))
			}
		}
	}()

	// 6.3 ticker → broadcaster
	wg.Add(1)
	go func() {
		defer wg.Done()
		for r := range ticks {
			if n := broadcaster.Broadcast(r); n > 0 {
				log.Warn("subscribers lagging", zap.Int("dropped", n))
			}
		}
		broadcaster.Close()
	}()

	log.Info("✅ simulation running", zap.Duration("interval", cfg.App.TickInterval))

	// 7. 等待信号
	// -------------------------------------------------------------------------
	// SIGHUP 重新加载仓位和阈值，其他信号退出
	reload := &reloader{path: *configPath, clock: clock, recorder: recorder, observer: collector, logger: log}
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	for sig := range sigCh {
		if sig != syscall.SIGHUP {
			break
		}
		if *configPath == "" {
			log.Warn("SIGHUP ignored: started without -config")
			continue
		}
		if _, err := reload.Reload(ctx); err != nil {
			log.Error("reload failed, keeping current config", zap.Error(err))
		}
	}

	log.Info("🛑 shutting down...")
	ticker.Stop()
	wg.Wait()
	cancel()

	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := metricsServer.Stop(shutdownCtx); err != nil {
			log.Warn("metrics server shutdown failed", zap.Error(err))
		}
	}

	state := clock.State()
	log.Info("final state",
		zap.String("status", string(state.Status)),
		zap.Int64("ticks", state.Ticks),
		zap.Float64("elapsed_days", state.ElapsedDays),
		zap.String("interest", scenario.FormatCurrency(state.InterestAccrued)),
	)
}

// buildPublisher 按配置组合事件发布器
func buildPublisher(cfg config.Config, log *zap.Logger) events.Publisher {
	var pubs []events.Publisher

	if cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(cfg.Kafka.Producer, log)
		if err != nil {
			log.Fatal("create kafka producer failed", zap.Error(err))
		}
		pubs = append(pubs, events.NewKafkaPublisher(producer, cfg.Kafka.Topic))
		log.Info("✅ kafka producer ready",
			zap.Strings("brokers", cfg.Kafka.Producer.Brokers),
			zap.String("topic", cfg.Kafka.Topic))
	}
	if cfg.NATS.Enabled {
		np, err := nats.NewPublisher(cfg.NATS.URL, nats.ConnOptions(log)...)
		if err != nil {
			log.Fatal("connect nats failed", zap.String("url", cfg.NATS.URL), zap.Error(err))
		}
		pubs = append(pubs, events.NewNatsPublisher(np))
		log.Info("✅ nats publisher ready", zap.String("url", cfg.NATS.URL))
	}

	switch len(pubs) {
	case 0:
		return events.NopPublisher{}
	case 1:
		return pubs[0]
	default:
		return events.NewMultiPublisher(pubs...)
	}
}

// buildReportService MySQL 未启用时返回 nil
func buildReportService(cfg config.Config, rdb *redis.Client, log *zap.Logger) *report.Service {
	if !cfg.MySQL.Enabled {
		return nil
	}
	db, err := report.OpenMySQL(cfg.MySQL.DSN)
	if err != nil {
		log.Fatal("connect mysql failed", zap.Error(err))
	}
	if err := report.AutoMigrate(db); err != nil {
		log.Fatal("migrate reports failed", zap.Error(err))
	}

	var repo report.Repository = report.NewGormRepository(db)
	if rdb != nil {
		repo = report.NewCachedRepository(repo, rdb, log)
	}
	return report.NewService(repo, log)
}

func runScenarios(ctx context.Context, cfg config.Config, runID string, svc *report.Service, log *zap.Logger) {
	pos, th := cfg.Loan, cfg.Thresholds

	results := scenario.StressTest(pos, th, cfg.Scenario.Shocks...)
	presets := scenario.Presets()
	extra := len(cfg.Scenario.Shocks)
	for i, res := range results {
		label := "custom"
		if i >= extra {
			label = presets[i-extra].Name
		}
		log.Info("stress scenario",
			zap.String("scenario", label),
			zap.String("price", scenario.FormatCurrency(res.NewPrice)),
			zap.String("ltv", scenario.FormatPercent(res.NewLTV)),
			zap.String("zone", res.Zone.String()),
		)
		for _, s := range res.Suggestions {
			log.Info("  suggestion", zap.String("kind", string(s.Kind)), zap.String("message", s.Message))
		}
		if svc != nil {
			if _, err := svc.RecordShock(ctx, runID, label, pos, th, res); err != nil {
				log.Warn("archive shock report failed", zap.Error(err))
			}
		}
	}

	proj := scenario.Project(pos, th, scenario.Projection{
		Years:        cfg.Scenario.ProjectionYears,
		AnnualGrowth: cfg.Scenario.ProjectionGrowth,
	})
	log.Info("growth projection",
		zap.Float64("years", proj.Years),
		zap.String("price", scenario.FormatCurrency(proj.ProjectedPrice)),
		zap.String("ltv", scenario.FormatPercent(proj.ProjectedLTV)),
		zap.String("available", scenario.FormatCurrency(proj.ProjectedAvailableToBorrow)),
		zap.String("interest", scenario.FormatCurrency(proj.TotalInterest)),
	)
	if svc != nil {
		if _, err := svc.RecordProjection(ctx, runID, "configured", pos, th, proj); err != nil {
			log.Warn("archive projection report failed", zap.Error(err))
		}
	}
}
