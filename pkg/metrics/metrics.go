// 文件: pkg/metrics/metrics.go
// 模拟器 Prometheus 指标
//
// 每个 Collector 持有独立的 Registry，测试里可以随便创建多个实例

package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"loanlab.com/pkg/alert"
	"loanlab.com/pkg/loan"
	"loanlab.com/pkg/simulation"
)

const namespace = "loanlab"

// Collector 指标集合
type Collector struct {
	registry *prometheus.Registry

	Price             prometheus.Gauge
	LTV               prometheus.Gauge
	Loan              prometheus.Gauge
	CollateralValue   prometheus.Gauge
	LiquidationPrice  prometheus.Gauge
	InterestAccrued   prometheus.Gauge
	ElapsedDays       prometheus.Gauge
	AvailableToBorrow prometheus.Gauge
	ZoneSeverity      prometheus.Gauge

	Ticks         prometheus.Counter
	Reborrows     *prometheus.CounterVec // reason
	ReborrowTotal prometheus.Counter
	Alerts        *prometheus.CounterVec // metric, direction
	DroppedTicks  prometheus.Gauge
}

// New 创建并注册所有指标
func New() *Collector {
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "sim", Name: name, Help: help,
		})
	}

	c := &Collector{
		registry: prometheus.NewRegistry(),

		Price:             gauge("price", "Current simulated asset price"),
		LTV:               gauge("ltv", "Current loan-to-value ratio"),
		Loan:              gauge("loan_amount", "Current loan principal including re-borrows"),
		CollateralValue:   gauge("collateral_value", "Current collateral value"),
		LiquidationPrice:  gauge("liquidation_price", "Price at which the position is liquidated"),
		InterestAccrued:   gauge("interest_accrued", "Interest accrued since the loan started"),
		ElapsedDays:       gauge("elapsed_days", "Simulated days elapsed"),
		AvailableToBorrow: gauge("available_to_borrow", "Additional amount borrowable at target LTV"),
		ZoneSeverity:      gauge("zone_severity", "0 healthy, 1 elevated, 2 margin call, 3 liquidation"),
		DroppedTicks:      gauge("dropped_ticks", "Tick reports dropped because the consumer was slow"),

		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "sim", Name: "ticks_total",
			Help: "Total number of simulation ticks",
		}),
		Reborrows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "sim", Name: "reborrow_decisions_total",
			Help: "Re-borrow policy decisions by reason",
		}, []string{"reason"}),
		ReborrowTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "sim", Name: "reborrow_amount_total",
			Help: "Total amount added to the loan by re-borrows",
		}),
		Alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "alert", Name: "triggered_total",
			Help: "Alerts triggered by metric and direction",
		}, []string{"metric", "direction"}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.Price, c.LTV, c.Loan, c.CollateralValue, c.LiquidationPrice,
		c.InterestAccrued, c.ElapsedDays, c.AvailableToBorrow, c.ZoneSeverity,
		c.DroppedTicks, c.Ticks, c.Reborrows, c.ReborrowTotal, c.Alerts,
	)
	return c
}

// Registry 返回内部 Registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Observe 记录一次 tick
func (c *Collector) Observe(r simulation.TickReport) {
	c.Ticks.Inc()
	c.Price.Set(r.Price)
	c.LTV.Set(r.Snapshot.LTV)
	c.Loan.Set(r.Position.LoanAmount)
	c.CollateralValue.Set(r.Snapshot.CollateralValue)
	c.LiquidationPrice.Set(r.Snapshot.LiquidationPrice)
	c.InterestAccrued.Set(r.InterestAccrued)
	c.ElapsedDays.Set(r.ElapsedDays)
	c.AvailableToBorrow.Set(r.Snapshot.AvailableToBorrow)
	c.ZoneSeverity.Set(float64(r.Snapshot.Zone.Severity()))

	if r.Reborrow.Reason != "" {
		c.Reborrows.WithLabelValues(r.Reborrow.Reason).Inc()
	}
	if r.Reborrow.Applied && r.Reborrow.Delta > 0 {
		c.ReborrowTotal.Add(r.Reborrow.Delta)
	}
}

// ObserveSnapshot 记录静态快照（仓位被修改但还没 tick 时）
func (c *Collector) ObserveSnapshot(pos loan.Position, snap loan.RiskSnapshot) {
	c.Price.Set(pos.AssetPrice)
	c.Loan.Set(pos.LoanAmount)
	c.LTV.Set(snap.LTV)
	c.CollateralValue.Set(snap.CollateralValue)
	c.LiquidationPrice.Set(snap.LiquidationPrice)
	c.AvailableToBorrow.Set(snap.AvailableToBorrow)
	c.ZoneSeverity.Set(float64(snap.Zone.Severity()))
}

// ObserveAlerts 记录触发的预警
func (c *Collector) ObserveAlerts(triggers []alert.Trigger) {
	for _, t := range triggers {
		c.Alerts.WithLabelValues(string(t.Rule.Metric), string(t.Rule.Direction)).Inc()
	}
}

// SetDropped 上报 ticker 丢弃的 tick 数
func (c *Collector) SetDropped(n uint64) {
	c.DroppedTicks.Set(float64(n))
}

// Handler /metrics
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// =============================================================================
// HTTP Server
// =============================================================================

// Server 指标导出服务
type Server struct {
	addr   string
	logger *zap.Logger
	srv    *http.Server
}

// NewServer 创建指标服务
func NewServer(addr string, c *Collector, logger *zap.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return &Server{
		addr:   addr,
		logger: logger.Named("metrics"),
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start 后台启动
func (s *Server) Start() {
	go func() {
		s.logger.Info("metrics server listening", zap.String("addr", s.addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server failed", zap.Error(err))
		}
	}()
}

// Stop 优雅关闭
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping metrics server")
	return s.srv.Shutdown(ctx)
}
