package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"loanlab.com/pkg/config"
	"loanlab.com/pkg/events"
	"loanlab.com/pkg/loan"
	"loanlab.com/pkg/logger"
	"loanlab.com/pkg/report"
	"loanlab.com/pkg/scenario"
)

// 一次性情景分析：
//
//	scenario -collateral 0.05 -price 65000 -loan 2000 -shock -30
//	scenario -mode value -value 3250 -price 65000 -loan 2000 -stress
//	scenario -price 65000 -loan 2000 -years 3 -growth 25 -step 0.5
//
// 百分比参数均为展示百分比（"30" 表示 30%）

type options struct {
	input   loan.RawInput
	shock   string
	target  string
	preset  string
	stress  bool
	years   float64
	growth  string
	step    float64
	asJSON  bool
	archive bool
	config  string
}

func parseFlags() options {
	var o options
	mode := flag.String("mode", string(loan.CollateralByAmount), "collateral input mode: amount or value")
	flag.StringVar(&o.input.CollateralAmount, "collateral", "0.05", "collateral amount (BTC)")
	flag.StringVar(&o.input.CollateralValue, "value", "", "collateral value (used with -mode value)")
	flag.StringVar(&o.input.AssetPrice, "price", "65000", "current asset price")
	flag.StringVar(&o.input.LoanAmount, "loan", "2000", "loan amount")
	flag.StringVar(&o.input.AnnualInterestRate, "rate", "12", "annual interest rate %")
	flag.StringVar(&o.input.TargetLTV, "target-ltv", "", "target LTV % (default 50)")
	flag.StringVar(&o.input.MarginCallLTV, "margin-call-ltv", "", "margin call LTV % (default 70)")
	flag.StringVar(&o.input.LiquidationLTV, "liquidation-ltv", "", "liquidation LTV % (default 80)")

	flag.StringVar(&o.shock, "shock", "", "relative price change %, e.g. -30")
	flag.StringVar(&o.target, "target-price", "", "absolute target price")
	flag.StringVar(&o.preset, "preset", "", "stress preset name")
	flag.BoolVar(&o.stress, "stress", false, "run all stress presets")
	flag.Float64Var(&o.years, "years", 0, "projection horizon in years")
	flag.StringVar(&o.growth, "growth", "20", "annual growth % for projection")
	flag.Float64Var(&o.step, "step", 0, "projection series step in years (0 = single point)")
	flag.BoolVar(&o.asJSON, "json", false, "print JSON instead of text")
	flag.BoolVar(&o.archive, "archive", false, "archive results to MySQL (requires -config with mysql.enabled)")
	flag.StringVar(&o.config, "config", "", "path to YAML config")
	flag.Parse()

	o.input.CollateralMode = loan.CollateralMode(*mode)
	return o
}

func main() {
	o := parseFlags()

	cfg, err := config.Load(o.config)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log := logger.Must(cfg.App.LogLevel, cfg.App.Env)
	defer func() { _ = log.Sync() }()

	pos, th, err := loan.ParseInput(o.input)
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid thresholds:", err)
		os.Exit(2)
	}

	var svc *report.Service
	if o.archive {
		svc = openArchive(cfg, log)
	}
	runID := events.NewRunID()
	ctx := context.Background()
	out := newPrinter(o.asJSON)

	// 1. 当前仓位
	out.snapshot(pos, loan.ComputeSnapshot(pos, th))

	// 2. 价格冲击
	var shocks []namedShock
	if o.shock != "" {
		shocks = append(shocks, namedShock{"custom", scenario.RelativeShock(loan.ParsePercent(o.shock))})
	}
	if o.target != "" {
		shocks = append(shocks, namedShock{"target_price", scenario.AbsoluteShock(loan.ParseNonNegative(o.target))})
	}
	if o.preset != "" {
		p, err := scenario.FindPreset(o.preset)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		shocks = append(shocks, namedShock{p.Name, p.Shock})
	}
	if o.stress {
		for _, p := range scenario.Presets() {
			shocks = append(shocks, namedShock{p.Name, p.Shock})
		}
	}
	for _, s := range shocks {
		res := scenario.AnalyzeShock(pos, th, s.shock)
		out.shock(s.name, res)
		if svc != nil {
			if _, err := svc.RecordShock(ctx, runID, s.name, pos, th, res); err != nil {
				log.Warn("archive shock failed", zap.Error(err))
			}
		}
	}

	// 3. 增长预测
	if o.years > 0 {
		growth := loan.ParsePercent(o.growth)
		if o.step > 0 {
			out.series(scenario.ProjectSeries(pos, th, growth, o.years, o.step))
		} else {
			proj := scenario.Project(pos, th, scenario.Projection{Years: o.years, AnnualGrowth: growth})
			out.projection(proj)
			if svc != nil {
				if _, err := svc.RecordProjection(ctx, runID, "custom", pos, th, proj); err != nil {
					log.Warn("archive projection failed", zap.Error(err))
				}
			}
		}
	}
}

type namedShock struct {
	name  string
	shock scenario.Shock
}

func openArchive(cfg config.Config, log *zap.Logger) *report.Service {
	if !cfg.MySQL.Enabled {
		fmt.Fprintln(os.Stderr, "-archive requires mysql.enabled in config")
		os.Exit(2)
	}
	db, err := report.OpenMySQL(cfg.MySQL.DSN)
	if err != nil {
		log.Fatal("connect mysql failed", zap.Error(err))
	}
	if err := report.AutoMigrate(db); err != nil {
		log.Fatal("migrate reports failed", zap.Error(err))
	}
	return report.NewService(report.NewGormRepository(db), log)
}

// =============================================================================
// 输出
// =============================================================================

type printer struct {
	asJSON bool
	enc    *json.Encoder
}

func newPrinter(asJSON bool) *printer {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return &printer{asJSON: asJSON, enc: enc}
}

func (p *printer) emit(kind string, v any) {
	_ = p.enc.Encode(map[string]any{"kind": kind, "result": v})
}

func (p *printer) snapshot(pos loan.Position, s loan.RiskSnapshot) {
	if p.asJSON {
		p.emit("snapshot", s)
		return
	}
	fmt.Printf("Position: %s @ %s, loan %s\n",
		scenario.FormatAsset(pos.CollateralAmount), scenario.FormatCurrency(pos.AssetPrice), scenario.FormatCurrency(pos.LoanAmount))
	fmt.Printf("  collateral value   %s\n", scenario.FormatCurrency(s.CollateralValue))
	fmt.Printf("  LTV                %s (%s)\n", scenario.FormatPercent(s.LTV), s.Zone)
	fmt.Printf("  liquidation price  %s\n", scenario.FormatCurrency(s.LiquidationPrice))
	fmt.Printf("  to margin call     %s (%s)\n", scenario.FormatCurrency(s.BufferToMarginCallUSD), scenario.FormatPercent(s.BufferToMarginCallPct))
	fmt.Printf("  to liquidation     %s (%s)\n", scenario.FormatCurrency(s.BufferToLiquidationUSD), scenario.FormatPercent(s.BufferToLiquidationPct))
	fmt.Printf("  interest           %s/day, %s/month\n", scenario.FormatCurrency(s.DailyInterest), scenario.FormatCurrency(s.MonthlyInterest))
	fmt.Printf("  available          %s\n", scenario.FormatCurrency(s.AvailableToBorrow))
	fmt.Printf("  withdrawable       %s (%s)\n", scenario.FormatCurrency(s.WithdrawableValue), scenario.FormatAsset(s.WithdrawableAmount))
	if s.CollateralShortfall > 0 {
		fmt.Printf("  shortfall          %s\n", scenario.FormatCurrency(s.CollateralShortfall))
	}
}

func (p *printer) shock(name string, r scenario.ShockResult) {
	if p.asJSON {
		p.emit("shock", map[string]any{"name": name, "analysis": r})
		return
	}
	fmt.Printf("\nScenario %s: price %s → %s\n", name,
		scenario.FormatCurrency(r.OriginalPrice), scenario.FormatCurrency(r.NewPrice))
	fmt.Printf("  LTV %s (%s), liquidation at %s\n",
		scenario.FormatPercent(r.NewLTV), r.Zone, scenario.FormatCurrency(r.NewLiquidationPrice))
	for _, s := range r.Suggestions {
		fmt.Printf("  [%s] %s\n", s.Kind, s.Message)
	}
}

func (p *printer) projection(r scenario.ProjectionResult) {
	if p.asJSON {
		p.emit("projection", r)
		return
	}
	fmt.Printf("\nProjection %g years @ %s/yr: price %s, LTV %s (%s)\n",
		r.Years, scenario.FormatPercent(r.AnnualGrowth), scenario.FormatCurrency(r.ProjectedPrice),
		scenario.FormatPercent(r.ProjectedLTV), r.Zone)
	fmt.Printf("  available %s, interest %s\n",
		scenario.FormatCurrency(r.ProjectedAvailableToBorrow), scenario.FormatCurrency(r.TotalInterest))
}

func (p *printer) series(rs []scenario.ProjectionResult) {
	if p.asJSON {
		p.emit("series", rs)
		return
	}
	fmt.Println("\nyears  price          LTV     available")
	for _, r := range rs {
		fmt.Printf("%5.2f  %-13s  %-6s  %s\n", r.Years,
			scenario.FormatCurrency(r.ProjectedPrice), scenario.FormatPercent(r.ProjectedLTV),
			scenario.FormatCurrency(r.ProjectedAvailableToBorrow))
	}
}
