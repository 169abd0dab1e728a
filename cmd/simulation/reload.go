package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"loanlab.com/pkg/config"
	"loanlab.com/pkg/loan"
	"loanlab.com/pkg/simulation"
)

type resetRecorder interface {
	RecordReset(ctx context.Context, pos loan.Position, snap loan.RiskSnapshot) error
}

type snapshotObserver interface {
	ObserveSnapshot(pos loan.Position, snap loan.RiskSnapshot)
}

// reloader SIGHUP 时重新读取配置文件，把仓位和阈值推给时钟
type reloader struct {
	path     string
	clock    *simulation.Clock
	recorder resetRecorder
	observer snapshotObserver
	logger   *zap.Logger
}

// Reload 返回是否重置了模拟
//
// 只有 loan / thresholds / simulation.loan_term_days 会生效，
// 其余配置（连接、tick 间隔、预警后端）需要重启进程。
func (r *reloader) Reload(ctx context.Context) (bool, error) {
	cfg, err := config.Load(r.path)
	if err != nil {
		return false, fmt.Errorf("reload config: %w", err)
	}

	reset, err := r.clock.Update(cfg.Loan, cfg.Thresholds, cfg.Simulation.LoanTermDays)
	if err != nil {
		return false, fmt.Errorf("apply config: %w", err)
	}

	pos, snap := r.clock.Position(), r.clock.Snapshot()
	r.observer.ObserveSnapshot(pos, snap)
	if reset {
		if err := r.recorder.RecordReset(ctx, pos, snap); err != nil {
			r.logger.Warn("record reset failed", zap.Error(err))
		}
	}

	r.logger.Info("🔄 config reloaded",
		zap.String("path", r.path),
		zap.Bool("reset", reset),
		zap.Float64("loan", pos.LoanAmount),
		zap.Float64("ltv", snap.LTV),
	)
	return reset, nil
}
