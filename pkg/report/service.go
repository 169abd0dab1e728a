// 文件: pkg/report/service.go
// 报告服务：把分析结果转换成报告并归档

package report

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"loanlab.com/pkg/loan"
	"loanlab.com/pkg/scenario"
)

// Service 报告服务
type Service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger.Named("report")}
}

// base 公共输入字段
func base(kind Kind, label string, pos loan.Position, th loan.Thresholds) *ScenarioReport {
	return &ScenarioReport{
		Kind:               kind,
		Label:              label,
		CollateralAmount:   money(pos.CollateralAmount),
		AssetPrice:         money(pos.AssetPrice),
		LoanAmount:         money(pos.LoanAmount),
		AnnualInterestRate: pos.AnnualInterestRate,
		TargetLTV:          th.TargetLTV,
		MarginCallLTV:      th.MarginCallLTV,
		LiquidationLTV:     th.LiquidationLTV,
	}
}

// FromShock 价格冲击结果 → 报告
func FromShock(label string, pos loan.Position, th loan.Thresholds, res scenario.ShockResult) (*ScenarioReport, error) {
	rep := base(KindShock, label, pos, th)
	rep.ShockMode = string(res.Shock.Mode)
	rep.ShockValue = res.Shock.Value
	rep.ResultPrice = money(res.NewPrice)
	rep.ResultCollateralValue = money(res.NewCollateralValue)
	rep.ResultLTV = res.NewLTV
	rep.ResultLiquidationPrice = money(res.NewLiquidationPrice)
	rep.Zone = res.Zone.String()

	if len(res.Suggestions) > 0 {
		data, err := json.Marshal(res.Suggestions)
		if err != nil {
			return nil, fmt.Errorf("encode suggestions: %w", err)
		}
		rep.Suggestions = string(data)
	}
	return rep, nil
}

// FromProjection 增长预测结果 → 报告
func FromProjection(label string, pos loan.Position, th loan.Thresholds, res scenario.ProjectionResult) *ScenarioReport {
	rep := base(KindProjection, label, pos, th)
	rep.Years = res.Years
	rep.Growth = res.AnnualGrowth
	rep.ResultPrice = money(res.ProjectedPrice)
	rep.ResultCollateralValue = money(res.ProjectedCollateralValue)
	rep.ResultLTV = res.ProjectedLTV
	rep.AvailableToBorrow = money(res.ProjectedAvailableToBorrow)
	rep.TotalInterest = money(res.TotalInterest)
	rep.Zone = res.Zone.String()
	return rep
}

// RecordShock 归档一次价格冲击
func (s *Service) RecordShock(ctx context.Context, runID, label string, pos loan.Position, th loan.Thresholds, res scenario.ShockResult) (*ScenarioReport, error) {
	rep, err := FromShock(label, pos, th, res)
	if err != nil {
		return nil, err
	}
	rep.RunID = runID
	if err := s.repo.Create(ctx, rep); err != nil {
		return nil, fmt.Errorf("save shock report: %w", err)
	}
	s.logger.Info("shock report saved",
		zap.Uint64("id", rep.ID),
		zap.String("label", label),
		zap.Float64("ltv", res.NewLTV),
		zap.Int("suggestions", len(res.Suggestions)),
	)
	return rep, nil
}

// RecordProjection 归档一次增长预测
func (s *Service) RecordProjection(ctx context.Context, runID, label string, pos loan.Position, th loan.Thresholds, res scenario.ProjectionResult) (*ScenarioReport, error) {
	rep := FromProjection(label, pos, th, res)
	rep.RunID = runID
	if err := s.repo.Create(ctx, rep); err != nil {
		return nil, fmt.Errorf("save projection report: %w", err)
	}
	s.logger.Info("projection report saved",
		zap.Uint64("id", rep.ID),
		zap.Float64("years", res.Years),
		zap.Float64("ltv", res.ProjectedLTV),
	)
	return rep, nil
}

// Get 查询报告
func (s *Service) Get(ctx context.Context, id uint64) (*ScenarioReport, error) {
	return s.repo.GetByID(ctx, id)
}

// Recent 最近的报告
func (s *Service) Recent(ctx context.Context, limit int) ([]*ScenarioReport, error) {
	return s.repo.ListRecent(ctx, limit)
}
