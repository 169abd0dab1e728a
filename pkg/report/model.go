// 文件: pkg/report/model.go
// 情景分析报告
//
// 每次价格冲击 / 增长预测都可以归档一份，便于事后对比。
// 金额类字段用 decimal 存储，比例类字段用 float64。

package report

import (
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"

	"loanlab.com/pkg/scenario"
)

var ErrReportNotFound = errors.New("scenario report not found")

// Kind 报告类型
type Kind string

const (
	KindShock      Kind = "shock"
	KindProjection Kind = "projection"
)

// ScenarioReport 情景分析报告
type ScenarioReport struct {
	ID    uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	RunID string `gorm:"type:varchar(32);index" json:"run_id,omitempty"`
	Kind  Kind   `gorm:"type:varchar(16);index;not null" json:"kind"`
	Label string `gorm:"type:varchar(64)" json:"label"` // 预置场景名或 custom

	// ===== 输入：仓位 =====
	CollateralAmount   decimal.Decimal `gorm:"type:decimal(24,8);not null" json:"collateral_amount"`
	AssetPrice         decimal.Decimal `gorm:"type:decimal(24,8);not null" json:"asset_price"`
	LoanAmount         decimal.Decimal `gorm:"type:decimal(24,8);not null" json:"loan_amount"`
	AnnualInterestRate float64         `json:"annual_interest_rate"`

	// ===== 输入：阈值 =====
	TargetLTV      float64 `json:"target_ltv"`
	MarginCallLTV  float64 `json:"margin_call_ltv"`
	LiquidationLTV float64 `json:"liquidation_ltv"`

	// ===== 输入：场景参数 =====
	ShockMode  string  `gorm:"type:varchar(16)" json:"shock_mode,omitempty"`
	ShockValue float64 `json:"shock_value,omitempty"`
	Years      float64 `json:"years,omitempty"`
	Growth     float64 `json:"growth,omitempty"`

	// ===== 结果 =====
	ResultPrice            decimal.Decimal `gorm:"type:decimal(24,8)" json:"result_price"`
	ResultCollateralValue  decimal.Decimal `gorm:"type:decimal(24,8)" json:"result_collateral_value"`
	ResultLTV              float64         `json:"result_ltv"`
	ResultLiquidationPrice decimal.Decimal `gorm:"type:decimal(24,8)" json:"result_liquidation_price"`
	AvailableToBorrow      decimal.Decimal `gorm:"type:decimal(24,8)" json:"available_to_borrow"`
	TotalInterest          decimal.Decimal `gorm:"type:decimal(24,8)" json:"total_interest"`
	Zone                   string          `gorm:"type:varchar(16)" json:"zone"`

	// Suggestions：[]scenario.Suggestion 的 JSON
	Suggestions string `gorm:"type:text" json:"suggestions,omitempty"`

	CreatedAt int64 `gorm:"index" json:"created_at"` // 毫秒
}

// TableName GORM 表名
func (ScenarioReport) TableName() string {
	return "scenario_reports"
}

// SuggestionList 解析建议列表
func (r *ScenarioReport) SuggestionList() ([]scenario.Suggestion, error) {
	if r.Suggestions == "" {
		return nil, nil
	}
	var out []scenario.Suggestion
	if err := json.Unmarshal([]byte(r.Suggestions), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// money 金额统一保留 8 位小数
func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(8)
}
