package scenario

import (
	"errors"
	"fmt"
	"strings"

	"loanlab.com/pkg/loan"
)

var ErrPresetNotFound = errors.New("stress preset not found")

// Preset 预置的压力测试场景
type Preset struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Shock       Shock  `json:"shock" yaml:"shock"`
}

// 历史上比较典型的几种行情
var presets = []Preset{
	{Name: "flash_crash", Description: "Intraday flash crash, -15%", Shock: RelativeShock(-0.15)},
	{Name: "bear_market", Description: "Cycle bear market, -50%", Shock: RelativeShock(-0.50)},
	{Name: "capitulation", Description: "Capitulation bottom, -75%", Shock: RelativeShock(-0.75)},
	{Name: "halving_rally", Description: "Post-halving rally, +100%", Shock: RelativeShock(1.00)},
}

// Presets 返回全部预置场景（副本）
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}

// FindPreset 按名字查找预置场景，忽略大小写
func FindPreset(name string) (Preset, error) {
	for _, p := range presets {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("%q: %w", name, ErrPresetNotFound)
}

// RunPreset 对当前仓位执行一个预置场景
func RunPreset(pos loan.Position, th loan.Thresholds, name string) (ShockResult, error) {
	p, err := FindPreset(name)
	if err != nil {
		return ShockResult{}, err
	}
	return AnalyzeShock(pos, th, p.Shock), nil
}

// StressTest 依次执行 extra 和全部预置场景，结果顺序与输入一致
func StressTest(pos loan.Position, th loan.Thresholds, extra ...Shock) []ShockResult {
	shocks := make([]Shock, 0, len(extra)+len(presets))
	shocks = append(shocks, extra...)
	for _, p := range presets {
		shocks = append(shocks, p.Shock)
	}

	results := make([]ShockResult, 0, len(shocks))
	for _, s := range shocks {
		results = append(results, AnalyzeShock(pos, th, s))
	}
	return results
}
