package simulation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func baseReborrowInput() ReborrowInput {
	// cv 10000，贷款 2000，ltv 0.2 < trigger 0.4
	return ReborrowInput{
		Enabled:         true,
		Status:          StatusRunning,
		LTV:             0.2,
		LoanAmount:      2000,
		CollateralValue: 10000,
		TargetLTV:       0.5,
		TriggerLTV:      0.4,
		Ceiling:         10000,
		MinIncrease:     0.01,
	}
}

func TestApplyReborrowPolicy(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*ReborrowInput)
		applied bool
		reason  string
		newLoan float64
	}{
		{"borrow up to target", func(in *ReborrowInput) {}, true, ReasonApplied, 5000},
		{"clamped to ceiling", func(in *ReborrowInput) { in.Ceiling = 3000 }, true, ReasonApplied, 3000},
		{"disabled", func(in *ReborrowInput) { in.Enabled = false }, false, ReasonDisabled, 2000},
		{"ended", func(in *ReborrowInput) { in.Status = StatusEnded }, false, ReasonNotRunning, 2000},
		{"ltv above trigger", func(in *ReborrowInput) { in.LTV = 0.45 }, false, ReasonLTVOutOfRange, 2000},
		{"no loan", func(in *ReborrowInput) { in.LTV = 0; in.LoanAmount = 0 }, false, ReasonLTVOutOfRange, 0},
		{"at ceiling", func(in *ReborrowInput) { in.Ceiling = 2000 }, false, ReasonAtCeiling, 2000},
		{"target below loan", func(in *ReborrowInput) { in.TargetLTV = 0.1 }, false, ReasonAtTarget, 2000},
		{"insignificant", func(in *ReborrowInput) { in.Ceiling = 2000.005 }, false, ReasonInsignificant, 2000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := baseReborrowInput()
			tt.modify(&in)

			d := ApplyReborrowPolicy(in)
			assert.Equal(t, tt.applied, d.Applied)
			assert.Equal(t, tt.reason, d.Reason)
			assert.InDelta(t, tt.newLoan, d.NewLoan, 1e-9)
			assert.InDelta(t, d.NewLoan-d.OldLoan, d.Delta, 1e-9)
		})
	}
}
