package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanlab.com/pkg/alert"
	"loanlab.com/pkg/loan"
	"loanlab.com/pkg/simulation"
)

func testReport() simulation.TickReport {
	pos := loan.Position{CollateralAmount: 0.05, AssetPrice: 65000, LoanAmount: 2000, AnnualInterestRate: 0.12}
	return simulation.TickReport{
		Seq:             1,
		Price:           65000,
		ElapsedDays:     1,
		InterestAccrued: 0.6575,
		Reborrow: simulation.ReborrowDecision{
			Applied: true, Reason: simulation.ReasonApplied, OldLoan: 1000, NewLoan: 2000, Delta: 1000,
		},
		Position: pos,
		Snapshot: loan.ComputeSnapshot(pos, loan.DefaultThresholds()),
	}
}

func TestCollector_Observe(t *testing.T) {
	c := New()
	r := testReport()
	c.Observe(r)
	c.Observe(r)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Ticks))
	assert.Equal(t, 65000.0, testutil.ToFloat64(c.Price))
	assert.Equal(t, 2000.0, testutil.ToFloat64(c.Loan))
	assert.InDelta(t, r.Snapshot.LTV, testutil.ToFloat64(c.LTV), 1e-12)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ZoneSeverity)) // elevated
	assert.Equal(t, 2.0, testutil.ToFloat64(c.Reborrows.WithLabelValues(simulation.ReasonApplied)))
	assert.Equal(t, 2000.0, testutil.ToFloat64(c.ReborrowTotal))
}

func TestCollector_ObserveAlerts(t *testing.T) {
	c := New()
	c.ObserveAlerts([]alert.Trigger{
		{Rule: alert.AlertRule{AlertID: "a", Metric: alert.MetricLTV, Direction: alert.DirectionHigh}},
		{Rule: alert.AlertRule{AlertID: "b", Metric: alert.MetricLTV, Direction: alert.DirectionHigh}},
		{Rule: alert.AlertRule{AlertID: "c", Metric: alert.MetricPrice, Direction: alert.DirectionLow}},
	})
	assert.Equal(t, 2.0, testutil.ToFloat64(c.Alerts.WithLabelValues("ltv", "high")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Alerts.WithLabelValues("price", "low")))
}

func TestCollector_Handler(t *testing.T) {
	c := New()
	c.Observe(testReport())
	c.SetDropped(3)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	text := string(body)
	assert.True(t, strings.Contains(text, "loanlab_sim_ticks_total 1"))
	assert.True(t, strings.Contains(text, "loanlab_sim_dropped_ticks 3"))
}
