package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/kinderlystv-png/heys-cascade/internal/domain"
)

func TestPublishUpdatesGauges(t *testing.T) {
	r := NewRegistry()

	r.Publish(&domain.Result{
		CRS:               0.62,
		Ceiling:           0.91,
		DailyContribution: 0.8,
		State:             domain.StateGrowing,
	})

	assert.InDelta(t, 0.62, testutil.ToFloat64(r.CRS), 0.001)
	assert.InDelta(t, 0.91, testutil.ToFloat64(r.Ceiling), 0.001)
	assert.InDelta(t, 0.8, testutil.ToFloat64(r.DCS), 0.001)
	assert.InDelta(t, 1, testutil.ToFloat64(r.State.WithLabelValues(string(domain.StateGrowing))), 0.001)
	assert.InDelta(t, 0, testutil.ToFloat64(r.State.WithLabelValues(string(domain.StateStrong))), 0.001)
}

func TestPublishOneHotState(t *testing.T) {
	r := NewRegistry()

	r.Publish(&domain.Result{State: domain.StateStrong})
	r.Publish(&domain.Result{State: domain.StateBroken})

	assert.InDelta(t, 0, testutil.ToFloat64(r.State.WithLabelValues(string(domain.StateStrong))), 0.001,
		"the previous state gauge drops back to zero")
	assert.InDelta(t, 1, testutil.ToFloat64(r.State.WithLabelValues(string(domain.StateBroken))), 0.001)
}
