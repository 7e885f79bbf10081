package metrics_test

import (
	"testing"

	"codeberg.org/mutker/btapmd/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestBoolLabel(t *testing.T) {
	assert.Equal(t, "true", metrics.BoolLabel(true))
	assert.Equal(t, "false", metrics.BoolLabel(false))
}

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(metrics.SessionsReplacedTotal)
	metrics.SessionsReplacedTotal.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.SessionsReplacedTotal))

	c := metrics.NotificationsTotal.WithLabelValues("apm_bt_notification", metrics.ResultSent)
	before = testutil.ToFloat64(c)
	c.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(c))
}
