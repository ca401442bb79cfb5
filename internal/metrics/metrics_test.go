package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/mmynk/groupshare/internal/apperr"
)

func TestObserveOperation(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveOperation("leave_group", time.Now(), nil)
	m.ObserveOperation("leave_group", time.Now(), apperr.ErrOwnerCannotLeave)
	m.ObserveOperation("leave_group", time.Now(), apperr.ErrOwnerCannotLeave)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("leave_group", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.operations.WithLabelValues("leave_group", "invalid_state")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestObserveSweep(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveSweep("groups", map[string]int{"group": 2, "member": 5, "content": 0}, nil)
	m.ObserveSweep("groups", nil, errors.New("disk full"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.reaped.WithLabelValues("group")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.reaped.WithLabelValues("member")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sweeps.WithLabelValues("groups", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sweeps.WithLabelValues("groups", "unknown")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveOperation("x", time.Now(), nil)
		m.ObserveRetry("x")
		m.ObserveSweep("x", map[string]int{"group": 1}, nil)
		m.ObserveReminders(3)
	})
}
