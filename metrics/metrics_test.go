package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveDispatch(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveDispatch(150*time.Millisecond, nil)
	m.ObserveDispatch(2*time.Second, errors.New("model unavailable"))
	m.ObserveDispatch(50*time.Millisecond, nil)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.DispatchesTotal.WithLabelValues("ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.DispatchesTotal.WithLabelValues("error")))
}

func TestGaugesAndCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ActiveAgents.Set(3)
	m.UnresponsiveCount.Set(1)
	m.SkippedTicksTotal.Inc()
	m.TriggerFiresTotal.Add(2)
	m.EventsTotal.WithLabelValues("broadcast").Inc()

	assert.Equal(t, float64(3), testutil.ToFloat64(m.ActiveAgents))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.UnresponsiveCount))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SkippedTicksTotal))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.TriggerFiresTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.EventsTotal.WithLabelValues("broadcast")))
}
