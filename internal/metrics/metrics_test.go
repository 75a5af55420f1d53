package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveOperation("create_order", nil)
	m.ObserveOperation("create_order", nil)
	m.ObserveOperation("create_order", errors.New("nope"))
	m.SetOpen(3, 1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Operations.WithLabelValues("create_order", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("create_order", "rejected")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.OpenOrders))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OpenBids))

	families, err := reg.Gather()
	assert.NoError(t, err)
	assert.Len(t, families, 3)
}

func TestNopIsUnregistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.NotPanics(t, func() { New(prometheus.NewRegistry()) })
	assert.NotPanics(t, func() { Nop().ObserveOperation("x", nil) })
}
