package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.WriteStages.WithLabelValues("pending").Inc()
	m.WriteStages.WithLabelValues("pending").Inc()
	m.WriteResults.WithLabelValues("confirmed").Inc()
	m.WritesInFlight.Set(2)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.WriteStages.WithLabelValues("pending")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.WritesInFlight))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["diary_write_stage_total"])
	assert.True(t, names["diary_write_result_total"])

	// 同一注册表重复注册会 panic
	assert.Panics(t, func() { New(reg) })
}
