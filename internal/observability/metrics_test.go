package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func value(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var out dto.Metric
	require.NoError(t, m.Write(&out))
	if out.Counter != nil {
		return out.GetCounter().GetValue()
	}
	return out.GetGauge().GetValue()
}

func TestMetrics_RecordPipelineRun(t *testing.T) {
	m := NewMetrics("test", prometheus.NewRegistry())

	m.RecordPipelineRun("success", 12, 1710000000)
	m.RecordPipelineRun("error", 3, 1710000100)

	assert.Equal(t, 1.0, value(t, m.PipelineRunsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, value(t, m.PipelineRunsTotal.WithLabelValues("error")))
	assert.Equal(t, 1710000000.0, value(t, m.LastSuccessfulRun))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordPipelineRun("success", 1, 1)
		m.RecordObservation("steam", true, true)
		m.RecordItemFailure("steam")
		m.RecordDuplicateRun("steam")
		m.RecordCollect("steam", 1, true)
		m.RecordRanking("7d", 1, 1)
		m.RecordPublishError("redis")
	})
}

func TestMetrics_RecordObservation(t *testing.T) {
	m := NewMetrics("test", prometheus.NewRegistry())

	m.RecordObservation("steam", true, false)
	m.RecordObservation("steam", true, true)
	m.RecordObservation("steam", false, false)

	assert.Equal(t, 3.0, value(t, m.ObservationsIngested.WithLabelValues("steam")))
	assert.Equal(t, 2.0, value(t, m.ItemsCreated.WithLabelValues("steam")))
	assert.Equal(t, 1.0, value(t, m.DuplicatesFlagged.WithLabelValues("steam")))
}

func TestMetrics_RecordRanking(t *testing.T) {
	m := NewMetrics("test", prometheus.NewRegistry())

	m.RecordRanking("7d", 40, 10)
	m.RecordRanking("7d", 20, 5)

	assert.Equal(t, 20.0, value(t, m.GrowthResults.WithLabelValues("7d")))
	assert.Equal(t, 5.0, value(t, m.RecordsRanked.WithLabelValues("7d")))
}
