package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPredictionsTotal(t *testing.T) {
	c := PredictionsTotal.WithLabelValues("dictionary", "ok")
	before := testutil.ToFloat64(c)
	c.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(c))
}

func TestGauges(t *testing.T) {
	DictionarySize.Set(12)
	assert.Equal(t, 12.0, testutil.ToFloat64(DictionarySize))

	ClassifierLoaded.Set(BoolGauge(true))
	assert.Equal(t, 1.0, testutil.ToFloat64(ClassifierLoaded))
	ClassifierLoaded.Set(BoolGauge(false))
	assert.Equal(t, 0.0, testutil.ToFloat64(ClassifierLoaded))
}

func TestHistogramsRegistered(t *testing.T) {
	PredictionDuration.WithLabelValues("classifier").Observe(0.001)
	PredictionConfidence.Observe(0.9)
	HTTPRequestDuration.WithLabelValues("/predict").Observe(0.01)

	assert.Equal(t, 1, testutil.CollectAndCount(PredictionConfidence))
	assert.GreaterOrEqual(t, testutil.CollectAndCount(PredictionDuration), 1)
}

func TestLiveCounters(t *testing.T) {
	frames := LiveFramesTotal.WithLabelValues("hand")
	before := testutil.ToFloat64(frames)
	frames.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(frames))

	results := testutil.ToFloat64(LiveResultsTotal)
	LiveResultsTotal.Inc()
	assert.Equal(t, results+1, testutil.ToFloat64(LiveResultsTotal))
}
