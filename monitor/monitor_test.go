package monitor

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitorCounters(t *testing.T) {
	m := New(DefaultConfig())

	m.RecordTick()
	m.RecordTick()
	m.RecordStateReset()
	m.RecordOrder("KELP", "BUY")
	m.RecordOrder("KELP", "SELL")
	m.RecordOrder("KELP", "BUY")
	m.RecordSkip(SkipEmptyBook)
	m.RecordCrossedQuote("KELP")
	m.RecordAnomalousTrades("KELP", 3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ticks))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stateResets))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.orders.WithLabelValues("KELP", "BUY")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.orders.WithLabelValues("KELP", "SELL")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.quotesSkipped.WithLabelValues(SkipEmptyBook)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.crossedQuotes.WithLabelValues("KELP")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.anomalousFills.WithLabelValues("KELP")))
}

func TestMonitorGauges(t *testing.T) {
	m := New(DefaultConfig())
	m.UpdateProduct("RAINFOREST_RESIN", 10000, 10000.5, -7)

	assert.Equal(t, 10000.0, testutil.ToFloat64(m.fairValue.WithLabelValues("RAINFOREST_RESIN")))
	assert.Equal(t, 10000.5, testutil.ToFloat64(m.midPrice.WithLabelValues("RAINFOREST_RESIN")))
	assert.Equal(t, -7.0, testutil.ToFloat64(m.position.WithLabelValues("RAINFOREST_RESIN")))
}

func TestMonitorIndependentRegistries(t *testing.T) {
	a := New(DefaultConfig())
	b := New(DefaultConfig())
	a.RecordTick()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.ticks))
}

func TestMonitorHandler(t *testing.T) {
	m := New(DefaultConfig())
	m.RecordTick()
	m.RecordRecordLength(1200)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)
	assert.True(t, strings.Contains(text, "shadow_engine_ticks_total 1"))
	assert.True(t, strings.Contains(text, "shadow_engine_diagnostic_record_chars_count 1"))
}
