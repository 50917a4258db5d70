package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shadow-mm/internal/engine"
	"shadow-mm/logs"
	"shadow-mm/market"
	"shadow-mm/monitor"
	"shadow-mm/strategy"
)

func newTestServer(t *testing.T) (*httptest.Server, *monitor.Monitor) {
	t.Helper()
	params := strategy.DefaultParams()
	mon := monitor.New(monitor.DefaultConfig())
	eng, err := engine.New(engine.Config{Params: params}, engine.Components{
		Strategy:    strategy.NewMovingAverage(params),
		Diagnostics: logs.New(nil, logs.DefaultMaxLength),
		Recorder:    mon,
	})
	require.NoError(t, err)
	srv := httptest.NewServer(New(eng, mon.Handler(), nil).Handler())
	t.Cleanup(srv.Close)
	return srv, mon
}

func resinSnapshot(traderData string) market.Snapshot {
	return market.Snapshot{
		Timestamp:  100,
		TraderData: traderData,
		OrderDepths: map[string]*market.OrderDepth{
			"RAINFOREST_RESIN": {BuyOrders: map[int]int{9998: 5}, SellOrders: map[int]int{10002: -5}},
		},
	}
}

func TestWebSocketTicks(t *testing.T) {
	srv, _ := newTestServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(resinSnapshot("")))
	var first tickResponse
	require.NoError(t, conn.ReadJSON(&first))
	assert.Empty(t, first.Error)
	require.Len(t, first.Orders["RAINFOREST_RESIN"], 2)
	assert.Equal(t, 9998, first.Orders["RAINFOREST_RESIN"][0].Price)
	assert.NotEmpty(t, first.TraderData)

	// 串接 traderData
	require.NoError(t, conn.WriteJSON(resinSnapshot(first.TraderData)))
	var second tickResponse
	require.NoError(t, conn.ReadJSON(&second))
	assert.Empty(t, second.Error)
	assert.Len(t, second.Orders["RAINFOREST_RESIN"], 2)

	// 非法消息返回错误但连接保持
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{bad")))
	var bad tickResponse
	require.NoError(t, conn.ReadJSON(&bad))
	assert.Contains(t, bad.Error, "invalid snapshot")

	require.NoError(t, conn.WriteJSON(resinSnapshot("")))
	var again tickResponse
	require.NoError(t, conn.ReadJSON(&again))
	assert.Empty(t, again.Error)
}

func TestHTTPTick(t *testing.T) {
	srv, _ := newTestServer(t)
	body, err := json.Marshal(resinSnapshot(""))
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/tick", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out tickResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, 0, out.Conversions)
	assert.Len(t, out.Orders["RAINFOREST_RESIN"], 2)

	bad, err := http.Post(srv.URL+"/tick", "application/json", strings.NewReader("nope"))
	require.NoError(t, err)
	defer bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t)
	body, err := json.Marshal(resinSnapshot(""))
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+"/tick", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()

	health, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer health.Body.Close()
	var h healthResponse
	require.NoError(t, json.NewDecoder(health.Body).Decode(&h))
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, "moving_average", h.Strategy)
	assert.Equal(t, int64(1), h.Ticks)

	metrics, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer metrics.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(metrics.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "shadow_engine_ticks_total 1")
	assert.Contains(t, buf.String(), `shadow_engine_orders_total{product="RAINFOREST_RESIN",side="BUY"} 1`)
}
