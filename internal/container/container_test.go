package container

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shadow-mm/config"
	"shadow-mm/market"
)

func testConfig(t *testing.T) config.AppConfig {
	t.Helper()
	cfg := config.Default()
	cfg.Diagnostics.Output = filepath.Join(t.TempDir(), "diag.log")
	cfg.Logging.Outputs = nil
	return cfg
}

func TestNewFromConfigRunsTick(t *testing.T) {
	cfg := testConfig(t)
	c, err := NewFromConfig(cfg)
	require.NoError(t, err)

	res, err := c.Engine().Run(&market.Snapshot{
		OrderDepths: map[string]*market.OrderDepth{
			"RAINFOREST_RESIN": {BuyOrders: map[int]int{9998: 5}, SellOrders: map[int]int{10002: -5}},
		},
	})
	require.NoError(t, err)
	assert.Len(t, res.Orders["RAINFOREST_RESIN"], 2)
	require.NoError(t, c.Close())

	raw, err := os.ReadFile(cfg.Diagnostics.Output)
	require.NoError(t, err)
	assert.Equal(t, c.Engine().LastRecord()+"\n", string(raw))
}

func TestNewFromConfigRejectsInvalid(t *testing.T) {
	cfg := testConfig(t)
	cfg.Strategy = "grid"
	_, err := NewFromConfig(cfg)
	assert.Error(t, err)
}

func TestApplySwitchesStrategy(t *testing.T) {
	c, err := NewFromConfig(testConfig(t))
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, "moving_average", c.Engine().StrategyName())

	next := c.Config()
	next.Strategy = "threshold"
	next.MaxPosition = 20
	require.NoError(t, c.Apply(next))
	assert.Equal(t, "threshold", c.Engine().StrategyName())
	assert.Equal(t, 20, c.Config().MaxPosition)

	next.Strategy = "grid"
	assert.Error(t, c.Apply(next))
	assert.Equal(t, "threshold", c.Engine().StrategyName())
}

func TestApplyConcurrentWithConfig(t *testing.T) {
	c, err := NewFromConfig(testConfig(t))
	require.NoError(t, err)
	defer c.Close()

	base := c.Config()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				next := base
				next.MaxPosition = 10 + i*50 + j
				assert.NoError(t, c.Apply(next))
			}
		}(i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				got := c.Config()
				assert.GreaterOrEqual(t, got.MaxPosition, 10)
			}
		}()
	}
	wg.Wait()
	assert.GreaterOrEqual(t, c.Config().MaxPosition, 10)
}
