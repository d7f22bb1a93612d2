package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("EXTERNAL_API_URL", "https://ledger.example/fast-market")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "settlement-worker", cfg.ServiceName)
	assert.Equal(t, "prj-nextplay:limits:latest", cfg.RedisLimitsKey)
	assert.Equal(t, "bet_settled", cfg.TopicBetSettled)
	assert.Equal(t, 5*time.Second, cfg.ProcessInterval)
}

func TestLoad_RequiresLedgerURL(t *testing.T) {
	t.Setenv("EXTERNAL_API_URL", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_RejectsBadInterval(t *testing.T) {
	t.Setenv("EXTERNAL_API_URL", "https://ledger.example/fast-market")
	t.Setenv("PROCESS_INTERVAL_MS", "abc")

	_, err := Load()
	require.Error(t, err)
}
