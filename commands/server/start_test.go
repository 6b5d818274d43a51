package server

import (
	"context"
	"io/ioutil"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"
)

func counterApp(calls *int) AppGenerator {
	return func(logger log.Logger, reg prometheus.Registerer, debug bool) (abci.Application, error) {
		*calls++
		c := prometheus.NewCounter(prometheus.CounterOpts{Name: "grantd_test_total", Help: "test"})
		reg.MustRegister(c)
		c.Inc()
		return abci.NewBaseApplication(), nil
	}
}

func TestStartStopsWithContext(t *testing.T) {
	var calls int
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := Config{Bind: "tcp://127.0.0.1:0", LogLevel: "info"}
	require.NoError(t, Start(ctx, cfg, counterApp(&calls), log.NewNopLogger()))
	assert.Equal(t, 1, calls)
}

func TestStartInvalidBind(t *testing.T) {
	var calls int
	cfg := Config{Bind: "tcp://256.0.0.1:bad", LogLevel: "info"}
	err := Start(context.Background(), cfg, counterApp(&calls), log.NewNopLogger())
	assert.Error(t, err)
}

func TestMetricsEndpoint(t *testing.T) {
	var calls int
	reg := prometheus.NewRegistry()
	_, err := counterApp(&calls)(log.NewNopLogger(), reg, false)
	require.NoError(t, err)

	srv := metricsServer(":0", reg)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	body, err := ioutil.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "grantd_test_total 1")
}
