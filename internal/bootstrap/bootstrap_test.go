package bootstrap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/playerledger/internal/backend"
	"github.com/osse101/playerledger/internal/config"
)

func TestLoadCatalog(t *testing.T) {
	catalog, err := LoadCatalog("")
	require.NoError(t, err)
	assert.NotEmpty(t, catalog.CatalogCoupons())

	_, err = LoadCatalog("does/not/exist.json")
	assert.ErrorContains(t, err, ErrMsgFailedLoadCatalog)
}

func TestInitializeStores_Memory(t *testing.T) {
	catalog, err := LoadCatalog("")
	require.NoError(t, err)

	cfg := &config.Config{Backend: config.BackendMemory, RetryAttempts: 3}
	stores, err := InitializeStores(context.Background(), cfg, catalog)
	require.NoError(t, err)
	assert.IsType(t, &backend.MemoryStore{}, stores.Ledger)
	assert.Nil(t, stores.ReadinessPool())
	stores.Close()
}

func TestInitializeStores_Unsupported(t *testing.T) {
	catalog, err := LoadCatalog("")
	require.NoError(t, err)

	_, err = InitializeStores(context.Background(), &config.Config{Backend: "redis"}, catalog)
	assert.ErrorContains(t, err, "redis")
}

func TestNewEngineAndIssuer(t *testing.T) {
	catalog, err := LoadCatalog("")
	require.NoError(t, err)

	cfg := &config.Config{TimeZone: "Asia/Tokyo", APIKey: "key", SessionSecret: "0123456789abcdef", SessionTTL: time.Hour}
	engine, err := NewEngine(cfg, catalog)
	require.NoError(t, err)
	assert.Equal(t, "Asia/Tokyo", engine.Location().String())

	_, err = NewIssuer(cfg)
	require.NoError(t, err)

	cfg.TimeZone = "Mars/Olympus"
	_, err = NewEngine(cfg, catalog)
	assert.Error(t, err)

	cfg.SessionSecret = "short"
	_, err = NewIssuer(cfg)
	assert.ErrorContains(t, err, ErrMsgFailedCreateIssuer)
}

type closeRecorder struct {
	closed bool
	err    error
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return c.err
}

func TestGracefulShutdown(t *testing.T) {
	logFile := &closeRecorder{err: errors.New("disk full")}
	GracefulShutdown(context.Background(), ShutdownComponents{Stores: &Stores{}, LogFile: logFile})
	assert.True(t, logFile.closed)
}
