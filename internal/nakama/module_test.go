package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/playerledger/internal/domain"
	"github.com/osse101/playerledger/internal/rpc"
)

type recordingLogger struct {
	fields  map[string]interface{}
	entries *[]string
}

func newRecordingLogger() *recordingLogger {
	return &recordingLogger{fields: map[string]interface{}{}, entries: &[]string{}}
}

func (l *recordingLogger) record(level, format string) {
	*l.entries = append(*l.entries, level+" "+format)
}

func (l *recordingLogger) Debug(format string, v ...interface{}) { l.record("debug", format) }
func (l *recordingLogger) Info(format string, v ...interface{})  { l.record("info", format) }
func (l *recordingLogger) Warn(format string, v ...interface{})  { l.record("warn", format) }
func (l *recordingLogger) Error(format string, v ...interface{}) { l.record("error", format) }
func (l *recordingLogger) WithField(key string, value interface{}) runtime.Logger {
	return l.WithFields(map[string]interface{}{key: value})
}
func (l *recordingLogger) WithFields(fields map[string]interface{}) runtime.Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &recordingLogger{fields: merged, entries: l.entries}
}
func (l *recordingLogger) Fields() map[string]interface{} { return l.fields }

type fakeRegistrar struct {
	rpcs map[string]func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error)
	err  error
}

func (r *fakeRegistrar) RegisterRpc(id string, fn func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error)) error {
	if r.err != nil {
		return r.err
	}
	r.rpcs[id] = fn
	return nil
}

func newTestDispatcher(t *testing.T, nk StorageAPI) *rpc.Dispatcher {
	t.Helper()
	return rpc.NewDispatcher(newTestExecutor(t, NewStorageBackend(nk, WithRetryPolicy(fastRetries(3)))))
}

func userCtx(userID string) context.Context {
	return context.WithValue(context.Background(), runtime.RUNTIME_CTX_USER_ID, userID)
}

func TestRegister(t *testing.T) {
	d := newTestDispatcher(t, newMemStorage())

	reg := &fakeRegistrar{rpcs: map[string]func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule, string) (string, error){}}
	require.NoError(t, Register(reg, d))
	assert.Len(t, reg.rpcs, len(d.IDs()))
	assert.Contains(t, reg.rpcs, rpc.RPCClaimDaily)

	failing := &fakeRegistrar{err: errors.New("duplicate")}
	assert.Error(t, Register(failing, d))
}

func TestHandler_ClaimDaily(t *testing.T) {
	d := newTestDispatcher(t, newMemStorage())
	h := Handler(d, rpc.RPCClaimDaily)
	log := newRecordingLogger()

	out, err := h(userCtx("user-1"), log, nil, nil, `{"index":0}`)
	require.NoError(t, err)
	var resp rpc.Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, int64(600), resp.Balances[domain.CurrencyGold])

	out, err = h(userCtx("user-1"), log, nil, nil, `{"index":0}`)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, domain.ReasonAlreadyClaimed, resp.ReasonCode)
}

func TestHandler_Errors(t *testing.T) {
	nk := newMemStorage()
	d := newTestDispatcher(t, nk)
	log := newRecordingLogger()

	t.Run("no session", func(t *testing.T) {
		_, err := Handler(d, rpc.RPCFetchSnapshot)(context.Background(), log, nil, nil, "")
		var rerr *runtime.Error
		require.ErrorAs(t, err, &rerr)
		assert.Equal(t, codeUnauthenticated, rerr.Code)
	})

	t.Run("unknown rpc", func(t *testing.T) {
		_, err := Handler(d, "ledger_nope")(userCtx("user-1"), log, nil, nil, "")
		var rerr *runtime.Error
		require.ErrorAs(t, err, &rerr)
		assert.Equal(t, codeNotFound, rerr.Code)
	})

	t.Run("storage conflict", func(t *testing.T) {
		nk.failNext = 10
		defer func() { nk.failNext = 0 }()
		_, err := Handler(d, rpc.RPCAddAccountExp)(userCtx("user-1"), log, nil, nil, `{"amount":10}`)
		var rerr *runtime.Error
		require.ErrorAs(t, err, &rerr)
		assert.Equal(t, codeUnavailable, rerr.Code)
		assert.Contains(t, *log.entries, "error "+LogMsgRPCTransport)
	})
}

func TestLogHandler(t *testing.T) {
	log := newRecordingLogger()
	l := slog.New(NewLogHandler(log, slog.LevelInfo)).With("account_id", "acc-1").WithGroup("op")

	l.Debug("dropped")
	l.Info("committed", "name", "claim_daily")
	l.Error("failed", slog.Group("cause", "kind", "transport"))

	assert.Equal(t, []string{"info %s", "error %s"}, *log.entries)
	assert.True(t, NewLogHandler(log, nil).Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, NewLogHandler(log, nil).Enabled(context.Background(), slog.LevelDebug))
}
