//go:build staging

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/playerledger/internal/domain"
	"github.com/osse101/playerledger/internal/rpc"
)

// Smoke tests against a running ledgerd:
//
//	API_URL=http://localhost:8080 API_KEY=... go test -tags staging ./cmd/ledgerd

var (
	stagingURL string
	apiKey     string
	client     *http.Client
)

func TestMain(m *testing.M) {
	stagingURL = os.Getenv("API_URL")
	if stagingURL == "" {
		stagingURL = "http://localhost:8080"
	}
	apiKey = os.Getenv("API_KEY")
	if apiKey == "" {
		apiKey = "test-api-key"
	}
	client = &http.Client{Timeout: 10 * time.Second}
	os.Exit(m.Run())
}

func get(t *testing.T, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := client.Get(fmt.Sprintf("%s%s", stagingURL, path))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestStaging_Health(t *testing.T) {
	for _, path := range []string{"/healthz", "/readyz"} {
		resp, _ := get(t, path)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestStaging_Version(t *testing.T) {
	resp, body := get(t, "/version")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var v map[string]any
	require.NoError(t, json.Unmarshal(body, &v))
	assert.NotEmpty(t, v)
}

func TestStaging_ClaimFlow(t *testing.T) {
	ctx := context.Background()
	accountID := "staging-" + uuid.NewString()

	c := rpc.NewClient(stagingURL, rpc.WithHTTPClient(client))
	require.NoError(t, c.Authenticate(ctx, apiKey, accountID))

	snap, err := c.FetchAccountSnapshot(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, accountID, snap.AccountID)

	res, err := c.ClaimNewPlayerReward(ctx, accountID, 0, domain.Reward{})
	require.NoError(t, err)
	assert.True(t, res.Success)

	_, err = c.ClaimNewPlayerReward(ctx, accountID, 0, domain.Reward{})
	assert.ErrorIs(t, err, domain.ErrAlreadyClaimed)
}
