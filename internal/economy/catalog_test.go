package economy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/playerledger/internal/domain"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)

	assert.Equal(t, 7, c.TrackLength(domain.TrackDaily))
	assert.Equal(t, 7, c.TrackLength(domain.TrackNewPlayer))
	assert.Equal(t, 3, c.StatCount("iron_sword"))
	assert.Equal(t, 0, c.StatCount("unknown"))

	r, ok := c.TrackReward(domain.TrackDaily, 0)
	require.True(t, ok)
	assert.Equal(t, domain.Reward{Kind: domain.RewardCurrency, TemplateID: domain.CurrencyGold, Amount: 100}, r)

	_, ok = c.TrackReward(domain.TrackDaily, 7)
	assert.False(t, ok)

	_, ok = c.Coupon("NOPE")
	assert.False(t, ok)
}

func TestParseCatalog_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{`},
		{"missing tracks", `{"version":"1","battle_pass":{"premium_price":{"currency":"gems","amount":1},"rewards":[]},"curves":{}}`},
		{"bad reward kind", validCatalogWith(`"daily":{"rewards":[{"kind":"pet","template_id":"dog"}]}`)},
		{"unknown item template", validCatalogWith(`"daily":{"rewards":[{"kind":"item","template_id":"ghost"}]}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestParseCatalog_Minimal(t *testing.T) {
	c, err := ParseCatalog([]byte(validCatalogWith(`"daily":{"rewards":[{"kind":"currency","template_id":"gold","amount":1}]}`)))
	require.NoError(t, err)
	assert.Equal(t, 1, c.TrackLength(domain.TrackDaily))
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "economy.json")
	require.NoError(t, os.WriteFile(path, defaultCatalog, 0o644))

	c, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Len(t, c.Coupons, 2)

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func validCatalogWith(daily string) string {
	return `{
		"version": "1",
		"tracks": {` + daily + `, "new_player": {"rewards": [{"kind": "icon", "template_id": "i"}]}},
		"battle_pass": {"premium_price": {"currency": "gems", "amount": 1}, "rewards": []},
		"curves": {
			"account": {"base_exp": 1, "max_level": 2},
			"character": {"base_exp": 1, "max_level": 2},
			"mastery": {"base_exp": 1, "max_level": 2},
			"battle_pass": {"base_exp": 1, "max_level": 2}
		}
	}`
}
