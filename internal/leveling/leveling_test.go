package leveling

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/playerledger/internal/domain"
)

func testCurve() Curve {
	return Curve{BaseExp: 100, Increment: 0.1, MaxLevel: 10}
}

func start() domain.LevelProgress {
	return domain.LevelProgress{Axis: domain.AxisAccount, Level: 1}
}

func TestRequiredExp(t *testing.T) {
	c := testCurve()
	tests := []struct {
		level int
		want  int64
	}{
		{0, 100},
		{1, 100},
		{2, 110},
		{3, 121},
		{4, 133}, // 133.1 floors
		{5, 146}, // 146.41 floors
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.RequiredExp(tt.level), "level %d", tt.level)
	}
}

func TestApply_SingleLevel(t *testing.T) {
	got, err := testCurve().Apply(start(), 100)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Level)
	assert.Equal(t, int64(0), got.Exp)
}

func TestApply_SplitMatchesSingleCall(t *testing.T) {
	c := testCurve()

	once, err := c.Apply(start(), 250)
	require.NoError(t, err)

	step, err := c.Apply(start(), 100)
	require.NoError(t, err)
	step, err = c.Apply(step, 150)
	require.NoError(t, err)

	assert.Equal(t, once, step)
	assert.Equal(t, 3, once.Level)
	assert.Equal(t, int64(40), once.Exp)
}

func TestApply_Associative(t *testing.T) {
	c := testCurve()
	amounts := []int64{0, 1, 37, 99, 100, 101, 250, 999, 5000}
	for _, x := range amounts {
		for _, y := range amounts {
			sum, err := c.Apply(start(), x+y)
			require.NoError(t, err)

			a, err := c.Apply(start(), x)
			require.NoError(t, err)
			a, err = c.Apply(a, y)
			require.NoError(t, err)

			assert.Equal(t, sum, a, "x=%d y=%d", x, y)
		}
	}
}

func TestApply_ClampsAtMax(t *testing.T) {
	c := Curve{BaseExp: 10, Increment: 0, MaxLevel: 3}
	got, err := c.Apply(start(), 1000)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Level)
	assert.Equal(t, int64(0), got.Exp)
	assert.True(t, c.AtMax(got))
	assert.Equal(t, int64(0), c.ExpToNext(got))

	again, err := c.Apply(got, 5)
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestApply_PoolStaysBelowRequirement(t *testing.T) {
	c := testCurve()
	p := start()
	for i := 0; i < 50; i++ {
		var err error
		p, err = c.Apply(p, 37)
		require.NoError(t, err)
		if p.Level < c.MaxLevel {
			assert.Less(t, p.Exp, c.RequiredExp(p.Level))
		}
	}
}

func TestApply_RejectsNegative(t *testing.T) {
	_, err := testCurve().Apply(start(), -1)
	assert.ErrorIs(t, err, domain.ErrNegativeAmount)
}

func TestApply_RejectsPoolOverflow(t *testing.T) {
	c := Curve{BaseExp: math.MaxInt64, MaxLevel: 2}
	p := domain.LevelProgress{Axis: domain.AxisAccount, Level: 1, Exp: math.MaxInt64 - 10}

	got, err := c.Apply(p, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Level)

	got, err = c.Apply(p, 11)
	assert.ErrorIs(t, err, domain.ErrExpOverflow)
	assert.Equal(t, p, got)
}

func TestApply_BattlePassStartsAtZero(t *testing.T) {
	c := testCurve()
	p := domain.NewLevelProgress(domain.AxisBattlePass, "")
	got, err := c.Apply(p, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Level)
	assert.Equal(t, int64(0), got.Exp)
}

func TestCurves_For(t *testing.T) {
	cs := Curves{Mastery: Curve{BaseExp: 7, MaxLevel: 2}}
	c, err := cs.For(domain.AxisMastery)
	require.NoError(t, err)
	assert.Equal(t, int64(7), c.BaseExp)

	_, err = cs.For("bogus")
	assert.Error(t, err)
}
