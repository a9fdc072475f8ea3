package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRewards_Defaults(t *testing.T) {
	cfg, err := LoadRewards("")
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.AmountPoints["low"])
	assert.Equal(t, 10, cfg.AmountPoints["medium"])
	assert.Equal(t, 15, cfg.AmountPoints["high"])
	assert.Equal(t, 10, cfg.CollectionPoints)
	assert.True(t, cfg.Proximity.Enforce)
	assert.InDelta(t, 0.001, cfg.Proximity.ToleranceDeg, 1e-12)
	assert.Equal(t, 50, cfg.Leaderboard.Size)
}

func TestLoadRewards_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rewards.yaml")
	content := []byte("collection_points: 20\nleaderboard:\n  size: 25\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv("WH_LEADERBOARD__SIZE", "10")

	cfg, err := LoadRewards(path)
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.CollectionPoints)
	assert.Equal(t, 10, cfg.Leaderboard.Size, "env should win over file")
	assert.True(t, cfg.Proximity.Enforce, "untouched keys keep defaults")
}

func TestLoadRewards_Invalid(t *testing.T) {
	t.Setenv("WH_COLLECTION_POINTS", "0")

	_, err := LoadRewards("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collection_points")
}

func TestLoadRewards_LeaderboardSizeBounds(t *testing.T) {
	for _, size := range []string{"0", "51", "500"} {
		t.Setenv("WH_LEADERBOARD__SIZE", size)
		_, err := LoadRewards("")
		require.Error(t, err, size)
		assert.Contains(t, err.Error(), "leaderboard.size", size)
	}

	t.Setenv("WH_LEADERBOARD__SIZE", "50")
	cfg, err := LoadRewards("")
	require.NoError(t, err)
	assert.Equal(t, MaxLeaderboardSize, cfg.Leaderboard.Size)
}

func TestLoadRewards_MissingFile(t *testing.T) {
	_, err := LoadRewards(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
