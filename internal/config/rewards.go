package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Rewards holds the point economy and the collection gates. It is served to
// clients through GET /api/config so the UI and the server agree on values.
type Rewards struct {
	// AmountPoints maps a severity bucket (low, medium, high) to the points a
	// reporter earns.
	AmountPoints map[string]int `koanf:"amount_points" json:"amount_points"`

	// CollectionPoints is the fixed reward for a verified collection.
	CollectionPoints int `koanf:"collection_points" json:"collection_points"`

	Proximity   ProximityConfig   `koanf:"proximity" json:"proximity"`
	Leaderboard LeaderboardConfig `koanf:"leaderboard" json:"leaderboard"`
}

type ProximityConfig struct {
	Enforce      bool    `koanf:"enforce" json:"enforce"`
	ToleranceDeg float64 `koanf:"tolerance_deg" json:"tolerance_deg"`
}

// MaxLeaderboardSize bounds leaderboard.size.
const MaxLeaderboardSize = 50

type LeaderboardConfig struct {
	Size               int  `koanf:"size" json:"size"`
	PlaceholderOnError bool `koanf:"placeholder_on_error" json:"placeholder_on_error"`
}

// DefaultRewards returns the built-in reward table.
func DefaultRewards() *Rewards {
	return &Rewards{
		AmountPoints: map[string]int{
			"low":    5,
			"medium": 10,
			"high":   15,
		},
		CollectionPoints: 10,
		Proximity: ProximityConfig{
			Enforce:      true,
			ToleranceDeg: 0.001,
		},
		Leaderboard: LeaderboardConfig{
			Size:               MaxLeaderboardSize,
			PlaceholderOnError: true,
		},
	}
}

// LoadRewards layers defaults, an optional YAML file and WH_ prefixed env
// vars (low -> high precedence). Nested keys use a double underscore, e.g.
// WH_PROXIMITY__TOLERANCE_DEG=0.002.
func LoadRewards(path string) (*Rewards, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load rewards config %s: %w", path, err)
		}
	}

	envProvider := env.Provider("WH_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "WH_"))
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load rewards env: %w", err)
	}

	cfg := DefaultRewards()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to decode rewards config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (r *Rewards) Validate() error {
	for _, bucket := range []string{"low", "medium", "high"} {
		if r.AmountPoints[bucket] <= 0 {
			return fmt.Errorf("amount_points.%s must be positive", bucket)
		}
	}
	if r.CollectionPoints <= 0 {
		return errors.New("collection_points must be positive")
	}
	if r.Proximity.ToleranceDeg <= 0 {
		return errors.New("proximity.tolerance_deg must be positive")
	}
	if r.Leaderboard.Size < 1 || r.Leaderboard.Size > MaxLeaderboardSize {
		return fmt.Errorf("leaderboard.size must be between 1 and %d", MaxLeaderboardSize)
	}
	return nil
}
