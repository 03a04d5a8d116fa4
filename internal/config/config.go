// Package config loads the per-run simulation configuration surface
// described in spec.md §6: seed, agent population, per-agent-type
// parameters, transport delay, and run duration.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PriceMakerParams configures the price-maker agent type (spec.md §6).
type PriceMakerParams struct {
	PlacementLambda    float64 `yaml:"placement_lambda"`
	CancellationLambda float64 `yaml:"cancellation_lambda"`
	PriceScale         float64 `yaml:"price_scale"`
	SizePoissonMean    float64 `yaml:"size_poisson_mean"`
	AggressiveProb     float64 `yaml:"aggressive_prob"`
	MaxOutstanding     int     `yaml:"max_outstanding"`
}

// TrendFollowerParams configures the trend-follower agent type.
type TrendFollowerParams struct {
	EMAPeriod float64 `yaml:"ema_t"`
	Spread    float64 `yaml:"spread"`
}

// AgentPopulation is the per-run agent mix: how many of each type to
// spawn, and that type's parameters.
type AgentPopulation struct {
	NumPriceMakers    int                 `yaml:"num_price_makers"`
	PriceMaker        PriceMakerParams    `yaml:"price_maker"`
	NumTrendFollowers int                 `yaml:"num_trend_followers"`
	TrendFollower     TrendFollowerParams `yaml:"trend_follower"`
	NumMarketMakers   int                 `yaml:"num_market_makers"`
}

// OutputPaths names the optional recording sinks of spec.md §6.
type OutputPaths struct {
	MarketRows     string `yaml:"market_rows"`
	SnapshotMatrix string `yaml:"snapshot_matrix"`
}

// Config is the full per-run configuration surface (spec.md §6).
type Config struct {
	Seed                 uint64          `yaml:"seed"`
	Agents               AgentPopulation `yaml:"agents"`
	TransportDelayLambda float64         `yaml:"transport_delay_lambda"`
	TMaxSeconds          float64         `yaml:"t_max_seconds"`
	Depth                int             `yaml:"depth"`
	Output               OutputPaths     `yaml:"output"`
}

var (
	ErrInvalidTMax       = errors.New("config: t_max_seconds must be positive")
	ErrInvalidDepth      = errors.New("config: depth must be positive")
	ErrNegativeLambda    = errors.New("config: transport_delay_lambda must be non-negative")
	ErrNoAgents          = errors.New("config: at least one agent must be configured")
	ErrInvalidPriceScale = errors.New("config: agents.price_maker.price_scale must be positive when num_price_makers > 0")
)

// Default returns a small, self-consistent configuration suitable for a
// smoke-test run.
func Default() *Config {
	return &Config{
		Seed: 1,
		Agents: AgentPopulation{
			NumPriceMakers: 4,
			PriceMaker: PriceMakerParams{
				PlacementLambda:    1.0,
				CancellationLambda: 0.2,
				PriceScale:         1.0,
				SizePoissonMean:    5,
				AggressiveProb:     0.3,
				MaxOutstanding:     8,
			},
			NumTrendFollowers: 2,
			TrendFollower: TrendFollowerParams{
				EMAPeriod: 30,
				Spread:    1,
			},
			NumMarketMakers: 1,
		},
		TransportDelayLambda: 1e6,
		TMaxSeconds:          60,
		Depth:                3,
	}
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.TMaxSeconds <= 0 {
		return ErrInvalidTMax
	}
	if c.Depth <= 0 {
		return ErrInvalidDepth
	}
	if c.TransportDelayLambda < 0 {
		return ErrNegativeLambda
	}
	if c.Agents.NumPriceMakers+c.Agents.NumTrendFollowers+c.Agents.NumMarketMakers <= 0 {
		return ErrNoAgents
	}
	if c.Agents.NumPriceMakers > 0 && c.Agents.PriceMaker.PriceScale <= 0 {
		return ErrInvalidPriceScale
	}
	return nil
}

// Load reads and validates a YAML configuration file. An empty path
// returns Default().
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}
