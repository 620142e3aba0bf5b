package config

import (
	"hindsight-api/pkg/market"
)

// MustLoadMarket loads etc/market.yaml from the project root and panics on error.
// It isolates market config so tests that only need providers avoid loading the
// full application config.
func MustLoadMarket() *market.Config {
	return market.MustLoad()
}

// MustBuildMarketProviders loads market config from the default path and builds
// provider instances; returns the map and default provider name.
func MustBuildMarketProviders() (map[string]market.Provider, string) {
	cfg := MustLoadMarket()
	providers, err := cfg.BuildProviders()
	if err != nil {
		panic(err)
	}
	return providers, cfg.Default
}
