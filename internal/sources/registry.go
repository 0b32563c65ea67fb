package sources

import (
	"net/http"

	"github.com/openrecon/kite/internal/domain"
)

// Build assembles the full adapter set from configuration. HTTP-backed
// adapters are always present (an unconfigured one reports itself as
// such per probe); subprocess adapters are gated by EnableExternalTools.
func Build(cfg domain.SourcesConfig, client *http.Client) []domain.SourceAdapter {
	adapters := []domain.SourceAdapter{
		NewBreachAdapter(cfg.Breach, client),
		NewEmailRepAdapter(cfg.EmailRep, client),
		NewHunterAdapter(cfg.Hunter, client),
		NewNumverifyAdapter(cfg.Numverify, cfg.CountryPrefixes, cfg.CarrierPrefixes, client),
		NewShodanAdapter(cfg.Shodan, client),
		NewWebSearchAdapter(cfg.WebSearch, client),
	}

	if cfg.EnableExternalTools {
		adapters = append(adapters,
			NewSherlockAdapter(cfg.SherlockPath, nil),
			NewHoleheAdapter(cfg.HolehePath, nil),
			NewHarvesterAdapter(cfg.HarvesterPath, nil),
		)
	}

	return adapters
}
