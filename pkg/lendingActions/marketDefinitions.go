package lendingActions

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// marketDefinition models one market entry in a YAML market definitions file.
type marketDefinition struct {
	// ID is the market's string identifier, hashed into its bytes32 form
	ID string `yaml:"id"`
	// Pool is the lending pool contract address
	Pool string `yaml:"pool"`
	// LoanToken is the market's loan token address
	LoanToken string `yaml:"loan_token"`
}

// MarketDefinitions models the structure of a YAML market definitions file.
type MarketDefinitions struct {
	// Networks lists the network IDs the pool is deployed on
	Networks []string `yaml:"networks"`
	// Markets lists the markets available on those networks
	Markets []marketDefinition `yaml:"markets"`
}

// LoadMarketDefinitions parses a YAML file of lending market metadata into a
// StaticMarketReader plus the networks it applies to. An empty path yields an
// empty reader so the lending provider can be omitted from configuration.
func LoadMarketDefinitions(path string) (*StaticMarketReader, []string, error) {
	if path == "" {
		return NewStaticMarketReader(nil), nil, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read market definitions: %w", err)
	}

	var defs MarketDefinitions
	if err := yaml.Unmarshal(content, &defs); err != nil {
		return nil, nil, fmt.Errorf("failed to parse market definitions: %w", err)
	}

	markets := make(map[string]MarketParams, len(defs.Markets))
	for i, def := range defs.Markets {
		if def.ID == "" {
			return nil, nil, fmt.Errorf("market definition %d is missing id", i)
		}
		if !common.IsHexAddress(def.Pool) {
			return nil, nil, fmt.Errorf("market %s has invalid pool address %q", def.ID, def.Pool)
		}
		if !common.IsHexAddress(def.LoanToken) {
			return nil, nil, fmt.Errorf("market %s has invalid loan token address %q", def.ID, def.LoanToken)
		}
		markets[def.ID] = MarketParams{
			ID:        MarketIDFromString(def.ID),
			Pool:      common.HexToAddress(def.Pool),
			LoanToken: common.HexToAddress(def.LoanToken),
		}
	}
	return NewStaticMarketReader(markets), defs.Networks, nil
}
