// Package chainManager provides blockchain connection management for the
// execution pipeline. It maintains RPC connections keyed by chain ID, each
// carrying the Network descriptor used to filter action providers, so higher
// layers can interact with different networks uniformly.
package chainManager

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/ethereum/go-ethereum/ethclient"
	"gopkg.in/yaml.v3"
)

var (
	// ErrChainNotFound is returned when a requested chain ID is not found in the manager
	ErrChainNotFound = errors.New("chain not found")
)

// Network identifies the chain a wallet or action targets. It is fixed at
// wallet construction time and used purely as a filter key, never mutated.
type Network struct {
	// ProtocolFamily groups chains by protocol, e.g. "evm"
	ProtocolFamily string `yaml:"protocol_family" json:"protocolFamily"`
	// NetworkID is the human-readable network name, e.g. "base-mainnet"
	NetworkID string `yaml:"network_id" json:"networkId,omitempty"`
	// ChainID is the numeric chain identifier, e.g. 8453
	ChainID uint64 `yaml:"chain_id" json:"chainId,omitempty"`
}

// String renders the network for log output.
func (n Network) String() string {
	if n.NetworkID != "" {
		return fmt.Sprintf("%s/%s (chain %d)", n.ProtocolFamily, n.NetworkID, n.ChainID)
	}
	return fmt.Sprintf("%s (chain %d)", n.ProtocolFamily, n.ChainID)
}

// IChainManager defines the interface for managing blockchain connections.
// Implementations provide the ability to add new chains and retrieve
// existing chain connections by their chain ID or network ID.
type IChainManager interface {
	// AddChain adds a new blockchain connection to the manager
	AddChain(cfg *ChainConfig) error
	// GetChainForId retrieves a chain connection by its chain ID
	GetChainForId(chainId uint64) (*Chain, error)
	// GetChainForNetworkId retrieves a chain connection by its network ID
	GetChainForNetworkId(networkId string) (*Chain, error)
}

// ChainConfig holds the configuration for connecting to a blockchain.
type ChainConfig struct {
	// Network describes the chain this connection targets
	Network Network `yaml:"network"`
	// RPCUrl is the URL endpoint for connecting to the blockchain RPC
	RPCUrl string `yaml:"rpc_url"`
}

// ChainDefinitions models the structure of a YAML chain definitions file.
type ChainDefinitions struct {
	Chains []ChainConfig `yaml:"chains"`
}

// LoadChainDefinitions parses a YAML file containing chain metadata. An empty
// path yields an empty definition set rather than an error so callers can
// fall back to flag-driven configuration.
func LoadChainDefinitions(path string) (ChainDefinitions, error) {
	if path == "" {
		return ChainDefinitions{}, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return ChainDefinitions{}, fmt.Errorf("failed to read chain definitions: %w", err)
	}
	var defs ChainDefinitions
	if err := yaml.Unmarshal(content, &defs); err != nil {
		return ChainDefinitions{}, fmt.Errorf("failed to parse chain definitions: %w", err)
	}
	for i, chain := range defs.Chains {
		if chain.Network.ProtocolFamily == "" {
			defs.Chains[i].Network.ProtocolFamily = "evm"
		}
		if chain.RPCUrl == "" {
			return ChainDefinitions{}, fmt.Errorf("chain definition %d is missing rpc_url", i)
		}
	}
	return defs, nil
}

// Chain represents an active connection to a blockchain.
// It contains both the configuration and the active RPC client connection.
type Chain struct {
	config *ChainConfig
	// RPCClient is the active client connection for this chain
	RPCClient EthClientInterface
}

// Network returns the network descriptor this chain was configured with.
func (c *Chain) Network() Network {
	return c.config.Network
}

// ChainManager implements IChainManager and manages multiple blockchain connections.
// It maintains a registry of active chains indexed by their chain IDs.
// This implementation is thread-safe using sync.Map for concurrent access.
type ChainManager struct {
	chains     sync.Map // map[uint64]*Chain
	networkIds sync.Map // map[string]uint64
}

// NewChainManager creates a new ChainManager instance.
// The manager is initialized with an empty chain registry.
func NewChainManager() *ChainManager {
	return &ChainManager{}
}

// NewChainManagerFromDefinitions creates a ChainManager pre-populated with
// every chain in the given definitions.
func NewChainManagerFromDefinitions(defs ChainDefinitions) (*ChainManager, error) {
	cm := NewChainManager()
	for i := range defs.Chains {
		if err := cm.AddChain(&defs.Chains[i]); err != nil {
			return nil, fmt.Errorf("failed to add chain %d: %w", defs.Chains[i].Network.ChainID, err)
		}
	}
	return cm, nil
}

// AddChain adds a new blockchain connection to the manager.
// This method establishes a connection to the specified RPC URL and
// stores the resulting chain connection for future use.
// This method is thread-safe and can be called concurrently.
func (cm *ChainManager) AddChain(cfg *ChainConfig) error {
	if _, exists := cm.chains.Load(cfg.Network.ChainID); exists {
		return fmt.Errorf("chain with ID %d already exists", cfg.Network.ChainID)
	}
	client, err := ethclient.Dial(cfg.RPCUrl)
	if err != nil {
		return fmt.Errorf("failed to connect to RPC URL %s: %w", cfg.RPCUrl, err)
	}
	return cm.AddChainWithClient(cfg, client)
}

// AddChainWithClient registers a chain with an already-constructed client.
// Used by tests to inject mock clients and by callers that manage their own
// connection lifecycle.
func (cm *ChainManager) AddChainWithClient(cfg *ChainConfig, client EthClientInterface) error {
	if _, exists := cm.chains.Load(cfg.Network.ChainID); exists {
		return fmt.Errorf("chain with ID %d already exists", cfg.Network.ChainID)
	}
	cm.chains.Store(cfg.Network.ChainID, &Chain{
		config:    cfg,
		RPCClient: client,
	})
	if cfg.Network.NetworkID != "" {
		cm.networkIds.Store(cfg.Network.NetworkID, cfg.Network.ChainID)
	}
	return nil
}

// GetChainForId retrieves a chain connection by its chain ID.
// This method is thread-safe and can be called concurrently.
func (cm *ChainManager) GetChainForId(chainId uint64) (*Chain, error) {
	value, exists := cm.chains.Load(chainId)
	if !exists {
		return nil, ErrChainNotFound
	}
	chain, ok := value.(*Chain)
	if !ok {
		return nil, fmt.Errorf("invalid chain type stored for ID %d", chainId)
	}
	return chain, nil
}

// GetChainForNetworkId retrieves a chain connection by its network ID, e.g.
// "base-mainnet". This method is thread-safe and can be called concurrently.
func (cm *ChainManager) GetChainForNetworkId(networkId string) (*Chain, error) {
	value, exists := cm.networkIds.Load(networkId)
	if !exists {
		return nil, ErrChainNotFound
	}
	chainId, ok := value.(uint64)
	if !ok {
		return nil, fmt.Errorf("invalid chain ID stored for network %s", networkId)
	}
	return cm.GetChainForId(chainId)
}
