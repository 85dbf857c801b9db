package chainManager

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() *ChainConfig {
	return &ChainConfig{
		Network: Network{
			ProtocolFamily: "evm",
			NetworkID:      "base-mainnet",
			ChainID:        8453,
		},
		RPCUrl: "http://localhost:8545",
	}
}

func TestAddChainWithClient_RegistersBothIndexes(t *testing.T) {
	cm := NewChainManager()
	client := NewMockEthClientInterface(t)

	require.NoError(t, cm.AddChainWithClient(baseConfig(), client))

	byChainID, err := cm.GetChainForId(8453)
	require.NoError(t, err)
	assert.Equal(t, "base-mainnet", byChainID.Network().NetworkID)
	assert.Same(t, client, byChainID.RPCClient)

	byNetworkID, err := cm.GetChainForNetworkId("base-mainnet")
	require.NoError(t, err)
	assert.Same(t, byChainID, byNetworkID)
}

func TestAddChainWithClient_RejectsDuplicateChainID(t *testing.T) {
	cm := NewChainManager()
	client := NewMockEthClientInterface(t)

	require.NoError(t, cm.AddChainWithClient(baseConfig(), client))
	err := cm.AddChainWithClient(baseConfig(), client)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestGetChain_UnknownIdentifiers(t *testing.T) {
	cm := NewChainManager()

	_, err := cm.GetChainForId(1)
	assert.ErrorIs(t, err, ErrChainNotFound)

	_, err = cm.GetChainForNetworkId("ethereum-mainnet")
	assert.ErrorIs(t, err, ErrChainNotFound)
}

func TestLoadChainDefinitions_ParsesYAMLAndDefaultsFamily(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chains.yaml")
	content := `chains:
  - network:
      network_id: base-mainnet
      chain_id: 8453
    rpc_url: http://localhost:8545
  - network:
      protocol_family: evm
      network_id: base-sepolia
      chain_id: 84532
    rpc_url: http://localhost:8546
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	defs, err := LoadChainDefinitions(path)
	require.NoError(t, err)
	require.Len(t, defs.Chains, 2)

	assert.Equal(t, "evm", defs.Chains[0].Network.ProtocolFamily)
	assert.Equal(t, uint64(8453), defs.Chains[0].Network.ChainID)
	assert.Equal(t, "base-sepolia", defs.Chains[1].Network.NetworkID)
}

func TestLoadChainDefinitions_MissingRPCUrlFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chains.yaml")
	content := `chains:
  - network:
      network_id: base-mainnet
      chain_id: 8453
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	_, err := LoadChainDefinitions(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rpc_url")
}

func TestLoadChainDefinitions_EmptyPathYieldsEmptySet(t *testing.T) {
	defs, err := LoadChainDefinitions("")
	require.NoError(t, err)
	assert.Empty(t, defs.Chains)
}

func TestNetworkString(t *testing.T) {
	assert.Equal(t, "evm/base-mainnet (chain 8453)", Network{
		ProtocolFamily: "evm", NetworkID: "base-mainnet", ChainID: 8453,
	}.String())
	assert.Equal(t, "evm (chain 1)", Network{ProtocolFamily: "evm", ChainID: 1}.String())
}
