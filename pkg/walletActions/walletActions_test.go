package walletActions

import (
	"context"
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/agentfi-labs/agentwallet-go/pkg/action"
	"github.com/agentfi-labs/agentwallet-go/pkg/chainManager"
	"github.com/agentfi-labs/agentwallet-go/pkg/tokenExecutor"
	"github.com/agentfi-labs/agentwallet-go/pkg/txError"
	"github.com/agentfi-labs/agentwallet-go/pkg/walletProvider"
)

var (
	walletAddress = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	recipient     = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	tokenAddress  = common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")

	baseMainnet = chainManager.Network{ProtocolFamily: "evm", NetworkID: "base-mainnet", ChainID: 8453}
)

func findAction(t *testing.T, p *Provider, name string) *action.Action {
	t.Helper()
	for _, a := range p.Actions() {
		if a.Name == name {
			return &a
		}
	}
	t.Fatalf("provider does not declare action %s", name)
	return nil
}

func TestProvider_SupportsOnlyEVMNetworks(t *testing.T) {
	provider := NewProvider(walletProvider.NewMockIWalletProvider(t), zap.NewNop())

	assert.True(t, provider.SupportsNetwork(baseMainnet))
	assert.False(t, provider.SupportsNetwork(chainManager.Network{
		ProtocolFamily: "svm",
		NetworkID:      "solana-mainnet",
	}))
}

func TestGetBalance_FormatsHumanAmount(t *testing.T) {
	mockWallet := walletProvider.NewMockIWalletProvider(t)
	mockWallet.On("GetBalance", mock.Anything).Return(big.NewInt(1_500_000_000_000_000_000), nil)
	mockWallet.On("GetAddress").Return(walletAddress)
	mockWallet.On("GetNetwork").Return(baseMainnet)

	provider := NewProvider(mockWallet, zap.NewNop())
	balanceAction := findAction(t, provider, "get_balance")

	result, err := balanceAction.Invoke(context.Background(), nil)
	require.NoError(t, err)
	assert.Contains(t, result, "1.5")
	assert.Contains(t, result, "base-mainnet")
}

func TestNativeTransfer_ValidatesRecipientAddress(t *testing.T) {
	mockWallet := walletProvider.NewMockIWalletProvider(t)
	provider := NewProvider(mockWallet, zap.NewNop())
	transfer := findAction(t, provider, "native_transfer")

	_, err := transfer.Invoke(context.Background(),
		json.RawMessage(`{"to":"not-an-address","amount":"1"}`))

	require.Error(t, err)
	assert.Equal(t, txError.CodeInvalidInput, txError.CodeOf(err))
	mockWallet.AssertNumberOfCalls(t, "SendTransaction", 0)
}

func TestNativeTransfer_DelegatesToWallet(t *testing.T) {
	mockWallet := walletProvider.NewMockIWalletProvider(t)
	txHash := common.HexToHash("0x07")
	mockWallet.On("NativeTransfer", mock.Anything, recipient, "0.25").Return(txHash, nil)

	provider := NewProvider(mockWallet, zap.NewNop())
	transfer := findAction(t, provider, "native_transfer")

	result, err := transfer.Invoke(context.Background(),
		json.RawMessage(`{"to":"0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb","amount":"0.25"}`))

	require.NoError(t, err)
	assert.Contains(t, result, txHash.Hex())
}

func TestErc20Transfer_SendsTransferCalldataWithoutApproval(t *testing.T) {
	mockWallet := walletProvider.NewMockIWalletProvider(t)

	mockWallet.On("ReadContract", mock.Anything, tokenAddress, mock.Anything, "decimals").
		Return([]any{uint8(6)}, nil)

	transferCalldata, err := tokenExecutor.ERC20ABI.Pack("transfer", recipient, big.NewInt(2_000_000))
	require.NoError(t, err)

	txHash := common.HexToHash("0x08")
	mockWallet.On("SendTransaction", mock.Anything, &walletProvider.TxRequest{
		To:   &tokenAddress,
		Data: transferCalldata,
	}).Return(txHash, nil)
	mockWallet.On("WaitForTransactionReceipt", mock.Anything, txHash).
		Return(&types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: txHash}, nil)

	provider := NewProvider(mockWallet, zap.NewNop())
	transfer := findAction(t, provider, "erc20_transfer")

	result, err := transfer.Invoke(context.Background(), json.RawMessage(
		`{"token":"0xcccccccccccccccccccccccccccccccccccccccc",`+
			`"to":"0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb","amount":"2"}`))

	require.NoError(t, err)
	assert.Contains(t, result, txHash.Hex())
	// A direct transfer never reads an allowance or approves.
	mockWallet.AssertNotCalled(t, "ReadContract", mock.Anything, tokenAddress, mock.Anything, "allowance",
		mock.Anything, mock.Anything)
	mockWallet.AssertNumberOfCalls(t, "SendTransaction", 1)
}
