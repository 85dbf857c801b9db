package swapActions

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/agentfi-labs/agentwallet-go/pkg/chainManager"
	"github.com/agentfi-labs/agentwallet-go/pkg/tokenExecutor"
	"github.com/agentfi-labs/agentwallet-go/pkg/txError"
	"github.com/agentfi-labs/agentwallet-go/pkg/walletProvider"
)

var (
	taker    = common.HexToAddress("0x8888888888888888888888888888888888888888")
	tokenIn  = common.HexToAddress("0x9999999999999999999999999999999999999999")
	tokenOut = common.HexToAddress("0xabababababababababababababababababababab")
	router   = common.HexToAddress("0xcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcd")

	baseMainnet = chainManager.Network{ProtocolFamily: "evm", NetworkID: "base-mainnet", ChainID: 8453}

	swapArgsJSON = `{"token_in":"0x9999999999999999999999999999999999999999",` +
		`"token_out":"0xabababababababababababababababababababab","amount":"1.5"}`
)

type stubQuoteService struct {
	quote    *SwapQuote
	err      error
	requests []*QuoteRequest
}

func (s *stubQuoteService) GetQuote(_ context.Context, req *QuoteRequest) (*SwapQuote, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	return s.quote, nil
}

func invokeSwap(t *testing.T, p *Provider, args string) (string, error) {
	t.Helper()
	actions := p.Actions()
	require.Len(t, actions, 1)
	return actions[0].Invoke(context.Background(), json.RawMessage(args))
}

func TestSwap_QuoteFailureIsAPICallFailed(t *testing.T) {
	mockWallet := walletProvider.NewMockIWalletProvider(t)
	mockWallet.On("ReadContract", mock.Anything, tokenIn, mock.Anything, "decimals").
		Return([]any{uint8(6)}, nil)
	mockWallet.On("GetNetwork").Return(baseMainnet)
	mockWallet.On("GetAddress").Return(taker)

	quotes := &stubQuoteService{err: errors.New("aggregator unavailable")}
	provider := NewProvider(mockWallet, quotes, zap.NewNop())

	_, err := invokeSwap(t, provider, swapArgsJSON)

	require.Error(t, err)
	assert.Equal(t, txError.CodeAPICallFailed, txError.CodeOf(err))
	mockWallet.AssertNumberOfCalls(t, "SendTransaction", 0)
}

func TestSwap_SimulationFailureAbortsBeforeBroadcast(t *testing.T) {
	mockWallet := walletProvider.NewMockIWalletProvider(t)
	mockWallet.On("ReadContract", mock.Anything, tokenIn, mock.Anything, "decimals").
		Return([]any{uint8(6)}, nil)
	mockWallet.On("GetNetwork").Return(baseMainnet)
	mockWallet.On("GetAddress").Return(taker)
	mockWallet.On("ReadContract", mock.Anything, tokenIn, mock.Anything, "allowance", taker, router).
		Return([]any{new(big.Int).Lsh(big.NewInt(1), 128)}, nil)

	quotes := &stubQuoteService{quote: &SwapQuote{
		Router:    router,
		Spender:   router,
		Calldata:  []byte{0x01, 0x02},
		AmountOut: big.NewInt(1_000),
	}}
	provider := NewProvider(mockWallet, quotes, zap.NewNop())

	mockWallet.On("SimulateTransaction", mock.Anything, mock.Anything).
		Return(nil, errors.New("execution reverted: stale quote"))

	_, err := invokeSwap(t, provider, swapArgsJSON)

	require.Error(t, err)
	assert.Equal(t, txError.CodeContractError, txError.CodeOf(err))
	mockWallet.AssertNumberOfCalls(t, "SendTransaction", 0)
}

func TestSwap_ExecutesQuotedRouteWithSlippageDefault(t *testing.T) {
	mockWallet := walletProvider.NewMockIWalletProvider(t)
	mockWallet.On("ReadContract", mock.Anything, tokenIn, mock.Anything, "decimals").
		Return([]any{uint8(6)}, nil)
	mockWallet.On("GetNetwork").Return(baseMainnet)
	mockWallet.On("GetAddress").Return(taker)
	mockWallet.On("ReadContract", mock.Anything, tokenIn, mock.Anything, "allowance", taker, router).
		Return([]any{new(big.Int).Lsh(big.NewInt(1), 128)}, nil)

	routeCalldata := []byte{0xca, 0xfe}
	quotes := &stubQuoteService{quote: &SwapQuote{
		Router:    router,
		Spender:   router,
		Calldata:  routeCalldata,
		AmountOut: big.NewInt(2_970_000),
	}}
	provider := NewProvider(mockWallet, quotes, zap.NewNop())

	swapTx := &walletProvider.TxRequest{To: &router, Data: routeCalldata}
	swapHash := common.HexToHash("0x21")
	mockWallet.On("SimulateTransaction", mock.Anything, swapTx).Return([]byte{}, nil)
	mockWallet.On("SendTransaction", mock.Anything, swapTx).Return(swapHash, nil)
	mockWallet.On("WaitForTransactionReceipt", mock.Anything, swapHash).
		Return(&types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: swapHash}, nil)

	result, err := invokeSwap(t, provider, swapArgsJSON)

	require.NoError(t, err)
	assert.Contains(t, result, swapHash.Hex())
	assert.Contains(t, result, "2970000")

	require.Len(t, quotes.requests, 1)
	req := quotes.requests[0]
	assert.Equal(t, "1500000", req.AmountIn.String())
	assert.Equal(t, tokenOut, req.TokenOut)
	assert.Equal(t, uint32(defaultSlippageBps), req.SlippageBps)
}

func TestSwap_ApprovesQuoteSpenderBeforeRoute(t *testing.T) {
	mockWallet := walletProvider.NewMockIWalletProvider(t)
	mockWallet.On("ReadContract", mock.Anything, tokenIn, mock.Anything, "decimals").
		Return([]any{uint8(6)}, nil)
	mockWallet.On("GetNetwork").Return(baseMainnet)
	mockWallet.On("GetAddress").Return(taker)

	// The aggregator pulls through a permit contract distinct from the router.
	permitContract := common.HexToAddress("0xefefefefefefefefefefefefefefefefefefefef")
	mockWallet.On("ReadContract", mock.Anything, tokenIn, mock.Anything, "allowance", taker, permitContract).
		Return([]any{big.NewInt(0)}, nil)

	approveCalldata, err := tokenExecutor.ERC20ABI.Pack("approve", permitContract, big.NewInt(1_500_000))
	require.NoError(t, err)

	routeCalldata := []byte{0xbe, 0xef}
	quotes := &stubQuoteService{quote: &SwapQuote{
		Router:    router,
		Spender:   permitContract,
		Calldata:  routeCalldata,
		AmountOut: big.NewInt(10),
	}}
	provider := NewProvider(mockWallet, quotes, zap.NewNop())

	approveHash := common.HexToHash("0x22")
	swapHash := common.HexToHash("0x23")
	swapTx := &walletProvider.TxRequest{To: &router, Data: routeCalldata}

	var sentOrder []common.Hash
	mockWallet.On("SendTransaction", mock.Anything, &walletProvider.TxRequest{
		To:   &tokenIn,
		Data: approveCalldata,
	}).Run(func(mock.Arguments) {
		sentOrder = append(sentOrder, approveHash)
	}).Return(approveHash, nil).Once()
	mockWallet.On("SendTransaction", mock.Anything, swapTx).Run(func(mock.Arguments) {
		sentOrder = append(sentOrder, swapHash)
	}).Return(swapHash, nil).Once()

	mockWallet.On("WaitForTransactionReceipt", mock.Anything, approveHash).
		Return(&types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: approveHash}, nil)
	mockWallet.On("WaitForTransactionReceipt", mock.Anything, swapHash).
		Return(&types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: swapHash}, nil)
	mockWallet.On("SimulateTransaction", mock.Anything, swapTx).Return([]byte{}, nil)

	_, err = invokeSwap(t, provider, swapArgsJSON)

	require.NoError(t, err)
	require.Equal(t, []common.Hash{approveHash, swapHash}, sentOrder)
}
