// Package swapActions provides a token swap action backed by an external
// quote service. The quote supplies router calldata; the swap always runs a
// pre-flight simulation because quotes go stale between pricing and broadcast.
package swapActions

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/agentfi-labs/agentwallet-go/pkg/action"
	"github.com/agentfi-labs/agentwallet-go/pkg/chainManager"
	"github.com/agentfi-labs/agentwallet-go/pkg/tokenExecutor"
	"github.com/agentfi-labs/agentwallet-go/pkg/txError"
	"github.com/agentfi-labs/agentwallet-go/pkg/walletProvider"
)

// defaultSlippageBps is applied when the caller does not bound slippage.
const defaultSlippageBps = 50

// QuoteRequest asks the quote service to price one exact-input swap.
type QuoteRequest struct {
	// Network identifies the chain the swap executes on.
	Network chainManager.Network
	// Taker is the wallet address executing the swap.
	Taker common.Address
	// TokenIn is the asset sold.
	TokenIn common.Address
	// TokenOut is the asset bought.
	TokenOut common.Address
	// AmountIn is the exact input amount in atomic units.
	AmountIn *big.Int
	// SlippageBps bounds acceptable price movement in basis points.
	SlippageBps uint32
}

// SwapQuote is the executable route returned by the quote service.
type SwapQuote struct {
	// Router is the contract the calldata targets.
	Router common.Address
	// Spender is the contract that pulls TokenIn and needs an allowance.
	// Usually the router itself, but some aggregators use a separate
	// permit contract.
	Spender common.Address
	// Calldata is the ready-to-send router call.
	Calldata []byte
	// Value is the native amount to attach, nonzero for native-input swaps.
	Value *big.Int
	// AmountOut is the quoted output amount in atomic units.
	AmountOut *big.Int
}

// QuoteService prices swaps and returns executable routes. Implementations
// wrap an aggregator HTTP API; failures surface as API_CALL_FAILED.
type QuoteService interface {
	GetQuote(ctx context.Context, req *QuoteRequest) (*SwapQuote, error)
}

// Provider exposes the swap action for one wallet instance.
type Provider struct {
	wallet   walletProvider.IWalletProvider
	executor *tokenExecutor.Executor
	quotes   QuoteService
	logger   *zap.Logger
}

var _ action.IActionProvider = (*Provider)(nil)

// NewProvider creates the swap action provider.
func NewProvider(wallet walletProvider.IWalletProvider, quotes QuoteService, logger *zap.Logger) *Provider {
	return &Provider{
		wallet:   wallet,
		executor: tokenExecutor.NewExecutor(wallet, logger),
		quotes:   quotes,
		logger:   logger,
	}
}

// Name returns the provider key.
func (p *Provider) Name() string {
	return "swap"
}

// SupportsNetwork accepts any EVM network; the quote service rejects
// unsupported chains per request.
func (p *Provider) SupportsNetwork(network chainManager.Network) bool {
	return action.SupportsProtocolFamily("evm")(network)
}

// Actions returns the swap action.
func (p *Provider) Actions() []action.Action {
	return []action.Action{p.swapAction()}
}

// SwapArgs are the arguments for the swap action.
type SwapArgs struct {
	// TokenIn is the ERC-20 asset to sell.
	TokenIn string `json:"token_in" validate:"required,eth_addr"`
	// TokenOut is the ERC-20 asset to buy.
	TokenOut string `json:"token_out" validate:"required,eth_addr"`
	// Amount is the human-readable decimal amount of TokenIn to sell.
	Amount string `json:"amount" validate:"required"`
	// SlippageBps bounds acceptable price movement; defaults when omitted.
	SlippageBps uint32 `json:"slippage_bps" validate:"lte=10000"`
}

func (p *Provider) swapAction() action.Action {
	return action.Action{
		Name:        "swap",
		Description: "Swap an exact amount of one token for another through an aggregator route.",
		Schema:      SwapArgs{},
		Invoke: func(ctx context.Context, raw json.RawMessage) (string, error) {
			var args SwapArgs
			if err := action.DecodeArgs(raw, &args); err != nil {
				return "", err
			}
			slippage := args.SlippageBps
			if slippage == 0 {
				slippage = defaultSlippageBps
			}

			tokenIn := common.HexToAddress(args.TokenIn)
			tokenOut := common.HexToAddress(args.TokenOut)

			var quote *SwapQuote
			result, err := p.executor.Execute(ctx, &tokenExecutor.Operation{
				Token:  tokenIn,
				Amount: args.Amount,
				// Routes revert when the quote goes stale, so every swap is
				// simulated before broadcast.
				Simulate: true,
				Prepare: func(ctx context.Context, atomic *big.Int) (*tokenExecutor.PreparedCall, error) {
					var err error
					quote, err = p.quotes.GetQuote(ctx, &QuoteRequest{
						Network:     p.wallet.GetNetwork(),
						Taker:       p.wallet.GetAddress(),
						TokenIn:     tokenIn,
						TokenOut:    tokenOut,
						AmountIn:    atomic,
						SlippageBps: slippage,
					})
					if err != nil {
						return nil, txError.Wrap(txError.CodeAPICallFailed, "failed to fetch swap quote", err)
					}
					return &tokenExecutor.PreparedCall{
						Spender: quote.Spender,
						Tx: &walletProvider.TxRequest{
							To:    &quote.Router,
							Data:  quote.Calldata,
							Value: quote.Value,
						},
					}, nil
				},
			})
			if err != nil {
				return "", err
			}

			return fmt.Sprintf("Swapped %s of %s for %s atomic units of %s in transaction %s",
				args.Amount, args.TokenIn, quote.AmountOut.String(), args.TokenOut, result.TxHash.Hex()), nil
		},
	}
}
