// Package lendingActions provides supply, withdraw, borrow, and repay actions
// against a pooled lending protocol. Market identifiers resolve to on-chain
// parameters through a MarketReader so the actions never hardcode addresses.
package lendingActions

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

// MarketReader resolves a market identifier to its on-chain parameters.
// Implementations typically read the pool contract or a protocol index.
type MarketReader interface {
	// ResolveMarket returns the parameters of the named market, or an
	// INVALID_INPUT error when the identifier is unknown.
	ResolveMarket(ctx context.Context, marketID string) (*MarketParams, error)
}

// Provider exposes the lending actions for one wallet instance.
type Provider struct {
	wallet     walletProvider.IWalletProvider
	executor   *tokenExecutor.Executor
	markets    MarketReader
	networkIds []string
	logger     *zap.Logger
}

var _ action.IActionProvider = (*Provider)(nil)

// NewProvider creates the lending action provider. The pool protocol is only
// deployed on specific networks, so the provider declares them explicitly.
func NewProvider(wallet walletProvider.IWalletProvider, markets MarketReader, networkIds []string, logger *zap.Logger) *Provider {
	return &Provider{
		wallet:     wallet,
		executor:   tokenExecutor.NewExecutor(wallet, logger),
		markets:    markets,
		networkIds: networkIds,
		logger:     logger,
	}
}

// Name returns the provider key.
func (p *Provider) Name() string {
	return "lending"
}

// SupportsNetwork accepts only the networks the pool is deployed on.
func (p *Provider) SupportsNetwork(network chainManager.Network) bool {
	return action.SupportsNetworkIds(p.networkIds...)(network)
}

// Actions returns the four lending actions.
func (p *Provider) Actions() []action.Action {
	return []action.Action{
		p.lendingAction("supply", "Supply the market's loan token to the pool.", true),
		p.lendingAction("withdraw", "Withdraw previously supplied loan tokens from the pool.", false),
		p.lendingAction("borrow", "Borrow the market's loan token from the pool.", false),
		p.lendingAction("repay", "Repay borrowed loan tokens to the pool.", true),
	}
}

// MarketArgs are the arguments shared by every lending action.
type MarketArgs struct {
	// MarketID identifies the market to operate on.
	MarketID string `json:"market_id" validate:"required"`
	// Amount is the human-readable decimal amount of the loan token.
	Amount string `json:"amount" validate:"required"`
}

// lendingAction builds one pool entrypoint action. Entrypoints that move
// tokens from the wallet into the pool (supply, repay) need the pool approved
// as spender; entrypoints that move tokens out (withdraw, borrow) do not.
func (p *Provider) lendingAction(method, description string, poolPullsTokens bool) action.Action {
	return action.Action{
		Name:        method,
		Description: description,
		Schema:      MarketArgs{},
		Invoke: func(ctx context.Context, raw json.RawMessage) (string, error) {
			var args MarketArgs
			if err := action.DecodeArgs(raw, &args); err != nil {
				return "", err
			}

			market, err := p.markets.ResolveMarket(ctx, args.MarketID)
			if err != nil {
				return "", txError.Wrap(txError.CodeInvalidInput,
					fmt.Sprintf("failed to resolve market %s", args.MarketID), err)
			}

			result, err := p.executor.Execute(ctx, &tokenExecutor.Operation{
				Token:  market.LoanToken,
				Amount: args.Amount,
				Prepare: func(_ context.Context, atomic *big.Int) (*tokenExecutor.PreparedCall, error) {
					calldata, err := LendingPoolABI.Pack(method, market.ID, atomic)
					if err != nil {
						return nil, err
					}
					prepared := &tokenExecutor.PreparedCall{
						Tx: &walletProvider.TxRequest{
							To:   &market.Pool,
							Data: calldata,
						},
					}
					if poolPullsTokens {
						prepared.Spender = market.Pool
					}
					return prepared, nil
				},
			})
			if err != nil {
				return "", err
			}

			summary := fmt.Sprintf("%s of %s %s on market %s confirmed in transaction %s",
				method, args.Amount, market.LoanToken.Hex(), args.MarketID, result.TxHash.Hex())
			if result.ApprovalTxHash != nil {
				summary += fmt.Sprintf(" (pool approved in %s)", result.ApprovalTxHash.Hex())
			}
			return summary, nil
		},
	}
}

// StaticMarketReader resolves markets from a fixed in-memory table. It backs
// configuration-driven deployments and tests.
type StaticMarketReader struct {
	markets map[string]MarketParams
}

var _ MarketReader = (*StaticMarketReader)(nil)

// NewStaticMarketReader builds a reader over a fixed market table keyed by
// market identifier.
func NewStaticMarketReader(markets map[string]MarketParams) *StaticMarketReader {
	return &StaticMarketReader{markets: markets}
}

// ResolveMarket looks the market up in the table.
func (r *StaticMarketReader) ResolveMarket(_ context.Context, marketID string) (*MarketParams, error) {
	market, ok := r.markets[marketID]
	if !ok {
		return nil, txError.Newf(txError.CodeInvalidInput, "unknown market %s", marketID)
	}
	return &market, nil
}

// MarketIDFromString derives the bytes32 market identifier from its string
// form, for building static tables from configuration.
func MarketIDFromString(marketID string) common.Hash {
	return common.BytesToHash([]byte(marketID))
}
