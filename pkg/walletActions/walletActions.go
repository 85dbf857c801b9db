// Package walletActions provides the baseline wallet operations every EVM
// network supports: balance reads, native transfers, and ERC-20 transfers.
package walletActions

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/agentfi-labs/agentwallet-go/pkg/action"
	"github.com/agentfi-labs/agentwallet-go/pkg/amount"
	"github.com/agentfi-labs/agentwallet-go/pkg/chainManager"
	"github.com/agentfi-labs/agentwallet-go/pkg/tokenExecutor"
	"github.com/agentfi-labs/agentwallet-go/pkg/walletProvider"
)

// Provider exposes the baseline wallet actions for one wallet instance.
type Provider struct {
	wallet   walletProvider.IWalletProvider
	executor *tokenExecutor.Executor
	logger   *zap.Logger
}

var _ action.IActionProvider = (*Provider)(nil)

// NewProvider creates the wallet action provider bound to a wallet.
func NewProvider(wallet walletProvider.IWalletProvider, logger *zap.Logger) *Provider {
	return &Provider{
		wallet:   wallet,
		executor: tokenExecutor.NewExecutor(wallet, logger),
		logger:   logger,
	}
}

// Name returns the provider key.
func (p *Provider) Name() string {
	return "wallet"
}

// SupportsNetwork accepts any EVM network; the baseline actions need nothing
// beyond an RPC endpoint.
func (p *Provider) SupportsNetwork(network chainManager.Network) bool {
	return action.SupportsProtocolFamily("evm")(network)
}

// Actions returns the baseline wallet actions.
func (p *Provider) Actions() []action.Action {
	return []action.Action{
		p.getBalanceAction(),
		p.nativeTransferAction(),
		p.erc20TransferAction(),
	}
}

// NativeTransferArgs are the arguments for the native_transfer action.
type NativeTransferArgs struct {
	// To is the recipient address.
	To string `json:"to" validate:"required,eth_addr"`
	// Amount is the human-readable decimal amount of the native asset.
	Amount string `json:"amount" validate:"required"`
}

// Erc20TransferArgs are the arguments for the erc20_transfer action.
type Erc20TransferArgs struct {
	// Token is the ERC-20 contract address.
	Token string `json:"token" validate:"required,eth_addr"`
	// To is the recipient address.
	To string `json:"to" validate:"required,eth_addr"`
	// Amount is the human-readable decimal amount of the token.
	Amount string `json:"amount" validate:"required"`
}

func (p *Provider) getBalanceAction() action.Action {
	return action.Action{
		Name:        "get_balance",
		Description: "Read the wallet's native asset balance.",
		Invoke: func(ctx context.Context, _ json.RawMessage) (string, error) {
			balance, err := p.wallet.GetBalance(ctx)
			if err != nil {
				return "", err
			}
			human := decimal.NewFromBigInt(balance, -amount.NativeDecimals)
			return fmt.Sprintf("Balance of %s on %s: %s",
				p.wallet.GetAddress().Hex(),
				p.wallet.GetNetwork().NetworkID,
				human.String(),
			), nil
		},
	}
}

func (p *Provider) nativeTransferAction() action.Action {
	return action.Action{
		Name:        "native_transfer",
		Description: "Transfer the native asset to another address.",
		Schema:      NativeTransferArgs{},
		Invoke: func(ctx context.Context, raw json.RawMessage) (string, error) {
			var args NativeTransferArgs
			if err := action.DecodeArgs(raw, &args); err != nil {
				return "", err
			}

			txHash, err := p.wallet.NativeTransfer(ctx, common.HexToAddress(args.To), args.Amount)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Transferred %s to %s in transaction %s",
				args.Amount, args.To, txHash.Hex()), nil
		},
	}
}

func (p *Provider) erc20TransferAction() action.Action {
	return action.Action{
		Name:        "erc20_transfer",
		Description: "Transfer an ERC-20 token to another address.",
		Schema:      Erc20TransferArgs{},
		Invoke: func(ctx context.Context, raw json.RawMessage) (string, error) {
			var args Erc20TransferArgs
			if err := action.DecodeArgs(raw, &args); err != nil {
				return "", err
			}

			token := common.HexToAddress(args.Token)
			to := common.HexToAddress(args.To)

			result, err := p.executor.Execute(ctx, &tokenExecutor.Operation{
				Token:  token,
				Amount: args.Amount,
				// A direct transfer pulls nothing through a third party, so no
				// spender approval is involved.
				Prepare: func(_ context.Context, atomic *big.Int) (*tokenExecutor.PreparedCall, error) {
					calldata, err := tokenExecutor.ERC20ABI.Pack("transfer", to, atomic)
					if err != nil {
						return nil, err
					}
					return &tokenExecutor.PreparedCall{
						Tx: &walletProvider.TxRequest{
							To:   &token,
							Data: calldata,
						},
					}, nil
				},
			})
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Transferred %s of %s to %s in transaction %s",
				args.Amount, args.Token, args.To, result.TxHash.Hex()), nil
		},
	}
}
