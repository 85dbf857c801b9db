// Package walletProvider defines the signer capability interface every wallet
// implementation satisfies, and the wallet variants that implement it: a
// locally-keyed signer, an AWS KMS signer, a custodial server-wallet signer,
// and a delegated embedded-wallet signer that reaches a remote signer through
// canonically-signed HTTP requests.
package walletProvider

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/agentfi-labs/agentwallet-go/pkg/amount"
	"github.com/agentfi-labs/agentwallet-go/pkg/chainManager"
	"github.com/agentfi-labs/agentwallet-go/pkg/txError"
)

// receiptPollInterval is how often WaitForTransactionReceipt re-checks the
// chain for inclusion. No overall timeout is imposed; callers bound the wait
// with their context.
const receiptPollInterval = time.Second

// TxRequest is a transient transaction intent produced by an action before
// simulation. It lives only for the duration of one execution and is never
// persisted.
type TxRequest struct {
	// To is the target address; nil for contract creation
	To *common.Address
	// Data is the calldata to send
	Data []byte
	// Value is the native amount in atomic units; nil means zero
	Value *big.Int
	// GasLimit caps gas usage; zero means estimate before sending
	GasLimit uint64
}

// IWalletProvider is the capability set every wallet variant satisfies. A
// provider owns exactly one (address, network) pair for its lifetime; both
// are fixed at construction and never reassigned. Failures are per-call, not
// state transitions.
type IWalletProvider interface {
	// GetAddress returns the wallet address, stable for the instance's lifetime.
	GetAddress() common.Address

	// GetNetwork returns the network this wallet targets.
	GetNetwork() chainManager.Network

	// GetBalance returns the native asset balance in atomic units.
	GetBalance(ctx context.Context) (*big.Int, error)

	// SignMessage signs an EIP-191 personal message. It must not broadcast.
	SignMessage(ctx context.Context, message []byte) ([]byte, error)

	// SignTypedData signs an EIP-712 structured payload. It must not broadcast.
	SignTypedData(ctx context.Context, typedData apitypes.TypedData) ([]byte, error)

	// SignTransaction signs a transaction request and returns the signed raw
	// bytes. It must not broadcast.
	SignTransaction(ctx context.Context, tx *TxRequest) ([]byte, error)

	// SendTransaction signs and broadcasts a transaction request.
	SendTransaction(ctx context.Context, tx *TxRequest) (common.Hash, error)

	// WaitForTransactionReceipt blocks until the chain reports inclusion of
	// the transaction. No client-side timeout is imposed by this layer;
	// callers wrap the context to bound the wait.
	WaitForTransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)

	// ReadContract performs a read-only contract call and returns the decoded
	// values. It never mutates chain state.
	ReadContract(ctx context.Context, address common.Address, contractABI abi.ABI, method string, args ...any) ([]any, error)

	// SimulateTransaction dry-runs a transaction request against current
	// chain state without broadcasting, surfacing would-be reverts.
	SimulateTransaction(ctx context.Context, tx *TxRequest) ([]byte, error)

	// NativeTransfer transfers the native asset, waiting for confirmation.
	// The amount is a human-readable decimal string.
	NativeTransfer(ctx context.Context, to common.Address, humanAmount string) (common.Hash, error)
}

// rpcBackend holds the read-side plumbing shared by every EVM wallet variant.
// Its identity fields are read-only after construction and safe to share
// across concurrent calls.
type rpcBackend struct {
	client  chainManager.EthClientInterface
	address common.Address
	network chainManager.Network
}

func (b *rpcBackend) GetAddress() common.Address {
	return b.address
}

func (b *rpcBackend) GetNetwork() chainManager.Network {
	return b.network
}

func (b *rpcBackend) GetBalance(ctx context.Context) (*big.Int, error) {
	balance, err := b.client.BalanceAt(ctx, b.address, nil)
	if err != nil {
		return nil, txError.Wrap(txError.CodeContractError, "failed to read native balance", err)
	}
	return balance, nil
}

func (b *rpcBackend) ReadContract(ctx context.Context, address common.Address, contractABI abi.ABI, method string, args ...any) ([]any, error) {
	calldata, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, txError.Wrap(txError.CodeInvalidInput, fmt.Sprintf("failed to encode %s call", method), err)
	}
	output, err := b.client.CallContract(ctx, ethereum.CallMsg{
		From: b.address,
		To:   &address,
		Data: calldata,
	}, nil)
	if err != nil {
		return nil, txError.Wrap(txError.CodeContractError, fmt.Sprintf("contract read %s failed", method), err)
	}
	decoded, err := contractABI.Unpack(method, output)
	if err != nil {
		return nil, txError.Wrap(txError.CodeContractError, fmt.Sprintf("failed to decode %s result", method), err)
	}
	return decoded, nil
}

func (b *rpcBackend) SimulateTransaction(ctx context.Context, tx *TxRequest) ([]byte, error) {
	output, err := b.client.CallContract(ctx, ethereum.CallMsg{
		From:  b.address,
		To:    tx.To,
		Data:  tx.Data,
		Value: tx.Value,
	}, nil)
	if err != nil {
		return nil, txError.Wrap(txError.CodeContractError, "transaction simulation reverted", err)
	}
	return output, nil
}

func (b *rpcBackend) WaitForTransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := b.client.TransactionReceipt(ctx, txHash)
		if err == nil && receipt != nil {
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, txError.Wrap(txError.CodeContractError,
				fmt.Sprintf("gave up waiting for receipt of %s", txHash.Hex()), ctx.Err())
		case <-ticker.C:
		}
	}
}

// assembleTransaction fills in nonce, gas price, and gas limit for a
// transaction request, producing an unsigned EIP-1559 transaction.
func (b *rpcBackend) assembleTransaction(ctx context.Context, txReq *TxRequest, chainID *big.Int) (*types.Transaction, error) {
	nonce, err := b.client.PendingNonceAt(ctx, b.address)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending nonce: %w", err)
	}

	tipCap, err := b.client.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch gas tip cap: %w", err)
	}

	head, err := b.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chain head: %w", err)
	}
	// feeCap = 2 * baseFee + tip, the go-ethereum default for EIP-1559 sends.
	feeCap := new(big.Int).Add(tipCap, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))

	gasLimit := txReq.GasLimit
	if gasLimit == 0 {
		gasLimit, err = b.client.EstimateGas(ctx, ethereum.CallMsg{
			From:      b.address,
			To:        txReq.To,
			Data:      txReq.Data,
			Value:     txReq.Value,
			GasTipCap: tipCap,
			GasFeeCap: feeCap,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to estimate gas: %w", err)
		}
	}

	value := txReq.Value
	if value == nil {
		value = new(big.Int)
	}

	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: tipCap,
		GasFeeCap: feeCap,
		Gas:       gasLimit,
		To:        txReq.To,
		Value:     value,
		Data:      txReq.Data,
	}), nil
}

// nativeTransfer is the shared parse-amount + send + confirm composite behind
// every variant's NativeTransfer method.
func nativeTransfer(ctx context.Context, w IWalletProvider, to common.Address, humanAmount string) (common.Hash, error) {
	atomic, err := amount.ToAtomic(humanAmount, amount.NativeDecimals)
	if err != nil {
		return common.Hash{}, err
	}

	txHash, err := w.SendTransaction(ctx, &TxRequest{
		To:    &to,
		Value: atomic,
	})
	if err != nil {
		return common.Hash{}, err
	}

	if _, err := w.WaitForTransactionReceipt(ctx, txHash); err != nil {
		return common.Hash{}, err
	}
	return txHash, nil
}
