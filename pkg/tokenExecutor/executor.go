// Package tokenExecutor implements the execution algorithm shared by every
// asset-moving action: convert the human amount to atomic units, ensure the
// spender allowance, optionally simulate, broadcast, and confirm. Protocol
// specifics stay in the action; this package only governs how a validated
// intent becomes a signed, confirmed transaction.
package tokenExecutor

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/agentfi-labs/agentwallet-go/pkg/amount"
	"github.com/agentfi-labs/agentwallet-go/pkg/txError"
	"github.com/agentfi-labs/agentwallet-go/pkg/walletProvider"
)

// PreparedCall is the protocol-specific call an operation resolves to once
// the atomic amount is known.
type PreparedCall struct {
	// Spender is the contract that will pull the token and therefore needs an
	// allowance. The zero address means no approval is required (the call
	// moves no third-party-pulled tokens, e.g. a withdraw or direct transfer).
	Spender common.Address
	// Tx is the transaction intent to simulate and broadcast.
	Tx *walletProvider.TxRequest
}

// PrepareFunc resolves protocol parameters and builds calldata for the given
// atomic amount. Failures surface as typed errors from the resolving action.
type PrepareFunc func(ctx context.Context, atomic *big.Int) (*PreparedCall, error)

// Operation describes one token-moving execution.
type Operation struct {
	// Token is the asset being moved; ignored when Native is true.
	Token common.Address
	// Amount is the caller-supplied human-readable decimal amount.
	Amount string
	// Native marks the chain's native asset, which has fixed decimals and
	// never needs an allowance.
	Native bool
	// Simulate enables a read-only dry run before broadcasting. A simulation
	// failure aborts before any state-changing transaction is sent.
	Simulate bool
	// Prepare resolves the protocol call once the atomic amount is known.
	Prepare PrepareFunc
}

// Result is the structured outcome of a successful execution.
type Result struct {
	// Token is the asset that was moved.
	Token common.Address
	// AtomicAmount is the converted amount the contract call consumed.
	AtomicAmount *big.Int
	// TxHash is the hash of the confirmed main transaction.
	TxHash common.Hash
	// Receipt is the chain's confirmation record for the main transaction.
	Receipt *types.Receipt
	// ApprovalTxHash is set when an approval transaction was submitted and
	// confirmed before the main call.
	ApprovalTxHash *common.Hash
}

// Executor runs token operations against one wallet. Steps execute strictly
// sequentially: approval before spend, simulation before broadcast. Across
// independent invocations no ordering is enforced; concurrent operations
// racing on the same allowance are settled by the chain, not this layer.
type Executor struct {
	wallet walletProvider.IWalletProvider
	logger *zap.Logger
}

// NewExecutor creates an Executor bound to a wallet.
func NewExecutor(wallet walletProvider.IWalletProvider, logger *zap.Logger) *Executor {
	return &Executor{
		wallet: wallet,
		logger: logger,
	}
}

// Execute runs an operation to completion. Any step's failure short-circuits
// the remaining steps and is returned as a typed error; an approval that
// already landed is a legitimate on-chain effect and is logged, not hidden.
// Nothing is retried automatically.
func (e *Executor) Execute(ctx context.Context, op *Operation) (*Result, error) {
	// Amount validation happens before any network call.
	parsed, err := amount.Parse(op.Amount)
	if err != nil {
		return nil, err
	}
	if op.Prepare == nil {
		return nil, txError.New(txError.CodeInvalidInput, "operation has no prepared call")
	}

	// Decimals are read fresh from the chain every run; a cached value can go
	// stale across tokens and corrupt the conversion.
	decimals, err := e.resolveDecimals(ctx, op)
	if err != nil {
		return nil, err
	}
	atomic := amount.ToAtomicUnits(parsed, decimals)
	if atomic.Sign() <= 0 {
		return nil, txError.Newf(txError.CodeInvalidInput,
			"amount %s is below one atomic unit at %d decimals", op.Amount, decimals)
	}

	prepared, err := op.Prepare(ctx, atomic)
	if err != nil {
		return nil, txError.Wrap(txError.CodeInvalidInput, "failed to prepare operation", err)
	}
	if prepared == nil || prepared.Tx == nil {
		return nil, txError.New(txError.CodeInvalidInput, "prepared operation is missing a transaction")
	}

	result := &Result{
		Token:        op.Token,
		AtomicAmount: atomic,
	}

	if !op.Native && prepared.Spender != (common.Address{}) {
		approvalHash, err := e.ensureAllowance(ctx, op.Token, prepared.Spender, atomic)
		if err != nil {
			return nil, err
		}
		result.ApprovalTxHash = approvalHash
	}

	if op.Simulate {
		if _, err := e.wallet.SimulateTransaction(ctx, prepared.Tx); err != nil {
			return nil, txError.Wrap(txError.CodeContractError, "pre-flight simulation failed", err)
		}
	}

	txHash, err := e.wallet.SendTransaction(ctx, prepared.Tx)
	if err != nil {
		return nil, e.reportPartialFailure(op, result, "failed to broadcast transaction", err)
	}
	result.TxHash = txHash

	receipt, err := e.wallet.WaitForTransactionReceipt(ctx, txHash)
	if err != nil {
		return nil, e.reportPartialFailure(op, result, fmt.Sprintf("failed waiting for receipt of %s", txHash.Hex()), err)
	}
	result.Receipt = receipt

	return result, nil
}

// resolveDecimals returns the token's decimals, reading them from the chain
// for non-native assets.
func (e *Executor) resolveDecimals(ctx context.Context, op *Operation) (uint8, error) {
	if op.Native {
		return amount.NativeDecimals, nil
	}

	values, err := e.wallet.ReadContract(ctx, op.Token, ERC20ABI, "decimals")
	if err != nil {
		return 0, txError.Wrap(txError.CodeTokenMetadata,
			fmt.Sprintf("failed to read decimals of %s", op.Token.Hex()), err)
	}
	decimals, ok := firstValue[uint8](values)
	if !ok {
		return 0, txError.Newf(txError.CodeTokenMetadata,
			"token %s returned an unexpected decimals value", op.Token.Hex())
	}
	return decimals, nil
}

// ensureAllowance re-reads the current allowance and, when it falls short,
// approves exactly the required amount and waits for the approval receipt.
// The allowance is authoritative external state: it is never cached across
// invocations because it can change out-of-band. Repeated calls with a
// sufficient allowance never re-approve.
func (e *Executor) ensureAllowance(ctx context.Context, token, spender common.Address, required *big.Int) (*common.Hash, error) {
	owner := e.wallet.GetAddress()

	values, err := e.wallet.ReadContract(ctx, token, ERC20ABI, "allowance", owner, spender)
	if err != nil {
		return nil, txError.Wrap(txError.CodeContractError,
			fmt.Sprintf("failed to read allowance of %s for %s", token.Hex(), spender.Hex()), err)
	}
	current, ok := firstValue[*big.Int](values)
	if !ok {
		return nil, txError.Newf(txError.CodeContractError,
			"token %s returned an unexpected allowance value", token.Hex())
	}

	if current.Cmp(required) >= 0 {
		e.logger.Debug("allowance already sufficient",
			zap.String("token", token.Hex()),
			zap.String("spender", spender.Hex()),
			zap.String("allowance", current.String()),
			zap.String("required", required.String()),
		)
		return nil, nil
	}

	calldata, err := ERC20ABI.Pack("approve", spender, required)
	if err != nil {
		return nil, txError.Wrap(txError.CodeUnknown, "failed to encode approve call", err)
	}

	approvalHash, err := e.wallet.SendTransaction(ctx, &walletProvider.TxRequest{
		To:   &token,
		Data: calldata,
	})
	if err != nil {
		return nil, txError.Wrap(txError.CodeContractError,
			fmt.Sprintf("failed to approve %s for %s", token.Hex(), spender.Hex()), err)
	}

	if _, err := e.wallet.WaitForTransactionReceipt(ctx, approvalHash); err != nil {
		return nil, txError.Wrap(txError.CodeContractError,
			fmt.Sprintf("failed waiting for approval receipt %s", approvalHash.Hex()), err)
	}

	e.logger.Info("approval confirmed",
		zap.String("token", token.Hex()),
		zap.String("spender", spender.Hex()),
		zap.String("amount", required.String()),
		zap.String("txHash", approvalHash.Hex()),
	)
	return &approvalHash, nil
}

// reportPartialFailure surfaces a failure that happened after earlier
// on-chain effects landed. The completed approval is reported, never rolled
// back or masked inside an opaque failure.
func (e *Executor) reportPartialFailure(op *Operation, result *Result, context string, err error) error {
	if result.ApprovalTxHash != nil {
		e.logger.Warn("operation failed after approval was confirmed",
			zap.String("token", op.Token.Hex()),
			zap.String("approvalTxHash", result.ApprovalTxHash.Hex()),
			zap.Error(err),
		)
	}
	return txError.Wrap(txError.CodeContractError, context, err)
}

// firstValue extracts the first decoded ABI output as type T.
func firstValue[T any](values []any) (T, bool) {
	var zero T
	if len(values) == 0 {
		return zero, false
	}
	v, ok := values[0].(T)
	return v, ok
}
