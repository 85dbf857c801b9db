package walletProvider

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/agentfi-labs/agentwallet-go/pkg/chainManager"
	"github.com/agentfi-labs/agentwallet-go/pkg/txError"
)

// LocalWallet implements IWalletProvider using a raw private key held in
// process memory.
type LocalWallet struct {
	rpcBackend
	privateKey *ecdsa.PrivateKey
	chainID    *big.Int
}

var _ IWalletProvider = (*LocalWallet)(nil)

// NewLocalWallet creates a LocalWallet from a hex-encoded private key. The
// wallet's address is derived from the key; its network is fixed for the
// instance's lifetime.
func NewLocalWallet(privateKeyHex string, network chainManager.Network, client chainManager.EthClientInterface) (*LocalWallet, error) {
	// Remove 0x prefix if present
	privateKeyHex = strings.TrimPrefix(privateKeyHex, "0x")

	privateKey, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("rpc client is required")
	}

	return &LocalWallet{
		rpcBackend: rpcBackend{
			client:  client,
			address: crypto.PubkeyToAddress(privateKey.PublicKey),
			network: network,
		},
		privateKey: privateKey,
		chainID:    new(big.Int).SetUint64(network.ChainID),
	}, nil
}

// SignMessage signs an EIP-191 personal message with the local key.
func (w *LocalWallet) SignMessage(_ context.Context, message []byte) ([]byte, error) {
	sig, err := crypto.Sign(accounts.TextHash(message), w.privateKey)
	if err != nil {
		return nil, txError.Wrap(txError.CodeUnknown, "failed to sign message", err)
	}
	// personal_sign convention encodes the recovery id as 27/28
	sig[64] += 27
	return sig, nil
}

// SignTypedData signs an EIP-712 typed data payload with the local key.
func (w *LocalWallet) SignTypedData(_ context.Context, typedData apitypes.TypedData) ([]byte, error) {
	digest, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return nil, txError.Wrap(txError.CodeInvalidInput, "failed to hash typed data", err)
	}
	sig, err := crypto.Sign(digest, w.privateKey)
	if err != nil {
		return nil, txError.Wrap(txError.CodeUnknown, "failed to sign typed data", err)
	}
	sig[64] += 27
	return sig, nil
}

// SignTransaction assembles and signs a transaction without broadcasting it.
func (w *LocalWallet) SignTransaction(ctx context.Context, txReq *TxRequest) ([]byte, error) {
	signedTx, err := w.assembleAndSign(ctx, txReq)
	if err != nil {
		return nil, err
	}
	raw, err := signedTx.MarshalBinary()
	if err != nil {
		return nil, txError.Wrap(txError.CodeUnknown, "failed to encode signed transaction", err)
	}
	return raw, nil
}

// SendTransaction signs a transaction with the local key and broadcasts it.
func (w *LocalWallet) SendTransaction(ctx context.Context, txReq *TxRequest) (common.Hash, error) {
	signedTx, err := w.assembleAndSign(ctx, txReq)
	if err != nil {
		return common.Hash{}, err
	}
	if err := w.client.SendTransaction(ctx, signedTx); err != nil {
		return common.Hash{}, txError.Wrap(txError.CodeContractError, "failed to broadcast transaction", err)
	}
	return signedTx.Hash(), nil
}

// NativeTransfer transfers the native asset and waits for confirmation.
func (w *LocalWallet) NativeTransfer(ctx context.Context, to common.Address, humanAmount string) (common.Hash, error) {
	return nativeTransfer(ctx, w, to, humanAmount)
}

func (w *LocalWallet) assembleAndSign(ctx context.Context, txReq *TxRequest) (*types.Transaction, error) {
	tx, err := w.assembleTransaction(ctx, txReq, w.chainID)
	if err != nil {
		return nil, txError.Wrap(txError.CodeContractError, "failed to assemble transaction", err)
	}
	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(w.chainID), w.privateKey)
	if err != nil {
		return nil, txError.Wrap(txError.CodeUnknown, "failed to sign transaction", err)
	}
	return signedTx, nil
}
