package walletProvider

import (
	"context"
	"fmt"
	"math/big"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/kms"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/agentfi-labs/agentwallet-go/pkg/chainManager"
	"github.com/agentfi-labs/agentwallet-go/pkg/txError"
)

// KMSWallet implements IWalletProvider using an AWS KMS secp256k1 key. The
// private key never leaves the HSM; every signature is produced by a KMS Sign
// call over a locally computed digest.
type KMSWallet struct {
	rpcBackend
	kmsClient *kms.KMS
	keyID     string
	chainID   *big.Int
}

var _ IWalletProvider = (*KMSWallet)(nil)

// NewKMSWallet creates a KMSWallet for the specified KMS key ID and AWS
// region. The Ethereum address is derived from the public key associated with
// the KMS key at construction time.
func NewKMSWallet(keyID, region string, network chainManager.Network, client chainManager.EthClientInterface) (*KMSWallet, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	kmsClient := kms.New(sess)

	address, err := getAddressFromKMSKey(kmsClient, keyID)
	if err != nil {
		return nil, fmt.Errorf("failed to derive address from KMS key: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("rpc client is required")
	}

	return &KMSWallet{
		rpcBackend: rpcBackend{
			client:  client,
			address: address,
			network: network,
		},
		kmsClient: kmsClient,
		keyID:     keyID,
		chainID:   new(big.Int).SetUint64(network.ChainID),
	}, nil
}

// SignMessage signs an EIP-191 personal message with the KMS key.
func (w *KMSWallet) SignMessage(_ context.Context, message []byte) ([]byte, error) {
	sig, err := w.signDigest(accounts.TextHash(message))
	if err != nil {
		return nil, txError.Wrap(txError.CodeUnknown, "failed to sign message with KMS", err)
	}
	sig[64] += 27
	return sig, nil
}

// SignTypedData signs an EIP-712 typed data payload with the KMS key.
func (w *KMSWallet) SignTypedData(_ context.Context, typedData apitypes.TypedData) ([]byte, error) {
	digest, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return nil, txError.Wrap(txError.CodeInvalidInput, "failed to hash typed data", err)
	}
	sig, err := w.signDigest(digest)
	if err != nil {
		return nil, txError.Wrap(txError.CodeUnknown, "failed to sign typed data with KMS", err)
	}
	sig[64] += 27
	return sig, nil
}

// SignTransaction assembles and signs a transaction without broadcasting it.
func (w *KMSWallet) SignTransaction(ctx context.Context, txReq *TxRequest) ([]byte, error) {
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

// SendTransaction signs a transaction with the KMS key and broadcasts it.
func (w *KMSWallet) SendTransaction(ctx context.Context, txReq *TxRequest) (common.Hash, error) {
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
func (w *KMSWallet) NativeTransfer(ctx context.Context, to common.Address, humanAmount string) (common.Hash, error) {
	return nativeTransfer(ctx, w, to, humanAmount)
}

func (w *KMSWallet) assembleAndSign(ctx context.Context, txReq *TxRequest) (*types.Transaction, error) {
	tx, err := w.assembleTransaction(ctx, txReq, w.chainID)
	if err != nil {
		return nil, txError.Wrap(txError.CodeContractError, "failed to assemble transaction", err)
	}

	signer := types.LatestSignerForChainID(w.chainID)
	sig, err := w.signDigest(signer.Hash(tx).Bytes())
	if err != nil {
		return nil, txError.Wrap(txError.CodeUnknown, "failed to sign transaction with KMS", err)
	}
	signedTx, err := tx.WithSignature(signer, sig)
	if err != nil {
		return nil, txError.Wrap(txError.CodeUnknown, "failed to apply KMS signature", err)
	}
	return signedTx, nil
}

// signDigest signs a 32-byte digest via KMS and returns a 65-byte Ethereum
// signature (r || s || v) with v in {0, 1}.
func (w *KMSWallet) signDigest(digest []byte) ([]byte, error) {
	input := &kms.SignInput{
		KeyId:            aws.String(w.keyID),
		Message:          digest,
		MessageType:      aws.String("DIGEST"),
		SigningAlgorithm: aws.String("ECDSA_SHA_256"),
	}
	result, err := w.kmsClient.Sign(input)
	if err != nil {
		return nil, fmt.Errorf("KMS signing failed: %w", err)
	}

	r, s, err := parseASN1Signature(result.Signature)
	if err != nil {
		return nil, fmt.Errorf("failed to parse KMS signature: %w", err)
	}

	// KMS may return a high-s signature; Ethereum requires the low-s form.
	curveN := crypto.S256().Params().N
	halfN := new(big.Int).Rsh(curveN, 1)
	if s.Cmp(halfN) > 0 {
		s = new(big.Int).Sub(curveN, s)
	}

	signature := make([]byte, 65)
	r.FillBytes(signature[0:32])
	s.FillBytes(signature[32:64])

	// Recover v by checking which recovery id yields our address.
	for v := 0; v < 2; v++ {
		signature[64] = byte(v)
		recovered, err := crypto.SigToPub(digest, signature)
		if err != nil {
			continue
		}
		if crypto.PubkeyToAddress(*recovered) == w.address {
			return signature, nil
		}
	}

	return nil, fmt.Errorf("failed to determine recovery ID")
}

// getAddressFromKMSKey derives the Ethereum address from a KMS public key.
func getAddressFromKMSKey(kmsClient *kms.KMS, keyID string) (common.Address, error) {
	input := &kms.GetPublicKeyInput{
		KeyId: aws.String(keyID),
	}
	result, err := kmsClient.GetPublicKey(input)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to get public key from KMS: %w", err)
	}

	pubKey, err := parseKMSPublicKey(result.PublicKey)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to parse public key: %w", err)
	}
	return crypto.PubkeyToAddress(*pubKey), nil
}
