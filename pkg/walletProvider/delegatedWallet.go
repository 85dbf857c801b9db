package walletProvider

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/google/uuid"

	"github.com/agentfi-labs/agentwallet-go/pkg/chainManager"
	"github.com/agentfi-labs/agentwallet-go/pkg/txError"
)

// authorizationKeyPrefix is stripped from delegated signer authorization keys
// when present; some key exports carry it for identification.
const authorizationKeyPrefix = "wallet-auth:"

// DelegatedWalletConfig configures a delegated embedded-wallet signer.
type DelegatedWalletConfig struct {
	// SignerURL is the remote signer RPC endpoint, e.g. "https://api.example.com/v1/wallets/rpc"
	SignerURL string
	// AppID identifies the application to the remote signer
	AppID string
	// AppSecret is the basic-auth secret paired with AppID
	AppSecret string
	// AuthorizationKey is the base64-encoded PKCS#8 P-256 private key used to
	// sign request payloads. The optional "wallet-auth:" prefix is accepted.
	AuthorizationKey string
	// Address is the embedded wallet's on-chain address
	Address common.Address
	// Network is the chain this wallet targets
	Network chainManager.Network
	// HTTPClient overrides the default HTTP client when set
	HTTPClient *http.Client
}

// DelegatedWallet implements IWalletProvider for an embedded wallet whose key
// is held by a remote signer. The raw signing key never exists locally; every
// signing and sending operation becomes an HTTP request whose canonical form
// is signed with a separate P-256 authorization key, proving the request was
// authorized by this application. Reads and receipt polling go through the
// local RPC client.
type DelegatedWallet struct {
	rpcBackend
	signerURL  string
	appID      string
	appSecret  string
	authKey    *ecdsa.PrivateKey
	chainType  string
	httpClient *http.Client
}

var _ IWalletProvider = (*DelegatedWallet)(nil)

// NewDelegatedWallet creates a DelegatedWallet. All credentials, including a
// parseable P-256 authorization key, are validated at construction.
func NewDelegatedWallet(cfg *DelegatedWalletConfig, client chainManager.EthClientInterface) (*DelegatedWallet, error) {
	if cfg.SignerURL == "" {
		return nil, fmt.Errorf("signer URL is required")
	}
	if cfg.AppID == "" || cfg.AppSecret == "" {
		return nil, fmt.Errorf("app ID and app secret are required")
	}
	if client == nil {
		return nil, fmt.Errorf("rpc client is required")
	}

	authKey, err := parseAuthorizationKey(cfg.AuthorizationKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse authorization key: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultSignerHTTPTimeout}
	}

	return &DelegatedWallet{
		rpcBackend: rpcBackend{
			client:  client,
			address: cfg.Address,
			network: cfg.Network,
		},
		signerURL:  cfg.SignerURL,
		appID:      cfg.AppID,
		appSecret:  cfg.AppSecret,
		authKey:    authKey,
		chainType:  "ethereum",
		httpClient: httpClient,
	}, nil
}

// SignMessage requests an EIP-191 personal message signature from the remote
// signer.
func (w *DelegatedWallet) SignMessage(ctx context.Context, message []byte) ([]byte, error) {
	data, err := w.rpc(ctx, methodPersonalSign, map[string]any{
		"message":  hexutil.Encode(message),
		"encoding": "hex",
	})
	if err != nil {
		return nil, err
	}
	return requireHexField(data.Signature, "signature")
}

// SignTypedData requests an EIP-712 signature from the remote signer.
func (w *DelegatedWallet) SignTypedData(ctx context.Context, typedData apitypes.TypedData) ([]byte, error) {
	data, err := w.rpc(ctx, methodSignTypedDataV4, map[string]any{
		"typed_data": typedData,
	})
	if err != nil {
		return nil, err
	}
	return requireHexField(data.Signature, "signature")
}

// SignTransaction requests a signed transaction from the remote signer
// without broadcasting it.
func (w *DelegatedWallet) SignTransaction(ctx context.Context, txReq *TxRequest) ([]byte, error) {
	data, err := w.rpc(ctx, methodSignTransaction, map[string]any{
		"transaction": newRemoteTransaction(w.address, txReq, w.network.ChainID),
	})
	if err != nil {
		return nil, err
	}
	return requireHexField(data.SignedTransaction, "signed_transaction")
}

// SendTransaction asks the remote signer to sign and broadcast a transaction.
func (w *DelegatedWallet) SendTransaction(ctx context.Context, txReq *TxRequest) (common.Hash, error) {
	data, err := w.rpc(ctx, methodSendTransaction, map[string]any{
		"transaction": newRemoteTransaction(w.address, txReq, w.network.ChainID),
	})
	if err != nil {
		return common.Hash{}, err
	}
	hashBytes, err := requireHexField(data.TransactionHash, "transaction_hash")
	if err != nil {
		return common.Hash{}, err
	}
	if len(hashBytes) != common.HashLength {
		return common.Hash{}, txError.Newf(txError.CodeAPICallFailed,
			"signer returned transaction hash of %d bytes", len(hashBytes))
	}
	return common.BytesToHash(hashBytes), nil
}

// NativeTransfer transfers the native asset and waits for confirmation.
func (w *DelegatedWallet) NativeTransfer(ctx context.Context, to common.Address, humanAmount string) (common.Hash, error) {
	return nativeTransfer(ctx, w, to, humanAmount)
}

// rpc translates a signing operation into a signed HTTP request: the request
// descriptor is canonicalized, its SHA-256 digest signed with the
// authorization key, and the signature attached as a header alongside basic
// auth. The original (non-canonical) body is what gets posted.
func (w *DelegatedWallet) rpc(ctx context.Context, method string, params map[string]any) (*signerResponseData, error) {
	body := map[string]any{
		"address":    strings.ToLower(w.address.Hex()),
		"chain_type": w.chainType,
		"method":     method,
		"params":     params,
	}

	signature, err := w.signRequest(body)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, txError.Wrap(txError.CodeUnknown, "failed to encode signer request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.signerURL, bytes.NewReader(payload))
	if err != nil {
		return nil, txError.Wrap(txError.CodeUnknown, "failed to build signer request", err)
	}
	req.SetBasicAuth(w.appID, w.appSecret)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-App-Id", w.appID)
	req.Header.Set("X-Authorization-Signature", signature)
	req.Header.Set("X-Idempotency-Key", uuid.NewString())

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, txError.Wrap(txError.CodeAPICallFailed, "signer request failed", err)
	}
	return decodeSignerResponse(resp)
}

// signRequest signs the canonical form of the request descriptor with the
// authorization key and returns the base64-encoded signature.
func (w *DelegatedWallet) signRequest(body map[string]any) (string, error) {
	canonical, err := canonicalRequestPayload(w.signerURL, w.appID, body)
	if err != nil {
		return "", txError.Wrap(txError.CodeUnknown, "failed to canonicalize request", err)
	}

	digest := sha256.Sum256(canonical)
	sig, err := ecdsa.SignASN1(rand.Reader, w.authKey, digest[:])
	if err != nil {
		return "", txError.Wrap(txError.CodeUnknown, "failed to sign request", err)
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// canonicalRequestPayload builds the canonical JSON bytes covered by the
// request signature. Canonicalization round-trips the descriptor through a
// generic value so every object is a map, which encoding/json marshals with
// lexicographically sorted keys. Re-encoding identical input therefore yields
// identical bytes regardless of struct field order or caller serialization
// quirks.
func canonicalRequestPayload(url, appID string, body map[string]any) ([]byte, error) {
	descriptor := map[string]any{
		"version": 1,
		"method":  http.MethodPost,
		"url":     url,
		"body":    body,
		"headers": map[string]string{
			"x-app-id": appID,
		},
	}

	raw, err := json.Marshal(descriptor)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return json.Marshal(generic)
}

// parseAuthorizationKey decodes a base64 PKCS#8 P-256 private key.
func parseAuthorizationKey(encoded string) (*ecdsa.PrivateKey, error) {
	encoded = strings.TrimPrefix(strings.TrimSpace(encoded), authorizationKeyPrefix)
	if encoded == "" {
		return nil, fmt.Errorf("authorization key is required")
	}

	der, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}
	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("invalid PKCS#8 key: %w", err)
	}
	key, ok := parsed.(*ecdsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("authorization key is not an ECDSA key")
	}
	if key.Curve != elliptic.P256() {
		return nil, fmt.Errorf("authorization key must be on the P-256 curve")
	}
	return key, nil
}
