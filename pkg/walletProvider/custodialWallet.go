package walletProvider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/google/uuid"

	"github.com/agentfi-labs/agentwallet-go/pkg/chainManager"
	"github.com/agentfi-labs/agentwallet-go/pkg/txError"
)

const defaultSignerHTTPTimeout = 30 * time.Second

// CustodialWalletConfig configures a custodial server-wallet signer.
type CustodialWalletConfig struct {
	// BaseURL is the custodial wallet service endpoint, e.g. "https://api.example.com"
	BaseURL string
	// APIToken is the bearer token authenticating this client
	APIToken string
	// WalletID identifies the server-side wallet to sign with
	WalletID string
	// Address is the wallet's on-chain address
	Address common.Address
	// Network is the chain this wallet targets
	Network chainManager.Network
	// HTTPClient overrides the default HTTP client when set
	HTTPClient *http.Client
}

// CustodialWallet implements IWalletProvider against a custodial wallet
// service that co-signs remotely. The private key lives on the server; this
// client authenticates with a bearer token and submits signing requests over
// HTTPS. Reads and receipt polling go through the local RPC client.
type CustodialWallet struct {
	rpcBackend
	baseURL    string
	apiToken   string
	walletID   string
	httpClient *http.Client
}

var _ IWalletProvider = (*CustodialWallet)(nil)

// NewCustodialWallet creates a CustodialWallet. All credentials are required
// at construction; failures afterwards are per-call.
func NewCustodialWallet(cfg *CustodialWalletConfig, client chainManager.EthClientInterface) (*CustodialWallet, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.APIToken == "" {
		return nil, fmt.Errorf("API token is required")
	}
	if cfg.WalletID == "" {
		return nil, fmt.Errorf("wallet ID is required")
	}
	if client == nil {
		return nil, fmt.Errorf("rpc client is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultSignerHTTPTimeout}
	}

	return &CustodialWallet{
		rpcBackend: rpcBackend{
			client:  client,
			address: cfg.Address,
			network: cfg.Network,
		},
		baseURL:    cfg.BaseURL,
		apiToken:   cfg.APIToken,
		walletID:   cfg.WalletID,
		httpClient: httpClient,
	}, nil
}

// SignMessage requests an EIP-191 personal message signature from the
// custodial service.
func (w *CustodialWallet) SignMessage(ctx context.Context, message []byte) ([]byte, error) {
	data, err := w.rpc(ctx, methodPersonalSign, map[string]any{
		"message": hexutil.Encode(message),
	})
	if err != nil {
		return nil, err
	}
	return requireHexField(data.Signature, "signature")
}

// SignTypedData requests an EIP-712 signature from the custodial service.
func (w *CustodialWallet) SignTypedData(ctx context.Context, typedData apitypes.TypedData) ([]byte, error) {
	data, err := w.rpc(ctx, methodSignTypedDataV4, map[string]any{
		"typed_data": typedData,
	})
	if err != nil {
		return nil, err
	}
	return requireHexField(data.Signature, "signature")
}

// SignTransaction requests a signed transaction from the custodial service
// without broadcasting it.
func (w *CustodialWallet) SignTransaction(ctx context.Context, txReq *TxRequest) ([]byte, error) {
	data, err := w.rpc(ctx, methodSignTransaction, map[string]any{
		"transaction": newRemoteTransaction(w.address, txReq, w.network.ChainID),
	})
	if err != nil {
		return nil, err
	}
	return requireHexField(data.SignedTransaction, "signed_transaction")
}

// SendTransaction asks the custodial service to sign and broadcast a
// transaction, returning the transaction hash it reports.
func (w *CustodialWallet) SendTransaction(ctx context.Context, txReq *TxRequest) (common.Hash, error) {
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
func (w *CustodialWallet) NativeTransfer(ctx context.Context, to common.Address, humanAmount string) (common.Hash, error) {
	return nativeTransfer(ctx, w, to, humanAmount)
}

// rpc posts a signing request to the custodial service. Each request carries
// a fresh idempotency key so server-side retries never double-sign.
func (w *CustodialWallet) rpc(ctx context.Context, method string, params map[string]any) (*signerResponseData, error) {
	payload, err := json.Marshal(map[string]any{
		"method": method,
		"params": params,
	})
	if err != nil {
		return nil, txError.Wrap(txError.CodeUnknown, "failed to encode signer request", err)
	}

	url := fmt.Sprintf("%s/v1/wallets/%s/rpc", w.baseURL, w.walletID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, txError.Wrap(txError.CodeUnknown, "failed to build signer request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+w.apiToken)
	req.Header.Set("X-Idempotency-Key", uuid.NewString())

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, txError.Wrap(txError.CodeAPICallFailed, "signer request failed", err)
	}
	return decodeSignerResponse(resp)
}
