package walletProvider

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/agentfi-labs/agentwallet-go/pkg/txError"
)

// Remote signer RPC methods shared by the custodial and delegated variants.
const (
	methodPersonalSign    = "personal_sign"
	methodSignTypedDataV4 = "eth_signTypedData_v4"
	methodSignTransaction = "eth_signTransaction"
	methodSendTransaction = "eth_sendTransaction"
)

// remoteTransaction is the transaction shape sent to a remote signer. Gas
// fields are left to the remote side when unset.
type remoteTransaction struct {
	From     string `json:"from"`
	To       string `json:"to,omitempty"`
	Value    string `json:"value,omitempty"`
	Data     string `json:"data,omitempty"`
	GasLimit string `json:"gas_limit,omitempty"`
	ChainID  uint64 `json:"chain_id"`
}

func newRemoteTransaction(from common.Address, txReq *TxRequest, chainID uint64) remoteTransaction {
	remote := remoteTransaction{
		From:    from.Hex(),
		ChainID: chainID,
	}
	if txReq.To != nil {
		remote.To = txReq.To.Hex()
	}
	if txReq.Value != nil && txReq.Value.Sign() > 0 {
		remote.Value = hexutil.EncodeBig(txReq.Value)
	}
	if len(txReq.Data) > 0 {
		remote.Data = hexutil.Encode(txReq.Data)
	}
	if txReq.GasLimit > 0 {
		remote.GasLimit = hexutil.EncodeUint64(txReq.GasLimit)
	}
	return remote
}

// signerResponseData is the payload shape a remote signer returns. Which
// field is populated depends on the requested method.
type signerResponseData struct {
	Signature         string `json:"signature,omitempty"`
	SignedTransaction string `json:"signed_transaction,omitempty"`
	TransactionHash   string `json:"transaction_hash,omitempty"`
}

type signerResponse struct {
	Data *signerResponseData `json:"data"`
}

// decodeSignerResponse validates and decodes a remote signer HTTP response.
// Any non-2xx status, or a response missing the expected payload envelope, is
// a signing failure; a malformed response is never partially trusted.
func decodeSignerResponse(resp *http.Response) (*signerResponseData, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, txError.Wrap(txError.CodeAPICallFailed, "failed to read signer response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, txError.Newf(txError.CodeAPICallFailed,
			"remote signer returned status %d: %s", resp.StatusCode, string(body))
	}

	var envelope signerResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, txError.Wrap(txError.CodeAPICallFailed, "malformed signer response", err)
	}
	if envelope.Data == nil {
		return nil, txError.New(txError.CodeAPICallFailed, "signer response missing data payload")
	}
	return envelope.Data, nil
}

// requireHexField decodes a required hex field from a signer response,
// failing when the field is absent or not valid hex.
func requireHexField(value, name string) ([]byte, error) {
	if value == "" {
		return nil, txError.Newf(txError.CodeAPICallFailed, "signer response missing %s", name)
	}
	decoded, err := hexutil.Decode(value)
	if err != nil {
		return nil, txError.Wrap(txError.CodeAPICallFailed, fmt.Sprintf("signer returned invalid %s", name), err)
	}
	return decoded, nil
}
