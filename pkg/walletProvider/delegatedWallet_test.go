package walletProvider

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentfi-labs/agentwallet-go/pkg/chainManager"
	"github.com/agentfi-labs/agentwallet-go/pkg/txError"
)

func newTestAuthorizationKey(t *testing.T) (*ecdsa.PrivateKey, string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	return key, base64.StdEncoding.EncodeToString(der)
}

func newTestDelegatedWallet(t *testing.T, signerURL, authKey string) *DelegatedWallet {
	t.Helper()
	wallet, err := NewDelegatedWallet(&DelegatedWalletConfig{
		SignerURL:        signerURL,
		AppID:            "app-123",
		AppSecret:        "secret-456",
		AuthorizationKey: authKey,
		Address:          common.HexToAddress("0xDddDDdddDDddDDDdDdDDdDDDDdDdDcdDDdDDdDDd"),
		Network:          testNetwork,
	}, chainManager.NewMockEthClientInterface(t))
	require.NoError(t, err)
	return wallet
}

func TestParseAuthorizationKey(t *testing.T) {
	_, encoded := newTestAuthorizationKey(t)

	key, err := parseAuthorizationKey(encoded)
	require.NoError(t, err)
	assert.Equal(t, elliptic.P256(), key.Curve)

	// The identification prefix is accepted and stripped.
	prefixed, err := parseAuthorizationKey(authorizationKeyPrefix + encoded)
	require.NoError(t, err)
	assert.Equal(t, key.D, prefixed.D)

	_, err = parseAuthorizationKey("")
	require.Error(t, err)

	_, err = parseAuthorizationKey("!!not-base64!!")
	require.Error(t, err)
}

func TestParseAuthorizationKey_RejectsNonP256Curves(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)

	_, err = parseAuthorizationKey(base64.StdEncoding.EncodeToString(der))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "P-256")
}

func TestCanonicalRequestPayload_IsDeterministic(t *testing.T) {
	// Two bodies with the same content assembled in different insertion order.
	bodyA := map[string]any{}
	bodyA["address"] = "0xabc"
	bodyA["chain_type"] = "ethereum"
	bodyA["method"] = "personal_sign"
	bodyA["params"] = map[string]any{"message": "0x01", "encoding": "hex"}

	bodyB := map[string]any{}
	bodyB["params"] = map[string]any{"encoding": "hex", "message": "0x01"}
	bodyB["method"] = "personal_sign"
	bodyB["chain_type"] = "ethereum"
	bodyB["address"] = "0xabc"

	first, err := canonicalRequestPayload("https://signer.example.com/rpc", "app-123", bodyA)
	require.NoError(t, err)
	second, err := canonicalRequestPayload("https://signer.example.com/rpc", "app-123", bodyB)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	// Any difference in the covered fields changes the canonical bytes.
	other, err := canonicalRequestPayload("https://signer.example.com/rpc", "app-999", bodyA)
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestDelegatedWallet_SendsAuthenticatedSignedRequest(t *testing.T) {
	authKey, encodedKey := newTestAuthorizationKey(t)

	var received struct {
		appID     string
		signature string
		basicUser string
		basicPass string
		body      map[string]any
		idemKey   string
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.appID = r.Header.Get("X-App-Id")
		received.signature = r.Header.Get("X-Authorization-Signature")
		received.idemKey = r.Header.Get("X-Idempotency-Key")
		received.basicUser, received.basicPass, _ = r.BasicAuth()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received.body))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"signature":"0x1234"}}`))
	}))
	defer server.Close()

	wallet := newTestDelegatedWallet(t, server.URL, encodedKey)

	sig, err := wallet.SignMessage(context.Background(), []byte{0xde, 0xad})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x12, 0x34}, sig)

	assert.Equal(t, "app-123", received.appID)
	assert.Equal(t, "app-123", received.basicUser)
	assert.Equal(t, "secret-456", received.basicPass)
	assert.NotEmpty(t, received.idemKey)
	assert.Equal(t, "personal_sign", received.body["method"])
	assert.Equal(t, strings.ToLower(wallet.GetAddress().Hex()), received.body["address"])

	// The signature header verifies against the canonical form of the exact
	// body that was posted.
	canonical, err := canonicalRequestPayload(server.URL, "app-123", received.body)
	require.NoError(t, err)
	digest := sha256.Sum256(canonical)
	rawSig, err := base64.StdEncoding.DecodeString(received.signature)
	require.NoError(t, err)
	assert.True(t, ecdsa.VerifyASN1(&authKey.PublicKey, digest[:], rawSig))
}

func TestDelegatedWallet_SendTransactionReturnsReportedHash(t *testing.T) {
	_, encodedKey := newTestAuthorizationKey(t)
	wantHash := common.HexToHash("0x4242424242424242424242424242424242424242424242424242424242424242")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"transaction_hash":"` + wantHash.Hex() + `"}}`))
	}))
	defer server.Close()

	wallet := newTestDelegatedWallet(t, server.URL, encodedKey)
	to := common.HexToAddress("0x1000000000000000000000000000000000000001")

	hash, err := wallet.SendTransaction(context.Background(), &TxRequest{To: &to})
	require.NoError(t, err)
	assert.Equal(t, wantHash, hash)
}

func TestDelegatedWallet_NonSuccessStatusIsAPICallFailed(t *testing.T) {
	_, encodedKey := newTestAuthorizationKey(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	wallet := newTestDelegatedWallet(t, server.URL, encodedKey)

	_, err := wallet.SignMessage(context.Background(), []byte("x"))
	require.Error(t, err)
	assert.Equal(t, txError.CodeAPICallFailed, txError.CodeOf(err))
}

func TestDelegatedWallet_MalformedResponseIsAPICallFailed(t *testing.T) {
	_, encodedKey := newTestAuthorizationKey(t)

	for name, payload := range map[string]string{
		"invalid json": `{not json`,
		"missing data": `{"other":true}`,
		"empty field":  `{"data":{}}`,
	} {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(payload))
			}))
			defer server.Close()

			wallet := newTestDelegatedWallet(t, server.URL, encodedKey)

			_, err := wallet.SignMessage(context.Background(), []byte("x"))
			require.Error(t, err)
			assert.Equal(t, txError.CodeAPICallFailed, txError.CodeOf(err))
		})
	}
}
