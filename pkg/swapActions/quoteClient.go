package swapActions

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/agentfi-labs/agentwallet-go/pkg/txError"
)

const defaultQuoteHTTPTimeout = 15 * time.Second

// HTTPQuoteServiceConfig configures an aggregator-backed quote client.
type HTTPQuoteServiceConfig struct {
	// BaseURL is the aggregator API endpoint, e.g. "https://api.example.com"
	BaseURL string
	// APIKey authenticates requests when the aggregator requires it
	APIKey string
	// HTTPClient overrides the default HTTP client when set
	HTTPClient *http.Client
}

// HTTPQuoteService implements QuoteService against an aggregator HTTP API.
type HTTPQuoteService struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

var _ QuoteService = (*HTTPQuoteService)(nil)

// NewHTTPQuoteService creates an aggregator quote client.
func NewHTTPQuoteService(cfg *HTTPQuoteServiceConfig) (*HTTPQuoteService, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("quote service base URL is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultQuoteHTTPTimeout}
	}
	return &HTTPQuoteService{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
	}, nil
}

// quoteResponse is the aggregator's wire shape for an executable quote.
type quoteResponse struct {
	To        string `json:"to"`
	Spender   string `json:"spender,omitempty"`
	Data      string `json:"data"`
	Value     string `json:"value,omitempty"`
	AmountOut string `json:"amount_out"`
}

// GetQuote fetches an executable route for an exact-input swap. Every failure
// mode of the external service is API_CALL_FAILED; the caller decides whether
// to retry.
func (s *HTTPQuoteService) GetQuote(ctx context.Context, quoteReq *QuoteRequest) (*SwapQuote, error) {
	query := url.Values{}
	query.Set("chain_id", fmt.Sprintf("%d", quoteReq.Network.ChainID))
	query.Set("taker", quoteReq.Taker.Hex())
	query.Set("token_in", quoteReq.TokenIn.Hex())
	query.Set("token_out", quoteReq.TokenOut.Hex())
	query.Set("amount_in", quoteReq.AmountIn.String())
	query.Set("slippage_bps", fmt.Sprintf("%d", quoteReq.SlippageBps))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/v1/quote?%s", s.baseURL, query.Encode()), nil)
	if err != nil {
		return nil, txError.Wrap(txError.CodeUnknown, "failed to build quote request", err)
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, txError.Wrap(txError.CodeAPICallFailed, "quote request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, txError.Wrap(txError.CodeAPICallFailed, "failed to read quote response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, txError.Newf(txError.CodeAPICallFailed,
			"quote service returned status %d: %s", resp.StatusCode, string(body))
	}

	var decoded quoteResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, txError.Wrap(txError.CodeAPICallFailed, "malformed quote response", err)
	}
	return decoded.toSwapQuote()
}

func (r *quoteResponse) toSwapQuote() (*SwapQuote, error) {
	if !common.IsHexAddress(r.To) {
		return nil, txError.Newf(txError.CodeAPICallFailed, "quote has invalid router address %q", r.To)
	}
	calldata, err := hexutil.Decode(r.Data)
	if err != nil {
		return nil, txError.Wrap(txError.CodeAPICallFailed, "quote has invalid calldata", err)
	}
	amountOut, ok := new(big.Int).SetString(r.AmountOut, 10)
	if !ok {
		return nil, txError.Newf(txError.CodeAPICallFailed, "quote has invalid amount_out %q", r.AmountOut)
	}

	quote := &SwapQuote{
		Router:    common.HexToAddress(r.To),
		Spender:   common.HexToAddress(r.To),
		Calldata:  calldata,
		AmountOut: amountOut,
	}
	if r.Spender != "" {
		if !common.IsHexAddress(r.Spender) {
			return nil, txError.Newf(txError.CodeAPICallFailed, "quote has invalid spender address %q", r.Spender)
		}
		quote.Spender = common.HexToAddress(r.Spender)
	}
	if r.Value != "" {
		value, ok := new(big.Int).SetString(r.Value, 10)
		if !ok {
			return nil, txError.Newf(txError.CodeAPICallFailed, "quote has invalid value %q", r.Value)
		}
		quote.Value = value
	}
	return quote, nil
}
