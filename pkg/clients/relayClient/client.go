package relayClient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Layr-Labs/metatx-relay-go/pkg/types"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
)

// ClientConfig holds the configuration for the relay client
type ClientConfig struct {
	// BaseURL is the relay server address, e.g. "http://localhost:8000"
	BaseURL string

	// Timeout bounds each HTTP request (default 30s)
	Timeout time.Duration

	Logger *zap.Logger
}

// Client is a thin JSON client for the relay server surface. It is what a
// relayer runs: it holds no signing key and no authorization power, it only
// submits signed intents somebody else produced.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new relay client instance
func NewClient(config *ClientConfig) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:    config.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// ComputeDigest asks the server for the digest of a transfer tuple. Signers
// that want to avoid reimplementing the encoding can sign exactly what the
// executor will verify.
func (c *Client) ComputeDigest(ctx context.Context, intent *types.TransferIntent) (types.Digest, error) {
	if intent == nil {
		return types.Digest{}, fmt.Errorf("intent cannot be nil")
	}

	params := url.Values{}
	params.Set("sender", intent.Sender.Hex())
	params.Set("amount", intent.Amount.String())
	params.Set("recipient", intent.Recipient.Hex())
	params.Set("token", intent.Token.Hex())
	params.Set("nonce", strconv.FormatUint(intent.Nonce, 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/digest?"+params.Encode(), nil)
	if err != nil {
		return types.Digest{}, fmt.Errorf("failed to build digest request: %w", err)
	}

	var out types.DigestResponseV1
	if err := c.do(req, &out); err != nil {
		return types.Digest{}, err
	}

	return types.DigestFromHex(out.Digest)
}

// Transfer submits a signed intent for execution
func (c *Client) Transfer(ctx context.Context, intent *types.TransferIntent, signature []byte) (*types.TransferResponseV1, error) {
	if intent == nil {
		return nil, fmt.Errorf("intent cannot be nil")
	}

	body, err := json.Marshal(&types.TransferRequestV1{
		Sender:    intent.Sender.Hex(),
		Amount:    intent.Amount.String(),
		Recipient: intent.Recipient.Hex(),
		Token:     intent.Token.Hex(),
		Nonce:     intent.Nonce,
		Signature: hexutil.Encode(signature),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal transfer request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transfer", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build transfer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out types.TransferResponseV1
	if err := c.do(req, &out); err != nil {
		return nil, err
	}

	c.logger.Sugar().Infow("Transfer accepted", "digest", out.Digest, "requestID", out.RequestID)
	return &out, nil
}

// Health checks the server's executed-set store health
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to build health request: %w", err)
	}
	return c.do(req, nil)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		var errResp types.ErrorResponseV1
		raw, _ := io.ReadAll(resp.Body)
		if jsonErr := json.Unmarshal(raw, &errResp); jsonErr == nil && errResp.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, errResp.Error)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(raw))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
