package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/walletlink/internal/registry"
	"github.com/tensorplex-labs/walletlink/internal/store"
)

const DefaultClientTimeout = 30 * time.Second

type ClientConfig struct {
	BaseURL         string
	Timeout         time.Duration
	ZstdCompression bool
}

// Client calls the linkage API on behalf of a platform user.
type Client struct {
	config      *ClientConfig
	restyClient *resty.Client
	encoder     *zstd.Encoder
	decoder     *zstd.Decoder
}

// APIError is a non-2xx reply. Message is the user-facing text from the envelope.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

func NewClient(config *ClientConfig) (*Client, error) {
	if config == nil || config.BaseURL == "" {
		return nil, fmt.Errorf("client base url cannot be empty")
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultClientTimeout
	}

	restyClient := resty.New().
		SetBaseURL(strings.TrimSuffix(config.BaseURL, "/")).
		SetTimeout(config.Timeout).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)

	client := &Client{config: config, restyClient: restyClient}

	if config.ZstdCompression {
		restyClient.SetHeader("Accept-Encoding", "zstd")

		encoder, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		client.encoder = encoder

		decoder, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		client.decoder = decoder
	}
	return client, nil
}

// Close cleans up client resources
func (c *Client) Close() {
	if c.encoder != nil {
		c.encoder.Close()
	}
	if c.decoder != nil {
		c.decoder.Close()
	}
}

// Link submits a linkage proof for the requester.
func (c *Client) Link(ctx context.Context, req registry.Requester, body LinkRequest) (*store.LinkageRecord, error) {
	return send[*store.LinkageRecord](ctx, c, http.MethodPost, "/link", req, body)
}

// Lookup fetches the recorded linkage for an ss58 address.
func (c *Client) Lookup(ctx context.Context, req registry.Requester, substrate string) (*store.LinkageRecord, error) {
	return send[*store.LinkageRecord](ctx, c, http.MethodGet, "/link/"+url.PathEscape(substrate), req, nil)
}

// RegisterWallet records an unsigned wallet address for the requester.
func (c *Client) RegisterWallet(ctx context.Context, req registry.Requester, body WalletRequest) (*registry.RegisterResult, error) {
	return send[*registry.RegisterResult](ctx, c, http.MethodPost, "/wallet", req, body)
}

func (c *Client) buildHeaders(req registry.Requester) map[string]string {
	headers := map[string]string{
		"Content-Type": "application/json",
		UserIDHeader:   req.UserID,
	}
	if req.UserTag != "" {
		headers[UserTagHeader] = req.UserTag
	}
	if len(req.Roles) > 0 {
		headers[UserRolesHeader] = strings.Join(req.Roles, ",")
	}
	if req.AvatarURL != "" {
		headers[UserAvatarHeader] = req.AvatarURL
	}
	return headers
}

func send[T any](ctx context.Context, c *Client, method, path string, requester registry.Requester, body any) (T, error) {
	var zero T

	r := c.restyClient.R().
		SetContext(ctx).
		SetHeaders(c.buildHeaders(requester))

	if body != nil {
		jsonData, err := sonic.Marshal(body)
		if err != nil {
			return zero, fmt.Errorf("failed to marshal request: %w", err)
		}
		if c.encoder != nil {
			jsonData = c.encoder.EncodeAll(jsonData, nil)
			r.SetHeader("Content-Encoding", "zstd")
		}
		r.SetBody(jsonData)
	}

	log.Trace().Str("method", method).Str("path", path).Msg("sending api request")

	resp, err := r.Execute(method, path)
	if err != nil {
		return zero, fmt.Errorf("failed to make request: %w", err)
	}

	responseBody := resp.Body()
	if c.decoder != nil && resp.Header().Get("Content-Encoding") == "zstd" {
		decompressed, err := c.decoder.DecodeAll(responseBody, nil)
		if err != nil {
			return zero, fmt.Errorf("failed to decompress response: %w", err)
		}
		responseBody = decompressed
	}

	var out StdResponse[T]
	if err := sonic.Unmarshal(responseBody, &out); err != nil {
		if resp.IsError() {
			return zero, &APIError{StatusCode: resp.StatusCode(), Message: http.StatusText(resp.StatusCode())}
		}
		return zero, fmt.Errorf("failed to unmarshal StdResponse: %w", err)
	}

	if resp.IsError() || out.Error != nil {
		msg := http.StatusText(resp.StatusCode())
		if out.Error != nil {
			msg = *out.Error
		}
		return zero, &APIError{StatusCode: resp.StatusCode(), Message: msg}
	}
	return out.Body, nil
}
