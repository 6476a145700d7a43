package allowlist

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

type Response[T any] struct {
	StatusCode int            `json:"statusCode"`
	Success    bool           `json:"success"`
	Data       T              `json:"data"`
	Error      map[string]any `json:"error"`
}

type Membership struct {
	Allowed bool `json:"allowed"`
}

// HTTP asks a holder index service whether an account is allowed.
type HTTP struct {
	client  *resty.Client
	BaseURL string
}

func NewHTTP(baseURL string, timeout time.Duration) (*HTTP, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("allowlist url cannot be empty")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond)

	return &HTTP{client: client, BaseURL: baseURL}, nil
}

func (h *HTTP) IsAllowed(ctx context.Context, pubkey PublicKey) (bool, error) {
	path := "/allowlist/" + pubkeyHex(pubkey)

	var result Response[Membership]
	resp, err := h.client.R().
		SetContext(ctx).
		SetResult(&result).
		Get(path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("get request failed")
		return false, fmt.Errorf("get %s: %w", path, err)
	}
	if resp.IsError() {
		log.Error().Int("status", resp.StatusCode()).Str("body", resp.String()).Str("path", path).Msg("get non-2xx")
		return false, fmt.Errorf("request returned status %d: %s", resp.StatusCode(), resp.String())
	}
	if result.Error != nil {
		log.Error().Interface("error", result.Error).Str("path", path).Msg("response contains error")
		return false, fmt.Errorf("response error: %v", result.Error)
	}
	return result.Data.Allowed, nil
}
