package decentro

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/easycheckin/easycheckin/internal/pkg/env"
)

const defaultBaseURL = "https://in.staging.decentro.tech"

// The provider takes up to tens of seconds to answer the workflow call.
const initiateTimeout = 60 * time.Second

// Client calls the Decentro KYC API. Credentials ride as headers on every
// request.
type Client struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	ModuleSecret string

	HTTPClient *http.Client
}

// NewClientFromEnv builds a client from DECENTRO_* environment variables.
func NewClientFromEnv() *Client {
	return &Client{
		BaseURL:      strings.TrimRight(env.GetEnv("DECENTRO_BASE_URL", defaultBaseURL), "/"),
		ClientID:     strings.TrimSpace(env.GetEnv("DECENTRO_CLIENT_ID", "")),
		ClientSecret: strings.TrimSpace(env.GetEnv("DECENTRO_CLIENT_SECRET", "")),
		ModuleSecret: strings.TrimSpace(env.GetEnv("DECENTRO_MODULE_SECRET", "")),
		HTTPClient: &http.Client{
			Timeout: initiateTimeout,
		},
	}
}

// InitiateWorkflow starts a hosted DigiLocker verification session and
// returns the provider transaction id plus the session URL.
func (c *Client) InitiateWorkflow(ctx context.Context, request UIStreamRequest) (*UIStreamResponse, error) {
	if strings.TrimSpace(c.ClientID) == "" || strings.TrimSpace(c.ClientSecret) == "" {
		return nil, errors.New("DECENTRO_CLIENT_ID/DECENTRO_CLIENT_SECRET are not configured")
	}
	if strings.TrimSpace(request.ReferenceID) == "" {
		return nil, errors.New("reference_id is required")
	}

	payload, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}

	url := strings.TrimRight(c.BaseURL, "/") + "/v2/kyc/workflows/uistream"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("client_id", c.ClientID)
	req.Header.Set("client_secret", c.ClientSecret)
	req.Header.Set("module_secret", c.ModuleSecret)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("decentro uistream request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp ErrorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Message != "" {
			return nil, fmt.Errorf("decentro uistream rejected: status=%d code=%s message=%s",
				resp.StatusCode, errResp.ResponseCode, errResp.Message)
		}
		return nil, fmt.Errorf("decentro uistream failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var out UIStreamResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decentro uistream response decode failed: %w", err)
	}
	if strings.TrimSpace(out.DecentroTxnID) == "" {
		return nil, errors.New("decentro uistream response missing decentroTxnId")
	}
	return &out, nil
}
