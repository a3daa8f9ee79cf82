package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	sendPath   = "/api/v1/otp/send"
	verifyPath = "/api/v1/otp/verify"

	maxBodySize = 64 << 10
)

// Response is the outcome reported by the OTP service.
type Response struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// OtpClient talks to the OTP endpoints. Transport failures are returned as
// errors; anything the service answered is returned as a Response.
type OtpClient struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, httpClient *http.Client) *OtpClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &OtpClient{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

func (c *OtpClient) Send(ctx context.Context, email string) (*Response, error) {
	return c.post(ctx, sendPath, map[string]string{"email": email})
}

func (c *OtpClient) Verify(ctx context.Context, email, code string) (*Response, error) {
	return c.post(ctx, verifyPath, map[string]string{"email": email, "code": code})
}

func (c *OtpClient) post(ctx context.Context, path string, payload interface{}) (*Response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return ParseResponse(body), nil
}

// ParseResponse decodes a JSON {ok, message} body. A body that is not such an
// object is treated as plain text: the literal "ok" (any case) is success and
// anything else is a failure carrying the text.
func ParseResponse(body []byte) *Response {
	var out Response
	if err := json.Unmarshal(body, &out); err == nil {
		return &out
	}
	text := string(body)
	return &Response{
		OK:      strings.EqualFold(strings.TrimSpace(text), "ok"),
		Message: text,
	}
}
