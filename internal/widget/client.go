package widget

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	accessTokenPath = "/chat-bot/access-token"
	queryPath       = "/chat-bot/query"
)

// Client holds the transport shared by the access and query clients.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for baseURL, e.g. "https://api.example.com/api/v1".
// A nil httpClient uses NewHTTPClient(0).
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = NewHTTPClient(0)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// NewHTTPClient builds a pooled client. timeout <= 0 leaves requests
// unbounded, which is the widget default.
func NewHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	client := &http.Client{Transport: transport}
	if timeout > 0 {
		client.Timeout = timeout
	}
	return client
}

// post sends body as JSON and returns the raw response body of a 2xx reply.
func (c *Client) post(ctx context.Context, path, bearer string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, newError(KindInvalidArgument, "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, newError(KindInvalidArgument, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, newError(KindNetwork, "request "+path, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, newError(KindNetwork, "read response "+path, err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		message := "request " + path + " rejected"
		if m := gjson.GetBytes(data, "message"); m.Type == gjson.String && m.Str != "" {
			message = m.Str
		}
		return nil, &Error{
			Kind:       KindAuth,
			Message:    message,
			StatusCode: res.StatusCode,
		}
	}

	return data, nil
}
