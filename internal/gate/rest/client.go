package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Client is a thin signed HTTP client for the Gate v4 REST API. Public
// endpoints go through Get, account endpoints through AuthGet/AuthPost.
type Client struct {
	baseURL string
	prefix  string
	signer  *Signer
	http    *http.Client
	log     *zap.Logger
}

func New(baseURL, prefix string, timeout time.Duration, signer *Signer, log *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		prefix:  prefix,
		signer:  signer,
		http: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

func (c *Client) Get(ctx context.Context, path, query string, out any) error {
	return c.do(ctx, http.MethodGet, path, query, "", false, out)
}

func (c *Client) AuthGet(ctx context.Context, path, query string, out any) error {
	return c.do(ctx, http.MethodGet, path, query, "", true, out)
}

func (c *Client) AuthPost(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, "", string(payload), true, out)
}

func (c *Client) do(ctx context.Context, method, path, query, body string, auth bool, out any) error {
	url := c.baseURL + c.prefix + path
	if query != "" {
		url += "?" + query
	}
	var reader io.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		if c.signer == nil {
			return fmt.Errorf("authenticated call to %s without credentials", path)
		}
		for key, val := range c.signer.Headers(method, path, query, body) {
			req.Header.Set(key, val)
		}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("http %d: %s", resp.StatusCode, string(msg))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
