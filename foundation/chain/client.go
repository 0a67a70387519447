package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Client provides access to a node's contract API.
type Client struct {
	url    string
	http   *http.Client
	dialer *websocket.Dialer
}

// NewClient constructs a client for the node at the specified url.
func NewClient(url string) *Client {
	return &Client{
		url: strings.TrimSuffix(url, "/"),
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
		dialer: websocket.DefaultDialer,
	}
}

// URL returns the base url of the node.
func (c *Client) URL() string {
	return c.url
}

// Deployments returns the contracts deployed on the chain.
func (c *Client) Deployments(ctx context.Context) ([]Deployment, error) {
	var deps []Deployment
	if err := c.do(ctx, http.MethodGet, "/v1/contracts", nil, &deps); err != nil {
		return nil, err
	}

	return deps, nil
}

// Query executes a read only contract call.
func (c *Client) Query(ctx context.Context, req QueryRequest) (QueryResult, error) {
	var res QueryResult
	if err := c.do(ctx, http.MethodPost, "/v1/contracts/query", req, &res); err != nil {
		return QueryResult{}, err
	}

	return res, nil
}

// Balance returns the balance for the specified account.
func (c *Client) Balance(ctx context.Context, account string) (uint64, error) {
	var bal Balance
	if err := c.do(ctx, http.MethodGet, "/v1/accounts/balance/"+url.PathEscape(account), nil, &bal); err != nil {
		return 0, err
	}

	return bal.Balance, nil
}

// Submit sends the signed call to the node and then follows its progress,
// calling fn for every status update until a terminal one arrives. A call
// that fails on chain is not an error here, the failure is in the updates.
func (c *Client) Submit(ctx context.Context, sc SignedCall, fn func(StatusUpdate)) error {
	var resp SubmitResponse
	if err := c.do(ctx, http.MethodPost, "/v1/tx/submit", sc, &resp); err != nil {
		return err
	}

	wsURL := strings.Replace(c.url, "http", "ws", 1) + "/v1/tx/status/" + url.PathEscape(resp.Hash)

	conn, _, err := c.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial status stream: %w", err)
	}
	defer conn.Close()

	// Unblock the read when the caller gives up.
	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer stop()

	for {
		var su StatusUpdate
		if err := conn.ReadJSON(&su); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read status: %w", err)
		}

		if fn != nil {
			fn(su)
		}

		if su.IsTerminal() {
			return nil
		}
	}
}

// =============================================================================

func (c *Client) do(ctx context.Context, method string, path string, body any, v any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url+path, r)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var er ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&er); err != nil || er.Error == "" {
			return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
		}
		return errors.New(er.Error)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
