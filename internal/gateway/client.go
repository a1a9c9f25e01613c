// Package gateway talks to the receipt-issuing gateway over HTTP.
package gateway

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

	"github.com/davidahmann/relia-zk/internal/canonical"
)

const defaultTimeout = 30 * time.Second

var ErrGatewayStatus = errors.New("gateway returned an error status")

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: defaultTimeout},
	}
}

// RemoteVerdict is the gateway's own view of a receipt.
type RemoteVerdict struct {
	OK         bool `json:"ok"`
	SigOK      bool `json:"sig_ok"`
	SnapshotOK bool `json:"snapshot_ok"`
}

type ToolCall struct {
	ToolID  string         `json:"tool_id"`
	Args    map[string]any `json:"args"`
	AuthKey string         `json:"auth_key"`
}

type RetrievalQuery struct {
	Query    string   `json:"query"`
	Datasets []string `json:"datasets"`
	AuthKey  string   `json:"auth_key"`
}

type receiptRef struct {
	ReceiptID string `json:"receipt_id"`
}

// FetchReceipt returns the receipt with the given id, member order intact.
func (c *Client) FetchReceipt(ctx context.Context, id string) (canonical.Value, error) {
	body, err := c.do(ctx, http.MethodGet, "/receipts/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	return canonical.Parse(body)
}

func (c *Client) VerifyRemote(ctx context.Context, id string) (RemoteVerdict, error) {
	var verdict RemoteVerdict
	body, err := c.do(ctx, http.MethodGet, "/verify/receipt/"+url.PathEscape(id), nil)
	if err != nil {
		return verdict, err
	}
	if err := json.Unmarshal(body, &verdict); err != nil {
		return verdict, fmt.Errorf("decode verdict: %w", err)
	}
	return verdict, nil
}

// AnchorL2 asks the gateway to anchor the receipt on L2. The anchor shows up
// in the receipt on the next fetch.
func (c *Client) AnchorL2(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodPost, "/anchor/l2/"+url.PathEscape(id), nil)
	return err
}

// CallTool invokes a gateway tool and returns the id of the receipt it issued.
func (c *Client) CallTool(ctx context.Context, call ToolCall) (string, error) {
	return c.issue(ctx, "/mcp/tools/call", call)
}

// Query runs a retrieval query and returns the id of the receipt it issued.
func (c *Client) Query(ctx context.Context, query RetrievalQuery) (string, error) {
	return c.issue(ctx, "/mcp/retrieval/query", query)
}

func (c *Client) issue(ctx context.Context, path string, payload any) (string, error) {
	body, err := c.do(ctx, http.MethodPost, path, payload)
	if err != nil {
		return "", err
	}
	var ref receiptRef
	if err := json.Unmarshal(body, &ref); err != nil {
		return "", fmt.Errorf("decode %s response: %w", path, err)
	}
	if ref.ReceiptID == "" {
		return "", fmt.Errorf("%s: no receipt_id returned", path)
	}
	return ref.ReceiptID, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s %s: %d %s", ErrGatewayStatus, method, path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
