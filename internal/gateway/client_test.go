package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidahmann/relia-zk/internal/canonical"
)

const sampleReceipt = `{"receipt_id":"rcpt_1","policy_hash":"ph","consent_snapshot_hash":"ch","receipt_sig":"0x01"}`

type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(r *http.Request) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, r.Method+" "+r.URL.Path)
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

func newGateway(t *testing.T) (*Client, *callLog) {
	t.Helper()

	calls := &callLog{}
	var anchored atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("GET /receipts/{id}", func(w http.ResponseWriter, r *http.Request) {
		calls.add(r)
		if r.PathValue("id") != "rcpt_1" {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}
		if anchored.Load() {
			_, _ = w.Write([]byte(`{"receipt_id":"rcpt_1","anchor":{"l2_tx":{"tx_hash":"0xabc"}}}`))
			return
		}
		_, _ = w.Write([]byte(sampleReceipt))
	})
	mux.HandleFunc("GET /verify/receipt/{id}", func(w http.ResponseWriter, r *http.Request) {
		calls.add(r)
		_, _ = w.Write([]byte(`{"ok":true,"sig_ok":true,"snapshot_ok":false}`))
	})
	mux.HandleFunc("POST /anchor/l2/{id}", func(w http.ResponseWriter, r *http.Request) {
		calls.add(r)
		anchored.Store(true)
		_, _ = w.Write([]byte(`{}`))
	})
	mux.HandleFunc("POST /mcp/tools/call", func(w http.ResponseWriter, r *http.Request) {
		calls.add(r)
		var call ToolCall
		if err := json.NewDecoder(r.Body).Decode(&call); err != nil || call.ToolID == "" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"receipt_id":"rcpt_1"}`))
	})
	mux.HandleFunc("POST /mcp/retrieval/query", func(w http.ResponseWriter, r *http.Request) {
		calls.add(r)
		_, _ = w.Write([]byte(`{"answer":"none"}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL + "/"), calls
}

func TestFetchReceiptKeepsOrder(t *testing.T) {
	client, _ := newGateway(t)

	receipt, err := client.FetchReceipt(context.Background(), "rcpt_1")
	require.NoError(t, err)

	obj, ok := receipt.(canonical.Object)
	require.True(t, ok)
	assert.Equal(t, []string{"receipt_id", "policy_hash", "consent_snapshot_hash", "receipt_sig"}, obj.Keys())

	out, err := canonical.Marshal(receipt)
	require.NoError(t, err)
	assert.Equal(t, sampleReceipt, string(out))
}

func TestFetchReceiptNotFound(t *testing.T) {
	client, _ := newGateway(t)

	_, err := client.FetchReceipt(context.Background(), "missing")
	require.ErrorIs(t, err, ErrGatewayStatus)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "not found")
}

func TestVerifyRemote(t *testing.T) {
	client, _ := newGateway(t)

	verdict, err := client.VerifyRemote(context.Background(), "rcpt_1")
	require.NoError(t, err)
	assert.Equal(t, RemoteVerdict{OK: true, SigOK: true, SnapshotOK: false}, verdict)
}

func TestAnchorThenFetch(t *testing.T) {
	client, calls := newGateway(t)
	ctx := context.Background()

	require.NoError(t, client.AnchorL2(ctx, "rcpt_1"))
	receipt, err := client.FetchReceipt(ctx, "rcpt_1")
	require.NoError(t, err)

	txHash, ok := canonical.StringAt(receipt, "anchor", "l2_tx", "tx_hash")
	require.True(t, ok)
	assert.Equal(t, "0xabc", txHash)
	assert.Equal(t, []string{"POST /anchor/l2/rcpt_1", "GET /receipts/rcpt_1"}, calls.list())
}

func TestCallTool(t *testing.T) {
	client, _ := newGateway(t)

	id, err := client.CallTool(context.Background(), ToolCall{
		ToolID:  "payments.demo@1.0.0",
		Args:    map[string]any{"amount": 100, "description": "demo payment"},
		AuthKey: "demo",
	})
	require.NoError(t, err)
	assert.Equal(t, "rcpt_1", id)

	_, err = client.CallTool(context.Background(), ToolCall{})
	require.ErrorIs(t, err, ErrGatewayStatus)
}

func TestQueryWithoutReceipt(t *testing.T) {
	client, _ := newGateway(t)

	_, err := client.Query(context.Background(), RetrievalQuery{Query: "q", Datasets: []string{"demo-ds-1"}, AuthKey: "demo"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no receipt_id")
}

func TestUnreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")
	_, err := client.VerifyRemote(context.Background(), "rcpt_1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrGatewayStatus)
}
