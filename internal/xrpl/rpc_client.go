package xrpl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/realgrapedrop/xrp-watchdog/internal/domain"
)

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// Client queries a rippled node over its HTTP JSON-RPC interface.
type Client struct {
	endpoint    string
	client      *http.Client
	limiter     *rate.Limiter
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets the initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithRateLimit caps outbound requests per second. The per-transaction
// metadata fetch is the dominant cost of a scan; the limiter is the
// back-pressure point when the node is shared.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a new rippled JSON-RPC client.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:    endpoint,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// rpcRequest is a rippled JSON-RPC request. rippled uses its own
// convention: a method name plus a single params object in a list.
type rpcRequest struct {
	Method string `json:"method"`
	Params []any  `json:"params,omitempty"`
}

// rpcEnvelope wraps every rippled response.
type rpcEnvelope struct {
	Result json.RawMessage `json:"result"`
}

// rpcStatus carries the status fields present in every result payload.
type rpcStatus struct {
	Status       string `json:"status"`
	Error        string `json:"error"`
	ErrorMessage string `json:"error_message"`
}

// call performs one rippled call with rate limiting, retries and
// exponential backoff. Node-reported errors are not retried.
func (c *Client) call(ctx context.Context, method string, params any, result any) error {
	req := rpcRequest{Method: method}
	if params != nil {
		req.Params = []any{params}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(httpReq)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}
		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
			continue
		}

		var env rpcEnvelope
		if err := json.Unmarshal(respBody, &env); err != nil {
			lastErr = fmt.Errorf("unmarshal envelope: %w", err)
			continue
		}

		var status rpcStatus
		if err := json.Unmarshal(env.Result, &status); err != nil {
			lastErr = fmt.Errorf("unmarshal status: %w", err)
			continue
		}
		if status.Status != "success" {
			// Node-reported errors (txnNotFound, lgrNotFound, ...) are final.
			return fmt.Errorf("rippled %s: %s (%s)", method, status.Error, status.ErrorMessage)
		}

		if result != nil {
			if err := json.Unmarshal(env.Result, result); err != nil {
				return fmt.Errorf("unmarshal result: %w", err)
			}
		}
		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// Tx retrieves a validated transaction with full metadata.
func (c *Client) Tx(ctx context.Context, txHash string) (*TxResult, error) {
	params := map[string]any{
		"transaction": txHash,
		"binary":      false,
	}
	var result TxResult
	if err := c.call(ctx, "tx", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// LedgerByHash retrieves header fields of a specific ledger.
func (c *Client) LedgerByHash(ctx context.Context, ledgerHash string) (*domain.LedgerHeader, error) {
	params := map[string]any{"ledger_hash": ledgerHash}
	var result ledgerResult
	if err := c.call(ctx, "ledger", params, &result); err != nil {
		return nil, err
	}
	return &domain.LedgerHeader{
		LedgerIndex: result.LedgerIndex,
		LedgerHash:  result.LedgerHash,
		ParentHash:  result.Ledger.ParentHash,
		CloseTime:   result.Ledger.CloseTimeHuman,
	}, nil
}

// LedgerByIndex retrieves header fields of a ledger by index.
func (c *Client) LedgerByIndex(ctx context.Context, index int64) (*domain.LedgerHeader, error) {
	params := map[string]any{"ledger_index": index}
	var result ledgerResult
	if err := c.call(ctx, "ledger", params, &result); err != nil {
		return nil, err
	}
	return &domain.LedgerHeader{
		LedgerIndex: result.LedgerIndex,
		LedgerHash:  result.LedgerHash,
		ParentHash:  result.Ledger.ParentHash,
		CloseTime:   result.Ledger.CloseTimeHuman,
	}, nil
}

// ClosedLedger retrieves the latest closed ledger header.
func (c *Client) ClosedLedger(ctx context.Context) (*domain.LedgerHeader, error) {
	params := map[string]any{"ledger_index": "closed"}
	var result ledgerResult
	if err := c.call(ctx, "ledger", params, &result); err != nil {
		return nil, err
	}
	return &domain.LedgerHeader{
		LedgerIndex: result.LedgerIndex,
		LedgerHash:  result.LedgerHash,
		ParentHash:  result.Ledger.ParentHash,
		CloseTime:   result.Ledger.CloseTimeHuman,
	}, nil
}

// BookChanges retrieves the per-pair OHLC summary of balance changes for
// one ledger.
func (c *Client) BookChanges(ctx context.Context, ledgerHash string) ([]BookChangeRow, error) {
	params := map[string]any{"ledger_hash": ledgerHash}
	var result bookChangesResult
	if err := c.call(ctx, "book_changes", params, &result); err != nil {
		return nil, err
	}
	return result.Changes, nil
}

// TransactionEffect fetches a transaction and reduces its metadata to the
// trust-line entries the extractor needs. Non-RippleState nodes and nodes
// without a balance change are dropped here.
func (c *Client) TransactionEffect(ctx context.Context, txHash, taker string) (*domain.RawTransactionEffect, error) {
	tx, err := c.Tx(ctx, txHash)
	if err != nil {
		return nil, err
	}

	effect := &domain.RawTransactionEffect{
		TxHash: txHash,
		Taker:  taker,
	}

	for _, wrapper := range tx.Meta.AffectedNodes {
		// Created nodes have no previous balance, so no delta to take.
		node := wrapper.ModifiedNode
		if node == nil {
			node = wrapper.DeletedNode
		}
		if node == nil || node.LedgerEntryType != "RippleState" {
			continue
		}

		var final RippleStateFields
		if err := json.Unmarshal(node.FinalFields, &final); err != nil {
			continue
		}
		var prev RippleStateFields
		if len(node.PreviousFields) == 0 {
			continue
		}
		if err := json.Unmarshal(node.PreviousFields, &prev); err != nil {
			continue
		}
		if prev.Balance.Value == "" {
			// Balance did not change in this transaction.
			continue
		}

		effect.TrustLines = append(effect.TrustLines, domain.TrustLineEntry{
			LowAccount:    final.LowLimit.Issuer,
			HighAccount:   final.HighLimit.Issuer,
			Currency:      final.Balance.Currency,
			BalanceBefore: prev.Balance.Value,
			BalanceAfter:  final.Balance.Value,
		})
	}

	return effect, nil
}
