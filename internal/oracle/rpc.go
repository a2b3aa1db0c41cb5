package oracle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/suidash/backend/pkg/types"
)

const suiCoinType = "0x2::sui::SUI"

// rpcRequest is one JSON-RPC 2.0 call. Batched calls are encoded as an array
// of these; the integer ID correlates responses back to requests.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcErrorBody   `json:"error"`
}

type rpcErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// BatchOutcome is the per-address outcome of one sub-request in a batched
// call.
type BatchOutcome struct {
	Value string
	Err   error
}

// RPCClient talks JSON-RPC to the Sui fullnode. Every call carries its own
// timeout; classification of failures into the oracle error taxonomy happens
// here so upstream layers only ever see the sentinels.
type RPCClient struct {
	endpoint    string
	httpClient  *http.Client
	callTimeout time.Duration
	logger      *zap.Logger
}

// NewRPCClient creates a fullnode client.
func NewRPCClient(endpoint string, callTimeout time.Duration, logger *zap.Logger) *RPCClient {
	if callTimeout <= 0 {
		callTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RPCClient{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: callTimeout,
		},
		callTimeout: callTimeout,
		logger:      logger,
	}
}

// FetchBalance returns the SUI balance of one address as a decimal string
// with four fractional digits.
func (c *RPCClient) FetchBalance(ctx context.Context, address string) (string, error) {
	raw, err := c.call(ctx, "suix_getBalance", []interface{}{address, suiCoinType})
	if err != nil {
		return "", &types.OracleError{Op: "suix_getBalance", Address: address, Err: err}
	}

	mist, err := ParseBalanceResult(raw)
	if err != nil {
		return "", &types.OracleError{Op: "suix_getBalance", Address: address, Err: err}
	}

	return FormatMist(mist), nil
}

// FetchBalanceBatch resolves many balances in a single JSON-RPC batch
// envelope. Sub-requests are tagged with sequential IDs; the response array
// may arrive in any order and is re-sorted by ID before association. One
// timeout covers the whole envelope. The whole-envelope error is only
// non-nil when no per-address outcome could be produced at all.
func (c *RPCClient) FetchBalanceBatch(ctx context.Context, addresses []string) (map[string]BatchOutcome, error) {
	if len(addresses) == 0 {
		return map[string]BatchOutcome{}, nil
	}

	reqs := make([]rpcRequest, len(addresses))
	byID := make(map[int]string, len(addresses))
	for i, addr := range addresses {
		id := i + 1
		reqs[i] = rpcRequest{
			JSONRPC: "2.0",
			ID:      id,
			Method:  "suix_getBalance",
			Params:  []interface{}{addr, suiCoinType},
		}
		byID[id] = addr
	}

	body, err := json.Marshal(reqs)
	if err != nil {
		return nil, fmt.Errorf("marshal batch: %w", err)
	}

	start := time.Now()
	respBody, err := c.post(ctx, body)
	RPCCallDuration.WithLabelValues("batch").Observe(time.Since(start).Seconds())
	if err != nil {
		RPCCallErrorsTotal.WithLabelValues("batch").Inc()
		return nil, &types.OracleError{Op: "batch suix_getBalance", Err: err}
	}

	var responses []rpcResponse
	if err := json.Unmarshal(respBody, &responses); err != nil {
		return nil, &types.OracleError{Op: "batch suix_getBalance", Err: classifyBody(respBody)}
	}

	sort.Slice(responses, func(i, j int) bool { return responses[i].ID < responses[j].ID })

	outcomes := make(map[string]BatchOutcome, len(addresses))
	for _, resp := range responses {
		addr, ok := byID[resp.ID]
		if !ok {
			c.logger.Warn("batch-response-unknown-id", zap.Int("id", resp.ID))
			continue
		}

		if resp.Error != nil {
			outcomes[addr] = BatchOutcome{Err: &types.OracleError{
				Op:      "suix_getBalance",
				Address: addr,
				Err:     fmt.Errorf("rpc error %d %s: %w", resp.Error.Code, resp.Error.Message, types.ErrOracleMalformed),
			}}
			continue
		}

		mist, perr := ParseBalanceResult(resp.Result)
		if perr != nil {
			outcomes[addr] = BatchOutcome{Err: &types.OracleError{Op: "suix_getBalance", Address: addr, Err: perr}}
			continue
		}
		outcomes[addr] = BatchOutcome{Value: FormatMist(mist)}
	}

	// Sub-requests the node silently dropped.
	for _, addr := range addresses {
		if _, ok := outcomes[addr]; !ok {
			outcomes[addr] = BatchOutcome{Err: &types.OracleError{
				Op:      "suix_getBalance",
				Address: addr,
				Err:     types.ErrOracleMalformed,
			}}
		}
	}

	return outcomes, nil
}

// FetchMembership reports whether address has an entry in the community
// membership table (a dynamic field keyed by address).
func (c *RPCClient) FetchMembership(ctx context.Context, address, tableHandle string) (bool, error) {
	params := []interface{}{
		tableHandle,
		map[string]interface{}{"type": "address", "value": address},
	}

	raw, err := c.call(ctx, "suix_getDynamicFieldObject", params)
	if err != nil {
		// A missing field is reported as an RPC-level error by some node
		// versions; treat it as a confirmed non-member rather than a failure.
		if isNotFound(err) {
			return false, nil
		}
		return false, &types.OracleError{Op: "suix_getDynamicFieldObject", Address: address, Err: err}
	}

	var result struct {
		Data  json.RawMessage `json:"data"`
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return false, &types.OracleError{Op: "suix_getDynamicFieldObject", Address: address, Err: types.ErrOracleMalformed}
	}

	return len(result.Data) > 0 && string(result.Data) != "null", nil
}

// call issues a single JSON-RPC request and returns the raw result.
func (c *RPCClient) call(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	start := time.Now()
	respBody, err := c.post(ctx, body)
	RPCCallDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		RPCCallErrorsTotal.WithLabelValues(method).Inc()
		return nil, err
	}

	var resp rpcResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, classifyBody(respBody)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("rpc error %d: %s: %w", resp.Error.Code, resp.Error.Message, types.ErrOracleMalformed)
	}

	return resp.Result, nil
}

func (c *RPCClient) post(ctx context.Context, body []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
		return nil, fmt.Errorf("status %d: %w", resp.StatusCode, types.ErrOracleRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %w", resp.StatusCode, types.ErrOracleTransport)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", types.ErrOracleTransport)
	}

	return respBody, nil
}

// classifyTransport sorts client-side request failures into the taxonomy.
func classifyTransport(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%v: %w", err, types.ErrOracleTimeout)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%v: %w", err, types.ErrOracleTimeout)
	}
	return fmt.Errorf("%v: %w", err, types.ErrOracleTransport)
}

// classifyBody handles a non-JSON payload where JSON was expected. Gateways
// in front of rate-limited nodes answer with HTML error pages, so that shape
// specifically maps to the rate-limit class.
func classifyBody(body []byte) error {
	head := strings.ToLower(strings.TrimSpace(string(body[:min(len(body), 64)])))
	if strings.HasPrefix(head, "<!doctype") || strings.HasPrefix(head, "<html") {
		return fmt.Errorf("html response where json expected: %w", types.ErrOracleRateLimited)
	}
	return fmt.Errorf("unparseable response: %w", types.ErrOracleMalformed)
}

func isNotFound(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "notexist") || strings.Contains(msg, "dynamicfieldnotfound")
}
