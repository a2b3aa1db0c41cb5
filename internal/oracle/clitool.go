package oracle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/suidash/backend/pkg/types"
)

// runFunc executes the tool binary and returns stdout, stderr. Injected so
// tests never exec anything.
type runFunc func(ctx context.Context, bin string, args ...string) (stdout, stderr []byte, err error)

// QueryTool fetches per-address activity counters by invoking the local
// query binary. Invocations are slow (full CLI startup per call), which is
// why the coordinator's in-flight set guarantees at most one concurrent
// invocation per address.
type QueryTool struct {
	bin     string
	timeout time.Duration
	logger  *zap.Logger
	run     runFunc
}

// NewQueryTool creates an adapter around the named binary.
func NewQueryTool(bin string, timeout time.Duration, logger *zap.Logger) *QueryTool {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &QueryTool{
		bin:     bin,
		timeout: timeout,
		logger:  logger,
		run:     runCommand,
	}
}

// FetchActivity returns transaction and deployed-contract counts for one
// address.
func (q *QueryTool) FetchActivity(ctx context.Context, address string) (types.ActivityCounters, error) {
	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	args := []string{"client", "activity", "--address", address, "--json"}

	start := time.Now()
	stdout, stderr, err := q.run(ctx, q.bin, args...)
	ToolInvocationDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		ToolInvocationErrorsTotal.Inc()
		classified := classifyToolError(ctx, err, stderr)
		q.logger.Warn("query-tool-failed",
			zap.String("address", MaskAddress(address)),
			zap.String("stderr", Sanitize(string(stderr))),
			zap.Error(classified))
		return types.ActivityCounters{}, &types.OracleError{Op: "query-tool", Address: address, Err: classified}
	}

	counters, err := ParseActivityResult(stdout)
	if err != nil {
		ToolParseErrorsTotal.Inc()
		q.logger.Warn("query-tool-unparseable",
			zap.String("address", MaskAddress(address)),
			zap.String("stdout", Sanitize(truncate(string(stdout), 200))))
		return types.ActivityCounters{}, &types.OracleError{Op: "query-tool", Address: address, Err: err}
	}

	return counters, nil
}

func classifyToolError(ctx context.Context, err error, stderr []byte) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("tool timed out: %w", types.ErrOracleTimeout)
	}

	msg := strings.ToLower(string(stderr))
	if strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many requests") {
		return fmt.Errorf("tool rate limited: %w", types.ErrOracleRateLimited)
	}

	return fmt.Errorf("tool failed: %v: %w", err, types.ErrOracleTransport)
}

func runCommand(ctx context.Context, bin string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, bin, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
