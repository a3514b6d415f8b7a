package observability

import (
	"context"
	"errors"
	"fmt"
	"syscall"

	"go.uber.org/zap"
)

// FlushTelemetry flushes telemetry buffers before process exit.
// Prometheus is pull-based, so this only flushes logs. Call after in-flight requests have drained.
func FlushTelemetry(ctx context.Context, logger *zap.Logger) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("flush telemetry: %w", err)
	}
	if logger == nil {
		return nil
	}
	if err := logger.Sync(); err != nil && !isUnsyncable(err) {
		return fmt.Errorf("flush logs: %w", err)
	}
	return nil
}

// isUnsyncable reports errors returned by fsync on terminals and pipes (stderr under a TTY or container runtime).
func isUnsyncable(err error) bool {
	return errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY)
}
