package pipeline

import (
	"context"
	"log/slog"
)

// transmitterShutdowner is the lifecycle surface the runtime drains
// before stopping live-metrics.
type transmitterShutdowner interface {
	Shutdown(ctx context.Context) error
}

// Runtime owns the full export path's lifecycle: the Coordinator
// (registered with the TracerProvider), the transmitter's background
// batching loop, and the live-metrics control loop. Shutdown order
// matters — the transmitter must drain its pending batch before the
// process exits, and only then does live-metrics stop observing, so
// a batch flushed during shutdown is still counted.
type Runtime struct {
	Coordinator *Coordinator
	transmitter transmitterShutdowner
	cancel      context.CancelFunc
	logger      *slog.Logger
}

// NewRuntime wires a Coordinator with the transmitter and a cancel
// function for the background control loops (transmitter.Run and the
// live-metrics controller.Run, both started by the caller).
func NewRuntime(coordinator *Coordinator, transmitter transmitterShutdowner, cancel context.CancelFunc, logger *slog.Logger) *Runtime {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runtime{Coordinator: coordinator, transmitter: transmitter, cancel: cancel, logger: logger}
}

// Shutdown flushes the transmitter, then cancels the background
// control loops (which stops live-metrics reporting).
func (r *Runtime) Shutdown(ctx context.Context) error {
	var err error
	if r.transmitter != nil {
		err = r.transmitter.Shutdown(ctx)
	}
	if r.cancel != nil {
		r.cancel()
	}
	return err
}
