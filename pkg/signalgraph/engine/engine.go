// Package engine ties the reconciler to its external collaborators: the
// directives arriving from a client, the NodeMap that survives across
// calls, and the runtime that actually renders audio.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/trace"

	"github.com/b00lduck/elementary/pkg/signalgraph/depgraph"
	"github.com/b00lduck/elementary/pkg/signalgraph/instruction"
	"github.com/b00lduck/elementary/pkg/signalgraph/node"
	"github.com/b00lduck/elementary/pkg/signalgraph/reconcile"
)

// AudioBuffer is a named block of interleaved-by-channel sample data, the
// shape a Directive uses to hand shared resources (e.g. sample playback
// buffers) to the runtime.
type AudioBuffer struct {
	Channels int
	Frames   int
	Data     []float32
}

// Directive is one control-thread request: a new graph to reconcile
// against, a set of named resources to register with the runtime, or
// both. Either field may be nil/empty; a Directive with both nil is a
// well-formed no-op.
type Directive struct {
	Graph     []node.NodeRepr
	Resources map[string]AudioBuffer
}

// RuntimeCollaborator is the audio runtime's control-thread-facing
// surface: applying instruction batches, registering shared resources,
// and draining events the realtime side queued for the control thread.
// Status codes below 0 indicate an implementation-defined runtime error;
// they are logged but do not otherwise interrupt the control thread.
type RuntimeCollaborator interface {
	AddSharedResource(ctx context.Context, name string, buf AudioBuffer) (statusCode int, err error)
	ApplyInstructions(ctx context.Context, batch []byte) (statusCode int, err error)
	ProcessQueuedEvents(ctx context.Context) (events []byte, err error)
}

// Deps holds the engine's injectable collaborators. Runtime is required;
// Logger, Metrics, and Tracer are optional: a nil Logger falls back to
// slog.Default, a nil Metrics to no-op instruments, and a nil Tracer
// disables tracing, the same convention the rest of this codebase's
// dependency-injected servers use.
type Deps struct {
	Runtime RuntimeCollaborator
	Logger  *slog.Logger
	Metrics *Metrics
	Tracer  trace.Tracer
}

// Engine owns the single NodeMap for one session and serializes all
// access to it. It corresponds to the control thread described in the
// host's concurrency model: exactly one goroutine is expected to drive
// Render and PollEvents for a given Engine, but both are safe to call
// from any goroutine since they're fully serialized internally.
type Engine struct {
	mu      sync.Mutex
	nodeMap *reconcile.NodeMap
	runtime RuntimeCollaborator
	logger  *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer
	verify  bool
}

// New constructs an Engine with a fresh, empty NodeMap.
func New(deps Deps) *Engine {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	metrics := deps.Metrics
	if metrics == nil {
		metrics = NewNoopMetrics()
	}

	return &Engine{
		nodeMap: reconcile.NewNodeMap(),
		runtime: deps.Runtime,
		logger:  logger,
		metrics: metrics,
		tracer:  deps.Tracer,
	}
}

// SetVerifyInstructions turns on a post-Reconcile create-before-use check
// via pkg/signalgraph/depgraph. It is a debug aid, not part of the normal
// hot path, and is off by default.
func (e *Engine) SetVerifyInstructions(verify bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.verify = verify
}

// Render applies one Directive: it registers any new shared resources
// with the runtime, recomputes hashes for every node in Graph bottom-up
// (never trusting a hash supplied over the wire), reconciles that graph
// against the engine's NodeMap, and forwards the resulting instruction
// batch to the runtime.
//
// A malformed or runtime-rejected directive is logged and absorbed: per
// the control thread's error-handling design, only the runtime's status
// code is meaningful to the caller, and a failed apply does not roll back
// the NodeMap, since the runtime is expected to be idempotent on re-apply.
func (e *Engine) Render(ctx context.Context, dir Directive) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.tracer != nil {
		var span trace.Span
		ctx, span = e.tracer.Start(ctx, "engine.Render")
		defer span.End()
	}

	for name, buf := range dir.Resources {
		status, err := e.runtime.AddSharedResource(ctx, name, buf)
		if err != nil {
			return fmt.Errorf("engine: add shared resource %q: %w", name, err)
		}

		if status < 0 {
			e.logger.Warn("runtime rejected shared resource", "name", name, "status", status)
		}
	}

	if dir.Graph == nil {
		return nil
	}

	roots := make([]node.NodeRepr, len(dir.Graph))
	for i, n := range dir.Graph {
		roots[i] = node.RecomputeHash(n)
	}

	var known map[int32]bool
	if e.verify {
		known = e.nodeMap.Hashes()
	}

	batch := reconcile.Reconcile(e.nodeMap, roots)

	if e.verify {
		if err := depgraph.VerifyCreateBeforeUse(batch, known); err != nil {
			return fmt.Errorf("engine: reconciled batch failed verification: %w", err)
		}
	}

	e.metrics.ObserveReconcile(len(batch), e.nodeMap.Len())

	encoded, err := instruction.EncodeBatch(batch)
	if err != nil {
		return fmt.Errorf("engine: encode instruction batch: %w", err)
	}

	status, err := e.runtime.ApplyInstructions(ctx, encoded)
	if err != nil {
		return fmt.Errorf("engine: apply instructions: %w", err)
	}

	if status < 0 {
		e.logger.Warn("runtime rejected instruction batch", "status", status)
	}

	return nil
}

// PollEvents drains whatever events the runtime has queued for the
// control thread since the last call. It is meant to be driven by a
// fixed-rate ticker, matching the host's ~30Hz control-thread poll loop.
func (e *Engine) PollEvents(ctx context.Context) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	events, err := e.runtime.ProcessQueuedEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("engine: process queued events: %w", err)
	}

	return events, nil
}

// NodeMapSize reports how many distinct node hashes this engine's NodeMap
// currently holds, for observability and debug tooling.
func (e *Engine) NodeMapSize() int {
	return e.nodeMap.Len()
}
