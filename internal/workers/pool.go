package workers

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/emergent-company/orchestrator/internal/spec"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ErrWorkerBusy is returned by ExecuteTask when a worker id already has an
// active assignment (spec §4.5 "guarantees at-most-one concurrent
// assignment per worker id").
var ErrWorkerBusy = fmt.Errorf("workers: worker already has an active assignment")

// ErrUnknownWorker is returned when a worker id is not registered.
var ErrUnknownWorker = fmt.Errorf("workers: unknown worker id")

// Descriptor is what the pool knows about a registered worker, independent
// of any single task assignment.
type Descriptor struct {
	ID   string
	Kind ChannelKind
}

// Pool maintains the worker id → descriptor map and readiness queue,
// dispatching tasks to one or more workers concurrently while enforcing
// at-most-one concurrent assignment per worker id.
type Pool struct {
	mu        sync.Mutex
	workers   map[string]Descriptor
	channels  map[string]Channel
	active    map[string]*spec.WorkerAssignment
	readiness []string // worker ids currently idle, FIFO
}

// New constructs an empty pool.
func New() *Pool {
	return &Pool{
		workers:  make(map[string]Descriptor),
		channels: make(map[string]Channel),
		active:   make(map[string]*spec.WorkerAssignment),
	}
}

// RegisterHTTPWorker adds a worker reachable over HTTP at endpoint.
func (p *Pool) RegisterHTTPWorker(id, endpoint string) {
	p.register(id, ChannelHTTP, newHTTPChannel(endpoint))
}

// RegisterWebSocketWorker adds a worker reachable over a websocket URL.
func (p *Pool) RegisterWebSocketWorker(id, url string) {
	p.register(id, ChannelWebSocket, newWSChannel(url))
}

func (p *Pool) register(id string, kind ChannelKind, ch Channel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.workers[id] = Descriptor{ID: id, Kind: kind}
	p.channels[id] = ch
	p.readiness = append(p.readiness, id)
}

// tryAcquire claims workerID for an assignment, failing if it is already
// active or unknown.
func (p *Pool) tryAcquire(taskID, workerID string) (*spec.WorkerAssignment, Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	desc, ok := p.workers[workerID]
	if !ok {
		return nil, nil, ErrUnknownWorker
	}
	if _, busy := p.active[workerID]; busy {
		return nil, nil, ErrWorkerBusy
	}

	assignment := &spec.WorkerAssignment{
		TaskID:        taskID,
		WorkerID:      workerID,
		ChannelKind:   string(desc.Kind),
		ChannelStatus: spec.ChannelConnecting,
		Health:        HealthUnknownDefault,
	}
	p.active[workerID] = assignment
	return assignment, p.channels[workerID], nil
}

func (p *Pool) release(workerID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.active, workerID)
	p.readiness = append(p.readiness, workerID)
}

// HealthUnknownDefault is the initial health of a freshly created
// assignment, before the first heartbeat lands.
const HealthUnknownDefault = spec.HealthUnknown

// ExecuteTask implements execute_task(spec, breaker?) → assignment for a
// single worker id (spec §4.5 public contract). breaker, if non-nil, wraps
// the dispatch so circuit-open short-circuits without touching the
// channel at all; the Executor (C7) supplies its own breaker instance.
func (p *Pool) ExecuteTask(ctx context.Context, taskID, workerID string, ws *spec.WorkingSpec, guard func(func() error) error) (spec.WorkerOutput, *spec.WorkerAssignment, error) {
	assignment, ch, err := p.tryAcquire(taskID, workerID)
	if err != nil {
		return spec.WorkerOutput{}, nil, err
	}
	defer p.release(workerID)

	var out spec.WorkerOutput
	call := func() error {
		var dispatchErr error
		out, dispatchErr = ch.Dispatch(ctx, ws, assignment)
		return dispatchErr
	}

	if guard != nil {
		err = guard(call)
	} else {
		err = call()
	}
	return out, assignment, err
}

// ExecuteMany fans a task out to every worker id in workerIDs concurrently,
// starting all of them at once with no concurrency limit, and collects
// whatever outputs succeed. A worker that errors leaves a zero-value output
// at its index; callers inspect the returned error slice by index.
func (p *Pool) ExecuteMany(ctx context.Context, taskID string, workerIDs []string, ws *spec.WorkingSpec, guard func(func() error) error) ([]spec.WorkerOutput, []error) {
	outputs := make([]spec.WorkerOutput, len(workerIDs))
	errs := make([]error, len(workerIDs))

	g, gctx := errgroup.WithContext(ctx)
	for i, id := range workerIDs {
		i, id := i, id
		g.Go(func() error {
			out, _, err := p.ExecuteTask(gctx, taskID, id, ws, guard)
			outputs[i] = out
			errs[i] = err
			return nil // collect per-worker errors without aborting siblings
		})
	}
	_ = g.Wait()

	return outputs, errs
}

// CollectOutputs merges per-worker outputs by a stable sort on worker id
// (spec §4.5 "outputs are merged by stable sort on worker id"), dropping
// any zero-value outputs contributed by failed workers.
func CollectOutputs(outputs []spec.WorkerOutput) []spec.WorkerOutput {
	var out []spec.WorkerOutput
	for _, o := range outputs {
		if o.WorkerID != "" {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].WorkerID < out[j].WorkerID })
	return out
}

// NewAssignmentID is a convenience for callers that need an opaque
// assignment identifier distinct from the task id (e.g. audit payloads).
func NewAssignmentID() string {
	return uuid.NewString()
}

// HeartbeatMonitor periodically calls MissHeartbeat on any assignment that
// hasn't recorded a fresh heartbeat within interval, used by the pool's
// owner to detect stalled workers without the channel itself needing to
// self-report liveness.
func HeartbeatMonitor(ctx context.Context, assignment *spec.WorkerAssignment, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	lastSeen := assignment.Heartbeat

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			if assignment.Heartbeat.Equal(lastSeen) {
				assignment.MissHeartbeat()
			}
			lastSeen = assignment.Heartbeat
		}
	}
}
