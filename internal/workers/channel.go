// Package workers implements the Worker Pool & Output Collector (C5): a
// registry of polymorphic workers, at-most-one-concurrent-assignment
// dispatch, heartbeat-tracked communication channels, and output merging.
// The pooled-transport and per-request-client shape is grounded on the
// teacher's internal/emergent/client.go ClientFactory.
package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/emergent-company/orchestrator/internal/spec"
	"github.com/gorilla/websocket"
)

// ChannelKind is the closed tagged variant over communication channel
// shapes a worker assignment may use (spec §4.5 "variants {HTTP, WebSocket,
// gRPC, message-queue}"). gRPC and message-queue are represented so the
// variant set is complete and the pool's dispatch logic switches over all
// four, but only HTTP and WebSocket have concrete transports wired in this
// tree — no gRPC service or broker is part of this system's own estate.
type ChannelKind string

const (
	ChannelHTTP      ChannelKind = "http"
	ChannelWebSocket ChannelKind = "websocket"
	ChannelGRPC      ChannelKind = "grpc"
	ChannelQueue     ChannelKind = "message-queue"
)

// Channel is a worker's communication channel: send the task, then poll for
// completion, each call able to observe a heartbeat.
type Channel interface {
	Kind() ChannelKind
	// Dispatch sends the task and blocks until the worker reports
	// completion, ctx is canceled, or a heartbeat miss trips the channel to
	// error (spec §4.5 "Output collection polls the channel until the
	// worker reports completion or the Executor's deadline fires").
	Dispatch(ctx context.Context, ws *spec.WorkingSpec, assignment *spec.WorkerAssignment) (spec.WorkerOutput, error)
}

// sharedHTTPTransport is the one pooled transport every httpChannel reuses,
// tuned the way the teacher's ClientFactory tunes its transport for a
// multi-tenant fan-out of many short-lived requests.
var sharedHTTPTransport = &http.Transport{
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 10,
	MaxConnsPerHost:     50,
	IdleConnTimeout:     90 * time.Second,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
}

var sharedHTTPClient = &http.Client{Transport: sharedHTTPTransport}

// httpChannel dispatches a task to a worker over a single synchronous HTTP
// request/response. It records a heartbeat once the worker's output is
// decoded, and a missed heartbeat when the request fails or the worker
// answers with an error status.
type httpChannel struct {
	endpoint string
}

func newHTTPChannel(endpoint string) *httpChannel {
	return &httpChannel{endpoint: endpoint}
}

func (c *httpChannel) Kind() ChannelKind { return ChannelHTTP }

type httpTaskRequest struct {
	TaskID      string `json:"task_id"`
	SpecID      string `json:"spec_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (c *httpChannel) Dispatch(ctx context.Context, ws *spec.WorkingSpec, assignment *spec.WorkerAssignment) (spec.WorkerOutput, error) {
	assignment.ChannelStatus = spec.ChannelConnecting
	body, err := json.Marshal(httpTaskRequest{
		TaskID:      assignment.TaskID,
		SpecID:      ws.ID,
		Title:       ws.Title,
		Description: ws.Description,
	})
	if err != nil {
		return spec.WorkerOutput{}, fmt.Errorf("encoding task request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return spec.WorkerOutput{}, fmt.Errorf("building worker request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := sharedHTTPClient.Do(req)
	if err != nil {
		assignment.MissHeartbeat()
		return spec.WorkerOutput{}, fmt.Errorf("worker http dispatch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		assignment.MissHeartbeat()
		return spec.WorkerOutput{}, fmt.Errorf("worker returned status %d", resp.StatusCode)
	}

	var out spec.WorkerOutput
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return spec.WorkerOutput{}, fmt.Errorf("decoding worker output: %w", err)
	}
	assignment.RecordHeartbeat(time.Now())
	out.WorkerID = assignment.WorkerID
	out.TaskID = assignment.TaskID
	return out, nil
}

// wsChannel dispatches over a duplex websocket connection, useful for
// workers that stream incremental progress before their final output.
type wsChannel struct {
	url string
}

func newWSChannel(url string) *wsChannel {
	return &wsChannel{url: url}
}

func (c *wsChannel) Kind() ChannelKind { return ChannelWebSocket }

func (c *wsChannel) Dispatch(ctx context.Context, ws *spec.WorkingSpec, assignment *spec.WorkerAssignment) (spec.WorkerOutput, error) {
	assignment.ChannelStatus = spec.ChannelConnecting
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		assignment.MissHeartbeat()
		return spec.WorkerOutput{}, fmt.Errorf("worker websocket dial: %w", err)
	}
	defer conn.Close()

	req := httpTaskRequest{TaskID: assignment.TaskID, SpecID: ws.ID, Title: ws.Title, Description: ws.Description}
	if err := conn.WriteJSON(req); err != nil {
		return spec.WorkerOutput{}, fmt.Errorf("sending task over websocket: %w", err)
	}

	var out spec.WorkerOutput
	done := make(chan error, 1)
	go func() {
		done <- conn.ReadJSON(&out)
	}()

	select {
	case <-ctx.Done():
		assignment.MissHeartbeat()
		return spec.WorkerOutput{}, ctx.Err()
	case err := <-done:
		if err != nil {
			assignment.MissHeartbeat()
			return spec.WorkerOutput{}, fmt.Errorf("reading worker output: %w", err)
		}
	}

	assignment.RecordHeartbeat(time.Now())
	out.WorkerID = assignment.WorkerID
	out.TaskID = assignment.TaskID
	return out, nil
}
