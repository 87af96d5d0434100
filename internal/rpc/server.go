package rpc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/emergent-company/orchestrator/internal/orchestrator"
	"github.com/emergent-company/orchestrator/internal/spec"
)

// TaskService is the subset of orchestrator.Service the RPC surface calls,
// decoupling Server from the concrete orchestrator for testing.
type TaskService interface {
	SubmitTask(ctx context.Context, description string, taskContext map[string]string, workerIDs []string) (orchestrator.SubmitResult, error)
	ClarifyTask(ctx context.Context, sessionID string, responses []spec.ClarificationResponse) (orchestrator.ClarifyResult, error)
	GetStatus(taskID string) (orchestrator.StatusResult, error)
	ListTasks(statusFilter string, limit, offset int) orchestrator.ListResult
	CancelTask(taskID string) (string, error)
}

// Server implements the orchestrator's RPC protocol over stdio (spec §6):
// a JSON-RPC 2.0 envelope carrying five task-lifecycle methods plus a
// tools/prompts/resources discovery surface.
type Server struct {
	registry *Registry
	tasks    TaskService
	info     ServerInfo
	logger   *slog.Logger
}

// NewServer creates a Server with the given registry, task service, and
// server info.
func NewServer(registry *Registry, tasks TaskService, info ServerInfo, logger *slog.Logger) *Server {
	return &Server{
		registry: registry,
		tasks:    tasks,
		info:     info,
		logger:   logger,
	}
}

// Run reads JSON-RPC requests from stdin and writes responses to stdout.
// It blocks until stdin is closed or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024)
	encoder := json.NewEncoder(os.Stdout)

	s.logger.Info("orchestrator rpc server started", "name", s.info.Name, "version", s.info.Version)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		resp := s.HandleMessage(ctx, line)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.logger.Error("failed to write response", "error", err)
				return fmt.Errorf("writing response: %w", err)
			}
		}
	}

	if err := scanner.Err(); err != nil && err != io.EOF {
		return fmt.Errorf("reading stdin: %w", err)
	}

	s.logger.Info("orchestrator rpc server stopped (stdin closed)")
	return nil
}

// HandleMessage parses a JSON-RPC request and dispatches to the
// appropriate handler. Exported so the HTTP transport can reuse it without
// going through stdio framing.
func (s *Server) HandleMessage(ctx context.Context, data []byte) *Response {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		s.logger.Error("failed to parse request", "error", err)
		return &Response{
			JSONRPC: "2.0",
			Error: &RPCError{
				Code:    ErrCodeParse,
				Message: "Parse error",
				Data:    err.Error(),
			},
		}
	}

	if req.ID == nil && req.Method == "notifications/initialized" {
		s.logger.Info("client initialized")
		return nil
	}
	if req.ID == nil {
		s.logger.Debug("received notification", "method", req.Method)
		return nil
	}

	s.logger.Debug("handling request", "method", req.Method, "id", string(req.ID))

	result, rpcErr := s.dispatch(ctx, &req)
	resp := &Response{
		JSONRPC: "2.0",
		ID:      req.ID,
	}
	if rpcErr != nil {
		resp.Error = rpcErr
	} else {
		resp.Result = result
	}
	return resp
}

func (s *Server) dispatch(ctx context.Context, req *Request) (any, *RPCError) {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req.Params)
	case "submit_task":
		return s.handleSubmitTask(ctx, req.Params)
	case "clarify_task":
		return s.handleClarifyTask(ctx, req.Params)
	case "get_task_status":
		return s.handleGetTaskStatus(req.Params)
	case "list_tasks":
		return s.handleListTasks(req.Params)
	case "cancel_task":
		return s.handleCancelTask(req.Params)
	case "tools/list":
		return s.handleToolsList()
	case "tools/call":
		return s.handleToolsCall(ctx, req.Params)
	case "prompts/list":
		return s.handlePromptsList()
	case "prompts/get":
		return s.handlePromptsGet(req.Params)
	case "resources/list":
		return s.handleResourcesList()
	case "resources/read":
		return s.handleResourcesRead(req.Params)
	default:
		return nil, &RPCError{
			Code:    ErrCodeMethodNotFound,
			Message: fmt.Sprintf("method not found: %s", req.Method),
		}
	}
}

func (s *Server) handleInitialize(params json.RawMessage) (any, *RPCError) {
	var initParams InitializeParams
	if params != nil {
		if err := json.Unmarshal(params, &initParams); err != nil {
			return nil, &RPCError{
				Code:    ErrCodeInvalidParams,
				Message: "Invalid initialize params",
				Data:    err.Error(),
			}
		}
	}

	s.logger.Info("client connecting",
		"client", initParams.ClientInfo.Name,
		"client_version", initParams.ClientInfo.Version,
		"protocol_version", initParams.ProtocolVersion,
	)

	caps := ServerCapability{
		Tools: &ToolsCapability{},
	}
	if s.registry.HasPrompts() {
		caps.Prompts = &PromptsCapability{}
	}
	if s.registry.HasResources() {
		caps.Resources = &ResourcesCapability{}
	}

	return &InitializeResult{
		ProtocolVersion: "2024-11-05",
		Capabilities:    caps,
		ServerInfo:      s.info,
	}, nil
}

// submitTaskParams is submit_task's wire params (spec §6
// "submit_task(description, risk_tier?, context?)"). WorkerIDs is an
// additive field naming which pool workers a generated spec dispatches to.
type submitTaskParams struct {
	Description string            `json:"description"`
	RiskTier    string            `json:"risk_tier,omitempty"`
	Context     map[string]string `json:"context,omitempty"`
	WorkerIDs   []string          `json:"worker_ids,omitempty"`
}

func (s *Server) handleSubmitTask(ctx context.Context, params json.RawMessage) (any, *RPCError) {
	var p submitTaskParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, &RPCError{Code: ErrCodeInvalidParams, Message: "Invalid submit_task params", Data: err.Error()}
	}
	if p.Description == "" {
		return nil, &RPCError{Code: ErrCodeInvalidParams, Message: "description is required"}
	}

	result, err := s.tasks.SubmitTask(ctx, p.Description, p.Context, p.WorkerIDs)
	if err != nil {
		return nil, &RPCError{Code: ErrCodeInternal, Message: err.Error()}
	}
	return result, nil
}

type clarifyTaskParams struct {
	SessionID string                         `json:"session_id"`
	Responses []spec.ClarificationResponse `json:"responses"`
}

func (s *Server) handleClarifyTask(ctx context.Context, params json.RawMessage) (any, *RPCError) {
	var p clarifyTaskParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, &RPCError{Code: ErrCodeInvalidParams, Message: "Invalid clarify_task params", Data: err.Error()}
	}

	result, err := s.tasks.ClarifyTask(ctx, p.SessionID, p.Responses)
	if err != nil {
		return nil, &RPCError{Code: ErrCodeInvalidParams, Message: err.Error()}
	}
	return result, nil
}

type taskIDParams struct {
	TaskID string `json:"task_id"`
}

func (s *Server) handleGetTaskStatus(params json.RawMessage) (any, *RPCError) {
	var p taskIDParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, &RPCError{Code: ErrCodeInvalidParams, Message: "Invalid get_task_status params", Data: err.Error()}
	}

	result, err := s.tasks.GetStatus(p.TaskID)
	if err != nil {
		return nil, &RPCError{Code: ErrCodeInvalidParams, Message: err.Error()}
	}
	return result, nil
}

type listTasksParams struct {
	StatusFilter string `json:"status_filter,omitempty"`
	Limit        int    `json:"limit"`
	Offset       int    `json:"offset"`
}

func (s *Server) handleListTasks(params json.RawMessage) (any, *RPCError) {
	var p listTasksParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, &RPCError{Code: ErrCodeInvalidParams, Message: "Invalid list_tasks params", Data: err.Error()}
		}
	}
	if p.Limit <= 0 {
		p.Limit = 50
	}

	return s.tasks.ListTasks(p.StatusFilter, p.Limit, p.Offset), nil
}

func (s *Server) handleCancelTask(params json.RawMessage) (any, *RPCError) {
	var p taskIDParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, &RPCError{Code: ErrCodeInvalidParams, Message: "Invalid cancel_task params", Data: err.Error()}
	}

	status, err := s.tasks.CancelTask(p.TaskID)
	if err != nil {
		return nil, &RPCError{Code: ErrCodeInvalidParams, Message: err.Error()}
	}
	return map[string]string{"status": status}, nil
}

func (s *Server) handleToolsList() (any, *RPCError) {
	return &ToolsListResult{
		Tools: s.registry.List(),
	}, nil
}

func (s *Server) handleToolsCall(ctx context.Context, params json.RawMessage) (any, *RPCError) {
	var callParams ToolsCallParams
	if err := json.Unmarshal(params, &callParams); err != nil {
		return nil, &RPCError{
			Code:    ErrCodeInvalidParams,
			Message: "Invalid tools/call params",
			Data:    err.Error(),
		}
	}

	tool := s.registry.Get(callParams.Name)
	if tool == nil {
		return nil, &RPCError{
			Code:    ErrCodeMethodNotFound,
			Message: fmt.Sprintf("tool not found: %s", callParams.Name),
		}
	}

	s.logger.Info("calling tool", "tool", callParams.Name)

	result, err := tool.Execute(ctx, callParams.Arguments)
	if err != nil {
		s.logger.Error("tool execution failed", "tool", callParams.Name, "error", err)
		return ErrorResult(fmt.Sprintf("tool execution failed: %v", err)), nil
	}

	return result, nil
}

func (s *Server) handlePromptsList() (any, *RPCError) {
	return &PromptsListResult{
		Prompts: s.registry.ListPrompts(),
	}, nil
}

func (s *Server) handlePromptsGet(params json.RawMessage) (any, *RPCError) {
	var getParams PromptsGetParams
	if err := json.Unmarshal(params, &getParams); err != nil {
		return nil, &RPCError{
			Code:    ErrCodeInvalidParams,
			Message: "Invalid prompts/get params",
			Data:    err.Error(),
		}
	}

	prompt := s.registry.GetPrompt(getParams.Name)
	if prompt == nil {
		return nil, &RPCError{
			Code:    ErrCodeMethodNotFound,
			Message: fmt.Sprintf("prompt not found: %s", getParams.Name),
		}
	}

	s.logger.Debug("getting prompt", "prompt", getParams.Name)

	result, err := prompt.Get(getParams.Arguments)
	if err != nil {
		return nil, &RPCError{
			Code:    ErrCodeInternal,
			Message: fmt.Sprintf("prompt error: %v", err),
		}
	}

	return result, nil
}

func (s *Server) handleResourcesList() (any, *RPCError) {
	return &ResourcesListResult{
		Resources: s.registry.ListResources(),
	}, nil
}

func (s *Server) handleResourcesRead(params json.RawMessage) (any, *RPCError) {
	var readParams ResourcesReadParams
	if err := json.Unmarshal(params, &readParams); err != nil {
		return nil, &RPCError{
			Code:    ErrCodeInvalidParams,
			Message: "Invalid resources/read params",
			Data:    err.Error(),
		}
	}

	resource := s.registry.GetResource(readParams.URI)
	if resource == nil {
		return nil, &RPCError{
			Code:    ErrCodeMethodNotFound,
			Message: fmt.Sprintf("resource not found: %s", readParams.URI),
		}
	}

	s.logger.Debug("reading resource", "uri", readParams.URI)

	result, err := resource.Read()
	if err != nil {
		return nil, &RPCError{
			Code:    ErrCodeInternal,
			Message: fmt.Sprintf("resource read error: %v", err),
		}
	}

	return result, nil
}
