package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/gitcloneid/crates-mcp/internal/config"
	"github.com/gitcloneid/crates-mcp/jsonrpc"
	"github.com/gitcloneid/crates-mcp/upstream"
)

// Server processes JSON-RPC requests for the crates.io MCP service.
// It owns the session state machine: requests other than initialize
// and ping are rejected until the initialize handshake has happened.
//
// Handle is invoked sequentially by the stdio transport, so the
// session state needs no locking.
type Server struct {
	upstream    *upstream.Client
	cfg         *config.Config
	logger      *slog.Logger
	info        ServerInfo
	tools       []Tool
	initialized bool
}

// ServerOption configures a Server
type ServerOption func(*Server)

// WithUpstreamClient sets the crates.io/docs.rs client
func WithUpstreamClient(client *upstream.Client) ServerOption {
	return func(s *Server) {
		s.upstream = client
	}
}

// WithConfig sets the server configuration
func WithConfig(cfg *config.Config) ServerOption {
	return func(s *Server) {
		s.cfg = cfg
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithServerInfo sets the name and version advertised during initialize
func WithServerInfo(name, version string) ServerOption {
	return func(s *Server) {
		s.info = ServerInfo{Name: name, Version: version}
	}
}

// NewServer creates a new MCP server instance
func NewServer(opts ...ServerOption) (*Server, error) {
	s := &Server{
		cfg:    config.Default(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		info:   ServerInfo{Name: "crates-mcp", Version: "dev"},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.upstream == nil {
		s.upstream = upstream.NewClient()
	}

	for _, tool := range toolCatalog() {
		if s.cfg.IsToolDisabled(tool.Name) {
			s.logger.Debug("tool disabled by config", "tool", tool.Name)
			continue
		}
		s.tools = append(s.tools, tool)
	}

	return s, nil
}

var _ jsonrpc.Handler = &Server{}

// Handle processes a single JSON-RPC request and returns a response.
// Responses to notifications are discarded by the transport.
func (s *Server) Handle(ctx context.Context, request jsonrpc.Request) jsonrpc.Response {
	s.logger.Debug("handling request", "method", request.Method)

	switch request.Method {
	case "initialize":
		s.initialized = true
		return jsonrpc.NewResponse(request.Id, InitializeResponse{
			ProtocolVersion: Version,
			Capabilities: ServerCapabilities{
				Tools: &struct {
					ListChanged bool `json:"listChanged"`
				}{ListChanged: false},
			},
			ServerInfo: s.info,
		}, nil)

	case "notifications/initialized":
		// Client acknowledgment; nothing to do and nothing to send
		return jsonrpc.Response{}

	case "ping":
		return jsonrpc.NewResponse(request.Id, struct{}{}, nil)

	case "tools/list":
		if !s.initialized {
			return jsonrpc.NewResponse(request.Id, nil, jsonrpc.NewError(jsonrpc.ErrServerNotInitialized, nil))
		}
		return jsonrpc.NewResponse(request.Id, ToolsListResponse{Tools: s.tools}, nil)

	case "tools/call":
		if !s.initialized {
			return jsonrpc.NewResponse(request.Id, nil, jsonrpc.NewError(jsonrpc.ErrServerNotInitialized, nil))
		}
		return s.handleToolsCall(ctx, request)

	default:
		return jsonrpc.NewResponse(request.Id, nil, jsonrpc.NewError(jsonrpc.ErrMethodNotFound, nil))
	}
}

func (s *Server) handleToolsCall(ctx context.Context, request jsonrpc.Request) jsonrpc.Response {
	var params ToolCallParams
	if err := json.Unmarshal(request.Params, &params); err != nil {
		return jsonrpc.NewResponse(request.Id, nil, jsonrpc.NewError(jsonrpc.ErrInvalidParams, err.Error()))
	}
	if params.Name == "" {
		return jsonrpc.NewResponse(request.Id, nil, jsonrpc.NewError(jsonrpc.ErrInvalidParams, "missing tool name"))
	}

	result, err := s.dispatch(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Debug("tool call failed", "tool", params.Name, "error", err)
		return jsonrpc.NewResponse(request.Id, failureResult(err), nil)
	}

	response, err := successResult(result)
	if err != nil {
		return jsonrpc.NewResponse(request.Id, nil, jsonrpc.NewError(jsonrpc.ErrInternal, err.Error()))
	}
	return jsonrpc.NewResponse(request.Id, response, nil)
}

// dispatch routes a validated tool call to its handler. The catalog is
// closed, so routing is a plain switch on the tool name.
func (s *Server) dispatch(ctx context.Context, name string, args map[string]interface{}) (interface{}, error) {
	if args == nil {
		args = map[string]interface{}{}
	}
	if s.cfg.IsToolDisabled(name) {
		return nil, &UnknownToolError{Name: name}
	}

	switch name {
	case ToolSearchCrates:
		return s.callSearchCrates(ctx, args)
	case ToolGetCrateInfo:
		return s.callGetCrateInfo(ctx, args)
	case ToolGetCrateVersions:
		return s.callGetCrateVersions(ctx, args)
	case ToolGetCrateDependencies:
		return s.callGetCrateDependencies(ctx, args)
	case ToolGetCrateDocumentation:
		return s.callGetCrateDocumentation(ctx, args)
	default:
		return nil, &UnknownToolError{Name: name}
	}
}

func (s *Server) callSearchCrates(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	query, err := requiredStringArg(args, "query")
	if err != nil {
		return nil, err
	}
	limit, err := intArg(args, "limit", s.cfg.Search.DefaultLimit)
	if err != nil {
		return nil, err
	}
	// Out-of-range limits are clamped, not rejected
	if limit < 1 {
		limit = s.cfg.Search.DefaultLimit
	}
	if limit > s.cfg.Search.MaxLimit {
		limit = s.cfg.Search.MaxLimit
	}
	return s.upstream.SearchCrates(ctx, query, limit)
}

func (s *Server) callGetCrateInfo(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	name, err := requiredStringArg(args, "name")
	if err != nil {
		return nil, err
	}
	return s.upstream.GetCrateInfo(ctx, name)
}

func (s *Server) callGetCrateVersions(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	name, err := requiredStringArg(args, "name")
	if err != nil {
		return nil, err
	}
	limit, err := intArg(args, "limit", 0)
	if err != nil {
		return nil, err
	}
	if limit < 0 {
		limit = 0
	}
	return s.upstream.GetCrateVersions(ctx, name, limit)
}

func (s *Server) callGetCrateDependencies(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	name, err := requiredStringArg(args, "name")
	if err != nil {
		return nil, err
	}
	version, err := stringArg(args, "version")
	if err != nil {
		return nil, err
	}
	if version == "" {
		version, err = s.upstream.LatestVersion(ctx, name)
		if err != nil {
			return nil, err
		}
	}
	return s.upstream.GetCrateDependencies(ctx, name, version)
}

func (s *Server) callGetCrateDocumentation(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	name, err := requiredStringArg(args, "name")
	if err != nil {
		return nil, err
	}
	version, err := stringArg(args, "version")
	if err != nil {
		return nil, err
	}
	path, err := stringArg(args, "path")
	if err != nil {
		return nil, err
	}
	return s.upstream.GetCrateDocumentation(ctx, name, version, path)
}

// successResult wraps a normalized record into a tool result with one
// pretty-printed JSON text block
func successResult(v interface{}) (ToolCallResponse, error) {
	text, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ToolCallResponse{}, fmt.Errorf("error encoding tool result: %w", err)
	}
	return ToolCallResponse{
		Content: []Content{NewTextContent(string(text), []Role{RoleAssistant}, nil)},
	}, nil
}

// failureResult wraps any tool failure into an isError result tagged
// with its stable error kind
func failureResult(err error) ToolCallResponse {
	return ToolCallResponse{
		Content: []Content{NewTextContent(fmt.Sprintf("%s: %v", errorKind(err), err), []Role{RoleAssistant}, nil)},
		IsError: true,
	}
}

// errorKind maps an error to its stable taxonomy tag
func errorKind(err error) string {
	var upstreamErr *upstream.Error
	if errors.As(err, &upstreamErr) {
		return string(upstreamErr.Kind)
	}
	var argErr *ArgumentError
	if errors.As(err, &argErr) {
		return "invalid_arguments"
	}
	var unknownErr *UnknownToolError
	if errors.As(err, &unknownErr) {
		return "unknown_tool"
	}
	return "internal_error"
}
