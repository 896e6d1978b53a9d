package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/ajith-kumar99/voicedesk/pkg/tool"
	"github.com/ajith-kumar99/voicedesk/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/genai"
)

const (
	serverName    = "voicedesk"
	serverVersion = "0.1.0"
)

// Server exposes the enabled operations of a tool registry as MCP tools.
// One server holds one session, so it must be connected to a single host.
type Server struct {
	registry *tool.Registry
	server   *mcp.Server
	logger   *slog.Logger
}

type Option func(*Server)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer registers every enabled function of registry. The registry
// must already be initialized.
func NewServer(registry *tool.Registry, opts ...Option) (*Server, error) {
	s := &Server{
		registry: registry,
		logger:   logging.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    serverName,
		Version: serverVersion,
	}, nil)

	for _, name := range registry.EnabledTools() {
		fd := registry.Declaration(name)
		schema, err := inputSchema(fd)
		if err != nil {
			return nil, err
		}

		s.server.AddTool(&mcp.Tool{
			Name:        fd.Name,
			Description: fd.Description,
			InputSchema: schema,
		}, s.handler(fd.Name))
	}

	return s, nil
}

// Run serves MCP over stdin and stdout until the host disconnects
func (s *Server) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "MCP server started", "tools", s.registry.EnabledTools())
	if err := s.server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return goerr.Wrap(err, "MCP server failed")
	}
	return nil
}

// Connect serves MCP over the given transport and returns once the
// session is established
func (s *Server) Connect(ctx context.Context, transport mcp.Transport) (*mcp.ServerSession, error) {
	session, err := s.server.Connect(ctx, transport, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to connect MCP session")
	}
	return session, nil
}

func (s *Server) handler(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args map[string]any
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				s.logger.WarnContext(ctx, "invalid tool arguments", "tool", name, "error", err)
				return errorResult("The arguments could not be read."), nil
			}
		}

		resp, err := s.registry.Execute(ctx, genai.FunctionCall{Name: name, Args: args})
		if err != nil {
			s.logger.ErrorContext(ctx, "tool call failed", "tool", name, "error", err)
			if errors.Is(err, tool.ErrToolNotFound) {
				return errorResult("Unknown operation."), nil
			}
			return errorResult("The operation failed."), nil
		}

		raw, err := json.Marshal(resp.Response)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to marshal tool response", goerr.V("tool", name))
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(raw)}},
		}, nil
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
		IsError: true,
	}
}
