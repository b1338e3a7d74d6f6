package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/brandon/mcp-mailindex/internal/cache"
	"github.com/brandon/mcp-mailindex/internal/config"
	"github.com/brandon/mcp-mailindex/internal/email"
	"github.com/brandon/mcp-mailindex/internal/tools"
	"github.com/sirupsen/logrus"
)

// Version is reported in the initialize response.
var Version = "dev"

// Server represents the MCP server
type Server struct {
	config       *config.Config
	logger       *logrus.Logger
	tools        *tools.Registry
	emailManager *email.Manager
	cacheStore   *cache.Store
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, emailManager *email.Manager, cacheStore *cache.Store, logger *logrus.Logger) (*Server, error) {
	toolRegistry, err := tools.NewRegistry(cfg, emailManager, cacheStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool registry: %w", err)
	}

	return &Server{
		config:       cfg,
		logger:       logger,
		tools:        toolRegistry,
		emailManager: emailManager,
		cacheStore:   cacheStore,
	}, nil
}

// Run starts the MCP server with stdio transport
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("Starting MCP server with stdio transport")
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve answers JSON-RPC requests read from r until EOF or ctx is done.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	decoder := json.NewDecoder(r)
	encoder := json.NewEncoder(w)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		var req map[string]interface{}
		if err := decoder.Decode(&req); err != nil {
			if err == io.EOF {
				return nil
			}
			// The decoder cannot resynchronize after malformed input.
			s.logger.WithError(err).Error("Failed to decode request")
			return fmt.Errorf("failed to decode request: %w", err)
		}

		resp := s.handleRequest(ctx, req)
		if resp == nil {
			continue
		}
		if err := encoder.Encode(resp); err != nil {
			s.logger.WithError(err).Error("Failed to encode response")
			return fmt.Errorf("failed to encode response: %w", err)
		}
	}
}

func errorResponse(id interface{}, code int, message string) map[string]interface{} {
	return map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
	}
}

func resultResponse(id interface{}, result interface{}) map[string]interface{} {
	return map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"result":  result,
	}
}

// handleRequest processes an MCP request. Notifications get no response.
func (s *Server) handleRequest(ctx context.Context, req map[string]interface{}) map[string]interface{} {
	method, _ := req["method"].(string)
	id, hasID := req["id"]

	if !hasID || strings.HasPrefix(method, "notifications/") {
		s.logger.WithField("method", method).Debug("Received notification")
		return nil
	}

	switch method {
	case "initialize":
		return resultResponse(id, map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "mcp-mailindex",
				"version": Version,
			},
		})

	case "ping":
		return resultResponse(id, map[string]interface{}{})

	case "tools/list":
		return resultResponse(id, map[string]interface{}{
			"tools": s.tools.GetToolDefinitions(),
		})

	case "tools/call":
		params, _ := req["params"].(map[string]interface{})
		toolName, _ := params["name"].(string)
		arguments, _ := params["arguments"].(map[string]interface{})
		if arguments == nil {
			arguments = map[string]interface{}{}
		}

		tool, exists := s.tools.GetTool(toolName)
		if !exists {
			return errorResponse(id, -32601, fmt.Sprintf("Tool not found: %s", toolName))
		}

		logger := s.logger.WithField("tool", toolName)
		logger.Debug("Executing tool")

		result, err := tool.Execute(ctx, arguments)
		if err != nil {
			logger.WithError(err).Warn("Tool execution failed")
			return errorResponse(id, -32603, err.Error())
		}

		// Serialize result to JSON string for text content
		resultJSON, err := json.Marshal(result)
		if err != nil {
			resultJSON = []byte(fmt.Sprintf("%v", result))
		}

		return resultResponse(id, map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": string(resultJSON),
				},
			},
		})
	}

	return errorResponse(id, -32601, fmt.Sprintf("Method not found: %s", method))
}
