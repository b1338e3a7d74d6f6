package tools

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/brandon/mcp-mailindex/internal/email"
	"github.com/brandon/mcp-mailindex/internal/fetchparse"
)

// ParseFetchTool decodes a raw FETCH response without touching the index
type ParseFetchTool struct {
	parser *fetchparse.Parser
	logger *logrus.Logger
}

// NewParseFetchTool creates a new parse fetch tool
func NewParseFetchTool(emailManager *email.Manager, logger *logrus.Logger) *ParseFetchTool {
	return &ParseFetchTool{parser: emailManager.Parser(), logger: logger}
}

// Name returns the tool name
func (t *ParseFetchTool) Name() string {
	return "parse_fetch"
}

// Description returns the tool description
func (t *ParseFetchTool) Description() string {
	return "Parse one raw IMAP \"* n FETCH (...)\" response into a structured entry"
}

// InputSchema returns the JSON schema for tool inputs
func (t *ParseFetchTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"response": map[string]interface{}{
				"type":        "string",
				"description": "The complete response, including any {n} literals",
			},
		},
		"required": []string{"response"},
	}
}

// Execute executes the tool
func (t *ParseFetchTool) Execute(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	unit, ok := params["response"].(string)
	if !ok {
		return nil, fmt.Errorf("response is required")
	}
	entry, err := t.parser.Parse(unit)
	if err != nil {
		return nil, fmt.Errorf("failed to parse FETCH response: %w", err)
	}
	return entry, nil
}
