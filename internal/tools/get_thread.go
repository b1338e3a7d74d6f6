package tools

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/brandon/mcp-mailindex/internal/cache"
)

// GetThreadTool lists the indexed messages of a conversation
type GetThreadTool struct {
	cacheStore *cache.Store
	logger     *logrus.Logger
}

// NewGetThreadTool creates a new get thread tool
func NewGetThreadTool(cacheStore *cache.Store, logger *logrus.Logger) *GetThreadTool {
	return &GetThreadTool{cacheStore: cacheStore, logger: logger}
}

// Name returns the tool name
func (t *GetThreadTool) Name() string {
	return "get_thread"
}

// Description returns the tool description
func (t *GetThreadTool) Description() string {
	return "List indexed messages linked to an email through Message-ID, In-Reply-To and References"
}

// InputSchema returns the JSON schema for tool inputs
func (t *GetThreadTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"email_id": map[string]interface{}{
				"type":        "integer",
				"description": "Email ID of any message in the thread",
			},
		},
		"required": []string{"email_id"},
	}
}

// Execute executes the tool
func (t *GetThreadTool) Execute(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	emailID, ok, err := int64Param(params, "email_id")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("email_id is required")
	}

	thread, err := t.cacheStore.Thread(emailID)
	if err != nil {
		return nil, fmt.Errorf("failed to get thread: %w", err)
	}
	return thread, nil
}
