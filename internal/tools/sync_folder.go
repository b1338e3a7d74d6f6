package tools

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/brandon/mcp-mailindex/internal/cache"
	"github.com/brandon/mcp-mailindex/internal/config"
	"github.com/brandon/mcp-mailindex/internal/email"
)

// SyncFolderTool indexes recent message headers from IMAP
type SyncFolderTool struct {
	config       *config.Config
	emailManager *email.Manager
	cacheStore   *cache.Store
	logger       *logrus.Logger
}

// NewSyncFolderTool creates a new sync folder tool
func NewSyncFolderTool(cfg *config.Config, emailManager *email.Manager, cacheStore *cache.Store, logger *logrus.Logger) *SyncFolderTool {
	return &SyncFolderTool{
		config:       cfg,
		emailManager: emailManager,
		cacheStore:   cacheStore,
		logger:       logger,
	}
}

// Name returns the tool name
func (t *SyncFolderTool) Name() string {
	return "sync_folder"
}

// Description returns the tool description
func (t *SyncFolderTool) Description() string {
	return "Fetch and index the most recent message headers of a folder, or of every folder of an account"
}

// InputSchema returns the JSON schema for tool inputs
func (t *SyncFolderTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"account_name": map[string]interface{}{
				"type":        "string",
				"description": "Optional: Account to sync (default account if omitted)",
			},
			"folder": map[string]interface{}{
				"type":        "string",
				"description": "Optional: Folder/mailbox path, or every folder if omitted",
			},
		},
	}
}

// Execute executes the tool
func (t *SyncFolderTool) Execute(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	accountName := stringParam(params, "account_name")
	if accountName == "" {
		acc := t.config.GetDefaultAccount()
		if acc == nil {
			return nil, fmt.Errorf("no accounts configured")
		}
		accountName = acc.Name
	}

	results, err := t.emailManager.SyncAccount(ctx, accountName, stringParam(params, "folder"))
	if err != nil {
		return nil, fmt.Errorf("failed to sync: %w", err)
	}
	return results, nil
}
