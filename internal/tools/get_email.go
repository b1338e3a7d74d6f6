package tools

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/brandon/mcp-mailindex/internal/cache"
	"github.com/brandon/mcp-mailindex/internal/config"
	"github.com/brandon/mcp-mailindex/internal/email"
)

// GetEmailTool retrieves an indexed email by ID
type GetEmailTool struct {
	config       *config.Config
	emailManager *email.Manager
	cacheStore   *cache.Store
	logger       *logrus.Logger
}

// NewGetEmailTool creates a new get email tool
func NewGetEmailTool(cfg *config.Config, emailManager *email.Manager, cacheStore *cache.Store, logger *logrus.Logger) *GetEmailTool {
	return &GetEmailTool{
		config:       cfg,
		emailManager: emailManager,
		cacheStore:   cacheStore,
		logger:       logger,
	}
}

// Name returns the tool name
func (t *GetEmailTool) Name() string {
	return "get_email"
}

// Description returns the tool description
func (t *GetEmailTool) Description() string {
	return "Retrieve an indexed email by ID, optionally fetching its body from IMAP"
}

// InputSchema returns the JSON schema for tool inputs
func (t *GetEmailTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"email_id": map[string]interface{}{
				"type":        "integer",
				"description": "Email ID (from search results)",
			},
			"include_body": map[string]interface{}{
				"type":        "boolean",
				"description": "Optional: Fetch the message body from IMAP when it is not cached",
			},
		},
		"required": []string{"email_id"},
	}
}

// Execute executes the tool
func (t *GetEmailTool) Execute(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	emailID, ok, err := int64Param(params, "email_id")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("email_id is required")
	}

	cachedEmail, err := t.cacheStore.GetEmail(emailID)
	if err != nil {
		return nil, fmt.Errorf("failed to get email: %w", err)
	}

	if boolParam(params, "include_body") && cachedEmail.BodyText == "" && cachedEmail.BodyHTML == "" {
		t.logger.WithField("email_id", emailID).Info("Email body not cached, fetching from IMAP")
		if err := t.emailManager.LoadBody(cachedEmail); err != nil {
			t.logger.WithError(err).Warn("Could not fetch email body from IMAP")
		}
	}

	return cachedEmail, nil
}
