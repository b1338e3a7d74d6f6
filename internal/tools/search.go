package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/brandon/mcp-mailindex/internal/cache"
	"github.com/brandon/mcp-mailindex/internal/config"
	"github.com/brandon/mcp-mailindex/internal/email"
)

// SearchEmailsTool searches cached emails
type SearchEmailsTool struct {
	config       *config.Config
	emailManager *email.Manager
	cacheStore   *cache.Store
	logger       *logrus.Logger
}

// NewSearchEmailsTool creates a new search emails tool
func NewSearchEmailsTool(cfg *config.Config, emailManager *email.Manager, cacheStore *cache.Store, logger *logrus.Logger) *SearchEmailsTool {
	return &SearchEmailsTool{
		config:       cfg,
		emailManager: emailManager,
		cacheStore:   cacheStore,
		logger:       logger,
	}
}

// Name returns the tool name
func (t *SearchEmailsTool) Name() string {
	return "search_emails"
}

// Description returns the tool description
func (t *SearchEmailsTool) Description() string {
	return "Search indexed emails with flexible filters (sender, recipient, subject, text, date range, flags)"
}

// InputSchema returns the JSON schema for tool inputs
func (t *SearchEmailsTool) InputSchema() map[string]interface{} {
	str := func(desc string) map[string]interface{} {
		return map[string]interface{}{"type": "string", "description": desc}
	}
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"account_name": str("Optional: Filter by specific account"),
			"folder":       str("Optional: Filter by folder/mailbox path (requires account_name)"),
			"sender":       str("Optional: Filter by sender email/name"),
			"recipient":    str("Optional: Filter by To/Cc address"),
			"subject":      str("Optional: Filter by subject (substring match)"),
			"text":         str("Optional: Full-text search over subject, addresses and fetched bodies"),
			"date_from":    str("Optional: Start of sent date range (RFC 3339)"),
			"date_to":      str("Optional: End of sent date range (RFC 3339)"),
			"unseen": map[string]interface{}{
				"type":        "boolean",
				"description": "Optional: Only messages without the \\Seen flag",
			},
			"flagged": map[string]interface{}{
				"type":        "boolean",
				"description": "Optional: Only messages with the \\Flagged flag",
			},
			"limit": map[string]interface{}{
				"type":        "integer",
				"description": "Optional: Result limit (default: SEARCH_RESULT_LIMIT, max: 1000)",
				"minimum":     1,
				"maximum":     1000,
			},
		},
	}
}

// Execute executes the tool
func (t *SearchEmailsTool) Execute(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	opts := cache.SearchOptions{
		Unseen:  boolParam(params, "unseen"),
		Flagged: boolParam(params, "flagged"),
	}

	accountName := stringParam(params, "account_name")
	if accountName != "" {
		accountID, err := t.cacheStore.GetAccountID(accountName)
		if err != nil {
			return nil, fmt.Errorf("account not found: %s", accountName)
		}
		opts.AccountID = &accountID

		if has, err := t.cacheStore.HasEmails(accountID); err == nil && !has {
			t.logger.WithField("account", accountName).Info("No cached emails, syncing account")
			if _, err := t.emailManager.SyncAccount(ctx, accountName, ""); err != nil {
				t.logger.WithError(err).Warn("Sync before search failed")
			}
		}
	}

	if folder := stringParam(params, "folder"); folder != "" {
		if opts.AccountID == nil {
			return nil, fmt.Errorf("folder filter requires account_name")
		}
		folderID, err := t.cacheStore.GetFolderID(*opts.AccountID, folder)
		if err != nil {
			return nil, err
		}
		opts.FolderID = &folderID
	}

	for name, dst := range map[string]**string{
		"sender":    &opts.Sender,
		"recipient": &opts.Recipient,
		"subject":   &opts.Subject,
		"text":      &opts.Text,
	} {
		if v := stringParam(params, name); v != "" {
			*dst = &v
		}
	}

	for name, dst := range map[string]**time.Time{
		"date_from": &opts.DateFrom,
		"date_to":   &opts.DateTo,
	} {
		if v := stringParam(params, name); v != "" {
			d, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return nil, fmt.Errorf("invalid %s format: %w", name, err)
			}
			*dst = &d
		}
	}

	limit, ok, err := int64Param(params, "limit")
	if err != nil {
		return nil, err
	}
	opts.Limit = t.config.SearchResultLimit
	if ok {
		opts.Limit = int(limit)
	}

	results, err := t.cacheStore.Search(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search emails: %w", err)
	}

	return results, nil
}
