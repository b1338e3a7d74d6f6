package email

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/brandon/mcp-mailindex/internal/cache"
	"github.com/brandon/mcp-mailindex/internal/config"
	"github.com/brandon/mcp-mailindex/internal/fetchparse"
	"github.com/brandon/mcp-mailindex/internal/imapwire"
	"github.com/brandon/mcp-mailindex/pkg/types"
)

// FetchItems are the data items requested for every indexed message.
const FetchItems = "(UID RFC822.SIZE INTERNALDATE FLAGS ENVELOPE BODY.PEEK[HEADER.FIELDS (REFERENCES)])"

// headerConn is the part of imapwire.Conn used by sync.
type headerConn interface {
	Select(mailbox string) (uint32, error)
	Fetch(seqset, items string, fn func(unit string)) error
	Logout() error
	Close() error
}

// Manager manages email operations
type Manager struct {
	accountManager *AccountManager
	store          *cache.Store
	config         *config.Config
	logger         *logrus.Logger
	parser         *fetchparse.Parser
	dial           func(ctx context.Context, acc *config.AccountConfig) (headerConn, error)
}

// NewManager creates a new email manager
func NewManager(cfg *config.Config, cacheStore *cache.Store, logger *logrus.Logger) (*Manager, error) {
	accountManager, err := NewAccountManager(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create account manager: %w", err)
	}

	for _, account := range accountManager.accounts {
		account.IMAP.SetLogger(logger)
	}

	m := &Manager{
		accountManager: accountManager,
		store:          cacheStore,
		config:         cfg,
		logger:         logger,
		parser:         fetchparse.New(logger),
	}
	m.dial = m.dialHeaders
	return m, nil
}

// dialHeaders opens an authenticated imapwire connection for acc.
func (m *Manager) dialHeaders(ctx context.Context, acc *config.AccountConfig) (headerConn, error) {
	conn, err := imapwire.Dial(ctx, acc.Addr(), &tls.Config{
		ServerName: acc.IMAPHost,
		MinVersion: tls.VersionTLS12,
	}, m.logger.WithField("account", acc.Name))
	if err != nil {
		return nil, err
	}
	if err := conn.Authenticate(acc.IMAPUsername, acc.IMAPPassword); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}
	return conn, nil
}

// SyncAccount fetches and indexes message headers for one folder, or every
// folder when folderName is empty.
func (m *Manager) SyncAccount(ctx context.Context, accountName string, folderName string) ([]types.SyncResult, error) {
	account, err := m.accountManager.GetAccount(accountName)
	if err != nil {
		return nil, err
	}

	accountID, err := m.store.UpsertAccount(account.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to create account in cache: %w", err)
	}

	folders := []string{folderName}
	if folderName == "" {
		list, err := account.IMAP.ListFolders()
		if err != nil {
			return nil, fmt.Errorf("failed to list folders: %w", err)
		}
		folders = folders[:0]
		for _, f := range list {
			folders = append(folders, f.Path)
		}
	}

	conn, err := m.dial(ctx, account.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	defer func() {
		if err := conn.Logout(); err != nil {
			m.logger.WithError(err).Debug("Logout failed")
		}
		conn.Close()
	}()

	var results []types.SyncResult
	for _, folder := range folders {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		result, err := m.syncFolder(conn, account.Config.Name, accountID, folder)
		if err != nil {
			if folderName != "" {
				return nil, fmt.Errorf("failed to sync folder: %w", err)
			}
			m.logger.WithError(err).WithField("folder", folder).Warn("Failed to sync folder")
			continue
		}
		results = append(results, *result)
	}

	return results, nil
}

// syncFolder indexes the most recent SyncWindow messages of a folder.
// Responses that fail to parse are skipped.
func (m *Manager) syncFolder(conn headerConn, accountName string, accountID int, folderName string) (*types.SyncResult, error) {
	exists, err := conn.Select(folderName)
	if err != nil {
		return nil, fmt.Errorf("failed to select folder: %w", err)
	}

	folderID, err := m.store.UpsertFolder(accountID, folderName, folderName, int(exists))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert folder: %w", err)
	}

	result := &types.SyncResult{AccountName: accountName, FolderPath: folderName}
	if exists == 0 {
		return result, nil
	}

	start := uint32(1)
	if window := uint32(m.config.SyncWindow); exists > window {
		start = exists - window + 1
	}

	err = conn.Fetch(fmt.Sprintf("%d:%d", start, exists), FetchItems, func(unit string) {
		result.Fetched++
		entry, err := m.parser.Parse(unit)
		if err != nil {
			result.Skipped++
			return
		}
		if err := m.store.UpsertEntry(accountID, folderID, entry); err != nil {
			m.logger.WithError(err).WithField("uid", entry.UID).Warn("Failed to cache email")
			result.Skipped++
			return
		}
		result.Stored++
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	m.logger.WithFields(logrus.Fields{
		"account": accountName,
		"folder":  folderName,
		"fetched": result.Fetched,
		"stored":  result.Stored,
		"skipped": result.Skipped,
	}).Info("Synced folder")

	return result, nil
}

// LoadBody fetches the body of a cached message from IMAP and stores it.
func (m *Manager) LoadBody(email *types.Email) error {
	account, err := m.accountManager.GetAccount(email.AccountName)
	if err != nil {
		return err
	}
	text, html, err := account.IMAP.FetchBody(email.FolderPath, email.UID)
	if err != nil {
		return err
	}
	email.BodyText, email.BodyHTML = text, html
	return m.store.SetBody(email.ID, text, html)
}

// Parser returns the FETCH response parser used for sync.
func (m *Manager) Parser() *fetchparse.Parser {
	return m.parser
}

// Close closes all connections
func (m *Manager) Close() error {
	return m.accountManager.Close()
}

// GetAccount returns an account by name
func (m *Manager) GetAccount(name string) (*Account, error) {
	return m.accountManager.GetAccount(name)
}

// ListAccounts returns the configured account names
func (m *Manager) ListAccounts() []string {
	return m.accountManager.ListAccounts()
}
