package email

import (
	"fmt"
	"sort"

	"github.com/brandon/mcp-mailindex/internal/config"
)

// AccountManager manages multiple email accounts
type AccountManager struct {
	accounts map[string]*Account
}

// Account represents an email account and its IMAP client
type Account struct {
	Config *config.AccountConfig
	IMAP   *IMAPClient
}

// NewAccountManager creates a new account manager
func NewAccountManager(cfg *config.Config) (*AccountManager, error) {
	manager := &AccountManager{
		accounts: make(map[string]*Account),
	}

	for i := range cfg.Accounts {
		accCfg := &cfg.Accounts[i]

		imapClient, err := NewIMAPClient(accCfg)
		if err != nil {
			return nil, err
		}

		manager.accounts[accCfg.Name] = &Account{
			Config: accCfg,
			IMAP:   imapClient,
		}
	}

	return manager, nil
}

// GetAccount returns an account by name
func (m *AccountManager) GetAccount(name string) (*Account, error) {
	account, exists := m.accounts[name]
	if !exists {
		return nil, fmt.Errorf("account not found: %s", name)
	}
	return account, nil
}

// ListAccounts returns all account names, sorted
func (m *AccountManager) ListAccounts() []string {
	names := make([]string, 0, len(m.accounts))
	for name := range m.accounts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close closes all account connections
func (m *AccountManager) Close() error {
	for _, account := range m.accounts {
		if account.IMAP != nil {
			account.IMAP.Close()
		}
	}
	return nil
}
