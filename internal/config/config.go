package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the application configuration
type Config struct {
	// Cache settings
	CachePath         string
	SearchResultLimit int
	LogLevel          string

	// Sync settings
	SyncWindow int

	// Accounts
	Accounts []AccountConfig
}

// AccountConfig holds configuration for a single IMAP account
type AccountConfig struct {
	Name string

	IMAPHost     string
	IMAPPort     int
	IMAPUsername string
	IMAPPassword string
}

// Addr returns the host:port of the IMAP server
func (a *AccountConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.IMAPHost, a.IMAPPort)
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		CachePath:         getEnv("CACHE_PATH", "/data/mailindex.db"),
		SearchResultLimit: getEnvInt("SEARCH_RESULT_LIMIT", 100),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		SyncWindow:        getEnvInt("SYNC_WINDOW", 100),
	}

	accounts, err := loadAccounts()
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}

	cfg.Accounts = accounts
	return cfg, nil
}

// loadAccounts loads account configurations from environment variables
func loadAccounts() ([]AccountConfig, error) {
	// Single account configuration takes precedence
	if getEnv("IMAP_HOST", "") != "" {
		account, err := loadAccount("")
		if err != nil {
			return nil, err
		}
		if account.Name == "" {
			account.Name = "default"
		}
		return []AccountConfig{*account}, nil
	}

	// Load multiple accounts (ACCOUNT_1_*, ACCOUNT_2_*, etc.)
	var accounts []AccountConfig
	for num := 1; ; num++ {
		prefix := fmt.Sprintf("ACCOUNT_%d_", num)
		if getEnv(prefix+"NAME", "") == "" {
			break
		}
		account, err := loadAccount(prefix)
		if err != nil {
			return nil, fmt.Errorf("account %d: %w", num, err)
		}
		accounts = append(accounts, *account)
	}

	if len(accounts) == 0 {
		return nil, fmt.Errorf("no accounts found in environment variables")
	}

	return accounts, nil
}

// loadAccount loads one account from variables with the given prefix.
// The empty prefix is the single account form.
func loadAccount(prefix string) (*AccountConfig, error) {
	nameKey := prefix + "NAME"
	if prefix == "" {
		nameKey = "ACCOUNT_NAME"
	}

	acc := &AccountConfig{
		Name:         getEnv(nameKey, ""),
		IMAPHost:     getEnv(prefix+"IMAP_HOST", ""),
		IMAPPort:     getEnvInt(prefix+"IMAP_PORT", 993),
		IMAPUsername: getEnv(prefix+"IMAP_USERNAME", ""),
		IMAPPassword: getEnv(prefix+"IMAP_PASSWORD", ""),
	}

	if acc.IMAPHost == "" {
		return nil, fmt.Errorf("IMAP_HOST is required")
	}
	if acc.IMAPUsername == "" {
		return nil, fmt.Errorf("IMAP_USERNAME is required")
	}
	if acc.IMAPPassword == "" {
		return nil, fmt.Errorf("IMAP_PASSWORD is required")
	}

	return acc, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as an integer or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetAccountByName finds an account by name
func (c *Config) GetAccountByName(name string) (*AccountConfig, error) {
	for i := range c.Accounts {
		if c.Accounts[i].Name == name {
			return &c.Accounts[i], nil
		}
	}
	return nil, fmt.Errorf("account not found: %s", name)
}

// GetDefaultAccount returns the account named "default", or the first one
func (c *Config) GetDefaultAccount() *AccountConfig {
	if len(c.Accounts) == 0 {
		return nil
	}
	for i := range c.Accounts {
		if c.Accounts[i].Name == "default" {
			return &c.Accounts[i]
		}
	}
	return &c.Accounts[0]
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.CachePath == "" {
		return fmt.Errorf("CACHE_PATH is required")
	}

	if c.SearchResultLimit < 1 || c.SearchResultLimit > 1000 {
		return fmt.Errorf("SEARCH_RESULT_LIMIT must be between 1 and 1000")
	}

	if c.SyncWindow < 1 || c.SyncWindow > 10000 {
		return fmt.Errorf("SYNC_WINDOW must be between 1 and 10000")
	}

	if len(c.Accounts) == 0 {
		return fmt.Errorf("at least one account must be configured")
	}

	seen := make(map[string]bool)
	for i := range c.Accounts {
		acc := &c.Accounts[i]
		if seen[acc.Name] {
			return fmt.Errorf("account %s: duplicate name", acc.Name)
		}
		seen[acc.Name] = true
		if acc.IMAPHost == "" {
			return fmt.Errorf("account %s: IMAP_HOST is required", acc.Name)
		}
		if acc.IMAPPort < 1 || acc.IMAPPort > 65535 {
			return fmt.Errorf("account %s: invalid IMAP_PORT", acc.Name)
		}
	}

	return nil
}

// AccountNames returns a list of all account names
func (c *Config) AccountNames() []string {
	names := make([]string, len(c.Accounts))
	for i := range c.Accounts {
		names[i] = c.Accounts[i].Name
	}
	return names
}
