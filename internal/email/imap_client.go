package email

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"io"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/jhillyerd/enmime"
	"github.com/sirupsen/logrus"

	"github.com/brandon/mcp-mailindex/internal/config"
	"github.com/brandon/mcp-mailindex/pkg/types"
)

// IMAPClient wraps a go-imap connection used for folder listing and body
// retrieval. Header sync uses imapwire instead.
type IMAPClient struct {
	config    *config.AccountConfig
	client    *client.Client
	logger    *logrus.Logger
	connected bool
}

// NewIMAPClient creates a new IMAP client (does not connect immediately)
func NewIMAPClient(cfg *config.AccountConfig) (*IMAPClient, error) {
	return &IMAPClient{
		config:    cfg,
		logger:    logrus.New(),
		connected: false,
	}, nil
}

// Connect establishes a connection to the IMAP server
func (c *IMAPClient) Connect() error {
	if c.connected && c.client != nil {
		return nil
	}

	cl, err := client.DialTLS(c.config.Addr(), &tls.Config{
		ServerName: c.config.IMAPHost,
		MinVersion: tls.VersionTLS12,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to IMAP server: %w", err)
	}

	c.client = cl

	if err := c.client.Login(c.config.IMAPUsername, c.config.IMAPPassword); err != nil {
		c.logger.WithError(err).Error("Failed to login to IMAP server")
		c.client.Logout() //nolint:errcheck
		c.client = nil
		return fmt.Errorf("failed to login to IMAP server: %w", err)
	}

	c.connected = true
	c.logger.WithField("account", c.config.Name).Info("Connected to IMAP server")
	return nil
}

// Close closes the IMAP connection
func (c *IMAPClient) Close() error {
	if c.client != nil {
		if err := c.client.Logout(); err != nil {
			return err
		}
		c.client = nil
		c.connected = false
	}
	return nil
}

// ListFolders lists all selectable mailboxes
func (c *IMAPClient) ListFolders() ([]types.Folder, error) {
	if err := c.Connect(); err != nil {
		return nil, err
	}

	mailboxes := make(chan *imap.MailboxInfo, 10)
	done := make(chan error, 1)

	go func() {
		done <- c.client.List("", "*", mailboxes)
	}()

	var folders []types.Folder
	for m := range mailboxes {
		if hasAttr(m.Attributes, imap.NoSelectAttr) {
			continue
		}
		folders = append(folders, types.Folder{
			Name: m.Name,
			Path: m.Name,
		})
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}

	return folders, nil
}

func hasAttr(attrs []string, attr string) bool {
	for _, a := range attrs {
		if a == attr {
			return true
		}
	}
	return false
}

// FetchBody fetches the full message by UID and extracts its text and HTML
// parts with enmime.
func (c *IMAPClient) FetchBody(folderName string, uid uint32) (string, string, error) {
	if err := c.Connect(); err != nil {
		return "", "", err
	}

	if _, err := c.client.Select(folderName, true); err != nil {
		return "", "", fmt.Errorf("failed to select folder: %w", err)
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)
	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{section.FetchItem()}

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)

	go func() {
		done <- c.client.UidFetch(seqSet, items, messages)
	}()

	var raw []byte
	for msg := range messages {
		literal := msg.GetBody(section)
		if literal == nil {
			continue
		}
		b, err := io.ReadAll(literal)
		if err != nil {
			c.logger.WithError(err).Error("Error reading literal")
			continue
		}
		raw = b
	}

	if err := <-done; err != nil {
		return "", "", fmt.Errorf("failed to fetch message: %w", err)
	}
	if raw == nil {
		return "", "", fmt.Errorf("message %d not found in %s", uid, folderName)
	}

	return extractBody(raw, c.logger)
}

// extractBody parses a raw RFC 5322 message, falling back to the raw text
// when it is not valid MIME.
func extractBody(raw []byte, logger logrus.FieldLogger) (string, string, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		logger.WithError(err).Debug("Failed to parse with enmime, using raw body")
		return string(raw), "", nil
	}
	logger.WithFields(logrus.Fields{
		"text_len": len(env.Text),
		"html_len": len(env.HTML),
	}).Debug("Parsed body with enmime")
	return env.Text, env.HTML, nil
}

// SetLogger sets the logger for the client
func (c *IMAPClient) SetLogger(logger *logrus.Logger) {
	c.logger = logger
}
