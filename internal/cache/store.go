package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/brandon/mcp-mailindex/internal/config"
	"github.com/brandon/mcp-mailindex/internal/fetchparse"
	"github.com/brandon/mcp-mailindex/pkg/types"
)

// Dates are stored as RFC 3339 text in UTC so they sort and compare as strings.
const dateLayout = time.RFC3339

func formatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

func parseDate(s string) time.Time {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Store provides methods for storing and retrieving data from the cache
type Store struct {
	cache  *Cache
	logger *logrus.Logger
}

// NewStore creates a new store instance
func NewStore(cache *Cache, logger *logrus.Logger) *Store {
	return &Store{
		cache:  cache,
		logger: logger,
	}
}

// UpsertAccount upserts an account in the cache and returns its ID
func (s *Store) UpsertAccount(acc *config.AccountConfig) (int, error) {
	query := `
		INSERT INTO accounts (name, imap_host, imap_port, imap_username, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET
			imap_host = excluded.imap_host,
			imap_port = excluded.imap_port,
			imap_username = excluded.imap_username,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id
	`
	var id int
	if err := s.cache.DB().QueryRow(query, acc.Name, acc.IMAPHost, acc.IMAPPort, acc.IMAPUsername).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to upsert account: %w", err)
	}
	return id, nil
}

// GetAccountID returns the account ID by name
func (s *Store) GetAccountID(name string) (int, error) {
	var id int
	err := s.cache.DB().QueryRow("SELECT id FROM accounts WHERE name = ?", name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("account not found: %s", name)
	}
	return id, nil
}

// UpsertFolder upserts a folder in the cache and returns its ID
func (s *Store) UpsertFolder(accountID int, name, path string, messageCount int) (int, error) {
	query := `
		INSERT INTO folders (account_id, name, path, message_count, last_synced)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(account_id, path) DO UPDATE SET
			name = excluded.name,
			message_count = excluded.message_count,
			last_synced = excluded.last_synced
		RETURNING id
	`
	var id int
	err := s.cache.DB().QueryRow(query, accountID, name, path, messageCount, formatDate(time.Now())).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert folder: %w", err)
	}
	return id, nil
}

// GetFolderID returns the folder ID by account and path
func (s *Store) GetFolderID(accountID int, path string) (int, error) {
	var id int
	err := s.cache.DB().QueryRow("SELECT id FROM folders WHERE account_id = ? AND path = ?", accountID, path).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("folder not found: %s", path)
	}
	return id, nil
}

func toAddresses(l []fetchparse.Address) []types.Address {
	out := make([]types.Address, len(l))
	for i, a := range l {
		out[i] = types.Address{Name: a.Personal, Address: a.Address()}
	}
	return out
}

func joinAddresses(lists ...[]types.Address) string {
	var parts []string
	for _, l := range lists {
		for _, a := range l {
			parts = append(parts, a.Address)
		}
	}
	return strings.Join(parts, ", ")
}

// UpsertEntry stores a decoded FETCH response for a folder
func (s *Store) UpsertEntry(accountID, folderID int, e *fetchparse.Entry) error {
	from := toAddresses(e.From)
	to := toAddresses(e.To)
	cc := toAddresses(e.Cc)
	var senderName, senderEmail string
	if len(from) > 0 {
		senderName, senderEmail = from[0].Name, from[0].Address
	}

	var jsonErr error
	marshal := func(v interface{}) string {
		b, err := json.Marshal(v)
		if err != nil && jsonErr == nil {
			jsonErr = err
		}
		return string(b)
	}
	references := e.References
	if references == nil {
		references = []string{}
	}
	refs := marshal(references)
	fromJSON := marshal(from)
	replyTo := marshal(toAddresses(e.ReplyTo))
	toJSON := marshal(to)
	ccJSON := marshal(cc)
	if jsonErr != nil {
		return fmt.Errorf("failed to marshal addresses: %w", jsonErr)
	}

	query := `
		INSERT INTO messages (account_id, folder_id, uid, size, message_id, in_reply_to, refs, subject,
			sender_name, sender_email, from_addrs, reply_to, to_addrs, cc_addrs, recipients,
			date, arrival, flags, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(account_id, folder_id, uid) DO UPDATE SET
			size = excluded.size,
			message_id = excluded.message_id,
			in_reply_to = excluded.in_reply_to,
			refs = excluded.refs,
			subject = excluded.subject,
			sender_name = excluded.sender_name,
			sender_email = excluded.sender_email,
			from_addrs = excluded.from_addrs,
			reply_to = excluded.reply_to,
			to_addrs = excluded.to_addrs,
			cc_addrs = excluded.cc_addrs,
			recipients = excluded.recipients,
			date = excluded.date,
			arrival = excluded.arrival,
			flags = excluded.flags,
			cached_at = excluded.cached_at
	`
	_, err := s.cache.DB().Exec(query,
		accountID,
		folderID,
		e.UID,
		e.Size,
		e.MessageID,
		e.InReplyTo,
		refs,
		e.Subject,
		senderName,
		senderEmail,
		fromJSON,
		replyTo,
		toJSON,
		ccJSON,
		joinAddresses(to, cc),
		formatDate(e.SentDate),
		formatDate(e.Arrival),
		int(e.Flags),
		formatDate(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert message: %w", err)
	}
	return nil
}

// SetBody stores the extracted body of a cached message
func (s *Store) SetBody(emailID int64, text, html string) error {
	_, err := s.cache.DB().Exec("UPDATE messages SET body_text = ?, body_html = ? WHERE id = ?", text, html, emailID)
	if err != nil {
		return fmt.Errorf("failed to store body: %w", err)
	}
	return nil
}

// GetEmail retrieves a message by ID
func (s *Store) GetEmail(emailID int64) (*types.Email, error) {
	query := `
		SELECT m.id, m.account_id, a.name, m.folder_id, f.path, m.uid, m.size, m.message_id, m.in_reply_to, m.refs,
			m.subject, m.sender_name, m.sender_email, m.from_addrs, m.reply_to, m.to_addrs, m.cc_addrs,
			m.date, m.arrival, m.flags, m.body_text, m.body_html, m.cached_at
		FROM messages m
		JOIN accounts a ON m.account_id = a.id
		JOIN folders f ON m.folder_id = f.id
		WHERE m.id = ?
	`
	var email types.Email
	var refs, from, replyTo, to, cc string
	var date, arrival, cachedAt string
	var flags int

	err := s.cache.DB().QueryRow(query, emailID).Scan(
		&email.ID,
		&email.AccountID,
		&email.AccountName,
		&email.FolderID,
		&email.FolderPath,
		&email.UID,
		&email.Size,
		&email.MessageID,
		&email.InReplyTo,
		&refs,
		&email.Subject,
		&email.SenderName,
		&email.SenderEmail,
		&from,
		&replyTo,
		&to,
		&cc,
		&date,
		&arrival,
		&flags,
		&email.BodyText,
		&email.BodyHTML,
		&cachedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("email not found: %d", emailID)
		}
		return nil, fmt.Errorf("failed to get email: %w", err)
	}

	email.Date = parseDate(date)
	email.Arrival = parseDate(arrival)
	email.CachedAt = parseDate(cachedAt)
	email.FlagBits = uint8(flags)
	email.Flags = fetchparse.Flags(flags).Names()

	for _, f := range []struct {
		name string
		src  string
		dst  interface{}
	}{
		{"references", refs, &email.References},
		{"from", from, &email.From},
		{"reply-to", replyTo, &email.ReplyTo},
		{"to", to, &email.To},
		{"cc", cc, &email.Cc},
	} {
		if err := json.Unmarshal([]byte(f.src), f.dst); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", f.name, err)
		}
	}

	return &email, nil
}

// ListFolders lists folders for an account
func (s *Store) ListFolders(accountID *int) ([]types.Folder, error) {
	var query string
	var args []interface{}

	if accountID != nil {
		query = `
			SELECT f.id, f.account_id, a.name, f.name, f.path, f.message_count, f.last_synced
			FROM folders f
			JOIN accounts a ON f.account_id = a.id
			WHERE f.account_id = ?
			ORDER BY f.path
		`
		args = []interface{}{*accountID}
	} else {
		query = `
			SELECT f.id, f.account_id, a.name, f.name, f.path, f.message_count, f.last_synced
			FROM folders f
			JOIN accounts a ON f.account_id = a.id
			ORDER BY a.name, f.path
		`
	}

	rows, err := s.cache.DB().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query folders: %w", err)
	}
	defer rows.Close()

	var folders []types.Folder
	for rows.Next() {
		var folder types.Folder
		var lastSynced sql.NullString

		err := rows.Scan(
			&folder.ID,
			&folder.AccountID,
			&folder.AccountName,
			&folder.Name,
			&folder.Path,
			&folder.MessageCount,
			&lastSynced,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan folder: %w", err)
		}

		if lastSynced.Valid {
			if t := parseDate(lastSynced.String); !t.IsZero() {
				folder.LastSynced = &t
			}
		}

		folders = append(folders, folder)
	}

	return folders, rows.Err()
}

// HasEmails checks if an account has any cached messages
func (s *Store) HasEmails(accountID int) (bool, error) {
	var count int
	err := s.cache.DB().QueryRow("SELECT COUNT(*) FROM messages WHERE account_id = ?", accountID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check emails count: %w", err)
	}
	return count > 0, nil
}
