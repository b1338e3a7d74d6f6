package cache

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/brandon/mcp-mailindex/internal/fetchparse"
	"github.com/brandon/mcp-mailindex/pkg/types"
)

// SearchOptions contains search parameters
type SearchOptions struct {
	AccountID *int
	FolderID  *int
	Sender    *string
	Recipient *string
	Subject   *string
	Text      *string
	DateFrom  *time.Time
	DateTo    *time.Time
	Unseen    bool
	Flagged   bool
	Limit     int
}

const summaryColumns = `m.id, a.name, f.path, m.uid, m.subject, m.sender_name, m.sender_email, m.date, m.flags`

// Search performs a search on cached messages
func (s *Store) Search(opts SearchOptions) ([]types.EmailSummary, error) {
	var conditions []string
	var args []interface{}

	if opts.AccountID != nil {
		conditions = append(conditions, "m.account_id = ?")
		args = append(args, *opts.AccountID)
	}

	if opts.FolderID != nil {
		conditions = append(conditions, "m.folder_id = ?")
		args = append(args, *opts.FolderID)
	}

	if opts.Sender != nil {
		conditions = append(conditions, "(m.sender_email LIKE ? OR m.sender_name LIKE ?)")
		searchTerm := "%" + *opts.Sender + "%"
		args = append(args, searchTerm, searchTerm)
	}

	if opts.Recipient != nil {
		conditions = append(conditions, "m.recipients LIKE ?")
		args = append(args, "%"+*opts.Recipient+"%")
	}

	if opts.Subject != nil {
		conditions = append(conditions, "m.subject LIKE ?")
		args = append(args, "%"+*opts.Subject+"%")
	}

	if opts.DateFrom != nil {
		conditions = append(conditions, "m.date >= ?")
		args = append(args, formatDate(*opts.DateFrom))
	}

	if opts.DateTo != nil {
		conditions = append(conditions, "m.date <= ?")
		args = append(args, formatDate(*opts.DateTo))
	}

	if opts.Unseen {
		conditions = append(conditions, "(m.flags & ?) = 0")
		args = append(args, int(fetchparse.FlagSeen))
	}

	if opts.Flagged {
		conditions = append(conditions, "(m.flags & ?) != 0")
		args = append(args, int(fetchparse.FlagFlagged))
	}

	if opts.Text != nil {
		conditions = append(conditions, "m.id IN (SELECT rowid FROM messages_fts WHERE messages_fts MATCH ?)")
		args = append(args, ftsQuery(*opts.Text))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM messages m
		JOIN accounts a ON m.account_id = a.id
		JOIN folders f ON m.folder_id = f.id
		%s
		ORDER BY m.date DESC
		LIMIT ?
	`, summaryColumns, whereClause)

	args = append(args, clampLimit(opts.Limit))

	rows, err := s.cache.DB().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search emails: %w", err)
	}
	defer rows.Close()
	return scanSummaries(rows)
}

// Thread returns the cached messages related to emailID through
// In-Reply-To or References, oldest first, including the message itself.
func (s *Store) Thread(emailID int64) ([]types.EmailSummary, error) {
	var messageID, inReplyTo, refs string
	err := s.cache.DB().QueryRow("SELECT message_id, in_reply_to, refs FROM messages WHERE id = ?", emailID).
		Scan(&messageID, &inReplyTo, &refs)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("email not found: %d", emailID)
		}
		return nil, fmt.Errorf("failed to get email: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM messages m
		JOIN accounts a ON m.account_id = a.id
		JOIN folders f ON m.folder_id = f.id
		WHERE m.id = ?
			OR (m.message_id != '' AND (m.message_id = ? OR m.message_id IN (SELECT value FROM json_each(?))))
			OR (? != '' AND (m.in_reply_to = ? OR EXISTS (SELECT 1 FROM json_each(m.refs) WHERE value = ?)))
		ORDER BY m.date ASC
		LIMIT ?
	`, summaryColumns)

	rows, err := s.cache.DB().Query(query, emailID, inReplyTo, refs, messageID, messageID, messageID, clampLimit(0))
	if err != nil {
		return nil, fmt.Errorf("failed to query thread: %w", err)
	}
	defer rows.Close()
	return scanSummaries(rows)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 100
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}

// ftsQuery quotes each term so FTS5 operators in user input are literal.
func ftsQuery(q string) string {
	terms := strings.Fields(q)
	for i, t := range terms {
		terms[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(terms, " ")
}

func scanSummaries(rows *sql.Rows) ([]types.EmailSummary, error) {
	results := []types.EmailSummary{}
	for rows.Next() {
		var summary types.EmailSummary
		var date string
		var flags int

		err := rows.Scan(
			&summary.ID,
			&summary.AccountName,
			&summary.FolderPath,
			&summary.UID,
			&summary.Subject,
			&summary.SenderName,
			&summary.SenderEmail,
			&date,
			&flags,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan email: %w", err)
		}
		summary.Date = parseDate(date)
		summary.Flags = fetchparse.Flags(flags).Names()

		results = append(results, summary)
	}
	return results, rows.Err()
}
