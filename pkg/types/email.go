package types

import "time"

// Address is a mail address from a message envelope
type Address struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address"`
}

// Email represents the indexed header record of a message
type Email struct {
	ID          int64     `json:"id"`
	AccountID   int       `json:"account_id"`
	AccountName string    `json:"account_name"`
	FolderID    int       `json:"folder_id"`
	FolderPath  string    `json:"folder_path"`
	UID         uint32    `json:"uid"`
	Size        int64     `json:"size"`
	MessageID   string    `json:"message_id"`
	InReplyTo   string    `json:"in_reply_to,omitempty"`
	References  []string  `json:"references"`
	Subject     string    `json:"subject"`
	SenderName  string    `json:"sender_name"`
	SenderEmail string    `json:"sender_email"`
	From        []Address `json:"from"`
	ReplyTo     []Address `json:"reply_to"`
	To          []Address `json:"to"`
	Cc          []Address `json:"cc"`
	Date        time.Time `json:"date"`
	Arrival     time.Time `json:"arrival"`
	Flags       []string  `json:"flags"`
	FlagBits    uint8     `json:"-"`
	BodyText    string    `json:"body_text,omitempty"`
	BodyHTML    string    `json:"body_html,omitempty"`
	CachedAt    time.Time `json:"cached_at"`
}

// EmailSummary represents a summary of an email (for search results)
type EmailSummary struct {
	ID          int64     `json:"id"`
	AccountName string    `json:"account_name"`
	FolderPath  string    `json:"folder_path"`
	UID         uint32    `json:"uid"`
	Subject     string    `json:"subject"`
	SenderName  string    `json:"sender_name"`
	SenderEmail string    `json:"sender_email"`
	Date        time.Time `json:"date"`
	Flags       []string  `json:"flags"`
}

// Folder represents an email folder/mailbox
type Folder struct {
	ID           int        `json:"id"`
	AccountID    int        `json:"account_id"`
	AccountName  string     `json:"account_name"`
	Name         string     `json:"name"`
	Path         string     `json:"path"`
	MessageCount int        `json:"message_count"`
	LastSynced   *time.Time `json:"last_synced,omitempty"`
}

// SyncResult summarizes one folder sync
type SyncResult struct {
	AccountName string `json:"account_name"`
	FolderPath  string `json:"folder_path"`
	Fetched     int    `json:"fetched"`
	Stored      int    `json:"stored"`
	Skipped     int    `json:"skipped"`
}
