// Package fetchparse decodes a single IMAP FETCH response unit carrying UID,
// RFC822.SIZE, INTERNALDATE, FLAGS, ENVELOPE and
// BODY[HEADER.FIELDS (REFERENCES)] into an Entry.
//
// The input must be one complete response unit with every {n} literal already
// spliced in place, as produced by imapwire.Reader.ReadUnit. Parsing is pure:
// no I/O, no shared state, safe for concurrent use on independent inputs.
package fetchparse

import (
	"errors"
	"time"
)

var (
	// ErrSyntax is wrapped by every failure caused by an unexpected token,
	// unmatched delimiter or malformed number or literal.
	ErrSyntax = errors.New("fetch: syntax error")

	// ErrIncomplete is wrapped when the unit parsed cleanly but a required
	// field was never seen.
	ErrIncomplete = errors.New("fetch: incomplete entry")
)

// Address is one element of an envelope address list.
type Address struct {
	Personal    string `json:"personal,omitempty"`
	MailboxName string `json:"mailbox"`
	HostName    string `json:"host"`
}

// Address returns mailbox@host.
func (a Address) Address() string {
	return a.MailboxName + "@" + a.HostName
}

// Entry is a decoded FETCH unit. Entries are fully built before Parse returns
// them and are not modified afterwards.
type Entry struct {
	SeqNum     uint32    `json:"seq_num"`
	UID        uint32    `json:"uid"`
	Size       int64     `json:"size"`
	Arrival    time.Time `json:"arrival"`
	Flags      Flags     `json:"flags"`
	SentDate   time.Time `json:"sent_date"`
	Subject    string    `json:"subject"`
	From       []Address `json:"from"`
	ReplyTo    []Address `json:"reply_to"`
	To         []Address `json:"to"`
	Cc         []Address `json:"cc"`
	InReplyTo  string    `json:"in_reply_to,omitempty"`
	MessageID  string    `json:"message_id,omitempty"`
	References []string  `json:"references"`
}
