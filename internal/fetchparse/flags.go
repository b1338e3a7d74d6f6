package fetchparse

import (
	"encoding/json"
	"strings"
)

// Flags is the set of message flags the index tracks.
type Flags uint8

const (
	FlagSeen Flags = 1 << iota
	FlagAnswered
	FlagRecent
	FlagDeleted
	FlagFlagged
	FlagDraft
	FlagJunk
	FlagNonJunk
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{FlagSeen, `\Seen`},
	{FlagAnswered, `\Answered`},
	{FlagRecent, `\Recent`},
	{FlagDeleted, `\Deleted`},
	{FlagFlagged, `\Flagged`},
	{FlagDraft, `\Draft`},
	{FlagJunk, "$Junk"},
	{FlagNonJunk, "$NotJunk"},
}

// Has reports whether every flag in o is set.
func (f Flags) Has(o Flags) bool {
	return f&o == o
}

// Names returns the IMAP spelling of each set flag.
func (f Flags) Names() []string {
	names := []string{}
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			names = append(names, fn.name)
		}
	}
	return names
}

func (f Flags) String() string {
	return "(" + strings.Join(f.Names(), " ") + ")"
}

// MarshalJSON encodes f as the list of its names.
func (f Flags) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Names())
}

// ParseFlags maps the inner text of a FLAGS list to Flags by substring match,
// so keywords like $Junk and Junk both count. Any non-junk marker wins over a
// junk marker.
func ParseFlags(inner string) Flags {
	if inner == "" {
		return 0
	}
	s := strings.ToLower(inner)
	var f Flags
	for _, m := range []struct {
		sub  string
		flag Flags
	}{
		{"seen", FlagSeen},
		{"answered", FlagAnswered},
		{"recent", FlagRecent},
		{"deleted", FlagDeleted},
		{"flagged", FlagFlagged},
		{"draft", FlagDraft},
	} {
		if strings.Contains(s, m.sub) {
			f |= m.flag
		}
	}
	switch {
	case strings.Contains(s, "nonjunk"), strings.Contains(s, "notjunk"),
		strings.Contains(s, "nonspam"), strings.Contains(s, "notspam"):
		f |= FlagNonJunk
	case strings.Contains(s, "junk"), strings.Contains(s, "spam"):
		f |= FlagJunk
	}
	return f
}
