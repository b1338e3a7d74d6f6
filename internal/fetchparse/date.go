package fetchparse

import (
	"net/mail"
	"strconv"
	"strings"
	"time"
)

const internalDateLayout = "2-Jan-2006 15:04:05"

// ParseInternalDate parses an INTERNALDATE value, "dd-Mon-yyyy hh:mm:ss
// +zzzz". The bool is false on any mismatch.
func ParseInternalDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	date, rest, ok := strings.Cut(s, " ")
	if !ok {
		return time.Time{}, false
	}
	clock, zone, ok := strings.Cut(rest, " ")
	if !ok {
		return time.Time{}, false
	}
	loc, ok := parseZone(zone)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(internalDateLayout, date+" "+clock, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// parseZone turns "+hhmm" or "-hhmm" into a fixed zone.
func parseZone(s string) (*time.Location, bool) {
	if len(s) != 5 || (s[0] != '+' && s[0] != '-') {
		return nil, false
	}
	hh, err := strconv.Atoi(s[1:3])
	if err != nil {
		return nil, false
	}
	mm, err := strconv.Atoi(s[3:5])
	if err != nil || mm > 59 {
		return nil, false
	}
	offset := hh*3600 + mm*60
	if s[0] == '-' {
		offset = -offset
	}
	if offset == 0 {
		return time.UTC, true
	}
	return time.FixedZone(s, offset), true
}

// parseSentDate parses the envelope date, an RFC 5322 Date header value.
func parseSentDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := mail.ParseDate(s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
