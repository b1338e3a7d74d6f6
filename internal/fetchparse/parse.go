package fetchparse

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// attribute is a FETCH data item name the parser understands.
type attribute int

const (
	attrUnknown attribute = iota
	attrUID
	attrSize
	attrInternalDate
	attrFlags
	attrEnvelope
	attrBodyHeaders
)

var attributes = []struct {
	keyword string
	attr    attribute
}{
	{"UID", attrUID},
	{"RFC822.SIZE", attrSize},
	{"INTERNALDATE", attrInternalDate},
	{"FLAGS", attrFlags},
	{"ENVELOPE", attrEnvelope},
	{"BODY[", attrBodyHeaders},
}

// lookupAttribute matches the keyword at the start of s and returns the input
// after it.
func lookupAttribute(s string) (attribute, string) {
	for _, a := range attributes {
		if matchPrefix(s, a.keyword) {
			return a.attr, s[len(a.keyword):]
		}
	}
	return attrUnknown, s
}

// draft collects fields while a unit is parsed. It never leaves this package;
// build turns it into an Entry once every required field is known.
type draft struct {
	seqNum      uint32
	uid         uint32
	size        int64
	arrival     time.Time
	hasArrival  bool
	flags       Flags
	sentDate    time.Time
	hasSentDate bool
	subject     string
	hasSubject  bool
	from        []Address
	replyTo     []Address
	to          []Address
	cc          []Address
	inReplyTo   string
	messageID   string
	references  []string
}

// Parser decodes FETCH units, logging each failure to its logger.
type Parser struct {
	log logrus.FieldLogger
}

// New returns a Parser that logs diagnostics to log.
func New(log logrus.FieldLogger) *Parser {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Parser{log: log}
}

var defaultParser = New(nil)

// Parse decodes unit with a parser that discards diagnostics.
func Parse(unit string) (*Entry, error) {
	return defaultParser.Parse(unit)
}

// ParseBytes is like Parse for a byte slice; nil is an error.
func (p *Parser) ParseBytes(unit []byte) (*Entry, error) {
	if unit == nil {
		return nil, p.fail(0, fmt.Errorf("%w: no input", ErrSyntax))
	}
	return p.Parse(string(unit))
}

// Parse decodes one "* n FETCH (...)" unit. On failure it returns a nil entry
// and an error wrapping ErrSyntax or ErrIncomplete.
func (p *Parser) Parse(unit string) (*Entry, error) {
	d, err := parseUnit(unit)
	if err != nil {
		return nil, p.fail(d.seqNum, err)
	}
	e, err := d.build()
	if err != nil {
		return nil, p.fail(d.seqNum, err)
	}
	return e, nil
}

func (p *Parser) fail(seq uint32, err error) error {
	fields := logrus.Fields{}
	if seq > 0 {
		fields["seq"] = seq
	}
	p.log.WithFields(fields).WithError(err).Debug("Discarding FETCH response")
	return err
}

func parseUnit(s string) (*draft, error) {
	d := &draft{}
	rest, err := consumeKeyword(s, "* ")
	if err != nil {
		return d, err
	}
	n, rest, err := scanUnsignedInt(rest)
	if err != nil {
		return d, err
	}
	if n < 1 || n > math.MaxUint32 {
		return d, syntaxErrorf("message number %d out of range", n)
	}
	d.seqNum = uint32(n)
	if rest, err = consumeKeyword(rest, " FETCH ("); err != nil {
		return d, err
	}

	for {
		rest = skipWhitespace(rest)
		if rest == "" {
			return d, syntaxErrorf("missing ')' closing attribute list")
		}
		if rest[0] == ')' {
			if tail := skipWhitespace(rest[1:]); tail != "" {
				return d, syntaxErrorf("trailing data after FETCH response: %s", excerpt(tail))
			}
			return d, nil
		}
		attr, after := lookupAttribute(rest)
		switch attr {
		case attrUID:
			rest, err = d.parseUID(after)
		case attrSize:
			rest, err = d.parseSize(after)
		case attrInternalDate:
			rest, err = d.parseInternalDate(after)
		case attrFlags:
			rest, err = d.parseFlags(after)
		case attrEnvelope:
			rest, err = d.parseEnvelope(after)
		case attrBodyHeaders:
			rest, err = d.parseBodyHeaders(after)
		default:
			return d, syntaxErrorf("unknown attribute %s", excerpt(rest))
		}
		if err != nil {
			return d, err
		}
	}
}

func (d *draft) parseUID(s string) (string, error) {
	n, rest, err := scanUnsignedInt(skipWhitespace(s))
	if err != nil {
		return s, fmt.Errorf("UID: %w", err)
	}
	if n > math.MaxUint32 {
		return s, syntaxErrorf("UID %d out of range", n)
	}
	d.uid = uint32(n)
	return rest, nil
}

func (d *draft) parseSize(s string) (string, error) {
	n, rest, err := scanUnsignedInt(skipWhitespace(s))
	if err != nil {
		return s, fmt.Errorf("RFC822.SIZE: %w", err)
	}
	if n > math.MaxInt64 {
		return s, syntaxErrorf("RFC822.SIZE %d out of range", n)
	}
	d.size = int64(n)
	return rest, nil
}

func (d *draft) parseInternalDate(s string) (string, error) {
	v, ok, rest, err := scanQuotedOrNil(s)
	if err != nil {
		return s, fmt.Errorf("INTERNALDATE: %w", err)
	}
	if ok {
		d.arrival, d.hasArrival = ParseInternalDate(v)
	}
	return rest, nil
}

func (d *draft) parseFlags(s string) (string, error) {
	s = skipWhitespace(s)
	if matchPrefix(s, "NIL") {
		d.flags = 0
		return s[3:], nil
	}
	inner, rest, err := scanParenthesized(s)
	if err != nil {
		return s, fmt.Errorf("FLAGS: %w", err)
	}
	d.flags = ParseFlags(inner)
	return rest, nil
}

// parseEnvelope reads the ten envelope fields in order and the closing ")".
func (d *draft) parseEnvelope(s string) (string, error) {
	rest, err := consumeKeyword(skipWhitespace(s), "(")
	if err != nil {
		return s, fmt.Errorf("ENVELOPE: %w", err)
	}

	var date string
	var hasDate bool
	var sender, bcc []Address
	steps := []struct {
		name string
		scan func(string) (string, error)
	}{
		{"date", func(s string) (string, error) {
			v, ok, rest, err := scanQuotedOrNil(s)
			date, hasDate = v, ok
			return rest, err
		}},
		{"subject", func(s string) (string, error) {
			v, _, rest, err := scanQuotedOrNil(s)
			d.subject, d.hasSubject = DecodeSubject(v), err == nil
			return rest, err
		}},
		{"from", addressStep(&d.from)},
		{"sender", addressStep(&sender)},
		{"reply-to", addressStep(&d.replyTo)},
		{"to", addressStep(&d.to)},
		{"cc", addressStep(&d.cc)},
		{"bcc", addressStep(&bcc)},
		{"in-reply-to", func(s string) (string, error) {
			v, _, rest, err := scanQuotedOrNil(s)
			d.inReplyTo = strings.TrimSpace(v)
			return rest, err
		}},
		{"message-id", func(s string) (string, error) {
			v, _, rest, err := scanQuotedOrNil(s)
			d.messageID = strings.TrimSpace(v)
			return rest, err
		}},
	}
	for _, step := range steps {
		if rest, err = step.scan(rest); err != nil {
			return s, fmt.Errorf("ENVELOPE %s: %w", step.name, err)
		}
	}
	if rest, err = consumeKeyword(skipWhitespace(rest), ")"); err != nil {
		return s, fmt.Errorf("ENVELOPE: %w", err)
	}
	if hasDate {
		d.sentDate, d.hasSentDate = parseSentDate(date)
	}
	return rest, nil
}

func addressStep(dst *[]Address) func(string) (string, error) {
	return func(s string) (string, error) {
		inner, ok, rest, err := scanParenthesizedList(s)
		if err != nil {
			return s, err
		}
		addrs, err := ParseAddressList(inner, ok)
		if err != nil {
			return s, err
		}
		*dst = addrs
		return rest, nil
	}
}

// parseBodyHeaders skips the section spec up to "]" and an optional
// "<origin>", then reads the header block payload.
func (d *draft) parseBodyHeaders(s string) (string, error) {
	end := strings.IndexByte(s, ']')
	if end < 0 {
		return s, syntaxErrorf("BODY section without ']'")
	}
	rest := s[end+1:]
	if strings.HasPrefix(rest, "<") {
		gt := strings.IndexByte(rest, '>')
		if gt < 0 {
			return s, syntaxErrorf("BODY origin without '>'")
		}
		rest = rest[gt+1:]
	}
	block, ok, rest, err := scanQuotedOrNil(rest)
	if err != nil {
		return s, fmt.Errorf("BODY[]: %w", err)
	}
	if ok {
		d.references = ParseReferences([]byte(block))
	}
	return rest, nil
}

// build checks the required fields and returns the finished Entry.
func (d *draft) build() (*Entry, error) {
	var missing []string
	if d.seqNum < 1 {
		missing = append(missing, "message number")
	}
	if d.uid < 1 {
		missing = append(missing, "UID")
	}
	if d.size < 1 {
		missing = append(missing, "RFC822.SIZE")
	}
	if !d.hasArrival {
		missing = append(missing, "INTERNALDATE")
	}
	if !d.hasSentDate {
		missing = append(missing, "envelope date")
	}
	if !d.hasSubject {
		missing = append(missing, "envelope subject")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrIncomplete, strings.Join(missing, ", "))
	}

	e := &Entry{
		SeqNum:     d.seqNum,
		UID:        d.uid,
		Size:       d.size,
		Arrival:    d.arrival,
		Flags:      d.flags,
		SentDate:   d.sentDate,
		Subject:    d.subject,
		From:       nonNil(d.from),
		ReplyTo:    nonNil(d.replyTo),
		To:         nonNil(d.to),
		Cc:         nonNil(d.cc),
		InReplyTo:  d.inReplyTo,
		MessageID:  d.messageID,
		References: d.references,
	}
	if e.References == nil {
		e.References = []string{}
	}
	return e, nil
}

func nonNil(l []Address) []Address {
	if l == nil {
		return []Address{}
	}
	return l
}
