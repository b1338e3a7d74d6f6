package fetchparse

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testDate     = `"Fri, 16 Apr 2010 14:46:26 +0200"`
	testSubject  = `"Re: [Test] subject"`
	testFrom     = `(("Hello World" NIL "helloworld" "example.com"))`
	testTo       = `((NIL NIL "someone" "example.org"))`
	testInReply  = `"<4BC7FE25.6000809@panix.com>"`
	testOwnMsgID = `"<4BC8A7A2.5080300@example.com>"`
)

func envelope(fields ...string) string {
	return "ENVELOPE (" + strings.Join(fields, " ") + ")"
}

func fullEnvelope() string {
	return envelope(testDate, testSubject, testFrom, testFrom, testFrom, testTo, "NIL", "NIL", testInReply, testOwnMsgID)
}

func referencesItem(block string) string {
	return fmt.Sprintf("BODY[HEADER.FIELDS (REFERENCES)] {%d}\r\n%s", len(block), block)
}

func fetchUnit(items ...string) string {
	return "* 12 FETCH (" + strings.Join(items, " ") + ")"
}

func wellFormed() string {
	return fetchUnit(
		"UID 6026",
		"RFC822.SIZE 9452",
		`INTERNALDATE "16-Apr-2010 12:46:27 +0000"`,
		`FLAGS (\Seen \Answered)`,
		fullEnvelope(),
		referencesItem("References: <ref1>\r\n <ref2>\r\n\r\n"),
	)
}

func TestParseWellFormed(t *testing.T) {
	e, err := Parse(wellFormed())
	require.NoError(t, err)
	require.NotNil(t, e)

	assert.Equal(t, uint32(12), e.SeqNum)
	assert.Equal(t, uint32(6026), e.UID)
	assert.Equal(t, int64(9452), e.Size)
	assert.True(t, e.Arrival.Equal(time.Date(2010, 4, 16, 12, 46, 27, 0, time.UTC)), "arrival %v", e.Arrival)
	assert.True(t, e.SentDate.Equal(time.Date(2010, 4, 16, 12, 46, 26, 0, time.UTC)), "sent %v", e.SentDate)
	assert.Equal(t, FlagSeen|FlagAnswered, e.Flags)
	assert.Equal(t, "Re: [Test] subject", e.Subject)

	require.Len(t, e.From, 1)
	assert.Equal(t, "Hello World", e.From[0].Personal)
	assert.Equal(t, "helloworld@example.com", e.From[0].Address())
	require.Len(t, e.To, 1)
	assert.Equal(t, "someone@example.org", e.To[0].Address())
	assert.Empty(t, e.To[0].Personal)
	assert.NotNil(t, e.Cc)
	assert.Empty(t, e.Cc)

	assert.Equal(t, "<4BC7FE25.6000809@panix.com>", e.InReplyTo)
	assert.Equal(t, "<4BC8A7A2.5080300@example.com>", e.MessageID)
	assert.Equal(t, []string{"<ref1>", "<ref2>"}, e.References)
}

func TestParseDeterministic(t *testing.T) {
	unit := wellFormed()
	a, err := Parse(unit)
	require.NoError(t, err)
	b, err := Parse(unit)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestParseEmptyInput(t *testing.T) {
	for _, in := range []string{"", "abc", "* ", "* 0 FETCH (UID 1)", "* 1 FETCH", "* x FETCH ()"} {
		e, err := Parse(in)
		assert.Nil(t, e, "input %q", in)
		assert.ErrorIs(t, err, ErrSyntax, "input %q", in)
	}

	e, err := New(nil).ParseBytes(nil)
	assert.Nil(t, e)
	assert.ErrorIs(t, err, ErrSyntax)
}

func TestParseCaseInsensitiveKeywords(t *testing.T) {
	unit := strings.Replace(wellFormed(), "FETCH", "fetch", 1)
	unit = strings.Replace(unit, "RFC822.SIZE", "rfc822.size", 1)
	unit = strings.Replace(unit, "ENVELOPE", "Envelope", 1)
	e, err := Parse(unit)
	require.NoError(t, err)
	assert.Equal(t, int64(9452), e.Size)
}

func TestParseAttributeOrderIrrelevant(t *testing.T) {
	e, err := Parse(fetchUnit(
		fullEnvelope(),
		`FLAGS ()`,
		`INTERNALDATE "16-Apr-2010 12:46:27 +0000"`,
		"RFC822.SIZE 9452",
		"UID 6026",
	))
	require.NoError(t, err)
	assert.Equal(t, Flags(0), e.Flags)
	assert.Equal(t, []string{}, e.References)
}

func TestParseUnknownAttribute(t *testing.T) {
	unit := fetchUnit(
		"UID 6026",
		"MODSEQ (12345)",
		"RFC822.SIZE 9452",
		`INTERNALDATE "16-Apr-2010 12:46:27 +0000"`,
		fullEnvelope(),
	)
	e, err := Parse(unit)
	assert.Nil(t, e)
	assert.ErrorIs(t, err, ErrSyntax)
	assert.Contains(t, err.Error(), "unknown attribute")
}

func TestParseTruncatedEnvelope(t *testing.T) {
	// bcc missing: in-reply-to lands where bcc is expected.
	env := envelope(testDate, testSubject, testFrom, testFrom, testFrom, testTo, "NIL", testInReply, testOwnMsgID)
	e, err := Parse(fetchUnit("UID 6026", "RFC822.SIZE 9452", `INTERNALDATE "16-Apr-2010 12:46:27 +0000"`, env))
	assert.Nil(t, e)
	assert.ErrorIs(t, err, ErrSyntax)
	assert.Contains(t, err.Error(), "ENVELOPE bcc")
}

func TestParseEnvelopeExtraField(t *testing.T) {
	env := envelope(testDate, testSubject, testFrom, testFrom, testFrom, testTo, "NIL", "NIL", testInReply, testOwnMsgID, "NIL")
	_, err := Parse(fetchUnit("UID 6026", "RFC822.SIZE 9452", `INTERNALDATE "16-Apr-2010 12:46:27 +0000"`, env))
	assert.ErrorIs(t, err, ErrSyntax)
}

func TestParseIncomplete(t *testing.T) {
	tests := []struct {
		name    string
		items   []string
		missing string
	}{
		{
			name:    "no uid",
			items:   []string{"RFC822.SIZE 9452", `INTERNALDATE "16-Apr-2010 12:46:27 +0000"`, fullEnvelope()},
			missing: "UID",
		},
		{
			name:    "zero uid",
			items:   []string{"UID 0", "RFC822.SIZE 9452", `INTERNALDATE "16-Apr-2010 12:46:27 +0000"`, fullEnvelope()},
			missing: "UID",
		},
		{
			name:    "no size",
			items:   []string{"UID 1", `INTERNALDATE "16-Apr-2010 12:46:27 +0000"`, fullEnvelope()},
			missing: "RFC822.SIZE",
		},
		{
			name:    "bad internaldate",
			items:   []string{"UID 1", "RFC822.SIZE 9452", `INTERNALDATE "16-Apr-2010 12:46:27 UTC"`, fullEnvelope()},
			missing: "INTERNALDATE",
		},
		{
			name:    "no envelope",
			items:   []string{"UID 1", "RFC822.SIZE 9452", `INTERNALDATE "16-Apr-2010 12:46:27 +0000"`},
			missing: "envelope date",
		},
		{
			name: "nil envelope date",
			items: []string{"UID 1", "RFC822.SIZE 9452", `INTERNALDATE "16-Apr-2010 12:46:27 +0000"`,
				envelope("NIL", testSubject, testFrom, testFrom, testFrom, testTo, "NIL", "NIL", testInReply, testOwnMsgID)},
			missing: "envelope date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := Parse(fetchUnit(tt.items...))
			assert.Nil(t, e)
			require.ErrorIs(t, err, ErrIncomplete)
			assert.Contains(t, err.Error(), tt.missing)
		})
	}
}

func TestParseNilSubjectIsEmpty(t *testing.T) {
	env := envelope(testDate, "NIL", testFrom, testFrom, testFrom, testTo, "NIL", "NIL", "NIL", "NIL")
	e, err := Parse(fetchUnit("UID 6026", "RFC822.SIZE 9452", `INTERNALDATE "16-Apr-2010 12:46:27 +0000"`, env))
	require.NoError(t, err)
	assert.Equal(t, "", e.Subject)
	assert.Equal(t, "", e.InReplyTo)
	assert.Equal(t, "", e.MessageID)
}

func TestParseSubjectBackslashesStripped(t *testing.T) {
	env := envelope(testDate, `"path\\dir \"quoted\""`, testFrom, testFrom, testFrom, testTo, "NIL", "NIL", "NIL", "NIL")
	e, err := Parse(fetchUnit("UID 6026", "RFC822.SIZE 9452", `INTERNALDATE "16-Apr-2010 12:46:27 +0000"`, env))
	require.NoError(t, err)
	// Every backslash is removed, including one escaped by another.
	assert.Equal(t, `pathdir "quoted"`, e.Subject)
}

func TestParseAddressPersonalKeepsEscapes(t *testing.T) {
	from := `(("Hello \"World\"" NIL "hello" "example.com"))`
	env := envelope(testDate, testSubject, from, "NIL", "NIL", "NIL", "NIL", "NIL", "NIL", "NIL")
	e, err := Parse(fetchUnit("UID 6026", "RFC822.SIZE 9452", `INTERNALDATE "16-Apr-2010 12:46:27 +0000"`, env))
	require.NoError(t, err)
	require.Len(t, e.From, 1)
	assert.Equal(t, `Hello \"World\"`, e.From[0].Personal)
	assert.NotNil(t, e.ReplyTo)
	assert.Empty(t, e.ReplyTo)
}

func TestParseLiteralSubject(t *testing.T) {
	subject := `odd "subject" (with parens)`
	lit := fmt.Sprintf("{%d}\r\n%s", len(subject), subject)
	env := envelope(testDate, lit, testFrom, "NIL", "NIL", testTo, "NIL", "NIL", "NIL", "NIL")
	e, err := Parse(fetchUnit("UID 6026", "RFC822.SIZE 9452", `INTERNALDATE "16-Apr-2010 12:46:27 +0000"`, env))
	require.NoError(t, err)
	assert.Equal(t, subject, e.Subject)
}

func TestParseEncodedSubject(t *testing.T) {
	env := envelope(testDate, `"=?UTF-8?B?SGVsbG8gV29ybGQ=?="`, testFrom, "NIL", "NIL", testTo, "NIL", "NIL", "NIL", "NIL")
	e, err := Parse(fetchUnit("UID 6026", "RFC822.SIZE 9452", `INTERNALDATE "16-Apr-2010 12:46:27 +0000"`, env))
	require.NoError(t, err)
	assert.Equal(t, "Hello World", e.Subject)
}

func TestParseNilBodyHeaders(t *testing.T) {
	e, err := Parse(fetchUnit(
		"UID 6026", "RFC822.SIZE 9452", `INTERNALDATE "16-Apr-2010 12:46:27 +0000"`, fullEnvelope(),
		"BODY[HEADER.FIELDS (REFERENCES)] NIL",
	))
	require.NoError(t, err)
	assert.Equal(t, []string{}, e.References)
}

func TestParseBadLiteral(t *testing.T) {
	for _, item := range []string{
		"BODY[HEADER.FIELDS (REFERENCES)] {99}\r\nReferences: <a>\r\n",
		"BODY[HEADER.FIELDS (REFERENCES)] {x}\r\nReferences: <a>\r\n",
		"BODY[HEADER.FIELDS (REFERENCES)] {5\r\nabcde",
		"BODY[HEADER.FIELDS (REFERENCES) {5}\r\nabcde",
	} {
		_, err := Parse(fetchUnit("UID 6026", "RFC822.SIZE 9452", `INTERNALDATE "16-Apr-2010 12:46:27 +0000"`, fullEnvelope(), item))
		assert.ErrorIs(t, err, ErrSyntax, "item %q", item)
	}
}

func TestParseTrailingData(t *testing.T) {
	_, err := Parse(wellFormed() + " garbage")
	assert.ErrorIs(t, err, ErrSyntax)
}

func TestParseMissingClose(t *testing.T) {
	unit := strings.TrimSuffix(wellFormed(), ")")
	_, err := Parse(unit)
	assert.ErrorIs(t, err, ErrSyntax)
}

func TestParserLogsDiagnostic(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetLevel(logrus.DebugLevel)
	log.SetFormatter(&logrus.JSONFormatter{})

	_, err := New(log).Parse("* 7 FETCH (BOGUS 1)")
	require.Error(t, err)
	assert.Contains(t, buf.String(), "unknown attribute")
	assert.Contains(t, buf.String(), `"seq":7`)
}
