package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandon/mcp-mailindex/internal/fetchparse"
)

const unitWithLiteral = "* 4 FETCH (UID 40 RFC822.SIZE 512 INTERNALDATE \"16-Apr-2010 12:46:27 +0000\" " +
	"ENVELOPE (\"Fri, 16 Apr 2010 08:46:27 -0400\" {5}\r\nhello NIL NIL NIL NIL NIL NIL \"<a@b>\" \"<c@d>\") " +
	"BODY[HEADER.FIELDS (REFERENCES)] {31}\r\nReferences: <ref1>\r\n <ref2>\r\n\r\n)"

func TestParseUnits(t *testing.T) {
	in := unitWithLiteral + "\r\n\r\n" + strings.Replace(unitWithLiteral, "UID 40", "UID 41", 1)
	var out bytes.Buffer
	require.NoError(t, parseUnits(strings.NewReader(in), &out, fetchparse.New(nil), false))

	dec := json.NewDecoder(&out)
	var uids []float64
	for dec.More() {
		var v map[string]interface{}
		require.NoError(t, dec.Decode(&v))
		uids = append(uids, v["uid"].(float64))
		assert.Equal(t, "hello", v["subject"])
		assert.Equal(t, []interface{}{"<ref1>", "<ref2>"}, v["references"])
		assert.Equal(t, "2010-04-16T12:46:27Z", v["arrival"])
	}
	assert.Equal(t, []float64{40, 41}, uids)
}

func TestParseUnitsFailure(t *testing.T) {
	in := "* 1 FETCH (UID 1)\r\n" + unitWithLiteral

	var out bytes.Buffer
	err := parseUnits(strings.NewReader(in), &out, fetchparse.New(nil), false)
	assert.ErrorIs(t, err, fetchparse.ErrIncomplete)
	assert.Empty(t, out.String())

	out.Reset()
	err = parseUnits(strings.NewReader(in), &out, fetchparse.New(nil), true)
	assert.EqualError(t, err, "1 responses failed to parse")
	assert.Equal(t, 1, strings.Count(out.String(), "\n"))
}
