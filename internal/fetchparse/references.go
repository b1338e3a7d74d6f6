package fetchparse

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/emersion/go-message/textproto"
)

// ParseReferences reads block as a header block and returns the message ids
// of its References field in order. Folded lines are joined first.
func ParseReferences(block []byte) []string {
	refs := []string{}
	if len(bytes.TrimSpace(block)) == 0 {
		return refs
	}
	// The header reader needs the terminating blank line, which servers
	// usually but not always send.
	if !bytes.HasSuffix(block, []byte("\r\n\r\n")) && !bytes.HasSuffix(block, []byte("\n\n")) {
		block = append(append([]byte{}, bytes.TrimRight(block, "\r\n")...), "\r\n\r\n"...)
	}
	h, err := textproto.ReadHeader(bufio.NewReader(bytes.NewReader(block)))
	if err != nil {
		return refs
	}
	v := strings.TrimSpace(h.Get("References"))
	if v == "" {
		return refs
	}
	return splitMessageIDs(v)
}

// splitMessageIDs returns the <...> tokens of s.
func splitMessageIDs(s string) []string {
	ids := []string{}
	for _, tok := range strings.Fields(s) {
		for tok != "" {
			start := strings.IndexByte(tok, '<')
			if start < 0 {
				break
			}
			end := strings.IndexByte(tok[start:], '>')
			if end < 0 {
				break
			}
			ids = append(ids, tok[start:start+end+1])
			tok = tok[start+end+1:]
		}
	}
	return ids
}
