package fetchparse

import (
	"mime"
	"strings"

	"github.com/emersion/go-message/charset"
)

var wordDecoder = &mime.WordDecoder{CharsetReader: charset.Reader}

// DecodeSubject decodes RFC 2047 encoded words in raw, then deletes every
// backslash. A backslash never protects the next character: `a\\b` becomes
// `ab` and `\"` becomes `"`.
func DecodeSubject(raw string) string {
	s, err := wordDecoder.DecodeHeader(raw)
	if err != nil {
		s = raw
	}
	if strings.Contains(s, `\`) {
		s = strings.ReplaceAll(s, `\`, "")
	}
	return s
}
