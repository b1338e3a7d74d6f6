// Package imapwire reads IMAP server responses as complete units and sends
// the few commands needed to fetch message headers.
package imapwire

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// DefaultMaxLiteral bounds a single literal read by ReadUnit.
const DefaultMaxLiteral = 64 << 20

// Reader splits a server stream into response units. A unit is one line
// together with any {n} literals it announces, spliced in place.
type Reader struct {
	br         *bufio.Reader
	MaxLiteral int
}

// NewReader returns a Reader reading from r.
func NewReader(r io.Reader) *Reader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReaderSize(r, 16*1024)
	}
	return &Reader{br: br, MaxLiteral: DefaultMaxLiteral}
}

// ReadUnit returns the next unit without its final CRLF. Literal payloads are
// kept byte for byte, preceded by the CRLF that followed their {n} header.
func (r *Reader) ReadUnit() (string, error) {
	var b strings.Builder
	for {
		line, err := r.br.ReadString('\n')
		if err != nil {
			if err == io.EOF && line != "" {
				err = io.ErrUnexpectedEOF
			}
			return "", err
		}
		n, ok, err := literalSize(line)
		if err != nil {
			return "", err
		}
		if !ok {
			b.WriteString(strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r"))
			return b.String(), nil
		}
		if n > r.MaxLiteral {
			return "", fmt.Errorf("literal of %d bytes exceeds limit of %d", n, r.MaxLiteral)
		}
		b.WriteString(line)
		buf := make([]byte, n)
		if _, err := io.ReadFull(r.br, buf); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return "", fmt.Errorf("reading literal: %w", err)
		}
		b.Write(buf)
	}
}

// literalSize reports whether line ends with a {n} or {n+} literal header.
func literalSize(line string) (int, bool, error) {
	s := strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
	if !strings.HasSuffix(s, "}") {
		return 0, false, nil
	}
	open := strings.LastIndexByte(s, '{')
	if open < 0 {
		return 0, false, nil
	}
	digits := strings.TrimSuffix(s[open+1:len(s)-1], "+")
	if digits == "" {
		return 0, false, nil
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, false, nil
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false, fmt.Errorf("bad literal size %q: %w", digits, err)
	}
	return n, true, nil
}
