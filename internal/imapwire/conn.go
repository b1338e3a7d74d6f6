package imapwire

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/emersion/go-imap/utf7"
	"github.com/emersion/go-sasl"
	"github.com/sirupsen/logrus"
)

// StatusError is a NO or BAD completion of a tagged command.
type StatusError struct {
	Command string
	Status  string
	Text    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s %s", e.Command, e.Status, e.Text)
}

// Conn is a minimal IMAP client connection. Commands are sent one at a time.
type Conn struct {
	nc  net.Conn
	r   *Reader
	w   *bufio.Writer
	tag int
	log logrus.FieldLogger
}

// Dial connects to addr over TLS and reads the server greeting.
func Dial(ctx context.Context, addr string, tlsConfig *tls.Config, log logrus.FieldLogger) (*Conn, error) {
	d := &tls.Dialer{Config: tlsConfig}
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	c, err := NewConn(nc, log)
	if err != nil {
		nc.Close()
		return nil, err
	}
	return c, nil
}

// NewConn wraps an established connection and reads the greeting.
func NewConn(nc net.Conn, log logrus.FieldLogger) (*Conn, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	c := &Conn{
		nc:  nc,
		r:   NewReader(nc),
		w:   bufio.NewWriter(nc),
		log: log,
	}
	greeting, err := c.r.ReadUnit()
	if err != nil {
		return nil, fmt.Errorf("failed to read greeting: %w", err)
	}
	upper := strings.ToUpper(greeting)
	if !strings.HasPrefix(upper, "* OK") && !strings.HasPrefix(upper, "* PREAUTH") {
		return nil, fmt.Errorf("unexpected greeting: %q", greeting)
	}
	c.log.WithField("greeting", greeting).Debug("IMAP greeting")
	return c, nil
}

func (c *Conn) send(format string, args ...interface{}) (string, error) {
	c.tag++
	tag := "x" + strconv.Itoa(c.tag)
	if _, err := fmt.Fprintf(c.w, tag+" "+format+"\r\n", args...); err != nil {
		return "", err
	}
	if err := c.w.Flush(); err != nil {
		return "", fmt.Errorf("failed to send command: %w", err)
	}
	return tag, nil
}

// completion reports whether unit completes tag, and its error if it failed.
func completion(command, tag, unit string) (bool, error) {
	if !strings.HasPrefix(unit, tag+" ") {
		return false, nil
	}
	status, text, _ := strings.Cut(unit[len(tag)+1:], " ")
	status = strings.ToUpper(status)
	if status == "OK" {
		return true, nil
	}
	return true, &StatusError{Command: command, Status: status, Text: text}
}

// run sends a command and passes every untagged unit to fn until the tagged
// completion arrives.
func (c *Conn) run(command string, fn func(unit string), format string, args ...interface{}) error {
	tag, err := c.send(format, args...)
	if err != nil {
		return err
	}
	for {
		unit, err := c.r.ReadUnit()
		if err != nil {
			return fmt.Errorf("%s: %w", command, err)
		}
		if done, err := completion(command, tag, unit); done {
			return err
		}
		if fn != nil {
			fn(unit)
		}
	}
}

// Authenticate logs in with SASL PLAIN.
func (c *Conn) Authenticate(username, password string) error {
	client := sasl.NewPlainClient("", username, password)
	mech, ir, err := client.Start()
	if err != nil {
		return fmt.Errorf("failed to start SASL: %w", err)
	}
	tag, err := c.send("AUTHENTICATE %s", mech)
	if err != nil {
		return err
	}
	for {
		unit, err := c.r.ReadUnit()
		if err != nil {
			return fmt.Errorf("AUTHENTICATE: %w", err)
		}
		if strings.HasPrefix(unit, "+") {
			var resp []byte
			if ir != nil {
				resp, ir = ir, nil
			} else {
				challenge, err := base64.StdEncoding.DecodeString(strings.TrimSpace(unit[1:]))
				if err != nil {
					return fmt.Errorf("bad SASL challenge: %w", err)
				}
				if resp, err = client.Next(challenge); err != nil {
					return fmt.Errorf("SASL: %w", err)
				}
			}
			if _, err := c.w.WriteString(base64.StdEncoding.EncodeToString(resp) + "\r\n"); err != nil {
				return err
			}
			if err := c.w.Flush(); err != nil {
				return err
			}
			continue
		}
		if done, err := completion("AUTHENTICATE", tag, unit); done {
			if err == nil {
				c.log.WithField("username", username).Debug("Authenticated")
			}
			return err
		}
	}
}

// Select opens mailbox read-only and returns its message count.
func (c *Conn) Select(mailbox string) (uint32, error) {
	encoded, err := utf7.Encoding.NewEncoder().String(mailbox)
	if err != nil {
		return 0, fmt.Errorf("failed to encode mailbox name: %w", err)
	}
	var exists uint32
	err = c.run("EXAMINE", func(unit string) {
		fields := strings.Fields(unit)
		if len(fields) == 3 && fields[0] == "*" && strings.EqualFold(fields[2], "EXISTS") {
			if n, err := strconv.ParseUint(fields[1], 10, 32); err == nil {
				exists = uint32(n)
			}
		}
	}, "EXAMINE %s", quote(encoded))
	if err != nil {
		return 0, err
	}
	return exists, nil
}

// Fetch sends FETCH seqset items and passes each "* n FETCH" unit to fn.
func (c *Conn) Fetch(seqset, items string, fn func(unit string)) error {
	return c.run("FETCH", func(unit string) {
		if isFetchUnit(unit) {
			fn(unit)
		}
	}, "FETCH %s %s", seqset, items)
}

func isFetchUnit(unit string) bool {
	fields := strings.SplitN(unit, " ", 4)
	return len(fields) >= 3 && fields[0] == "*" && strings.EqualFold(fields[2], "FETCH")
}

// Logout ends the session. The connection is left for Close.
func (c *Conn) Logout() error {
	return c.run("LOGOUT", nil, "LOGOUT")
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.nc.Close()
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
