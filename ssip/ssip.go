// Package ssip provides a client implementation of SSIP (Speech Synthesis Interface Protocol),
// the line protocol spoken by speech-dispatcher, as described on https://freebsoft.org/doc/speechd/ssip.html.
// Note: most clients will prefer the higher level speechd package.
package ssip

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
)

// ErrMalformedReply is returned when a server line does not start with a 3 digit code.
var ErrMalformedReply = errors.New("ssip: malformed reply")

// Reply represents a server message: a 3 digit code and the text of every line.
type Reply struct {
	// Code is the code of the last line. Continuation lines carry the same code.
	Code int

	// Lines holds the text after the code of every line, in order.
	// Usually the last line is a human readable status like "OK MESSAGE QUEUED",
	// while the lines before it carry machine readable data.
	Lines []string
}

// OK reports whether the reply is a success (2xx) reply.
func (r Reply) OK() bool {
	return r.Code >= 200 && r.Code < 300
}

// IsEvent reports whether the reply is an asynchronous notification (7xx).
func (r Reply) IsEvent() bool {
	return r.Code >= 700 && r.Code < 800
}

// Data returns the data lines, which are all lines except the final status line.
func (r Reply) Data() []string {
	if len(r.Lines) == 0 {
		return nil
	}
	return r.Lines[:len(r.Lines)-1]
}

// Status returns the text of the final status line.
func (r Reply) Status() string {
	if len(r.Lines) == 0 {
		return ""
	}
	return r.Lines[len(r.Lines)-1]
}

// Raw rebuilds the reply as it appeared on the wire, with CRLF line endings.
func (r Reply) Raw() string {
	var b strings.Builder
	for i, line := range r.Lines {
		sep := "-"
		if i == len(r.Lines)-1 {
			sep = " "
		}
		fmt.Fprintf(&b, "%03d%s%s\r\n", r.Code, sep, line)
	}
	return b.String()
}

// Conn represents a client SSIP session over a stream connection.
type Conn struct {
	conn net.Conn
	scnr *bufio.Scanner
	wmu  sync.Mutex
}

// NewConn wraps an established connection to the SSIP socket.
func NewConn(c net.Conn) *Conn {
	return &Conn{
		conn: c,
		scnr: bufio.NewScanner(c),
	}
}

// RemoteAddr returns the address of the server side of the connection.
func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// ReadReply reads the next server message.
// Keep in mind that a notification (7xx) may arrive before the reply to a pending command.
func (c *Conn) ReadReply() (Reply, error) {
	var r Reply
	for c.scnr.Scan() {
		code, text, last, err := parseLine(c.scnr.Text())
		if err != nil {
			return Reply{}, err
		}
		r.Code = code
		r.Lines = append(r.Lines, text)
		if last {
			return r, nil
		}
	}
	if err := c.scnr.Err(); err != nil {
		return Reply{}, err
	}
	return Reply{}, io.EOF
}

func parseLine(t string) (code int, text string, last bool, err error) {
	if len(t) < 3 {
		return 0, "", false, fmt.Errorf("%w: %q", ErrMalformedReply, t)
	}
	code, err = strconv.Atoi(t[:3])
	if err != nil {
		return 0, "", false, fmt.Errorf("%w: invalid code %q", ErrMalformedReply, t[:3])
	}
	if len(t) == 3 {
		return code, "", true, nil
	}
	switch t[3] {
	case ' ':
		last = true
	case '-':
	default:
		return 0, "", false, fmt.Errorf("%w: bad delimiter in %q", ErrMalformedReply, t)
	}
	return code, t[4:], last, nil
}

// WriteLine sends one line of text terminated by CRLF, as the protocol requires.
// Use WriteData for the body of a SPEAK command.
func (c *Conn) WriteLine(p string) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_, err := io.WriteString(c.conn, p+"\r\n")
	return err
}

// WriteRaw sends p unchanged. It is used for commands the caller already terminated.
func (c *Conn) WriteRaw(p string) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_, err := io.WriteString(c.conn, p)
	return err
}

// WriteData writes the body of a SPEAK command followed by the terminating dot line.
// Lines starting with a dot get another dot prepended.
func (c *Conn) WriteData(text string) error {
	var b strings.Builder
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r", ""), "\n") {
		if strings.HasPrefix(line, ".") {
			b.WriteString(".")
		}
		b.WriteString(line)
		b.WriteString("\r\n")
	}
	b.WriteString(".\r\n")
	return c.WriteRaw(b.String())
}

// Close sends QUIT and closes the underlying connection.
func (c *Conn) Close() error {
	_ = c.WriteLine("QUIT")
	return c.conn.Close()
}
