package speechd

import "strconv"

// scope is the target of a SET or control command: this connection, every
// client, or one client id.
type scope string

const (
	scopeSelf scope = "self"
	scopeAll  scope = "all"
)

func uidScope(uid uint64) scope {
	return scope(strconv.FormatUint(uid, 10))
}

func (c *Connection) control(cmd string, s scope) error {
	_, err := c.command(cmd + " " + string(s))
	return err
}

// Stop stops the message currently spoken for this connection. Queued messages are kept.
func (c *Connection) Stop() error { return c.control("STOP", scopeSelf) }

// StopAll stops the message currently spoken for every client.
func (c *Connection) StopAll() error { return c.control("STOP", scopeAll) }

// StopUID stops the message currently spoken for client uid.
func (c *Connection) StopUID(uid uint64) error { return c.control("STOP", uidScope(uid)) }

// Cancel stops the current message and discards the queue of this connection.
func (c *Connection) Cancel() error { return c.control("CANCEL", scopeSelf) }

// CancelAll cancels speech for every client.
func (c *Connection) CancelAll() error { return c.control("CANCEL", scopeAll) }

// CancelUID cancels speech for client uid.
func (c *Connection) CancelUID(uid uint64) error { return c.control("CANCEL", uidScope(uid)) }

// Pause pauses speech of this connection at the next index mark.
func (c *Connection) Pause() error { return c.control("PAUSE", scopeSelf) }

// PauseAll pauses speech for every client.
func (c *Connection) PauseAll() error { return c.control("PAUSE", scopeAll) }

// PauseUID pauses speech for client uid.
func (c *Connection) PauseUID(uid uint64) error { return c.control("PAUSE", uidScope(uid)) }

// Resume resumes paused speech of this connection.
func (c *Connection) Resume() error { return c.control("RESUME", scopeSelf) }

// ResumeAll resumes speech for every client.
func (c *Connection) ResumeAll() error { return c.control("RESUME", scopeAll) }

// ResumeUID resumes speech for client uid.
func (c *Connection) ResumeUID(uid uint64) error { return c.control("RESUME", uidScope(uid)) }
