package speechd

import (
	"fmt"
	"strings"

	"github.com/ilyapashuk/go-speechd/v2/ssip"
)

// Say queues text for speaking with priority p and returns the message id.
//
// Empty text is accepted as a no-op: Say returns 0 and a nil error without
// contacting the daemon. The same holds for Sayf, Char, Key and SoundIcon.
func (c *Connection) Say(p Priority, text string) (uint64, error) {
	if text == "" {
		return 0, nil
	}
	var r ssip.Reply
	err := c.exchange(func() error {
		if err := c.setPriority(p); err != nil {
			return err
		}
		var err error
		r, err = c.sess.speak(text)
		return err
	})
	if err != nil {
		return 0, err
	}
	return messageID(r)
}

// Sayf formats according to format and speaks the result.
func (c *Connection) Sayf(p Priority, format string, args ...any) (uint64, error) {
	return c.Say(p, fmt.Sprintf(format, args...))
}

// Char speaks a single character. A space is sent under its symbolic name.
func (c *Connection) Char(p Priority, ch string) (uint64, error) {
	if ch == " " {
		ch = "space"
	}
	return c.submit(p, "CHAR", ch)
}

// WChar speaks a single character given as a rune.
func (c *Connection) WChar(p Priority, r rune) (uint64, error) {
	return c.Char(p, string(r))
}

// Key speaks a key name such as "a", "shift_a" or "kp-enter".
func (c *Connection) Key(p Priority, name string) (uint64, error) {
	return c.submit(p, "KEY", name)
}

// SoundIcon plays the sound icon called name.
func (c *Connection) SoundIcon(p Priority, name string) (uint64, error) {
	return c.submit(p, "SOUND_ICON", name)
}

func (c *Connection) submit(p Priority, cmd, arg string) (uint64, error) {
	if arg == "" {
		return 0, nil
	}
	if err := checkArg(strings.ToLower(cmd), arg); err != nil {
		return 0, err
	}
	var r ssip.Reply
	err := c.exchange(func() error {
		if err := c.setPriority(p); err != nil {
			return err
		}
		var err error
		r, err = c.sess.expectOK(cmd + " " + arg)
		return err
	})
	if err != nil {
		return 0, err
	}
	return messageID(r)
}

// setPriority must be called inside an exchange.
func (c *Connection) setPriority(p Priority) error {
	_, err := c.sess.expectOK("SET self PRIORITY " + p.String())
	return err
}
