package speechd

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by Connection operations.
var (
	// ErrDaemonUnavailable is returned by Open when the daemon can neither be
	// reached nor spawned.
	ErrDaemonUnavailable = errors.New("speech-dispatcher unavailable")

	// ErrClosed is returned by any operation on a closed connection.
	ErrClosed = errors.New("connection closed")

	// ErrOutOfRange is returned for rate, pitch and volume values outside [-100, 100].
	ErrOutOfRange = errors.New("value out of range")

	// ErrInvalidAddress is returned for addresses that are not in speech-dispatcher notation.
	ErrInvalidAddress = errors.New("invalid speech-dispatcher address")

	// ErrInvalidArgument is returned for command arguments containing a line break,
	// which would split the command on the wire.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnexpectedReply is returned when a successful reply lacks the data the command promises.
	ErrUnexpectedReply = errors.New("unexpected reply")
)

// ReplyError is returned when the daemon answers a command with a non-success code.
// The code is kept so callers can tell, for example, a syntax error (5xx) from a
// refused parameter (4xx).
type ReplyError struct {
	Command string
	Code    int
	Text    string
}

func (e *ReplyError) Error() string {
	return fmt.Sprintf("speech-dispatcher: %s: %d %s", e.Command, e.Code, e.Text)
}

// ReplyCode returns the daemon status code carried by err, if any.
func ReplyCode(err error) (int, bool) {
	var re *ReplyError
	if errors.As(err, &re) {
		return re.Code, true
	}
	return 0, false
}
