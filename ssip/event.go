package ssip

import (
	"fmt"
	"strconv"
)

// Notification codes sent by the server once notifications are enabled.
const (
	CodeIndexMark = 700
	CodeBegin     = 701
	CodeEnd       = 702
	CodeCancel    = 703
	CodePause     = 704
	CodeResume    = 705
)

// Event is a decoded notification reply.
type Event struct {
	Code      int
	MessageID uint64
	ClientID  uint64
	// Mark is the index mark name, set only for CodeIndexMark.
	Mark string
}

// ParseEvent decodes a 7xx reply. The data lines are the message id, the client id
// and, for index marks, the mark name.
func ParseEvent(r Reply) (Event, error) {
	if !r.IsEvent() {
		return Event{}, fmt.Errorf("%w: code %d is not a notification", ErrMalformedReply, r.Code)
	}
	data := r.Data()
	want := 2
	if r.Code == CodeIndexMark {
		want = 3
	}
	if len(data) < want {
		return Event{}, fmt.Errorf("%w: notification %d has %d data lines", ErrMalformedReply, r.Code, len(data))
	}
	msgID, err := strconv.ParseUint(data[0], 10, 64)
	if err != nil {
		return Event{}, fmt.Errorf("%w: message id %q", ErrMalformedReply, data[0])
	}
	clientID, err := strconv.ParseUint(data[1], 10, 64)
	if err != nil {
		return Event{}, fmt.Errorf("%w: client id %q", ErrMalformedReply, data[1])
	}
	ev := Event{Code: r.Code, MessageID: msgID, ClientID: clientID}
	if r.Code == CodeIndexMark {
		ev.Mark = data[2]
	}
	return ev, nil
}
