package speechd

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/ilyapashuk/go-speechd/v2/ssip"
)

// session owns one SSIP connection. It splits notifications from command replies
// and hands notifications to onEvent, which is fixed for the session's lifetime.
//
// onEvent never runs while an exchange is in progress or on the goroutine reading
// the socket, so it may issue commands on the same session. In threaded mode it
// runs on a delivery goroutine; in single mode it runs on the caller's goroutine
// after the exchange that read the notification has finished.
type session struct {
	conn    *ssip.Conn
	mode    Mode
	log     *slog.Logger
	onEvent func(ssip.Event)

	// mu serializes exchanges so that a command and its reply are never interleaved
	// with another command.
	mu sync.Mutex
	// discard counts replies owed to commands sent without waiting.
	discard atomic.Int64

	replies chan ssip.Reply
	done    chan struct{}
	readErr error

	events  eventQueue
	pending []ssip.Event // single mode, guarded by mu

	closing   chan struct{}
	closeOnce sync.Once
	closeErr  error
}

func newSession(c net.Conn, mode Mode, log *slog.Logger, onEvent func(ssip.Event)) *session {
	s := &session{
		conn:    ssip.NewConn(c),
		mode:    mode,
		log:     log,
		onEvent: onEvent,
		closing: make(chan struct{}),
	}
	if mode == ModeThreaded {
		s.replies = make(chan ssip.Reply, 1)
		s.done = make(chan struct{})
		s.events.ready = make(chan struct{}, 1)
		go s.readLoop()
		go s.deliverLoop()
	}
	return s
}

func (s *session) isClosed() bool {
	select {
	case <-s.closing:
		return true
	default:
		return false
	}
}

func (s *session) readLoop() {
	defer close(s.done)
	for {
		r, err := s.conn.ReadReply()
		if err != nil {
			if s.isClosed() {
				err = ErrClosed
			} else {
				s.log.Error("speech-dispatcher connection lost", "error", err)
			}
			s.readErr = err
			return
		}
		if r.IsEvent() {
			s.deliver(r)
			continue
		}
		if s.takeDiscard() {
			continue
		}
		select {
		case s.replies <- r:
		case <-s.closing:
			s.readErr = ErrClosed
			return
		}
	}
}

func (s *session) deliverLoop() {
	for {
		select {
		case <-s.events.ready:
		case <-s.done:
			for _, ev := range s.events.drain() {
				s.onEvent(ev)
			}
			return
		}
		for _, ev := range s.events.drain() {
			s.onEvent(ev)
		}
	}
}

// deliver queues a notification. In single mode it must be called with mu held.
func (s *session) deliver(r ssip.Reply) {
	ev, err := ssip.ParseEvent(r)
	if err != nil {
		s.log.Warn("dropping malformed notification", "code", r.Code, "error", err)
		return
	}
	if s.mode == ModeThreaded {
		s.events.push(ev)
		return
	}
	s.pending = append(s.pending, ev)
}

func (s *session) takeDiscard() bool {
	for {
		n := s.discard.Load()
		if n <= 0 {
			return false
		}
		if s.discard.CompareAndSwap(n, n-1) {
			return true
		}
	}
}

// readReply returns the next command reply. Must be called with mu held.
func (s *session) readReply() (ssip.Reply, error) {
	if s.mode == ModeThreaded {
		select {
		case r := <-s.replies:
			return r, nil
		case <-s.done:
			select {
			case r := <-s.replies:
				return r, nil
			default:
			}
			return ssip.Reply{}, s.readErr
		}
	}

	for {
		r, err := s.conn.ReadReply()
		if err != nil {
			if s.isClosed() {
				return ssip.Reply{}, ErrClosed
			}
			return ssip.Reply{}, err
		}
		if r.IsEvent() {
			s.deliver(r)
			continue
		}
		if s.takeDiscard() {
			continue
		}
		return r, nil
	}
}

// exchange runs fn with the session locked, then delivers any notification read
// in single mode while fn ran.
func (s *session) exchange(fn func() error) error {
	if s.isClosed() {
		return ErrClosed
	}
	s.mu.Lock()
	err := fn()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, ev := range pending {
		s.onEvent(ev)
	}
	return err
}

// roundTrip sends one command line and reads its reply. Must be called inside exchange.
func (s *session) roundTrip(line string) (ssip.Reply, error) {
	s.log.Debug("ssip command", "line", line)
	if err := s.conn.WriteLine(line); err != nil {
		return ssip.Reply{}, s.writeErr(err)
	}
	return s.readReply()
}

// expectOK is roundTrip that converts a non-success reply into a *ReplyError.
func (s *session) expectOK(line string) (ssip.Reply, error) {
	r, err := s.roundTrip(line)
	if err != nil {
		return r, err
	}
	if !r.OK() {
		return r, &ReplyError{Command: commandName(line), Code: r.Code, Text: r.Status()}
	}
	return r, nil
}

// command is a locked expectOK.
func (s *session) command(line string) (ssip.Reply, error) {
	var r ssip.Reply
	err := s.exchange(func() error {
		var err error
		r, err = s.expectOK(line)
		return err
	})
	return r, err
}

// speak sends text as the body of a SPEAK command. Must be called inside exchange.
func (s *session) speak(text string) (ssip.Reply, error) {
	if _, err := s.expectOK("SPEAK"); err != nil {
		return ssip.Reply{}, err
	}
	if err := s.conn.WriteData(text); err != nil {
		return ssip.Reply{}, s.writeErr(err)
	}
	r, err := s.readReply()
	if err != nil {
		return r, err
	}
	if !r.OK() {
		return r, &ReplyError{Command: "SPEAK", Code: r.Code, Text: r.Status()}
	}
	return r, nil
}

// sendRaw writes data as given. Without wait the reply is discarded when it arrives.
func (s *session) sendRaw(data string, wait bool) (ssip.Reply, error) {
	if !strings.HasSuffix(data, "\r\n") {
		data = strings.TrimRight(data, "\r\n") + "\r\n"
	}
	var r ssip.Reply
	err := s.exchange(func() error {
		s.log.Debug("ssip raw", "data", strings.TrimSpace(data), "wait", wait)
		if !wait {
			s.discard.Add(1)
		}
		if err := s.conn.WriteRaw(data); err != nil {
			if !wait {
				s.discard.Add(-1)
			}
			return s.writeErr(err)
		}
		if !wait {
			return nil
		}
		var err error
		r, err = s.readReply()
		return err
	})
	return r, err
}

func (s *session) writeErr(err error) error {
	if s.isClosed() {
		return ErrClosed
	}
	return fmt.Errorf("writing to speech-dispatcher: %w", err)
}

func (s *session) close() error {
	s.closeOnce.Do(func() {
		close(s.closing)
		if err := s.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.closeErr = err
		}
	})
	return s.closeErr
}

// eventQueue is an unbounded FIFO so the reader never blocks on a slow handler.
type eventQueue struct {
	mu    sync.Mutex
	items []ssip.Event
	ready chan struct{}
}

func (q *eventQueue) push(ev ssip.Event) {
	q.mu.Lock()
	q.items = append(q.items, ev)
	q.mu.Unlock()
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

func (q *eventQueue) drain() []ssip.Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

func commandName(line string) string {
	fields := strings.Fields(line)
	switch {
	case len(fields) == 0:
		return ""
	case strings.EqualFold(fields[0], "SET") && len(fields) >= 3:
		return "SET " + fields[2]
	case len(fields) >= 2 && (strings.EqualFold(fields[0], "GET") || strings.EqualFold(fields[0], "LIST")):
		return fields[0] + " " + fields[1]
	default:
		return fields[0]
	}
}
