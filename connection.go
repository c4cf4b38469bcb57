// Package speechd is a client library for the speech-dispatcher speech server.
// It speaks SSIP directly over the daemon's socket and does not use the C libspeechd.
//
// A Connection owns one daemon session. Notifications (begin, end, cancel, pause,
// resume and index marks) are routed by the daemon-assigned client id through a
// Registry to the handlers set with the On* methods.
package speechd

import (
	"fmt"
	"log/slog"
	"net"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/ilyapashuk/go-speechd/v2/ssip"
)

// Connection represents an open session with speech-dispatcher.
// You can have multiple connections with different parameters.
// A Connection is safe for concurrent use.
type Connection struct {
	sess     *session
	registry *Registry
	clientID uint64
	log      *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

var nameReplacer = strings.NewReplacer(":", "_", " ", "_", "\r", "_", "\n", "_")

// Open connects to speech-dispatcher and identifies the client as
// userName:clientName:connectionName. If the daemon cannot be reached and
// autospawn is enabled (the default), it is started with "speech-dispatcher --spawn".
//
// After connecting, the client id is discovered through the history facility
// and all notifications are enabled. If the id cannot be discovered, it is 0
// and handlers set on the connection will not receive notifications; speech
// operations are unaffected.
func Open(clientName, connectionName, userName string, mode Mode, opts ...Option) (*Connection, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.registry == nil {
		o.registry = NewRegistry()
	}

	addr := o.address
	if addr == nil {
		a, err := DefaultAddress()
		if err != nil {
			return nil, err
		}
		addr = &a
	}

	nc, err := dialDaemon(*addr, o)
	if err != nil {
		return nil, err
	}

	log := o.logger.With("address", addr.String())
	c := &Connection{
		registry: o.registry,
		log:      log,
	}
	c.sess = newSession(nc, mode, log, trampoline(o.registry))

	name := fmt.Sprintf("SET self CLIENT_NAME %s:%s:%s",
		nameReplacer.Replace(userName), nameReplacer.Replace(clientName), nameReplacer.Replace(connectionName))
	if _, err := c.sess.command(name); err != nil {
		_ = c.sess.close()
		return nil, fmt.Errorf("setting client name: %w", err)
	}

	c.clientID = c.discoverClientID()
	c.registry.add(c.clientID)
	if err := c.SetNotificationOn(NotifyAll); err != nil {
		log.Warn("enabling notifications failed", "error", err)
	}

	runtime.SetFinalizer(c, finalizeConnection)
	log.Debug("connection opened", "client_id", c.clientID, "mode", mode)
	return c, nil
}

// OpenAddress is Open with an explicit address and autospawn setting.
func OpenAddress(clientName, connectionName, userName string, mode Mode, addr Address, autospawn bool, opts ...Option) (*Connection, error) {
	opts = append(opts, WithAddress(addr), WithAutospawn(autospawn))
	return Open(clientName, connectionName, userName, mode, opts...)
}

func dialDaemon(addr Address, o options) (net.Conn, error) {
	nc, err := o.dial(addr.Network, addr.Addr)
	if err == nil {
		return nc, nil
	}
	if !o.autospawn {
		return nil, fmt.Errorf("%w: %s: %w", ErrDaemonUnavailable, addr, err)
	}

	o.logger.Info("speech-dispatcher not reachable, spawning", "address", addr.String(), "error", err)
	if err := spawnDaemon(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDaemonUnavailable, err)
	}
	nc, err = o.dial(addr.Network, addr.Addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDaemonUnavailable, addr, err)
	}
	return nc, nil
}

func (c *Connection) discoverClientID() uint64 {
	reply, err := c.SendData("HISTORY GET CLIENT_ID", true)
	if err != nil {
		c.log.Warn("client id discovery failed, notifications disabled", "error", err)
		return 0
	}
	id, ok := parseClientID(reply)
	if !ok {
		c.log.Warn("unparsable client id reply, notifications disabled", "reply", reply)
	}
	return id
}

// parseClientID extracts the id from the first line of a HISTORY GET CLIENT_ID
// reply, which is the second '-'-separated field, as in "245-42".
func parseClientID(reply string) (uint64, bool) {
	first, _, _ := strings.Cut(reply, "\n")
	parts := strings.Split(strings.TrimRight(first, "\r"), "-")
	if len(parts) < 2 {
		return 0, false
	}
	id, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// trampoline returns the notification hook installed on every session.
// It only translates the wire event and hands it to the registry.
func trampoline(reg *Registry) func(ssip.Event) {
	return func(ev ssip.Event) {
		reg.Dispatch(Event{
			Kind:      eventKind(ev.Code),
			MessageID: ev.MessageID,
			ClientID:  ev.ClientID,
			Mark:      ev.Mark,
		})
	}
}

func eventKind(code int) EventKind {
	switch code {
	case ssip.CodeBegin:
		return EventBegin
	case ssip.CodeEnd:
		return EventEnd
	case ssip.CodeCancel:
		return EventCancel
	case ssip.CodePause:
		return EventPause
	case ssip.CodeResume:
		return EventResume
	case ssip.CodeIndexMark:
		return EventIndexMark
	}
	panic(fmt.Sprintf("speechd: unknown notification code %d", code))
}

func finalizeConnection(c *Connection) {
	c.log.Debug("closing unreachable connection", "client_id", c.clientID)
	_ = c.Close()
}

// ClientID returns the daemon-assigned client id, or 0 if discovery failed.
func (c *Connection) ClientID() uint64 {
	return c.clientID
}

// Registry returns the registry holding this connection's handlers.
func (c *Connection) Registry() *Registry {
	return c.registry
}

// Close ends the session and removes the connection's handlers.
// It is safe to call more than once.
func (c *Connection) Close() error {
	c.closeOnce.Do(func() {
		runtime.SetFinalizer(c, nil)
		c.registry.remove(c.clientID)
		c.closeErr = c.sess.close()
		c.log.Debug("connection closed", "client_id", c.clientID)
	})
	return c.closeErr
}

// SendData sends a raw SSIP command line. With wait it returns the daemon's reply
// exactly as received, CRLF line endings included, whatever its status code.
// Without wait it returns an empty string and the reply is discarded on arrival.
func (c *Connection) SendData(data string, wait bool) (string, error) {
	r, err := c.sess.sendRaw(data, wait)
	runtime.KeepAlive(c)
	if err != nil {
		return "", err
	}
	if !wait {
		return "", nil
	}
	return r.Raw(), nil
}

// OnBegin sets the handler for begin notifications. Nil clears it.
func (c *Connection) OnBegin(f EventFunc) { c.setHandler(EventBegin, f) }

// OnEnd sets the handler for end notifications. Nil clears it.
func (c *Connection) OnEnd(f EventFunc) { c.setHandler(EventEnd, f) }

// OnCancel sets the handler for cancel notifications. Nil clears it.
func (c *Connection) OnCancel(f EventFunc) { c.setHandler(EventCancel, f) }

// OnPause sets the handler for pause notifications. Nil clears it.
func (c *Connection) OnPause(f EventFunc) { c.setHandler(EventPause, f) }

// OnResume sets the handler for resume notifications. Nil clears it.
func (c *Connection) OnResume(f EventFunc) { c.setHandler(EventResume, f) }

// OnIndexMark sets the handler for index mark notifications. Nil clears it.
func (c *Connection) OnIndexMark(f IndexMarkFunc) {
	if !c.registry.setIndexMark(c.clientID, f) {
		c.log.Debug("no registry entry, handler ignored", "client_id", c.clientID, "event", EventIndexMark)
	}
}

func (c *Connection) setHandler(kind EventKind, f EventFunc) {
	if !c.registry.setEvent(c.clientID, kind, f) {
		c.log.Debug("no registry entry, handler ignored", "client_id", c.clientID, "event", kind)
	}
}

// command and exchange keep c reachable until the round trip is over, so the
// finalizer cannot close the session under a running call.
func (c *Connection) command(line string) (ssip.Reply, error) {
	defer runtime.KeepAlive(c)
	return c.sess.command(line)
}

func (c *Connection) exchange(fn func() error) error {
	defer runtime.KeepAlive(c)
	return c.sess.exchange(fn)
}

// checkArg rejects values that would split a command line.
func checkArg(what, v string) error {
	if strings.ContainsAny(v, "\r\n") {
		return fmt.Errorf("%w: %s %q contains a line break", ErrInvalidArgument, what, v)
	}
	return nil
}

func messageID(r ssip.Reply) (uint64, error) {
	data := r.Data()
	if len(data) == 0 {
		return 0, fmt.Errorf("%w: no message id in %q", ErrUnexpectedReply, r.Raw())
	}
	id, err := strconv.ParseUint(data[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: message id %q: %w", ErrUnexpectedReply, data[0], err)
	}
	return id, nil
}
