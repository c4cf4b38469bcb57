package speechd

import (
	"log/slog"
	"net"
)

// Option configures Open.
type Option func(*options)

type options struct {
	address   *Address
	autospawn bool
	registry  *Registry
	logger    *slog.Logger
	dial      func(network, addr string) (net.Conn, error)
}

func defaultOptions() options {
	return options{
		autospawn: true,
		dial:      net.Dial,
	}
}

// WithAddress connects to a instead of DefaultAddress().
func WithAddress(a Address) Option {
	return func(o *options) { o.address = &a }
}

// WithAutospawn controls whether the daemon is started when it cannot be reached.
// It is enabled by default.
func WithAutospawn(v bool) Option {
	return func(o *options) { o.autospawn = v }
}

// WithRegistry makes the connection register its callbacks in r.
// Connections opened with the same registry share one lock and one id space.
// Without this option every connection gets a private registry.
func WithRegistry(r *Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithLogger sets the logger used for protocol diagnostics. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// withDial replaces net.Dial. Used by tests exercising autospawn.
func withDial(dial func(network, addr string) (net.Conn, error)) Option {
	return func(o *options) { o.dial = dial }
}
