package speechd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// DefaultPort is the TCP port speech-dispatcher listens on in inet_socket mode.
	DefaultPort = 6560

	addressEnv = "SPEECHD_ADDRESS"
)

// Address is the location of the speech-dispatcher socket.
// Its textual form is the one used by speech-dispatcher itself:
// "unix_socket[:path]" or "inet_socket[:host[:port]]".
type Address struct {
	// Network is "unix" or "tcp".
	Network string
	// Addr is the socket path for unix or host:port for tcp.
	Addr string
}

// ParseAddress parses an address in speech-dispatcher notation.
// Omitted parts take the values speech-dispatcher itself defaults to.
func ParseAddress(s string) (Address, error) {
	method, rest, _ := strings.Cut(s, ":")
	switch method {
	case "unix_socket":
		if rest == "" {
			rest = defaultSocketPath()
		}
		return Address{Network: "unix", Addr: rest}, nil
	case "inet_socket":
		host, port, hasPort := strings.Cut(rest, ":")
		if host == "" {
			host = "127.0.0.1"
		}
		if !hasPort || port == "" {
			port = fmt.Sprint(DefaultPort)
		}
		return Address{Network: "tcp", Addr: host + ":" + port}, nil
	default:
		return Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
}

// DefaultAddress returns the address a client should use.
// If the SPEECHD_ADDRESS environment variable is set, its content is parsed.
// Otherwise the per-user unix socket is used, which is correct for the default
// configuration on most systems.
func DefaultAddress() (Address, error) {
	if v, ok := os.LookupEnv(addressEnv); ok && v != "" {
		return ParseAddress(v)
	}
	return Address{Network: "unix", Addr: defaultSocketPath()}, nil
}

// String returns the address in speech-dispatcher notation.
func (a Address) String() string {
	switch a.Network {
	case "unix":
		return "unix_socket:" + a.Addr
	case "tcp":
		return "inet_socket:" + a.Addr
	default:
		return a.Network + ":" + a.Addr
	}
}

func defaultSocketPath() string {
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		runtimeDir = filepath.Join(os.TempDir(), fmt.Sprintf("speechd-%d", os.Getuid()))
	}
	return filepath.Join(runtimeDir, "speech-dispatcher", "speechd.sock")
}
