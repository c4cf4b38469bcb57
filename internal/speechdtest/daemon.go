// Package speechdtest provides an in-process SSIP server standing in for
// speech-dispatcher in tests.
package speechdtest

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// Daemon is a scripted SSIP server listening on a unix socket.
// It answers the commands the speechd package sends with plausible replies,
// keeps per-client parameters for GET, and can push notifications.
type Daemon struct {
	// Path is the socket path.
	Path string

	// EmitOnSpeak makes the daemon send begin and end notifications after every
	// queued message, when the client enabled notifications.
	EmitOnSpeak bool

	ln net.Listener
	wg sync.WaitGroup

	mu        sync.Mutex
	clients   map[uint64]*Client
	nextID    uint64
	nextMsgID uint64
	scripted  map[string][]string
	commands  []string
	spoken    []string
}

// Client is one connection accepted by the daemon.
type Client struct {
	ID uint64

	conn   net.Conn
	wmu    sync.Mutex
	mu     sync.Mutex
	params map[string]string
	notify bool
}

// New starts a daemon and stops it when the test ends.
func New(t testing.TB) *Daemon {
	t.Helper()
	dir, err := os.MkdirTemp("", "spd")
	if err != nil {
		t.Fatalf("creating socket dir: %v", err)
	}
	path := filepath.Join(dir, "speechd.sock")
	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("listening on %s: %v", path, err)
	}
	d := &Daemon{
		Path:     path,
		ln:       ln,
		clients:  make(map[uint64]*Client),
		scripted: make(map[string][]string),
	}
	d.wg.Add(1)
	go d.serve()
	t.Cleanup(func() {
		d.Close()
		_ = os.RemoveAll(dir)
	})
	return d
}

// Address returns the daemon address in speech-dispatcher notation.
func (d *Daemon) Address() string {
	return "unix_socket:" + d.Path
}

// Close stops accepting and drops every client.
func (d *Daemon) Close() {
	_ = d.ln.Close()
	d.mu.Lock()
	for _, c := range d.clients {
		_ = c.conn.Close()
	}
	d.mu.Unlock()
	d.wg.Wait()
}

// Script makes every command starting with prefix (case-insensitive) answered
// with lines, each written as given followed by CRLF.
func (d *Daemon) Script(prefix string, lines ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scripted[strings.ToUpper(prefix)] = lines
}

// Commands returns every command line received so far, data blocks excluded.
func (d *Daemon) Commands() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.commands...)
}

// Spoken returns the text of every SPEAK data block received so far.
func (d *Daemon) Spoken() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.spoken...)
}

// Client returns the connected client with the given id.
func (d *Daemon) Client(id uint64) (*Client, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.clients[id]
	return c, ok
}

// Param returns the last value a client set for param, upper-cased name.
func (c *Client) Param(name string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params[strings.ToUpper(name)]
}

// Notify sends a notification to the client. mark is used for code 700 only.
func (c *Client) Notify(code int, msgID, clientID uint64, mark string) error {
	lines := []string{
		fmt.Sprintf("%d-%d", code, msgID),
		fmt.Sprintf("%d-%d", code, clientID),
	}
	if code == 700 {
		lines = append(lines, fmt.Sprintf("%d-%s", code, mark))
	}
	lines = append(lines, fmt.Sprintf("%d %s", code, eventStatus(code)))
	return c.write(lines...)
}

func eventStatus(code int) string {
	switch code {
	case 700:
		return "INDEX MARK"
	case 701:
		return "BEGIN"
	case 702:
		return "END"
	case 703:
		return "CANCELED"
	case 704:
		return "PAUSED"
	case 705:
		return "RESUMED"
	}
	return "EVENT"
}

func (c *Client) write(lines ...string) error {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteString("\r\n")
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_, err := io.WriteString(c.conn, b.String())
	return err
}

func (d *Daemon) serve() {
	defer d.wg.Done()
	for {
		conn, err := d.ln.Accept()
		if err != nil {
			return
		}
		d.mu.Lock()
		d.nextID++
		c := &Client{ID: d.nextID, conn: conn, params: make(map[string]string)}
		d.clients[c.ID] = c
		d.mu.Unlock()

		d.wg.Add(1)
		go d.handle(c)
	}
}

func (d *Daemon) handle(c *Client) {
	defer d.wg.Done()
	defer func() {
		_ = c.conn.Close()
		d.mu.Lock()
		delete(d.clients, c.ID)
		d.mu.Unlock()
	}()

	s := bufio.NewScanner(c.conn)
	for s.Scan() {
		line := s.Text()
		d.mu.Lock()
		d.commands = append(d.commands, line)
		d.mu.Unlock()

		if lines, ok := d.scriptFor(line); ok {
			if c.write(lines...) != nil {
				return
			}
			continue
		}

		upper := strings.ToUpper(line)
		fields := strings.Fields(line)
		switch {
		case upper == "QUIT":
			_ = c.write("231 HAPPY HACKING")
			return
		case upper == "SPEAK":
			if c.write("230 OK RECEIVING DATA") != nil {
				return
			}
			text, ok := readData(s)
			if !ok {
				return
			}
			d.mu.Lock()
			d.spoken = append(d.spoken, text)
			d.mu.Unlock()
			if !d.queued(c) {
				return
			}
		case len(fields) == 2 && (strings.EqualFold(fields[0], "CHAR") ||
			strings.EqualFold(fields[0], "KEY") || strings.EqualFold(fields[0], "SOUND_ICON")):
			if !d.queued(c) {
				return
			}
		case upper == "HISTORY GET CLIENT_ID":
			_ = c.write(fmt.Sprintf("245-%d", c.ID), "245 OK CLIENT ID SENT")
		case len(fields) >= 4 && strings.EqualFold(fields[0], "SET"):
			c.set(fields[2], strings.Join(fields[3:], " "))
			_ = c.write("200 OK SET")
		case len(fields) == 2 && strings.EqualFold(fields[0], "GET"):
			v := c.Param(fields[1])
			if v == "" {
				v = defaultParam(fields[1])
			}
			_ = c.write("251-"+v, "251 OK GET RETURNED")
		case len(fields) == 2 && isControl(fields[0]):
			_ = c.write("210 OK " + strings.ToUpper(fields[0]))
		case upper == "LIST OUTPUT_MODULES":
			_ = c.write("250-espeak-ng", "250-dummy", "250 OK MODULE LIST SENT")
		case upper == "LIST VOICES":
			_ = c.write("249-MALE1", "249-FEMALE1", "249 OK VOICE LIST SENT")
		case upper == "LIST SYNTHESIS_VOICES":
			_ = c.write("249-english\ten\tnone", "249-french\tfr\tnone", "249 OK VOICE LIST SENT")
		default:
			_ = c.write("500 ERR INVALID COMMAND")
		}
	}
}

func (d *Daemon) scriptFor(line string) ([]string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	upper := strings.ToUpper(line)
	for prefix, lines := range d.scripted {
		if strings.HasPrefix(upper, prefix) {
			return lines, true
		}
	}
	return nil, false
}

func (d *Daemon) queued(c *Client) bool {
	d.mu.Lock()
	d.nextMsgID++
	id := d.nextMsgID
	emit := d.EmitOnSpeak
	d.mu.Unlock()

	if c.write(fmt.Sprintf("225-%d", id), "225 OK MESSAGE QUEUED") != nil {
		return false
	}
	c.mu.Lock()
	notify := c.notify
	c.mu.Unlock()
	if emit && notify {
		_ = c.Notify(701, id, c.ID, "")
		_ = c.Notify(702, id, c.ID, "")
	}
	return true
}

func (c *Client) set(param, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	param = strings.ToUpper(param)
	c.params[param] = value
	if param == "NOTIFICATION" {
		c.notify = strings.HasSuffix(strings.ToLower(value), " on")
	}
}

func readData(s *bufio.Scanner) (string, bool) {
	var lines []string
	for s.Scan() {
		l := s.Text()
		if l == "." {
			return strings.Join(lines, "\n"), true
		}
		lines = append(lines, strings.TrimPrefix(l, "."))
	}
	return "", false
}

func isControl(cmd string) bool {
	switch strings.ToUpper(cmd) {
	case "STOP", "CANCEL", "PAUSE", "RESUME":
		return true
	}
	return false
}

func defaultParam(name string) string {
	switch strings.ToUpper(name) {
	case "RATE", "PITCH", "VOLUME":
		return strconv.Itoa(0)
	case "VOICE_TYPE":
		return "MALE1"
	case "LANGUAGE":
		return "en"
	case "OUTPUT_MODULE":
		return "espeak-ng"
	}
	return ""
}
