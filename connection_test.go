package speechd

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os/exec"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ilyapashuk/go-speechd/v2/internal/speechdtest"
)

var quietLogger = slog.New(slog.DiscardHandler)

func daemonAddress(t *testing.T, d *speechdtest.Daemon) Address {
	t.Helper()
	addr, err := ParseAddress(d.Address())
	require.NoError(t, err)
	return addr
}

func openTest(t *testing.T, d *speechdtest.Daemon, mode Mode, opts ...Option) *Connection {
	t.Helper()
	opts = append([]Option{
		WithAddress(daemonAddress(t, d)),
		WithAutospawn(false),
		WithLogger(quietLogger),
	}, opts...)
	c, err := Open("test", "main", "tester", mode, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func waitFor[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for notification")
	}
	var zero T
	return zero
}

func TestParseClientID(t *testing.T) {
	tests := []struct {
		reply string
		id    uint64
		ok    bool
	}{
		{"t1-42\r\n", 42, true},
		{"245-42\r\n245 OK CLIENT ID SENT\r\n", 42, true},
		{"245-7\n245 OK\n", 7, true},
		{"no hyphen\r\n", 0, false},
		{"245-abc\r\n", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			id, ok := parseClientID(tt.reply)
			require.Equal(t, tt.id, id)
			require.Equal(t, tt.ok, ok)
		})
	}
}

func TestOpenSetup(t *testing.T) {
	d := speechdtest.New(t)
	c := openTest(t, d, ModeSingle)

	require.NotZero(t, c.ClientID())
	require.True(t, c.Registry().Has(c.ClientID()))

	cmds := d.Commands()
	require.GreaterOrEqual(t, len(cmds), 3)
	require.Equal(t, "SET self CLIENT_NAME tester:test:main", cmds[0])
	require.Equal(t, "HISTORY GET CLIENT_ID", cmds[1])
	require.Equal(t, "SET self NOTIFICATION all on", cmds[2])
}

func TestOpenSanitizesClientName(t *testing.T) {
	d := speechdtest.New(t)
	c, err := Open("my app\r\nSET self RATE 99", "main", "user:x", ModeSingle,
		WithAddress(daemonAddress(t, d)), WithAutospawn(false), WithLogger(quietLogger))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	require.Equal(t, "SET self CLIENT_NAME user_x:my_app__SET_self_RATE_99:main", d.Commands()[0])
	require.Zero(t, countCommand(d, "SET self RATE 99"))
}

func TestOpenDiscoveredClientID(t *testing.T) {
	d := speechdtest.New(t)
	d.Script("HISTORY GET CLIENT_ID", "245-42", "245 OK CLIENT ID SENT")
	c := openTest(t, d, ModeSingle)

	require.Equal(t, uint64(42), c.ClientID())
}

func TestOpenMalformedClientIDFallsBackToZero(t *testing.T) {
	d := speechdtest.New(t)
	d.Script("HISTORY GET CLIENT_ID", "245 OK CLIENT ID SENT")
	c := openTest(t, d, ModeSingle)

	require.Zero(t, c.ClientID())
	require.True(t, c.Registry().Has(0))

	// Speech still works in the degraded state.
	id, err := c.Say(Text, "still speaking")
	require.NoError(t, err)
	require.NotZero(t, id)
}

func TestOpenClientNameRefused(t *testing.T) {
	d := speechdtest.New(t)
	d.Script("SET self CLIENT_NAME", "409 ERR CLIENT NAME")

	_, err := Open("test", "main", "tester", ModeSingle,
		WithAddress(daemonAddress(t, d)), WithAutospawn(false), WithLogger(quietLogger))
	code, ok := ReplyCode(err)
	require.True(t, ok)
	require.Equal(t, 409, code)
}

func TestOpenUnavailable(t *testing.T) {
	addr := Address{Network: "unix", Addr: "/nonexistent/speechd.sock"}
	_, err := OpenAddress("test", "main", "tester", ModeSingle, addr, false, WithLogger(quietLogger))
	require.ErrorIs(t, err, ErrDaemonUnavailable)
}

func TestOpenAutospawn(t *testing.T) {
	d := speechdtest.New(t)
	addr := daemonAddress(t, d)

	original := execCommand
	t.Cleanup(func() { execCommand = original })
	var spawned []string
	execCommand = func(name string, args ...string) *exec.Cmd {
		spawned = append(spawned, name)
		spawned = append(spawned, args...)
		return exec.Command("true")
	}

	attempts := 0
	dial := func(network, a string) (net.Conn, error) {
		attempts++
		if attempts == 1 {
			return nil, errors.New("connection refused")
		}
		return net.Dial(network, a)
	}

	c, err := OpenAddress("test", "main", "tester", ModeSingle, addr, true,
		WithLogger(quietLogger), withDial(dial))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	require.Equal(t, []string{"speech-dispatcher", "--spawn"}, spawned)
	require.Equal(t, 2, attempts)
}

func TestOpenAutospawnFails(t *testing.T) {
	original := execCommand
	t.Cleanup(func() { execCommand = original })
	execCommand = func(string, ...string) *exec.Cmd { return exec.Command("false") }

	addr := Address{Network: "unix", Addr: "/nonexistent/speechd.sock"}
	_, err := OpenAddress("test", "main", "tester", ModeSingle, addr, true, WithLogger(quietLogger))
	require.ErrorIs(t, err, ErrDaemonUnavailable)
}

func TestCloseIsIdempotent(t *testing.T) {
	d := speechdtest.New(t)
	reg := NewRegistry()
	c := openTest(t, d, ModeThreaded, WithRegistry(reg))
	id := c.ClientID()

	require.NoError(t, c.Close())
	require.False(t, reg.Has(id))
	require.NoError(t, c.Close())
	require.Equal(t, 0, reg.Len())

	_, err := c.Say(Text, "after close")
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, c.Stop(), ErrClosed)
}

func countCommand(d *speechdtest.Daemon, line string) int {
	n := 0
	for _, c := range d.Commands() {
		if c == line {
			n++
		}
	}
	return n
}

func TestCloseThenFinalizerReleasesOnce(t *testing.T) {
	d := speechdtest.New(t)
	reg := NewRegistry()
	c := openTest(t, d, ModeThreaded, WithRegistry(reg))
	id := c.ClientID()

	require.NoError(t, c.Close())
	require.False(t, reg.Has(id))
	require.Eventually(t, func() bool { return countCommand(d, "QUIT") == 1 },
		3*time.Second, 10*time.Millisecond)

	// A later entry under the same id must survive the automatic teardown.
	reg.add(id)
	finalizeConnection(c)
	require.True(t, reg.Has(id))
	require.Never(t, func() bool { return countCommand(d, "QUIT") > 1 },
		200*time.Millisecond, 10*time.Millisecond)
}

func openUnreferenced(t *testing.T, d *speechdtest.Daemon, reg *Registry) uint64 {
	c, err := Open("test", "main", "tester", ModeSingle,
		WithAddress(daemonAddress(t, d)), WithAutospawn(false), WithLogger(quietLogger), WithRegistry(reg))
	require.NoError(t, err)
	return c.ClientID()
}

func TestUnreachableConnectionIsClosed(t *testing.T) {
	d := speechdtest.New(t)
	reg := NewRegistry()
	id := openUnreferenced(t, d, reg)
	require.True(t, reg.Has(id))

	require.Eventually(t, func() bool {
		runtime.GC()
		return !reg.Has(id)
	}, 5*time.Second, 20*time.Millisecond)
	require.Eventually(t, func() bool { return countCommand(d, "QUIT") == 1 },
		3*time.Second, 10*time.Millisecond)
}

func TestCloseDropsLaterNotifications(t *testing.T) {
	d := speechdtest.New(t)
	reg := NewRegistry()
	a := openTest(t, d, ModeThreaded, WithRegistry(reg))
	b := openTest(t, d, ModeThreaded, WithRegistry(reg))

	var mu sync.Mutex
	var got []uint64
	record := func(_, clientID uint64) {
		mu.Lock()
		got = append(got, clientID)
		mu.Unlock()
	}
	a.OnEnd(record)
	b.OnEnd(record)

	closedID := a.ClientID()
	require.NoError(t, a.Close())

	// Delivered through the shared registry, as the daemon would on b's socket.
	reg.Dispatch(Event{Kind: EventEnd, MessageID: 1, ClientID: closedID})
	reg.Dispatch(Event{Kind: EventEnd, MessageID: 2, ClientID: b.ClientID()})

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []uint64{b.ClientID()}, got)
}

func TestThreadedNotifications(t *testing.T) {
	d := speechdtest.New(t)
	c := openTest(t, d, ModeThreaded)
	client, ok := d.Client(c.ClientID())
	require.True(t, ok)

	type ev struct {
		kind   EventKind
		msg    uint64
		client uint64
		mark   string
	}
	events := make(chan ev, 8)
	handler := func(kind EventKind) EventFunc {
		return func(msgID, clientID uint64) { events <- ev{kind, msgID, clientID, ""} }
	}
	c.OnBegin(handler(EventBegin))
	c.OnEnd(handler(EventEnd))
	c.OnCancel(handler(EventCancel))
	c.OnPause(handler(EventPause))
	c.OnResume(handler(EventResume))
	c.OnIndexMark(func(msgID, clientID uint64, mark string) {
		events <- ev{EventIndexMark, msgID, clientID, mark}
	})

	id := c.ClientID()
	require.NoError(t, client.Notify(701, 10, id, ""))
	require.NoError(t, client.Notify(700, 10, id, "chapter-1"))
	require.NoError(t, client.Notify(704, 10, id, ""))
	require.NoError(t, client.Notify(705, 10, id, ""))
	require.NoError(t, client.Notify(702, 10, id, ""))
	require.NoError(t, client.Notify(703, 11, id, ""))

	want := []ev{
		{EventBegin, 10, id, ""},
		{EventIndexMark, 10, id, "chapter-1"},
		{EventPause, 10, id, ""},
		{EventResume, 10, id, ""},
		{EventEnd, 10, id, ""},
		{EventCancel, 11, id, ""},
	}
	for _, w := range want {
		require.Equal(t, w, waitFor(t, events))
	}
}

func TestSingleModeDeliversDuringNextCommand(t *testing.T) {
	d := speechdtest.New(t)
	c := openTest(t, d, ModeSingle)
	client, ok := d.Client(c.ClientID())
	require.True(t, ok)

	var begins []uint64
	c.OnBegin(func(msgID, _ uint64) { begins = append(begins, msgID) })

	require.NoError(t, client.Notify(701, 3, c.ClientID(), ""))
	require.Empty(t, begins)

	rate, err := c.VoiceRate()
	require.NoError(t, err)
	require.Equal(t, 0, rate)
	require.Equal(t, []uint64{3}, begins)
}

func TestHandlerMaySpeak(t *testing.T) {
	for _, mode := range []Mode{ModeSingle, ModeThreaded} {
		t.Run(mode.String(), func(t *testing.T) {
			d := speechdtest.New(t)
			d.EmitOnSpeak = true
			c := openTest(t, d, mode)

			done := make(chan error, 1)
			var once sync.Once
			c.OnEnd(func(uint64, uint64) {
				once.Do(func() {
					_, err := c.Say(Message, "follow up")
					done <- err
				})
			})

			_, err := c.Say(Text, "first")
			require.NoError(t, err)
			if mode == ModeSingle {
				// The end notification is read by the next exchange.
				_, err := c.VoiceRate()
				require.NoError(t, err)
			}
			require.NoError(t, waitFor(t, done))
			require.Contains(t, d.Spoken(), "follow up")
		})
	}
}

func TestRegisteringWithoutEntryIsNoop(t *testing.T) {
	d := speechdtest.New(t)
	reg := NewRegistry()
	c := openTest(t, d, ModeSingle, WithRegistry(reg))
	reg.remove(c.ClientID())

	c.OnBegin(func(uint64, uint64) {})
	c.OnIndexMark(func(uint64, uint64, string) {})
	require.Equal(t, 0, reg.Len())
}

func TestConcurrentConnectionsStress(t *testing.T) {
	const n = 8
	d := speechdtest.New(t)
	reg := NewRegistry()
	addr := daemonAddress(t, d)

	conns := make([]*Connection, n)
	counts := make([]int64, n)
	var countMu sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := OpenAddress(fmt.Sprintf("c%d", i), "main", "tester", ModeThreaded, addr, false,
				WithRegistry(reg), WithLogger(quietLogger))
			if err != nil {
				t.Errorf("open %d: %v", i, err)
				return
			}
			conns[i] = c
		}(i)
	}
	wg.Wait()
	require.Equal(t, n, reg.Len())

	for i, c := range conns {
		wg.Add(2)
		go func(i int, c *Connection) {
			defer wg.Done()
			for round := 0; round < 50; round++ {
				if round%2 == 0 {
					c.OnBegin(func(uint64, uint64) {
						countMu.Lock()
						counts[i]++
						countMu.Unlock()
					})
				} else {
					c.OnBegin(nil)
				}
			}
		}(i, c)
		go func(c *Connection) {
			defer wg.Done()
			client, ok := d.Client(c.ClientID())
			if !ok {
				t.Errorf("no daemon client for %d", c.ClientID())
				return
			}
			for msg := uint64(0); msg < 50; msg++ {
				_ = client.Notify(701, msg, c.ClientID(), "")
			}
		}(c)
	}

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(10 * time.Second):
		t.Fatal("concurrent open/register/notify deadlocked")
	}

	for _, c := range conns {
		require.NoError(t, c.Close())
	}
	require.Equal(t, 0, reg.Len())
}

func TestUnknownEventCodePanics(t *testing.T) {
	require.Panics(t, func() { eventKind(799) })
	require.Equal(t, EventIndexMark, eventKind(700))
}
