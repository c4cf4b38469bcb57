package ssip

import (
	"bufio"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func pipe(t *testing.T) (*Conn, net.Conn) {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() {
		_ = client.Close()
		_ = server.Close()
	})
	return NewConn(client), server
}

func TestReadReplyMultiline(t *testing.T) {
	c, server := pipe(t)
	go func() {
		_, _ = io.WriteString(server, "225-17\r\n225 OK MESSAGE QUEUED\r\n")
	}()

	r, err := c.ReadReply()
	require.NoError(t, err)
	require.Equal(t, 225, r.Code)
	require.True(t, r.OK())
	require.Equal(t, []string{"17"}, r.Data())
	require.Equal(t, "OK MESSAGE QUEUED", r.Status())
	require.Equal(t, "225-17\r\n225 OK MESSAGE QUEUED\r\n", r.Raw())
}

func TestReadReplyMalformed(t *testing.T) {
	c, server := pipe(t)
	go func() {
		_, _ = io.WriteString(server, "hello world\r\n")
	}()

	_, err := c.ReadReply()
	require.ErrorIs(t, err, ErrMalformedReply)
}

func TestReadReplyEOF(t *testing.T) {
	c, server := pipe(t)
	require.NoError(t, server.Close())

	_, err := c.ReadReply()
	require.ErrorIs(t, err, io.EOF)
}

func TestWriteDataEscapesDots(t *testing.T) {
	c, server := pipe(t)
	lines := make(chan []string, 1)
	go func() {
		var got []string
		s := bufio.NewScanner(server)
		for s.Scan() {
			got = append(got, s.Text())
			if s.Text() == "." {
				break
			}
		}
		lines <- got
	}()

	require.NoError(t, c.WriteData("first\r\n.hidden\nlast"))
	require.Equal(t, []string{"first", "..hidden", "last", "."}, <-lines)
}

func TestParseEvent(t *testing.T) {
	ev, err := ParseEvent(Reply{Code: CodeBegin, Lines: []string{"12", "3", "BEGIN"}})
	require.NoError(t, err)
	require.Equal(t, Event{Code: CodeBegin, MessageID: 12, ClientID: 3}, ev)

	ev, err = ParseEvent(Reply{Code: CodeIndexMark, Lines: []string{"12", "3", "mark-1", "INDEX MARK"}})
	require.NoError(t, err)
	require.Equal(t, "mark-1", ev.Mark)

	_, err = ParseEvent(Reply{Code: CodeIndexMark, Lines: []string{"12", "3", "INDEX MARK"}})
	require.ErrorIs(t, err, ErrMalformedReply)

	_, err = ParseEvent(Reply{Code: 225, Lines: []string{"OK"}})
	require.ErrorIs(t, err, ErrMalformedReply)
}
