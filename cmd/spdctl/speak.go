package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	speechd "github.com/ilyapashuk/go-speechd/v2"
)

// ErrSpeechCanceled is returned by say --wait when the message was canceled
// before it was fully spoken.
var ErrSpeechCanceled = errors.New("speech canceled")

// ErrWaitTimeout is returned by say --wait when the message did not finish in time.
var ErrWaitTimeout = errors.New("timed out waiting for speech to finish")

type finish struct {
	msgID    uint64
	canceled bool
}

func newSayCmd(a *app) *cobra.Command {
	var (
		wait    bool
		ssml    bool
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "say [text...]",
		Short: "Speak text",
		Long: `Speak the arguments joined by spaces, or standard input when no
arguments are given. The message id is printed on success.

With --wait the command returns only after the message has been spoken,
and fails if it was canceled. Waiting implies --threaded.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("reading text: %w", err)
				}
				text = strings.TrimRight(string(b), "\n")
			}
			if wait {
				a.cfg.Speechd.Threaded = true
			}
			return a.withConn(func(conn *speechd.Connection) error {
				if ssml {
					if err := conn.SetDataMode(speechd.DataSSML); err != nil {
						return err
					}
				}

				var finished chan finish
				if wait {
					finished = make(chan finish, 16)
					conn.OnEnd(func(msgID, _ uint64) { notify(finished, finish{msgID: msgID}) })
					conn.OnCancel(func(msgID, _ uint64) { notify(finished, finish{msgID: msgID, canceled: true}) })
				}

				id, err := conn.Say(a.cfg.Voice.ParsedPriority(), text)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), id)
				if !wait || id == 0 {
					return nil
				}
				return waitFinished(finished, id, timeout)
			})
		},
	}
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "wait until the message has been spoken")
	cmd.Flags().BoolVar(&ssml, "ssml", false, "the text is SSML markup")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "give up waiting after this long (0 waits forever)")
	return cmd
}

func notify(ch chan<- finish, f finish) {
	select {
	case ch <- f:
	default:
	}
}

func waitFinished(finished <-chan finish, id uint64, timeout time.Duration) error {
	var expired <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}
	for {
		select {
		case f := <-finished:
			if f.msgID != id {
				continue
			}
			if f.canceled {
				return fmt.Errorf("message %d: %w", id, ErrSpeechCanceled)
			}
			return nil
		case <-expired:
			return fmt.Errorf("message %d: %w", id, ErrWaitTimeout)
		}
	}
}

func newSubmitCmd(a *app, name, short string,
	submit func(*speechd.Connection, speechd.Priority, string) (uint64, error)) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <" + name + ">",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withConn(func(conn *speechd.Connection) error {
				id, err := submit(conn, a.cfg.Voice.ParsedPriority(), args[0])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			})
		},
	}
}
