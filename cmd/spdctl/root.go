package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	speechd "github.com/ilyapashuk/go-speechd/v2"
	"github.com/ilyapashuk/go-speechd/v2/internal/config"
)

// app carries state shared by the commands of one invocation.
type app struct {
	configFile string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "spdctl",
		Short: "Control speech-dispatcher from the command line",
		Long: `spdctl talks to a running speech-dispatcher over SSIP.

Settings are read from spdctl.yaml (current directory, $XDG_CONFIG_HOME/spdctl
or /etc/spdctl), from SPDCTL_* environment variables and from flags, in
increasing order of precedence.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configFile, cmd.Flags())
			if err != nil {
				return err
			}
			config.SetupLogging(cfg.Logging, cmd.ErrOrStderr())
			a.cfg = cfg
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "path to config file")
	pf.String("address", "", "daemon address (unix_socket:/path or inet_socket:host:port)")
	pf.Bool("autospawn", true, "start speech-dispatcher when it is not running")
	pf.Bool("threaded", false, "read notifications on a background goroutine")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.StringP("priority", "p", "", "message priority (important, message, text, notification, progress)")

	root.AddCommand(
		newSayCmd(a),
		newSubmitCmd(a, "char", "Speak a single character", (*speechd.Connection).Char),
		newSubmitCmd(a, "key", "Speak a key name such as shift_a", (*speechd.Connection).Key),
		newSubmitCmd(a, "icon", "Play a sound icon", (*speechd.Connection).SoundIcon),
		newControlCmd(a, "stop", "Stop the message being spoken",
			(*speechd.Connection).Stop, (*speechd.Connection).StopAll, (*speechd.Connection).StopUID),
		newControlCmd(a, "cancel", "Stop speech and discard queued messages",
			(*speechd.Connection).Cancel, (*speechd.Connection).CancelAll, (*speechd.Connection).CancelUID),
		newControlCmd(a, "pause", "Pause speech at the next index mark",
			(*speechd.Connection).Pause, (*speechd.Connection).PauseAll, (*speechd.Connection).PauseUID),
		newControlCmd(a, "resume", "Resume paused speech",
			(*speechd.Connection).Resume, (*speechd.Connection).ResumeAll, (*speechd.Connection).ResumeUID),
		newSetCmd(a),
		newGetCmd(a),
		newListCmd(a),
		newRawCmd(a),
	)
	return root
}

// open connects with the loaded configuration and applies the configured voice.
func (a *app) open() (*speechd.Connection, error) {
	conn, err := a.cfg.Speechd.Open(speechd.WithLogger(slog.Default()))
	if err != nil {
		return nil, err
	}
	if err := a.cfg.Voice.Apply(conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("applying voice settings: %w", err)
	}
	return conn, nil
}

// withConn runs fn on a fresh connection and closes it afterwards.
func (a *app) withConn(fn func(*speechd.Connection) error) error {
	conn, err := a.open()
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()
	return fn(conn)
}

// scopeFlags selects self, every client or one client id.
type scopeFlags struct {
	all bool
	uid uint64
}

func (s *scopeFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&s.all, "all", false, "apply to every client")
	cmd.Flags().Uint64Var(&s.uid, "uid", 0, "apply to the client with this id")
	cmd.MarkFlagsMutuallyExclusive("all", "uid")
}

func (s *scopeFlags) pick(cmd *cobra.Command) string {
	switch {
	case s.all:
		return "all"
	case cmd.Flags().Changed("uid"):
		return "uid"
	default:
		return "self"
	}
}
