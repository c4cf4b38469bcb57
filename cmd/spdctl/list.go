package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	speechd "github.com/ilyapashuk/go-speechd/v2"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "list <modules|voices|synthesis-voices>",
		Short:     "List output modules or voices",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"modules", "voices", "synthesis-voices"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withConn(func(conn *speechd.Connection) error {
				out := cmd.OutOrStdout()
				var names []string
				var err error
				switch args[0] {
				case "modules":
					names, err = conn.ListOutputModules()
				case "voices":
					names, err = conn.ListVoices()
				case "synthesis-voices":
					voices, err := conn.ListSynthesisVoices()
					if err != nil {
						return err
					}
					w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
					_, _ = fmt.Fprintln(w, "NAME\tLANGUAGE\tVARIANT")
					for _, v := range voices {
						_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", v.Name, v.Language, v.Variant)
					}
					return w.Flush()
				}
				if err != nil {
					return err
				}
				if len(names) > 0 {
					_, _ = fmt.Fprintln(out, strings.Join(names, "\n"))
				}
				return nil
			})
		},
	}
}

func newRawCmd(a *app) *cobra.Command {
	var noWait bool
	cmd := &cobra.Command{
		Use:   "raw <command...>",
		Short: "Send a raw SSIP command and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withConn(func(conn *speechd.Connection) error {
				reply, err := conn.SendData(strings.Join(args, " "), !noWait)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprint(cmd.OutOrStdout(), reply)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "do not wait for the reply")
	return cmd
}
