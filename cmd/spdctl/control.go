package main

import (
	"github.com/spf13/cobra"

	speechd "github.com/ilyapashuk/go-speechd/v2"
)

func newControlCmd(a *app, name, short string,
	self func(*speechd.Connection) error,
	all func(*speechd.Connection) error,
	uid func(*speechd.Connection, uint64) error) *cobra.Command {
	var scope scopeFlags
	cmd := &cobra.Command{
		Use:   name,
		Short: short,
		Long: short + `.

Without flags the command applies to spdctl's own connection, which is only
useful with --uid or --all.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withConn(func(conn *speechd.Connection) error {
				switch scope.pick(cmd) {
				case "all":
					return all(conn)
				case "uid":
					return uid(conn, scope.uid)
				default:
					return self(conn)
				}
			})
		},
	}
	scope.register(cmd)
	return cmd
}
