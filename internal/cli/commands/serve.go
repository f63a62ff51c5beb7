package commands

import (
	"fmt"

	"github.com/leapstack-labs/prefixsql/internal/web"
	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve flash messages over HTTP",
		Long: `Start an HTTP server storing flash messages in cookie sessions.

Routes:
  POST   /flash/{type}         store the form field "message"
  GET    /flash?key=           read and remove the messages of a key
  DELETE /flash?key=&type=     remove messages, optionally of one type
  GET    /flash/keys           list keys holding messages
  GET    /flash/sse?key=       consume messages as a datastar signal patch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContext(cmd)
			srv := web.NewServer(web.Config{
				Addr:          fmt.Sprintf(":%d", cmdCtx.Cfg.Server.Port),
				SessionSecret: cmdCtx.Cfg.Server.SessionSecret,
				Flash:         cmdCtx.Cfg.Flash,
				Logger:        cmdCtx.Logger,
			})
			return srv.Serve(cmd.Context())
		},
	}

	cmd.Flags().Int("port", 0, "Port to listen on")
	return cmd
}
