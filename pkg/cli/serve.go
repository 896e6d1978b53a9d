package cli

import (
	"context"

	"github.com/ajith-kumar99/voicedesk/pkg/service/mcp"
	"github.com/urfave/cli/v3"
)

func serveCommand() *cli.Command {
	var cfg config
	registry := newRegistry()

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the operations of a front end to a voice host over MCP stdio",
		Flags: sessionFlags(&cfg, registry.Flags()),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, sess, err := cfg.startSession(ctx, registry)
			if err != nil {
				return err
			}
			defer sess.Close()

			server, err := mcp.NewServer(registry, mcp.WithLogger(sess.logger))
			if err != nil {
				return err
			}
			return server.Run(ctx)
		},
	}
}
