package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func toolsCommand() *cli.Command {
	var cfg config
	registry := newRegistry()

	return &cli.Command{
		Name:  "tools",
		Usage: "List the operations of a front end",
		Flags: sessionFlags(&cfg, registry.Flags()),
		Action: func(ctx context.Context, c *cli.Command) error {
			_, sess, err := cfg.startSession(ctx, registry)
			if err != nil {
				return err
			}
			defer sess.Close()

			for _, name := range registry.EnabledTools() {
				fmt.Fprintf(c.Root().Writer, "%s\t%s\n", name, registry.Declaration(name).Description)
			}
			return nil
		},
	}
}
