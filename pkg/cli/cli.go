package cli

import (
	"context"

	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	cmd := &cli.Command{
		Name:  "voicedesk",
		Usage: "Session state and lookup engine for voice assistants",
		Commands: []*cli.Command{
			serveCommand(),
			callCommand(),
			toolsCommand(),
			chatCommand(),
			historyCommand(),
			listCommand(),
			showCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}

// sessionFlags returns the flags of a command that runs a front end
func sessionFlags(cfg *config, extra ...[]cli.Flag) []cli.Flag {
	flags := globalFlags(cfg)
	flags = append(flags, agentFlags(cfg)...)
	for _, f := range extra {
		flags = append(flags, f...)
	}
	return flags
}
