package cli

import (
	"context"
	"fmt"

	"github.com/ajith-kumar99/voicedesk/pkg/usecase/history"
	"github.com/urfave/cli/v3"
)

func historyCommand() *cli.Command {
	var (
		cfg    config
		agent  string
		offset int64
		limit  int64
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "agent",
			Aliases:     []string{"a"},
			Usage:       "Only list conversations of this front end",
			Sources:     cli.EnvVars("VOICEDESK_AGENT"),
			Destination: &agent,
		},
		&cli.IntFlag{
			Name:        "offset",
			Usage:       "Offset for pagination",
			Destination: &offset,
		},
		&cli.IntFlag{
			Name:        "limit",
			Usage:       "Maximum number of conversations to list",
			Value:       20,
			Destination: &limit,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "history",
		Usage: "List saved chat conversations",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.newLogger()
			repo, err := cfg.requireRepository(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			histories, err := history.List(ctx, repo, agent, int(offset), int(limit))
			if err != nil {
				return err
			}

			if len(histories) == 0 {
				fmt.Fprintf(c.Root().Writer, "No conversations found\n")
				return nil
			}

			for _, h := range histories {
				fmt.Fprintf(c.Root().Writer, "%s\t%s\t%s\t%s\n",
					h.ID,
					h.Agent,
					h.Title,
					h.UpdatedAt.Format("2006-01-02 15:04:05"),
				)
			}

			return nil
		},
	}
}
