package cli

import (
	"context"
	"fmt"

	"github.com/ajith-kumar99/voicedesk/pkg/model"
	"github.com/ajith-kumar99/voicedesk/pkg/usecase/history"
	"github.com/urfave/cli/v3"
)

func listCommand() *cli.Command {
	var (
		cfg    config
		kind   string
		offset int64
		limit  int64
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "kind",
			Aliases:     []string{"k"},
			Usage:       "Record kind (order, lead, coffee_order)",
			Value:       string(model.SnapshotKindOrder),
			Destination: &kind,
		},
		&cli.IntFlag{
			Name:        "offset",
			Usage:       "Offset for pagination",
			Destination: &offset,
		},
		&cli.IntFlag{
			Name:        "limit",
			Usage:       "Maximum number of records to list",
			Value:       20,
			Destination: &limit,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "list",
		Usage: "List saved orders and leads, newest first",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.newLogger()
			repo, err := cfg.requireRepository(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			records, err := history.Records(ctx, repo, model.SnapshotKind(kind), int(offset), int(limit))
			if err != nil {
				return err
			}

			for _, r := range records {
				fmt.Fprintf(c.Root().Writer, "%s\t%s\t%s\t%s\n",
					r.ID, r.Key, r.Status, r.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}
