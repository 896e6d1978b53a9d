package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ajith-kumar99/voicedesk/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func showCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:      "show",
		Usage:     "Show a saved order or lead",
		ArgsUsage: "<record-id>",
		Flags:     globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() < 1 {
				return goerr.New("record id is required")
			}
			id := model.SnapshotID(c.Args().Get(0))

			cfg.newLogger()
			repo, err := cfg.requireRepository(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			snapshot, err := repo.GetSnapshot(ctx, id)
			if err != nil {
				return goerr.Wrap(err, "failed to show record")
			}

			data, err := json.MarshalIndent(snapshot.Payload, "", "  ")
			if err != nil {
				return goerr.Wrap(err, "failed to marshal record")
			}

			fmt.Fprintf(c.Root().Writer, "%s\n", string(data))
			return nil
		},
	}
}
