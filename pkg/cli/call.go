package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"google.golang.org/genai"
)

func callCommand() *cli.Command {
	var cfg config
	registry := newRegistry()

	return &cli.Command{
		Name:      "call",
		Usage:     "Invoke one operation and print its response",
		ArgsUsage: "<function> [json-args]",
		Flags:     sessionFlags(&cfg, registry.Flags()),
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() < 1 {
				return goerr.New("function name is required")
			}
			name := c.Args().Get(0)

			var args map[string]any
			if raw := c.Args().Get(1); raw != "" {
				if err := json.Unmarshal([]byte(raw), &args); err != nil {
					return goerr.Wrap(err, "arguments must be a JSON object", goerr.V("args", raw))
				}
			}

			ctx, sess, err := cfg.startSession(ctx, registry)
			if err != nil {
				return err
			}
			defer sess.Close()

			resp, err := registry.Execute(ctx, genai.FunctionCall{Name: name, Args: args})
			if err != nil {
				return goerr.Wrap(err, "failed to call function", goerr.V("name", name))
			}

			data, err := json.MarshalIndent(resp.Response, "", "  ")
			if err != nil {
				return goerr.Wrap(err, "failed to marshal response")
			}
			fmt.Fprintf(c.Root().Writer, "%s\n", string(data))
			return nil
		},
	}
}
