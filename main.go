package main

import (
	"context"
	"os"

	"github.com/ajith-kumar99/voicedesk/pkg/cli"
	"github.com/ajith-kumar99/voicedesk/pkg/utils/logging"
)

func main() {
	ctx := context.Background()
	if err := cli.Run(ctx, os.Args); err != nil {
		logging.Default().Error(err.Message)
		os.Exit(err.Code)
	}
}
