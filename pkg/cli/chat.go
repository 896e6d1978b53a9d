package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ajith-kumar99/voicedesk/pkg/model"
	"github.com/ajith-kumar99/voicedesk/pkg/usecase/chat"
	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"google.golang.org/genai"
)

func chatCommand() *cli.Command {
	var (
		cfg       config
		historyID string
	)
	registry := newRegistry()

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "history-id",
			Usage:       "Continue a saved conversation",
			Sources:     cli.EnvVars("VOICEDESK_HISTORY_ID"),
			Destination: &historyID,
		},
	}

	return &cli.Command{
		Name:  "chat",
		Usage: "Talk to a front end in text, with Gemini as the host",
		Flags: sessionFlags(&cfg, flags, llmFlags(&cfg), registry.Flags()),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, sess, err := cfg.startSession(ctx, registry)
			if err != nil {
				return err
			}
			defer sess.Close()

			gemini, err := cfg.newGemini(ctx)
			if err != nil {
				return err
			}

			w := c.Root().Writer
			input := chat.NewInput{
				Gemini:    gemini,
				Registry:  registry,
				Storage:   sess.storage,
				Repo:      sess.repo,
				Logger:    sess.logger,
				Agent:     cfg.agent,
				SessionID: sess.id,
				Output:    w,
			}
			if historyID != "" {
				id := model.HistoryID(historyID)
				input.HistoryID = &id
			}

			session, err := chat.New(ctx, input)
			if err != nil {
				return goerr.Wrap(err, "failed to create chat session")
			}

			rl, err := readline.New("> ")
			if err != nil {
				return goerr.Wrap(err, "failed to initialize readline")
			}
			defer rl.Close()

			fmt.Fprintf(w, "Chat with %s started. Type 'exit' to quit.\n", cfg.agent)

			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return goerr.Wrap(err, "failed to read input")
				}

				message := strings.TrimSpace(line)
				if message == "exit" {
					break
				}
				if message == "" {
					continue
				}

				spin := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
				spin.Suffix = " thinking..."
				spin.Start()
				resp, err := session.Send(ctx, message)
				spin.Stop()
				if err != nil {
					return goerr.Wrap(err, "failed to send message")
				}

				if text := responseText(resp); text != "" {
					fmt.Fprintf(w, "%s\n", text)
				}
			}

			if id := session.History().ID; id != "" {
				fmt.Fprintf(w, "\nConversation saved as %s\n", id)
			}
			return nil
		},
	}
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var parts []string
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			parts = append(parts, part.Text)
		}
	}
	return strings.Join(parts, "\n")
}
