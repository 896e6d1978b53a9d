package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/ajith-kumar99/voicedesk/pkg/adapter"
	"github.com/ajith-kumar99/voicedesk/pkg/model"
	"github.com/ajith-kumar99/voicedesk/pkg/repository"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

const maxTitleLength = 60

func historyKey(id model.HistoryID) string {
	return "histories/" + string(id) + ".json"
}

// loadHistory loads a transcript from storage. Metadata comes from the
// repository when one is configured.
func loadHistory(ctx context.Context, repo repository.Repository, storage adapter.Storage, historyID model.HistoryID) (*model.History, error) {
	history := &model.History{ID: historyID}
	if repo != nil {
		h, err := repo.GetHistory(ctx, historyID)
		if err != nil && !errors.Is(err, model.ErrEntityNotFound) {
			return nil, goerr.Wrap(err, "failed to get history from repository")
		}
		if h != nil {
			history = h
		}
	}

	reader, err := storage.Get(ctx, historyKey(historyID))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get history from storage", goerr.V("id", historyID))
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read history data")
	}

	var contents []*genai.Content
	if err := json.Unmarshal(data, &contents); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal history contents", goerr.V("id", historyID))
	}

	history.Contents = contents
	return history, nil
}

// saveHistory writes the transcript to storage and its metadata to the
// repository when one is configured
func saveHistory(ctx context.Context, repo repository.Repository, storage adapter.Storage, history *model.History, now time.Time) error {
	if history.ID == "" {
		history.ID = model.NewHistoryID()
		history.CreatedAt = now
	}
	if history.Title == "" {
		history.Title = titleOf(history.Contents)
	}
	history.UpdatedAt = now

	data, err := json.Marshal(history.Contents)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal history contents")
	}

	writer, err := storage.Put(ctx, historyKey(history.ID))
	if err != nil {
		return goerr.Wrap(err, "failed to create storage writer")
	}
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return goerr.Wrap(err, "failed to write history to storage")
	}
	if err := writer.Close(); err != nil {
		return goerr.Wrap(err, "failed to close storage writer")
	}

	if repo != nil {
		if err := repo.PutHistory(ctx, history); err != nil {
			return goerr.Wrap(err, "failed to put history to repository")
		}
	}

	return nil
}

// titleOf returns the first user message, shortened
func titleOf(contents []*genai.Content) string {
	for _, c := range contents {
		if c.Role != genai.RoleUser {
			continue
		}
		for _, p := range c.Parts {
			if text := strings.TrimSpace(p.Text); text != "" {
				if r := []rune(text); len(r) > maxTitleLength {
					return string(r[:maxTitleLength]) + "..."
				}
				return text
			}
		}
	}
	return ""
}
