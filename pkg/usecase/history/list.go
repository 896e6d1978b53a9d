package history

import (
	"context"

	"github.com/ajith-kumar99/voicedesk/pkg/model"
	"github.com/ajith-kumar99/voicedesk/pkg/repository"
	"github.com/m-mizutani/goerr/v2"
)

// List returns saved chat transcripts, newest first. Only the metadata is
// returned; contents stay in storage.
func List(
	ctx context.Context,
	repo repository.Repository,
	agent string,
	offset, limit int,
) ([]*model.History, error) {
	histories, err := repo.ListHistory(ctx, offset, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list histories")
	}
	if agent == "" {
		return histories, nil
	}

	filtered := make([]*model.History, 0, len(histories))
	for _, h := range histories {
		if h.Agent == agent {
			filtered = append(filtered, h)
		}
	}
	return filtered, nil
}

// Records returns the index entries of persisted records of a kind
func Records(
	ctx context.Context,
	repo repository.Repository,
	kind model.SnapshotKind,
	offset, limit int,
) ([]*model.Snapshot, error) {
	switch kind {
	case model.SnapshotKindOrder, model.SnapshotKindLead, model.SnapshotKindCoffeeOrder:
	default:
		return nil, goerr.New("unknown record kind", goerr.V("kind", kind))
	}

	snapshots, err := repo.ListSnapshots(ctx, kind, offset, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list records", goerr.V("kind", kind))
	}
	return snapshots, nil
}
