package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/ajith-kumar99/voicedesk/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	collectionSnapshots = "snapshots"
	collectionHistories = "histories"

	defaultListLimit = 20
	maxListLimit     = 100
)

// Firestore implements Repository using Cloud Firestore
type Firestore struct {
	client *firestore.Client
}

// New creates a new Firestore repository
func New(ctx context.Context, projectID, databaseID string) (*Firestore, error) {
	if projectID == "" {
		return nil, goerr.New("project ID is required")
	}
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project", projectID), goerr.V("database", databaseID))
	}

	return &Firestore{client: client}, nil
}

// Close releases the underlying client
func (r *Firestore) Close() error {
	return r.client.Close()
}

func (r *Firestore) PutSnapshot(ctx context.Context, snapshot *model.Snapshot) error {
	if snapshot.ID == "" {
		return goerr.New("snapshot ID is empty")
	}

	doc := r.client.Collection(collectionSnapshots).Doc(string(snapshot.ID))
	if _, err := doc.Set(ctx, snapshot); err != nil {
		return goerr.Wrap(err, "failed to put snapshot", goerr.V("id", snapshot.ID))
	}
	return nil
}

func (r *Firestore) GetSnapshot(ctx context.Context, id model.SnapshotID) (*model.Snapshot, error) {
	snap, err := r.client.Collection(collectionSnapshots).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrEntityNotFound, "snapshot not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get snapshot", goerr.V("id", id))
	}

	var s model.Snapshot
	if err := snap.DataTo(&s); err != nil {
		return nil, goerr.Wrap(err, "failed to decode snapshot", goerr.V("id", id))
	}
	return &s, nil
}

func (r *Firestore) ListSnapshots(ctx context.Context, kind model.SnapshotKind, offset, limit int) ([]*model.Snapshot, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)
	offset = max(offset, 0)

	iter := r.client.Collection(collectionSnapshots).
		Where("Kind", "==", string(kind)).
		OrderBy("CreatedAt", firestore.Desc).
		Offset(offset).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	var snapshots []*model.Snapshot
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate snapshots", goerr.V("kind", kind))
		}

		var s model.Snapshot
		if err := doc.DataTo(&s); err != nil {
			return nil, goerr.Wrap(err, "failed to decode snapshot", goerr.V("doc", doc.Ref.ID))
		}
		snapshots = append(snapshots, &s)
	}

	return snapshots, nil
}

func (r *Firestore) PutHistory(ctx context.Context, history *model.History) error {
	if history.ID == "" {
		return goerr.New("history ID is empty")
	}

	doc := r.client.Collection(collectionHistories).Doc(string(history.ID))
	if _, err := doc.Set(ctx, history); err != nil {
		return goerr.Wrap(err, "failed to put history", goerr.V("id", history.ID))
	}
	return nil
}

func (r *Firestore) GetHistory(ctx context.Context, id model.HistoryID) (*model.History, error) {
	snap, err := r.client.Collection(collectionHistories).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrEntityNotFound, "history not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get history", goerr.V("id", id))
	}

	var h model.History
	if err := snap.DataTo(&h); err != nil {
		return nil, goerr.Wrap(err, "failed to decode history", goerr.V("id", id))
	}
	return &h, nil
}

func (r *Firestore) ListHistory(ctx context.Context, offset, limit int) ([]*model.History, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)
	offset = max(offset, 0)

	iter := r.client.Collection(collectionHistories).
		OrderBy("UpdatedAt", firestore.Desc).
		Offset(offset).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	var histories []*model.History
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate histories")
		}

		var h model.History
		if err := doc.DataTo(&h); err != nil {
			return nil, goerr.Wrap(err, "failed to decode history", goerr.V("doc", doc.Ref.ID))
		}
		histories = append(histories, &h)
	}

	return histories, nil
}
