package repository

import (
	"context"

	"github.com/ajith-kumar99/voicedesk/pkg/model"
)

// Repository indexes persisted append-only records (orders, leads, coffee
// orders) and chat transcripts so that they can be listed without scanning
// storage
type Repository interface {
	// PutSnapshot saves a snapshot to the repository
	PutSnapshot(ctx context.Context, snapshot *model.Snapshot) error

	// GetSnapshot retrieves a snapshot by ID
	GetSnapshot(ctx context.Context, id model.SnapshotID) (*model.Snapshot, error)

	// ListSnapshots retrieves snapshots of a kind, newest first
	ListSnapshots(ctx context.Context, kind model.SnapshotKind, offset, limit int) ([]*model.Snapshot, error)

	// PutHistory saves the metadata of a chat transcript
	PutHistory(ctx context.Context, history *model.History) error

	// GetHistory retrieves the metadata of a chat transcript by ID
	GetHistory(ctx context.Context, id model.HistoryID) (*model.History, error)

	// ListHistory retrieves chat transcripts, newest first
	ListHistory(ctx context.Context, offset, limit int) ([]*model.History, error)
}
