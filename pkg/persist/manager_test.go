package persist_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ajith-kumar99/voicedesk/pkg/adapter"
	"github.com/ajith-kumar99/voicedesk/pkg/model"
	"github.com/ajith-kumar99/voicedesk/pkg/persist"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
)

type mockRepository struct {
	snapshots map[model.SnapshotID]*model.Snapshot
	putErr    error
}

func newMockRepository() *mockRepository {
	return &mockRepository{snapshots: make(map[model.SnapshotID]*model.Snapshot)}
}

func (m *mockRepository) PutSnapshot(ctx context.Context, s *model.Snapshot) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.snapshots[s.ID] = s
	return nil
}

func (m *mockRepository) GetSnapshot(ctx context.Context, id model.SnapshotID) (*model.Snapshot, error) {
	s, ok := m.snapshots[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrEntityNotFound, "snapshot not found")
	}
	return s, nil
}

func (m *mockRepository) ListSnapshots(ctx context.Context, kind model.SnapshotKind, offset, limit int) ([]*model.Snapshot, error) {
	return nil, nil
}

func (m *mockRepository) PutHistory(ctx context.Context, h *model.History) error {
	return nil
}

func (m *mockRepository) GetHistory(ctx context.Context, id model.HistoryID) (*model.History, error) {
	return nil, goerr.Wrap(model.ErrEntityNotFound, "history not found")
}

func (m *mockRepository) ListHistory(ctx context.Context, offset, limit int) ([]*model.History, error) {
	return nil, nil
}

// failingStorage accepts writes but fails to commit them
type failingStorage struct{}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return len(p), nil }
func (failingWriter) Close() error                { return errors.New("disk full") }

func (failingStorage) Put(ctx context.Context, key string) (io.WriteCloser, error) {
	return failingWriter{}, nil
}

func (failingStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return nil, errors.New("not found")
}

func TestReplace(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "fraud_cases.json")
	m := persist.New(adapter.NewFileStorage(t.TempDir()))

	cases := []map[string]any{{"caseId": "C1", "status": "pending_review"}}
	gt.NoError(t, m.Replace(ctx, path, cases))

	cases[0]["status"] = "confirmed_safe"
	gt.NoError(t, m.Replace(ctx, path, cases))

	data, err := os.ReadFile(path)
	gt.NoError(t, err)
	var got []map[string]any
	gt.NoError(t, json.Unmarshal(data, &got))
	gt.A(t, got).Length(1)
	gt.Equal(t, got[0]["status"], any("confirmed_safe"))

	entries, err := os.ReadDir(filepath.Dir(path))
	gt.NoError(t, err)
	gt.A(t, entries).Length(1)
}

func TestReplaceFailure(t *testing.T) {
	ctx := context.Background()
	m := persist.New(adapter.NewFileStorage(t.TempDir()))

	err := m.Replace(ctx, "", []string{})
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrPersistenceFailure))

	// a regular file where a directory is expected
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	gt.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	err = m.Replace(ctx, filepath.Join(blocker, "game_state.json"), map[string]any{})
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrPersistenceFailure))

	err = m.Replace(ctx, filepath.Join(dir, "bad.json"), map[string]any{"ch": make(chan int)})
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrPersistenceFailure))
}

func TestAppend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	repo := newMockRepository()
	fixed := time.Date(2025, 11, 26, 9, 30, 15, 0, time.UTC)
	m := persist.New(adapter.NewFileStorage(dir),
		persist.WithRepository(repo),
		persist.WithClock(func() time.Time { return fixed }),
	)

	id, err := m.Append(ctx, persist.Record{
		Kind:   model.SnapshotKindOrder,
		Status: model.OrderStatusReceived,
		Key:    "Guest",
		Build: func(id model.SnapshotID, now time.Time) any {
			return &model.Order{OrderID: id, Timestamp: now, CustomerName: "Guest", Status: model.OrderStatusReceived}
		},
	})
	gt.NoError(t, err)
	gt.True(t, strings.HasPrefix(string(id), "ORD20251126093015-"))

	data, err := os.ReadFile(filepath.Join(dir, "orders", string(id)+".json"))
	gt.NoError(t, err)
	var order model.Order
	gt.NoError(t, json.Unmarshal(data, &order))
	gt.Equal(t, order.OrderID, id)
	gt.Equal(t, order.Status, "received")

	snap, err := repo.GetSnapshot(ctx, id)
	gt.NoError(t, err)
	gt.Equal(t, snap.Kind, model.SnapshotKindOrder)
	gt.Equal(t, snap.Key, "Guest")
	gt.Equal(t, persist.Key(snap.Kind, snap.ID), "orders/"+string(id)+".json")
	gt.Equal(t, snap.Status, "received")
}

func TestAppendSameSecondDoesNotCollide(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fixed := time.Date(2025, 11, 26, 9, 30, 15, 0, time.UTC)
	m := persist.New(adapter.NewFileStorage(dir), persist.WithClock(func() time.Time { return fixed }))

	seen := map[model.SnapshotID]bool{}
	for range 20 {
		id, err := m.Append(ctx, persist.Record{
			Kind:  model.SnapshotKindLead,
			Build: func(id model.SnapshotID, now time.Time) any { return map[string]any{"lead_id": id} },
		})
		gt.NoError(t, err)
		gt.False(t, seen[id])
		seen[id] = true
	}

	entries, err := os.ReadDir(filepath.Join(dir, "leads"))
	gt.NoError(t, err)
	gt.A(t, entries).Length(20)
}

func TestAppendFailure(t *testing.T) {
	ctx := context.Background()
	m := persist.New(failingStorage{})

	_, err := m.Append(ctx, persist.Record{
		Kind:  model.SnapshotKindCoffeeOrder,
		Build: func(id model.SnapshotID, now time.Time) any { return map[string]any{} },
	})
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrPersistenceFailure))
}

func TestAppendIndexFailureKeepsRecord(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	repo := newMockRepository()
	repo.putErr = errors.New("unavailable")
	m := persist.New(adapter.NewFileStorage(dir), persist.WithRepository(repo))

	id, err := m.Append(ctx, persist.Record{
		Kind:  model.SnapshotKindCoffeeOrder,
		Build: func(id model.SnapshotID, now time.Time) any { return map[string]any{"order_id": id} },
	})
	gt.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, persist.Key(model.SnapshotKindCoffeeOrder, id)))
	gt.NoError(t, err)
}
