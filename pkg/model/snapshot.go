package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type SnapshotID string

// SnapshotKind identifies the append-only target a snapshot was written to
type SnapshotKind string

const (
	SnapshotKindOrder       SnapshotKind = "order"
	SnapshotKindLead        SnapshotKind = "lead"
	SnapshotKindCoffeeOrder SnapshotKind = "coffee_order"
)

// Prefix returns the identifier prefix of the kind
func (k SnapshotKind) Prefix() string {
	switch k {
	case SnapshotKindOrder:
		return "ORD"
	case SnapshotKindLead:
		return "LEAD"
	case SnapshotKindCoffeeOrder:
		return "COF"
	default:
		return strings.ToUpper(string(k))
	}
}

// Dir returns the output location of the kind, relative to the data directory
func (k SnapshotKind) Dir() string {
	switch k {
	case SnapshotKindOrder, SnapshotKindCoffeeOrder:
		return "orders"
	case SnapshotKindLead:
		return "leads"
	default:
		return string(k) + "s"
	}
}

// NewSnapshotID generates an identifier such as ORD20251126093015-1f3a9c2e.
// The timestamp keeps ids sortable; the random suffix keeps writes from
// concurrent sessions or processes within the same second apart.
func NewSnapshotID(kind SnapshotKind, now time.Time) SnapshotID {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return SnapshotID(kind.Prefix() + now.UTC().Format("20060102150405") + "-" + suffix)
}

// Snapshot is the index entry of a persisted append-only record. Key is
// a human lookup key (customer, company); the stored file is found by ID.
type Snapshot struct {
	ID        SnapshotID
	Kind      SnapshotKind
	Status    string
	Key       string
	Payload   any
	CreatedAt time.Time
	UpdatedAt time.Time
}
