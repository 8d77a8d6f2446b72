package search

import "github.com/kailas-cloud/paperbot/internal/catalog"

// SnapshotReader provides the current catalog snapshot.
type SnapshotReader interface {
	Read() catalog.Snapshot
}
