package health

import "github.com/kailas-cloud/paperbot/internal/catalog"

// CatalogReader exposes the current catalog snapshot.
type CatalogReader interface {
	Read() catalog.Snapshot
}

// RefreshStatus exposes the refresher state.
type RefreshStatus interface {
	Status() catalog.Status
}

// TransportChecker reports whether the chat transport is connected.
type TransportChecker interface {
	Username() string
}
