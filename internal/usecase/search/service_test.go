package search

import (
	"context"
	"testing"

	"github.com/kailas-cloud/paperbot/internal/catalog"
	"github.com/kailas-cloud/paperbot/internal/domain/paper"
)

// --- Mocks ---

type mockSnapshots struct {
	snap  catalog.Snapshot
	reads int
}

func (m *mockSnapshots) Read() catalog.Snapshot {
	m.reads++
	return m.snap
}

// --- Tests ---

func TestService_Search(t *testing.T) {
	snaps := &mockSnapshots{snap: catalog.Snapshot{Catalog: rangesCatalog(), Version: 1}}
	svc := New(snaps, 20)

	res := svc.Search(context.Background(), "RANGES")
	if len(res.Papers) != 1 {
		t.Fatalf("got %d results, want 1", len(res.Papers))
	}
	if snaps.reads != 1 {
		t.Errorf("expected exactly one snapshot read, got %d", snaps.reads)
	}
}

func TestService_DefaultLimit(t *testing.T) {
	svc := New(&mockSnapshots{snap: catalog.Snapshot{Catalog: numberedCatalog(30)}}, 0)
	if svc.MaxResults() != DefaultMaxResults {
		t.Fatalf("MaxResults() = %d, want %d", svc.MaxResults(), DefaultMaxResults)
	}

	res := svc.Search(context.Background(), "")
	if len(res.Papers) != DefaultMaxResults || !res.Capped {
		t.Errorf("got %d results capped=%v", len(res.Papers), res.Capped)
	}
}

func TestService_SearchKeys(t *testing.T) {
	cat := paper.NewCatalog([]paper.Paper{
		paper.New("P2300R7", "paper", "std::execution", "Michał Dominiak", "l"),
		paper.New("P0001", "paper", "Mentions P2300", "a", "l"),
	})
	svc := New(&mockSnapshots{snap: catalog.Snapshot{Catalog: cat}}, 20)

	res := svc.SearchKeys(context.Background(), "p2300")
	if len(res.Papers) != 1 || res.Papers[0].Key() != "P2300R7" {
		t.Errorf("got %v, want [P2300R7]", keys(res))
	}
}

func TestService_StoreIntegration(t *testing.T) {
	store := catalog.NewStore()
	svc := New(store, 20)

	if res := svc.Search(context.Background(), ""); !res.Empty() {
		t.Fatal("empty store must yield empty result")
	}

	store.Replace(rangesCatalog())
	if res := svc.Search(context.Background(), "rang"); len(res.Papers) != 1 {
		t.Fatalf("got %d results after replace, want 1", len(res.Papers))
	}
}
