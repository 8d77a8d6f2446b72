package catalog

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/paperbot/internal/domain/paper"
)

func catalogOf(n int, tag string) *paper.Catalog {
	entries := make([]paper.Paper, n)
	for i := range entries {
		key := fmt.Sprintf("P%04d", i)
		entries[i] = paper.New(key, "paper", tag, "author", "https://wg21.link/"+key)
	}
	return paper.NewCatalog(entries)
}

func TestStore_Empty(t *testing.T) {
	s := NewStore()
	snap := s.Read()

	if snap.Loaded() {
		t.Error("new store should not be loaded")
	}
	if snap.Catalog == nil || snap.Catalog.Len() != 0 {
		t.Error("new store should hold an empty catalog")
	}
}

func TestStore_Replace(t *testing.T) {
	s := NewStore()
	at := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return at }

	snap := s.Replace(catalogOf(3, "a"))
	if snap.Version != 1 || !snap.UpdatedAt.Equal(at) {
		t.Errorf("unexpected snapshot %+v", snap)
	}

	snap = s.Replace(catalogOf(5, "b"))
	if snap.Version != 2 {
		t.Errorf("expected version 2, got %d", snap.Version)
	}
	if got := s.Read().Catalog.Len(); got != 5 {
		t.Errorf("expected 5 entries, got %d", got)
	}
}

func TestStore_ReplaceNil(t *testing.T) {
	s := NewStore()
	s.Replace(catalogOf(2, "a"))
	snap := s.Replace(nil)

	if snap.Catalog == nil || snap.Catalog.Len() != 0 {
		t.Error("nil catalog should be stored as empty")
	}
	if !snap.Loaded() {
		t.Error("store should stay loaded after a replace")
	}
}

func TestStore_ConcurrentReadReplace(t *testing.T) {
	s := NewStore()
	s.Replace(catalogOf(10, "a"))

	var wg sync.WaitGroup
	stop := make(chan struct{})
	errs := make(chan string, 8)

	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				// Every snapshot must be one whole catalog: 10 "a" or 20 "b".
				entries := s.Read().Catalog.Entries()
				if len(entries) != 10 && len(entries) != 20 {
					errs <- fmt.Sprintf("torn read: %d entries", len(entries))
					return
				}
				want := entries[0].Title()
				for _, p := range entries {
					if p.Title() != want {
						errs <- "mixed catalog generations"
						return
					}
				}
			}
		}()
	}

	for i := 0; i < 200; i++ {
		if i%2 == 0 {
			s.Replace(catalogOf(20, "b"))
		} else {
			s.Replace(catalogOf(10, "a"))
		}
	}
	close(stop)
	wg.Wait()
	close(errs)

	for e := range errs {
		t.Error(e)
	}
	if v := s.Read().Version; v != 201 {
		t.Errorf("expected version 201, got %d", v)
	}
}
