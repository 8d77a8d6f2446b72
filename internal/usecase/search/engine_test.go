package search

import (
	"fmt"
	"strings"
	"testing"

	"github.com/kailas-cloud/paperbot/internal/domain/paper"
)

func rangesCatalog() *paper.Catalog {
	return paper.NewCatalog([]paper.Paper{
		paper.New("P0001", "paper", "Ranges", "Eric Niebler", "https://wg21.link/p0001"),
	})
}

func numberedCatalog(n int) *paper.Catalog {
	entries := make([]paper.Paper, 0, n)
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("P%04d", i+1)
		entries = append(entries, paper.New(key, "paper", "Coroutines part "+key, "Gor Nishanov", "https://wg21.link/"+key))
	}
	return paper.NewCatalog(entries)
}

func keys(r Result) []string {
	out := make([]string, 0, len(r.Papers))
	for i := range r.Papers {
		out = append(out, r.Papers[i].Key())
	}
	return out
}

func TestSearch_TitleMatchCaseInsensitive(t *testing.T) {
	res := Search(rangesCatalog(), Text("rang"), 20)
	if len(res.Papers) != 1 || res.Papers[0].Key() != "P0001" {
		t.Fatalf("got %v, want [P0001]", keys(res))
	}
	if res.Capped {
		t.Error("unexpected capped flag")
	}
}

func TestSearch_AuthorMatch(t *testing.T) {
	res := Search(rangesCatalog(), Text("niebler"), 20)
	if len(res.Papers) != 1 || res.Papers[0].Key() != "P0001" {
		t.Fatalf("got %v, want [P0001]", keys(res))
	}
}

func TestSearch_KeyMatch(t *testing.T) {
	res := Search(rangesCatalog(), Text("p000"), 20)
	if len(res.Papers) != 1 {
		t.Fatalf("got %v, want [P0001]", keys(res))
	}
}

func TestSearch_NoMatch(t *testing.T) {
	res := Search(rangesCatalog(), Text("modules"), 20)
	if !res.Empty() || res.Capped {
		t.Fatalf("got %v capped=%v, want empty", keys(res), res.Capped)
	}
}

func TestSearch_CappedAtLimit(t *testing.T) {
	res := Search(numberedCatalog(25), Text("coroutines"), 20)
	if len(res.Papers) != 20 {
		t.Fatalf("got %d results, want 20", len(res.Papers))
	}
	if !res.Capped {
		t.Error("expected capped flag")
	}
	if res.Papers[0].Key() != "P0001" || res.Papers[19].Key() != "P0020" {
		t.Errorf("results not in catalog order: %v", keys(res))
	}
}

func TestSearch_CappedIffMoreMatchesExist(t *testing.T) {
	tests := []struct {
		matches int
		limit   int
		want    int
		capped  bool
	}{
		{0, 20, 0, false},
		{19, 20, 19, false},
		{20, 20, 20, false},
		{21, 20, 20, true},
		{5, 0, 0, true},
		{0, 0, 0, false},
	}

	for _, tc := range tests {
		t.Run(fmt.Sprintf("%d/%d", tc.matches, tc.limit), func(t *testing.T) {
			res := Search(numberedCatalog(tc.matches), Text(""), tc.limit)
			if len(res.Papers) != tc.want {
				t.Errorf("got %d results, want %d", len(res.Papers), tc.want)
			}
			if res.Capped != tc.capped {
				t.Errorf("capped = %v, want %v", res.Capped, tc.capped)
			}
		})
	}
}

func TestSearch_SkipsUnsearchableEntries(t *testing.T) {
	cat := paper.NewCatalog([]paper.Paper{
		paper.New("CWG1", "issue", "Ranges issue", "Eric Niebler", "l"),
		paper.NewBuilder("P0002").Type("paper").Title("Ranges without link").Author("x").Build(),
		paper.NewBuilder("P0003").Type("paper").Title("Ranges without author").Link("l").Build(),
		paper.New("P0004", "paper", "", "Ranges Author", "l"),
		paper.New("P0005", "paper", "Ranges", "Eric Niebler", "l"),
	})

	for _, q := range []string{"", "ranges", "niebler", "p000", "cwg"} {
		res := Search(cat, Text(q), 20)
		for i := range res.Papers {
			if res.Papers[i].Key() != "P0005" {
				t.Errorf("query %q returned unsearchable entry %s", q, res.Papers[i].Key())
			}
		}
	}
}

func TestSearch_EmptyQueryMatchesAllSearchable(t *testing.T) {
	cat := paper.NewCatalog([]paper.Paper{
		paper.New("P0001", "paper", "A", "a", "l"),
		paper.New("N0001", "issue", "B", "b", "l"),
		paper.New("P0002", "paper", "C", "c", "l"),
	})
	res := Search(cat, Text(""), 20)
	if got := strings.Join(keys(res), ","); got != "P0001,P0002" {
		t.Errorf("got %s, want P0001,P0002", got)
	}
}

func TestSearch_EmptyCatalog(t *testing.T) {
	res := Search(paper.NewCatalog(nil), Text("x"), 20)
	if !res.Empty() || res.Capped {
		t.Error("expected empty, uncapped result")
	}
	res = Search(nil, Text(""), 20)
	if !res.Empty() {
		t.Error("nil catalog must yield empty result")
	}
}

func TestSearch_UnicodeFolding(t *testing.T) {
	cat := paper.NewCatalog([]paper.Paper{
		paper.New("P0001", "paper", "Straße und Ölfeld", "Jürgen Müller", "l"),
	})
	for _, q := range []string{"STRASSE", "ölfeld", "JÜRGEN", "müller"} {
		if res := Search(cat, Text(q), 20); res.Empty() {
			t.Errorf("query %q did not match", q)
		}
	}
}

func TestSearch_KeysOnly(t *testing.T) {
	cat := paper.NewCatalog([]paper.Paper{
		paper.New("P1234R0", "paper", "First", "a", "l"),
		paper.New("P1234R1", "paper", "Second", "a", "l"),
		paper.New("P4321R0", "paper", "Mentions P1234 in title", "a", "l"),
		paper.New("N4567", "paper", "Working draft", "a", "l"),
	})

	res := Search(cat, Keys("p1234"), 20)
	if got := strings.Join(keys(res), ","); got != "P1234R0,P1234R1" {
		t.Errorf("got %s, want P1234R0,P1234R1", got)
	}

	res = Search(cat, Keys("P1234r1", "n4567"), 20)
	if got := strings.Join(keys(res), ","); got != "P1234R1,N4567" {
		t.Errorf("got %s, want P1234R1,N4567", got)
	}

	if res := Search(cat, Keys(), 20); !res.Empty() {
		t.Error("query without terms must match nothing")
	}
}

// Every searchable entry is returned iff the query is a substring of one of its fields.
func TestSearch_MatchesExactlyContainingEntries(t *testing.T) {
	entries := []paper.Paper{
		paper.New("P0001", "paper", "Ranges", "Eric Niebler", "l"),
		paper.New("P0002", "paper", "Modules", "Gabriel Dos Reis", "l"),
		paper.New("P0003", "paper", "Concepts", "Andrew Sutton", "l"),
		paper.New("N0004", "paper", "Executors", "Eric Niebler", "l"),
	}
	cat := paper.NewCatalog(entries)

	for _, q := range []string{"eric", "ON", "es", "p0", "0004", "zzz", "s r"} {
		res := Search(cat, Text(q), len(entries))
		got := map[string]bool{}
		for i := range res.Papers {
			got[res.Papers[i].Key()] = true
		}
		lq := strings.ToLower(q)
		for i := range entries {
			e := entries[i]
			want := strings.Contains(strings.ToLower(e.Key()), lq) ||
				strings.Contains(strings.ToLower(e.Title()), lq) ||
				strings.Contains(strings.ToLower(e.Author()), lq)
			if got[e.Key()] != want {
				t.Errorf("query %q entry %s: included=%v, want %v", q, e.Key(), got[e.Key()], want)
			}
		}
	}
}
