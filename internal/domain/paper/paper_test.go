package paper

import "testing"

func TestSearchable(t *testing.T) {
	tests := []struct {
		name string
		p    Paper
		want bool
	}{
		{"complete", New("P0001", "paper", "Ranges", "Eric Niebler", "https://wg21.link/p0001"), true},
		{"wrong type", New("CWG1", "issue", "Core issue", "Someone", "https://wg21.link/cwg1"), false},
		{"empty title", New("P0002", "paper", "", "A", "https://wg21.link/p0002"), false},
		{"empty author allowed", New("P0003", "paper", "T", "", "https://wg21.link/p0003"), true},
		{"missing link", NewBuilder("P0004").Type("paper").Title("T").Author("A").Build(), false},
		{"missing type", NewBuilder("P0005").Title("T").Author("A").Link("l").Build(), false},
		{"missing author", NewBuilder("P0006").Type("paper").Title("T").Link("l").Build(), false},
		{"missing title", NewBuilder("P0007").Type("paper").Author("A").Link("l").Build(), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.p.Searchable(); got != tc.want {
				t.Errorf("Searchable() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAccessors(t *testing.T) {
	p := New("P0001", "paper", "Ranges", "Eric Niebler", "https://wg21.link/p0001")
	if p.Key() != "P0001" || p.Type() != "paper" || p.Title() != "Ranges" ||
		p.Author() != "Eric Niebler" || p.Link() != "https://wg21.link/p0001" {
		t.Errorf("unexpected paper: %+v", p)
	}
}
