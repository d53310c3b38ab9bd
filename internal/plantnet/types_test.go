package plantnet

import "testing"

func TestBest(t *testing.T) {
	tests := []struct {
		name      string
		results   []Result
		wantScore float64
		wantSlug  string
		wantOK    bool
	}{
		{name: "empty", results: nil, wantOK: false},
		{
			name:      "first is best",
			results:   []Result{{Score: 0.9, Species: Species{Slug: "a"}}, {Score: 0.1, Species: Species{Slug: "b"}}},
			wantScore: 0.9, wantSlug: "a", wantOK: true,
		},
		{
			name:      "unsorted",
			results:   []Result{{Score: 0.2, Species: Species{Slug: "a"}}, {Score: 0.7, Species: Species{Slug: "b"}}, {Score: 0.5}},
			wantScore: 0.7, wantSlug: "b", wantOK: true,
		},
		{
			name:      "tie keeps first",
			results:   []Result{{Score: 0.5, Species: Species{Slug: "a"}}, {Score: 0.5, Species: Species{Slug: "b"}}},
			wantScore: 0.5, wantSlug: "a", wantOK: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Best(tt.results)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got.Score != tt.wantScore || got.Species.Slug != tt.wantSlug {
				t.Errorf("Best = %+v, want score %v slug %q", got, tt.wantScore, tt.wantSlug)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name    string
		species Species
		want    string
	}{
		{"common name", Species{CommonNames: []string{"Rose"}, Slug: "rosa"}, "Rose"},
		{"skips blank common names", Species{CommonNames: []string{"", "  ", "Dog rose"}}, "Dog rose"},
		{"slug fallback", Species{Slug: "rosa-canina"}, "rosa-canina"},
		{"blank common names fall to slug", Species{CommonNames: []string{""}, Slug: "rosa"}, "rosa"},
		{"unknown", Species{ScientificNameWithoutAuthor: "Rosa"}, UnknownPlant},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DisplayName(Result{Species: tt.species}); got != tt.want {
				t.Errorf("DisplayName = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFamilyName(t *testing.T) {
	tests := []struct {
		name   string
		family *Taxon
		want   string
	}{
		{"present", &Taxon{ScientificName: "Rosaceae"}, "Rosaceae"},
		{"nil", nil, UnknownFamily},
		{"blank", &Taxon{ScientificName: " "}, UnknownFamily},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FamilyName(Result{Species: Species{Family: tt.family}}); got != tt.want {
				t.Errorf("FamilyName = %q, want %q", got, tt.want)
			}
		})
	}
}
