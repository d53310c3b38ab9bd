package plantnet

import "strings"

const (
	UnknownPlant  = "Unknown Plant"
	UnknownFamily = "Unknown Family"
)

// Response is the body returned by the identify endpoint. Fields the service
// may omit are optional.
type Response struct {
	BestMatch string   `json:"bestMatch,omitempty"`
	Language  string   `json:"language,omitempty"`
	Results   []Result `json:"results"`
}

// Result is one ranked candidate species.
type Result struct {
	Score   float64 `json:"score"`
	Species Species `json:"species"`
}

type Species struct {
	ScientificNameWithoutAuthor string   `json:"scientificNameWithoutAuthor,omitempty"`
	ScientificName              string   `json:"scientificName,omitempty"`
	CommonNames                 []string `json:"commonNames,omitempty"`
	Slug                        string   `json:"slug,omitempty"`
	Genus                       *Taxon   `json:"genus,omitempty"`
	Family                      *Taxon   `json:"family,omitempty"`
}

type Taxon struct {
	ScientificNameWithoutAuthor string `json:"scientificNameWithoutAuthor,omitempty"`
	ScientificName              string `json:"scientificName,omitempty"`
}

// Best returns the highest scoring result. The earliest result wins a tie.
func Best(results []Result) (Result, bool) {
	if len(results) == 0 {
		return Result{}, false
	}
	best := results[0]
	for _, r := range results[1:] {
		if r.Score > best.Score {
			best = r
		}
	}
	return best, true
}

// DisplayName prefers the first common name, then the slug, then UnknownPlant.
func DisplayName(r Result) string {
	for _, n := range r.Species.CommonNames {
		if n = strings.TrimSpace(n); n != "" {
			return n
		}
	}
	if s := strings.TrimSpace(r.Species.Slug); s != "" {
		return s
	}
	return UnknownPlant
}

// FamilyName returns the family's scientific name or UnknownFamily.
func FamilyName(r Result) string {
	if r.Species.Family != nil {
		if n := strings.TrimSpace(r.Species.Family.ScientificName); n != "" {
			return n
		}
	}
	return UnknownFamily
}
