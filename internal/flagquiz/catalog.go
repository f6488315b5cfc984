package flagquiz

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
)

var ErrCatalogTooSmall = errors.New("catalog needs at least 3 distinct countries")

// Catalog is an immutable set of country identifiers rounds draw from.
type Catalog struct {
	countries []string
}

// NewCatalog trims and de-duplicates countries, keeping first-seen order.
func NewCatalog(countries []string) (*Catalog, error) {
	seen := make(map[string]struct{}, len(countries))
	out := make([]string, 0, len(countries))
	for _, c := range countries {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	if len(out) < CandidateCount {
		return nil, fmt.Errorf("%w: got %d", ErrCatalogTooSmall, len(out))
	}
	return &Catalog{countries: out}, nil
}

// Countries returns a copy of the catalog contents.
func (c *Catalog) Countries() []string {
	return append([]string(nil), c.countries...)
}

// Len returns the number of distinct countries.
func (c *Catalog) Len() int { return len(c.countries) }

// Draw shuffles the catalog and returns the first three countries.
func (c *Catalog) Draw(rng *rand.Rand) [CandidateCount]string {
	perm := rng.Perm(len(c.countries))
	var out [CandidateCount]string
	for i := range out {
		out[i] = c.countries[perm[i]]
	}
	return out
}
