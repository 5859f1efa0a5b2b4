package login

import (
	"fmt"

	"github.com/thesyncim/logincheck/pkg/login/internal"
)

// Source supplies the random draws behind a Choice.
type Source = internal.Source

// NewRandSource returns a uniformly distributed Source seeded with seed.
// A zero seed picks a random seed.
func NewRandSource(seed uint64) Source {
	return internal.NewRandSource(seed)
}

// FixedChoice returns a Source that always selects the record at index and
// the given method. Use it to force a scenario.
func FixedChoice(index int, method SubmissionMethod) Source {
	return internal.NewFixedSource(index, method == ProgrammaticSubmit)
}

// Chooser draws a Choice from a Catalog. The record index and the
// submission method are drawn independently.
type Chooser struct {
	catalog *Catalog
	source  Source
}

// NewChooser creates a Chooser over catalog. If source is nil a randomly
// seeded source is used.
func NewChooser(catalog *Catalog, source Source) *Chooser {
	if source == nil {
		source = NewRandSource(0)
	}
	return &Chooser{catalog: catalog, source: source}
}

// Choose draws one record and one submission method.
func (c *Chooser) Choose() (Choice, error) {
	n := c.catalog.Count()
	if n == 0 {
		return Choice{}, fmt.Errorf("%w: catalog is empty", ErrOutOfRange)
	}

	rec, err := c.catalog.Get(c.source.IntN(n))
	if err != nil {
		return Choice{}, err
	}

	method := ClickButton
	if c.source.Bool() {
		method = ProgrammaticSubmit
	}
	return Choice{Record: rec, Method: method}, nil
}
