package login

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is returned by Catalog.Get for an index outside [0, Count()).
var ErrOutOfRange = errors.New("catalog index out of range")

// Record is a fixed username/password pair and whether it is expected to
// authenticate.
type Record struct {
	Username string
	Password string
	Valid    bool
}

// Catalog is an immutable ordered list of credential records.
type Catalog struct {
	records []Record
}

// NewCatalog creates a Catalog from records.
// Every record needs a non-empty username and password, and the catalog must
// hold at least one valid and one invalid record so both outcomes get sampled.
func NewCatalog(records ...Record) (*Catalog, error) {
	var hasValid, hasInvalid bool
	for i, r := range records {
		if r.Username == "" || r.Password == "" {
			return nil, fmt.Errorf("record %d: username and password must be non-empty", i)
		}
		if r.Valid {
			hasValid = true
		} else {
			hasInvalid = true
		}
	}
	if !hasValid || !hasInvalid {
		return nil, errors.New("catalog needs at least one valid and one invalid record")
	}

	return &Catalog{records: append([]Record(nil), records...)}, nil
}

// DefaultCatalog returns the known-valid and known-invalid records of the
// reference site, in that order.
func DefaultCatalog() *Catalog {
	return &Catalog{records: []Record{
		{Username: "kent.avasarala", Password: "wC*MD^2V4G*qXj25", Valid: true},
		{Username: "alicebob", Password: "qwerty", Valid: false},
	}}
}

// Count returns the number of records.
func (c *Catalog) Count() int {
	return len(c.records)
}

// Get returns the record at index i.
func (c *Catalog) Get(i int) (Record, error) {
	if i < 0 || i >= len(c.records) {
		return Record{}, fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, i, len(c.records))
	}
	return c.records[i], nil
}

// Records returns a copy of all records in catalog order.
func (c *Catalog) Records() []Record {
	return append([]Record(nil), c.records...)
}

// Valid returns the records expected to authenticate.
func (c *Catalog) Valid() []Record {
	var out []Record
	for _, r := range c.records {
		if r.Valid {
			out = append(out, r)
		}
	}
	return out
}
