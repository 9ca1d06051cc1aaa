// Package catalog holds the immutable registry of orderable lab tests.
package catalog

import (
	"errors"
	"fmt"

	"github.com/terra-clan/health-package-engine/internal/models"
)

// ErrNotFound is matched by every NotFoundError
var ErrNotFound = errors.New("lab test not found")

// NotFoundError reports a code that is not in the catalog
type NotFoundError struct {
	Code string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("lab test %q not found in catalog", e.Code)
}

// Is lets errors.Is(err, ErrNotFound) match
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Catalog is an ordered, read-only set of lab tests keyed by code.
// It is safe for concurrent use since nothing mutates it after New.
type Catalog struct {
	version string
	tests   []models.LabTest
	index   map[string]int
}

// New validates the entries and builds a catalog preserving their order
func New(version string, tests []models.LabTest) (*Catalog, error) {
	c := &Catalog{
		version: version,
		tests:   make([]models.LabTest, 0, len(tests)),
		index:   make(map[string]int, len(tests)),
	}

	for i, t := range tests {
		if t.Code == "" {
			return nil, fmt.Errorf("entry %d: code is required", i)
		}
		if _, dup := c.index[t.Code]; dup {
			return nil, fmt.Errorf("duplicate code %q", t.Code)
		}
		if t.ID == "" {
			return nil, fmt.Errorf("test %s: id is required", t.Code)
		}
		if t.Name == "" {
			return nil, fmt.Errorf("test %s: name is required", t.Code)
		}
		if t.UnitPrice <= 0 {
			return nil, fmt.Errorf("test %s: price must be positive, got %d", t.Code, t.UnitPrice)
		}

		c.index[t.Code] = len(c.tests)
		c.tests = append(c.tests, t)
	}

	return c, nil
}

// Lookup returns the test registered under code
func (c *Catalog) Lookup(code string) (models.LabTest, error) {
	i, ok := c.index[code]
	if !ok {
		return models.LabTest{}, &NotFoundError{Code: code}
	}
	return c.tests[i], nil
}

// Position returns the definition order of code
func (c *Catalog) Position(code string) (int, bool) {
	i, ok := c.index[code]
	return i, ok
}

// List returns a copy of all tests in definition order
func (c *Catalog) List() []models.LabTest {
	out := make([]models.LabTest, len(c.tests))
	copy(out, c.tests)
	return out
}

// Len returns the number of tests
func (c *Catalog) Len() int {
	return len(c.tests)
}

// Version returns the version label of the loaded catalog
func (c *Catalog) Version() string {
	return c.version
}
