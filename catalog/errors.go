/*
errors.go - Sentinel errors for the catalog facade

PURPOSE:
  One place for the error taxonomy the engine cares about. Only a missing
  top-level document is ever a hard error; every other data anomaly is
  absorbed by the aggregators and reported as structured result data.

USAGE:
  product, err := store.Product(ctx, id)
  if catalog.IsNotFound(err) {
      // 404
  }
*/
package catalog

import "errors"

var (
	// ErrNotFound is returned by fetch-by-id when the document does not
	// exist. Stale references inside an aggregation are handled locally and
	// never bubble this up; only the top-level entity (the product of an
	// estimate) surfaces it to callers.
	ErrNotFound = errors.New("document not found")
)

// IsNotFound reports whether err indicates a missing document.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
