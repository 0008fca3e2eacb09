// Package uniquex enforces at-most-one-claim-per-business-key semantics for
// create-class mutations. Claims are scoped by namespace (entity category,
// e.g. "facultades") and keyed by a business-unique field value (sigla, ci).
package uniquex

import "context"

// Store is the uniqueness cache contract. Implementations must make
// SaveUnique atomic per (namespace, key): two concurrent claims for the same
// pair yield exactly one success.
type Store interface {
	// SaveUnique claims (namespace, key) and stores the snapshot. It fails
	// with ErrDuplicate when the key is already claimed.
	SaveUnique(ctx context.Context, namespace, key string, snapshot []byte) error

	// Exists reports whether (namespace, key) is claimed.
	Exists(ctx context.Context, namespace, key string) (bool, error)

	// Get returns the stored snapshot, or ErrNotClaimed.
	Get(ctx context.Context, namespace, key string) ([]byte, error)

	// Update overwrites the claimed snapshot. It does not change claim
	// ownership; updating an unclaimed key simply claims it.
	Update(ctx context.Context, namespace, key string, snapshot []byte) error

	// DeleteUnique releases the claim. Idempotent: deleting an absent claim
	// is not an error.
	DeleteUnique(ctx context.Context, namespace, key string) error
}
