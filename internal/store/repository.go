// Package store defines the persistence interface for registered catalogs.
// The core never opens a database; a PartitionStore is just one more way to
// implement the metadata-loader collaborator.
package store

import (
	"context"

	"github.com/starcat-lab/starcat/internal/catalog"
)

// PartitionStore persists catalog partition lists and leaf statistics so a
// service survives restarts. Reads satisfy catalog.Loader, so a store can be
// handed straight to a Registry.
type PartitionStore interface {
	catalog.Loader

	// Save upserts a whole catalog atomically: the catalog row, its
	// partitions, per-partition column statistics, and join info.
	Save(ctx context.Context, cat *catalog.Catalog) error

	// Delete removes a catalog and everything under it. Deleting an
	// unknown catalog returns catalog.ErrNotFound.
	Delete(ctx context.Context, name string) error
}
