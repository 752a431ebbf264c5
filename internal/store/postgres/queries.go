package postgres

// SQL for catalog partition persistence.

const (
	// queryUpsertCatalog registers or replaces a catalog's identity row.
	queryUpsertCatalog = `
		INSERT INTO catalogs (name, kind, primary_catalog, margin_threshold_arcsec)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE SET
			kind = EXCLUDED.kind,
			primary_catalog = EXCLUDED.primary_catalog,
			margin_threshold_arcsec = EXCLUDED.margin_threshold_arcsec
	`

	// Partition rows are replaced wholesale on save: a catalog's partition
	// list is immutable, so a re-save is a full re-registration.
	queryDeletePartitions = `DELETE FROM partitions WHERE catalog_name = $1`
	queryDeleteStats      = `DELETE FROM partition_stats WHERE catalog_name = $1`
	queryDeleteJoinInfo   = `DELETE FROM join_info WHERE catalog_name = $1`

	queryInsertPartition = `
		INSERT INTO partitions (catalog_name, norder, npix, row_count, storage_ref)
		VALUES ($1, $2, $3, $4, $5)
	`

	queryInsertStat = `
		INSERT INTO partition_stats (catalog_name, norder, npix, column_name, min_value, max_value, null_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	queryInsertJoinInfo = `
		INSERT INTO join_info (catalog_name, norder, npix, join_norder, join_npix)
		VALUES ($1, $2, $3, $4, $5)
	`

	querySelectCatalog = `
		SELECT kind, primary_catalog, margin_threshold_arcsec, created_at
		FROM catalogs
		WHERE name = $1
	`

	// Partitions come back in (norder, npix) order; the tree builder
	// re-sorts into sky order anyway.
	querySelectPartitions = `
		SELECT norder, npix, row_count, storage_ref
		FROM partitions
		WHERE catalog_name = $1
		ORDER BY norder ASC, npix ASC
	`

	querySelectStats = `
		SELECT norder, npix, column_name, min_value, max_value, null_count
		FROM partition_stats
		WHERE catalog_name = $1
		ORDER BY norder ASC, npix ASC, column_name ASC
	`

	querySelectJoinInfo = `
		SELECT norder, npix, join_norder, join_npix
		FROM join_info
		WHERE catalog_name = $1
		ORDER BY norder ASC, npix ASC, join_norder ASC, join_npix ASC
	`

	querySelectNames = `SELECT name FROM catalogs ORDER BY name ASC`

	queryDeleteCatalog = `DELETE FROM catalogs WHERE name = $1`
)
