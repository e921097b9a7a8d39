package ledger

import (
	"context"

	"github.com/huandu/go-sqlbuilder"

	"golang-ledger-ingestion-service/pkg/errors"
	"golang-ledger-ingestion-service/pkg/logger"
)

// ApplyVendorMap stores the raw-id to vendor mapping and stamps every
// ledger transaction whose raw identifier matches. The mapping survives in
// vendor_transaction_map, so transactions imported later pick their vendor
// up on the next apply.
func (s *Store) ApplyVendorMap(ctx context.Context, vendorByRawID map[string]string) (int64, error) {
	if len(vendorByRawID) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, errors.StorageError(errors.CodeTxFailed, "begin vendor mapping", err)
	}
	defer tx.Rollback()

	var stamped int64
	for rawID, vendorID := range vendorByRawID {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO vendor_transaction_map (transaction_id_raw, vendor_id) VALUES (?, ?)
			 ON CONFLICT(transaction_id_raw) DO UPDATE SET vendor_id = excluded.vendor_id`,
			rawID, vendorID); err != nil {
			return 0, errors.StorageError(errors.CodeQueryFailed, "store vendor mapping", err)
		}

		ub := sqlbuilder.SQLite.NewUpdateBuilder()
		ub.Update("transactions")
		ub.Set(
			ub.Assign("vendor_id", vendorID),
			ub.Assign("updated_at", nowUTC()),
		)
		ub.Where(ub.Equal("transaction_id_raw", rawID))
		query, args := ub.Build()

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, errors.StorageError(errors.CodeQueryFailed, "stamp vendor on transactions", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			stamped += n
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.StorageError(errors.CodeTxFailed, "commit vendor mapping", err)
	}

	s.logger.WithFields(logger.Fields{
		"mappings": len(vendorByRawID),
		"stamped":  stamped,
	}).Info("Applied vendor map")

	return stamped, nil
}

// LoadVendorMap returns the persisted raw-id to vendor mapping.
func (s *Store) LoadVendorMap(ctx context.Context) (map[string]string, error) {
	var rows []struct {
		TransactionIDRaw string `db:"transaction_id_raw"`
		VendorID         string `db:"vendor_id"`
	}
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT transaction_id_raw, vendor_id FROM vendor_transaction_map`); err != nil {
		return nil, errors.StorageError(errors.CodeQueryFailed, "load vendor map", err)
	}

	vendorByRawID := make(map[string]string, len(rows))
	for _, row := range rows {
		vendorByRawID[row.TransactionIDRaw] = row.VendorID
	}
	return vendorByRawID, nil
}
