package repository

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/workfin/practice-api/internal/models"
)

// UpsertResult reports the per-record outcomes of one batch write.
type UpsertResult struct {
	Created int
	Updated int
	Failed  int
}

// Add folds another batch result into r.
func (r *UpsertResult) Add(other UpsertResult) {
	r.Created += other.Created
	r.Updated += other.Updated
	r.Failed += other.Failed
}

func (r UpsertResult) counts() models.SyncCounts {
	return models.SyncCounts{Created: r.Created, Updated: r.Updated, Failed: r.Failed}
}

// upsertBatch writes n records in one transaction, isolating each record with
// a savepoint so one bad record rolls back alone instead of poisoning the
// batch. exec reports whether the statement inserted (true) or updated.
func upsertBatch(ctx context.Context, db *sql.DB, n int, exec func(ctx context.Context, tx *sql.Tx, i int) (bool, error)) (UpsertResult, error) {
	var result UpsertResult
	if n == 0 {
		return result, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return result, errors.Wrap(err, "begin upsert transaction")
	}
	defer tx.Rollback()

	for i := 0; i < n; i++ {
		if _, err := tx.ExecContext(ctx, "SAVEPOINT record_upsert"); err != nil {
			return result, errors.Wrap(err, "create savepoint")
		}
		inserted, err := exec(ctx, tx, i)
		if err != nil {
			if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT record_upsert"); rbErr != nil {
				return result, errors.Wrap(rbErr, "rollback savepoint")
			}
			result.Failed++
			continue
		}
		if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT record_upsert"); err != nil {
			return result, errors.Wrap(err, "release savepoint")
		}
		if inserted {
			result.Created++
		} else {
			result.Updated++
		}
	}

	if err := tx.Commit(); err != nil {
		return UpsertResult{}, errors.Wrap(err, "commit upsert transaction")
	}
	return result, nil
}

// scanInserted runs a RETURNING (xmax = 0) row and reports whether the upsert
// took the insert path. xmax is zero only for freshly inserted tuples.
func scanInserted(row *sql.Row) (bool, error) {
	var inserted bool
	if err := row.Scan(&inserted); err != nil {
		return false, err
	}
	return inserted, nil
}
