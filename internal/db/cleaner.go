package db

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// StartSoftDeleteCleaner purges accounts that were soft-deleted more than
// retention ago. It runs every interval until ctx is cancelled.
func StartSoftDeleteCleaner(
	ctx context.Context,
	db *sql.DB,
	interval time.Duration,
	retention time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := PurgeDeletedAccounts(ctx, db, time.Now().Add(-retention))
				if err != nil {
					log.Error("failed to purge deleted accounts", zap.Error(err))
					continue
				}
				if removed > 0 {
					log.Info("purged deleted accounts", zap.Int64("removed", removed))
				}
			}
		}
	}()
}

// PurgeDeletedAccounts hard-deletes accounts soft-deleted before cutoff and
// returns how many rows were removed.
func PurgeDeletedAccounts(ctx context.Context, db *sql.DB, cutoff time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, `
        DELETE FROM accounts
         WHERE deleted = true
           AND deleted_at < $1
    `, cutoff)
	if err != nil {
		return 0, err
	}
	rows, _ := res.RowsAffected()
	return rows, nil
}
