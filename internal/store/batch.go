package store

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// pgxBatch is a thin wrapper so the call sites above read as "queue then
// execute" without repeating pgx.Batch boilerplate at every call site.
type pgxBatch struct {
	batch pgx.Batch
}

func (b *pgxBatch) queue(sql string, args ...any) {
	b.batch.Queue(sql, args...)
}

// execBatch sends the batch over tx and drains every queued result,
// surfacing the first error encountered. Mirrors the builder's
// SendBatch-based executeBatch helper.
func execBatch(ctx context.Context, tx pgx.Tx, b *pgxBatch) error {
	br := tx.SendBatch(ctx, &b.batch)
	defer br.Close()

	for i := 0; i < b.batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
