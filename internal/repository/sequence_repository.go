package repository

import (
	"context"
	"database/sql"
)

// SequenceRepo allocates the monotonically increasing per-hotel change
// event sequence.  Allocation happens inside the same transaction as the
// mutation that produces the event, so the sequence order matches commit
// order for each hotel.
type SequenceRepo struct {
	db *sql.DB
}

// NewSequenceRepo returns a SequenceRepo bound to the given database.
func NewSequenceRepo(db *sql.DB) *SequenceRepo { return &SequenceRepo{db: db} }

// NextTx returns the next sequence number for the hotel within the given
// transaction.  The LAST_INSERT_ID trick makes the increment and read a
// single atomic statement pair; the row lock it takes is held until the
// caller commits, which is what serializes event order per hotel.
func (r *SequenceRepo) NextTx(ctx context.Context, tx *sql.Tx, hotelID uint64) (uint64, error) {
	const upsert = `INSERT INTO hotel_sequences (hotel_id, next_seq)
	                VALUES (?, LAST_INSERT_ID(1))
	                ON DUPLICATE KEY UPDATE next_seq = LAST_INSERT_ID(next_seq + 1)`
	if _, err := tx.ExecContext(ctx, upsert, hotelID); err != nil {
		return 0, err
	}
	var seq uint64
	if err := tx.QueryRowContext(ctx, `SELECT LAST_INSERT_ID()`).Scan(&seq); err != nil {
		return 0, err
	}
	return seq, nil
}
