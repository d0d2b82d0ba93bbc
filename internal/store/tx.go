package store

import "database/sql"

// Tx is the transactional unit of work every engine operation runs inside.
// All result and audit mutations go through Tx methods; nothing writes
// through the Store directly.
type Tx struct {
	tx *sql.Tx
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	return t.tx.Commit()
}

// Rollback aborts the transaction. Safe to call after Commit.
func (t *Tx) Rollback() error {
	err := t.tx.Rollback()
	if err == sql.ErrTxDone {
		return nil
	}
	return err
}
