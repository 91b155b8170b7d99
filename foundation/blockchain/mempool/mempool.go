// Package mempool maintains the mempool for the blockchain.
package mempool

import (
	"fmt"
	"sync"

	"github.com/ardanlabs/utxocoin/foundation/blockchain/database"
)

// Mempool represents the ordered set of pending transactions. No two pooled
// transactions claim the same output.
type Mempool struct {
	mu    sync.RWMutex
	pool  []database.Tx
	spent map[database.OutPoint]string
}

// New constructs a new, empty mempool.
func New() *Mempool {
	return &Mempool{
		spent: make(map[database.OutPoint]string),
	}
}

// Count returns the current number of transaction in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Add validates the transaction against the set of unspent outputs and
// appends it to the pool. The transaction is rejected when any of its inputs
// is already claimed by a pooled transaction.
func (mp *Mempool) Add(tx database.Tx, utxos database.UTXOSet) error {
	if err := tx.ValidateStructure(); err != nil {
		return err
	}

	if err := database.ValidateTransaction(tx, utxos); err != nil {
		return err
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()

	for _, in := range tx.TxIns {
		if id, exists := mp.spent[in.OutPoint()]; exists {
			return fmt.Errorf("%w: %s claimed by tx %.16s", database.ErrTxConflict, in.OutPoint(), id)
		}
	}

	for _, in := range tx.TxIns {
		mp.spent[in.OutPoint()] = tx.ID
	}
	mp.pool = append(mp.pool, tx.Clone())

	return nil
}

// Update drops every transaction that references an output no longer in the
// set of unspent outputs. The dropped transactions are returned.
func (mp *Mempool) Update(utxos database.UTXOSet) []database.Tx {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	var keep []database.Tx
	var dropped []database.Tx

	for _, tx := range mp.pool {
		if hasAllTxIns(tx, utxos) {
			keep = append(keep, tx)
			continue
		}

		for _, in := range tx.TxIns {
			delete(mp.spent, in.OutPoint())
		}
		dropped = append(dropped, tx)
	}

	mp.pool = keep

	return dropped
}

// Copy returns a snapshot of the pool that shares no memory with it.
func (mp *Mempool) Copy() []database.Tx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	cpy := make([]database.Tx, len(mp.pool))
	for i, tx := range mp.pool {
		cpy[i] = tx.Clone()
	}

	return cpy
}

// SpentOutPoints returns the outputs claimed by pooled transactions.
func (mp *Mempool) SpentOutPoints() map[database.OutPoint]struct{} {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	ops := make(map[database.OutPoint]struct{}, len(mp.spent))
	for op := range mp.spent {
		ops[op] = struct{}{}
	}

	return ops
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = nil
	mp.spent = make(map[database.OutPoint]string)
}

// =============================================================================

// hasAllTxIns reports if every input of the transaction is still unspent.
func hasAllTxIns(tx database.Tx, utxos database.UTXOSet) bool {
	for _, in := range tx.TxIns {
		if !utxos.Contains(in.OutPoint()) {
			return false
		}
	}

	return true
}
