// Package database handles the ledger rules for blocks and transactions and
// maintains the in memory chain and set of unspent outputs, backed by a
// storage implementation for the blocks.
package database

import (
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ardanlabs/utxocoin/foundation/blockchain/genesis"
)

// Storage interface represents the behavior required to be implemented by any
// package providing support for storing and reading the blockchain. The
// genesis block is never stored.
type Storage interface {
	Write(blockData BlockData) error
	GetBlock(num uint64) (BlockData, error)
	ForEach() Iterator
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented by any
// package providing support to iterate over the blocks.
type Iterator interface {
	Next() (BlockData, error)
	Done() bool
}

// =============================================================================

// Database manages the chain and the set of unspent outputs it produces.
type Database struct {
	mu sync.RWMutex

	genesis genesis.Genesis
	chain   []Block
	utxos   UTXOSet
	storage Storage
}

// New constructs a new database, reads the blocks held by storage and
// validates them, rebuilding the set of unspent outputs.
func New(gen genesis.Genesis, storage Storage, evHandler func(v string, args ...any)) (*Database, error) {
	ev := safeEv(evHandler)

	chain := []Block{GenesisBlock(gen)}

	iter := storage.ForEach()
	for blockData, err := iter.Next(); !iter.Done(); blockData, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		block, err := ToBlock(blockData)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", blockData.Index, err)
		}

		chain = append(chain, block)
	}

	ev("database: New: loaded blocks[%d]", len(chain)-1)

	if err := ValidateChain(chain, gen, time.Now(), ev); err != nil {
		return nil, fmt.Errorf("validate stored chain: %w", err)
	}

	utxos, err := ReplayChain(chain, gen)
	if err != nil {
		return nil, fmt.Errorf("replay stored chain: %w", err)
	}

	db := Database{
		genesis: gen,
		chain:   chain,
		utxos:   utxos,
		storage: storage,
	}

	return &db, nil
}

// Close closes the storage.
func (db *Database) Close() error {
	return db.storage.Close()
}

// Genesis returns the genesis settings.
func (db *Database) Genesis() genesis.Genesis {
	return db.genesis
}

// Append writes the block to storage and makes it the latest block with the
// set of unspent outputs it produced.
func (db *Database) Append(block Block, utxos UTXOSet) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.storage.Write(NewBlockData(block)); err != nil {
		return fmt.Errorf("write block %d: %w", block.Header.Index, err)
	}

	db.chain = append(db.chain, block)
	db.utxos = utxos

	return nil
}

// Replace swaps the whole chain and the set of unspent outputs, rewriting
// storage. When the new chain can't be written, the current chain is
// written back so storage and memory stay in agreement.
func (db *Database) Replace(chain []Block, utxos UTXOSet) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.rewrite(chain); err != nil {
		if rerr := db.rewrite(db.chain); rerr != nil {
			return fmt.Errorf("%w: restore chain: %v", err, rerr)
		}
		return err
	}

	cpy := make([]Block, len(chain))
	copy(cpy, chain)

	db.chain = cpy
	db.utxos = utxos

	return nil
}

// rewrite clears storage and writes every block of the chain after genesis.
func (db *Database) rewrite(chain []Block) error {
	if err := db.storage.Reset(); err != nil {
		return fmt.Errorf("reset storage: %w", err)
	}

	for _, block := range chain[1:] {
		if err := db.storage.Write(NewBlockData(block)); err != nil {
			return fmt.Errorf("write block %d: %w", block.Header.Index, err)
		}
	}

	return nil
}

// =============================================================================

// LatestBlock returns the latest block.
func (db *Database) LatestBlock() Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.chain[len(db.chain)-1]
}

// CopyChain returns a copy of the chain.
func (db *Database) CopyChain() []Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	cpy := make([]Block, len(db.chain))
	copy(cpy, db.chain)
	return cpy
}

// UTXOs returns the current set of unspent outputs.
func (db *Database) UTXOs() UTXOSet {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.utxos
}

// Snapshot returns the latest block, the difficulty for the next block and
// the set of unspent outputs as one consistent view.
func (db *Database) Snapshot() (Block, uint32, UTXOSet) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.chain[len(db.chain)-1], NextDifficulty(db.chain, db.genesis), db.utxos
}

// NextDifficulty returns the difficulty for the next block.
func (db *Database) NextDifficulty() uint32 {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return NextDifficulty(db.chain, db.genesis)
}

// AccumulatedDifficulty returns the total work of the chain.
func (db *Database) AccumulatedDifficulty() *big.Int {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return AccumulatedDifficulty(db.chain)
}

// GetBlock returns the block at the specified index.
func (db *Database) GetBlock(index uint64) (Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if index >= uint64(len(db.chain)) {
		return Block{}, fmt.Errorf("%w: block %d", ErrNotFound, index)
	}

	return db.chain[index], nil
}

// GetBlockByHash returns the block with the specified hash.
func (db *Database) GetBlockByHash(hash string) (Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	for _, block := range db.chain {
		if block.hash == hash {
			return block, nil
		}
	}

	return Block{}, fmt.Errorf("%w: block %.16s", ErrNotFound, hash)
}

// GetTransaction locates a mined transaction by id.
func (db *Database) GetTransaction(id string) (Tx, Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	for _, block := range db.chain {
		for _, tx := range block.Transactions {
			if tx.ID == id {
				return tx.Clone(), block, nil
			}
		}
	}

	return Tx{}, Block{}, fmt.Errorf("%w: transaction %.16s", ErrNotFound, id)
}
