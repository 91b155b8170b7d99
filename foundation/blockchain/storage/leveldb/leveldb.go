// Package leveldb implements the ability to read and write blocks to a
// LevelDB database keyed by block index.
package leveldb

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ardanlabs/utxocoin/foundation/blockchain/database"
	"github.com/syndtr/goleveldb/leveldb"
	ldbErrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// blockPrefix is prepended to every block key.
var blockPrefix = []byte("blk/")

// LevelDB represents the serialization implementation for reading and
// storing blocks in LevelDB. This implements the database.Storage interface.
type LevelDB struct {
	ldb *leveldb.DB
}

// New opens the database at the path, creating it if it doesn't exist and
// recovering it when it's corrupted.
func New(path string) (*LevelDB, error) {
	ldb, err := leveldb.OpenFile(path, nil)

	var corrupted *ldbErrors.ErrCorrupted
	if errors.As(err, &corrupted) {
		ldb, err = leveldb.RecoverFile(path, nil)
	}

	if err != nil {
		return nil, fmt.Errorf("open leveldb %s: %w", path, err)
	}

	return &LevelDB{ldb: ldb}, nil
}

// Close closes the leveldb instance.
func (db *LevelDB) Close() error {
	return db.ldb.Close()
}

// Write stores the block under its index.
func (db *LevelDB) Write(blockData database.BlockData) error {
	data, err := json.Marshal(blockData)
	if err != nil {
		return err
	}

	return db.ldb.Put(blockKey(blockData.Index), data, nil)
}

// GetBlock locates and returns the contents of the specified block by index.
func (db *LevelDB) GetBlock(num uint64) (database.BlockData, error) {
	data, err := db.ldb.Get(blockKey(num), nil)
	if err != nil {
		return database.BlockData{}, err
	}

	var blockData database.BlockData
	if err := json.Unmarshal(data, &blockData); err != nil {
		return database.BlockData{}, fmt.Errorf("decode block %d: %w", num, err)
	}

	return blockData, nil
}

// ForEach returns an iterator to walk through all the blocks
// starting with block number 1.
func (db *LevelDB) ForEach() database.Iterator {
	return &ldbIterator{db: db}
}

// Reset deletes every stored block in one batch.
func (db *LevelDB) Reset() error {
	iter := db.ldb.NewIterator(util.BytesPrefix(blockPrefix), nil)
	defer iter.Release()

	var batch leveldb.Batch
	for iter.Next() {
		batch.Delete(append([]byte(nil), iter.Key()...))
	}

	if err := iter.Error(); err != nil {
		return err
	}

	return db.ldb.Write(&batch, nil)
}

// blockKey builds the key for a block. The big endian index keeps the keys
// in chain order.
func blockKey(num uint64) []byte {
	key := make([]byte, len(blockPrefix)+8)
	copy(key, blockPrefix)
	binary.BigEndian.PutUint64(key[len(blockPrefix):], num)
	return key
}

// =============================================================================

// ldbIterator walks the blocks by index until the first missing one. This
// implements the database Iterator interface.
type ldbIterator struct {
	db      *LevelDB
	current uint64
	eoc     bool
}

// Next retrieves the next block.
func (li *ldbIterator) Next() (database.BlockData, error) {
	if li.eoc {
		return database.BlockData{}, errors.New("end of chain")
	}

	li.current++
	blockData, err := li.db.GetBlock(li.current)
	if errors.Is(err, leveldb.ErrNotFound) {
		li.eoc = true
		return database.BlockData{}, nil
	}

	return blockData, err
}

// Done returns the end of chain value.
func (li *ldbIterator) Done() bool {
	return li.eoc
}
