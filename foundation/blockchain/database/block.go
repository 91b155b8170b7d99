package database

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/ardanlabs/utxocoin/foundation/blockchain/signature"
)

// timestampTolerance is the number of seconds a block timestamp may drift
// from its parent and from the local clock.
const timestampTolerance = 60

// =============================================================================

// BlockHeader represents common information required for each block.
type BlockHeader struct {
	Index        uint64 // Position of the block in the chain.
	PreviousHash string // Hash of the previous block in the chain.
	Timestamp    uint64 // Time the block was mined, unix seconds.
	Difficulty   uint32 // Number of leading zero bits the hash needs.
	Nonce        uint64 // Value identified to solve the hash solution.
}

// Block represents a group of transactions batched together. A Block is
// only constructed by mining, from the genesis values, or by ToBlock so the
// structure is always checked.
type Block struct {
	Header       BlockHeader
	Transactions []Tx
	hash         string
}

// Hash returns the hash stored with the block.
func (b Block) Hash() string {
	return b.hash
}

// String implements the Stringer interface for logging.
func (b Block) String() string {
	return strconv.FormatUint(b.Header.Index, 10) + ":" + b.hash
}

// CalculateHash recomputes the hash of the block from its content.
func (b Block) CalculateHash() string {
	return CalculateHash(b.Header, b.Transactions)
}

// CalculateHash returns the hash for the header fields and transactions.
func CalculateHash(header BlockHeader, txs []Tx) string {
	txsJSON, err := marshalTxs(txs)
	if err != nil {
		return ""
	}

	return signature.Hash(preimage(header, txsJSON) + strconv.FormatUint(header.Nonce, 10))
}

// ValidateStructure checks the shape of the block and its transactions.
func (b Block) ValidateStructure() error {
	if !signature.IsHash(b.hash) {
		return structural("invalid block hash %q", b.hash)
	}

	if b.Header.Index > 0 && !signature.IsHash(b.Header.PreviousHash) {
		return structural("invalid previous hash %q", b.Header.PreviousHash)
	}

	for _, tx := range b.Transactions {
		if err := tx.ValidateStructure(); err != nil {
			return err
		}
	}

	return nil
}

// ValidateBlock takes a block and validates it to be the next block after
// the specified previous block. The transactions are validated separately
// against the set of unspent outputs.
func (b Block) ValidateBlock(previousBlock Block, now time.Time, evHandler func(v string, args ...any)) error {
	ev := safeEv(evHandler)

	ev("database: ValidateBlock: validate: blk[%d]: check: structure", b.Header.Index)

	if err := b.ValidateStructure(); err != nil {
		return err
	}

	ev("database: ValidateBlock: validate: blk[%d]: check: block is the next index", b.Header.Index)

	nextIndex := previousBlock.Header.Index + 1
	switch {
	case b.Header.Index > nextIndex:
		return ErrChainForked

	case b.Header.Index != nextIndex:
		return consensus("this block is not the next index, got %d, exp %d", b.Header.Index, nextIndex)
	}

	ev("database: ValidateBlock: validate: blk[%d]: check: previous hash does match parent block", b.Header.Index)

	if b.Header.PreviousHash != previousBlock.Hash() {
		return ErrChainForked
	}

	ev("database: ValidateBlock: validate: blk[%d]: check: timestamp is within tolerance", b.Header.Index)

	ts := int64(b.Header.Timestamp)
	if int64(previousBlock.Header.Timestamp)-timestampTolerance >= ts {
		return consensus("block timestamp %d is too far before parent %d", ts, previousBlock.Header.Timestamp)
	}
	if ts-timestampTolerance >= now.Unix() {
		return consensus("block timestamp %d is too far in the future, now %d", ts, now.Unix())
	}

	ev("database: ValidateBlock: validate: blk[%d]: check: block hash matches content", b.Header.Index)

	if hash := b.CalculateHash(); hash != b.hash {
		return consensus("invalid block hash, got %.16s, exp %.16s", b.hash, hash)
	}

	ev("database: ValidateBlock: validate: blk[%d]: check: block hash has been solved", b.Header.Index)

	if !HashMatchesDifficulty(b.hash, b.Header.Difficulty) {
		return consensus("block hash %.16s does not match difficulty %d", b.hash, b.Header.Difficulty)
	}

	return nil
}

// =============================================================================

// BlockData represents what is serialized to disk and over the network.
type BlockData struct {
	Index        uint64 `json:"index"`
	PreviousHash string `json:"previousHash"`
	Timestamp    uint64 `json:"timestamp"`
	Transactions []Tx   `json:"transactions"`
	Difficulty   uint32 `json:"difficulty"`
	Nonce        uint64 `json:"nonce"`
	Hash         string `json:"hash"`
}

// NewBlockData constructs the value to serialize.
func NewBlockData(block Block) BlockData {
	txs := make([]Tx, len(block.Transactions))
	for i, tx := range block.Transactions {
		txs[i] = tx.Clone()
	}

	return BlockData{
		Index:        block.Header.Index,
		PreviousHash: block.Header.PreviousHash,
		Timestamp:    block.Header.Timestamp,
		Transactions: txs,
		Difficulty:   block.Header.Difficulty,
		Nonce:        block.Header.Nonce,
		Hash:         block.hash,
	}
}

// ToBlock converts serialized block data into a block. Data that fails the
// structural checks never becomes a Block.
func ToBlock(data BlockData) (Block, error) {
	txs := make([]Tx, len(data.Transactions))
	for i, tx := range data.Transactions {
		txs[i] = tx.Clone()
	}

	block := Block{
		Header: BlockHeader{
			Index:        data.Index,
			PreviousHash: data.PreviousHash,
			Timestamp:    data.Timestamp,
			Difficulty:   data.Difficulty,
			Nonce:        data.Nonce,
		},
		Transactions: txs,
		hash:         data.Hash,
	}

	if err := block.ValidateStructure(); err != nil {
		return Block{}, err
	}

	return block, nil
}

// ToBlocks converts a serialized chain into blocks.
func ToBlocks(data []BlockData) ([]Block, error) {
	blocks := make([]Block, len(data))
	for i, bd := range data {
		block, err := ToBlock(bd)
		if err != nil {
			return nil, err
		}
		blocks[i] = block
	}

	return blocks, nil
}

// =============================================================================

// marshalTxs produces the transaction part of the hash preimage. An empty
// list always encodes as [].
func marshalTxs(txs []Tx) (string, error) {
	if txs == nil {
		txs = []Tx{}
	}

	data, err := json.Marshal(txs)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// preimage concatenates the fields that come before the nonce.
func preimage(header BlockHeader, txsJSON string) string {
	var b strings.Builder
	b.WriteString(strconv.FormatUint(header.Index, 10))
	b.WriteString(header.PreviousHash)
	b.WriteString(strconv.FormatUint(header.Timestamp, 10))
	b.WriteString(txsJSON)
	b.WriteString(strconv.FormatUint(uint64(header.Difficulty), 10))

	return b.String()
}

// safeEv returns an event handler that can always be called.
func safeEv(evHandler func(v string, args ...any)) func(v string, args ...any) {
	if evHandler == nil {
		return func(string, ...any) {}
	}

	return evHandler
}
