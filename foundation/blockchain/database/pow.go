package database

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ardanlabs/utxocoin/foundation/blockchain/signature"
)

// cancelCheckInterval is the number of nonce attempts between checks of the
// mining context.
const cancelCheckInterval = 1_000

// hexToBits maps a hex digit to its four bit binary string.
var hexToBits = map[rune]string{
	'0': "0000", '1': "0001", '2': "0010", '3': "0011",
	'4': "0100", '5': "0101", '6': "0110", '7': "0111",
	'8': "1000", '9': "1001", 'a': "1010", 'b': "1011",
	'c': "1100", 'd': "1101", 'e': "1110", 'f': "1111",
}

// =============================================================================

// FindArgs represents the set of arguments required to mine a block.
type FindArgs struct {
	Index        uint64
	PreviousHash string
	Timestamp    uint64
	Transactions []Tx
	Difficulty   uint32
	EvHandler    func(v string, args ...any)
}

// FindBlock performs the proof of work for a block. The nonce starts at
// zero and is incremented until the hash has the required number of
// leading zero bits. The search stops with the context error when the
// context is cancelled.
func FindBlock(ctx context.Context, args FindArgs) (Block, error) {
	ev := safeEv(args.EvHandler)

	ev("database: FindBlock: MINING: started: blk[%d]: difficulty[%d]", args.Index, args.Difficulty)
	defer ev("database: FindBlock: MINING: completed: blk[%d]", args.Index)

	header := BlockHeader{
		Index:        args.Index,
		PreviousHash: args.PreviousHash,
		Timestamp:    args.Timestamp,
		Difficulty:   args.Difficulty,
		Nonce:        0,
	}

	txsJSON, err := marshalTxs(args.Transactions)
	if err != nil {
		return Block{}, fmt.Errorf("marshal transactions: %w", err)
	}

	// Everything but the nonce is constant while searching.
	prefix := preimage(header, txsJSON)

	var attempts uint64
	for {
		if attempts%cancelCheckInterval == 0 && ctx.Err() != nil {
			ev("database: FindBlock: MINING: CANCELLED: attempts[%d]", attempts)
			return Block{}, ctx.Err()
		}
		attempts++

		hash := signature.Hash(prefix + strconv.FormatUint(header.Nonce, 10))
		if !HashMatchesDifficulty(hash, header.Difficulty) {
			header.Nonce++
			continue
		}

		ev("database: FindBlock: MINING: SOLVED: prevBlk[%.16s]: newBlk[%s]: attempts[%d]", header.PreviousHash, hash, attempts)

		block := Block{
			Header:       header,
			Transactions: args.Transactions,
			hash:         hash,
		}

		return block, nil
	}
}

// HashMatchesDifficulty checks the hash has at least difficulty leading
// zero bits.
func HashMatchesDifficulty(hash string, difficulty uint32) bool {
	bits, err := HexToBinary(hash)
	if err != nil {
		return false
	}

	if uint64(difficulty) > uint64(len(bits)) {
		return false
	}

	return strings.Count(bits[:difficulty], "0") == int(difficulty)
}

// HexToBinary converts a hex string into its binary representation with
// four bits per hex digit.
func HexToBinary(hex string) (string, error) {
	if hex == "" {
		return "", fmt.Errorf("empty hex string")
	}

	var b strings.Builder
	b.Grow(len(hex) * 4)

	for _, c := range strings.ToLower(hex) {
		bits, exists := hexToBits[c]
		if !exists {
			return "", fmt.Errorf("invalid hex character %q", c)
		}
		b.WriteString(bits)
	}

	return b.String(), nil
}
