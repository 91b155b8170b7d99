package database

import (
	"math/big"
	"time"

	"github.com/ardanlabs/utxocoin/foundation/blockchain/genesis"
)

// GenesisBlock constructs the fixed first block of the chain.
func GenesisBlock(gen genesis.Genesis) Block {
	return Block{
		Header: BlockHeader{
			Index:        0,
			PreviousHash: "",
			Timestamp:    gen.Timestamp(),
			Difficulty:   0,
			Nonce:        0,
		},
		Transactions: []Tx{},
		hash:         gen.Hash,
	}
}

// IsGenesis checks the block is exactly the genesis block.
func IsGenesis(block Block, gen genesis.Genesis) bool {
	gb := GenesisBlock(gen)

	return block.Header == gb.Header &&
		len(block.Transactions) == 0 &&
		block.hash == gb.hash
}

// ValidateChain checks the chain starts with the genesis block and that
// every block is a valid successor of the block before it. Transactions are
// checked by ReplayChain.
func ValidateChain(chain []Block, gen genesis.Genesis, now time.Time, evHandler func(v string, args ...any)) error {
	if len(chain) == 0 {
		return structural("empty chain")
	}

	if !IsGenesis(chain[0], gen) {
		return consensus("first block does not match genesis, got %s", chain[0])
	}

	for i := 1; i < len(chain); i++ {
		if err := chain[i].ValidateBlock(chain[i-1], now, evHandler); err != nil {
			return err
		}
	}

	return nil
}

// ReplayChain builds the set of unspent outputs by processing the
// transactions of every block after genesis, starting from an empty set.
func ReplayChain(chain []Block, gen genesis.Genesis) (UTXOSet, error) {
	var utxos UTXOSet

	for i := 1; i < len(chain); i++ {
		var err error
		utxos, err = ProcessTransactions(chain[i].Transactions, utxos, chain[i].Header.Index, gen.CoinbaseAmount)
		if err != nil {
			return UTXOSet{}, err
		}
	}

	return utxos, nil
}

// AccumulatedDifficulty returns the sum of 2^difficulty over the chain.
func AccumulatedDifficulty(chain []Block) *big.Int {
	total := new(big.Int)
	for _, block := range chain {
		work := new(big.Int).Lsh(big.NewInt(1), uint(block.Header.Difficulty))
		total.Add(total, work)
	}

	return total
}

// =============================================================================

// NextDifficulty returns the difficulty for the block that follows the
// chain. The difficulty is inherited from the latest block except on every
// adjustment interval, where it is recomputed from the time the last
// interval took.
func NextDifficulty(chain []Block, gen genesis.Genesis) uint32 {
	if len(chain) == 0 {
		return 0
	}

	latest := chain[len(chain)-1]
	interval := gen.DifficultyAdjustmentInterval

	if interval == 0 || latest.Header.Index == 0 || latest.Header.Index%interval != 0 {
		return latest.Header.Difficulty
	}

	return adjustedDifficulty(chain, gen)
}

// adjustedDifficulty compares the time taken by the last interval with the
// expected time and moves the difficulty by one when it's off by a factor
// of two.
func adjustedDifficulty(chain []Block, gen genesis.Genesis) uint32 {
	latest := chain[len(chain)-1]
	interval := gen.DifficultyAdjustmentInterval

	if uint64(len(chain)) <= interval {
		return latest.Header.Difficulty
	}
	prevAdjustment := chain[uint64(len(chain))-interval-1]

	expected := int64(gen.BlockGenerationInterval * interval)
	taken := int64(latest.Header.Timestamp) - int64(prevAdjustment.Header.Timestamp)

	switch {
	case taken < expected/2:
		return prevAdjustment.Header.Difficulty + 1

	case taken > expected*2:
		if prevAdjustment.Header.Difficulty == 0 {
			return 0
		}
		return prevAdjustment.Header.Difficulty - 1

	default:
		return prevAdjustment.Header.Difficulty
	}
}
