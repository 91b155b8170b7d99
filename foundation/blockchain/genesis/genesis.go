// Package genesis maintains the consensus constants and the genesis block
// values every node must agree on.
package genesis

import "time"

// Genesis represents the consensus settings of the chain.
type Genesis struct {
	Date                         time.Time `json:"date"`
	Hash                         string    `json:"hash"`                           // Pinned hash of the genesis block.
	CoinbaseAmount               uint64    `json:"coinbase_amount"`                // Reward minted by the coinbase transaction.
	BlockGenerationInterval      uint64    `json:"block_generation_interval"`      // Expected seconds between blocks.
	DifficultyAdjustmentInterval uint64    `json:"difficulty_adjustment_interval"` // Blocks between difficulty retargets.
}

// The genesis block values. Any chain that does not start with exactly
// this block is rejected.
const (
	timestamp = 1756716811
	hash      = "48e1e92c65f9b4356eb955862327159c294f870aef9a4b2cb833e27f6be6008b"
)

// =============================================================================

// Default returns the settings for the chain.
func Default() Genesis {
	return Genesis{
		Date:                         time.Unix(timestamp, 0).UTC(),
		Hash:                         hash,
		CoinbaseAmount:               50,
		BlockGenerationInterval:      10,
		DifficultyAdjustmentInterval: 10,
	}
}

// Timestamp returns the genesis date as unix seconds.
func (g Genesis) Timestamp() uint64 {
	return uint64(g.Date.Unix())
}
