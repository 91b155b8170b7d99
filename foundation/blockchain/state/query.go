package state

import (
	"math/big"

	"github.com/ardanlabs/utxocoin/foundation/blockchain/database"
)

// QueryBlockByHash returns the block with the specified hash.
func (s *State) QueryBlockByHash(hash string) (database.Block, error) {
	return s.db.GetBlockByHash(hash)
}

// QueryBlockByIndex returns the block at the specified index.
func (s *State) QueryBlockByIndex(index uint64) (database.Block, error) {
	return s.db.GetBlock(index)
}

// QueryTransaction locates a mined transaction and the block holding it.
func (s *State) QueryTransaction(id string) (database.Tx, database.Block, error) {
	return s.db.GetTransaction(id)
}

// QueryBalance returns the balance of the address.
func (s *State) QueryBalance(address string) uint64 {
	return s.db.UTXOs().Balance(address)
}

// QueryUnspentTxOuts returns the unspent outputs owned by the address.
func (s *State) QueryUnspentTxOuts(address string) []database.UnspentTxOut {
	return s.db.UTXOs().ForAddress(address)
}

// QueryMempoolLength returns the current length of the mempool.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}

// =============================================================================

// RetrieveBlockchain returns a copy of the full chain.
func (s *State) RetrieveBlockchain() []database.Block {
	return s.db.CopyChain()
}

// RetrieveLatestBlock returns a copy the current latest block.
func (s *State) RetrieveLatestBlock() database.Block {
	return s.db.LatestBlock()
}

// RetrieveBalance returns the balance of the node's wallet.
func (s *State) RetrieveBalance() uint64 {
	return s.QueryBalance(s.wallet.Address())
}

// RetrieveUnspentTxOuts returns every unspent output.
func (s *State) RetrieveUnspentTxOuts() []database.UnspentTxOut {
	return s.db.UTXOs().Values()
}

// RetrieveMyUnspentTxOuts returns the unspent outputs of the node's wallet.
func (s *State) RetrieveMyUnspentTxOuts() []database.UnspentTxOut {
	return s.QueryUnspentTxOuts(s.wallet.Address())
}

// RetrieveMempool returns a copy of the mempool.
func (s *State) RetrieveMempool() []database.Tx {
	return s.mempool.Copy()
}

// RetrieveDifficulty returns the difficulty of the next block.
func (s *State) RetrieveDifficulty() uint32 {
	return s.db.NextDifficulty()
}

// RetrieveAccumulatedDifficulty returns the total work of the chain.
func (s *State) RetrieveAccumulatedDifficulty() *big.Int {
	return s.db.AccumulatedDifficulty()
}
