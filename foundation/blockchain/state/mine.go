package state

import (
	"context"
	"time"

	"github.com/ardanlabs/utxocoin/foundation/blockchain/database"
)

// MineNewBlock mines a block holding the coinbase and every transaction in
// the mempool. The mining is cancelled when the context is cancelled or a
// new block is accepted by other means.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	s.evHandler("state: MineNewBlock: MINING: started")
	defer s.evHandler("state: MineNewBlock: MINING: completed")

	return s.mine(ctx, func(database.UTXOSet, []database.Tx) ([]database.Tx, error) {
		return s.mempool.Copy(), nil
	})
}

// MineRawBlock mines a block holding the coinbase followed by the specified
// transactions.
func (s *State) MineRawBlock(ctx context.Context, txs []database.Tx) (database.Block, error) {
	s.evHandler("state: MineRawBlock: MINING: started: txs[%d]", len(txs))
	defer s.evHandler("state: MineRawBlock: MINING: completed")

	return s.mine(ctx, func(database.UTXOSet, []database.Tx) ([]database.Tx, error) {
		return txs, nil
	})
}

// MineBlockWithTransaction mines a block holding the coinbase and a payment
// from the node's wallet to the receiver.
func (s *State) MineBlockWithTransaction(ctx context.Context, receiver string, amount uint64) (database.Block, error) {
	s.evHandler("state: MineBlockWithTransaction: MINING: started: receiver[%.16s]: amount[%d]", receiver, amount)
	defer s.evHandler("state: MineBlockWithTransaction: MINING: completed")

	return s.mine(ctx, func(utxos database.UTXOSet, pool []database.Tx) ([]database.Tx, error) {
		tx, err := s.wallet.CreateTransaction(receiver, amount, utxos, pool)
		if err != nil {
			return nil, err
		}
		return []database.Tx{tx}, nil
	})
}

// =============================================================================

// payloadFunc produces the transactions that follow the coinbase in a block
// from a consistent view of the ledger.
type payloadFunc func(utxos database.UTXOSet, pool []database.Tx) ([]database.Tx, error)

// mine performs the proof of work for a block on top of the current tip and
// adds it to the chain.
func (s *State) mine(ctx context.Context, payload payloadFunc) (database.Block, error) {

	// Register before reading the tip so a tip change can't be missed.
	ctx, done := s.miningContext(ctx)
	defer done()

	args, err := s.findArgs(payload)
	if err != nil {
		return database.Block{}, err
	}

	t := time.Now()
	block, err := database.FindBlock(ctx, args)
	s.evHandler("state: mine: MINING: blk[%d]: duration[%v]", args.Index, time.Since(t))
	if err != nil {
		return database.Block{}, err
	}

	s.evHandler("state: mine: MINING: validate and update database")

	if err := s.AddBlock(block); err != nil {
		return database.Block{}, err
	}

	// WOW, we mined a block. Send the new block to the network.
	s.Worker.SignalShareBlock(block)

	return block, nil
}

// findArgs builds the arguments for the next block from one snapshot of the
// ledger. The transactions are validated against that snapshot so no work
// is spent on a block that would be rejected.
func (s *State) findArgs(payload payloadFunc) (database.FindArgs, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prev, difficulty, utxos := s.db.Snapshot()

	txs, err := payload(utxos, s.mempool.Copy())
	if err != nil {
		return database.FindArgs{}, err
	}

	index := prev.Header.Index + 1
	coinbase := database.NewCoinbaseTx(s.wallet.Address(), index, s.genesis.CoinbaseAmount)
	txs = append([]database.Tx{coinbase}, txs...)

	if _, err := database.ProcessTransactions(txs, utxos, index, s.genesis.CoinbaseAmount); err != nil {
		return database.FindArgs{}, err
	}

	args := database.FindArgs{
		Index:        index,
		PreviousHash: prev.Hash(),
		Timestamp:    uint64(time.Now().Unix()),
		Transactions: txs,
		Difficulty:   max(difficulty, s.difficultyFloor),
		EvHandler:    s.evHandler,
	}

	return args, nil
}
