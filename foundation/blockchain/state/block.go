package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/utxocoin/foundation/blockchain/database"
)

// ProcessProposedBlock takes a block received from a peer, validates it and
// if that passes, adds the block to the local blockchain. A block that is
// ahead of our tip starts a sync with the peers.
func (s *State) ProcessProposedBlock(block database.Block) error {
	s.evHandler("state: ProcessProposedBlock: started: prevBlk[%.16s]: newBlk[%s]: numTrans[%d]", block.Header.PreviousHash, block, len(block.Transactions))
	defer s.evHandler("state: ProcessProposedBlock: completed: newBlk[%s]", block)

	if err := s.AddBlock(block); err != nil {
		if errors.Is(err, database.ErrChainForked) {
			s.evHandler("state: ProcessProposedBlock: signal peer sync")
			s.Worker.SignalPeerSync()
		}
		return err
	}

	// Relay the block. Peers that already have it will reject it.
	s.Worker.SignalShareBlock(block)

	return nil
}

// AddBlock validates the block as the next block of the chain along with its
// transactions. If everything passes, the block is written to storage, the
// set of unspent outputs is replaced and the mempool updated. Nothing
// changes when any check fails.
func (s *State) AddBlock(block database.Block) error {
	if err := s.addBlock(block); err != nil {
		return err
	}

	// The tip changed so any block being mined is stale.
	s.cancelMining()

	s.blockEvent(block)

	return nil
}

// ReplaceChain swaps the local chain for the candidate chain when the
// candidate is valid and carries strictly more accumulated difficulty.
func (s *State) ReplaceChain(chain []database.Block) error {
	s.evHandler("state: ReplaceChain: started: blocks[%d]", len(chain))
	defer s.evHandler("state: ReplaceChain: completed")

	if err := s.replaceChain(chain); err != nil {
		s.evHandler("state: ReplaceChain: REJECTED: %s", err)
		return err
	}

	s.cancelMining()

	s.blockEvent(chain[len(chain)-1])

	return nil
}

// =============================================================================

// addBlock performs the validation and state change for AddBlock under the
// state lock.
func (s *State) addBlock(block database.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, _, utxos := s.db.Snapshot()

	s.evHandler("state: addBlock: validate block")

	if err := block.ValidateBlock(prev, time.Now(), s.evHandler); err != nil {
		return err
	}

	s.evHandler("state: addBlock: process transactions")

	next, err := database.ProcessTransactions(block.Transactions, utxos, block.Header.Index, s.genesis.CoinbaseAmount)
	if err != nil {
		return err
	}

	s.evHandler("state: addBlock: write to storage")

	if err := s.db.Append(block, next); err != nil {
		return err
	}

	s.evHandler("state: addBlock: update mempool")

	for _, tx := range s.mempool.Update(next) {
		s.evHandler("state: addBlock: mempool: removed tx[%s]", tx)
	}

	return nil
}

// replaceChain performs the validation and state change for ReplaceChain
// under the state lock.
func (s *State) replaceChain(chain []database.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := database.ValidateChain(chain, s.genesis, time.Now(), s.evHandler); err != nil {
		return err
	}

	utxos, err := database.ReplayChain(chain, s.genesis)
	if err != nil {
		return err
	}

	local := s.db.AccumulatedDifficulty()
	candidate := database.AccumulatedDifficulty(chain)
	if candidate.Cmp(local) <= 0 {
		return fmt.Errorf("%w: got %s, local %s", database.ErrNotHeavier, candidate, local)
	}

	if err := s.db.Replace(chain, utxos); err != nil {
		return err
	}

	for _, tx := range s.mempool.Update(utxos) {
		s.evHandler("state: replaceChain: mempool: removed tx[%s]", tx)
	}

	return nil
}

// blockEvent provides a specific event about a new block in the chain for
// application specific support.
func (s *State) blockEvent(block database.Block) {
	blockJSON, err := json.Marshal(database.NewBlockData(block))
	if err != nil {
		blockJSON = []byte(fmt.Sprintf("%q", err.Error()))
	}

	s.evHandler(`viewer: block: %s`, string(blockJSON))
}
