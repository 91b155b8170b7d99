package state

import "github.com/ardanlabs/utxocoin/foundation/blockchain/database"

// SubmitTransaction builds a payment from the node's wallet to the receiver
// and adds it to the mempool.
func (s *State) SubmitTransaction(receiver string, amount uint64) (database.Tx, error) {
	tx, err := s.submitTransaction(receiver, amount)
	if err != nil {
		return database.Tx{}, err
	}

	s.evHandler("state: SubmitTransaction: added tx[%s]", tx)

	s.Worker.SignalShareTx(tx)
	s.Worker.SignalStartMining()

	return tx, nil
}

// UpsertNodeTransaction accepts a transaction from a node for inclusion. A
// transaction the mempool already holds is rejected as a conflict so relays
// come to an end.
func (s *State) UpsertNodeTransaction(tx database.Tx) error {
	if err := s.addTransaction(tx); err != nil {
		return err
	}

	s.evHandler("state: UpsertNodeTransaction: added tx[%s]", tx)

	s.Worker.SignalShareTx(tx)
	s.Worker.SignalStartMining()

	return nil
}

// =============================================================================

func (s *State) submitTransaction(receiver string, amount uint64) (database.Tx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	utxos := s.db.UTXOs()

	tx, err := s.wallet.CreateTransaction(receiver, amount, utxos, s.mempool.Copy())
	if err != nil {
		return database.Tx{}, err
	}

	if err := s.mempool.Add(tx, utxos); err != nil {
		return database.Tx{}, err
	}

	return tx, nil
}

func (s *State) addTransaction(tx database.Tx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mempool.Add(tx, s.db.UTXOs())
}
