package database

import "fmt"

// OutPoint identifies a transaction output by the id of the transaction
// that created it and its position in that transaction.
type OutPoint struct {
	TxOutID    string
	TxOutIndex uint64
}

// String implements the Stringer interface for logging.
func (op OutPoint) String() string {
	return fmt.Sprintf("%.16s:%d", op.TxOutID, op.TxOutIndex)
}

// UnspentTxOut is an output that has not been consumed by an accepted
// transaction yet.
type UnspentTxOut struct {
	TxOutID    string `json:"txOutId"`
	TxOutIndex uint64 `json:"txOutIndex"`
	Address    string `json:"address"`
	Amount     uint64 `json:"amount"`
}

// OutPoint returns the identity of the unspent output.
func (u UnspentTxOut) OutPoint() OutPoint {
	return OutPoint{TxOutID: u.TxOutID, TxOutIndex: u.TxOutIndex}
}

// =============================================================================

// UTXOSet is the ordered set of unspent outputs. A set is never modified
// after construction; transitions produce a new set.
type UTXOSet struct {
	outs  []UnspentTxOut
	index map[OutPoint]int
}

// NewUTXOSet constructs a set from the outputs, keeping their order.
func NewUTXOSet(outs []UnspentTxOut) UTXOSet {
	set := UTXOSet{
		outs:  make([]UnspentTxOut, len(outs)),
		index: make(map[OutPoint]int, len(outs)),
	}

	copy(set.outs, outs)
	for i, utxo := range set.outs {
		set.index[utxo.OutPoint()] = i
	}

	return set
}

// Len returns the number of unspent outputs.
func (s UTXOSet) Len() int {
	return len(s.outs)
}

// Find locates the unspent output by the transaction id and position.
func (s UTXOSet) Find(txOutID string, txOutIndex uint64) (UnspentTxOut, bool) {
	i, exists := s.index[OutPoint{TxOutID: txOutID, TxOutIndex: txOutIndex}]
	if !exists {
		return UnspentTxOut{}, false
	}

	return s.outs[i], true
}

// Contains reports if the output is still unspent.
func (s UTXOSet) Contains(op OutPoint) bool {
	_, exists := s.index[op]
	return exists
}

// Values returns a copy of the unspent outputs in order.
func (s UTXOSet) Values() []UnspentTxOut {
	cpy := make([]UnspentTxOut, len(s.outs))
	copy(cpy, s.outs)
	return cpy
}

// ForAddress returns the unspent outputs owned by the address in order.
func (s UTXOSet) ForAddress(address string) []UnspentTxOut {
	var outs []UnspentTxOut
	for _, utxo := range s.outs {
		if utxo.Address == address {
			outs = append(outs, utxo)
		}
	}

	return outs
}

// Balance returns the sum of the unspent outputs owned by the address.
func (s UTXOSet) Balance(address string) uint64 {
	var total uint64
	for _, utxo := range s.outs {
		if utxo.Address == address {
			total += utxo.Amount
		}
	}

	return total
}

// Total returns the sum of every unspent output.
func (s UTXOSet) Total() uint64 {
	var total uint64
	for _, utxo := range s.outs {
		total += utxo.Amount
	}

	return total
}
