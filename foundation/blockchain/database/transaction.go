package database

import (
	"crypto/ecdsa"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ardanlabs/utxocoin/foundation/blockchain/signature"
)

// TxIn is a claim to spend a specific output of a prior transaction.
type TxIn struct {
	TxOutID    string `json:"txOutId"`    // Id of the transaction holding the output.
	TxOutIndex uint64 `json:"txOutIndex"` // Position of the output, or the block index for a coinbase.
	Signature  string `json:"signature"`  // DER encoded ECDSA signature over the transaction id, as hex.
}

// OutPoint returns the output this input refers to.
func (in TxIn) OutPoint() OutPoint {
	return OutPoint{TxOutID: in.TxOutID, TxOutIndex: in.TxOutIndex}
}

// TxOut assigns an amount to an address.
type TxOut struct {
	Address string `json:"address"` // Uncompressed public key of the owner, as hex.
	Amount  uint64 `json:"amount"`  // Number of coins.
}

// Tx represents a transfer of coins from a set of unspent outputs to a
// new set of outputs.
type Tx struct {
	ID     string  `json:"id"`
	TxIns  []TxIn  `json:"txIns"`
	TxOuts []TxOut `json:"txOuts"`
}

// String implements the Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%.16s:ins[%d]:outs[%d]", tx.ID, len(tx.TxIns), len(tx.TxOuts))
}

// Clone returns a copy of the transaction that shares no memory with the
// original.
func (tx Tx) Clone() Tx {
	cpy := Tx{ID: tx.ID}

	if tx.TxIns != nil {
		cpy.TxIns = make([]TxIn, len(tx.TxIns))
		copy(cpy.TxIns, tx.TxIns)
	}

	if tx.TxOuts != nil {
		cpy.TxOuts = make([]TxOut, len(tx.TxOuts))
		copy(cpy.TxOuts, tx.TxOuts)
	}

	return cpy
}

// =============================================================================

// TransactionID calculates the id of the transaction. Signatures are not part
// of the calculation so the id is stable once inputs and outputs are set.
func TransactionID(tx Tx) string {
	var b strings.Builder

	for _, in := range tx.TxIns {
		b.WriteString(in.TxOutID)
		b.WriteString(strconv.FormatUint(in.TxOutIndex, 10))
	}

	for _, out := range tx.TxOuts {
		b.WriteString(out.Address)
		b.WriteString(strconv.FormatUint(out.Amount, 10))
	}

	return signature.Hash(b.String())
}

// NewTx constructs an unsigned transaction and calculates its id. The
// outputs are checked so a transaction to a malformed address is never built.
func NewTx(ins []TxIn, outs []TxOut) (Tx, error) {
	for _, out := range outs {
		if err := out.ValidateStructure(); err != nil {
			return Tx{}, err
		}
	}

	tx := Tx{
		TxIns:  ins,
		TxOuts: outs,
	}
	tx.ID = TransactionID(tx)

	return tx, nil
}

// NewCoinbaseTx constructs the reward transaction for the miner of the
// block at the specified index.
func NewCoinbaseTx(address string, blockIndex uint64, reward uint64) Tx {
	tx := Tx{
		TxIns:  []TxIn{{TxOutID: "", TxOutIndex: blockIndex, Signature: ""}},
		TxOuts: []TxOut{{Address: address, Amount: reward}},
	}
	tx.ID = TransactionID(tx)

	return tx
}

// SignTxIn produces the signature for the input at the specified position.
// The private key must own the output the input refers to.
func SignTxIn(tx Tx, txInIndex int, privateKey *ecdsa.PrivateKey, utxos UTXOSet) (string, error) {
	if txInIndex < 0 || txInIndex >= len(tx.TxIns) {
		return "", structural("txIn index %d out of range, txIns[%d]", txInIndex, len(tx.TxIns))
	}
	in := tx.TxIns[txInIndex]

	utxo, exists := utxos.Find(in.TxOutID, in.TxOutIndex)
	if !exists {
		return "", consensus("referenced txOut not found: %s", in.OutPoint())
	}

	if signature.PrivateKeyToAddress(privateKey) != utxo.Address {
		return "", fmt.Errorf("%w: %s", ErrSignerMismatch, in.OutPoint())
	}

	return signature.Sign(tx.ID, privateKey)
}

// =============================================================================

// ValidateStructure checks the shape of the output.
func (out TxOut) ValidateStructure() error {
	if !signature.IsAddress(out.Address) {
		return structural("invalid txOut address %.16s", out.Address)
	}

	return nil
}

// ValidateStructure checks the shape of the transaction. The signature and
// referenced outputs are checked by ValidateTransaction.
func (tx Tx) ValidateStructure() error {
	if !signature.IsHash(tx.ID) {
		return structural("invalid transaction id %q", tx.ID)
	}

	for _, in := range tx.TxIns {
		if in.TxOutID != "" && !signature.IsHash(in.TxOutID) {
			return structural("invalid txOutId %q in tx %s", in.TxOutID, tx)
		}
	}

	for _, out := range tx.TxOuts {
		if err := out.ValidateStructure(); err != nil {
			return err
		}
	}

	return nil
}

// ValidateTransaction checks the transaction against the set of unspent
// outputs. The id must match the content, every input must reference an
// unspent output once and be signed by its owner, and the inputs and
// outputs must carry the same total amount.
func ValidateTransaction(tx Tx, utxos UTXOSet) error {
	if id := TransactionID(tx); id != tx.ID {
		return consensus("invalid tx id, got %.16s, exp %.16s", tx.ID, id)
	}

	seen := make(map[OutPoint]struct{}, len(tx.TxIns))
	var totalIn uint64
	for _, in := range tx.TxIns {
		op := in.OutPoint()
		if _, exists := seen[op]; exists {
			return consensus("txIn %s referenced twice in tx %s", op, tx)
		}
		seen[op] = struct{}{}

		utxo, err := validateTxIn(in, tx, utxos)
		if err != nil {
			return err
		}

		if totalIn > math.MaxUint64-utxo.Amount {
			return consensus("txIn amounts overflow in tx %s", tx)
		}
		totalIn += utxo.Amount
	}

	totalOut, err := sumTxOuts(tx)
	if err != nil {
		return err
	}

	if totalIn != totalOut {
		return consensus("txIn total %d does not match txOut total %d in tx %s", totalIn, totalOut, tx)
	}

	return nil
}

// ValidateCoinbaseTx checks the reward transaction of the block at the
// specified index.
func ValidateCoinbaseTx(tx Tx, blockIndex uint64, reward uint64) error {
	if id := TransactionID(tx); id != tx.ID {
		return consensus("invalid coinbase tx id, got %.16s, exp %.16s", tx.ID, id)
	}

	if len(tx.TxIns) != 1 {
		return consensus("one txIn must be specified in the coinbase transaction, got %d", len(tx.TxIns))
	}

	// The coinbase input creates coins, it must not reference an output.
	if in := tx.TxIns[0]; in.TxOutID != "" || in.Signature != "" {
		return consensus("the txIn in coinbase tx must be empty, got %s", in.OutPoint())
	}

	if tx.TxIns[0].TxOutIndex != blockIndex {
		return consensus("the txIn index in coinbase tx must be the block height, got %d, exp %d", tx.TxIns[0].TxOutIndex, blockIndex)
	}

	if len(tx.TxOuts) != 1 {
		return consensus("invalid number of txOuts in coinbase transaction, got %d", len(tx.TxOuts))
	}

	if tx.TxOuts[0].Amount != reward {
		return consensus("invalid coinbase amount, got %d, exp %d", tx.TxOuts[0].Amount, reward)
	}

	return nil
}

// ValidateBlockTransactions checks the full transaction list of a block. The
// first transaction must be the coinbase, no output may be claimed twice
// within the block, and every other transaction must be valid on its own.
func ValidateBlockTransactions(txs []Tx, utxos UTXOSet, blockIndex uint64, reward uint64) error {
	if len(txs) == 0 {
		return consensus("the first transaction in the block must be the coinbase transaction")
	}

	if err := ValidateCoinbaseTx(txs[0], blockIndex, reward); err != nil {
		return err
	}

	seen := make(map[OutPoint]struct{})
	for _, tx := range txs {
		for _, in := range tx.TxIns {
			op := in.OutPoint()
			if _, exists := seen[op]; exists {
				return consensus("duplicate txIn %s", op)
			}
			seen[op] = struct{}{}
		}
	}

	for _, tx := range txs[1:] {
		if err := ValidateTransaction(tx, utxos); err != nil {
			return err
		}
	}

	return nil
}

// ApplyTransactions performs the UTXO transition for the transactions. The
// consumed outputs are removed and one output is added per TxOut. The
// transactions must have been validated.
func ApplyTransactions(txs []Tx, utxos UTXOSet) UTXOSet {
	consumed := make(map[OutPoint]struct{})
	for _, tx := range txs {
		for _, in := range tx.TxIns {
			consumed[in.OutPoint()] = struct{}{}
		}
	}

	outs := make([]UnspentTxOut, 0, utxos.Len())
	for _, utxo := range utxos.outs {
		if _, exists := consumed[utxo.OutPoint()]; !exists {
			outs = append(outs, utxo)
		}
	}

	for _, tx := range txs {
		for i, out := range tx.TxOuts {
			outs = append(outs, UnspentTxOut{
				TxOutID:    tx.ID,
				TxOutIndex: uint64(i),
				Address:    out.Address,
				Amount:     out.Amount,
			})
		}
	}

	return NewUTXOSet(outs)
}

// ProcessTransactions validates the block transactions and, only when they
// are valid, returns the resulting set of unspent outputs.
func ProcessTransactions(txs []Tx, utxos UTXOSet, blockIndex uint64, reward uint64) (UTXOSet, error) {
	for _, tx := range txs {
		if err := tx.ValidateStructure(); err != nil {
			return UTXOSet{}, err
		}
	}

	if err := ValidateBlockTransactions(txs, utxos, blockIndex, reward); err != nil {
		return UTXOSet{}, err
	}

	return ApplyTransactions(txs, utxos), nil
}

// =============================================================================

// validateTxIn checks the input refers to an unspent output and is signed by
// the owner of that output.
func validateTxIn(in TxIn, tx Tx, utxos UTXOSet) (UnspentTxOut, error) {
	utxo, exists := utxos.Find(in.TxOutID, in.TxOutIndex)
	if !exists {
		return UnspentTxOut{}, consensus("referenced txOut not found: %s", in.OutPoint())
	}

	if err := signature.Verify(utxo.Address, tx.ID, in.Signature); err != nil {
		return UnspentTxOut{}, consensus("txIn %s in tx %s: %s", in.OutPoint(), tx, err)
	}

	return utxo, nil
}

// sumTxOuts totals the output amounts.
func sumTxOuts(tx Tx) (uint64, error) {
	var total uint64
	for _, out := range tx.TxOuts {
		if total > math.MaxUint64-out.Amount {
			return 0, consensus("txOut amounts overflow in tx %s", tx)
		}
		total += out.Amount
	}

	return total, nil
}
