// Package wallet holds the node's private key and builds signed transactions
// from the set of unspent outputs.
package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/ardanlabs/utxocoin/foundation/blockchain/database"
	"github.com/ardanlabs/utxocoin/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/crypto"
)

// Wallet provides access to the private key kept by a KeyStore.
type Wallet struct {
	privateKey *ecdsa.PrivateKey
	address    string
}

// Init loads the private key from the store, generating and storing a new
// one when the store is empty.
func Init(store KeyStore) (*Wallet, error) {
	privateKey, err := store.Read()
	switch {
	case errors.Is(err, ErrNoKey):
		privateKey, err = crypto.GenerateKey()
		if err != nil {
			return nil, fmt.Errorf("generate key: %w", err)
		}

		if err := store.Write(privateKey); err != nil {
			return nil, fmt.Errorf("store key: %w", err)
		}

	case err != nil:
		return nil, fmt.Errorf("read key: %w", err)
	}

	return New(privateKey), nil
}

// New constructs a wallet for the private key.
func New(privateKey *ecdsa.PrivateKey) *Wallet {
	return &Wallet{
		privateKey: privateKey,
		address:    signature.PrivateKeyToAddress(privateKey),
	}
}

// Address returns the public key of the wallet as an address.
func (w *Wallet) Address() string {
	return w.address
}

// PrivateKey returns the private key of the wallet.
func (w *Wallet) PrivateKey() *ecdsa.PrivateKey {
	return w.privateKey
}

// PrivateKeyHex returns the private key as a hex encoded scalar.
func (w *Wallet) PrivateKeyHex() string {
	return signature.PrivateKeyToHex(w.privateKey)
}

// CreateTransaction builds a payment from this wallet. See CreateTransaction.
func (w *Wallet) CreateTransaction(receiver string, amount uint64, utxos database.UTXOSet, pool []database.Tx) (database.Tx, error) {
	return CreateTransaction(receiver, amount, w.privateKey, utxos, pool)
}

// =============================================================================

// Balance returns the sum of the unspent outputs owned by the address.
func Balance(address string, utxos database.UTXOSet) uint64 {
	return utxos.Balance(address)
}

// FindUnspentTxOuts returns the unspent outputs owned by the address.
func FindUnspentTxOuts(address string, utxos database.UTXOSet) []database.UnspentTxOut {
	return utxos.ForAddress(address)
}

// CreateTransaction builds and signs a transaction moving amount to the
// receiver. Outputs already claimed by a transaction in the pool are not
// spent again. Outputs are taken in order until they cover the amount and
// any leftover is returned to the sender as change.
func CreateTransaction(receiver string, amount uint64, privateKey *ecdsa.PrivateKey, utxos database.UTXOSet, pool []database.Tx) (database.Tx, error) {
	if !signature.IsAddress(receiver) {
		return database.Tx{}, fmt.Errorf("%w: invalid receiver address %.16s", database.ErrStructural, receiver)
	}

	if amount == 0 {
		return database.Tx{}, fmt.Errorf("%w: amount must be greater than zero", database.ErrStructural)
	}

	myAddress := signature.PrivateKeyToAddress(privateKey)

	spendable := filterPooled(utxos.ForAddress(myAddress), pool)

	selected, leftover, err := selectTxOuts(spendable, amount)
	if err != nil {
		return database.Tx{}, err
	}

	ins := make([]database.TxIn, len(selected))
	for i, utxo := range selected {
		ins[i] = database.TxIn{TxOutID: utxo.TxOutID, TxOutIndex: utxo.TxOutIndex}
	}

	outs := []database.TxOut{{Address: receiver, Amount: amount}}
	if leftover > 0 {
		outs = append(outs, database.TxOut{Address: myAddress, Amount: leftover})
	}

	tx, err := database.NewTx(ins, outs)
	if err != nil {
		return database.Tx{}, err
	}

	for i := range tx.TxIns {
		sig, err := database.SignTxIn(tx, i, privateKey, utxos)
		if err != nil {
			return database.Tx{}, err
		}
		tx.TxIns[i].Signature = sig
	}

	return tx, nil
}

// =============================================================================

// selectTxOuts accumulates outputs in order until they cover the amount.
func selectTxOuts(utxos []database.UnspentTxOut, amount uint64) ([]database.UnspentTxOut, uint64, error) {
	var total uint64
	for i, utxo := range utxos {
		total += utxo.Amount
		if total >= amount {
			return utxos[:i+1], total - amount, nil
		}
	}

	return nil, 0, fmt.Errorf("%w: need %d, have %d", database.ErrInsufficientFunds, amount, total)
}

// filterPooled removes the outputs claimed by a transaction in the pool.
func filterPooled(utxos []database.UnspentTxOut, pool []database.Tx) []database.UnspentTxOut {
	claimed := make(map[database.OutPoint]struct{})
	for _, tx := range pool {
		for _, in := range tx.TxIns {
			claimed[in.OutPoint()] = struct{}{}
		}
	}

	var spendable []database.UnspentTxOut
	for _, utxo := range utxos {
		if _, exists := claimed[utxo.OutPoint()]; !exists {
			spendable = append(spendable, utxo)
		}
	}

	return spendable
}
